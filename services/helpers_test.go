package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB connects to the integration database. Tests that need it are
// skipped when TEST_DATABASE_URL is not set, so the unit suite stays green
// on machines without Postgres.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// createTestUser inserts a throwaway user and registers cleanup for every
// row keyed by its id.
func createTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	userID := uuid.New()
	clerkID := "user_test_" + userID.String()[:8]
	email := fmt.Sprintf("test%s@example.com", userID.String()[:8])

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, first_name, last_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'Test', 'User', 'user', NOW(), NOW())`,
		userID, clerkID, email, "testuser_"+userID.String()[:8],
	)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", userID)
		if err != nil {
			t.Logf("Warning: failed to cleanup test user: %v", err)
		}
	})

	return userID
}

// generateMockClerkJWT builds a signed token shaped like the ones Clerk
// issues, for request-level tests that only need the sub claim.
func generateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
