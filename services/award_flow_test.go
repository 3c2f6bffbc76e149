package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillForgeAPI/internal/badge"
	"skillForgeAPI/internal/certificate"
	"skillForgeAPI/internal/points"
)

func pointsBadge(t *testing.T, badges *BadgeService, minimum, reward int) *badge.Badge {
	t.Helper()

	req := &CreateBadgeRequest{
		Name:         "Test Badge " + t.Name(),
		Description:  "integration fixture",
		Icon:         "star",
		Category:     badge.CategoryPoints,
		Criteria:     badge.Criteria{PointsMinimum: minimum},
		PointsReward: reward,
		Rarity:       badge.RarityCommon,
	}

	b, err := badges.CreateBadge(context.Background(), req)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = badges.db.Exec(ctx, "DELETE FROM user_badges WHERE badge_id = $1", b.ID)
		_, err := badges.db.Exec(ctx, "DELETE FROM badges WHERE id = $1", b.ID)
		if err != nil {
			t.Logf("Warning: failed to cleanup test badge: %v", err)
		}
	})

	return b
}

func pointsCertificate(t *testing.T, certs *CertificateService, required int) *certificate.Certificate {
	t.Helper()

	req := &CreateCertificateRequest{
		Name:            "Test Certificate " + t.Name(),
		Description:     "integration fixture",
		CertificateType: "achievement",
		PointsRequired:  required,
	}

	c, err := certs.CreateCertificate(context.Background(), req)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = certs.db.Exec(ctx, "DELETE FROM user_certificates WHERE certificate_id = $1", c.ID)
		_, err := certs.db.Exec(ctx, "DELETE FROM certificates WHERE id = $1", c.ID)
		if err != nil {
			t.Logf("Warning: failed to cleanup test certificate: %v", err)
		}
	})

	return c
}

func TestBadgeAwardedAtMostOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)

	ledger := NewPointsService(pool, points.DefaultLevelStep)
	streaks := NewStreakService(pool)
	badges := NewBadgeService(pool, ledger, streaks)

	b := pointsBadge(t, badges, 50, 25)
	ctx := context.Background()

	// Below the threshold nothing fires.
	awarded, err := badges.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	_, err = ledger.AwardPoints(ctx, userID, 50, points.ActivityAdminGrant, nil)
	require.NoError(t, err)

	// Crossing the threshold grants exactly the one badge.
	awarded, err = badges.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, b.ID, awarded[0].ID)

	// Re-checking with the badge already earned grants nothing more.
	awarded, err = badges.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	var grants int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_id = $2",
		userID, b.ID,
	).Scan(&grants)
	require.NoError(t, err)
	assert.Equal(t, 1, grants)

	// The points reward must have landed exactly once.
	history, err := ledger.GetHistory(ctx, userID, 10)
	require.NoError(t, err)
	rewards := 0
	for _, e := range history {
		if e.ActivityType == points.ActivityBadgeReward {
			rewards++
		}
	}
	assert.Equal(t, 1, rewards)

	total, err := ledger.GetTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 75, total.TotalPoints)
}

func TestCertificateIssuedOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)

	ledger := NewPointsService(pool, points.DefaultLevelStep)
	certs := NewCertificateService(pool, "http://localhost:3333")

	cert := pointsCertificate(t, certs, 40)
	ctx := context.Background()

	// Short of the requirement nothing is issued.
	require.NoError(t, certs.CheckAndAwardCertificates(ctx, userID))
	held, err := certs.ListUserCertificates(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, held)

	_, err = ledger.AwardPoints(ctx, userID, 40, points.ActivityAdminGrant, nil)
	require.NoError(t, err)

	require.NoError(t, certs.CheckAndAwardCertificates(ctx, userID))
	held, err = certs.ListUserCertificates(ctx, userID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	code, ok := held[0]["verification_code"].(string)
	require.True(t, ok)
	assert.Len(t, code, 32)

	// A second pass over the same state is a no-op.
	require.NoError(t, certs.CheckAndAwardCertificates(ctx, userID))
	var issued int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM user_certificates WHERE user_id = $1", userID,
	).Scan(&issued)
	require.NoError(t, err)
	assert.Equal(t, 1, issued)

	// The code printed on the certificate resolves through public lookup.
	res, err := certs.VerifyByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, cert.Name, res.CertificateName)
	assert.False(t, res.Revoked)
	_, err = time.Parse(time.RFC3339, res.IssuedAt)
	assert.NoError(t, err, "issued_at must be RFC 3339")
}
