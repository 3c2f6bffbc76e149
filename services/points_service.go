package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/metrics"
	"skillForgeAPI/internal/points"
)

type PointsService struct {
	db           *pgxpool.Pool
	levelStep    int
	certificates *CertificateService
}

func NewPointsService(db *pgxpool.Pool, levelStep int) *PointsService {
	if levelStep <= 0 {
		levelStep = points.DefaultLevelStep
	}
	return &PointsService{db: db, levelStep: levelStep}
}

// SetCertificateService wires the post-award certificate eligibility check.
// Injected after construction to keep service setup order simple.
func (s *PointsService) SetCertificateService(certs *CertificateService) {
	s.certificates = certs
}

// AwardPoints appends a ledger entry and moves the user's running total in
// one transaction, so a failed insert never leaves a drifted total. Every
// award is followed by a certificate eligibility check.
func (s *PointsService) AwardPoints(ctx context.Context, userID uuid.UUID, pts int, activityType points.ActivityType, activityID *uuid.UUID) (*points.TotalPoints, error) {
	if pts <= 0 {
		return nil, fmt.Errorf("points must be positive, got %d", pts)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entryQuery := `
	INSERT INTO points_entries (id, user_id, points, activity_type, activity_id, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := tx.Exec(ctx, entryQuery, uuid.New(), userID, pts, activityType, activityID); err != nil {
		return nil, fmt.Errorf("failed to insert points entry: %w", err)
	}

	var newTotal int
	totalQuery := `
	INSERT INTO user_total_points (user_id, total_points, level, points_to_next_level, updated_at)
	VALUES ($1, $2, 1, $3, NOW())
	ON CONFLICT (user_id)
	DO UPDATE SET total_points = user_total_points.total_points + $2, updated_at = NOW()
	RETURNING total_points
	`
	if err := tx.QueryRow(ctx, totalQuery, userID, pts, s.levelStep).Scan(&newTotal); err != nil {
		return nil, fmt.Errorf("failed to update total points: %w", err)
	}

	total := &points.TotalPoints{
		UserID:            userID,
		TotalPoints:       newTotal,
		Level:             points.Level(newTotal, s.levelStep),
		PointsToNextLevel: points.ToNextLevel(newTotal, s.levelStep),
	}

	levelQuery := `
	UPDATE user_total_points
	SET level = $2, points_to_next_level = $3
	WHERE user_id = $1
	`
	if _, err := tx.Exec(ctx, levelQuery, userID, total.Level, total.PointsToNextLevel); err != nil {
		return nil, fmt.Errorf("failed to update level: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit points award: %w", err)
	}

	metrics.PointsGranted.WithLabelValues(string(activityType)).Add(float64(pts))

	if s.certificates != nil {
		if err := s.certificates.CheckAndAwardCertificates(ctx, userID); err != nil {
			return nil, fmt.Errorf("certificate check after award failed: %w", err)
		}
	}

	return total, nil
}

// GetTotalPoints returns the user's running total, defaulting to an empty
// level-1 record for users with no ledger entries yet.
func (s *PointsService) GetTotalPoints(ctx context.Context, userID uuid.UUID) (*points.TotalPoints, error) {
	query := `
	SELECT user_id, total_points, level, points_to_next_level, updated_at
	FROM user_total_points
	WHERE user_id = $1
	`

	total := &points.TotalPoints{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&total.UserID,
		&total.TotalPoints,
		&total.Level,
		&total.PointsToNextLevel,
		&total.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &points.TotalPoints{
				UserID:            userID,
				TotalPoints:       0,
				Level:             1,
				PointsToNextLevel: s.levelStep,
			}, nil
		}
		return nil, fmt.Errorf("failed to get total points: %w", err)
	}

	return total, nil
}

func (s *PointsService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*points.Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
	SELECT id, user_id, points, activity_type, activity_id, created_at
	FROM points_entries
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points history: %w", err)
	}
	defer rows.Close()

	var entries []*points.Entry
	for rows.Next() {
		e := &points.Entry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Points, &e.ActivityType, &e.ActivityID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan points entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
