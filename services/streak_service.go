package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/streak"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// RecordDailyActivity marks today for (user, activity type). Calling it
// again the same day is a no-op.
func (s *StreakService) RecordDailyActivity(ctx context.Context, userID uuid.UUID, activityType streak.ActivityType) error {
	query := `
	INSERT INTO daily_activity (id, user_id, activity_type, activity_date)
	VALUES ($1, $2, $3, CURRENT_DATE)
	ON CONFLICT (user_id, activity_type, activity_date) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, query, uuid.New(), userID, activityType); err != nil {
		return fmt.Errorf("failed to record daily activity: %w", err)
	}
	return nil
}

// GetCurrentStreak walks back from today (or yesterday if today has no
// mark) counting consecutive marked days. Today is the store's
// CURRENT_DATE, the same clock RecordDailyActivity writes marks with.
func (s *StreakService) GetCurrentStreak(ctx context.Context, userID uuid.UUID, activityType streak.ActivityType) (int, error) {
	var today time.Time
	if err := s.db.QueryRow(ctx, `SELECT CURRENT_DATE`).Scan(&today); err != nil {
		return 0, fmt.Errorf("failed to read current date: %w", err)
	}

	dates, err := s.markDates(ctx, userID, activityType, 400)
	if err != nil {
		return 0, err
	}
	return streak.Consecutive(dates, today), nil
}

func (s *StreakService) GetLongestStreak(ctx context.Context, userID uuid.UUID, activityType streak.ActivityType) (int, error) {
	dates, err := s.markDates(ctx, userID, activityType, 0)
	if err != nil {
		return 0, err
	}
	return streak.Longest(dates), nil
}

func (s *StreakService) markDates(ctx context.Context, userID uuid.UUID, activityType streak.ActivityType, limit int) ([]time.Time, error) {
	query := `
	SELECT activity_date
	FROM daily_activity
	WHERE user_id = $1 AND activity_type = $2
	ORDER BY activity_date DESC
	`
	args := []any{userID, activityType}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan activity date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}
