package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/badge"
	"skillForgeAPI/internal/metrics"
	"skillForgeAPI/internal/notification"
	"skillForgeAPI/internal/points"
	"skillForgeAPI/internal/streak"
)

type BadgeService struct {
	db            *pgxpool.Pool
	ledger        *PointsService
	streaks       *StreakService
	notifications *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, ledger *PointsService, streaks *StreakService) *BadgeService {
	return &BadgeService{db: db, ledger: ledger, streaks: streaks}
}

func (s *BadgeService) SetNotificationService(n *NotificationService) {
	s.notifications = n
}

// CheckAndAwardBadges re-evaluates the whole active catalog against the
// user's current derived state and grants anything newly met. Returns the
// badges awarded by this call. O(catalog) per call; fine at this scale.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Badge, error) {
	candidates, err := s.unearnedActiveBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []*badge.Badge
	for _, b := range candidates {
		met, automatic := badge.Eligible(*b, *snap)
		if !automatic || !met {
			continue
		}

		granted, err := s.grant(ctx, userID, b.ID)
		if err != nil {
			return awarded, err
		}
		if !granted {
			// concurrent check already granted it
			continue
		}

		metrics.BadgesAwarded.WithLabelValues(string(b.Category)).Inc()
		awarded = append(awarded, b)

		if b.PointsReward > 0 {
			badgeID := b.ID
			if _, err := s.ledger.AwardPoints(ctx, userID, b.PointsReward, points.ActivityBadgeReward, &badgeID); err != nil {
				return awarded, fmt.Errorf("failed to award badge points: %w", err)
			}
		}

		s.notifyEarned(ctx, userID, b)
	}

	return awarded, nil
}

func (s *BadgeService) unearnedActiveBadges(ctx context.Context, userID uuid.UUID) ([]*badge.Badge, error) {
	query := `
	SELECT b.id, b.name, b.description, b.icon, b.category, b.criteria, b.points_reward, b.rarity, b.active, b.created_at
	FROM badges b
	LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
	WHERE b.active = true AND ub.id IS NULL
	ORDER BY b.created_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badge catalog: %w", err)
	}
	defer rows.Close()

	var badges []*badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return badges, nil
}

// snapshot loads the derived state the criteria compare against.
func (s *BadgeService) snapshot(ctx context.Context, userID uuid.UUID) (*badge.Snapshot, error) {
	snap := &badge.Snapshot{}

	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM course_progress WHERE user_id = $1 AND percentage = 100`,
		userID,
	).Scan(&snap.CoursesCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed courses: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT COALESCE(total_points, 0) FROM user_total_points WHERE user_id = $1`,
		userID,
	).Scan(&snap.TotalPoints)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get total points: %w", err)
	}

	streakDays, err := s.streaks.GetCurrentStreak(ctx, userID, streak.ActivityStudy)
	if err != nil {
		return nil, err
	}
	snap.StudyStreakDays = streakDays

	return snap, nil
}

// grant inserts the user badge. A unique-key conflict means a concurrent
// evaluation won the race; reported as not-granted, never as an error.
func (s *BadgeService) grant(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	query := `
	INSERT INTO user_badges (id, user_id, badge_id, earned_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, badge_id) DO NOTHING
	`

	result, err := s.db.Exec(ctx, query, uuid.New(), userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to grant badge: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GrantBadge awards a badge directly, bypassing criteria evaluation. Used
// for manually awarded categories (competence, temporal, special).
func (s *BadgeService) GrantBadge(ctx context.Context, userID, badgeID uuid.UUID) (*badge.Badge, error) {
	b, err := s.getBadge(ctx, badgeID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, fmt.Errorf("badge is not active")
	}

	granted, err := s.grant(ctx, userID, badgeID)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, fmt.Errorf("badge already earned")
	}

	metrics.BadgesAwarded.WithLabelValues(string(b.Category)).Inc()

	if b.PointsReward > 0 {
		if _, err := s.ledger.AwardPoints(ctx, userID, b.PointsReward, points.ActivityBadgeReward, &badgeID); err != nil {
			return nil, fmt.Errorf("failed to award badge points: %w", err)
		}
	}

	s.notifyEarned(ctx, userID, b)
	return b, nil
}

func (s *BadgeService) getBadge(ctx context.Context, badgeID uuid.UUID) (*badge.Badge, error) {
	query := `
	SELECT id, name, description, icon, category, criteria, points_reward, rarity, active, created_at
	FROM badges
	WHERE id = $1
	`

	row := s.db.QueryRow(ctx, query, badgeID)
	b, err := scanBadge(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("badge not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *BadgeService) notifyEarned(ctx context.Context, userID uuid.UUID, b *badge.Badge) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.Create(ctx, userID, notification.NotificationBadgeEarned,
		"Badge earned",
		fmt.Sprintf("You earned the badge %q", b.Name),
		map[string]any{"badge_id": b.ID.String(), "rarity": b.Rarity},
	)
	if err != nil {
		log.Printf("failed to create badge notification: %v", err)
	}
}

// ListBadges returns the full catalog with the user's earned status, earned
// first, the way profile pages render it.
func (s *BadgeService) ListBadges(ctx context.Context, userID uuid.UUID) ([]*badge.BadgeWithStatus, error) {
	query := `
	SELECT
		b.id, b.name, b.description, b.icon, b.category, b.criteria, b.points_reward, b.rarity, b.active, b.created_at,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END as earned,
		ub.earned_at
	FROM badges b
	LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
	WHERE b.active = true
	ORDER BY earned DESC, b.created_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		bs := &badge.BadgeWithStatus{}
		var criteriaJSON []byte
		err := rows.Scan(
			&bs.ID,
			&bs.Name,
			&bs.Description,
			&bs.Icon,
			&bs.Category,
			&criteriaJSON,
			&bs.PointsReward,
			&bs.Rarity,
			&bs.Active,
			&bs.CreatedAt,
			&bs.Earned,
			&bs.EarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		if len(criteriaJSON) > 0 {
			if err := json.Unmarshal(criteriaJSON, &bs.Criteria); err != nil {
				return nil, fmt.Errorf("failed to decode badge criteria: %w", err)
			}
		}
		badges = append(badges, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return badges, nil
}

type CreateBadgeRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Icon         string         `json:"icon"`
	Category     badge.Category `json:"category"`
	Criteria     badge.Criteria `json:"criteria"`
	PointsReward int            `json:"points_reward"`
	Rarity       badge.Rarity   `json:"rarity"`
}

func (s *BadgeService) CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*badge.Badge, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("badge name is required")
	}
	if req.PointsReward < 0 {
		return nil, fmt.Errorf("points_reward must not be negative")
	}

	criteriaJSON, err := json.Marshal(req.Criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to encode criteria: %w", err)
	}

	b := &badge.Badge{}
	var rawCriteria []byte
	query := `
	INSERT INTO badges (id, name, description, icon, category, criteria, points_reward, rarity, active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, NOW())
	RETURNING id, name, description, icon, category, criteria, points_reward, rarity, active, created_at
	`
	err = s.db.QueryRow(ctx, query,
		uuid.New(), req.Name, req.Description, req.Icon, req.Category, criteriaJSON, req.PointsReward, req.Rarity,
	).Scan(
		&b.ID,
		&b.Name,
		&b.Description,
		&b.Icon,
		&b.Category,
		&rawCriteria,
		&b.PointsReward,
		&b.Rarity,
		&b.Active,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create badge: %w", err)
	}
	if len(rawCriteria) > 0 {
		if err := json.Unmarshal(rawCriteria, &b.Criteria); err != nil {
			return nil, fmt.Errorf("failed to decode badge criteria: %w", err)
		}
	}

	return b, nil
}

func (s *BadgeService) SetBadgeActive(ctx context.Context, badgeID uuid.UUID, active bool) error {
	result, err := s.db.Exec(ctx, `UPDATE badges SET active = $2 WHERE id = $1`, badgeID, active)
	if err != nil {
		return fmt.Errorf("failed to update badge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("badge not found")
	}
	return nil
}

func scanBadge(rows pgx.Row) (*badge.Badge, error) {
	b := &badge.Badge{}
	var criteriaJSON []byte
	err := rows.Scan(
		&b.ID,
		&b.Name,
		&b.Description,
		&b.Icon,
		&b.Category,
		&criteriaJSON,
		&b.PointsReward,
		&b.Rarity,
		&b.Active,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &b.Criteria); err != nil {
			return nil, fmt.Errorf("failed to decode badge criteria: %w", err)
		}
	}
	return b, nil
}
