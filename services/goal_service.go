package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/goal"
)

// GoalService manages user-defined targets. Goal progress is advanced only
// through UpdateGoalProgress; the tracker and ledger do not feed goals
// automatically.
type GoalService struct {
	db *pgxpool.Pool
}

func NewGoalService(db *pgxpool.Pool) *GoalService {
	return &GoalService{db: db}
}

func (s *GoalService) CreateGoal(ctx context.Context, userID uuid.UUID, req *goal.CreateGoalRequest) (*goal.UserGoal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g := &goal.UserGoal{}
	query := `
	INSERT INTO user_goals (id, user_id, goal_type, target_value, current_value, period_start, period_end, is_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 0, $5, $6, false, NOW(), NOW())
	RETURNING id, user_id, goal_type, target_value, current_value, period_start, period_end, is_completed, completed_at, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		uuid.New(), userID, req.GoalType, req.TargetValue, req.PeriodStart, req.PeriodEnd,
	).Scan(
		&g.ID,
		&g.UserID,
		&g.GoalType,
		&g.TargetValue,
		&g.CurrentValue,
		&g.PeriodStart,
		&g.PeriodEnd,
		&g.IsCompleted,
		&g.CompletedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return g, nil
}

// UpdateGoalProgress sets the goal's current value. The completion flag
// flips once when the target is first reached; the completion timestamp is
// frozen there and later updates never move it.
func (s *GoalService) UpdateGoalProgress(ctx context.Context, goalID, userID uuid.UUID, newValue int) (*goal.UserGoal, error) {
	if newValue < 0 {
		return nil, fmt.Errorf("goal value must not be negative")
	}

	g, err := s.getOwned(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}

	goal.Apply(g, newValue, time.Now().UTC())

	query := `
	UPDATE user_goals
	SET current_value = $3, is_completed = $4, completed_at = $5, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING id, user_id, goal_type, target_value, current_value, period_start, period_end, is_completed, completed_at, created_at, updated_at
	`
	updated := &goal.UserGoal{}
	err = s.db.QueryRow(ctx, query, goalID, userID, g.CurrentValue, g.IsCompleted, g.CompletedAt).Scan(
		&updated.ID,
		&updated.UserID,
		&updated.GoalType,
		&updated.TargetValue,
		&updated.CurrentValue,
		&updated.PeriodStart,
		&updated.PeriodEnd,
		&updated.IsCompleted,
		&updated.CompletedAt,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	return updated, nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID uuid.UUID) ([]*goal.UserGoal, error) {
	query := `
	SELECT id, user_id, goal_type, target_value, current_value, period_start, period_end, is_completed, completed_at, created_at, updated_at
	FROM user_goals
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.UserGoal
	for rows.Next() {
		g := &goal.UserGoal{}
		err := rows.Scan(
			&g.ID,
			&g.UserID,
			&g.GoalType,
			&g.TargetValue,
			&g.CurrentValue,
			&g.PeriodStart,
			&g.PeriodEnd,
			&g.IsCompleted,
			&g.CompletedAt,
			&g.CreatedAt,
			&g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return goals, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, goalID, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM user_goals WHERE id = $1 AND user_id = $2`,
		goalID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("goal not found")
	}
	return nil
}

func (s *GoalService) getOwned(ctx context.Context, goalID, userID uuid.UUID) (*goal.UserGoal, error) {
	query := `
	SELECT id, user_id, goal_type, target_value, current_value, period_start, period_end, is_completed, completed_at, created_at, updated_at
	FROM user_goals
	WHERE id = $1 AND user_id = $2
	`

	g := &goal.UserGoal{}
	err := s.db.QueryRow(ctx, query, goalID, userID).Scan(
		&g.ID,
		&g.UserID,
		&g.GoalType,
		&g.TargetValue,
		&g.CurrentValue,
		&g.PeriodStart,
		&g.PeriodEnd,
		&g.IsCompleted,
		&g.CompletedAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("goal not found")
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return g, nil
}
