package goal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	TypeCoursesCompleted GoalType = "courses_completed"
	TypeStudyDays        GoalType = "study_days"
	TypePointsEarned     GoalType = "points_earned"
)

func ValidType(t GoalType) bool {
	switch t {
	case TypeCoursesCompleted, TypeStudyDays, TypePointsEarned:
		return true
	}
	return false
}

type UserGoal struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	GoalType     GoalType   `json:"goal_type" db:"goal_type"`
	TargetValue  int        `json:"target_value" db:"target_value"`
	CurrentValue int        `json:"current_value" db:"current_value"`
	PeriodStart  time.Time  `json:"period_start" db:"period_start"`
	PeriodEnd    time.Time  `json:"period_end" db:"period_end"`
	IsCompleted  bool       `json:"is_completed" db:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateGoalRequest struct {
	GoalType    GoalType  `json:"goal_type"`
	TargetValue int       `json:"target_value"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func (r *CreateGoalRequest) Validate() error {
	if !ValidType(r.GoalType) {
		return fmt.Errorf("unknown goal type: %s", r.GoalType)
	}
	if r.TargetValue <= 0 {
		return fmt.Errorf("target value must be positive")
	}
	if !r.PeriodEnd.After(r.PeriodStart) {
		return fmt.Errorf("period end must be after period start")
	}
	return nil
}

// Apply advances the goal to newValue. The goal completes the first time
// newValue reaches the target; completed_at is frozen at that moment and
// never moves on later updates.
func Apply(g *UserGoal, newValue int, now time.Time) {
	g.CurrentValue = newValue
	g.UpdatedAt = now
	if !g.IsCompleted && newValue >= g.TargetValue {
		g.IsCompleted = true
		g.CompletedAt = &now
	}
}
