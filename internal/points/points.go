package points

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityChapterCompleted ActivityType = "chapter_completed"
	ActivityCourseCompleted  ActivityType = "course_completed"
	ActivityBadgeReward      ActivityType = "badge_reward"
	ActivityAdminGrant       ActivityType = "admin_grant"
)

// Default award sizes. Overridable through env in main.go.
const (
	DefaultChapterPoints = 10
	DefaultCoursePoints  = 50
	DefaultLevelStep     = 100
)

type Entry struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	Points       int          `json:"points" db:"points"`
	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	ActivityID   *uuid.UUID   `json:"activity_id,omitempty" db:"activity_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

type TotalPoints struct {
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	TotalPoints       int       `json:"total_points" db:"total_points"`
	Level             int       `json:"level" db:"level"`
	PointsToNextLevel int       `json:"points_to_next_level" db:"points_to_next_level"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Level is 1 + floor(total / step). A fresh user with 0 points is level 1.
func Level(total, step int) int {
	if step <= 0 {
		step = DefaultLevelStep
	}
	if total < 0 {
		total = 0
	}
	return 1 + total/step
}

func ToNextLevel(total, step int) int {
	if step <= 0 {
		step = DefaultLevelStep
	}
	if total < 0 {
		total = 0
	}
	return step - total%step
}
