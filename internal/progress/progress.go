package progress

import (
	"time"

	"github.com/google/uuid"
)

type ChapterCompletion struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	CourseID     uuid.UUID `json:"course_id" db:"course_id"`
	ChapterIndex int       `json:"chapter_index" db:"chapter_index"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}

type CourseProgress struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	CourseID    uuid.UUID  `json:"course_id" db:"course_id"`
	Percentage  int        `json:"percentage" db:"percentage"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Percentage returns round-half-up(100 * completed / total) clamped to
// [0, 100]. Callers must guard total > 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed <= 0 {
		return 0
	}
	pct := (200*completed + total) / (2 * total)
	if pct > 100 {
		return 100
	}
	return pct
}
