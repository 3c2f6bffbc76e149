package badge

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryProgress   Category = "progress"
	CategoryPoints     Category = "points"
	CategoryStreak     Category = "streak"
	CategoryCompetence Category = "competence"
	CategoryTemporal   Category = "temporal"
	CategorySpecial    Category = "special"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Criteria is the category-dependent award rule. Only the field matching
// the badge category is meaningful.
type Criteria struct {
	CoursesCompleted int `json:"courses_completed,omitempty"`
	PointsMinimum    int `json:"points_minimum,omitempty"`
	StreakDays       int `json:"streak_days,omitempty"`
}

type Badge struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Icon         string    `json:"icon" db:"icon"`
	Category     Category  `json:"category" db:"category"`
	Criteria     Criteria  `json:"criteria" db:"criteria"`
	PointsReward int       `json:"points_reward" db:"points_reward"`
	Rarity       Rarity    `json:"rarity" db:"rarity"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type UserBadge struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID  uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

type BadgeWithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// Snapshot carries the derived user state badge criteria are evaluated
// against.
type Snapshot struct {
	CoursesCompleted int
	TotalPoints      int
	StudyStreakDays  int
}

// Eligible reports whether b's criteria are met by snap. The second return
// is false for categories with no automatic check wired (competence,
// temporal, special are admin-granted). A badge whose threshold is zero or
// negative never fires automatically; a criteria row like that is
// misconfigured and would otherwise award itself to every user.
func Eligible(b Badge, snap Snapshot) (met, automatic bool) {
	switch b.Category {
	case CategoryProgress:
		return b.Criteria.CoursesCompleted > 0 && snap.CoursesCompleted >= b.Criteria.CoursesCompleted, true
	case CategoryPoints:
		return b.Criteria.PointsMinimum > 0 && snap.TotalPoints >= b.Criteria.PointsMinimum, true
	case CategoryStreak:
		return b.Criteria.StreakDays > 0 && snap.StudyStreakDays >= b.Criteria.StreakDays, true
	default:
		return false, false
	}
}
