package leaderboard

import "github.com/google/uuid"

type Entry struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Username    string    `json:"username" db:"username"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	TotalPoints int       `json:"total_points" db:"total_points"`
	Level       int       `json:"level" db:"level"`
	Rank        int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries      []*Entry `json:"entries"`
	UserPosition *Entry   `json:"user_position"`
	TotalUsers   int      `json:"total_users"`
}
