package course

import (
	"time"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockVideo BlockType = "video"
)

// ContentBlock is one unit of chapter content. Text blocks carry Text,
// image and video blocks carry URL and an optional Caption.
type ContentBlock struct {
	Type    BlockType `json:"type"`
	Text    string    `json:"text,omitempty"`
	URL     string    `json:"url,omitempty"`
	Caption string    `json:"caption,omitempty"`
}

type Chapter struct {
	Index  int            `json:"index"`
	Title  string         `json:"title"`
	Blocks []ContentBlock `json:"blocks"`
}

type CompetenceArea struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
}

type Course struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Description      string     `json:"description" db:"description"`
	ImageURL         *string    `json:"image_url,omitempty" db:"image_url"`
	CompetenceAreaID *uuid.UUID `json:"competence_area_id,omitempty" db:"competence_area_id"`
	Chapters         []Chapter  `json:"chapters" db:"chapters"`
	Active           bool       `json:"active" db:"active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type Note struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	CourseID     uuid.UUID `json:"course_id" db:"course_id"`
	ChapterIndex int       `json:"chapter_index" db:"chapter_index"`
	Content      string    `json:"content" db:"content"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateCourseRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ImageURL         *string   `json:"image_url"`
	CompetenceAreaID *string   `json:"competence_area_id"`
	Chapters         []Chapter `json:"chapters"`
}

type UpdateCourseRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Chapters    []Chapter `json:"chapters"`
}
