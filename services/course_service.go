package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/course"
)

type CourseService struct {
	db *pgxpool.Pool
}

func NewCourseService(db *pgxpool.Pool) *CourseService {
	return &CourseService{db: db}
}

func (s *CourseService) ListCourses(ctx context.Context, includeInactive bool) ([]*course.Course, error) {
	query := `
	SELECT id, title, description, image_url, competence_area_id, chapters, active, created_at, updated_at
	FROM courses
	`
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

func (s *CourseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*course.Course, error) {
	query := `
	SELECT id, title, description, image_url, competence_area_id, chapters, active, created_at, updated_at
	FROM courses
	WHERE id = $1
	`

	c := &course.Course{}
	var chaptersJSON []byte
	err := s.db.QueryRow(ctx, query, courseID).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.CompetenceAreaID,
		&chaptersJSON,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course not found")
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if err := decodeChapters(chaptersJSON, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CourseService) CreateCourse(ctx context.Context, req *course.CreateCourseRequest) (*course.Course, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("course title is required")
	}
	if len(req.Chapters) == 0 {
		return nil, fmt.Errorf("a course needs at least one chapter")
	}
	for i := range req.Chapters {
		req.Chapters[i].Index = i
	}

	var areaID *uuid.UUID
	if req.CompetenceAreaID != nil && *req.CompetenceAreaID != "" {
		parsed, err := uuid.Parse(*req.CompetenceAreaID)
		if err != nil {
			return nil, fmt.Errorf("invalid competence area id: %w", err)
		}
		areaID = &parsed
	}

	chaptersJSON, err := json.Marshal(req.Chapters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chapters: %w", err)
	}

	c := &course.Course{}
	var rawChapters []byte
	query := `
	INSERT INTO courses (id, title, description, image_url, competence_area_id, chapters, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, true, NOW(), NOW())
	RETURNING id, title, description, image_url, competence_area_id, chapters, active, created_at, updated_at
	`
	err = s.db.QueryRow(ctx, query,
		uuid.New(), req.Title, req.Description, req.ImageURL, areaID, chaptersJSON,
	).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.CompetenceAreaID,
		&rawChapters,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	if err := decodeChapters(rawChapters, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, req *course.UpdateCourseRequest) (*course.Course, error) {
	if len(req.Chapters) == 0 {
		return nil, fmt.Errorf("a course needs at least one chapter")
	}
	for i := range req.Chapters {
		req.Chapters[i].Index = i
	}

	chaptersJSON, err := json.Marshal(req.Chapters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chapters: %w", err)
	}

	c := &course.Course{}
	var rawChapters []byte
	query := `
	UPDATE courses
	SET
		title = COALESCE(NULLIF($2, ''), title),
		description = COALESCE(NULLIF($3, ''), description),
		image_url = COALESCE($4, image_url),
		chapters = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING id, title, description, image_url, competence_area_id, chapters, active, created_at, updated_at
	`
	err = s.db.QueryRow(ctx, query, courseID, req.Title, req.Description, req.ImageURL, chaptersJSON).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.CompetenceAreaID,
		&rawChapters,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course not found")
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	if err := decodeChapters(rawChapters, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *CourseService) SetCourseActive(ctx context.Context, courseID uuid.UUID, active bool) error {
	result, err := s.db.Exec(ctx, `UPDATE courses SET active = $2, updated_at = NOW() WHERE id = $1`, courseID, active)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("course not found")
	}
	return nil
}

func (s *CourseService) ListCompetenceAreas(ctx context.Context) ([]*course.CompetenceArea, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM competence_areas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competence areas: %w", err)
	}
	defer rows.Close()

	var areas []*course.CompetenceArea
	for rows.Next() {
		a := &course.CompetenceArea{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Description); err != nil {
			return nil, fmt.Errorf("failed to scan competence area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return areas, nil
}

// SaveNote upserts the user's note for one chapter.
func (s *CourseService) SaveNote(ctx context.Context, userID, courseID uuid.UUID, chapterIndex int, content string) (*course.Note, error) {
	if chapterIndex < 0 {
		return nil, fmt.Errorf("chapter index must not be negative")
	}

	n := &course.Note{}
	query := `
	INSERT INTO chapter_notes (id, user_id, course_id, chapter_index, content, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id, course_id, chapter_index)
	DO UPDATE SET content = $5, updated_at = NOW()
	RETURNING id, user_id, course_id, chapter_index, content, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, uuid.New(), userID, courseID, chapterIndex, content).Scan(
		&n.ID,
		&n.UserID,
		&n.CourseID,
		&n.ChapterIndex,
		&n.Content,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}

	return n, nil
}

func (s *CourseService) GetNotes(ctx context.Context, userID, courseID uuid.UUID) ([]*course.Note, error) {
	query := `
	SELECT id, user_id, course_id, chapter_index, content, created_at, updated_at
	FROM chapter_notes
	WHERE user_id = $1 AND course_id = $2
	ORDER BY chapter_index ASC
	`

	rows, err := s.db.Query(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	defer rows.Close()

	var notes []*course.Note
	for rows.Next() {
		n := &course.Note{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.CourseID, &n.ChapterIndex, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func (s *CourseService) DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM chapter_notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("note not found")
	}
	return nil
}

func scanCourse(rows pgx.Rows) (*course.Course, error) {
	c := &course.Course{}
	var chaptersJSON []byte
	err := rows.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.ImageURL,
		&c.CompetenceAreaID,
		&chaptersJSON,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	if err := decodeChapters(chaptersJSON, c); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeChapters(raw []byte, c *course.Course) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &c.Chapters); err != nil {
		return fmt.Errorf("failed to decode chapters: %w", err)
	}
	return nil
}
