package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/metrics"
	"skillForgeAPI/internal/notification"
	"skillForgeAPI/internal/points"
	"skillForgeAPI/internal/progress"
)

type ProgressService struct {
	db            *pgxpool.Pool
	ledger        *PointsService
	badges        *BadgeService
	notifications *NotificationService
	chapterPoints int
	coursePoints  int
}

func NewProgressService(db *pgxpool.Pool, ledger *PointsService, badges *BadgeService, chapterPoints, coursePoints int) *ProgressService {
	if chapterPoints <= 0 {
		chapterPoints = points.DefaultChapterPoints
	}
	if coursePoints <= 0 {
		coursePoints = points.DefaultCoursePoints
	}
	return &ProgressService{
		db:            db,
		ledger:        ledger,
		badges:        badges,
		chapterPoints: chapterPoints,
		coursePoints:  coursePoints,
	}
}

func (s *ProgressService) SetNotificationService(n *NotificationService) {
	s.notifications = n
}

// MarkChapterComplete records one chapter completion and recomputes course
// progress. Re-marking an already completed chapter is a no-op: no
// duplicate row, no second chapter award. totalChapters comes from the
// caller, which owns the authoritative course structure.
func (s *ProgressService) MarkChapterComplete(ctx context.Context, userID, courseID uuid.UUID, chapterIndex, totalChapters int) (*progress.CourseProgress, error) {
	if totalChapters <= 0 {
		return nil, fmt.Errorf("course has no chapters")
	}
	if chapterIndex < 0 || chapterIndex >= totalChapters {
		return nil, fmt.Errorf("chapter index %d out of range [0, %d)", chapterIndex, totalChapters)
	}

	completion := &progress.ChapterCompletion{}
	insertQuery := `
	INSERT INTO chapter_completions (id, user_id, course_id, chapter_index, completed_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (user_id, course_id, chapter_index) DO NOTHING
	RETURNING id, user_id, course_id, chapter_index, completed_at
	`
	err := s.db.QueryRow(ctx, insertQuery, uuid.New(), userID, courseID, chapterIndex).Scan(
		&completion.ID,
		&completion.UserID,
		&completion.CourseID,
		&completion.ChapterIndex,
		&completion.CompletedAt,
	)
	newlyCompleted := true
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to record chapter completion: %w", err)
		}
		newlyCompleted = false
	}

	if newlyCompleted {
		metrics.ChaptersCompleted.Inc()
		if _, err := s.ledger.AwardPoints(ctx, userID, s.chapterPoints, points.ActivityChapterCompleted, &courseID); err != nil {
			return nil, fmt.Errorf("failed to award chapter points: %w", err)
		}
	}

	return s.RecomputeCourseProgress(ctx, userID, courseID, totalChapters)
}

// RecomputeCourseProgress derives the percentage from the set of completed
// chapters and upserts the per-course row. The first time the percentage
// reaches 100, completed_at is set, the course completion award fires and
// badges are re-evaluated; later recomputes at 100 change nothing.
func (s *ProgressService) RecomputeCourseProgress(ctx context.Context, userID, courseID uuid.UUID, totalChapters int) (*progress.CourseProgress, error) {
	if totalChapters <= 0 {
		return nil, fmt.Errorf("course has no chapters")
	}

	var completed int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT chapter_index) FROM chapter_completions WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&completed)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed chapters: %w", err)
	}

	pct := progress.Percentage(completed, totalChapters)

	var alreadyDone bool
	err = s.db.QueryRow(ctx,
		`SELECT completed_at IS NOT NULL FROM course_progress WHERE user_id = $1 AND course_id = $2`,
		userID, courseID,
	).Scan(&alreadyDone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read course progress: %w", err)
	}

	cp := &progress.CourseProgress{}
	upsertQuery := `
	INSERT INTO course_progress (user_id, course_id, percentage, completed_at, updated_at)
	VALUES ($1, $2, $3, CASE WHEN $3 = 100 THEN NOW() END, NOW())
	ON CONFLICT (user_id, course_id)
	DO UPDATE SET
		percentage = $3,
		completed_at = COALESCE(course_progress.completed_at, CASE WHEN $3 = 100 THEN NOW() END),
		updated_at = NOW()
	RETURNING user_id, course_id, percentage, completed_at, updated_at
	`
	err = s.db.QueryRow(ctx, upsertQuery, userID, courseID, pct).Scan(
		&cp.UserID,
		&cp.CourseID,
		&cp.Percentage,
		&cp.CompletedAt,
		&cp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert course progress: %w", err)
	}

	if pct == 100 && !alreadyDone {
		if _, err := s.ledger.AwardPoints(ctx, userID, s.coursePoints, points.ActivityCourseCompleted, &courseID); err != nil {
			return nil, fmt.Errorf("failed to award course completion points: %w", err)
		}
		if _, err := s.badges.CheckAndAwardBadges(ctx, userID); err != nil {
			return nil, fmt.Errorf("badge check after course completion failed: %w", err)
		}
		s.notifyCourseCompleted(ctx, userID, courseID)
	}

	return cp, nil
}

func (s *ProgressService) notifyCourseCompleted(ctx context.Context, userID, courseID uuid.UUID) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.Create(ctx, userID, notification.NotificationCourseCompleted,
		"Course completed",
		"You finished every chapter of a course. Nicely done!",
		map[string]any{"course_id": courseID.String()},
	)
	if err != nil {
		log.Printf("failed to create course completion notification: %v", err)
	}
}

func (s *ProgressService) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*progress.CourseProgress, error) {
	query := `
	SELECT user_id, course_id, percentage, completed_at, updated_at
	FROM course_progress
	WHERE user_id = $1 AND course_id = $2
	`

	cp := &progress.CourseProgress{}
	err := s.db.QueryRow(ctx, query, userID, courseID).Scan(
		&cp.UserID,
		&cp.CourseID,
		&cp.Percentage,
		&cp.CompletedAt,
		&cp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &progress.CourseProgress{UserID: userID, CourseID: courseID, Percentage: 0}, nil
		}
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}

	return cp, nil
}

func (s *ProgressService) ListUserProgress(ctx context.Context, userID uuid.UUID) ([]*progress.CourseProgress, error) {
	query := `
	SELECT user_id, course_id, percentage, completed_at, updated_at
	FROM course_progress
	WHERE user_id = $1
	ORDER BY updated_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user progress: %w", err)
	}
	defer rows.Close()

	var list []*progress.CourseProgress
	for rows.Next() {
		cp := &progress.CourseProgress{}
		if err := rows.Scan(&cp.UserID, &cp.CourseID, &cp.Percentage, &cp.CompletedAt, &cp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course progress: %w", err)
		}
		list = append(list, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (s *ProgressService) GetCompletedChapters(ctx context.Context, userID, courseID uuid.UUID) ([]int, error) {
	query := `
	SELECT chapter_index
	FROM chapter_completions
	WHERE user_id = $1 AND course_id = $2
	ORDER BY chapter_index ASC
	`

	rows, err := s.db.Query(ctx, query, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed chapters: %w", err)
	}
	defer rows.Close()

	var indices []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("failed to scan chapter index: %w", err)
		}
		indices = append(indices, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return indices, nil
}
