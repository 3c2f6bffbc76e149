package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillForgeAPI/internal/course"
	"skillForgeAPI/internal/points"
	"skillForgeAPI/internal/streak"
)

func threeChapterCourse(t *testing.T, courses *CourseService) *course.Course {
	t.Helper()

	req := &course.CreateCourseRequest{
		Title:       "Test Course " + t.Name(),
		Description: "integration fixture",
		Chapters: []course.Chapter{
			{Title: "Intro", Blocks: []course.ContentBlock{{Type: course.BlockText, Text: "welcome"}}},
			{Title: "Middle", Blocks: []course.ContentBlock{{Type: course.BlockText, Text: "more"}}},
			{Title: "End", Blocks: []course.ContentBlock{{Type: course.BlockText, Text: "done"}}},
		},
	}

	c, err := courses.CreateCourse(context.Background(), req)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, err := courses.db.Exec(context.Background(), "DELETE FROM courses WHERE id = $1", c.ID)
		if err != nil {
			t.Logf("Warning: failed to cleanup test course: %v", err)
		}
	})

	return c
}

func TestChapterCompletionFlow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)

	ledger := NewPointsService(pool, points.DefaultLevelStep)
	streaks := NewStreakService(pool)
	badges := NewBadgeService(pool, ledger, streaks)
	tracker := NewProgressService(pool, ledger, badges, points.DefaultChapterPoints, points.DefaultCoursePoints)
	courses := NewCourseService(pool)

	c := threeChapterCourse(t, courses)
	ctx := context.Background()

	// First chapter lands at a rounded third.
	prog, err := tracker.MarkChapterComplete(ctx, userID, c.ID, 0, len(c.Chapters))
	require.NoError(t, err)
	assert.Equal(t, 33, prog.Percentage)
	assert.Nil(t, prog.CompletedAt)

	total, err := ledger.GetTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, points.DefaultChapterPoints, total.TotalPoints)

	// Repeating the same chapter changes nothing and awards nothing.
	prog, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 0, len(c.Chapters))
	require.NoError(t, err)
	assert.Equal(t, 33, prog.Percentage)

	total, err = ledger.GetTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, points.DefaultChapterPoints, total.TotalPoints)

	// Finishing the remaining chapters completes the course exactly once.
	_, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 1, len(c.Chapters))
	require.NoError(t, err)
	prog, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 2, len(c.Chapters))
	require.NoError(t, err)
	assert.Equal(t, 100, prog.Percentage)
	require.NotNil(t, prog.CompletedAt)
	firstCompletion := *prog.CompletedAt

	total, err = ledger.GetTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3*points.DefaultChapterPoints+points.DefaultCoursePoints, total.TotalPoints)

	// Re-marking a chapter after completion must not move completed_at.
	prog, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 2, len(c.Chapters))
	require.NoError(t, err)
	require.NotNil(t, prog.CompletedAt)
	assert.Equal(t, firstCompletion, *prog.CompletedAt)

	total, err = ledger.GetTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3*points.DefaultChapterPoints+points.DefaultCoursePoints, total.TotalPoints)
}

func TestMarkChapterCompleteRejectsBadInput(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)

	ledger := NewPointsService(pool, points.DefaultLevelStep)
	streaks := NewStreakService(pool)
	badges := NewBadgeService(pool, ledger, streaks)
	tracker := NewProgressService(pool, ledger, badges, points.DefaultChapterPoints, points.DefaultCoursePoints)
	courses := NewCourseService(pool)

	c := threeChapterCourse(t, courses)
	ctx := context.Background()

	_, err := tracker.MarkChapterComplete(ctx, userID, c.ID, -1, len(c.Chapters))
	assert.Error(t, err)

	_, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 3, len(c.Chapters))
	assert.Error(t, err)

	_, err = tracker.MarkChapterComplete(ctx, userID, c.ID, 0, 0)
	assert.Error(t, err)
}

func TestStreakRecordingIsIdempotentPerDay(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)
	streaks := NewStreakService(pool)
	ctx := context.Background()

	require.NoError(t, streaks.RecordDailyActivity(ctx, userID, streak.ActivityStudy))
	require.NoError(t, streaks.RecordDailyActivity(ctx, userID, streak.ActivityStudy))

	current, err := streaks.GetCurrentStreak(ctx, userID, streak.ActivityStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, current)

	longest, err := streaks.GetLongestStreak(ctx, userID, streak.ActivityStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, longest)
}

func TestAwardPointsLevelsUp(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	userID := createTestUser(t, pool)
	ledger := NewPointsService(pool, points.DefaultLevelStep)
	ctx := context.Background()

	_, err := ledger.AwardPoints(ctx, userID, 0, points.ActivityAdminGrant, nil)
	assert.Error(t, err, "zero points must be rejected")

	_, err = ledger.AwardPoints(ctx, userID, -5, points.ActivityAdminGrant, nil)
	assert.Error(t, err, "negative points must be rejected")

	total, err := ledger.AwardPoints(ctx, userID, 95, points.ActivityAdminGrant, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total.Level)
	assert.Equal(t, 5, total.PointsToNextLevel)

	total, err = ledger.AwardPoints(ctx, userID, 10, points.ActivityAdminGrant, nil)
	require.NoError(t, err)
	assert.Equal(t, 105, total.TotalPoints)
	assert.Equal(t, 2, total.Level)

	history, err := ledger.GetHistory(ctx, userID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
