package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEligibleProgress(t *testing.T) {
	b := Badge{Category: CategoryProgress, Criteria: Criteria{CoursesCompleted: 5}}

	met, automatic := Eligible(b, Snapshot{CoursesCompleted: 5})
	assert.True(t, met)
	assert.True(t, automatic)

	met, _ = Eligible(b, Snapshot{CoursesCompleted: 4})
	assert.False(t, met)

	met, _ = Eligible(b, Snapshot{CoursesCompleted: 12})
	assert.True(t, met)
}

func TestEligiblePoints(t *testing.T) {
	b := Badge{Category: CategoryPoints, Criteria: Criteria{PointsMinimum: 500}}

	met, automatic := Eligible(b, Snapshot{TotalPoints: 500})
	assert.True(t, met)
	assert.True(t, automatic)

	met, _ = Eligible(b, Snapshot{TotalPoints: 499})
	assert.False(t, met)
}

func TestEligibleStreak(t *testing.T) {
	b := Badge{Category: CategoryStreak, Criteria: Criteria{StreakDays: 7}}

	met, automatic := Eligible(b, Snapshot{StudyStreakDays: 7})
	assert.True(t, met)
	assert.True(t, automatic)

	met, _ = Eligible(b, Snapshot{StudyStreakDays: 6})
	assert.False(t, met)
}

func TestEligibleManualCategories(t *testing.T) {
	// Rich snapshot should never auto-award an admin-granted category.
	snap := Snapshot{CoursesCompleted: 100, TotalPoints: 100000, StudyStreakDays: 365}

	for _, cat := range []Category{CategoryCompetence, CategoryTemporal, CategorySpecial} {
		met, automatic := Eligible(Badge{Category: cat}, snap)
		assert.False(t, met, "category %s", cat)
		assert.False(t, automatic, "category %s", cat)
	}
}

func TestEligibleZeroCriteria(t *testing.T) {
	// A misconfigured badge with an empty threshold never fires.
	for _, b := range []Badge{
		{Category: CategoryProgress},
		{Category: CategoryPoints},
		{Category: CategoryStreak},
	} {
		met, _ := Eligible(b, Snapshot{CoursesCompleted: 3, TotalPoints: 300, StudyStreakDays: 3})
		assert.False(t, met, "category %s", b.Category)
	}
}
