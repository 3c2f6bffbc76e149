package goal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CreateGoalRequest {
	return CreateGoalRequest{
		GoalType:    TypeCoursesCompleted,
		TargetValue: 5,
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateGoalRequestValidate(t *testing.T) {
	req := validRequest()
	assert.NoError(t, req.Validate())

	req = validRequest()
	req.GoalType = "world_domination"
	assert.Error(t, req.Validate())

	req = validRequest()
	req.TargetValue = 0
	assert.Error(t, req.Validate())

	req = validRequest()
	req.PeriodEnd = req.PeriodStart
	assert.Error(t, req.Validate())

	req = validRequest()
	req.PeriodEnd = req.PeriodStart.AddDate(0, 0, -1)
	assert.Error(t, req.Validate())
}

func TestApplyCompletesOnce(t *testing.T) {
	g := &UserGoal{GoalType: TypeStudyDays, TargetValue: 10}

	t1 := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	Apply(g, 9, t1)
	assert.False(t, g.IsCompleted)
	assert.Nil(t, g.CompletedAt)
	assert.Equal(t, 9, g.CurrentValue)

	t2 := t1.Add(24 * time.Hour)
	Apply(g, 10, t2)
	require.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, t2, *g.CompletedAt)

	// Later updates move the value but never the completion time.
	t3 := t2.Add(24 * time.Hour)
	Apply(g, 15, t3)
	assert.True(t, g.IsCompleted)
	assert.Equal(t, t2, *g.CompletedAt)
	assert.Equal(t, 15, g.CurrentValue)
	assert.Equal(t, t3, g.UpdatedAt)
}

func TestApplyOvershootCompletes(t *testing.T) {
	g := &UserGoal{GoalType: TypePointsEarned, TargetValue: 100}

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	Apply(g, 250, now)
	assert.True(t, g.IsCompleted)
	require.NotNil(t, g.CompletedAt)
	assert.Equal(t, now, *g.CompletedAt)
}
