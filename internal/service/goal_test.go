package service

import (
	"context"
	"strings"
	"testing"

	"github.com/proovit/proovit/internal/db/dbtest"
	"github.com/proovit/proovit/internal/lock"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGoalServiceLifecycle(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()
	owner := seedProfile(t, database, "owner")
	other := seedProfile(t, database, "other")

	streakRepo := repository.NewStreakRepository(database)
	svc := NewGoalService(repository.NewGoalRepository(database), streakRepo)

	goal, err := svc.Create(ctx, owner.ID, GoalInput{Title: ptr("  Read 20 pages  "), Description: ptr("   ")})
	require.NoError(t, err)
	assert.Equal(t, "Read 20 pages", goal.Title)
	assert.Nil(t, goal.Description)
	assert.Equal(t, model.FrequencyDaily, goal.Frequency)
	assert.True(t, goal.IsActive)

	_, err = svc.ByID(ctx, other.ID, goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)

	engine := NewStreakEngine(streakRepo, lock.NewLocal(), 3)
	_, err = engine.Increment(ctx, goal.ID, day(t, "2024-01-01"))
	require.NoError(t, err)

	goals, err := svc.Goals(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, 1, goals[0].Streak.CurrentCount)

	updated, err := svc.Update(ctx, owner.ID, goal.ID, GoalInput{IsActive: ptr(false), Frequency: ptr(model.FrequencyWeekly)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, model.FrequencyWeekly, updated.Frequency)

	_, err = svc.ActiveByID(ctx, owner.ID, goal.ID)
	assert.ErrorIs(t, err, ErrGoalInactive)

	goals, err = svc.Goals(ctx, owner.ID, false)
	require.NoError(t, err)
	assert.Empty(t, goals)

	goals, err = svc.Goals(ctx, owner.ID, true)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	_, err = svc.Update(ctx, other.ID, goal.ID, GoalInput{IsActive: ptr(true)})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestGoalServiceValidation(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()
	owner := seedProfile(t, database, "owner")
	svc := NewGoalService(repository.NewGoalRepository(database), repository.NewStreakRepository(database))

	tests := []struct {
		name string
		in   GoalInput
	}{
		{"missing title", GoalInput{}},
		{"blank title", GoalInput{Title: ptr("   ")}},
		{"long title", GoalInput{Title: ptr(strings.Repeat("x", 201))}},
		{"bad frequency", GoalInput{Title: ptr("Run"), Frequency: ptr("hourly")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner.ID, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
