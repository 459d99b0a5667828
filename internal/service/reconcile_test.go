package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/proovit/proovit/internal/db/dbtest"
	"github.com/proovit/proovit/internal/lock"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileFindsProofsAheadOfStreak(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()

	proofRepo := repository.NewProofRepository(database)
	streakRepo := repository.NewStreakRepository(database)
	engine := NewStreakEngine(streakRepo, lock.NewLocal(), 3)
	svc := NewReconcileService(proofRepo, streakRepo, time.UTC)

	owner := seedProfile(t, database, "owner")
	synced := seedGoal(t, database, owner.ID, "Synced")
	missing := seedGoal(t, database, owner.ID, "No streak row")
	behind := seedGoal(t, database, owner.ID, "Streak behind")

	addProof := func(goal *model.Goal, at time.Time) {
		score := 0.9
		require.NoError(t, proofRepo.Create(ctx, &model.Proof{
			ID:                uuid.New().String(),
			GoalID:            goal.ID,
			UserID:            owner.ID,
			ImagePath:         uuid.New().String() + ".jpg",
			Verified:          true,
			VerificationScore: &score,
			CreatedAt:         at,
		}))
	}

	jan5 := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	addProof(synced, jan5)
	_, err := engine.Increment(ctx, synced.ID, day(t, "2024-01-05"))
	require.NoError(t, err)

	addProof(missing, jan5)

	addProof(behind, jan5.AddDate(0, 0, -1))
	addProof(behind, jan5)
	_, err = engine.Increment(ctx, behind.ID, day(t, "2024-01-04"))
	require.NoError(t, err)

	gaps, err := svc.Gaps(ctx)
	require.NoError(t, err)
	require.Len(t, gaps, 2)

	byGoal := map[string]StreakGap{}
	for _, g := range gaps {
		byGoal[g.Proof.GoalID] = g
	}

	assert.Nil(t, byGoal[missing.ID].Streak)
	require.NotNil(t, byGoal[behind.ID].Streak)
	assert.Equal(t, "2024-01-04", byGoal[behind.ID].Streak.LastProofDate.String())
	assert.Equal(t, "2024-01-05", byGoal[behind.ID].ProofDay.String())
}
