package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
	"github.com/stretchr/testify/require"
)

func createProfile(t *testing.T, db *sqlx.DB, username string) *model.Profile {
	t.Helper()
	key := username
	p := &model.Profile{PhoneNumber: "+1" + uuid.New().String()[:8], Username: &username, UsernameKey: &key}
	require.NoError(t, NewProfileRepository(db).Create(context.Background(), p))
	return p
}

func createGoal(t *testing.T, db *sqlx.DB, userID string) *model.Goal {
	t.Helper()
	now := time.Now()
	g := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "Walk the dog",
		Frequency: model.FrequencyDaily,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewGoalRepository(db).Create(context.Background(), g))
	return g
}
