package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/stretchr/testify/require"
)

func day(t testing.TB, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func seedProfile(t testing.TB, db *sqlx.DB, username string) *model.Profile {
	t.Helper()
	key := username
	p := &model.Profile{
		PhoneNumber: "+1555" + uuid.New().String()[:7],
		Username:    &username,
		UsernameKey: &key,
	}
	require.NoError(t, repository.NewProfileRepository(db).Create(context.Background(), p))
	return p
}

func seedGoal(t testing.TB, db *sqlx.DB, userID, title string) *model.Goal {
	t.Helper()
	now := time.Now()
	g := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Frequency: model.FrequencyDaily,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repository.NewGoalRepository(db).Create(context.Background(), g))
	return g
}
