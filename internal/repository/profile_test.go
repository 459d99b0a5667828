package repository

import (
	"context"
	"testing"

	"github.com/proovit/proovit/internal/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileSearchEscapesWildcards(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewProfileRepository(db)

	createProfile(t, db, "a_b")
	createProfile(t, db, "axb")
	createProfile(t, db, "a%c")

	found, err := repo.SearchByUsername(ctx, "a_", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a_b", *found[0].Username)

	found, err = repo.SearchByUsername(ctx, "a%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = repo.SearchByUsername(ctx, "a", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestFriendshipRepository(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewFriendshipRepository(db)

	a := createProfile(t, db, "a")
	b := createProfile(t, db, "b")

	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))
	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))

	following, err := repo.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, following)

	followers, err := repo.Followers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, followers)

	assert.Error(t, repo.Follow(ctx, a.ID, a.ID))

	require.NoError(t, repo.Unfollow(ctx, a.ID, b.ID))
	following, err = repo.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}
