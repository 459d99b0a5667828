package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
)

type FriendshipRepository interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	Following(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]string, error)
	Feed(ctx context.Context, userIDs []string, limit int) ([]*model.FeedProof, error)
}

type friendshipRepository struct {
	db *sqlx.DB
}

func NewFriendshipRepository(db *sqlx.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

// Follow is idempotent: following someone twice keeps a single row.
func (r *friendshipRepository) Follow(ctx context.Context, followerID, followingID string) error {
	query := `INSERT INTO friendships (follower_id, following_id, created_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (follower_id, following_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, followerID, followingID, time.Now())
	return err
}

func (r *friendshipRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	query := `DELETE FROM friendships WHERE follower_id = $1 AND following_id = $2`
	_, err := r.db.ExecContext(ctx, query, followerID, followingID)
	return err
}

func (r *friendshipRepository) Following(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	query := `SELECT following_id FROM friendships WHERE follower_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *friendshipRepository) Followers(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	query := `SELECT follower_id FROM friendships WHERE following_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Feed returns the newest verified proofs authored by any of userIDs.
func (r *friendshipRepository) Feed(ctx context.Context, userIDs []string, limit int) ([]*model.FeedProof, error) {
	proofs := []*model.FeedProof{}
	if len(userIDs) == 0 {
		return proofs, nil
	}

	query, args, err := sqlx.In(`
		SELECT p.*, g.title AS goal_title, COALESCE(pr.username, '') AS username
		FROM proofs p
		JOIN goals g ON g.id = p.goal_id
		JOIN profiles pr ON pr.id = p.user_id
		WHERE p.verified = ? AND p.user_id IN (?)
		ORDER BY p.created_at DESC
		LIMIT ?`, true, userIDs, limit)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &proofs, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return proofs, nil
}
