package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/storage"
)

type FeedService struct {
	friendshipRepo repository.FriendshipRepository
	storage        storage.Storage
	limit          int
	signedURLTTL   time.Duration
}

func NewFeedService(friendshipRepo repository.FriendshipRepository, storage storage.Storage, limit int, signedURLTTL time.Duration) *FeedService {
	if limit <= 0 {
		limit = 50
	}
	return &FeedService{
		friendshipRepo: friendshipRepo,
		storage:        storage,
		limit:          limit,
		signedURLTTL:   signedURLTTL,
	}
}

// Feed returns verified proofs by userID and everyone they follow, newest first.
func (s *FeedService) Feed(ctx context.Context, userID string) ([]*model.FeedProof, error) {
	following, err := s.friendshipRepo.Following(ctx, userID)
	if err != nil {
		return nil, err
	}

	proofs, err := s.friendshipRepo.Feed(ctx, append(following, userID), s.limit)
	if err != nil {
		return nil, err
	}

	for _, p := range proofs {
		url, err := s.storage.SignedURL(ctx, p.ImagePath, s.signedURLTTL)
		if err != nil {
			slog.Warn("failed to sign feed image", "error", err, "proof_id", p.ID)
			continue
		}
		p.ImageURL = url
	}

	return proofs, nil
}
