package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/validation"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
)

var (
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrPhoneNumberTaken = errors.New("phone number is already registered")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)

type ProfileService struct {
	profileRepo    repository.ProfileRepository
	friendshipRepo repository.FriendshipRepository
	goalRepo       repository.GoalRepository
	streakRepo     repository.StreakRepository
	searchLimit    int
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	friendshipRepo repository.FriendshipRepository,
	goalRepo repository.GoalRepository,
	streakRepo repository.StreakRepository,
	searchLimit int,
) *ProfileService {
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &ProfileService{
		profileRepo:    profileRepo,
		friendshipRepo: friendshipRepo,
		goalRepo:       goalRepo,
		streakRepo:     streakRepo,
		searchLimit:    searchLimit,
	}
}

// usernameKey folds case so "Sam" and "sam" collide.
func usernameKey(username string) string {
	return cases.Fold().String(username)
}

func (s *ProfileService) Create(ctx context.Context, phoneNumber, username string, fullName *string) (*model.Profile, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	err := validation.ValidatePhoneNumber(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	_, err = s.profileRepo.ByPhoneNumber(ctx, phoneNumber)
	if err == nil {
		return nil, ErrPhoneNumberTaken
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	profile := &model.Profile{PhoneNumber: phoneNumber}

	username = strings.TrimSpace(username)
	if username != "" {
		key, err := s.claimUsername(ctx, "", username)
		if err != nil {
			return nil, err
		}
		profile.Username = &username
		profile.UsernameKey = &key
	}

	profile.FullName, err = normalizeFullName(fullName)
	if err != nil {
		return nil, err
	}

	err = s.profileRepo.Create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

func (s *ProfileService) ByID(ctx context.Context, id string) (*model.Profile, error) {
	return s.profileRepo.ByID(ctx, id)
}

func (s *ProfileService) UpdateUsername(ctx context.Context, id, username string, fullName *string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	key, err := s.claimUsername(ctx, id, username)
	if err != nil {
		return nil, err
	}

	name, err := normalizeFullName(fullName)
	if err != nil {
		return nil, err
	}

	err = s.profileRepo.UpdateUsername(ctx, id, username, key, name)
	if err != nil {
		return nil, err
	}

	return s.profileRepo.ByID(ctx, id)
}

// claimUsername validates username and checks nobody but ownerID holds it.
// The unique index still guards the race between check and write.
func (s *ProfileService) claimUsername(ctx context.Context, ownerID, username string) (string, error) {
	err := validation.ValidateUsername(username)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	key := usernameKey(username)
	matches, err := s.profileRepo.SearchByUsername(ctx, key, 1)
	if err != nil {
		return "", err
	}
	if len(matches) > 0 && matches[0].UsernameKey != nil && *matches[0].UsernameKey == key && matches[0].ID != ownerID {
		return "", ErrUsernameTaken
	}

	return key, nil
}

func normalizeFullName(fullName *string) (*string, error) {
	name := trimmedOrNil(fullName)
	if name == nil {
		return nil, nil
	}
	err := validation.ValidateName(*name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return name, nil
}

// Search finds profiles whose username starts with prefix, ignoring case.
func (s *ProfileService) Search(ctx context.Context, prefix string) ([]*model.Profile, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*model.Profile{}, nil
	}

	profiles, err := s.profileRepo.SearchByUsername(ctx, usernameKey(prefix), s.searchLimit)
	if err != nil {
		return nil, err
	}

	if profiles == nil {
		profiles = []*model.Profile{}
	}

	// Phone numbers stay private in search results.
	for _, p := range profiles {
		p.PhoneNumber = ""
	}

	return profiles, nil
}

func (s *ProfileService) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return ErrCannotFollowSelf
	}

	_, err := s.profileRepo.ByID(ctx, followingID)
	if err != nil {
		return err
	}

	return s.friendshipRepo.Follow(ctx, followerID, followingID)
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, followingID string) error {
	return s.friendshipRepo.Unfollow(ctx, followerID, followingID)
}

func (s *ProfileService) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.friendshipRepo.Followers(ctx, userID)
}

func (s *ProfileService) Following(ctx context.Context, userID string) ([]string, error) {
	return s.friendshipRepo.Following(ctx, userID)
}

// Stats loads goal, streak and follow counts for userID as seen by viewerID.
func (s *ProfileService) Stats(ctx context.Context, viewerID, userID string) (*model.ProfileStats, error) {
	var (
		stats     model.ProfileStats
		followers []string
		following []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		goals, err := s.goalRepo.Goals(gctx, userID, false)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		stats.TotalGoals = len(goals)

		ids := make([]string, 0, len(goals))
		for _, goal := range goals {
			ids = append(ids, goal.ID)
		}

		streaks, err := s.streakRepo.ByGoalIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("load streaks: %w", err)
		}
		for _, st := range streaks {
			if st.IsActive() {
				stats.ActiveStreaks++
			}
			if st.LongestCount > stats.LongestStreak {
				stats.LongestStreak = st.LongestCount
			}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		followers, err = s.friendshipRepo.Followers(gctx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		following, err = s.friendshipRepo.Following(gctx, userID)
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	stats.FollowersCount = len(followers)
	stats.FollowingCount = len(following)
	for _, id := range followers {
		if id == viewerID {
			stats.IsFollowing = true
			break
		}
	}

	return &stats, nil
}
