package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/validation"
)

var ErrGoalInactive = errors.New("goal is not active")

type GoalService struct {
	repo       repository.GoalRepository
	streakRepo repository.StreakRepository
}

func NewGoalService(repo repository.GoalRepository, streakRepo repository.StreakRepository) *GoalService {
	return &GoalService{
		repo:       repo,
		streakRepo: streakRepo,
	}
}

// GoalInput carries the editable fields. Nil means "leave unchanged" on update.
type GoalInput struct {
	Title       *string
	Description *string
	Frequency   *string
	IsActive    *bool
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	title := ""
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	err := validation.ValidateGoalTitle(title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	frequency := model.FrequencyDaily
	if in.Frequency != nil && *in.Frequency != "" {
		frequency = *in.Frequency
	}
	if !model.IsValidFrequency(frequency) {
		return nil, invalidInput("unknown frequency %q", frequency)
	}

	now := time.Now()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: trimmedOrNil(in.Description),
		Frequency:   frequency,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

// ByID returns the goal only if userID owns it. Someone else's goal looks missing.
func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if goal.UserID != userID {
		return nil, repository.ErrGoalNotFound
	}

	return goal, nil
}

// ActiveByID is ByID restricted to goals that still accept proofs.
func (s *GoalService) ActiveByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if !goal.IsActive {
		return nil, ErrGoalInactive
	}

	return goal, nil
}

// Goals lists the user's goals, newest first, each with its streak.
func (s *GoalService) Goals(ctx context.Context, userID string, includeInactive bool) ([]*model.GoalWithStreak, error) {
	goals, err := s.repo.Goals(ctx, userID, includeInactive)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}

	streaks, err := s.streakRepo.ByGoalIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byGoal := make(map[string]*model.Streak, len(streaks))
	for _, st := range streaks {
		byGoal[st.GoalID] = st
	}

	result := make([]*model.GoalWithStreak, 0, len(goals))
	for _, g := range goals {
		item := &model.GoalWithStreak{Goal: g, Streak: model.Streak{GoalID: g.ID}}
		if st, ok := byGoal[g.ID]; ok {
			item.Streak = *st
		}
		result = append(result, item)
	}

	return result, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, in GoalInput) (*model.Goal, error) {
	// Verify ownership
	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		err = validation.ValidateGoalTitle(title)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		goal.Title = title
	}

	if in.Description != nil {
		goal.Description = trimmedOrNil(in.Description)
	}

	if in.Frequency != nil {
		if !model.IsValidFrequency(*in.Frequency) {
			return nil, invalidInput("unknown frequency %q", *in.Frequency)
		}
		goal.Frequency = *in.Frequency
	}

	if in.IsActive != nil {
		goal.IsActive = *in.IsActive
	}

	err = s.repo.Update(ctx, goal)
	if err != nil {
		return nil, err
	}

	return goal, nil
}
