package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/proovit/proovit/internal/lock"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
)

// Advance applies one verified proof on day today to s and reports whether
// anything changed. Streaks count calendar days:
//
//	no prior proof  -> current = 1
//	same day        -> unchanged
//	next day        -> current + 1
//	gap of 2+ days  -> current = 1
//	earlier day     -> unchanged (clock skew or backdated proof)
//
// longest never drops below current.
func Advance(s model.Streak, today model.Date) (model.Streak, bool) {
	if s.LastProofDate == nil {
		s.CurrentCount = 1
	} else {
		switch days := today.DaysSince(*s.LastProofDate); {
		case days <= 0:
			return s, false
		case days == 1:
			s.CurrentCount++
		default:
			s.CurrentCount = 1
		}
	}

	if s.CurrentCount > s.LongestCount {
		s.LongestCount = s.CurrentCount
	}
	s.LastProofDate = &today

	return s, true
}

type StreakEngine struct {
	repo       repository.StreakRepository
	locker     lock.Locker
	maxRetries uint64
}

func NewStreakEngine(repo repository.StreakRepository, locker lock.Locker, maxRetries uint64) *StreakEngine {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &StreakEngine{
		repo:       repo,
		locker:     locker,
		maxRetries: maxRetries,
	}
}

// Streak returns the stored streak, or an unsaved zero streak if the goal has none yet.
func (e *StreakEngine) Streak(ctx context.Context, goalID string) (*model.Streak, error) {
	streak, err := e.repo.ByGoalID(ctx, goalID)
	if errors.Is(err, repository.ErrStreakNotFound) {
		return &model.Streak{GoalID: goalID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return streak, nil
}

// Increment records a verified proof for goalID on day today. Writes for the
// same goal are serialized by the locker, and the version-checked update
// catches writers that bypass it (another process without a shared lock).
func (e *StreakEngine) Increment(ctx context.Context, goalID string, today model.Date) (*model.Streak, error) {
	if strings.TrimSpace(goalID) == "" {
		return nil, invalidInput("goal id is required")
	}
	if today.IsZero() {
		return nil, invalidInput("day is required")
	}

	unlock, err := e.locker.Lock(ctx, "streak:"+goalID)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire streak lock: %w", ErrPersistence, err)
	}
	defer unlock()

	var result *model.Streak
	attempt := 0

	op := func() error {
		attempt++

		current, err := e.getOrCreate(ctx, goalID)
		if err != nil {
			return backoff.Permanent(err)
		}

		next, changed := Advance(*current, today)
		if !changed {
			result = current
			return nil
		}

		err = e.repo.Update(ctx, &next)
		if errors.Is(err, repository.ErrStreakConflict) || errors.Is(err, repository.ErrStreakNotFound) {
			slog.Warn("streak write conflict, retrying", "goal_id", goalID, "attempt", attempt)
			return err
		}
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: update streak: %w", ErrPersistence, err))
		}

		result = &next
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, e.maxRetries), ctx))
	if err != nil {
		if errors.Is(err, ErrStreakNotFound) || errors.Is(err, ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: streak for goal %s: %w", ErrPersistence, goalID, err)
	}

	slog.Debug("streak advanced",
		"goal_id", goalID,
		"current_count", result.CurrentCount,
		"longest_count", result.LongestCount,
		"last_proof_date", today.String(),
	)

	return result, nil
}

func (e *StreakEngine) getOrCreate(ctx context.Context, goalID string) (*model.Streak, error) {
	streak, err := e.repo.ByGoalID(ctx, goalID)
	if err == nil {
		return streak, nil
	}
	if !errors.Is(err, repository.ErrStreakNotFound) {
		return nil, fmt.Errorf("%w: read streak: %w", ErrPersistence, err)
	}

	streak, err = e.repo.Create(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("%w: goal %s: %w", ErrStreakNotFound, goalID, err)
	}

	return streak, nil
}
