package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
)

var (
	ErrStreakNotFound = errors.New("streak not found")
	// ErrStreakConflict means the row changed between read and write.
	ErrStreakConflict = errors.New("streak was modified concurrently")
)

type StreakRepository interface {
	ByGoalID(ctx context.Context, goalID string) (*model.Streak, error)
	ByGoalIDs(ctx context.Context, goalIDs []string) ([]*model.Streak, error)
	Create(ctx context.Context, goalID string) (*model.Streak, error)
	Update(ctx context.Context, streak *model.Streak) error
}

type streakRepository struct {
	db *sqlx.DB
}

func NewStreakRepository(db *sqlx.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) ByGoalID(ctx context.Context, goalID string) (*model.Streak, error) {
	streak := &model.Streak{}
	query := `SELECT * FROM streaks WHERE goal_id = $1`

	err := r.db.GetContext(ctx, streak, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStreakNotFound
	}
	if err != nil {
		return nil, err
	}

	return streak, nil
}

func (r *streakRepository) ByGoalIDs(ctx context.Context, goalIDs []string) ([]*model.Streak, error) {
	var streaks []*model.Streak
	if len(goalIDs) == 0 {
		return streaks, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM streaks WHERE goal_id IN (?)`, goalIDs)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &streaks, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return streaks, nil
}

// Create inserts an empty streak for the goal. A concurrent create for the
// same goal is not an error: the row that won is returned.
func (r *streakRepository) Create(ctx context.Context, goalID string) (*model.Streak, error) {
	now := time.Now()
	query := `INSERT INTO streaks (id, goal_id, current_count, longest_count, last_proof_date, version, created_at, updated_at)
	          VALUES ($1, $2, 0, 0, NULL, 0, $3, $4)
	          ON CONFLICT (goal_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), goalID, now, now)
	if err != nil {
		return nil, err
	}

	return r.ByGoalID(ctx, goalID)
}

// Update writes the counters only if the row still carries streak.Version,
// then bumps the version. It returns ErrStreakConflict when another writer got there first.
func (r *streakRepository) Update(ctx context.Context, streak *model.Streak) error {
	now := time.Now()
	query := `UPDATE streaks
	          SET current_count = $1, longest_count = $2, last_proof_date = $3, version = version + 1, updated_at = $4
	          WHERE goal_id = $5 AND version = $6`

	result, err := r.db.ExecContext(ctx, query,
		streak.CurrentCount,
		streak.LongestCount,
		streak.LastProofDate,
		now,
		streak.GoalID,
		streak.Version,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		var count int
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streaks WHERE goal_id = $1`, streak.GoalID).Scan(&count)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrStreakNotFound
		}
		return ErrStreakConflict
	}

	streak.Version++
	streak.UpdatedAt = now
	return nil
}
