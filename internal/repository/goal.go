package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string, includeInactive bool) ([]*model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, description, frequency, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Frequency,
		goal.IsActive,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.GetContext(ctx, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, userID string, includeInactive bool) ([]*model.Goal, error) {
	var goals []*model.Goal

	query := `SELECT * FROM goals WHERE user_id = $1 AND is_active = $2 ORDER BY created_at DESC`
	args := []any{userID, true}
	if includeInactive {
		query = `SELECT * FROM goals WHERE user_id = $1 ORDER BY created_at DESC`
		args = args[:1]
	}

	err := r.db.SelectContext(ctx, &goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Update writes the mutable fields of a goal. Owner and creation time never change.
func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	goal.UpdatedAt = time.Now()

	query := `UPDATE goals
	          SET title = $1, description = $2, frequency = $3, is_active = $4, updated_at = $5
	          WHERE id = $6 AND user_id = $7`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Frequency,
		goal.IsActive,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}
