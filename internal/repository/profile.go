package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileRepository interface {
	ByID(ctx context.Context, id string) (*model.Profile, error)
	ByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateUsername(ctx context.Context, id, username, usernameKey string, fullName *string) error
	SearchByUsername(ctx context.Context, keyPrefix string, limit int) ([]*model.Profile, error)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) ByPhoneNumber(ctx context.Context, phoneNumber string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE phone_number = $1`, phoneNumber)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, phone_number, username, username_folded, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, profile.ID, profile.PhoneNumber, profile.Username, profile.UsernameKey, profile.FullName, profile.CreatedAt)

	return err
}

func (r *profileRepository) UpdateUsername(ctx context.Context, id, username, usernameKey string, fullName *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET username = $1, username_folded = $2, full_name = $3
		WHERE id = $4
	`, username, usernameKey, fullName, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// SearchByUsername matches on the case-folded username prefix.
func (r *profileRepository) SearchByUsername(ctx context.Context, keyPrefix string, limit int) ([]*model.Profile, error) {
	var profiles []*model.Profile

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(keyPrefix)
	query := `SELECT * FROM profiles WHERE username_folded LIKE $1 ESCAPE '\' ORDER BY username_folded ASC LIMIT $2`

	err := r.db.SelectContext(ctx, &profiles, query, escaped+"%", limit)
	if err != nil {
		return nil, err
	}

	return profiles, nil
}
