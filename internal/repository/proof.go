package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/proovit/proovit/internal/model"
)

var (
	ErrProofNotFound = errors.New("proof not found")
)

type ProofRepository interface {
	Create(ctx context.Context, proof *model.Proof) error
	ByID(ctx context.Context, proofID string) (*model.Proof, error)
	Proofs(ctx context.Context, goalID string) ([]*model.Proof, error)
	UpdateVerification(ctx context.Context, proofID string, verified bool, score float64) (*model.Proof, error)
	LatestVerified(ctx context.Context) ([]*model.Proof, error)
}

type proofRepository struct {
	db *sqlx.DB
}

func NewProofRepository(db *sqlx.DB) ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, proof *model.Proof) error {
	query := `INSERT INTO proofs (id, goal_id, user_id, image_path, caption, verified, verification_score, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		proof.ID,
		proof.GoalID,
		proof.UserID,
		proof.ImagePath,
		proof.Caption,
		proof.Verified,
		proof.VerificationScore,
		proof.CreatedAt,
	)

	return err
}

func (r *proofRepository) ByID(ctx context.Context, proofID string) (*model.Proof, error) {
	proof := &model.Proof{}
	query := `SELECT * FROM proofs WHERE id = $1`

	err := r.db.GetContext(ctx, proof, query, proofID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProofNotFound
	}
	if err != nil {
		return nil, err
	}

	return proof, nil
}

func (r *proofRepository) Proofs(ctx context.Context, goalID string) ([]*model.Proof, error) {
	var proofs []*model.Proof
	query := `SELECT * FROM proofs WHERE goal_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &proofs, query, goalID)
	if err != nil {
		return nil, err
	}

	return proofs, nil
}

// UpdateVerification overwrites the verdict fields only. Writing the same values twice is a no-op.
func (r *proofRepository) UpdateVerification(ctx context.Context, proofID string, verified bool, score float64) (*model.Proof, error) {
	query := `UPDATE proofs SET verified = $1, verification_score = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, verified, score, proofID)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		return nil, ErrProofNotFound
	}

	return r.ByID(ctx, proofID)
}

// LatestVerified returns the newest verified proof of every goal that has one.
func (r *proofRepository) LatestVerified(ctx context.Context) ([]*model.Proof, error) {
	var proofs []*model.Proof
	query := `SELECT p.* FROM proofs p
	          WHERE p.verified = $1
	            AND p.created_at = (
	                SELECT MAX(p2.created_at) FROM proofs p2
	                WHERE p2.goal_id = p.goal_id AND p2.verified = $1
	            )
	          ORDER BY p.created_at DESC`

	err := r.db.SelectContext(ctx, &proofs, query, true)
	if err != nil {
		return nil, err
	}

	return proofs, nil
}
