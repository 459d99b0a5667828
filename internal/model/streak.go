package model

import (
	"time"
)

// Streak is the per-goal counter of consecutive calendar days with a verified proof.
// LongestCount >= CurrentCount holds after every transition.
type Streak struct {
	ID            string    `db:"id" json:"id"`
	GoalID        string    `db:"goal_id" json:"goal_id"`
	CurrentCount  int       `db:"current_count" json:"current_count"`
	LongestCount  int       `db:"longest_count" json:"longest_count"`
	LastProofDate *Date     `db:"last_proof_date" json:"last_proof_date,omitempty"`
	Version       int       `db:"version" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (s *Streak) IsActive() bool {
	return s.CurrentCount > 0
}
