package model

import (
	"time"
)

// Proof is one persisted submission attempt for a goal.
// ImagePath is the object storage key, never the bytes.
type Proof struct {
	ID                string    `db:"id" json:"id"`
	GoalID            string    `db:"goal_id" json:"goal_id"`
	UserID            string    `db:"user_id" json:"user_id"`
	ImagePath         string    `db:"image_path" json:"image_path"`
	Caption           *string   `db:"caption" json:"caption,omitempty"`
	Verified          bool      `db:"verified" json:"verified"`
	VerificationScore *float64  `db:"verification_score" json:"verification_score,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	// Computed fields (not in database)
	ImageURL string `db:"-" json:"image_url,omitempty"`
}

// FeedProof is a verified proof joined with its goal title and author.
type FeedProof struct {
	Proof
	GoalTitle string `db:"goal_title" json:"goal_title"`
	Username  string `db:"username" json:"username"`
}
