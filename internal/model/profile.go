package model

import "time"

type Profile struct {
	ID          string    `db:"id" json:"id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number,omitempty"`
	Username    *string   `db:"username" json:"username,omitempty"`
	UsernameKey *string   `db:"username_folded" json:"-"`
	FullName    *string   `db:"full_name" json:"full_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ProfileStats summarises a user's goals and streaks.
type ProfileStats struct {
	TotalGoals     int  `json:"total_goals"`
	ActiveStreaks  int  `json:"active_streaks"`
	LongestStreak  int  `json:"longest_streak"`
	FollowersCount int  `json:"followers_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
}
