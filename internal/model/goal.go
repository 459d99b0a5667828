package model

import (
	"time"
)

const (
	FrequencyDaily        = "daily"
	FrequencyThreePerWeek = "3_per_week"
	FrequencyFivePerWeek  = "5_per_week"
	FrequencyWeekly       = "weekly"
)

// Frequencies lists the accepted goal frequencies in display order.
// Frequency is advisory: streaks are always counted in calendar days.
var Frequencies = []string{
	FrequencyDaily,
	FrequencyThreePerWeek,
	FrequencyFivePerWeek,
	FrequencyWeekly,
}

func IsValidFrequency(f string) bool {
	for _, v := range Frequencies {
		if v == f {
			return true
		}
	}
	return false
}

type Goal struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Frequency   string    `db:"frequency" json:"frequency"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GoalWithStreak is a goal with its current streak, zero if none exists yet.
type GoalWithStreak struct {
	*Goal
	Streak Streak `json:"streak"`
}
