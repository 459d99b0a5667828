package model

// Verdict is the outcome of asking the vision model whether an image
// supports a goal. It is consumed immediately and never stored as-is.
type Verdict struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}
