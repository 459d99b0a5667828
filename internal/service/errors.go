package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistence wraps storage failures on proof or streak writes.
	ErrPersistence = errors.New("persistence failed")
	// ErrStreakNotFound means the streak row could not be created on demand.
	ErrStreakNotFound = errors.New("streak could not be created")
)

// Stage names the submission step that failed.
type Stage string

const (
	StageUpload  Stage = "upload"
	StageVerify  Stage = "verify"
	StagePersist Stage = "persist"
	StageStreak  Stage = "streak"
)

// SubmissionError is returned when a proof submission fails after input
// validation. ProofID is set only when the proof row was written, which means
// the proof exists but the streak did not advance.
type SubmissionError struct {
	Stage     Stage
	ImagePath string
	ProofID   string
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.ProofID != "" {
		return fmt.Sprintf("submission failed at %s (proof %s): %v", e.Stage, e.ProofID, e.Err)
	}
	return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
