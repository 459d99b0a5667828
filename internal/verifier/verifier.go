// Package verifier asks a vision-capable model whether a photo is
// convincing evidence that a habit goal was performed.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/proovit/proovit/internal/model"
)

var (
	ErrInvalidInput = errors.New("image path and goal title are required")
	// ErrUnavailable covers every way the upstream call can fail to produce a response:
	// network errors, non-success statuses and undecodable envelopes.
	ErrUnavailable = errors.New("verification unavailable")
)

// Verifier returns a verdict for the image stored at imagePath.
// Implementations do not retry.
type Verifier interface {
	Verify(ctx context.Context, imagePath, goalTitle string) (*model.Verdict, error)
}

// URLSigner resolves a storage path into a short-lived fetchable URL.
type URLSigner interface {
	PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

func validateInput(imagePath, goalTitle string) error {
	if strings.TrimSpace(imagePath) == "" || strings.TrimSpace(goalTitle) == "" {
		return ErrInvalidInput
	}
	return nil
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}
