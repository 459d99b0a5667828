package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/storage"
	"github.com/proovit/proovit/internal/validation"
	"github.com/proovit/proovit/internal/verifier"
)

// Outcome tells a successful submission apart from a photo the verifier did not accept.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeRejected Outcome = "rejected"
)

// StreakIncrementer advances a goal's streak for a verified proof.
type StreakIncrementer interface {
	Increment(ctx context.Context, goalID string, today model.Date) (*model.Streak, error)
}

type SubmitRequest struct {
	GoalID      string
	UserID      string
	GoalTitle   string
	Image       []byte
	ContentType string // Sniffed type, defaults to image/jpeg
	Caption     *string
}

type SubmissionResult struct {
	Outcome Outcome       `json:"outcome"`
	Verdict model.Verdict `json:"verdict"`
	Proof   *model.Proof  `json:"proof,omitempty"`  // nil when rejected unless rejected proofs are audited
	Streak  *model.Streak `json:"streak,omitempty"` // nil when rejected
}

type ProofServiceConfig struct {
	AuditRejected bool // Persist rejected proofs with verified=false
	SignedURLTTL  time.Duration
	Location      *time.Location // Decides which calendar day "today" is
	CommitTimeout time.Duration  // Bounds the persist and streak steps once a verdict is in
	Now           func() time.Time
}

// ProofService runs the upload, verify, persist and streak steps of a proof
// submission, cleaning up the uploaded image when a later step fails.
type ProofService struct {
	proofRepo repository.ProofRepository
	storage   storage.Storage
	verifier  verifier.Verifier
	streaks   StreakIncrementer
	cfg       ProofServiceConfig
}

func NewProofService(
	proofRepo repository.ProofRepository,
	storage storage.Storage,
	verifier verifier.Verifier,
	streaks StreakIncrementer,
	cfg ProofServiceConfig,
) *ProofService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = time.Hour
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 30 * time.Second
	}
	return &ProofService{
		proofRepo: proofRepo,
		storage:   storage,
		verifier:  verifier,
		streaks:   streaks,
		cfg:       cfg,
	}
}

// Today is the current calendar day in the configured location.
func (s *ProofService) Today() model.Date {
	return model.DateOf(s.cfg.Now().In(s.cfg.Location))
}

// Submit uploads the image, asks the verifier about it and, when verified,
// records the proof and advances the streak. A rejected photo is a successful
// call with OutcomeRejected. Failures after validation are *SubmissionError.
func (s *ProofService) Submit(ctx context.Context, req SubmitRequest) (*SubmissionResult, error) {
	req.GoalTitle = strings.TrimSpace(req.GoalTitle)
	switch {
	case strings.TrimSpace(req.GoalID) == "":
		return nil, invalidInput("goal id is required")
	case strings.TrimSpace(req.UserID) == "":
		return nil, invalidInput("user id is required")
	case req.GoalTitle == "":
		return nil, invalidInput("goal title is required")
	case len(req.Image) == 0:
		return nil, invalidInput("image is required")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	ext, ok := validation.ImageExtensions[contentType]
	if !ok {
		return nil, invalidInput("unsupported image type %s", contentType)
	}

	now := s.cfg.Now()
	imagePath := proofImagePath(req.UserID, req.GoalID, ext, now)

	err := s.storage.Save(ctx, imagePath, bytes.NewReader(req.Image), contentType)
	if err != nil {
		return nil, &SubmissionError{
			Stage:     StageUpload,
			ImagePath: imagePath,
			Err:       fmt.Errorf("%w: upload image: %w", ErrPersistence, err),
		}
	}

	verdict, err := s.verifier.Verify(ctx, imagePath, req.GoalTitle)
	if err != nil {
		s.cleanup(imagePath, "verification failed")
		return nil, &SubmissionError{Stage: StageVerify, ImagePath: imagePath, Err: err}
	}

	// From here the outcome is decided. A client hanging up must not leave a
	// proof recorded without its streak update.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CommitTimeout)
	defer cancel()

	if !verdict.Verified {
		return s.reject(ctx, req, imagePath, *verdict, now), nil
	}

	proof := newProof(req, imagePath, true, verdict.Score, now)
	err = s.proofRepo.Create(ctx, proof)
	if err != nil {
		s.cleanup(imagePath, "proof not persisted")
		return nil, &SubmissionError{
			Stage:     StagePersist,
			ImagePath: imagePath,
			Err:       fmt.Errorf("%w: create proof: %w", ErrPersistence, err),
		}
	}

	today := model.DateOf(now.In(s.cfg.Location))
	streak, err := s.streaks.Increment(ctx, req.GoalID, today)
	if err != nil {
		// The proof stays. It shows up in reconciliation until the streak catches up.
		slog.Error("proof persisted but streak not advanced",
			"proof_id", proof.ID,
			"goal_id", req.GoalID,
			"user_id", req.UserID,
			"error", err,
		)
		return nil, &SubmissionError{
			Stage:     StageStreak,
			ImagePath: imagePath,
			ProofID:   proof.ID,
			Err:       err,
		}
	}

	slog.Info("proof verified",
		"proof_id", proof.ID,
		"goal_id", req.GoalID,
		"user_id", req.UserID,
		"score", verdict.Score,
		"current_count", streak.CurrentCount,
	)

	return &SubmissionResult{
		Outcome: OutcomeVerified,
		Verdict: *verdict,
		Proof:   proof,
		Streak:  streak,
	}, nil
}

// reject never touches the streak. The image is kept so the user can see what was refused.
func (s *ProofService) reject(ctx context.Context, req SubmitRequest, imagePath string, verdict model.Verdict, now time.Time) *SubmissionResult {
	result := &SubmissionResult{Outcome: OutcomeRejected, Verdict: verdict}

	slog.Info("proof rejected",
		"goal_id", req.GoalID,
		"user_id", req.UserID,
		"path", imagePath,
		"score", verdict.Score,
	)

	if !s.cfg.AuditRejected {
		return result
	}

	proof := newProof(req, imagePath, false, verdict.Score, now)
	err := s.proofRepo.Create(ctx, proof)
	if err != nil {
		slog.Error("failed to persist rejected proof for audit", "error", err, "goal_id", req.GoalID, "path", imagePath)
		return result
	}

	result.Proof = proof
	return result
}

// cleanup deletes an uploaded image. Failure is logged and swallowed.
func (s *ProofService) cleanup(imagePath, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.storage.Delete(ctx, imagePath)
	if err != nil {
		slog.Error("failed to delete image during cleanup", "error", err, "path", imagePath, "reason", reason)
	}
}

// UpdateVerification overwrites the verdict of an existing proof, for asynchronous
// re-verification. It never changes a streak.
func (s *ProofService) UpdateVerification(ctx context.Context, proofID string, verified bool, score float64) (*model.Proof, error) {
	if strings.TrimSpace(proofID) == "" {
		return nil, invalidInput("proof id is required")
	}
	if score < 0 || score > 1 {
		return nil, invalidInput("score must be between 0 and 1")
	}

	proof, err := s.proofRepo.UpdateVerification(ctx, proofID, verified, score)
	if err != nil {
		if errors.Is(err, repository.ErrProofNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update verification: %w", ErrPersistence, err)
	}

	return proof, nil
}

func (s *ProofService) ByID(ctx context.Context, proofID string) (*model.Proof, error) {
	return s.proofRepo.ByID(ctx, proofID)
}

// Proofs lists a goal's proofs newest first with signed image URLs.
func (s *ProofService) Proofs(ctx context.Context, goalID string) ([]*model.Proof, error) {
	proofs, err := s.proofRepo.Proofs(ctx, goalID)
	if err != nil {
		return nil, err
	}

	for _, p := range proofs {
		s.sign(ctx, p)
	}

	return proofs, nil
}

func (s *ProofService) sign(ctx context.Context, p *model.Proof) {
	url, err := s.storage.SignedURL(ctx, p.ImagePath, s.cfg.SignedURLTTL)
	if err != nil {
		slog.Warn("failed to sign proof image", "error", err, "proof_id", p.ID, "path", p.ImagePath)
		return
	}
	p.ImageURL = url
}

func newProof(req SubmitRequest, imagePath string, verified bool, score float64, now time.Time) *model.Proof {
	return &model.Proof{
		ID:                uuid.New().String(),
		GoalID:            req.GoalID,
		UserID:            req.UserID,
		ImagePath:         imagePath,
		Caption:           trimmedOrNil(req.Caption),
		Verified:          verified,
		VerificationScore: &score,
		CreatedAt:         now,
	}
}

// proofImagePath namespaces by user and goal. The random suffix keeps two
// uploads in the same second from overwriting each other.
func proofImagePath(userID, goalID, ext string, now time.Time) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s/%s/proof_%d_%s.%s", userID, goalID, now.Unix(), token, ext)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
