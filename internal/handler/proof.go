package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/proovit/proovit/internal/validation"
	"github.com/proovit/proovit/internal/verifier"
)

type ProofHandler struct {
	goalService   *service.GoalService
	proofService  *service.ProofService
	maxImageBytes int64
}

func NewProofHandler(goalService *service.GoalService, proofService *service.ProofService, maxImageBytes int64) *ProofHandler {
	return &ProofHandler{
		goalService:   goalService,
		proofService:  proofService,
		maxImageBytes: maxImageBytes,
	}
}

type submitResponse struct {
	Verified bool          `json:"verified"`
	Score    float64       `json:"score"`
	Reason   string        `json:"reason"`
	Proof    *model.Proof  `json:"proof,omitempty"`
	Streak   *model.Streak `json:"streak,omitempty"`
}

type submitErrorResponse struct {
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	Stage   string `json:"stage"`
	ProofID string `json:"proof_id,omitempty"`
}

// Submit accepts multipart form fields "image" (required) and "caption".
// A photo the verifier refuses is a 200 with verified=false.
func (h *ProofHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	goalID := r.PathValue("id")

	// Leave room for the multipart envelope and caption around the image
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+(1<<20))

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required", err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image", err.Error())
		return
	}

	contentType, err := validation.ValidateImage(data, h.maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	goal, err := h.goalService.ActiveByID(r.Context(), userID, goalID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	var caption *string
	if c := r.FormValue("caption"); c != "" {
		caption = &c
	}

	result, err := h.proofService.Submit(r.Context(), service.SubmitRequest{
		GoalID:      goal.ID,
		UserID:      userID,
		GoalTitle:   goal.Title,
		Image:       data,
		ContentType: contentType,
		Caption:     caption,
	})
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Verified: result.Outcome == service.OutcomeVerified,
		Score:    result.Verdict.Score,
		Reason:   result.Verdict.Reason,
		Proof:    result.Proof,
		Streak:   result.Streak,
	})
}

func (h *ProofHandler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var subErr *service.SubmissionError
	if !errors.As(err, &subErr) {
		writeServiceError(w, r, err, "failed to submit proof")
		return
	}

	resp := submitErrorResponse{
		Error:   "failed to submit proof",
		Detail:  subErr.Err.Error(),
		Stage:   string(subErr.Stage),
		ProofID: subErr.ProofID,
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, verifier.ErrUnavailable):
		status = http.StatusBadGateway
		resp.Error = "verification service unavailable, please try again"
	case subErr.Stage == service.StageStreak:
		resp.Error = "proof saved but streak not updated"
	}

	slog.Error("proof submission failed",
		"error", err,
		"stage", subErr.Stage,
		"path", subErr.ImagePath,
		"proof_id", subErr.ProofID,
		"user_id", ctxkeys.UserID(r.Context()),
	)

	writeJSON(w, status, resp)
}

// List returns a goal's proofs newest first with signed image URLs.
func (h *ProofHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goal, err := h.goalService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	proofs, err := h.proofService.Proofs(r.Context(), goal.ID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load proofs")
		return
	}

	if proofs == nil {
		proofs = []*model.Proof{}
	}
	writeJSON(w, http.StatusOK, proofs)
}

type verificationRequest struct {
	Verified *bool    `json:"verified"`
	Score    *float64 `json:"score"`
}

// UpdateVerification records the outcome of a later re-verification. It does not touch streaks.
func (h *ProofHandler) UpdateVerification(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())
	proofID := r.PathValue("id")

	var req verificationRequest
	err := decodeJSON(w, r, &req)
	if err != nil || req.Verified == nil || req.Score == nil {
		writeError(w, http.StatusBadRequest, "verified and score are required", "")
		return
	}

	proof, err := h.proofService.ByID(r.Context(), proofID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load proof")
		return
	}
	if proof.UserID != userID {
		writeServiceError(w, r, repository.ErrProofNotFound, "failed to load proof")
		return
	}

	proof, err = h.proofService.UpdateVerification(r.Context(), proofID, *req.Verified, *req.Score)
	if err != nil {
		writeServiceError(w, r, err, "failed to update verification")
		return
	}

	writeJSON(w, http.StatusOK, proof)
}
