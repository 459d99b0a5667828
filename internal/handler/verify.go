package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/verifier"
)

// VerifyHandler exposes the verifier over HTTP for clients that hold no model credentials.
type VerifyHandler struct {
	verifier verifier.Verifier
}

func NewVerifyHandler(v verifier.Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: v}
}

type verifyResponse struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// VerifyProof takes {imagePath, goalTitle} and answers {verified, score, reason},
// or {error, detail} with a 4xx/5xx status.
func (h *VerifyHandler) VerifyProof(w http.ResponseWriter, r *http.Request) {
	var req verifier.Request
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.ImagePath) == "" || strings.TrimSpace(req.GoalTitle) == "" {
		writeError(w, http.StatusBadRequest, "imagePath and goalTitle are required", "")
		return
	}

	// Callers may only ask about their own uploads
	if !strings.HasPrefix(req.ImagePath, ctxkeys.UserID(r.Context())+"/") {
		writeError(w, http.StatusNotFound, "image not found", "")
		return
	}

	verdict, err := h.verifier.Verify(r.Context(), req.ImagePath, req.GoalTitle)
	if err != nil {
		if errors.Is(err, verifier.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "imagePath and goalTitle are required", "")
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, verifier.ErrUnavailable) {
			status = http.StatusBadGateway
		}
		slog.Error("verify-proof failed", "error", err, "path", req.ImagePath)
		writeError(w, status, "verification failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Verified: verdict.Verified,
		Score:    verdict.Score,
		Reason:   verdict.Reason,
	})
}
