package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/proovit/proovit/internal/verifier"
)

const maxJSONBody = 1 << 20

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Detail: detail})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError maps service errors to HTTP statuses. Anything unknown is a 500
// and gets logged with msg.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, verifier.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, repository.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "goal not found", "")
	case errors.Is(err, repository.ErrProofNotFound):
		writeError(w, http.StatusNotFound, "proof not found", "")
	case errors.Is(err, repository.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile not found", "")
	case errors.Is(err, service.ErrGoalInactive):
		writeError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrPhoneNumberTaken):
		writeError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, service.ErrCannotFollowSelf):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, verifier.ErrUnavailable):
		slog.Error(msg, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, "verification service unavailable", err.Error())
	default:
		slog.Error(msg, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, msg, "")
	}
}
