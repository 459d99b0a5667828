package handler

import (
	"net/http"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ctxkeys.Profile(r.Context()))
}

type updateProfileRequest struct {
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req updateProfileRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	profile, err := h.profileService.UpdateUsername(r.Context(), userID, req.Username, req.FullName)
	if err != nil {
		writeServiceError(w, r, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Get returns another user's public profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load profile")
		return
	}

	if profile.ID != ctxkeys.UserID(r.Context()) {
		profile.PhoneNumber = ""
	}

	writeJSON(w, http.StatusOK, profile)
}

// Search matches ?q= against the start of usernames, ignoring case.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err, "failed to search profiles")
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profileService.Stats(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load profile stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	err := h.profileService.Follow(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to follow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	err := h.profileService.Unfollow(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to unfollow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) Followers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.profileService.Followers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load followers")
		return
	}

	writeJSON(w, http.StatusOK, ids)
}

func (h *ProfileHandler) Following(w http.ResponseWriter, r *http.Request) {
	ids, err := h.profileService.Following(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load following")
		return
	}

	writeJSON(w, http.StatusOK, ids)
}
