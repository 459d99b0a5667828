package handler

import (
	"net/http"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/service"
)

type GoalHandler struct {
	goalService  *service.GoalService
	streakEngine *service.StreakEngine
}

func NewGoalHandler(goalService *service.GoalService, streakEngine *service.StreakEngine) *GoalHandler {
	return &GoalHandler{
		goalService:  goalService,
		streakEngine: streakEngine,
	}
}

type goalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	IsActive    *bool   `json:"is_active"`
}

func (req goalRequest) input() service.GoalInput {
	return service.GoalInput{
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
		IsActive:    req.IsActive,
	}
}

// List returns active goals with streaks. ?all=true includes inactive goals.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goals, err := h.goalService.Goals(r.Context(), userID, r.URL.Query().Get("all") == "true")
	if err != nil {
		writeServiceError(w, r, err, "failed to load goals")
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req goalRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, req.input())
	if err != nil {
		writeServiceError(w, r, err, "failed to create goal")
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goal, err := h.goalService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req goalRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	goal, err := h.goalService.Update(r.Context(), userID, r.PathValue("id"), req.input())
	if err != nil {
		writeServiceError(w, r, err, "failed to update goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// Streak returns the goal's streak, zero-valued if no proof was ever verified.
func (h *GoalHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	goal, err := h.goalService.ByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	streak, err := h.streakEngine.Streak(r.Context(), goal.ID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load streak")
		return
	}

	writeJSON(w, http.StatusOK, streak)
}
