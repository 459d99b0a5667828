package handler

import (
	"net/http"

	"github.com/proovit/proovit/internal/ctxkeys"
	"github.com/proovit/proovit/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	proofs, err := h.feedService.Feed(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "failed to load feed")
		return
	}

	writeJSON(w, http.StatusOK, proofs)
}
