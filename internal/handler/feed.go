package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/store"
)

const defaultFeedLimit = 100

type FeedHandler struct {
	postStore *store.PostStore
	logger    *slog.Logger
}

func NewFeedHandler(ps *store.PostStore, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{postStore: ps, logger: logger}
}

// List returns the caller's feed: photo-backed completions by the caller
// and their confirmed friends, newest first.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > defaultFeedLimit {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	posts, err := h.postStore.ListFeed(profileID, limit)
	if err != nil {
		h.logger.Error("list feed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load feed"})
		return
	}

	writeJSON(w, http.StatusOK, posts)
}
