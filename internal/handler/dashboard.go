package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/duet-app/duet/internal/aggregate"
	"github.com/duet-app/duet/internal/auth"
)

type DashboardHandler struct {
	loader *aggregate.Loader
	logger *slog.Logger
}

func NewDashboardHandler(loader *aggregate.Loader, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{loader: loader, logger: logger}
}

// Get returns the full dashboard snapshot for the caller: profile, tasks
// and partner tasks with their streak projections, friendships, and feed.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	snapshot, err := h.loader.Load(r.Context(), profileID, time.Now())
	if err != nil {
		h.logger.Error("load dashboard", "profile_id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load dashboard"})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
