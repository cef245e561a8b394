package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/store"
)

type ProfileHandler struct {
	profileStore *store.ProfileStore
	logger       *slog.Logger
}

func NewProfileHandler(ps *store.ProfileStore, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profileStore: ps, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileStore.GetByID(auth.ProfileID(r.Context()))
	if err != nil {
		h.logger.Error("get profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return
	}
	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	profileID := auth.ProfileID(r.Context())
	if existing, err := h.profileStore.GetByUsername(req.Username); err != nil {
		h.logger.Error("username lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	} else if existing != nil && existing.ID != profileID {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
		return
	}

	profile, err := h.profileStore.Update(profileID, req.Username, strings.TrimSpace(req.DisplayName))
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// --- shared handler helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
