package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/push"
	"github.com/duet-app/duet/internal/store"
)

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: service, logger: logger}
}

// VAPIDKey exposes the server's public key so browsers can subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "push not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	DeviceName string `json:"device_name"`
	Keys       struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe stores a browser push subscription. Re-subscribing the same
// endpoint updates the keys in place.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Endpoint) == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint and keys are required"})
		return
	}

	profileID := auth.ProfileID(r.Context())
	sub, err := h.pushStore.Subscribe(profileID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("subscribe push", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe removes a subscription by endpoint.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint is required"})
		return
	}

	if err := h.pushStore.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("unsubscribe push", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove subscription"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions returns the caller's registered devices.
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	subs, err := h.pushStore.ListByProfile(profileID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
