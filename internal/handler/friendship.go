package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/duet-app/duet/internal/auth"
	"github.com/duet-app/duet/internal/model"
	"github.com/duet-app/duet/internal/push"
	"github.com/duet-app/duet/internal/store"
	"github.com/duet-app/duet/internal/websocket"
)

type FriendshipHandler struct {
	friendshipStore *store.FriendshipStore
	profileStore    *store.ProfileStore
	hub             *websocket.Hub
	notifier        *push.Notifier
	logger          *slog.Logger
}

func NewFriendshipHandler(fs *store.FriendshipStore, ps *store.ProfileStore, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipStore: fs,
		profileStore:    ps,
		hub:             hub,
		notifier:        notifier,
		logger:          logger,
	}
}

// friendshipView decorates a friendship row with the other party's names so
// clients don't have to resolve profile IDs themselves.
type friendshipView struct {
	model.Friendship
	FriendUsername    string `json:"friend_username"`
	FriendDisplayName string `json:"friend_display_name"`
}

// Send creates a friend request addressed by username.
func (h *FriendshipHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	requesterID := auth.ProfileID(r.Context())
	addressee, err := h.profileStore.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("addressee lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send friend request"})
		return
	}
	if addressee == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if addressee.ID == requesterID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot befriend yourself"})
		return
	}

	existing, err := h.friendshipStore.GetBetween(requesterID, addressee.ID)
	if err != nil {
		h.logger.Error("friendship lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send friend request"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "friendship already exists"})
		return
	}

	friendship, err := h.friendshipStore.Create(requesterID, addressee.ID)
	if err != nil {
		h.logger.Error("create friendship", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send friend request"})
		return
	}

	if h.hub != nil {
		h.hub.Send([]int64{requesterID, addressee.ID}, websocket.NewMessage("friendship", "requested", friendship.ID, nil))
	}
	if h.notifier != nil {
		if requester, err := h.profileStore.GetByID(requesterID); err == nil && requester != nil {
			h.notifier.NotifyProfile(addressee.ID, push.Payload{
				Title: "Friend request",
				Body:  fmt.Sprintf("%s wants to be friends", displayName(requester)),
				Tag:   fmt.Sprintf("friendship-%d", friendship.ID),
			})
		}
	}

	writeJSON(w, http.StatusCreated, friendship)
}

// Accept confirms a pending request. Only the addressee may accept.
func (h *FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	profileID := auth.ProfileID(r.Context())
	confirmed, err := h.friendshipStore.Confirm(id, profileID)
	if err != nil {
		h.logger.Error("confirm friendship", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to accept friend request"})
		return
	}
	if !confirmed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "friend request not found"})
		return
	}

	friendship, err := h.friendshipStore.GetByID(id)
	if err != nil || friendship == nil {
		h.logger.Error("get friendship", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to accept friend request"})
		return
	}

	if h.hub != nil {
		h.hub.Send([]int64{friendship.RequesterID, friendship.AddresseeID}, websocket.NewMessage("friendship", "confirmed", friendship.ID, nil))
	}
	if h.notifier != nil {
		if addressee, err := h.profileStore.GetByID(profileID); err == nil && addressee != nil {
			h.notifier.NotifyProfile(friendship.RequesterID, push.Payload{
				Title: "Friend request accepted",
				Body:  fmt.Sprintf("%s accepted your friend request", displayName(addressee)),
				Tag:   fmt.Sprintf("friendship-%d", friendship.ID),
			})
		}
	}

	writeJSON(w, http.StatusOK, friendship)
}

// Delete removes a friendship or declines a pending request. Either party
// may remove it.
func (h *FriendshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	profileID := auth.ProfileID(r.Context())
	friendship, err := h.friendshipStore.GetByID(id)
	if err != nil {
		h.logger.Error("get friendship", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove friendship"})
		return
	}
	if friendship == nil || (friendship.RequesterID != profileID && friendship.AddresseeID != profileID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "friendship not found"})
		return
	}

	if err := h.friendshipStore.Delete(id); err != nil {
		h.logger.Error("delete friendship", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove friendship"})
		return
	}

	if h.hub != nil {
		h.hub.Send([]int64{friendship.RequesterID, friendship.AddresseeID}, websocket.NewMessage("friendship", "deleted", friendship.ID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

// List returns the caller's friendships in both states, decorated with the
// other party's names.
func (h *FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	friendships, err := h.friendshipStore.ListForProfile(profileID)
	if err != nil {
		h.logger.Error("list friendships", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list friendships"})
		return
	}

	views := make([]friendshipView, 0, len(friendships))
	for _, f := range friendships {
		otherID := f.RequesterID
		if otherID == profileID {
			otherID = f.AddresseeID
		}
		view := friendshipView{Friendship: f}
		if other, err := h.profileStore.GetByID(otherID); err == nil && other != nil {
			view.FriendUsername = other.Username
			view.FriendDisplayName = other.DisplayName
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, views)
}
