package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a realtime change notification. Clients use it as a cue to
// refetch the affected collection rather than patching local state.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of connected clients, each bound to an
// authenticated profile, and delivers messages to the profiles they concern.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]int64 // client -> profile id
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]int64),
		logger:  logger,
	}
}

// Register adds a client owned by the given profile.
func (h *Hub) Register(c *Client, profileID int64) {
	h.mu.Lock()
	h.clients[c] = profileID
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Send delivers a message to every connection owned by the listed profiles.
func (h *Hub) Send(profileIDs []int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	targets := make(map[int64]struct{}, len(profileIDs))
	for _, id := range profileIDs {
		targets[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c, profileID := range h.clients {
		if _, ok := targets[profileID]; !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
