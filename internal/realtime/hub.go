// AngelaMos | 2026
// hub.go

package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/coachforge/platform/internal/observability"
)

// Hub tracks which local clients listen on which channels.
type Hub struct {
	mu            sync.RWMutex
	logger        *slog.Logger
	subscriptions map[string]map[*Client]struct{}
	clients       map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:        logger.With("component", "realtime_hub"),
		subscriptions: make(map[string]map[*Client]struct{}),
		clients:       make(map[*Client]struct{}),
	}
}

// AllowedChannel reports whether a user may listen on channel.
func AllowedChannel(userID, channel string) bool {
	return channel == ChannelLeaderboard || channel == UserChannel(userID)
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		return
	}
	h.clients[c] = struct{}{}
	observability.WSConnections.Inc()
}

func (h *Hub) Subscribe(c *Client, channel string) bool {
	channel = strings.TrimSpace(channel)
	if !AllowedChannel(c.UserID, channel) {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c.channels[channel] = struct{}{}

	subs, ok := h.subscriptions[channel]
	if !ok {
		subs = make(map[*Client]struct{})
		h.subscriptions[channel] = subs
	}
	subs[c] = struct{}{}

	h.logger.Debug("client subscribed", "client_id", c.ID, "channel", channel)
	return true
}

func (h *Hub) Unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unsubscribeLocked(c, strings.TrimSpace(channel))
}

func (h *Hub) unsubscribeLocked(c *Client, channel string) {
	delete(c.channels, channel)

	if subs, ok := h.subscriptions[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

// Remove drops the client from every channel and stops its writer.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range c.channels {
		h.unsubscribeLocked(c, ch)
	}

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		observability.WSConnections.Dec()
	}
	c.close()
}

// Broadcast hands msg to every local subscriber of its channel and returns
// how many accepted it. Clients with a full buffer miss the message.
func (h *Hub) Broadcast(msg Message) int {
	if msg.Channel == "" {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.subscriptions[msg.Channel] {
		if c.enqueue(msg) {
			delivered++
			continue
		}
		observability.WSDropped.Inc()
		h.logger.Warn("dropping message, client buffer full",
			"client_id", c.ID,
			"user_id", c.UserID,
			"type", msg.Type,
		)
	}
	return delivered
}

// Publish lets a single process use the hub directly as its notifier.
func (h *Hub) Publish(_ context.Context, msg Message) error {
	h.Broadcast(msg)
	return nil
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Remove(c)
	}
}
