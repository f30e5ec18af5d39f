// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

// Message types.
const (
	MessageTypeDunningEvent = "dunning_event"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the envelope of everything sent over the socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan Message
	mu        sync.RWMutex
}

// NewHub creates a Hub. Run it with Serve.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan Message, 256),
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	logging.Info().Uint64("client_id", c.id).Str("subject", c.subject).Int("total_clients", n).
		Msg("Live feed client connected")
}

// Unregister removes a client and closes its send channel. Unknown or
// already removed clients are ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Live feed client disconnected")
}

// Broadcast queues a message for every client. It never blocks; a full
// queue drops the message.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WebSocketDropped.Inc()
		logging.Warn().Str("message_type", messageType).Msg("Broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve delivers queued messages until ctx is done, then disconnects
// every client.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Shutdown wins over pending messages.
		select {
		case <-ctx.Done():
			n := h.closeAllClients()
			logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("Websocket hub stopped")
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			continue
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) String() string { return "websocket-hub" }

// sortedClients must be called with h.mu held.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedClients() {
		select {
		case c.send <- msg:
		default:
			// Too slow to keep up.
			metrics.WebSocketDropped.Inc()
			close(c.send)
			delete(h.clients, c)
			logging.Warn().Uint64("client_id", c.id).Msg("Live feed client too slow, disconnecting")
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClients()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WebSocketClients.Set(0)
	return len(clients)
}
