// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/metrics"
	"github.com/versewatch/versewatch/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeEvent = "event"
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
)

// ActionSubscribe is the client control action that moves the connection to
// another group. Unrecognized actions are ignored.
const ActionSubscribe = "subscribe"

// Message represents an outbound WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and the group each one listens to.
//
// Every client belongs to at most one group at a time; Subscribe is
// last-write-wins and an empty group means unsubscribed. Group membership
// only affects delivery, it is not an access-control boundary.
type Hub struct {
	clients map[*Client]string
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]string),
	}
}

// RunWithContext ties the hub's client lifetimes to the supervision tree.
// This method is designed for use with suture supervision.
//
// Add and Remove are synchronous, so the run loop only waits for shutdown:
// when the context is canceled all connected clients are closed and the
// method returns ctx.Err(), so the hub can be restarted by a supervisor
// without leaving orphaned connections.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	h.logGracefulShutdown(ctx)
	return ctx.Err()
}

// Add registers a client. The client is a member of its group before Add
// returns, so control messages arriving right after the handshake are never
// lost.
func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	h.clients[client] = client.group
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Set(float64(total))
	logging.Info().
		Uint64("client_id", client.id).
		Str("group", client.group).
		Int("total_clients", total).
		Msg("websocket client connected")
}

// Remove unregisters a client and closes its send channel. Safe to call for
// a client that was already removed; only the first call closes the channel.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSClients.Set(float64(total))
		logging.Info().
			Uint64("client_id", client.id).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// Subscribe moves a client to group, replacing its previous membership.
// An explicit subscribe without a group lands in the default group.
// A client unknown to the hub (already removed) is ignored.
func (h *Hub) Subscribe(client *Client, group string) {
	if group == "" {
		group = models.DefaultGroup
	}

	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.clients[client] = group
		client.group = group
	}
	h.mu.Unlock()

	if ok {
		logging.Debug().
			Uint64("client_id", client.id).
			Str("group", group).
			Msg("websocket client subscribed")
	}
}

// MembersOf returns a snapshot of the clients currently subscribed to group,
// in stable client-ID order. Delivery after the snapshot is best-effort:
// clients that joined since are picked up by the next broadcast.
//
// The empty group is the unsubscribed state and never has members.
func (h *Hub) MembersOf(group string) []*Client {
	if group == "" {
		return nil
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.clients))
	for client, g := range h.clients {
		if g == group {
			members = append(members, client)
		}
	}
	h.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].id < members[j].id
	})
	return members
}

// GroupOf reports the group a client is currently subscribed to.
func (h *Hub) GroupOf(client *Client) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	group, ok := h.clients[client]
	return group, ok
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes all connected clients in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSClients.Set(0)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
