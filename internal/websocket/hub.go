// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package websocket implements the notification boundary: finalized log
// entries are broadcast to any listening UI surface, fire-and-forget, with
// no delivery guarantee and no acknowledgment.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/watchlog/watchlog/internal/logging"
	"github.com/watchlog/watchlog/internal/metrics"
	"github.com/watchlog/watchlog/internal/models"
)

// Message types for websocket communication.
const (
	MessageTypeLogged  = "logged"
	MessageTypeCleared = "cleared"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is one websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// NotifyLogged queues a finalized entry for broadcast. Best effort: if the
// broadcast buffer is full the notification is dropped, never blocking the
// pipeline that produced it.
func (h *Hub) NotifyLogged(entry *models.LogEntry) {
	select {
	case h.broadcast <- Message{Type: MessageTypeLogged, Data: entry}:
	default:
		metrics.NotificationsDropped.Inc()
		logging.Warn().Str("video_id", entry.VideoID).Msg("broadcast buffer full, notification dropped")
	}
}

// NotifyCleared announces a coordinated history reset.
func (h *Hub) NotifyCleared() {
	select {
	case h.broadcast <- Message{Type: MessageTypeCleared}:
	default:
		metrics.NotificationsDropped.Inc()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve runs the hub until the context is canceled, then closes all clients.
// Implements suture.Service.
//
// Client lifecycle events take priority over broadcasts so the client set is
// consistent before a message fans out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out to every connected client in stable
// id order. A client whose send buffer is full misses the message.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.RLock()
	ordered := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		ordered = append(ordered, client)
	}
	h.mu.RUnlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	for _, client := range ordered {
		select {
		case client.send <- message:
		default:
			metrics.NotificationsDropped.Inc()
		}
	}
}

// shutdown closes every client send channel.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketClients.Set(0)
	logging.Info().Msg("websocket hub shut down")
}

// String names the hub for supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}
