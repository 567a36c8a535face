package ws

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub stores all active WebSocket connections keyed by connection ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*websocket.Conn
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		logger:  logger,
	}
}

// Add registers a new connection under a unique ID.
func (h *Hub) Add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		_ = old.Close()
	}
	h.clients[id] = conn
	h.logger.Info("ws_registered", "id", id)
}

// Remove deletes and closes a connection.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.clients[id]; ok {
		_ = conn.Close()
		delete(h.clients, id)
		h.logger.Info("ws_removed", "id", id)
	}
}

// Broadcast writes a JSON message to every open connection. Connections
// that fail the write are closed and dropped; delivery is best-effort.
func (h *Hub) Broadcast(msg any) {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		conns[id] = conn
	}
	h.mu.RUnlock()

	var dead []string
	for id, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("ws_broadcast_fail", "id", id, "error", err.Error())
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		h.Remove(id)
	}
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
