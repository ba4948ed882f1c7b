package server

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub fans progress messages out to every connected WebSocket client.
// Connections are held as io.Writer: each Write on a websocket.Conn sends
// one frame, so a marshaled message maps to one frame per client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]io.Writer
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]io.Writer)}
}

// Register adds a client connection and returns its ID.
func (h *Hub) Register(w io.Writer) string {
	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = w
	h.mu.Unlock()

	zap.L().Info("websocket client connected", zap.String("client_id", id))
	return id
}

// Unregister removes a client connection.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()

	zap.L().Info("websocket client disconnected", zap.String("client_id", id))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends v as JSON to every connected client. A failing client
// is logged and skipped; the batch never stops for a broken connection.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("hub: marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, w := range h.clients {
		if _, err := w.Write(data); err != nil {
			zap.L().Warn("hub: send to client failed",
				zap.String("client_id", id),
				zap.Error(err),
			)
		}
	}
}
