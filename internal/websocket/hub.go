package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub fans analytics events out to connected dashboard clients. Writes are
// fire-and-forget: a client that cannot keep up is dropped, never blocked on.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	events  chan []byte
	log     zerolog.Logger
}

// NewHub creates a Hub. Run must be started before Broadcast is useful.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		events:  make(chan []byte, 64),
		log:     log.With().Str("component", "analytics_hub").Logger(),
	}
}

// Register adds a client connection to the fan-out set.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Int("clients", h.ClientCount()).Msg("analytics client connected")
}

// Unregister removes and closes a client connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for delivery to all clients. Dropping the event
// when the buffer is full is acceptable: the Redis summary remains the
// durable record, the feed is best-effort.
func (h *Hub) Broadcast(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal analytics event")
		return
	}
	select {
	case h.events <- payload:
	default:
		h.log.Warn().Msg("analytics event buffer full, dropping event")
	}
}

// Run delivers queued events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info().Msg("analytics hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case payload := <-h.events:
			h.deliver(payload)
		}
	}
}

func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug().Err(err).Msg("dropping slow analytics client")
			h.Unregister(conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
