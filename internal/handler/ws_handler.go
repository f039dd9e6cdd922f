package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	ws "github.com/coursekit/examforge/internal/websocket"
)

// WSHandler upgrades authenticated clients onto the event hub so they receive
// exam.finalized broadcasts.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWSHandler creates a new WSHandler. An empty origins list allows any
// origin, matching the CORS configuration.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		log: log.With().Str("component", "ws_handler").Logger(),
	}
}

// Events godoc
// GET /api/v1/ws/events
func (h *WSHandler) Events(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.hub.Register(conn)
	go h.readPump(conn)
}

// readPump drains inbound frames until the client disconnects. The events
// channel is server-to-client only, so anything the client sends is ignored.
func (h *WSHandler) readPump(conn *websocket.Conn) {
	defer h.hub.Unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
