package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const writeTimeout = 10 * time.Second

// WebSocketHandler streams progress events for one analysis request over a
// WebSocket connection. Each connection subscribes to a single request ID;
// a slow or dropped connection never affects other subscribers.
type WebSocketHandler struct {
	bus    interfaces.ProgressBus
	logger arbor.ILogger
}

// NewWebSocketHandler creates the progress stream handler.
func NewWebSocketHandler(bus interfaces.ProgressBus, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		bus:    bus,
		logger: logger,
	}
}

// HandleProgress upgrades the connection and relays progress events for the
// request_id query parameter until the request finishes or the client leaves.
func (h *WebSocketHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		WriteError(w, http.StatusBadRequest, "request_id query parameter is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := h.bus.Subscribe(requestID)
	defer unsubscribe()

	h.logger.Debug().
		Str("request_id", requestID).
		Str("remote", r.RemoteAddr).
		Msg("Progress stream opened")

	// Reader goroutine detects client disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().Err(err).Str("request_id", requestID).Msg("Progress stream write failed")
				return
			}
		case <-done:
			h.logger.Debug().Str("request_id", requestID).Msg("Progress stream client disconnected")
			return
		}
	}
}
