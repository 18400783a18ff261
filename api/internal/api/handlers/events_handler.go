package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"emotioncrypt/api/internal/telemetry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// We only stream OUT, so inbound is tiny.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The router's CORS middleware already validated the Origin header.
		return true
	},
}

// EventsHandler streams live cipher events over WebSocket. Events carry only
// the emotional metadata that is already exposed on the envelope, never
// plaintext.
type EventsHandler struct {
	Hub    *telemetry.Hub
	Logger *slog.Logger
}

func NewEventsHandler(hub *telemetry.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{Hub: hub, Logger: logger}
}

// Stream handles GET /api/v1/ws/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("failed to upgrade WebSocket connection", slog.String("error", err.Error()))
		return
	}

	events := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(events)

	// Read pump handles control messages (Ping/Pong) and detects disconnects.
	done := make(chan struct{})
	go h.readPump(ws, done)

	h.writePump(ws, events, done)
}

func (h *EventsHandler) writePump(ws *websocket.Conn, events <-chan telemetry.Event, done <-chan struct{}) {
	defer ws.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closed"))
				return
			}
			if err := ws.WriteJSON(event); err != nil {
				return // Broken pipe; drop the connection
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Client disconnected
			}

		case <-done:
			return
		}
	}
}

func (h *EventsHandler) readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Logger.Warn("WebSocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
	}
}
