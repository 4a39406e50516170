package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Xisisrefliel/VidPull/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	eventBufferLen = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The GUI shell loads from its own origin; the feed carries no
	// sensitive data and no mutations.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsEvent is the wire shape of one event on the feed.
type wsEvent struct {
	Type    string       `json:"type"`
	Payload events.Event `json:"payload"`
}

// streamEvents upgrades the connection and forwards all bus events as JSON
// until the client goes away.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	feed := s.bus.SubscribeAll(eventBufferLen)
	defer s.bus.Unsubscribe(feed)

	// Discard inbound frames; their only job is surfacing the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e, ok := <-feed:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsEvent{Type: e.EventType(), Payload: e}); err != nil {
				return
			}
		}
	}
}
