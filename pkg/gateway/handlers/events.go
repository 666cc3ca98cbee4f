package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Events streams turn-progress frames for one session over a WebSocket.
// Frames are JSON {type, state, turn} for phase transitions and
// {type: "turn_error", error} for turn failures.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.Config.CORSAllowedOrigins) == 0 {
				return true
			}
			_, allowed := h.Config.CORSAllowedOrigins[origin]
			return allowed
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Reads are only used to observe the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.Config.WSPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				// Session removed; tell the client before closing.
				deadline := time.Now().Add(h.Config.WSWriteTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.Config.WSWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(h.Config.WSWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
