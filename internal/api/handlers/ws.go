package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local dashboard only.
		origin := r.Header.Get("Origin")
		return origin == "" ||
			r.Host == "" ||
			websocketOriginAllowed(origin)
	},
}

func websocketOriginAllowed(origin string) bool {
	for _, allowed := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if len(origin) >= len(allowed) && origin[:len(allowed)] == allowed {
			return true
		}
	}
	return false
}

// EventFeed handles GET /ws. Upgrades to a websocket and relays every
// bus event to the client as JSON until it disconnects.
func (h *Handlers) EventFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	// Drain client frames so pings and close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
