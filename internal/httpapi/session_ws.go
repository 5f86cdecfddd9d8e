package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSessionWS streams progress and the final result of an async audio
// job. Browsers cannot set headers on websocket dials, so the JWT travels
// in the token query parameter.
func (r *Router) handleSessionWS(w http.ResponseWriter, req *http.Request) {
	if !r.validToken(req.URL.Query().Get("token")) {
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
		return
	}

	j, ok := r.jobs.get(req.PathValue("id"))
	if !ok {
		http.Error(w, `{"error": "unknown session"}`, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("httpapi: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := j.subscribe()
	defer j.unsubscribe(ch)

	// Reader pump: the client sends nothing meaningful, but reads are
	// needed to process pongs and close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-ch:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
