package repowatch

import (
	"compress/flate"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 4096
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	conn.EnableWriteCompression(true)
	if err := conn.SetCompressionLevel(flate.BestSpeed); err != nil {
		s.logger.Error("setting compression level", "err", err)
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.logger.Info("client connected", "addr", conn.RemoteAddr())

	if msg, err := s.currentStatus(); err == nil {
		if data, err := json.Marshal(msg); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}

	mu := s.registerClient(conn)
	done := make(chan struct{})
	go s.clientReadPump(conn, done)
	go s.clientWritePump(conn, done, mu)
}

// clientReadPump drains (and discards) client frames purely to keep the
// connection's read deadline alive via pong handling; repowatch's clients
// never send commands, it is a read-only status feed.
func (s *Server) clientReadPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) clientWritePump(conn *websocket.Conn, done chan struct{}, mu *sync.Mutex) {
	// Ping on a fixed interval until the read pump observes a closed
	// connection.
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
