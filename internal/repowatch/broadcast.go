package repowatch

import (
	"sync"

	"github.com/gorilla/websocket"
)

const writeQueueWarnThreshold = 16

// sendToAllClients writes data to every currently registered client,
// dropping (and logging) any connection whose write fails rather than
// letting one bad client block the others.
func (s *Server) sendToAllClients(data []byte) {
	s.mu.Lock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, mu := range s.clients {
		clients[conn] = mu
	}
	s.mu.Unlock()

	for conn, mu := range clients {
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mu.Unlock()
		if err != nil {
			s.logger.Warn("dropping client after write error", "addr", conn.RemoteAddr(), "err", err)
			s.removeClient(conn)
		}
	}
}

func (s *Server) registerClient(conn *websocket.Conn) *sync.Mutex {
	mu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = mu
	s.mu.Unlock()
	return mu
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	_ = conn.Close()
}
