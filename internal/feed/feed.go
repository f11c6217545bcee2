// Package feed broadcasts conversation turns to websocket listeners so
// external displays can mirror the transcript.
package feed

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/logger"
)

// TurnMessage is the wire format for one broadcast turn.
type TurnMessage struct {
	ID   string    `json:"id"`
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	// sendQueueSize bounds how far a listener may fall behind before it
	// is dropped.
	sendQueueSize = 16
	writeTimeout  = 5 * time.Second
)

// Hub accepts websocket connections and pushes every published turn to
// all of them. Each connection gets its own bounded send queue drained
// by a writer goroutine, so Publish never blocks on a slow or dead
// peer; a listener that falls behind is dropped.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan TurnMessage
}

// Compile-time interface check.
var _ domain.TurnPublisher = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[*websocket.Conn]chan TurnMessage),
		upgrader: websocket.Upgrader{
			// The feed is read-only and local; any origin may attach.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed: upgrade failed: %v", err)
		return
	}

	queue := make(chan TurnMessage, sendQueueSize)
	h.mu.Lock()
	h.conns[conn] = queue
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Info("feed: listener attached (%d total)", n)

	// Writer: drains the queue into the socket. Exits when the queue is
	// closed by drop or when a write fails.
	go func() {
		for msg := range queue {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("feed: write failed, dropping listener: %v", err)
				h.drop(conn)
				return
			}
		}
	}()

	// Drain incoming frames to notice when the peer goes away; the
	// feed itself never reads payloads.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Publish queues the turn for every attached listener without
// blocking. A listener whose queue is full is dropped.
func (h *Hub) Publish(turn domain.Turn) {
	msg := TurnMessage{
		ID:   turn.ID,
		Role: turn.Role.String(),
		Text: turn.Text,
		At:   turn.At,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, queue := range h.conns {
		select {
		case queue <- msg:
		default:
			h.log.Debug("feed: listener too slow, dropping")
			h.dropLocked(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	h.dropLocked(conn)
	h.mu.Unlock()
}

// dropLocked removes and closes the connection. The queue is closed
// under the same lock that guards every send to it.
func (h *Hub) dropLocked(conn *websocket.Conn) {
	queue, ok := h.conns[conn]
	if !ok {
		return
	}
	delete(h.conns, conn)
	close(queue)
	conn.Close()
}

// Close disconnects all listeners.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		h.dropLocked(conn)
	}
}
