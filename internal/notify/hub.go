package notify

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks open notification sockets per user. A user may have several
// tabs open; Publish fans out to all of them. Dead connections are dropped
// on write failure.
type Hub struct {
	mu    sync.Mutex
	conns map[int64][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: map[int64][]*websocket.Conn{}}
}

// Add registers conn for the user, first writing any backlog frames while
// holding the hub lock. Publish takes the same lock, so backlog writes
// cannot interleave with a concurrent publish and backlog frames always
// arrive before anything published after registration.
func (h *Hub) Add(userID int64, conn *websocket.Conn, backlog ...interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range backlog {
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			return err
		}
	}
	h.conns[userID] = append(h.conns[userID], conn)
	return nil
}

func (h *Hub) Remove(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	live := h.conns[userID][:0]
	for _, c := range h.conns[userID] {
		if c != conn {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		delete(h.conns, userID)
	} else {
		h.conns[userID] = live
	}
}

// Publish sends v as JSON to every open socket of the user. Connections
// that fail to write are closed and dropped.
func (h *Hub) Publish(userID int64, v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	live := h.conns[userID][:0]
	for _, c := range h.conns[userID] {
		if err := c.WriteJSON(v); err != nil {
			c.Close()
			continue
		}
		live = append(live, c)
	}
	if len(live) == 0 {
		delete(h.conns, userID)
	} else {
		h.conns[userID] = live
	}
}
