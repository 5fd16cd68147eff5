package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 256
	writeWait    = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans event records out to websocket clients and keeps the most recent
// ones for replay.
type hub struct {
	mu       sync.Mutex
	clients  map[*client]bool
	recent   []EventRecord
	limit    int
	next     int
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func newHub(limit int, logger *slog.Logger) *hub {
	return &hub{
		clients: make(map[*client]bool),
		limit:   limit,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local inspector
			},
		},
	}
}

// serve upgrades the request and streams records until the client goes away.
func (h *hub) serve(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("event client connected", "remote", req.RemoteAddr)

	go h.writeLoop(c)

	// Keep the connection until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

func (h *hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// drop unregisters c and ends its write loop. Safe to call more than once.
func (h *hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// publish records r and queues it for every client without blocking.
func (h *hub) publish(r EventRecord) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 {
		if len(h.recent) < h.limit {
			h.recent = append(h.recent, r)
		} else {
			h.recent[h.next] = r
		}
		h.next = (h.next + 1) % h.limit
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("event client too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// snapshot returns the buffered records, oldest first.
func (h *hub) snapshot() []EventRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]EventRecord, 0, len(h.recent))
	if len(h.recent) < h.limit {
		return append(out, h.recent...)
	}
	out = append(out, h.recent[h.next:]...)
	return append(out, h.recent[:h.next]...)
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
