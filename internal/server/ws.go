package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
)

const (
	writeWait   = 5 * time.Second
	clientQueue = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// client is one websocket subscriber with its own outbound queue so a slow
// reader never blocks the control loop.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// LiveHandler broadcasts every frame decision to websocket clients.
type LiveHandler struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// Updates is the subscription side of the pipeline.
type Updates interface {
	OnUpdate(fn func(app.Update))
}

// NewLiveHandler creates a LiveHandler subscribed to source.
func NewLiveHandler(source Updates) *LiveHandler {
	h := &LiveHandler{clients: make(map[*client]struct{})}
	source.OnUpdate(h.Broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueue)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	// Reads only detect the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// Broadcast queues u for every client. Clients whose queue is full miss
// the update.
func (h *LiveHandler) Broadcast(u app.Update) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	msg, err := json.Marshal(u)
	if err != nil {
		slog.Debug("update not encoded", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *LiveHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *LiveHandler) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
}

func (h *LiveHandler) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *LiveHandler) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("websocket write failed", "error", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
