package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/arphillips06/ti4-ledger/internal/scoring/projection"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Hub fans derived state out to websocket clients watching a game. It
// implements the service's notifier: every accepted write pushes the fresh
// state to every watcher of that game.
type Hub struct {
	logger *log.Logger

	mu    sync.Mutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*client]struct{}),
	}
}

// GameStateChanged broadcasts the state to every client watching the game.
// Slow clients are dropped rather than allowed to stall the write path.
func (h *Hub) GameStateChanged(gameID string, state *projection.State) {
	payload, err := marshalStateMessage(state)
	if err != nil {
		h.logger.Printf("marshal state broadcast game=%s: %v", gameID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[gameID] {
		select {
		case c.send <- payload:
		default:
			h.dropLocked(gameID, c)
		}
	}
}

// Serve upgrades the request and streams state changes for one game until the
// client disconnects. The initial state snapshot is sent immediately.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, gameID string, state *projection.State) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade game=%s: %v", gameID, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	room := h.rooms[gameID]
	if room == nil {
		room = make(map[*client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	if payload, err := marshalStateMessage(state); err == nil {
		c.send <- payload
	}

	go h.writePump(gameID, c)
	h.readPump(gameID, c)
}

func (h *Hub) writePump(gameID string, c *client) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(gameID, c)
			return
		}
	}
}

// readPump discards inbound frames; the socket is one-way. It exists to
// notice the close handshake and tear the client down.
func (h *Hub) readPump(gameID string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(gameID, c)
			return
		}
	}
}

func (h *Hub) drop(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(gameID, c)
}

func (h *Hub) dropLocked(gameID string, c *client) {
	room := h.rooms[gameID]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
	close(c.send)
	_ = c.conn.Close()
}
