// Package mapsurface streams map commands to the device over a websocket.
package mapsurface

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope of every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Defaults is the initial camera and style sent to a connecting client.
type Defaults struct {
	Style  string    `json:"style"`
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// InboundHandler receives frames sent by the device.
type InboundHandler func(ctx context.Context, msg Message)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans map commands out to every connection of one user. The latest
// marker, route and status panel commands are kept and replayed to clients
// that connect later.
type Hub struct {
	userID   string
	defaults Defaults
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  map[string][]byte
	inbound InboundHandler
	closed  bool
}

func NewHub(userID string, defaults Defaults, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		userID:   userID,
		defaults: defaults,
		logger:   logger.With("component", "mapsurface", "user_id", userID),
		clients:  make(map[*client]struct{}),
		latest:   make(map[string][]byte),
	}
}

// OnMessage registers the handler for device frames.
func (h *Hub) OnMessage(fn InboundHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = fn
}

// replay lists the command types whose latest value a new client needs, in
// the order they must be applied.
var replay = []string{TypeUserMarker, TypeDestinationMarker, TypeRoute, TypeDisplay}

// Broadcast sends a command to every connected client. It never blocks: a
// client whose buffer is full is dropped.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	frame, err := encode(msgType, data)
	if err != nil {
		h.logger.Error("Error marshaling map command", "type", msgType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	switch msgType {
	case TypeUserMarker, TypeDestinationMarker, TypeRoute, TypeDisplay:
		h.latest[msgType] = frame
	case TypeRouteClear:
		delete(h.latest, TypeRoute)
	case TypeDestinationClear:
		delete(h.latest, TypeDestinationMarker)
	}

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("Dropping slow map client")
			h.removeLocked(c)
		}
	}
}

func encode(msgType string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Message{Type: msgType, Data: raw})
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	initFrame, err := encode(TypeInit, h.defaults)
	if err != nil {
		h.logger.Error("Error marshaling init", "error", err)
		conn.Close()
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	c.send <- initFrame
	for _, t := range replay {
		if frame, ok := h.latest[t]; ok {
			c.send <- frame
		}
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("Map client connected", "clients", count)

	go h.writePump(c)
	h.readPump(r.Context(), c)
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(c)
		count := len(h.clients)
		h.mu.Unlock()
		h.logger.Info("Map client disconnected", "clients", count)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Map client read error", "error", err)
			}
			return
		}

		h.mu.Lock()
		handler := h.inbound
		h.mu.Unlock()
		if handler != nil {
			handler(context.WithoutCancel(ctx), msg)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeLocked must be called with mu held.
func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
