package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

type Message struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// client owns the only goroutine that writes to conn.
type client struct {
	conn      *websocket.Conn
	role      string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue never blocks. It reports false when the client is gone or its
// queue is full.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) writePump(h *Hub) {
	defer h.Unregister(c.conn)
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			select {
			case <-c.done:
				return
			default:
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				utils.Log.WithError(err).WithField("role", c.role).Warn("Dropping websocket client")
				return
			}
		}
	}
}

// Hub keeps the connected staff clients and fans events out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	if c, fresh := h.attach(conn, role); fresh {
		go c.writePump(h)
	}
}

// attach adds conn to the hub. Registering the same conn twice keeps the
// first client.
func (h *Hub) attach(conn *websocket.Conn, role string) (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[conn]; ok {
		return c, false
	}
	c := &client{
		conn: conn,
		role: role,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.clients[conn] = c
	return c, true
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve registers conn and blocks until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn, role string) {
	h.Register(conn, role)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Notify broadcasts a reservation event.
func (h *Hub) Notify(event string, data interface{}) {
	h.Broadcast(Message{Event: event, Data: data, Timestamp: time.Now().UTC()})
}

// Broadcast queues msg for every client. The lock only covers the
// snapshot, so a slow client never delays the others or the caller.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.Log.WithError(err).WithField("event", msg.Event).Error("Marshal websocket message")
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
			continue
		}
		utils.Log.WithField("role", c.role).Warn("Dropping websocket client with a full queue")
		h.Unregister(c.conn)
	}
	utils.Log.WithFields(map[string]interface{}{
		"event":   msg.Event,
		"clients": delivered,
	}).Debug("Broadcast")
}
