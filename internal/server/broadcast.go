package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 64
	writeTimeout = 10 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans snapshot messages out to connected WebSocket clients.
// Clients that cannot keep up are disconnected.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *log.Logger
}

// NewBroadcaster creates a broadcaster (nil logger uses log.Default())
func NewBroadcaster(logger *log.Logger) *Broadcaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Broadcaster{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// AddClient registers conn and queues initial for it when non-nil
func (b *Broadcaster) AddClient(conn *websocket.Conn, initial []byte) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	if initial != nil {
		// Fresh buffer, never blocks
		c.send <- initial
	}
	b.mu.Unlock()

	return c
}

// RemoveClient unregisters c and closes its connection
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Broadcast queues data for every client. Sends happen under the read lock
// so RemoveClient cannot close a channel mid-send; clients whose buffer is
// full are removed once the lock is released.
func (b *Broadcaster) Broadcast(data []byte) {
	var slow []*client

	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Printf("ws: client %s too slow, disconnecting", c.id)
		b.RemoveClient(c)
	}
}

// CloseAll disconnects every client
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
