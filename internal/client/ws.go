// Package client subscribes to a remote snapshot server over WebSocket.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cosmo_command/internal/graph"
	"cosmo_command/internal/server"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// ErrNotConnected is returned by Read when no connection is open
var ErrNotConnected = errors.New("not connected")

// WSClient manages the WebSocket connection to a snapshot server
type WSClient struct {
	url    string
	logger *log.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex // serialises pings with Close
	conn     *websocket.Conn
	seq      uint64
	delay    time.Duration
	failed   bool
	pingStop context.CancelFunc
}

// NewWSClient creates a client for the given ws:// or wss:// URL
func NewWSClient(url string, logger *log.Logger) *WSClient {
	if logger == nil {
		logger = log.Default()
	}
	return &WSClient{url: url, logger: logger, delay: reconnectBaseDelay}
}

// URL returns the server URL
func (c *WSClient) URL() string {
	return c.url
}

// Connected reports whether a connection is open
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Connect dials the server. After a failed attempt the next call waits with
// exponential backoff before dialing again.
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	wait := time.Duration(0)
	if c.failed {
		wait = c.delay
	}
	c.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		if c.failed {
			c.delay = min(c.delay*2, reconnectMaxDelay)
		}
		c.failed = true
		next := c.delay
		c.mu.Unlock()
		c.logger.Printf("ws: dial %s: %v (retry in %v)", c.url, err, next)
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

	pingCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.pingStop != nil {
		c.pingStop()
	}
	c.conn = conn
	c.failed = false
	c.delay = reconnectBaseDelay
	c.pingStop = cancel
	c.mu.Unlock()

	go c.pingLoop(pingCtx, conn)
	c.logger.Printf("ws: connected to %s", c.url)
	return nil
}

// Read blocks until the next snapshot arrives. Messages of other types are
// skipped. On error the connection is dropped and Connect must be called again.
func (c *WSClient) Read() (graph.Snapshot, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return graph.Snapshot{}, ErrNotConnected
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn)
			return graph.Snapshot{}, fmt.Errorf("read: %w", err)
		}

		snap, seq, ok, err := server.DecodeSnapshot(data)
		if err != nil {
			c.logger.Printf("ws: bad message: %v", err)
			continue
		}
		if !ok {
			continue
		}

		c.mu.Lock()
		c.seq = seq
		c.mu.Unlock()
		return snap, nil
	}
}

// Seq returns the sequence number of the last snapshot read
func (c *WSClient) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Close closes the current connection, if any
func (c *WSClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.drop(conn)
}

// drop forgets conn if it is still the current connection
func (c *WSClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		if c.pingStop != nil {
			c.pingStop()
			c.pingStop = nil
		}
	}
	c.mu.Unlock()
	_ = conn.Close()
}

// pingLoop sends periodic pings on conn until ctx is cancelled or the
// connection is replaced
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			current := c.conn
			c.mu.Unlock()
			if current != conn {
				return
			}
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
