package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"campusmarket/pkg/logger"
)

// Client is one live connection. Its room set is mutated only under the
// manager's lock; the send side has its own lock so a frame can never race
// the channel close during disconnect.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
	rooms  map[string]struct{}
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]struct{}),
	}
}

// enqueue hands a frame to the connection without blocking. A full send
// buffer means the client is too slow; the frame is dropped, never retried.
// Frames arriving after the connection was torn down are dropped the same
// way.
func (c *Client) enqueue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.Send <- frame:
	default:
		logger.Warn("WebSocket: dropping frame for slow client of user %s", c.UserID)
	}
}

// closeSend closes the send channel exactly once, under the same lock
// enqueue holds, so no concurrent enqueue can hit a closed channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump reads frames from the connection and feeds them to the manager
// until the connection dies.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket: read error for user %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send buffer onto the wire.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("WebSocket: write error for user %s: %v", c.UserID, err)
			return
		}
	}
}
