package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// Client is one websocket connection of a user.
type Client struct {
	SocketID string
	UserID   string
	Email    string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, socketID, userID, email string) *Client {
	return &Client{
		SocketID: socketID,
		UserID:   userID,
		Email:    email,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Send queues a frame, dropping it when the client cannot keep up.
func (c *Client) Send(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

// WritePump drains the send queue onto the socket. Runs in its own goroutine
// per connection and exits when the client is closed.
func (c *Client) WritePump() {
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
