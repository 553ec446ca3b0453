package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Client wraps a websocket connection with an identity and a write lock.
// gorilla/websocket allows at most one concurrent writer, and game
// broadcasts fan out from several goroutines (handlers and timers).
type Client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
	}
}

// ID returns the connection's server-assigned identifier.
func (c *Client) ID() string {
	return c.id
}

// Send marshals v and writes it as a single text frame.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// SendEvent wraps payload in an Envelope and sends it.
func (c *Client) SendEvent(event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return c.Send(env)
}

// SendError reports a session-level failure without closing the socket.
func (c *Client) SendError(message string) {
	_ = c.SendEvent(EventGameError, GameErrorPayload{Message: message})
}

// ReadEnvelope blocks for the next inbound frame.
func (c *Client) ReadEnvelope() (Envelope, error) {
	var env Envelope
	err := c.conn.ReadJSON(&env)
	return env, err
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
