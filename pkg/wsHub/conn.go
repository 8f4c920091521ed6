package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Envelope is the wire format of every protocol message, inbound and outbound.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Conn wraps a websocket connection with a write mutex.
// gorilla/websocket allows only one concurrent writer.
type Conn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// Send writes an event envelope to the socket.
func (c *Conn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteJSON(Envelope{Event: event, Data: payload})
}

// ReadMessage blocks until the next inbound frame.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
