package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the slice of a websocket connection the client loop
// needs. Tests substitute a mock; production wraps *websocket.Conn.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the peer address for logging.
	RemoteAddr() string
}

// Broadcaster is the surface the dashboard service needs from the hub.
// Components that only publish events depend on this rather than *Hub.
type Broadcaster interface {
	// BroadcastEvent marshals payload into an event frame and sends it to
	// every connected client.
	BroadcastEvent(eventType string, payload interface{})

	// ClientCount returns the number of connected clients
	ClientCount() int
}

// gorillaConn adapts *websocket.Conn to Connection.
type gorillaConn struct {
	conn *websocket.Conn
}

func wrapConn(conn *websocket.Conn) Connection {
	return &gorillaConn{conn: conn}
}

func (c *gorillaConn) WriteMessage(messageType int, data []byte) error {
	return c.conn.WriteMessage(messageType, data)
}

func (c *gorillaConn) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

func (c *gorillaConn) Close() error {
	return c.conn.Close()
}

func (c *gorillaConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *gorillaConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *gorillaConn) SetReadLimit(limit int64) {
	c.conn.SetReadLimit(limit)
}

func (c *gorillaConn) SetPongHandler(h func(string) error) {
	c.conn.SetPongHandler(h)
}

func (c *gorillaConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
