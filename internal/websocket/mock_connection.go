package websocket

import (
	"errors"
	"sync"
	"time"
)

// MockConnection is an in-memory Connection implementation for tests.
// Written frames are captured; reads block until a frame is queued with
// QueueMessage or the connection is closed.
type MockConnection struct {
	mu       sync.Mutex
	written  [][]byte
	inbound  chan []byte
	closed   bool
	writeErr error
}

// NewMockConnection creates a MockConnection ready for use
func NewMockConnection() *MockConnection {
	return &MockConnection{
		inbound: make(chan []byte, 16),
	}
}

// QueueMessage makes data available to the next ReadMessage call
func (m *MockConnection) QueueMessage(data []byte) {
	m.inbound <- data
}

// Written returns a copy of every payload written so far
func (m *MockConnection) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

// SetWriteError makes subsequent WriteMessage calls fail with err
func (m *MockConnection) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// IsClosed reports whether Close has been called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("connection closed")
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.written = append(m.written, buf)
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	data, ok := <-m.inbound
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, data, nil
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.inbound)
	}
	return nil
}

func (m *MockConnection) SetReadDeadline(t time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(t time.Time) error { return nil }
func (m *MockConnection) SetReadLimit(limit int64)           {}
func (m *MockConnection) SetPongHandler(h func(string) error) {}

func (m *MockConnection) RemoteAddr() string { return "mock:0" }
