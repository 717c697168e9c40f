package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WritePumpDeliversFrames(t *testing.T) {
	hub := NewHub(testLogger())
	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, testLogger())

	go client.WritePump()

	client.send <- []byte(`{"type":"data:reloaded"}`)
	client.send <- []byte(`{"type":"data:reloading"}`)

	assert.Eventually(t, func() bool {
		return len(conn.Written()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	written := conn.Written()
	assert.Equal(t, `{"type":"data:reloaded"}`, string(written[0]))
	assert.Equal(t, `{"type":"data:reloading"}`, string(written[1]))

	close(client.send)
	assert.Eventually(t, conn.IsClosed, 2*time.Second, 10*time.Millisecond)
}

func TestClient_WritePumpStopsOnWriteError(t *testing.T) {
	hub := NewHub(testLogger())
	conn := NewMockConnection()
	conn.SetWriteError(assert.AnError)
	client := NewClientWithConnection(hub, conn, testLogger())

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte("payload")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump did not stop after write error")
	}
	assert.True(t, conn.IsClosed())
}

func TestClient_ReadPumpUnregistersOnClose(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, testLogger())
	hub.Register(client)
	recvFrame(t, client)

	done := make(chan struct{})
	go func() {
		client.ReadPump()
		close(done)
	}()

	// Heartbeats are consumed without effect; close ends the pump.
	conn.QueueMessage([]byte(`{"type":"heartbeat"}`))
	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump did not stop after close")
	}

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_IDsAreUnique(t *testing.T) {
	hub := NewHub(testLogger())
	a, _ := newTestClient(t, hub)
	b, _ := newTestClient(t, hub)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
