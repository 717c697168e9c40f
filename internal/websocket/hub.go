// Package websocket pushes dataset lifecycle events to connected dashboard
// pages. The hub fans a single event stream out to every client; clients that
// cannot keep up are dropped rather than allowed to block the broadcast loop.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"firedays/internal/infrastructure"
	"firedays/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// mu guards clients; Run owns all mutations but ClientCount and the
	// broadcast fan-out read concurrently.
	mu sync.RWMutex

	logger *slog.Logger

	quit     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub with dependency injection
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub's event loop in a goroutine.
func (h *Hub) Start() {
	go h.Run()
}

// Stop shuts the hub down and closes every client connection. Safe to call
// more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			return
		case client := <-h.register:
			h.admit(client)
		case client := <-h.unregister:
			h.drop(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Info("Hub stopped")
}

// admit adds the client and pushes a welcome frame so the page knows its
// connection is live.
func (h *Hub) admit(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	ctx := clientContext(client)
	h.logger.InfoContext(ctx, "Client connected to event stream",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr),
		slog.Int("total_clients", count))

	data, err := encodeEvent(events.TypeConnection, events.Connected{
		Status:   "connected",
		ClientID: client.id,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Could not encode welcome frame",
			slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.WarnContext(ctx, "Welcome frame dropped - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.InfoContext(clientContext(client), "Client left event stream",
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count))
}

// fanOut delivers message to every client. A client whose send buffer is full
// is disconnected on the spot; a stalled page must not delay the others.
func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		select {
		case client.send <- message:
			delivered++
		default:
			h.mu.Lock()
			close(client.send)
			delete(h.clients, client)
			h.mu.Unlock()
			h.logger.Warn("Disconnecting slow client",
				slog.String("client_id", client.id))
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", len(targets)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", len(targets)-delivered),
		slog.Int("message_size", len(message)))
}

// clientContext binds the client's trace id, if any, for log correlation.
func clientContext(client *Client) context.Context {
	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	return ctx
}

// encodeEvent wraps payload in an event frame and marshals it to JSON.
func encodeEvent(eventType string, payload interface{}) ([]byte, error) {
	msg, err := events.NewMessage(eventType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// Register registers a new client with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a raw message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.quit:
	}
}

// BroadcastEvent wraps payload in an event frame and broadcasts it. Encoding
// failures are logged and dropped; the event stream is advisory.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		h.logger.Error("Could not encode event frame",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	h.Broadcast(data)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
