package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"firedays/internal/config"
	"firedays/internal/infrastructure"
	ws "firedays/internal/websocket"
)

// WebSocketHandler upgrades /ws requests and attaches clients to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a websocket handler. Upgrade requests are
// accepted from the configured origins plus same-origin requests.
func NewWebSocketHandler(hub *ws.Hub, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	allowed := cfg.Security.AllowedOrigins
	return &WebSocketHandler{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket_handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, a := range allowed {
					if a == "*" || strings.EqualFold(a, origin) {
						return true
					}
				}
				// Same-origin requests carry the listen host as origin.
				return strings.Contains(origin, r.Host)
			},
		},
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	client := ws.NewClientWithTrace(h.hub, conn, traceID, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
