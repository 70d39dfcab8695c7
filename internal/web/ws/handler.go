package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/wordbattle/internal/model"
)

// Handler upgrades HTTP requests to realtime connections
type Handler struct {
	hub         *Hub
	coordinator Coordinator
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, coordinator Coordinator, logger *slog.Logger) *Handler {
	return &Handler{
		hub:         hub,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are served from arbitrary hosts on the local network
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := model.ConnectionID(uuid.New().String())
	client := NewClient(id, conn, h.hub, h.coordinator, h.logger)
	h.hub.Register(client)

	h.logger.Info("websocket connected",
		slog.String("connection_id", string(id)),
		slog.String("remote_addr", r.RemoteAddr))

	// Every new connection starts from a full snapshot
	h.coordinator.Connect(id)

	client.Run()
}
