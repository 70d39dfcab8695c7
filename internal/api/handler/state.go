package handler

import (
	"net/http"

	"github.com/mcoot/wordbattle/internal/api/response"
	"github.com/mcoot/wordbattle/internal/services/lobby"
)

// ConnectionCounter reports the number of live realtime connections
type ConnectionCounter interface {
	ClientCount() int
}

// StateHandler exposes read-only views of the lobby
type StateHandler struct {
	lobby       *lobby.Controller
	connections ConnectionCounter
}

// NewStateHandler creates a new state handler
func NewStateHandler(controller *lobby.Controller, connections ConnectionCounter) *StateHandler {
	return &StateHandler{
		lobby:       controller,
		connections: connections,
	}
}

// Health handles GET /api/v1/health
func (h *StateHandler) Health(w http.ResponseWriter, _ *http.Request) {
	players, rooms := h.lobby.Stats()
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		Players:     players,
		Rooms:       rooms,
		Connections: h.connections.ClientCount(),
	})
}

// State handles GET /api/v1/state
func (h *StateHandler) State(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, h.lobby.Snapshot())
}
