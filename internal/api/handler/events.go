package handler

import (
	"net/http"

	"github.com/mcoot/wordbattle/internal/web/sse"
)

// EventsHandler streams broadcast events to observers
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sse.ServeSSE(w, r, h.hub)
}
