package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/wordbattle/internal/model"
)

// Mirror receives a copy of every broadcast event, already JSON-encoded
type Mirror interface {
	BroadcastEvent(eventName, data string)
}

// Hub tracks live WebSocket clients by connection id and routes events to them
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	mirror  Mirror
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	outbound   chan []model.Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub. mirror may be nil.
func NewHub(mirror Mirror, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[model.ConnectionID]*Client),
		mirror:     mirror,
		logger:     logger.With(slog.String("component", "ws")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan []model.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("connection_id", string(client.id)),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.id]; ok && current == client {
				delete(h.clients, client.id)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client unregistered",
				slog.String("connection_id", string(client.id)),
				slog.Int("total_clients", count))

		case events := <-h.outbound:
			for _, event := range events {
				h.deliver(event)
			}

		case <-h.done:
			h.mu.Lock()
			count := len(h.clients)
			for id, client := range h.clients {
				client.Close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", count))
			return
		}
	}
}

// deliver encodes one event and queues it on its recipients
func (h *Hub) deliver(event model.Event) {
	frame, err := encode(event.Name, event.Payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event.Name)),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if event.Broadcast {
		for _, client := range h.clients {
			client.enqueue(frame)
		}
		if h.mirror != nil {
			if data, err := json.Marshal(event.Payload); err == nil {
				h.mirror.BroadcastEvent(string(event.Name), string(data))
			}
		}
		return
	}
	for _, id := range event.Targets {
		if client, ok := h.clients[id]; ok {
			client.enqueue(frame)
		}
	}
}

// Publish queues events for delivery in the order given
func (h *Hub) Publish(events []model.Event) {
	select {
	case h.outbound <- events:
	case <-h.done:
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Close shuts down the hub and every client connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
