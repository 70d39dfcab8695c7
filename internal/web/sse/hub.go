package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

const broadcastBufferSize = 256

// message is one framed event waiting to be fanned out
type message struct {
	event string
	frame []byte
}

// Hub mirrors broadcast events to read-only observer streams.
// Run owns the client set; other methods hand work to it over channels.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub; call Run to start delivering events
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		logger:     logger.With(slog.String("component", "sse")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

// Run delivers events until Close
func (h *Hub) Run() {
	h.logger.Info("event stream hub started")
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("observer connected",
				slog.String("client_id", c.id),
				slog.Int("observers", n))

		case c := <-h.unregister:
			h.mu.Lock()
			_, known := h.clients[c]
			if known {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			if known {
				h.logger.Info("observer disconnected",
					slog.String("client_id", c.id),
					slog.Duration("connected_for", time.Since(c.connectedAt)),
					slog.Int("observers", n))
			}

		case m := <-h.broadcast:
			h.fanOut(m)

		case <-h.done:
			h.mu.Lock()
			n := len(h.clients)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("event stream hub stopped", slog.Int("observers", n))
			return
		}
	}
}

func (h *Hub) fanOut(m message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Slow observers lose events rather than stall the game
	for c := range h.clients {
		if !c.wants(m.event) {
			continue
		}
		select {
		case c.send <- m.frame:
		default:
			h.logger.Warn("observer too slow, event dropped",
				slog.String("client_id", c.id),
				slog.String("event", m.event))
		}
	}
}

// Register adds a client. After Close the client's channel is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastEvent queues a named event with its JSON data for every interested observer
func (h *Hub) BroadcastEvent(event, data string) {
	select {
	case h.broadcast <- message{event: event, frame: frame(event, data)}:
	case <-h.done:
	default:
		h.logger.Warn("event stream backlog full, event dropped", slog.String("event", event))
	}
}

// Close ends every stream. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected observers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// frame encodes one event in text/event-stream form
func frame(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range dataLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// dataLines splits on \n, dropping \r and a trailing empty line
func dataLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
