package sse

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	keepalivePeriod = 30 * time.Second
	sendBufferSize  = 256

	// FilterParam names the query parameter that restricts a stream to given events
	FilterParam = "event"
)

// Client is one connected observer stream
type Client struct {
	id          string
	send        chan []byte
	events      map[string]bool
	connectedAt time.Time
}

// NewClient creates a stream that receives the named events, or all events when none are given
func NewClient(events ...string) *Client {
	c := &Client{
		id:          uuid.New().String(),
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
	if len(events) > 0 {
		c.events = make(map[string]bool, len(events))
		for _, name := range events {
			c.events[name] = true
		}
	}
	return c
}

func (c *Client) wants(event string) bool {
	return c.events == nil || c.events[event]
}

// ServeSSE streams hub events to the caller until either side goes away.
// Repeated ?event= parameters limit the stream to those event names.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("X-Accel-Buffering", "no")

	client := NewClient(r.URL.Query()[FilterParam]...)
	hub.Register(client)
	defer hub.Unregister(client)

	write := func(b []byte) bool {
		if _, err := w.Write(b); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(frame("connected", `{"status":"connected"}`)) {
		return
	}

	keepalive := time.NewTicker(keepalivePeriod)
	defer keepalive.Stop()

	for {
		select {
		case msg, open := <-client.send:
			if !open || !write(msg) {
				return
			}
		case <-keepalive.C:
			if !write([]byte(": keepalive\n\n")) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
