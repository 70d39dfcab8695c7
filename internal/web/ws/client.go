package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/services/lobby"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Upper bound on the word library read when starting a game
	commandTimeout = 5 * time.Second
)

// Coordinator is the realtime command surface of the lobby
type Coordinator interface {
	Connect(conn model.ConnectionID)
	Disconnect(conn model.ConnectionID)
	RequestIdentity(conn model.ConnectionID, savedID model.PlayerID, savedName string)
	CreateRoom(conn model.ConnectionID, playerID model.PlayerID)
	JoinRoom(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID)
	LeaveRoom(conn model.ConnectionID, playerID model.PlayerID)
	StartGame(ctx context.Context, conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID)
	SubmitAnswer(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID, choice string)
	RequestNextQuestion(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID)
	ReturnToRoom(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID)
	LeaveGame(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID)
	UpdateName(conn model.ConnectionID, playerID model.PlayerID, newName string)
	RelayPreloadProgress(conn model.ConnectionID, progress lobby.PreloadProgress)
}

// Client represents a WebSocket client connection
type Client struct {
	id          model.ConnectionID
	conn        *websocket.Conn
	hub         *Hub
	coordinator Coordinator
	send        chan []byte
	done        chan struct{}
	logger      *slog.Logger
	mu          sync.Mutex
	closed      bool
}

// NewClient creates a new WebSocket client
func NewClient(id model.ConnectionID, conn *websocket.Conn, hub *Hub, coordinator Coordinator, logger *slog.Logger) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		hub:         hub,
		coordinator: coordinator,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		logger:      logger.With(slog.String("connection_id", string(id))),
	}
}

// ID returns the connection id
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// enqueue queues an encoded frame, dropping it if the client cannot keep up
func (c *Client) enqueue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("send buffer full, message dropped")
	}
}

// Close closes the connection; safe to call more than once
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	_ = c.conn.Close()
}

// Run starts the client's pumps and blocks until the connection ends
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.coordinator.Disconnect(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump pumps frames from the send channel to the WebSocket connection, one frame per event
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// handleMessage dispatches one inbound frame. A panic in a handler is
// contained to the frame that caused it.
func (c *Client) handleMessage(data []byte) {
	var env Envelope
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic handling message",
				slog.String("event", string(env.Event)),
				slog.String("panic", fmt.Sprint(r)))
			c.sendError(ErrCodeInternalError, "Internal error")
		}
	}()

	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}

	switch env.Event {
	case model.CmdRequestIdentity:
		req := decodeIdentity(env.Data)
		c.coordinator.RequestIdentity(c.id, req.SavedID, req.SavedName)
	case model.CmdCreateRoom:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.CreateRoom(c.id, cmd.PlayerID)
		}
	case model.CmdJoinRoom:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.JoinRoom(c.id, cmd.PlayerID, cmd.RoomID)
		}
	case model.CmdLeaveRoom:
		playerID, err := decodePlayerID(env.Data)
		if err != nil {
			c.sendError(ErrCodeInvalidMessage, "Invalid payload")
			return
		}
		c.coordinator.LeaveRoom(c.id, playerID)
	case model.CmdStartGame:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			c.coordinator.StartGame(ctx, c.id, cmd.PlayerID, cmd.RoomID)
		}
	case model.CmdAnswerSelected:
		var cmd AnswerCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.SubmitAnswer(c.id, cmd.PlayerID, cmd.RoomID, cmd.SelectedImage)
		}
	case model.CmdRequestNextQuestion:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.RequestNextQuestion(c.id, cmd.PlayerID, cmd.RoomID)
		}
	case model.CmdReturnToRoom:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.ReturnToRoom(c.id, cmd.PlayerID, cmd.RoomID)
		}
	case model.CmdLeaveGame:
		var cmd RoomCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.LeaveGame(c.id, cmd.PlayerID, cmd.RoomID)
		}
	case model.CmdUpdateName:
		var cmd NameCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.UpdateName(c.id, cmd.PlayerID, cmd.NewName)
		}
	case model.CmdPreloadProgress:
		var cmd PreloadCommand
		if c.decode(env.Data, &cmd) {
			c.coordinator.RelayPreloadProgress(c.id, lobby.PreloadProgress{
				PlayerID:     cmd.PlayerID,
				RoomID:       cmd.RoomID,
				LoadedImages: cmd.LoadedImages,
				TotalImages:  cmd.TotalImages,
				Percent:      cmd.Percent,
			})
		}
	default:
		c.sendError(ErrCodeUnknownEvent, "Unknown event: "+string(env.Event))
	}
}

// decode unmarshals a payload, reporting malformed ones to the client
func (c *Client) decode(data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

func (c *Client) sendError(code, message string) {
	frame, err := encode(model.EventError, model.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.enqueue(frame)
}
