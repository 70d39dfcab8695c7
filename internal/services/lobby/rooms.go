package lobby

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/wordbattle/internal/model"
)

// Messages carried by targeted rejection events
const (
	msgAlreadyInRoom  = "You are already in a room"
	msgRoomStarted    = "The game in this room has already started"
	msgRoomDissolved  = "The room has been dissolved"
	msgNotHost        = "Only the host can start the game"
	msgPlayersBusy    = "Not all players are ready"
	msgGameInProgress = "A game is already in progress"
	msgNotEnoughWords = "Not enough words in the library to start a game"

	reasonHostLeft = "host_left"
)

// CreateRoom opens a new room hosted by the player bound to conn
func (c *Controller) CreateRoom(conn model.ConnectionID, playerID model.PlayerID) {
	c.apply(func() []model.Event {
		return c.createRoom(conn, playerID)
	})
}

// JoinRoom moves the player bound to conn into a room
func (c *Controller) JoinRoom(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) {
	c.apply(func() []model.Event {
		return c.joinRoom(conn, playerID, roomID)
	})
}

// LeaveRoom removes the player bound to conn from their room
func (c *Controller) LeaveRoom(conn model.ConnectionID, playerID model.PlayerID) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil || !p.InRoom() {
			return nil
		}
		return append(c.leaveRoom(p), c.stateEvent())
	})
}

func (c *Controller) createRoom(conn model.ConnectionID, playerID model.PlayerID) []model.Event {
	p := c.owned(conn, playerID)
	if p == nil {
		return nil
	}
	if p.InRoom() {
		return []model.Event{toConn(conn, model.EventRoomError, model.MessagePayload{Message: msgAlreadyInRoom})}
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:        c.newRoomID(),
		Name:      p.Name,
		HostID:    p.ID,
		Members:   []model.PlayerID{p.ID},
		CreatedAt: now,
	}
	c.rooms[room.ID] = room
	p.RoomID = room.ID
	p.Status = model.StatusInRoom

	c.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("host_id", string(p.ID)),
	)

	return []model.Event{
		toConn(conn, model.EventRoomCreated, model.RoomCreatedPayload{RoomID: room.ID, RoomName: room.Name}),
		c.stateEvent(),
	}
}

func (c *Controller) joinRoom(conn model.ConnectionID, playerID model.PlayerID, roomID model.RoomID) []model.Event {
	p := c.owned(conn, playerID)
	if p == nil {
		return nil
	}
	room, ok := c.rooms[roomID]
	if !ok || p.RoomID == roomID {
		return nil
	}
	if room.Started {
		return []model.Event{toConn(conn, model.EventRoomError, model.MessagePayload{Message: msgRoomStarted})}
	}

	var events []model.Event
	if p.InRoom() {
		events = c.leaveRoom(p)
	}

	room.Members = append(room.Members, p.ID)
	p.RoomID = room.ID
	p.Status = model.StatusInRoom

	c.logger.Info("player joined room",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(p.ID)),
	)

	return append(events, c.stateEvent())
}

// leaveRoom removes p from their room. A departing host dissolves the room,
// as does the last member leaving.
func (c *Controller) leaveRoom(p *model.Player) []model.Event {
	room, ok := c.rooms[p.RoomID]
	if !ok {
		p.RoomID = ""
		p.Status = model.StatusIdle
		return nil
	}
	if room.IsHost(p.ID) {
		return c.dissolveRoom(room, p)
	}

	room.RemoveMember(p.ID)
	c.engine.RemovePlayer(room, p.ID)
	p.RoomID = ""
	p.Status = model.StatusIdle

	if len(room.Members) == 0 {
		return c.dissolveRoom(room, nil)
	}
	return c.completionEvents(room)
}

// dissolveRoom scatters every member back to the lobby and deletes the room.
// When a host departure aborts a running session, members hear game_over first.
func (c *Controller) dissolveRoom(room *model.Room, host *model.Player) []model.Event {
	var events []model.Event
	targets := c.connections(room.Members)

	if room.Started && host != nil && len(targets) > 0 {
		events = append(events, model.Event{
			Name:    model.EventGameOver,
			Payload: model.GameOverPayload{Reason: reasonHostLeft, Player: host.Name},
			Targets: targets,
		})
	}
	if len(targets) > 0 {
		events = append(events, model.Event{
			Name: model.EventRoomDissolved,
			Payload: model.RoomDissolvedPayload{
				Message:  msgRoomDissolved,
				RoomName: room.Name,
				RoomID:   room.ID,
			},
			Targets: targets,
		})
	}

	for _, id := range room.Members {
		member, ok := c.players[id]
		if !ok {
			continue
		}
		member.RoomID = ""
		if member.Status == model.StatusOffline {
			member.ResumeStatus = model.StatusIdle
		} else {
			member.Status = model.StatusIdle
		}
	}
	delete(c.rooms, room.ID)

	c.logger.Info("room dissolved",
		slog.String("room_id", string(room.ID)),
		slog.Int("member_count", len(room.Members)),
	)
	return events
}

// newRoomID derives an id from the creation time, suffixed on collision
func (c *Controller) newRoomID() model.RoomID {
	base := fmt.Sprintf("room_%d", c.clock.Now().UnixMilli())
	id := model.RoomID(base)
	for n := 2; ; n++ {
		if _, exists := c.rooms[id]; !exists {
			return id
		}
		id = model.RoomID(fmt.Sprintf("%s_%d", base, n))
	}
}
