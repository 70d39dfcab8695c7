package lobby

import (
	"log/slog"

	"github.com/mcoot/wordbattle/internal/model"
)

// Disconnect handles a closed connection. A host's room is dissolved at once;
// anyone else keeps their place and is evicted only if they stay offline
// for the whole grace period.
func (c *Controller) Disconnect(conn model.ConnectionID) {
	c.apply(func() []model.Event {
		return c.disconnect(conn)
	})
}

func (c *Controller) disconnect(conn model.ConnectionID) []model.Event {
	id, ok := c.bindings[conn]
	if !ok {
		return nil
	}
	delete(c.bindings, conn)

	p, ok := c.players[id]
	if !ok || p.Connection != conn {
		return nil
	}
	p.Connection = ""

	var events []model.Event
	if room, ok := c.rooms[p.RoomID]; ok && room.IsHost(p.ID) {
		events = c.dissolveRoom(room, p)
	}

	p.ResumeStatus = p.Status
	p.Status = model.StatusOffline
	c.scheduleGrace(p.ID)

	c.logger.Info("player disconnected",
		slog.String("player_id", string(p.ID)),
		slog.String("resume_status", string(p.ResumeStatus)),
	)
	return append(events, c.stateEvent())
}

// scheduleGrace arms the single eviction timer for an offline player
func (c *Controller) scheduleGrace(id model.PlayerID) {
	c.cancelGrace(id)
	g := &graceTimer{}
	g.timer = c.clock.AfterFunc(c.gracePeriod, func() {
		c.apply(func() []model.Event {
			return c.evict(id, g)
		})
	})
	c.grace[id] = g
}

func (c *Controller) cancelGrace(id model.PlayerID) {
	if g, ok := c.grace[id]; ok {
		g.timer.Stop()
		delete(c.grace, id)
	}
}

// evict deletes a player whose grace period expired without a reconnect
func (c *Controller) evict(id model.PlayerID, g *graceTimer) []model.Event {
	// A stale timer that fired while being replaced or cancelled
	if c.grace[id] != g {
		return nil
	}
	delete(c.grace, id)

	p, ok := c.players[id]
	if !ok || p.Online() {
		return nil
	}

	var events []model.Event
	if room, ok := c.rooms[p.RoomID]; ok {
		room.RemoveMember(p.ID)
		c.engine.RemovePlayer(room, p.ID)
		if len(room.Members) == 0 {
			events = c.dissolveRoom(room, nil)
		} else {
			events = c.completionEvents(room)
		}
	}
	delete(c.players, id)

	c.logger.Info("player evicted", slog.String("player_id", string(id)))
	return append(events, c.stateEvent())
}
