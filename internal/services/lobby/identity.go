package lobby

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/wordbattle/internal/model"
)

// MaxNameLength is the maximum display name length in runes
const MaxNameLength = 32

// RequestIdentity binds conn to a player. A saved id that still refers to a
// known player is reused; anything else mints a fresh player<N> identity.
func (c *Controller) RequestIdentity(conn model.ConnectionID, savedID model.PlayerID, savedName string) {
	c.apply(func() []model.Event {
		return c.resolveIdentity(conn, savedID, savedName)
	})
}

func (c *Controller) resolveIdentity(conn model.ConnectionID, savedID model.PlayerID, savedName string) []model.Event {
	var events []model.Event

	// A connection re-identifying as someone else releases its previous player
	if prev, ok := c.bindings[conn]; ok && prev != savedID {
		events = append(events, c.disconnect(conn)...)
	}

	p, ok := c.players[savedID]
	if savedID != "" && ok {
		if p.Online() && p.Connection != conn {
			delete(c.bindings, p.Connection)
		}
		c.cancelGrace(p.ID)
		p.Connection = conn
		if p.Status == model.StatusOffline {
			p.Status = c.resumeStatus(p)
		}
		p.ResumeStatus = ""
		c.logger.Info("player reconnected",
			slog.String("player_id", string(p.ID)),
			slog.String("status", string(p.Status)),
		)
	} else {
		c.counter++
		id := model.PlayerID(fmt.Sprintf("player%d", c.counter))
		name, err := normalizeName(savedName)
		if err != nil {
			name = string(id)
		}
		p = &model.Player{
			ID:         id,
			Name:       name,
			Status:     model.StatusIdle,
			Connection: conn,
			CreatedAt:  c.clock.Now(),
		}
		c.players[id] = p
		c.logger.Info("player created", slog.String("player_id", string(id)))
	}
	c.bindings[conn] = p.ID

	return append(events,
		toConn(conn, model.EventIdentityAssigned, p.ID),
		c.playersEvent(),
		c.stateEvent(),
	)
}

// resumeStatus decides the status of a returning offline player. Membership
// survives a disconnect, so the prior status is restored while the player is
// still in that room; otherwise they land back in the lobby.
func (c *Controller) resumeStatus(p *model.Player) model.PlayerStatus {
	if p.InRoom() {
		if room, ok := c.rooms[p.RoomID]; ok && room.HasMember(p.ID) && p.ResumeStatus != "" {
			return p.ResumeStatus
		}
		p.RoomID = ""
	}
	return model.StatusIdle
}

// UpdateName renames the player bound to conn
func (c *Controller) UpdateName(conn model.ConnectionID, playerID model.PlayerID, newName string) {
	c.apply(func() []model.Event {
		p := c.owned(conn, playerID)
		if p == nil {
			return nil
		}
		name, err := normalizeName(newName)
		if err != nil {
			return nil
		}
		p.Name = name
		return []model.Event{c.playersEvent(), c.stateEvent()}
	})
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", model.ErrInvalidName
	}
	return name, nil
}
