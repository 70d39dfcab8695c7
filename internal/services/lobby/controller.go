package lobby

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/services/quiz"
)

// DefaultGracePeriod is how long an offline player is kept before eviction
const DefaultGracePeriod = 30 * time.Second

// Publisher delivers outbound events to connections
type Publisher interface {
	Publish(events []model.Event)
}

// WordSource supplies the word library to the quiz engine
type WordSource interface {
	Words(ctx context.Context) ([]string, error)
	Images(ctx context.Context) (map[string]string, error)
}

// Config holds configuration for the lobby controller
type Config struct {
	GracePeriod time.Duration
}

// DefaultConfig returns default lobby configuration
func DefaultConfig() Config {
	return Config{GracePeriod: DefaultGracePeriod}
}

// Controller owns the authoritative players/rooms state. Every command runs
// to completion under one mutex and produces a list of events, which are
// published in mutation order after the state lock is released.
type Controller struct {
	mu       sync.Mutex
	players  map[model.PlayerID]*model.Player
	rooms    map[model.RoomID]*model.Room
	bindings map[model.ConnectionID]model.PlayerID
	grace    map[model.PlayerID]*graceTimer
	counter  int

	// pubMu keeps publish order equal to mutation order
	pubMu     sync.Mutex
	publisher Publisher

	engine      *quiz.Engine
	words       WordSource
	clock       clock.Clock
	gracePeriod time.Duration
	logger      *slog.Logger
}

type graceTimer struct {
	timer clock.Timer
}

type nopPublisher struct{}

func (nopPublisher) Publish([]model.Event) {}

// NewController creates a new lobby Controller
func NewController(
	engine *quiz.Engine,
	words WordSource,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Controller{
		players:     make(map[model.PlayerID]*model.Player),
		rooms:       make(map[model.RoomID]*model.Room),
		bindings:    make(map[model.ConnectionID]model.PlayerID),
		grace:       make(map[model.PlayerID]*graceTimer),
		publisher:   nopPublisher{},
		engine:      engine,
		words:       words,
		clock:       clock,
		gracePeriod: cfg.GracePeriod,
		logger:      logger.With(slog.String("component", "lobby")),
	}
}

// SetPublisher sets where outbound events are delivered
func (c *Controller) SetPublisher(p Publisher) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	c.publisher = p
}

// apply runs fn under the state lock and publishes the events it returns
func (c *Controller) apply(fn func() []model.Event) {
	c.mu.Lock()
	events := fn()
	c.pubMu.Lock()
	c.mu.Unlock()
	defer c.pubMu.Unlock()

	if len(events) > 0 {
		c.publisher.Publish(events)
	}
}

// Snapshot returns a deep copy of the current state
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Stats returns the number of known players and open rooms
func (c *Controller) Stats() (players, rooms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.players), len(c.rooms)
}

// Player returns a copy of a player record
func (c *Controller) Player(id model.PlayerID) (model.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *p, true
}

// Room returns a copy of a room record, without its session
func (c *Controller) Room(id model.RoomID) (model.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[id]
	if !ok {
		return model.Room{}, false
	}
	return copyRoom(r), true
}

// Connect sends the current snapshot to a freshly opened connection
func (c *Controller) Connect(conn model.ConnectionID) {
	c.apply(func() []model.Event {
		return []model.Event{{
			Name:    model.EventGameStateUpdate,
			Payload: c.snapshot(),
			Targets: []model.ConnectionID{conn},
		}}
	})
}

// NotifyImage broadcasts the outcome of an asynchronous image resolution
func (c *Controller) NotifyImage(result model.ImageResult) {
	c.apply(func() []model.Event {
		return []model.Event{{
			Name:      model.EventImageDownloaded,
			Payload:   result,
			Broadcast: true,
		}}
	})
}

// Close cancels every pending grace timer
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, g := range c.grace {
		g.timer.Stop()
		delete(c.grace, id)
	}
}

// owned returns the player bound to conn, provided the claimed id (if any) matches it
func (c *Controller) owned(conn model.ConnectionID, claimed model.PlayerID) *model.Player {
	id, ok := c.bindings[conn]
	if !ok {
		return nil
	}
	if claimed != "" && claimed != id {
		c.logger.Debug("ignoring command for unbound player",
			slog.String("connection_id", string(conn)),
			slog.String("player_id", string(claimed)),
		)
		return nil
	}
	return c.players[id]
}

// memberRoom returns the player's room if it is roomID (or roomID is empty)
func (c *Controller) memberRoom(p *model.Player, roomID model.RoomID) *model.Room {
	if !p.InRoom() || (roomID != "" && roomID != p.RoomID) {
		return nil
	}
	return c.rooms[p.RoomID]
}

func (c *Controller) snapshot() model.Snapshot {
	snap := model.Snapshot{
		Players: make(map[model.PlayerID]model.Player, len(c.players)),
		Rooms:   make(map[model.RoomID]model.Room, len(c.rooms)),
	}
	for id, p := range c.players {
		snap.Players[id] = *p
	}
	for id, r := range c.rooms {
		snap.Rooms[id] = copyRoom(r)
	}
	return snap
}

func (c *Controller) playerMap() map[model.PlayerID]model.Player {
	players := make(map[model.PlayerID]model.Player, len(c.players))
	for id, p := range c.players {
		players[id] = *p
	}
	return players
}

func copyRoom(r *model.Room) model.Room {
	room := *r
	room.Members = slices.Clone(r.Members)
	room.UsedWordPool = slices.Clone(r.UsedWordPool)
	room.Session = nil
	return room
}

func (c *Controller) stateEvent() model.Event {
	return model.Event{
		Name:      model.EventGameStateUpdate,
		Payload:   c.snapshot(),
		Broadcast: true,
	}
}

func (c *Controller) playersEvent() model.Event {
	return model.Event{
		Name:      model.EventPlayersUpdate,
		Payload:   c.playerMap(),
		Broadcast: true,
	}
}

// connections returns the live connections of the given players
func (c *Controller) connections(ids []model.PlayerID) []model.ConnectionID {
	var conns []model.ConnectionID
	for _, id := range ids {
		if p, ok := c.players[id]; ok && p.Online() {
			conns = append(conns, p.Connection)
		}
	}
	return conns
}

func toConn(conn model.ConnectionID, name model.EventName, payload any) model.Event {
	return model.Event{
		Name:    name,
		Payload: payload,
		Targets: []model.ConnectionID{conn},
	}
}
