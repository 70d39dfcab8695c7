package model

import (
	"encoding/json"
	"time"
)

// PlayerID uniquely identifies a player for the lifetime of the process
type PlayerID string

// ConnectionID identifies one live transport connection
type ConnectionID string

// PlayerStatus is a player's position in the lobby/game state machine
type PlayerStatus string

const (
	StatusIdle     PlayerStatus = "idle"      // In the lobby, not in a room
	StatusInRoom   PlayerStatus = "in_room"   // In a room, ready for the next round
	StatusInGame   PlayerStatus = "in_game"   // Answering questions
	StatusInResult PlayerStatus = "in_result" // Finished, viewing results
	StatusOffline  PlayerStatus = "offline"   // Disconnected, within the grace period
)

// Player represents a connected (or recently connected) participant
type Player struct {
	ID     PlayerID     `json:"id"`
	Name   string       `json:"name"`
	Status PlayerStatus `json:"status"`
	RoomID RoomID       `json:"roomId"`

	// Connection is the live transport connection, empty while offline
	Connection ConnectionID `json:"-"`
	// ResumeStatus is the status held before going offline
	ResumeStatus PlayerStatus `json:"-"`
	CreatedAt    time.Time    `json:"-"`
}

// Online reports whether the player has a live connection
func (p *Player) Online() bool {
	return p.Connection != ""
}

// InRoom reports whether the player currently occupies a room
func (p *Player) InRoom() bool {
	return p.RoomID != ""
}

// MarshalJSON always writes roomId, as null while the player has no room
func (p Player) MarshalJSON() ([]byte, error) {
	type wire Player
	out := struct {
		wire
		RoomID *RoomID `json:"roomId"`
	}{wire: wire(p)}
	if p.RoomID != "" {
		id := p.RoomID
		out.RoomID = &id
	}
	return json.Marshal(out)
}
