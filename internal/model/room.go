package model

import (
	"slices"
	"time"
)

// RoomID uniquely identifies a room
type RoomID string

// Room is a host-owned group of players sharing one quiz session lifecycle
type Room struct {
	ID      RoomID     `json:"id"`
	Name    string     `json:"name"`
	HostID  PlayerID   `json:"hostId"`
	Members []PlayerID `json:"members"` // Join order
	Started bool       `json:"started"`

	// UsedWordPool holds target words already asked in this room across rounds
	UsedWordPool []string `json:"-"`
	// Session is non-nil exactly while Started is true
	Session   *Session  `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether the player is in the room
func (r *Room) HasMember(id PlayerID) bool {
	return slices.Contains(r.Members, id)
}

// RemoveMember drops a player from the member list, keeping join order
func (r *Room) RemoveMember(id PlayerID) {
	r.Members = slices.DeleteFunc(r.Members, func(m PlayerID) bool { return m == id })
}

// IsHost reports whether the player hosts the room
func (r *Room) IsHost(id PlayerID) bool {
	return r.HostID == id
}
