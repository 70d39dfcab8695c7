package ws

import (
	"encoding/json"

	"github.com/mcoot/wordbattle/internal/model"
)

// Envelope is the frame format in both directions
type Envelope struct {
	Event model.EventName `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound mirrors Envelope with an unencoded payload
type outbound struct {
	Event model.EventName `json:"event"`
	Data  any             `json:"data"`
}

// Client message payloads

// IdentityRequest is the payload for request_identity
type IdentityRequest struct {
	SavedID   model.PlayerID `json:"savedId"`
	SavedName string         `json:"savedName"`
}

// decodeIdentity never fails: each field is kept only if it is a string, and
// anything unreadable falls back to an empty request, which mints a new identity
func decodeIdentity(data json.RawMessage) IdentityRequest {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return IdentityRequest{}
	}

	var req IdentityRequest
	if raw, ok := fields["savedId"]; ok {
		var id string
		if json.Unmarshal(raw, &id) == nil {
			req.SavedID = model.PlayerID(id)
		}
	}
	if raw, ok := fields["savedName"]; ok {
		_ = json.Unmarshal(raw, &req.SavedName)
	}
	return req
}

// RoomCommand is the payload shared by commands addressed to a room
type RoomCommand struct {
	PlayerID model.PlayerID `json:"playerId"`
	RoomID   model.RoomID   `json:"roomId"`
}

// AnswerCommand is the payload for answer_selected
type AnswerCommand struct {
	PlayerID      model.PlayerID `json:"playerId"`
	RoomID        model.RoomID   `json:"roomId"`
	SelectedImage string         `json:"selectedImage"`
}

// NameCommand is the payload for update_name
type NameCommand struct {
	PlayerID model.PlayerID `json:"playerId"`
	NewName  string         `json:"newName"`
}

// PreloadCommand is the payload for preload_progress
type PreloadCommand struct {
	PlayerID     model.PlayerID `json:"playerId"`
	RoomID       model.RoomID   `json:"roomId"`
	LoadedImages int            `json:"loadedImages"`
	TotalImages  int            `json:"totalImages"`
	Percent      int            `json:"percent"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownEvent   = "UNKNOWN_EVENT"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// encode renders an event as a wire frame
func encode(name model.EventName, payload any) ([]byte, error) {
	return json.Marshal(outbound{Event: name, Data: payload})
}

// decodePlayerID accepts either a bare "playerId" string or {"playerId": ...}
func decodePlayerID(data json.RawMessage) (model.PlayerID, error) {
	var id model.PlayerID
	if err := json.Unmarshal(data, &id); err == nil {
		return id, nil
	}
	var cmd RoomCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return "", err
	}
	return cmd.PlayerID, nil
}
