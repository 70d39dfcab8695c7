package model

// EventName identifies a realtime event on the wire
type EventName string

const (
	// Client -> server commands
	CmdRequestIdentity     EventName = "request_identity"
	CmdCreateRoom          EventName = "create_room"
	CmdJoinRoom            EventName = "join_room"
	CmdLeaveRoom           EventName = "leave_room"
	CmdStartGame           EventName = "start_game"
	CmdAnswerSelected      EventName = "answer_selected"
	CmdRequestNextQuestion EventName = "request_next_question"
	CmdReturnToRoom        EventName = "return_to_room"
	CmdUpdateName          EventName = "update_name"
	CmdLeaveGame           EventName = "leave_game"
	CmdPreloadProgress     EventName = "preload_progress"

	// Server -> client events
	EventIdentityAssigned      EventName = "identity_assigned"
	EventGameStateUpdate       EventName = "game_state_update"
	EventPlayersUpdate         EventName = "players_update"
	EventRoomCreated           EventName = "room_created"
	EventRoomDissolved         EventName = "room_dissolved"
	EventRoomError             EventName = "room_error"
	EventGameStartError        EventName = "game_start_error"
	EventPreloadStarted        EventName = "preload_started"
	EventPreloadProgressUpdate EventName = "preload_progress_update"
	EventGameStarted           EventName = "game_started"
	EventNextQuestion          EventName = "next_question"
	EventAnswerResult          EventName = "answer_result"
	EventGameCompleted         EventName = "game_completed"
	EventAllPlayersCompleted   EventName = "all_players_completed"
	EventGameOver              EventName = "game_over"
	EventImageDownloaded       EventName = "image_downloaded"
	EventError                 EventName = "error"
)

// Event is one outbound message produced by a state transition.
// Broadcast events go to every live connection; otherwise only to Targets.
type Event struct {
	Name      EventName
	Payload   any
	Targets   []ConnectionID
	Broadcast bool
}

// Snapshot is the full authoritative state pushed to every client
type Snapshot struct {
	Players map[PlayerID]Player `json:"players"`
	Rooms   map[RoomID]Room     `json:"rooms"`
}

// RoomCreatedPayload acknowledges room creation to the creator
type RoomCreatedPayload struct {
	RoomID   RoomID `json:"roomId"`
	RoomName string `json:"roomName"`
}

// RoomDissolvedPayload notifies former members that their room is gone
type RoomDissolvedPayload struct {
	Message  string `json:"message"`
	RoomName string `json:"roomName"`
	RoomID   RoomID `json:"roomId"`
}

// MessagePayload carries a human-readable rejection reason
type MessagePayload struct {
	Message string `json:"message"`
}

// QuestionPayload delivers one question to a player
type QuestionPayload struct {
	Word   string   `json:"word"`
	Images []string `json:"images"`
	Index  int      `json:"index"`
	Total  int      `json:"total"`
}

// ProgressCounters summarises a player's position in the round
type ProgressCounters struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// AnswerResultPayload reveals whether the submitted answer was right
type AnswerResultPayload struct {
	IsCorrect bool             `json:"isCorrect"`
	Progress  ProgressCounters `json:"progress"`
}

// PreloadImage names one image clients should fetch before the round
type PreloadImage struct {
	Word  string `json:"word"`
	Image string `json:"image,omitempty"`
}

// PreloadStartedPayload lists the round's images
type PreloadStartedPayload struct {
	Images      []PreloadImage `json:"images"`
	TotalImages int            `json:"totalImages"`
}

// PreloadProgressPayload is relayed to room members as a player loads images
type PreloadProgressPayload struct {
	PlayerID     PlayerID `json:"playerId"`
	LoadedImages int      `json:"loadedImages"`
	TotalImages  int      `json:"totalImages"`
	Percent      int      `json:"percent"`
}

// GameOverPayload tells room members the round was aborted
type GameOverPayload struct {
	Reason string `json:"reason"`
	Player string `json:"player"`
}

// ErrorPayload reports a malformed client message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
