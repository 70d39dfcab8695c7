package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError writes err to stderr, including the API error code when there is one
func (o *Output) PrintError(err error) {
	if o.format != "json" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return
	}

	body := map[string]string{"message": err.Error()}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		body["message"] = apiErr.Message
		body["code"] = apiErr.Code
	}
	data, _ := json.Marshal(map[string]any{"error": body})
	fmt.Fprintln(os.Stderr, string(data))
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case StateResult:
		o.printState(v)
	case []Word:
		o.printWords(v)
	case WordsChanged:
		fmt.Println(v.Message)
		o.printWords(v.Words)
	case LoginResult:
		o.printLoginResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Players     int    `json:"players"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// Player response type (matches the state snapshot)
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	RoomID string `json:"roomId,omitempty"`
}

// Room response type
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HostID  string   `json:"hostId"`
	Members []string `json:"members"`
	Started bool     `json:"started"`
}

// StateResult is the lobby snapshot
type StateResult struct {
	Players map[string]Player `json:"players"`
	Rooms   map[string]Room   `json:"rooms"`
}

// Word response type
type Word struct {
	Word    string    `json:"word"`
	Image   string    `json:"image,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// WordsChanged is returned by word library mutations
type WordsChanged struct {
	Message string `json:"message"`
	Words   []Word `json:"words"`
}

// LoginResult response type
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Players: %d\n", h.Players)
	fmt.Printf("Rooms: %d\n", h.Rooms)
	fmt.Printf("Connections: %d\n", h.Connections)
}

func (o *Output) printState(s StateResult) {
	playerIDs := make([]string, 0, len(s.Players))
	for id := range s.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	fmt.Printf("Players (%d):\n", len(playerIDs))
	for _, id := range playerIDs {
		p := s.Players[id]
		room := ""
		if p.RoomID != "" {
			room = " in " + p.RoomID
		}
		fmt.Printf("  - %s (%s) - %s%s\n", p.Name, p.ID, p.Status, room)
	}

	roomIDs := make([]string, 0, len(s.Rooms))
	for id := range s.Rooms {
		roomIDs = append(roomIDs, id)
	}
	sort.Strings(roomIDs)

	fmt.Printf("Rooms (%d):\n", len(roomIDs))
	for _, id := range roomIDs {
		r := s.Rooms[id]
		state := "waiting"
		if r.Started {
			state = "playing"
		}
		fmt.Printf("  - %s (%s) - %s, %d members, host %s\n", r.Name, r.ID, state, len(r.Members), r.HostID)
	}
}

func (o *Output) printWords(words []Word) {
	fmt.Printf("Words (%d):\n", len(words))
	for _, w := range words {
		if w.Image != "" {
			fmt.Printf("  - %s [image]\n", w.Word)
		} else {
			fmt.Printf("  - %s\n", w.Word)
		}
	}
}

func (o *Output) printLoginResult(l LoginResult) {
	fmt.Println("Logged in")
	fmt.Printf("Expires: %s\n", l.ExpiresAt.Local().Format(time.RFC1123))
}
