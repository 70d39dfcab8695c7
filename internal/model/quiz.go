package model

import "time"

// OptionsPerQuestion is the number of choices shown for each question
const OptionsPerQuestion = 4

// Question is one target word plus its shuffled options (target included)
type Question struct {
	Word    string   `json:"word"`
	Options []string `json:"options"`
}

// Progress tracks one player's position through a session's questions
type Progress struct {
	CurrentIndex int
	CorrectCount int
	// Answered is set once the question at CurrentIndex has been answered
	Answered  bool
	StartTime time.Time
	EndTime   *time.Time
}

// Finished reports whether the player has exhausted the question sequence
func (p *Progress) Finished() bool {
	return p.EndTime != nil
}

// Session is the active quiz round of a room
type Session struct {
	Questions []Question
	Progress  map[PlayerID]*Progress
	StartedAt time.Time
}

// Tally is a player's personal result for a finished round
type Tally struct {
	TotalTime      int64 `json:"totalTime"` // Milliseconds
	Accuracy       int   `json:"accuracy"`  // Percentage, 0-100
	CorrectAnswers int   `json:"correctAnswers"`
	TotalQuestions int   `json:"totalQuestions"`
}

// PlayerResult is one row of the room-wide results table
type PlayerResult struct {
	Name           string `json:"name"`
	TotalTime      int64  `json:"totalTime"`
	Accuracy       int    `json:"accuracy"`
	CorrectAnswers int    `json:"correctAnswers"`
}
