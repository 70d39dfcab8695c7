package response

import (
	"time"

	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/services/auth"
)

// Health is the response for the health endpoint
type Health struct {
	Status      string `json:"status"`
	Players     int    `json:"players"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// WordsChanged is the response for word library mutations
type WordsChanged struct {
	Message string        `json:"message"`
	Words   []*model.Word `json:"words"`
}

// Login is the response for admin login
type Login struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginFromSession creates a Login response from an admin session
func LoginFromSession(s *auth.Session) Login {
	return Login{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}
}
