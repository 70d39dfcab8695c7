package auth

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
	"github.com/mcoot/wordbattle/internal/dependencies/random"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrAdminDisabled      = errors.New("admin access is disabled")
)

const (
	tokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Session represents an authenticated admin session
type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	// AdminPassword gates word library mutations. Empty disables admin access.
	AdminPassword   string
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 12 * time.Hour,
	}
}

// Service checks the static admin password and manages admin sessions
type Service struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	passwordHash    []byte
	sessionDuration time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a new auth Service, hashing the configured admin password
func New(clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}

	s := &Service{
		clock:           clock,
		random:          random,
		logger:          logger.With(slog.String("component", "auth")),
		sessionDuration: cfg.SessionDuration,
		sessions:        make(map[string]*Session),
	}

	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.passwordHash = hash
	}
	return s, nil
}

// Enabled reports whether an admin password is configured
func (s *Service) Enabled() bool {
	return len(s.passwordHash) > 0
}

// CheckPassword compares a candidate against the admin password
func (s *Service) CheckPassword(password string) error {
	if !s.Enabled() {
		return ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the admin password and creates a session
func (s *Service) Login(password string) (*Session, error) {
	if err := s.CheckPassword(password); err != nil {
		s.logger.Warn("admin login rejected", slog.String("reason", err.Error()))
		return nil, err
	}

	now := s.clock.Now()
	session := &Session{
		Token:     s.random.String(tokenLength, tokenAlphabet),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	pruned := s.CleanExpiredSessions()

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	s.logger.Info("admin session created",
		slog.Time("expires_at", session.ExpiresAt),
		slog.Int("expired_pruned", pruned))
	return session, nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// Logout removes a session
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CleanExpiredSessions drops expired sessions and returns how many went. Login calls it
// so abandoned sessions do not accumulate.
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
