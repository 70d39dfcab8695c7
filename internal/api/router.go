package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordbattle/internal/api/handler"
	"github.com/mcoot/wordbattle/internal/api/middleware"
	"github.com/mcoot/wordbattle/internal/services/auth"
	"github.com/mcoot/wordbattle/internal/services/lobby"
	"github.com/mcoot/wordbattle/internal/services/words"
	"github.com/mcoot/wordbattle/internal/web/sse"
	"github.com/mcoot/wordbattle/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	WordService     *words.Service
	LobbyController *lobby.Controller
	RealtimeHub     *ws.Hub
	EventHub        *sse.Hub
	PublicURL       string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	wordsHandler := handler.NewWordsHandler(cfg.WordService)
	adminHandler := handler.NewAdminHandler(cfg.AuthService)
	stateHandler := handler.NewStateHandler(cfg.LobbyController, cfg.RealtimeHub)
	roomsHandler := handler.NewRoomsHandler(cfg.LobbyController, cfg.PublicURL, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.EventHub)
	realtimeHandler := ws.NewHandler(cfg.RealtimeHub, cfg.LobbyController, cfg.Logger)

	// Create middleware
	adminMiddleware := middleware.AdminAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Realtime socket; the client recovers its own panics per message
	r.Handle("/ws", loggingMiddleware(realtimeHandler)).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	api.HandleFunc("/health", stateHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/state", stateHandler.State).Methods(http.MethodGet)
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{roomId}/qr", roomsHandler.QR).Methods(http.MethodGet)

	// Word library reads are public, mutations are admin only
	api.HandleFunc("/words", wordsHandler.List).Methods(http.MethodGet)
	adminWords := api.PathPrefix("/words").Subrouter()
	adminWords.Use(adminMiddleware)
	adminWords.HandleFunc("", wordsHandler.Add).Methods(http.MethodPost)
	adminWords.HandleFunc("/{word}", wordsHandler.Delete).Methods(http.MethodDelete)

	// Admin session routes
	api.HandleFunc("/admin/login", adminHandler.Login).Methods(http.MethodPost)
	adminSession := api.PathPrefix("/admin").Subrouter()
	adminSession.Use(adminMiddleware)
	adminSession.HandleFunc("/logout", adminHandler.Logout).Methods(http.MethodPost)

	return r
}
