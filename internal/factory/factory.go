package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
	"github.com/mcoot/wordbattle/internal/dependencies/random"
	"github.com/mcoot/wordbattle/internal/services/auth"
	"github.com/mcoot/wordbattle/internal/services/images"
	"github.com/mcoot/wordbattle/internal/services/lobby"
	"github.com/mcoot/wordbattle/internal/services/quiz"
	"github.com/mcoot/wordbattle/internal/services/words"
	"github.com/mcoot/wordbattle/internal/storage"
	"github.com/mcoot/wordbattle/internal/storage/memory"
	redisstorage "github.com/mcoot/wordbattle/internal/storage/redis"
	"github.com/mcoot/wordbattle/internal/web/sse"
	"github.com/mcoot/wordbattle/internal/web/ws"
)

// closeWaitTimeout bounds how long Close waits for image resolutions
const closeWaitTimeout = 5 * time.Second

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	WordService     *words.Service
	QuizEngine      *quiz.Engine
	LobbyController *lobby.Controller
	AuthService     *auth.Service

	// Transports
	RealtimeHub *ws.Hub
	EventHub    *sse.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the admin gate (optional)
	// If SessionDuration is zero, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// LobbyConfig holds the reconnect grace period (optional)
	LobbyConfig lobby.Config
	// QuestionCount is the round size; zero means quiz.DefaultRoundSize
	QuestionCount int
	// ImageConfig configures the word image fetcher (optional)
	// An empty SearchURL disables image fetching
	ImageConfig images.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}

	fetcher := images.New(cfg.ImageConfig, logger)

	return newWithDependencies(store, fetcher, clk, rnd, authCfg, cfg.LobbyConfig, cfg.QuestionCount, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	fetcher words.ImageFetcher,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	lobbyCfg lobby.Config,
	questionCount int,
	logger *slog.Logger,
) (*App, error) {
	authService, err := auth.New(clk, rnd, authCfg, logger)
	if err != nil {
		return nil, err
	}

	// Create services
	wordService := words.New(store, fetcher, clk, logger)
	quizEngine := quiz.New(clk, rnd, questionCount)
	lobbyController := lobby.NewController(quizEngine, wordService, clk, lobbyCfg, logger)

	// Create transports; broadcasts on the socket are mirrored to observers
	eventHub := sse.NewHub(logger)
	realtimeHub := ws.NewHub(eventHub, logger)

	lobbyController.SetPublisher(realtimeHub)
	wordService.SetImageNotifier(lobbyController.NotifyImage)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Logger:          logger,
		WordService:     wordService,
		QuizEngine:      quizEngine,
		LobbyController: lobbyController,
		AuthService:     authService,
		RealtimeHub:     realtimeHub,
		EventHub:        eventHub,
	}, nil
}

// Start runs the transport hubs' event loops
func (a *App) Start() {
	go a.EventHub.Run()
	go a.RealtimeHub.Run()
}

// Close releases everything in shutdown order: sockets, then observer
// streams, then grace timers, then in-flight image resolutions, then storage.
func (a *App) Close() {
	a.RealtimeHub.Close()
	a.EventHub.Close()
	a.LobbyController.Close()

	done := make(chan struct{})
	go func() {
		a.WordService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeWaitTimeout):
		a.Logger.Warn("image resolutions still running at shutdown")
	}
	a.WordService.Close()

	if closer, ok := a.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}
}
