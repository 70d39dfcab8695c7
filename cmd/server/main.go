package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcoot/wordbattle/internal/api"
	"github.com/mcoot/wordbattle/internal/config"
	"github.com/mcoot/wordbattle/internal/factory"
	"github.com/mcoot/wordbattle/internal/services/auth"
	"github.com/mcoot/wordbattle/internal/services/images"
	"github.com/mcoot/wordbattle/internal/services/lobby"
	redisstorage "github.com/mcoot/wordbattle/internal/storage/redis"
)

func main() {
	// Optional .env for local development; must load before flags read the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", slog.String("error", err.Error()))
	}

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, run).Execute())
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger := config.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	// Build factory config from flags
	factoryCfg := factory.Config{
		AuthConfig: auth.Config{
			AdminPassword:   cfg.AdminPassword,
			SessionDuration: auth.DefaultConfig().SessionDuration,
		},
		LobbyConfig:   lobby.Config{GracePeriod: cfg.GracePeriod},
		QuestionCount: cfg.QuestionCount,
		ImageConfig: images.Config{
			SearchURL: cfg.ImageSearchURL,
			Timeout:   cfg.ImageTimeout,
		},
		Logger:      logger,
		StorageType: cfg.Storage,
	}

	// Configure Redis if storage type is redis
	if cfg.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}
	app.Start()

	// Seed an empty word library
	if cfg.WordsFile != "" {
		if _, err := app.WordService.Seed(cmd.Context(), cfg.WordsFile); err != nil {
			logger.Warn("could not seed word library",
				slog.String("path", cfg.WordsFile),
				slog.String("error", err.Error()),
			)
		}
	}
	if !app.AuthService.Enabled() {
		logger.Warn("no admin password configured, word library changes are disabled")
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		WordService:     app.WordService,
		LobbyController: app.LobbyController,
		RealtimeHub:     app.RealtimeHub,
		EventHub:        app.EventHub,
		PublicURL:       cfg.PublicURL,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Bind
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("public_url", cfg.PublicURL),
		slog.String("storage", cfg.Storage),
	)

	// Wait for shutdown or error
	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		runErr = server.Shutdown(context.Background())
	}

	app.Close()
	logger.Info("server stopped")
	return runErr
}
