package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"werewolves/internal/app"
	"werewolves/internal/archive"
	"werewolves/internal/config"
	httpTransport "werewolves/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting werewolves game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	hubOpts := []app.HubOption{
		app.WithRoomCodeLength(cfg.Game.RoomCodeLength),
		app.WithRoomCodeAttempts(cfg.Game.RoomCodeAttempts),
		app.WithStaleGameTimeout(cfg.Game.StaleGameTimeout),
	}

	// Optional round archive
	var history httpTransport.RoundHistory
	if cfg.Archive.DSN != "" {
		store, err := archive.Open(context.Background(), cfg.Archive.DSN)
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		hubOpts = append(hubOpts, app.WithRoundRecorder(store))
		history = store
		logger.Info("round archive enabled")
	}

	// Create game hub
	hub := app.NewGameHub(logger, hubOpts...)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, history, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
