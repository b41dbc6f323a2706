// Package main is the entry point for the learning tracker server.
//
// MAIN PACKAGE IN GO:
// main() should stay minimal. Its job is to:
//  1. Read configuration (.env file, then environment variables)
//  2. Create dependencies (logger, database)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// WHY cmd/server/?
// The cmd/ directory holds executable entry points. This project has two:
// cmd/server (this one) and cmd/trackerctl (admin CLI).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/learning-tracker/internal/config"
	"github.com/sakif/learning-tracker/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is optional; real environment variables take precedence.
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg := config.Load()

	// === 2. LOGGING ===
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SHUTDOWN SIGNALS ===
	// ctx is cancelled on Ctrl+C or SIGTERM; server.Start drains and returns.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === 4. DATABASE ===
	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 5. SERVER ===
	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until ctx is cancelled; it closes the store on the way out.
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
