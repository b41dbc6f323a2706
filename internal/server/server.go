// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It decides:
//   - which URL patterns map to which handler functions
//   - what middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	config.Config → OpenStore → repository.Store
//	server.New(cfg, store, logger) creates:
//	  TokenService, Curriculum → UserService, TaskService → handlers
//
// All dependencies are wired here in New/setupRoutes (the composition root)
// instead of being scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/config"
	"github.com/sakif/learning-tracker/internal/curriculum"
	"github.com/sakif/learning-tracker/internal/handler"
	"github.com/sakif/learning-tracker/internal/middleware"
	"github.com/sakif/learning-tracker/internal/progress"
	"github.com/sakif/learning-tracker/internal/repository"
	pgRepo "github.com/sakif/learning-tracker/internal/repository/postgres"
	sqliteRepo "github.com/sakif/learning-tracker/internal/repository/sqlite"
	"github.com/sakif/learning-tracker/internal/service"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has
// drained, so SQLite can checkpoint its WAL and Postgres connections are
// returned cleanly.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// OpenStore opens the database selected by cfg.DBDriver and runs migrations.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo and repository/postgres as
// pgRepo so they don't read like the driver packages of the same name.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := pgRepo.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.DriverSQLite, "":
		if cfg.DBPath != ":memory:" {
			// Like `mkdir -p`: create data/ on first run.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// New wires services and handlers over an already opened store.
// The caller keeps ownership of store if New fails.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz               → liveness (JSON)
//	GET    /static/*              → CSS, JS
//	GET    /                      → dashboard or sign-in page (HTML)
//	GET    /api/curriculum        → the 21 curriculum days (JSON, public)
//	GET    /api/tasks             → list the caller's tasks          [auth]
//	POST   /api/tasks             → add a task                       [auth]
//	PATCH  /api/tasks/{id}        → set or toggle completion         [auth]
//	DELETE /api/tasks/{id}        → remove a task                    [auth]
//	GET    /api/progress          → progress summary                 [auth]
//	GET    /api/me                → the caller's user record         [auth]
//	GET    /auth/github/login     → start GitHub OAuth (if configured)
//	GET    /auth/github/callback  → finish GitHub OAuth (if configured)
//	GET    /auth/dev/login        → local sign-in (AUTH_DEV_LOGIN only)
//	POST   /auth/logout           → clear the session cookie
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger and error responses can reference it.
// Recoverer sits inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Services ===
	cur, err := curriculum.Default(s.config.CurriculumRepoURL)
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}
	userService := service.NewUserService(s.store, s.tokens, s.logger)
	taskService := service.NewTaskService(s.store, s.store, cur, progress.Default(), s.logger)

	// === Handlers ===
	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	authHandler := handler.NewAuthHandler(github, userService, s.tokens.TTL(), s.config.CookieSecure, s.logger)
	dashboardHandler, err := handler.NewDashboardHandler(
		s.config.TemplateDir, taskService, userService,
		github != nil, s.config.DevLogin, s.logger,
	)
	if err != nil {
		return fmt.Errorf("creating dashboard handler: %w", err)
	}

	// === Public routes ===
	s.router.Get("/healthz", handler.HandleHealth)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.With(auth.OptionalAuth(s.tokens)).Get("/", dashboardHandler.HandleDashboard)

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/curriculum", taskHandler.HandleCurriculum)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))

			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Patch("/tasks/{id}", taskHandler.HandleUpdate)
			r.Delete("/tasks/{id}", taskHandler.HandleDelete)
			r.Get("/progress", taskHandler.HandleProgress)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	// === Auth ===
	s.router.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Warn("GitHub OAuth not configured, /auth/github routes disabled")
		}
		if s.config.DevLogin {
			s.logger.Warn("AUTH_DEV_LOGIN is on, anyone can sign in as any dev user")
			r.Get("/dev/login", authHandler.HandleDevLogin)
		}
		r.Post("/logout", authHandler.HandleLogout)
	})

	return nil
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to ShutdownTimeout for in-flight requests
//  3. Close the store
//
// main passes a context from signal.NotifyContext, so Ctrl+C and SIGTERM
// both end up here.
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("db_driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
