// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/framewright/tenon/internal/api"
	"github.com/framewright/tenon/internal/frameservice"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/joint/builtin"
	"github.com/framewright/tenon/internal/mcpserver"
	"github.com/framewright/tenon/internal/member"
	"github.com/framewright/tenon/internal/reftable"
	"github.com/framewright/tenon/internal/signature"
	"github.com/framewright/tenon/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if cfg.App.Mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", cfg.App.Mode),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("tables_dir", cfg.Tables.Dir),
		slog.String("sqlite_path", cfg.Tables.SQLitePath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the reference-table directory exists.
	if err := os.MkdirAll(cfg.Tables.Dir, 0o755); err != nil {
		return fmt.Errorf("create tables dir: %w", err)
	}

	// Initialize the reference-table database.
	db, err := reftable.Open(cfg.Tables.SQLitePath)
	if err != nil {
		return fmt.Errorf("init reference tables: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := reftable.Sync(db, cfg.Tables.Dir, logger); err != nil {
		logger.Warn("initial table sync failed", slog.String("error", err.Error()))
	}

	// Register the built-in joint families.
	registry := joint.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return fmt.Errorf("register joint families: %w", err)
	}

	// Signature engine from config.
	engine := signature.NewEngine()
	if cfg.Signature.LengthQuantumMM > 0 {
		engine.LengthQuantum = cfg.Signature.LengthQuantumMM
	}
	if cfg.Signature.AngleQuantumDeg > 0 {
		engine.AngleQuantum = cfg.Signature.AngleQuantumDeg
	}
	if len(cfg.Signature.SymmetricRoles) > 0 {
		engine.SymmetricRoles = make(map[member.Role]bool, len(cfg.Signature.SymmetricRoles))
		for _, r := range cfg.Signature.SymmetricRoles {
			engine.SymmetricRoles[member.Role(r)] = true
		}
	}

	svc := frameservice.NewService(registry, db, engine)
	svc.SetDefaultTolerance(cfg.Geometry.ToleranceMM)

	if cfg.App.Mode == ModeMCP {
		return runMCP(ctx, cfg, svc, db, logger)
	}
	return runServe(ctx, cfg, svc, db, logger)
}

// runServe runs the HTTP API with the reference-table watcher.
func runServe(ctx context.Context, cfg *Config, svc *frameservice.Service, db reftable.Tables, logger *slog.Logger) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the table watcher with the SSE reload callback.
	g.Go(func() error {
		if err := reftable.Watch(gCtx, db, cfg.Tables.Dir, logger, func() {
			broker.PublishTablesReloaded()
		}); err != nil {
			logger.Warn("table watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// runMCP runs the MCP server on stdio. The table watcher keeps lookups
// fresh while the session is open.
func runMCP(ctx context.Context, cfg *Config, svc *frameservice.Service, db reftable.Tables, logger *slog.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := reftable.Watch(gCtx, db, cfg.Tables.Dir, logger, nil); err != nil {
			logger.Warn("table watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc).ServeStdio()
	})

	return g.Wait()
}
