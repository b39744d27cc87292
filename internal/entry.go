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

	"github.com/starford/almanac/internal/api"
	"github.com/starford/almanac/internal/inbox"
	"github.com/starford/almanac/internal/mcpserver"
	"github.com/starford/almanac/internal/records"
	"github.com/starford/almanac/internal/sse"
	"github.com/starford/almanac/internal/storage"
	"github.com/starford/almanac/internal/store"
)

// runtime holds the opened collaborators shared by every entry point.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	svc    *records.Service
	files  storage.Provider
}

func (rt *runtime) Close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close database failed", slog.String("error", err.Error()))
	}
}

// setup applies opts, installs the logger and opens the database, the
// attachment backend and the record service.
func setup(ctx context.Context, opts []Option, svcOpts ...records.Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("attachments_backend", cfg.Attachments.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	files, err := openAttachments(ctx, cfg.Attachments)
	if err != nil {
		return nil, fmt.Errorf("init attachments: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	svcOpts = append(svcOpts, records.WithLogger(logger))
	if app.now != nil {
		svcOpts = append(svcOpts, records.WithClock(app.now))
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		svc:    records.NewService(db, svcOpts...),
		files:  files,
	}, nil
}

func openAttachments(ctx context.Context, c AttachmentsConfig) (storage.Provider, error) {
	if c.Backend == BackendS3 {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:  c.S3.Endpoint,
			Bucket:    c.S3.Bucket,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			Secure:    c.S3.Secure,
			Prefix:    c.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	fs, err := storage.NewFS(c.Path)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := setup(ctx, opts, records.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger

	var limiter *api.RateLimiter
	if cfg.App.RateLimit.Enabled() {
		limiter = api.NewRateLimiter(cfg.App.RateLimit.RPS, cfg.App.RateLimit.Burst)
	}

	apiRouter := api.NewRouter(api.Deps{
		Service: rt.svc,
		Files:   rt.files,
		Broker:  broker,
		Limiter: limiter,
		Auth: api.Auth{
			Mode:      cfg.Auth.Mode,
			Token:     cfg.Auth.Token,
			JWTSecret: cfg.Auth.JWTSecret,
			UserID:    cfg.Auth.UserID,
		},
	})

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Attachments are served publicly so note bodies can embed them.
	r.Get("/attachments/{filename}", api.NewAttachmentHandler(rt.files).ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Inbox watcher.
	if cfg.Inbox.Enabled {
		if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
		watcher := inbox.New(cfg.Inbox.Path, cfg.Auth.UserID, rt.svc, rt.db, logger)
		g.Go(func() error {
			logger.Info("Watching inbox", slog.String("path", cfg.Inbox.Path))
			if err := watcher.Run(gCtx); err != nil {
				return fmt.Errorf("inbox watcher: %w", err)
			}
			return nil
		})
	}

	if limiter != nil {
		g.Go(func() error {
			limiter.StartCleanupWorker(gCtx, time.Minute)
			return nil
		})
	}

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
		defer signal.Stop(quit)

		var sigErr error
		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			sigErr = errShutdown
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return sigErr
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the inbox watcher and limiter cleanup stop
// alongside the HTTP server.
var errShutdown = errors.New("shutdown requested")

// RunMCP serves the MCP tools on stdio as the configured user.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server on stdio", slog.String("user_id", rt.cfg.Auth.UserID))
	return mcpserver.New(rt.svc, rt.files, rt.cfg.Auth.UserID).ServeStdio()
}

// ExportPeople writes the configured user's contacts to an .xlsx file at path.
func ExportPeople(ctx context.Context, path string, opts ...Option) error {
	rt, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := rt.svc.ExportPeople(ctx, rt.cfg.Auth.UserID, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("export people: %w", err)
	}
	return f.Close()
}

// ImportPeople reads contacts from the .xlsx file at path for the configured user.
func ImportPeople(ctx context.Context, path string, opts ...Option) (*records.ImportReport, error) {
	rt, err := setup(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rep, err := rt.svc.ImportPeopleSheet(ctx, rt.cfg.Auth.UserID, f)
	if err != nil {
		return nil, fmt.Errorf("import people: %w", err)
	}
	rt.logger.Info("People imported",
		slog.Int("imported", rep.Imported),
		slog.Int("duplicates", len(rep.Duplicates)),
		slog.Int("invalid", len(rep.Invalid)))
	return rep, nil
}
