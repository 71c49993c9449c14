// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notesh/internal/api"
	"github.com/starford/notesh/internal/inbox"
	"github.com/starford/notesh/internal/mcpserver"
	"github.com/starford/notesh/internal/metrics"
	"github.com/starford/notesh/internal/models"
	"github.com/starford/notesh/internal/repl"
	"github.com/starford/notesh/internal/shell"
	"github.com/starford/notesh/internal/sse"
	"github.com/starford/notesh/internal/store"
)

// runtime is everything a mode needs once configuration is applied.
type runtime struct {
	cfg     *Config
	version string
	out     io.Writer
	logger  *slog.Logger
	db      *store.DB
	// events is set while the HTTP server runs.
	events  *sse.Broker
	closers []io.Closer
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
}

func setup(opts []Option) (*runtime, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	rt := &runtime{cfg: cfg, version: app.version, out: app.out}

	logger, logFile, err := newLogger(cfg.App)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		rt.closers = append(rt.closers, logFile)
	}
	slog.SetDefault(logger)
	rt.logger = logger

	logger.Info("Configuration loaded",
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("http_enabled", cfg.App.HTTP.Enabled),
		slog.String("inbox_dir", cfg.Shell.InboxDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			rt.Close()
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db)
	return rt, nil
}

// newLogger builds the JSON logger. The shell owns stdout, so logs go to a
// file unless the path is "-".
func newLogger(cfg ApplicationConfig) (*slog.Logger, *os.File, error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFile == "-" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, opts)), f, nil
}

func (rt *runtime) newREPL(interactive bool) *repl.REPL {
	cfg := rt.cfg.Shell
	d := shell.NewDispatcher(rt.db, shell.WithVersion(rt.version))
	sessionOpts := []shell.SessionOption{
		shell.WithLogger(rt.logger),
		shell.WithHistoryLimit(cfg.HistoryLimit),
		shell.WithMaxInputLength(cfg.MaxInputLength),
		shell.WithOutputLimit(cfg.OutputLimit),
	}
	if broker := rt.events; broker != nil {
		sessionOpts = append(sessionOpts, shell.WithObserver(func(ev shell.PipelineEvent) {
			publishPipeline(broker, ev)
		}))
	}
	session := shell.NewSession(d, sessionOpts...)

	opts := []repl.Option{
		repl.WithOutput(rt.out),
		repl.WithLogger(rt.logger),
		repl.WithExportDir(cfg.ExportDir),
		repl.WithEditor(cfg.Editor),
	}
	if interactive {
		opts = append(opts, repl.WithHistoryFile(cfg.HistoryFile))
	}
	return repl.New(session, rt.db, opts...)
}

// NewHTTPHandler builds the HTTP surface: health checks, metrics and the
// read-only API under /api. events may be nil.
func NewHTTPHandler(cfg *Config, db *store.DB, logger *slog.Logger, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(api.Metrics)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api", api.NewRouter(db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))
	return r
}

// startServices adds the HTTP server (when withHTTP) and the inbox watcher
// (when configured) to g, plus a goroutine that stops them on a signal or
// when ctx ends. cancel is called on a signal. The event broker must be
// created before the shell session so it can observe commands.
func (rt *runtime) startServices(ctx context.Context, g *errgroup.Group, cancel context.CancelFunc, withHTTP bool) {
	cfg := rt.cfg
	logger := rt.logger

	var httpServer *http.Server
	if withHTTP {
		var events http.Handler
		if rt.events != nil {
			events = rt.events
		}
		httpServer = &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           NewHTTPHandler(cfg, rt.db, logger, events),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if dir := cfg.Shell.InboxDir; dir != "" {
		g.Go(func() error {
			var cb inbox.EventCallback
			if broker := rt.events; broker != nil {
				cb = func(path string, sum *models.ImportSummary, err error) {
					publishImport(broker, path, sum, err)
				}
			}
			if err := inbox.Watch(ctx, dir, rt.db, logger, cb); err != nil {
				logger.Warn("inbox watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		if rt.events != nil {
			// ends open event streams so Shutdown does not wait on them
			rt.events.Close()
		}
		if httpServer != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})
}

// Run starts the interactive shell, plus the HTTP server when
// app.http.enabled is set and the inbox watcher when shell.inbox_dir is.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if rt.cfg.App.HTTP.Enabled {
		rt.startEvents()
	}
	rt.startServices(gCtx, g, cancel, rt.cfg.App.HTTP.Enabled)

	g.Go(func() error {
		defer cancel()
		return rt.newREPL(true).Run(gCtx)
	})

	if err := g.Wait(); err != nil {
		rt.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	rt.logger.Info("Shell stopped")
	return nil
}

// Serve runs the HTTP API and the inbox watcher without a shell until a
// signal arrives or ctx ends.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	rt.startEvents()
	rt.startServices(gCtx, g, cancel, true)

	if err := g.Wait(); err != nil {
		rt.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	rt.logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP serves the read-only MCP tools over stdio.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server on stdio")
	if err := mcpserver.New(rt.db, rt.version).ServeStdio(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Exec runs one command line non-interactively and writes the rendered
// result to the configured output.
func Exec(ctx context.Context, line string, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.newREPL(false).Submit(ctx, line); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
