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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/iotodash/internal/api"
	"github.com/starford/iotodash/internal/dashboard"
	"github.com/starford/iotodash/internal/ioto"
	"github.com/starford/iotodash/internal/mcpserver"
	"github.com/starford/iotodash/internal/settings"
	"github.com/starford/iotodash/internal/sse"
	"github.com/starford/iotodash/internal/storage"
	"github.com/starford/iotodash/internal/vault"
)

// core is the state shared by the HTTP and MCP entry points.
type core struct {
	cfg      *Config
	logger   *slog.Logger
	fs       *storage.FS
	vault    *vault.Store
	settings *settings.Store
	service  *dashboard.Service
}

func (a *application) newLogger(w io.Writer) (*slog.Logger, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger, nil
}

// build opens the vault and the settings store and creates the dashboard
// service. The caller starts the service and closes the core.
func (a *application) build(ctx context.Context, logger *slog.Logger, opts ...dashboard.Option) (*core, error) {
	cfg := a.config
	dc := cfg.Dashboard

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("locale", dc.Locale),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	fs, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	v := vault.New(fs, logger)
	if err := v.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	folders := dc.Folders.Settings()
	st, err := settings.Open(ctx, cfg.SQLite.Path, settings.Settings{
		Folders:       folders,
		PageSize:      dc.PageSize,
		CustomFilters: dc.CustomFilters,
	})
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}
	// The configured folders win over the persisted ones.
	if st.Settings().Folders != folders {
		if err := st.SaveFolders(ctx, folders); err != nil {
			st.Close()
			return nil, fmt.Errorf("save folders: %w", err)
		}
	}

	headings := ioto.NewSource(dc.IotoSettingsPath, dc.Locale, logger)
	opts = append([]dashboard.Option{
		dashboard.WithLanguage(dc.Locale),
		dashboard.WithDebounce(dc.RefreshDebounce),
	}, opts...)
	svc := dashboard.NewService(v, st, headings, logger, opts...)

	return &core{
		cfg:      cfg,
		logger:   logger,
		fs:       fs,
		vault:    v,
		settings: st,
		service:  svc,
	}, nil
}

func (c *core) close() {
	c.service.Close()
	if err := c.settings.Close(); err != nil {
		c.logger.Warn("settings close failed", slog.String("error", err.Error()))
	}
}

// watch keeps the vault index in sync until ctx is cancelled.
func (c *core) watch(ctx context.Context) error {
	if err := vault.Watch(ctx, c.vault, c.fs.Root(), c.logger); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	return nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	logger, err := app.newLogger(os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SSE broker.
	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()

	c, err := app.build(ctx, logger, dashboard.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Start(ctx); err != nil {
		return fmt.Errorf("start dashboard: %w", err)
	}

	apiRouter := api.NewRouter(c.service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; the vault store notifies the dashboard service.
	g.Go(func() error {
		return c.watch(gCtx)
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
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

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	logger, err := app.newLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := app.build(ctx, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Start(ctx); err != nil {
		return fmt.Errorf("start dashboard: %w", err)
	}

	srv := mcpserver.New(c.service)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.watch(gCtx)
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("Starting MCP server on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
