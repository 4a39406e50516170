// Package server wires the download core into a long-running daemon.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Xisisrefliel/VidPull/internal/api"
	"github.com/Xisisrefliel/VidPull/internal/config"
	"github.com/Xisisrefliel/VidPull/internal/download"
	"github.com/Xisisrefliel/VidPull/internal/events"
	"github.com/Xisisrefliel/VidPull/internal/history"
	"github.com/Xisisrefliel/VidPull/internal/notify"
	"github.com/Xisisrefliel/VidPull/internal/ytdlp"
)

const shutdownTimeout = 5 * time.Second

// Config for the daemon.
type Config struct {
	Addr    string // listen address, e.g. "127.0.0.1:8793"
	DataDir string // holds config.json, settings.json, history.json
}

// Runner owns the daemon components.
type Runner struct {
	cfg    Config
	fs     afero.Fs
	logger *slog.Logger
}

// NewRunner creates a daemon runner.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, fs: afero.NewOsFs(), logger: logger}
}

// Run starts all components and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	store := config.NewStore(r.fs, r.cfg.DataDir, r.logger.With("component", "config"))
	store.Load()
	for _, msg := range store.Validate() {
		r.logger.Warn("config issue", "detail", msg)
	}
	settings := store.Settings()
	defaults := store.Config()

	bus := events.NewBus(r.logger.With("component", "bus"))
	defer bus.Close()

	hist := history.NewStore(r.fs,
		filepath.Join(r.cfg.DataDir, "history.json"),
		settings.MaxHistoryItems,
		r.logger.With("component", "history"))

	runner := ytdlp.NewRunner(settings.ExecutablePath, r.fs, r.logger.With("component", "runner"))

	manager := download.NewManager(runner, ytdlp.NewParser(), hist, bus, download.ManagerConfig{
		MaxConcurrent: settings.MaxConcurrent,
		MaxHistory:    settings.MaxHistoryItems,
		Defaults: download.Options{
			OutputDir: defaults.DefaultOutputDir,
			Format:    defaults.DefaultFormat,
			Playlist:  defaults.Playlist,
		},
	}, r.logger.With("component", "manager"))
	manager.LoadHistory(hist.Load())

	dispatcher := notify.NewDispatcher(bus, notify.Desktop{},
		func() bool { return store.Settings().ShowNotifications },
		r.logger.With("component", "notify"))

	mux := http.NewServeMux()
	api.New(manager, store, bus, r.logger.With("component", "api")).RegisterRoutes(mux)
	httpServer := &http.Server{Addr: r.cfg.Addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("listening", "addr", r.cfg.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := dispatcher.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		manager.CancelAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
