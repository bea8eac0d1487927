package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/halvard/muninn/internal/clipboard"
	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/store"
)

// Run starts the capture daemon with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.brainRoot == "" {
		return fmt.Errorf("brain root is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("brain_root", app.brainRoot),
		slog.Bool("clipboard_enabled", cfg.Clipboard.Enabled),
		slog.Int("poll_interval_ms", cfg.Clipboard.PollIntervalMS),
		slog.String("log_level", cfg.Log.Level.String()))

	s, err := store.New(app.brainRoot)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if !s.IsInitialized() {
		return fmt.Errorf("no brain found at %s (run init first)", s.Root())
	}

	if !cfg.Clipboard.Enabled {
		logger.Info("Clipboard capture disabled, nothing to do")
		return nil
	}

	source := app.source
	if source == nil {
		source = clipboard.SystemSource{}
	}

	monitor := clipboard.NewMonitor(cfg.Clipboard, inbox.New(s), source, logger)

	g, gCtx := errgroup.WithContext(ctx)
	monitorCtx, cancelMonitor := context.WithCancel(gCtx)
	defer cancelMonitor()

	g.Go(func() error {
		return monitor.Run(monitorCtx)
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

		cancelMonitor()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Daemon error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Daemon stopped successfully")
	return nil
}
