// Command server runs the arena's authoritative game server: it loads
// configuration from the environment, opens and migrates the SQLite
// credential/score store, starts the simulation hub, and serves the
// WebSocket endpoint until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/orbitclash/server/internal/config"
	"github.com/orbitclash/server/internal/hub"
	"github.com/orbitclash/server/internal/logging"
	"github.com/orbitclash/server/internal/model"
	"github.com/orbitclash/server/internal/server"
	"github.com/orbitclash/server/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	logCloser, err := logging.Setup(cfg.LogDirectory, cfg.LogFileNamePrefix)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("arena server starting", "bind_addr", cfg.BindAddr, "database_url", cfg.DatabaseURL)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	slog.Info("store migrations applied")

	h := hub.New(model.DefaultRand())
	srv := server.New(cfg.BindAddr, db, store.DefaultBcryptCost, h.Inbound())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	return g.Wait()
}
