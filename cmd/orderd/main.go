// orderd serves the restaurant ordering API: session-scoped order CRUD
// plus live update delivery over SSE and WebSocket.
// Usage: orderd --config configs/orderd.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seatserve/seatserve/internal/config"
	"github.com/seatserve/seatserve/internal/database"
	"github.com/seatserve/seatserve/internal/metrics"
	"github.com/seatserve/seatserve/internal/notify"
	"github.com/seatserve/seatserve/internal/server"
	"github.com/seatserve/seatserve/internal/store"
	"github.com/seatserve/seatserve/internal/stream"
	"github.com/seatserve/seatserve/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/orderd.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("orderd", version.String())
		return
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting orderd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := store.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	orders := store.NewPG(pool, logger)
	hub := stream.NewHub(cfg.Stream.ClientBuffer, logger)
	m := metrics.New()
	m.ObserveDropped(func() float64 { return float64(hub.Stats().Dropped) })

	// Events always reach the local hub; with AMQP enabled they also fan
	// out to the other orderd instances.
	var publisher notify.Publisher = hub
	var bridge *notify.Bridge
	if cfg.AMQP.Enabled {
		bridge, err = notify.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, hub, logger)
		if err != nil {
			logger.Error("failed to connect to AMQP broker", "error", err)
			os.Exit(1)
		}
		if err := bridge.Start(ctx); err != nil {
			logger.Error("failed to start AMQP bridge", "error", err)
			os.Exit(1)
		}
		publisher = notify.Fanout{hub, bridge}
		logger.Info("AMQP bridge connected", "exchange", cfg.AMQP.Exchange)
	}

	srv := server.New(cfg.Server, cfg.Stream, orders, hub, publisher, m, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := m.Serve(cfg.Metrics.Port, cfg.Metrics.Path); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server listening", "addr", cfg.Server.Addr, "push_enabled", cfg.Server.PushOffered())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if bridge != nil {
			if err := bridge.Stop(shutdownCtx); err != nil {
				logger.Warn("AMQP bridge shutdown failed", "error", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
