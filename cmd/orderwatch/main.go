// orderwatch follows one outlet's live order updates from the console.
// It exercises the full client connection flow: push over SSE or
// WebSocket, capability probing, reconnect backoff and the polling
// fallback.
// Usage: orderwatch --server http://localhost:3000 --outlet outlet-1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seatserve/seatserve/internal/api"
	"github.com/seatserve/seatserve/internal/config"
	"github.com/seatserve/seatserve/internal/live"
	"github.com/seatserve/seatserve/internal/model"
)

func main() {
	serverURL := flag.String("server", "http://localhost:3000", "orderd base URL")
	outletID := flag.String("outlet", "", "outlet to watch (required)")
	orderID := flag.String("order", "", "order to track in polling mode")
	sessionID := flag.String("session", "", "session that owns the tracked order")
	transportName := flag.String("transport", "sse", "push transport: sse or ws")
	configPath := flag.String("config", "", "optional config file for watcher timing")
	verbose := flag.Bool("verbose", false, "print full order JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if *outletID == "" {
		logger.Error("--outlet is required")
		os.Exit(1)
	}

	watchCfg := live.DefaultConfig()
	if *configPath != "" {
		cfg, err := config.LoadWithDefaults(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		watchCfg = live.ConfigFrom(cfg.Watcher)
	}

	var transport live.Transport
	switch *transportName {
	case "sse":
		transport = live.NewSSETransport(*serverURL, logger)
	case "ws":
		transport = live.NewWSTransport(*serverURL, logger)
	default:
		logger.Error("unknown transport", "transport", *transportName)
		os.Exit(1)
	}

	client := api.NewClient(*serverURL, api.WithLogger(logger))

	printOrder := func(verb string, o model.Order) {
		if *verbose {
			payload, _ := json.MarshalIndent(o, "", "  ")
			fmt.Println(string(payload))
			return
		}
		logger.Info(verb,
			"order_id", o.OrderID,
			"order_status", o.OrderStatus,
			"payment_status", o.PaymentStatus,
			"items", len(o.Items),
			"total", o.TotalAmount,
		)
	}

	watcher := live.New(watchCfg, transport, client, live.Callbacks{
		OnConnect:    func() { logger.Info("updates live") },
		OnDisconnect: func() { logger.Warn("connection lost") },
		OnNewOrder:   func(o model.Order) { printOrder("new order", o) },
		OnOrderUpdate: func(o model.Order) {
			printOrder("order updated", o)
		},
		OnOrderComplete: func(o model.Order) {
			printOrder("order completed", o)
		},
		OnError: func(err error) { logger.Warn("watcher error", "error", err) },
	}, logger)

	if *orderID != "" {
		watcher.SetActiveOrder(*orderID, *sessionID)
	}
	watcher.Start(*outletID)
	defer watcher.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			return
		case <-ticker.C:
			logger.Info("status",
				"state", watcher.State().String(),
				"connected", watcher.IsConnected(),
				"reconnect_attempts", watcher.ReconnectAttempts(),
			)
		}
	}
}
