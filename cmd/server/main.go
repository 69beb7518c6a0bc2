package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabric0de/sentrybridge/internal/config"
	"github.com/fabric0de/sentrybridge/internal/relay"
	"github.com/fabric0de/sentrybridge/internal/storage"
	"github.com/fabric0de/sentrybridge/internal/web"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file (JSON or YAML)")
	flag.Parse()

	// --- 1. Load Config ---
	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := cfgMgr.Get()

	// --- 2. Setup Logger ---
	setupLogger(cfg.System.LogLevel)
	slog.Info("starting sentrybridge", "bind", cfg.System.BindAddress, "public_url", cfg.System.PublicBaseURL)

	// --- 3. Open Store ---
	store, err := storage.Open(cfg.System.DatabasePath)
	if err != nil {
		slog.Error("failed to open store", "error", err, "path", cfg.System.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()

	// --- 4. Init Relay Pipeline ---
	deliverer := relay.NewHTTPDeliverer(time.Duration(cfg.System.DeliveryTimeout) * time.Second)
	relaySvc := relay.NewService(store, deliverer)

	// --- 5. HTTP Server ---
	router := web.NewRouter(cfgMgr, store, relaySvc)
	srv := &http.Server{
		Addr:    cfg.System.BindAddress,
		Handler: router,
	}

	go func() {
		slog.Info("sentrybridge is running", "address", cfg.System.BindAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- 6. Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("received shutdown signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}

	slog.Info("sentrybridge stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
