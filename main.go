package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"iceberg-lens/cache"
	"iceberg-lens/catalog"
	"iceberg-lens/config"
	"iceberg-lens/server"
	"iceberg-lens/stats"
	"iceberg-lens/storage"
)

func main() {
	configFile := pflag.StringP("config", "c", "config.yaml", "Path to config file")
	debug := pflag.Bool("debug", false, "Enable debug logging")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level := parseLevel(cfg.Log.Level)
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize components
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}

	metrics := stats.NewMetrics(registry)
	objects := storage.NewClient(
		storage.WithHTTPClient(&http.Client{Timeout: cfg.Storage.FetchTimeout}),
		storage.WithMaxObjectBytes(cfg.Storage.MaxObjectBytes),
		storage.WithLogger(logger.With("component", "storage")),
	)
	calculator := stats.NewCalculator(objects, metrics, logger.With("component", "stats"))
	cached := stats.NewCached(calculator, stats.NewStoreCache(store), metrics,
		logger.With("component", "stats-cache"),
		stats.WithWriteTimeout(cfg.Cache.WriteTimeout),
	)
	service := stats.NewService(cached, logger.With("component", "stats"))

	catalogClient := catalog.New(cfg.Catalog, catalog.WithLogger(logger.With("component", "catalog")))

	srv, err := server.New(cfg.Server, catalogClient, service, registry, logger.With("component", "server"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	logger.Info("started",
		"catalog", cfg.Catalog.URI,
		"warehouse", cfg.Catalog.Warehouse,
		"cache", cfg.Cache.Backend,
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		err = <-errCh
	case err = <-errCh:
	}

	cached.Wait()
	return err
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
