package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/flashkv/engine/internal/api/http"
	"github.com/flashkv/engine/internal/config"
	"github.com/flashkv/engine/internal/logger"
	"github.com/flashkv/engine/internal/metrics"
	"github.com/flashkv/engine/internal/schema"
	"github.com/flashkv/engine/internal/storage/kv"
	"github.com/flashkv/engine/internal/tracing"
	"github.com/flashkv/engine/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Rotation:   cfg.Logging.Rotation,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithComponent("main")
	log.Info().Str("version", version.Get().Version).Msg("Starting flashkv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	tracingCfg := tracing.DefaultConfig()
	tracingCfg.Enabled = cfg.Tracing.Enabled
	tracingCfg.Endpoint = cfg.Tracing.Endpoint
	tracingCfg.ExporterType = cfg.Tracing.ExporterType
	tracingCfg.Insecure = cfg.Tracing.Insecure
	tracingCfg.ServiceVersion = version.Get().Version

	tracerProvider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down tracing")
		}
	}()

	// Metrics
	var metricsServer *metrics.Server
	var storeMetrics *metrics.StoreMetrics
	var apiMetrics *metrics.APIMetrics
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		storeMetrics = metrics.NewStoreMetrics(collector)
		apiMetrics = metrics.NewAPIMetrics(collector)
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, collector.GetRegistry())
		if err := metricsServer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}

	// Optional value schema
	var validator *schema.Validator
	if cfg.Storage.SchemaFile != "" {
		validator, err = schema.LoadFile(cfg.Storage.SchemaFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Storage.SchemaFile).Msg("Failed to load value schema")
		}
		log.Info().Str("file", cfg.Storage.SchemaFile).Msg("Value schema loaded")
	}

	// Store
	store, err := kv.Open(cfg.Storage.Path, kv.Options{
		BusyTimeout:  cfg.Storage.BusyTimeout,
		CacheSizeKB:  cfg.Storage.CacheSizeKB,
		ReapInterval: cfg.Storage.ReapInterval,
		Metrics:      storeMetrics,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open store")
	}

	// HTTP API
	server := httpapi.NewServer(cfg.Server.HTTPAddr, store, validator, apiMetrics)
	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}

	log.Info().
		Str("http_addr", cfg.Server.HTTPAddr).
		Str("db_path", cfg.Storage.Path).
		Msg("flashkv started")

	// Wait for termination
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop HTTP server")
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to stop metrics server")
		}
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}

	log.Info().Msg("Shutdown complete")
}
