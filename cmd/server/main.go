// Package main is the entry point for the yieldscope aggregation service.
// It wires the ingestion pipeline (provider pollers, message bus, cache
// writer) to the HTTP boundary and manages graceful shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yieldscope/yieldscope/internal/bus"
	"github.com/yieldscope/yieldscope/internal/cache"
	"github.com/yieldscope/yieldscope/internal/config"
	"github.com/yieldscope/yieldscope/internal/events"
	"github.com/yieldscope/yieldscope/internal/ingestion"
	"github.com/yieldscope/yieldscope/internal/matching"
	"github.com/yieldscope/yieldscope/internal/providers"
	"github.com/yieldscope/yieldscope/internal/query"
	"github.com/yieldscope/yieldscope/internal/server"
	"github.com/yieldscope/yieldscope/pkg/logger"
)

// memoryBusCapacity bounds the in-memory bus used in dev mode.
const memoryBusCapacity = 64

// shutdownTimeout caps how long the HTTP server may drain on shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Bool("dev_mode", cfg.DevMode).Msg("Starting yieldscope")

	var store cache.Store
	var messageBus bus.Bus
	if cfg.DevMode {
		store = cache.NewMemory()
		messageBus = bus.NewMemory(memoryBusCapacity)
		log.Info().Msg("Using in-memory cache and bus")
	} else {
		store = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		messageBus = bus.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
		log.Info().
			Str("redis", cfg.RedisAddr).
			Strs("kafka_brokers", cfg.KafkaBrokers).
			Str("kafka_topic", cfg.KafkaTopic).
			Msg("Using Redis cache and Kafka bus")
	}

	eventBus := events.NewBus()
	fetcher := providers.NewFetcher(cfg.FetchTimeout, log)
	descriptors := providers.Defaults(cfg.PollOverrides)

	pipeline := ingestion.New(descriptors, fetcher, messageBus, store, eventBus, ingestion.Config{
		CacheTTL:         cfg.CacheTTL,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		RetryBackoff:     cfg.RetryBackoff,
	}, log)

	// Infrastructure must be reachable at startup; provider failures are
	// tolerated, an unreachable bus or cache is not.
	if err := pipeline.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start ingestion pipeline")
	}

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Query:       query.New(store, log),
		Matcher:     matching.New(log),
		Events:      eventBus,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}

	pipeline.Stop()
	log.Info().Msg("Server stopped gracefully")
}
