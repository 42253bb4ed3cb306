// Command radiusd serves the delivery radius query API over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/delivery-radius-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/delivery-radius-service/internal/adapter/kafka"
	"github.com/couchcryptid/delivery-radius-service/internal/adapter/rediscache"
	"github.com/couchcryptid/delivery-radius-service/internal/app"
	"github.com/couchcryptid/delivery-radius-service/internal/config"
	"github.com/couchcryptid/delivery-radius-service/internal/observability"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Publishing is feature-flagged via KAFKA_BROKERS.
	var (
		deps   app.Deps
		writer *kafkaadapter.Writer
		shared *rediscache.Cache
	)
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		deps.Publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	// The shared drive-time cache is feature-flagged via REDIS_URL.
	if cfg.RedisEnabled() {
		client, err := rediscache.Open(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis config", "error", err)
			os.Exit(1)
		}
		shared = rediscache.NewCache(client, cfg.DriveTimeSharedTTL)
		deps.Shared = shared
		logger.Info("shared drive time cache enabled", "ttl", cfg.DriveTimeSharedTTL)
	}

	a, err := app.New(cfg, deps, logger, metrics)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("reference data loaded", "path", cfg.ReferenceDataPath, "codes", a.Refs.Len(), "session_id", a.Session.ID())

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.Session, a.Refs, a.Provider, a.Clock, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if shared != nil {
		if err := shared.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
