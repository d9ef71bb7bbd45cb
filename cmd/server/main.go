// Package main provides the API server entry point for the whale tracker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whale-tracker/internal/aggregate"
	"github.com/whale-tracker/internal/api"
	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/oracle"
	"github.com/whale-tracker/internal/reddit"
	"github.com/whale-tracker/internal/refresh"
	"github.com/whale-tracker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	whaleRepo := storage.NewWhaleRepository(postgres)

	// Redis is optional; without it snapshots are not warm-started and
	// the server still works off Postgres.
	var snapshotCache refresh.SnapshotCache
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, snapshot cache disabled")
	} else {
		defer redis.Close()
		snapshotCache = storage.NewSnapshotCache(redis, 2*cfg.Refresh.Interval)
	}

	coordinator := buildCoordinator(cfg, whaleRepo, snapshotCache, logger)

	server := api.NewServer(&cfg.Server, whaleRepo, coordinator)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}

// buildCoordinator wires the live-refresh pipeline when forum
// credentials are configured. Without them the server serves stored
// data only; live requests fall back transparently.
func buildCoordinator(cfg *config.Config, whaleRepo *storage.WhaleRepository, snapshotCache refresh.SnapshotCache, logger *logging.Logger) api.SnapshotSource {
	if err := cfg.ValidateForWorker(); err != nil {
		logger.WithError(err).Warn("Live refresh disabled, serving stored data only")
		return nil
	}

	oracleService, err := oracle.NewService(cfg.Oracle)
	if err != nil {
		logger.WithError(err).Warn("Balance oracle unavailable, live refresh disabled")
		return nil
	}

	var sink refresh.StatsSink
	if cfg.Database.ClickHouse.Host != "" {
		clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Warn("ClickHouse unavailable, cycle stats disabled")
		} else {
			statsRepo := storage.NewCycleStatsRepository(clickhouse)
			if err := statsRepo.EnsureSchema(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to prepare cycle stats schema")
			} else {
				sink = statsRepo
			}
		}
	}

	client := reddit.NewClient(cfg.Reddit)
	poller := reddit.NewPoller(client, cfg.Reddit)
	aggregator := aggregate.NewAggregator(oracleService, cfg.Oracle.WhaleFloors)

	coordinator := refresh.NewCoordinator(
		poller, aggregator, whaleRepo, snapshotCache, sink,
		cfg.Refresh.Interval, cfg.Refresh.Budget,
	)
	coordinator.WarmStart(context.Background())
	return coordinator
}
