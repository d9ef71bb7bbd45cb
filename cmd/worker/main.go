// Package main provides the refresh worker entry point. It runs
// discovery cycles on a schedule and persists the results.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/whale-tracker/internal/aggregate"
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

	// Missing credentials are fatal here, not at request time.
	if err := cfg.ValidateForWorker(); err != nil {
		logger.WithError(err).Fatal("Worker configuration invalid")
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	var snapshotCache refresh.SnapshotCache
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, snapshot cache disabled")
	} else {
		defer redis.Close()
		snapshotCache = storage.NewSnapshotCache(redis, 2*cfg.Refresh.Interval)
	}

	var sink refresh.StatsSink
	if cfg.Database.ClickHouse.Host != "" {
		clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Warn("ClickHouse unavailable, cycle stats disabled")
		} else {
			defer clickhouse.Close()
			statsRepo := storage.NewCycleStatsRepository(clickhouse)
			if err := statsRepo.EnsureSchema(context.Background()); err != nil {
				logger.WithError(err).Warn("Failed to prepare cycle stats schema")
			} else {
				sink = statsRepo
			}
		}
	}

	oracleService, err := oracle.NewService(cfg.Oracle)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize balance oracle")
	}

	client := reddit.NewClient(cfg.Reddit)
	poller := reddit.NewPoller(client, cfg.Reddit)
	aggregator := aggregate.NewAggregator(oracleService, cfg.Oracle.WhaleFloors)

	coordinator := refresh.NewCoordinator(
		poller, aggregator, storage.NewWhaleRepository(postgres), snapshotCache, sink,
		cfg.Refresh.Interval, cfg.Refresh.Budget,
	)
	coordinator.WarmStart(context.Background())

	// One cycle at startup, then on the configured interval. The
	// coordinator's single-flight handling absorbs overlapping fires.
	if err := coordinator.Refresh(context.Background()); err != nil {
		logger.WithError(err).Error("Initial refresh failed")
	}

	scheduler := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.Refresh.Interval)
	if _, err := scheduler.AddFunc(spec, func() {
		if err := coordinator.Refresh(context.Background()); err != nil {
			logger.WithError(err).Error("Scheduled refresh failed")
		}
	}); err != nil {
		logger.WithError(err).Fatal("Failed to schedule refresh")
	}

	scheduler.Start()
	logger.WithField("interval", cfg.Refresh.Interval.String()).Info("Refresh worker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx := scheduler.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(cfg.Refresh.Budget):
		logger.Warn("Timed out waiting for running cycle")
	}
	logger.Info("Worker stopped")
}
