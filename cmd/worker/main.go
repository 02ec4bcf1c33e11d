package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/salesdash/salesdash/internal/app"
	"github.com/salesdash/salesdash/internal/dataset"
	jobmetrics "github.com/salesdash/salesdash/internal/jobs"
	"github.com/salesdash/salesdash/internal/platform/db"
	"github.com/salesdash/salesdash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// Imports always write to postgres, whatever the dashboard reads from.
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	source, sourceName, err := app.DatasetSource(cfg, pool)
	if err != nil {
		logger.Error("dataset source", slog.Any("error", err))
		os.Exit(1)
	}
	datasetService := dataset.NewService(source, sourceName, dataset.NewCache(redisClient, cfg.DatasetCacheTTL), logger)

	metrics := jobmetrics.NewMetrics(nil)
	importer := dataset.NewImporter(dataset.NewRepository(pool), datasetService, logger)
	importJob := jobs.NewSalesImportJob(importer, logger, metrics)
	warmupJob := &jobs.DatasetWarmupJob{Source: datasetService, Logger: logger, Metrics: metrics}

	warmupTask, err := jobs.NewDatasetWarmupTask(jobs.DatasetWarmupPayload{Reason: "cron"})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSalesImport, Handler: importJob.Handle},
			{Type: jobs.TaskDatasetWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 6 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
