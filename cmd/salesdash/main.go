package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salesdash/salesdash/internal/analytics/raster"
	"github.com/salesdash/salesdash/internal/analytics/svg"
	analytichttp "github.com/salesdash/salesdash/internal/analytics/http"
	"github.com/salesdash/salesdash/internal/app"
	"github.com/salesdash/salesdash/internal/dataset"
	"github.com/salesdash/salesdash/internal/observability"
	"github.com/salesdash/salesdash/internal/platform/db"
	"github.com/salesdash/salesdash/internal/shared"
	"github.com/salesdash/salesdash/internal/snapshot"
	"github.com/salesdash/salesdash/internal/view"
	"github.com/salesdash/salesdash/jobs"
	"github.com/salesdash/salesdash/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	slog.SetDefault(logger)

	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	}

	// Sessions live in redis, so an unreachable server is only a warning here;
	// the first request will fail loudly.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "salesdash_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.SessionSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	source, sourceName, err := app.DatasetSource(cfg, pool)
	if err != nil {
		logger.Error("dataset source", slog.Any("error", err))
		os.Exit(1)
	}
	datasetService := dataset.NewService(source, sourceName, dataset.NewCache(redisClient, cfg.DatasetCacheTTL), logger)

	metrics := observability.NewMetrics()
	reportClient := report.NewClient(cfg.GotenbergURL, cfg.ExportTimeout)
	capturer := raster.NewCapturer(raster.Options{
		Scale:   cfg.ExportRasterScale,
		Quality: cfg.ExportImageQuality,
	}, logger)

	dashboardHandler := analytichttp.NewHandler(
		logger,
		datasetService,
		templates,
		svg.Renderer{},
		csrfManager,
		snapshot.Config{
			Converter:     reportClient,
			Rasterizer:    capturer,
			SettleTimeout: cfg.ExportSettleTimeout,
			Recorder:      metrics,
			Logger:        logger,
		},
		cfg.SessionTTL,
	)
	reportHandler := report.NewHandler(reportClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		DashboardHandler: dashboardHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("dataset", sourceName),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
