package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/posapp/pos-backend/internal/app"
	"github.com/posapp/pos-backend/internal/catalog"
	"github.com/posapp/pos-backend/internal/dailysales"
	jobmetrics "github.com/posapp/pos-backend/internal/jobs"
	"github.com/posapp/pos-backend/internal/platform/cache"
	"github.com/posapp/pos-backend/internal/platform/db"
	"github.com/posapp/pos-backend/internal/shared"
	"github.com/posapp/pos-backend/jobs"
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
	if !cfg.RedisEnabled() {
		slog.Default().Error("REDIS_ADDR is required by the worker")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	registry := newWorkerRegistry()
	metrics := jobmetrics.NewMetrics(registry)

	var metricsServer *http.Server
	if cfg.WorkerMetricsAddr != "" {
		metricsServer = newMetricsServer(cfg.WorkerMetricsAddr, registry)
		go func() {
			logger.Info("worker metrics listening", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("worker metrics shutdown", slog.Any("error", err))
			}
		}()
	}
	catalogService := catalog.NewService(catalog.NewRepository(pool), catalog.NewCache(redisClient, cfg.CatalogCacheTTL))

	rollupJob := jobs.NewPurchaseRollupJob(dailysales.NewRepository(pool), logger, metrics)
	warmupJob := jobs.NewCatalogWarmupJob(catalogService, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, metrics)

	warmupTask, err := jobs.NewCatalogWarmupTask("scheduled")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.DefaultRetentionDays)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.QueueRedis(),
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPurchaseRecorded, Handler: rollupJob.Handle},
			{Type: jobs.TaskCatalogWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
