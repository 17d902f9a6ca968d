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
	"github.com/redis/go-redis/v9"

	"github.com/posapp/pos-backend/internal/app"
	"github.com/posapp/pos-backend/internal/catalog"
	"github.com/posapp/pos-backend/internal/dailysales"
	"github.com/posapp/pos-backend/internal/observability"
	"github.com/posapp/pos-backend/internal/platform/cache"
	"github.com/posapp/pos-backend/internal/platform/db"
	"github.com/posapp/pos-backend/internal/purchase"
	"github.com/posapp/pos-backend/jobs"
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
	host, name := cfg.DatabaseTarget()
	logger.Info("connecting to database", slog.String("host", host), slog.String("database", name))

	dbpool, err := db.New(ctx, cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = cache.New(ctx, cfg.RedisOptions())
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, catalog.NewCache(redisClient, cfg.CatalogCacheTTL))
	catalogHandler := catalog.NewHandler(logger, catalogService)

	var (
		publisher  purchase.Publisher
		jobHandler *jobs.Handler
	)
	if cfg.RedisEnabled() {
		redisOpts := cfg.QueueRedis()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		publisher = jobClient

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	purchaseRepo := purchase.NewRepository(dbpool)
	purchaseService := purchase.NewService(purchase.ServiceParams{
		Writer:    purchase.NewWriter(purchaseRepo),
		Reader:    purchaseRepo,
		Catalog:   catalogService,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
		Config: purchase.Config{
			AllowEmpty:  cfg.AllowEmptyPurchase,
			VerifyItems: cfg.VerifyItems,
		},
	})
	purchaseHandler := purchase.NewHandler(logger, purchaseService)

	dailySalesHandler := dailysales.NewHandler(logger, dailysales.NewRepository(dbpool))

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		DB:                dbpool,
		CatalogHandler:    catalogHandler,
		PurchaseHandler:   purchaseHandler,
		DailySalesHandler: dailySalesHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("version", app.Version))
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
