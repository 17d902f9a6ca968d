package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/posapp/pos-backend/internal/jobs"
)

// CatalogWarmer preloads the product cache.
type CatalogWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// CatalogWarmupJob consumes TaskCatalogWarmup.
type CatalogWarmupJob struct {
	Catalog CatalogWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewCatalogWarmupJob wires dependencies for the warmup handler.
func NewCatalogWarmupJob(catalog CatalogWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogWarmupJob {
	return &CatalogWarmupJob{Catalog: catalog, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// Handle processes catalog warmup tasks.
func (j *CatalogWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog warmup: handler not configured")
	}
	var payload CatalogWarmupPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskCatalogWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	logger := loggerFor(j.Logger, TaskCatalogWarmup).With(slog.String("reason", payload.Reason))
	start := time.Now()
	n, err := j.Catalog.Warm(ctx)
	if err != nil {
		logger.Error("warm catalog cache", slog.Any("error", err))
		return err
	}
	logger.Info("catalog cache warmed", slog.Int("products", n), slog.Duration("duration", time.Since(start)))
	return nil
}
