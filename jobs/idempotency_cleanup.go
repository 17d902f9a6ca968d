package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/posapp/pos-backend/internal/dailysales"
	jobmetrics "github.com/posapp/pos-backend/internal/jobs"
)

// DefaultRetentionDays applies when a cleanup task carries no retention.
const DefaultRetentionDays = 30

// KeyCleaner purges old idempotency claims.
type KeyCleaner interface {
	Cleanup(ctx context.Context, module string, olderThan time.Duration, now time.Time) (int64, error)
}

// IdempotencyCleanupJob consumes TaskIdempotencyCleanup.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{
		Keys:    keys,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = DefaultRetentionDays
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
	removed, err := j.Keys.Cleanup(ctx, dailysales.IdempotencyModule, retention, j.now())
	if err != nil {
		loggerFor(j.Logger, TaskIdempotencyCleanup).Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	loggerFor(j.Logger, TaskIdempotencyCleanup).Info("idempotency keys purged", slog.Int64("removed", removed))
	return nil
}

func (j *IdempotencyCleanupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
