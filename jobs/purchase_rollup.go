package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/posapp/pos-backend/internal/dailysales"
	jobmetrics "github.com/posapp/pos-backend/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RollupApplier folds one purchase into the daily rollup.
type RollupApplier interface {
	Apply(ctx context.Context, e dailysales.Entry) (bool, error)
}

// PurchaseRollupJob consumes TaskPurchaseRecorded.
type PurchaseRollupJob struct {
	Rollups RollupApplier
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPurchaseRollupJob wires dependencies for the rollup handler.
func NewPurchaseRollupJob(rollups RollupApplier, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurchaseRollupJob {
	return &PurchaseRollupJob{Rollups: rollups, Logger: logger, Metrics: metrics}
}

// Handle processes purchase-recorded tasks.
func (j *PurchaseRollupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Rollups == nil {
		return errors.New("purchase rollup: handler not configured")
	}
	var payload PurchaseRecordedPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskPurchaseRecorded)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := loggerFor(j.Logger, TaskPurchaseRecorded).With(
		slog.Int64("transaction_id", payload.TransactionID),
		slog.String("event_id", payload.EventID.String()),
	)
	applied, err := j.Rollups.Apply(ctx, dailysales.Entry{
		TransactionID: payload.TransactionID,
		StoreCode:     payload.StoreCode,
		ItemCount:     payload.ItemCount,
		TotalAmount:   payload.TotalAmount,
		RecordedAt:    payload.RecordedAt,
	})
	if err != nil {
		if errors.Is(err, dailysales.ErrInvalidEntry) {
			logger.Warn("discarding invalid purchase event", slog.Any("error", err))
			return errors.Join(err, asynq.SkipRetry)
		}
		logger.Error("apply daily sales", slog.Any("error", err))
		return err
	}
	if !applied {
		tracker.Skip()
		logger.Info("purchase already rolled up")
		return nil
	}
	logger.Info("purchase rolled up", slog.String("store", payload.StoreCode), slog.Int64("total", payload.TotalAmount))
	return nil
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func loggerFor(l *slog.Logger, job string) *slog.Logger {
	if l != nil {
		return l.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}
