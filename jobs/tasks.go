package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/posapp/pos-backend/internal/purchase"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPurchaseRecorded folds a committed purchase into the daily sales rollup.
	TaskPurchaseRecorded = "pos:purchase_recorded"
	// TaskCatalogWarmup preloads the product lookup cache.
	TaskCatalogWarmup = "catalog:warmup"
	// TaskIdempotencyCleanup purges old rollup claims.
	TaskIdempotencyCleanup = "pos:idempotency_cleanup"
)

// PurchaseRecordedPayload describes a committed purchase.
type PurchaseRecordedPayload struct {
	EventID       uuid.UUID `json:"eventId"`
	TransactionID int64     `json:"transactionId"`
	StoreCode     string    `json:"storeCode"`
	RegisterID    string    `json:"registerId"`
	ItemCount     int       `json:"itemCount"`
	TotalAmount   int64     `json:"totalAmount"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// NewPurchaseRecordedTask builds the task for a receipt. The task id is derived from
// the transaction id so a purchase is queued at most once.
func NewPurchaseRecordedTask(r purchase.Receipt) (*asynq.Task, error) {
	data, err := json.Marshal(PurchaseRecordedPayload{
		EventID:       PurchaseEventID(r.TransactionID),
		TransactionID: r.TransactionID,
		StoreCode:     r.StoreCode,
		RegisterID:    r.RegisterID,
		ItemCount:     r.ItemCount,
		TotalAmount:   r.TotalAmount,
		RecordedAt:    r.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurchaseRecorded, data,
		asynq.TaskID(purchaseTaskID(r.TransactionID)),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(10),
	), nil
}

func purchaseTaskID(id int64) string {
	return fmt.Sprintf("purchase-recorded:%d", id)
}

// PurchaseEventID is the stable event identifier for a transaction. Re-publishing the
// same purchase yields the same id.
func PurchaseEventID(transactionID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(purchaseTaskID(transactionID)))
}

// CatalogWarmupPayload configures a warmup run.
type CatalogWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewCatalogWarmupTask constructs a catalog warmup task.
func NewCatalogWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(CatalogWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, data), nil
}

// IdempotencyCleanupPayload configures a cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionDays int `json:"retentionDays"`
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

func decode(t *asynq.Task, target any) error {
	if err := json.Unmarshal(t.Payload(), target); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return nil
}

