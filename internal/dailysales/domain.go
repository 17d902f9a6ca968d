// Package dailysales maintains per-store, per-day purchase totals fed by committed
// purchases.
package dailysales

import (
	"errors"
	"fmt"
	"time"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// IdempotencyModule namespaces rollup claims in idempotency_keys.
const IdempotencyModule = "daily_sales"

// dateLayout is the wire format of business dates.
const dateLayout = "2006-01-02"

// MaxRangeDays bounds a single rollup query.
const MaxRangeDays = 366

var (
	// ErrInvalidEntry is returned when an entry cannot be applied.
	ErrInvalidEntry = errors.New("dailysales: invalid entry")
	// ErrInvalidRange is returned for malformed or oversized date ranges.
	ErrInvalidRange = fmt.Errorf("dailysales: %w", httpx.ErrValidation)
)

// Entry is one committed purchase to fold into the rollup.
type Entry struct {
	TransactionID int64
	StoreCode     string
	ItemCount     int
	TotalAmount   int64
	RecordedAt    time.Time
}

// Rollup is the aggregate of one store on one business day.
type Rollup struct {
	StoreCode        string    `json:"storeCode"`
	BusinessDate     time.Time `json:"-"`
	Date             string    `json:"businessDate"`
	TransactionCount int64     `json:"transactionCount"`
	ItemCount        int64     `json:"itemCount"`
	TotalAmount      int64     `json:"totalAmount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// BusinessDate truncates t to its UTC calendar day.
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func idempotencyKey(transactionID int64) string {
	return fmt.Sprintf("transaction:%d", transactionID)
}
