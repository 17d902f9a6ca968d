package dailysales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/posapp/pos-backend/internal/platform/db"
	"github.com/posapp/pos-backend/internal/shared"
)

// Repository reads and writes daily_sales.
type Repository struct {
	pool db.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Apply folds e into its store and day. Each transaction is applied at most once; a
// repeat returns applied=false and no error.
func (r *Repository) Apply(ctx context.Context, e Entry) (bool, error) {
	if e.TransactionID <= 0 || e.StoreCode == "" || e.RecordedAt.IsZero() {
		return false, fmt.Errorf("%w: transaction %d", ErrInvalidEntry, e.TransactionID)
	}

	applied := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := shared.NewIdempotencyStore(tx).CheckAndInsert(ctx, idempotencyKey(e.TransactionID), IdempotencyModule)
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim transaction %d: %w", e.TransactionID, err)
		}

		const upsert = `INSERT INTO daily_sales
    (store_code, business_date, transaction_count, item_count, total_amount, updated_at)
VALUES ($1, $2, 1, $3, $4, now())
ON CONFLICT (store_code, business_date) DO UPDATE SET
    transaction_count = daily_sales.transaction_count + 1,
    item_count = daily_sales.item_count + EXCLUDED.item_count,
    total_amount = daily_sales.total_amount + EXCLUDED.total_amount,
    updated_at = now()`
		if _, err := tx.Exec(ctx, upsert, e.StoreCode, BusinessDate(e.RecordedAt), int64(e.ItemCount), e.TotalAmount); err != nil {
			return fmt.Errorf("upsert daily sales: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("dailysales: apply: %w", err)
	}
	return applied, nil
}

// ListByStore returns rollups for store between from and to inclusive, oldest first.
func (r *Repository) ListByStore(ctx context.Context, store string, from, to time.Time) ([]Rollup, error) {
	const query = `SELECT store_code, business_date, transaction_count, item_count, total_amount, updated_at
FROM daily_sales
WHERE store_code = $1 AND business_date BETWEEN $2 AND $3
ORDER BY business_date`
	rows, err := r.pool.Query(ctx, query, store, BusinessDate(from), BusinessDate(to))
	if err != nil {
		return nil, fmt.Errorf("dailysales: list: %w", err)
	}
	defer rows.Close()

	out := []Rollup{}
	for rows.Next() {
		var ro Rollup
		if err := rows.Scan(&ro.StoreCode, &ro.BusinessDate, &ro.TransactionCount, &ro.ItemCount, &ro.TotalAmount, &ro.UpdatedAt); err != nil {
			return nil, fmt.Errorf("dailysales: scan: %w", err)
		}
		ro.Date = ro.BusinessDate.Format(dateLayout)
		out = append(out, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dailysales: list: %w", err)
	}
	return out, nil
}
