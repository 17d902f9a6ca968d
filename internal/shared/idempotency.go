package shared

import (
	"context"
	"errors"
	"time"

	"github.com/posapp/pos-backend/internal/platform/db"
)

// IdempotencyStore persists processed keys.
type IdempotencyStore struct {
	db db.DBTX
}

// NewIdempotencyStore constructs the store. Pass a pgx.Tx to claim keys inside an
// enclosing transaction so the claim commits or rolls back with the work it guards.
func NewIdempotencyStore(conn db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: conn}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// CheckAndInsert claims key for module. A key that was already claimed returns
// ErrIdempotencyConflict without aborting the surrounding transaction.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.db == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	tag, err := s.db.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, now())
ON CONFLICT (key, module) DO NOTHING`, key, module)
	if err != nil {
		if db.HasCode(err, db.CodeUniqueViolation) {
			return ErrIdempotencyConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Cleanup removes entries of module older than retention and reports how many were
// removed.
func (s *IdempotencyStore) Cleanup(ctx context.Context, module string, olderThan time.Duration, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	cutoff := now.Add(-olderThan)
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE module = $1 AND created_at < $2`, module, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
