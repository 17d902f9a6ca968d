package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posapp/pos-backend/internal/platform/db"
)

func newMockStore(t *testing.T) (*IdempotencyStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewIdempotencyStore(mock), mock
}

func TestCheckAndInsertClaimsKey(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("purchase:10", "daily_sales").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CheckAndInsert(context.Background(), "purchase:10", "daily_sales"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAndInsertDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("purchase:10", "daily_sales").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := store.CheckAndInsert(context.Background(), "purchase:10", "daily_sales")
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAndInsertUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("purchase:10", "daily_sales").
		WillReturnError(&pgconn.PgError{Code: db.CodeUniqueViolation})

	err := store.CheckAndInsert(context.Background(), "purchase:10", "daily_sales")
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestCheckAndInsertRequiresKeyAndModule(t *testing.T) {
	store, _ := newMockStore(t)
	assert.Error(t, store.CheckAndInsert(context.Background(), "", "daily_sales"))
	assert.Error(t, store.CheckAndInsert(context.Background(), "purchase:10", ""))

	var nilStore *IdempotencyStore
	assert.Error(t, nilStore.CheckAndInsert(context.Background(), "k", "m"))
}

func TestCleanupRemovesExpiredKeys(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM idempotency_keys").
		WithArgs("daily_sales", now.Add(-30*24*time.Hour)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	removed, err := store.Cleanup(context.Background(), "daily_sales", 30*24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
