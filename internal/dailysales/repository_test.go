package dailysales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func sampleEntry() Entry {
	return Entry{
		TransactionID: 10,
		StoreCode:     "01",
		ItemCount:     2,
		TotalAmount:   488,
		RecordedAt:    time.Date(2026, 10, 18, 23, 15, 0, 0, time.UTC),
	}
}

func TestApplyFoldsNewTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("transaction:10", IdempotencyModule).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO daily_sales").
		WithArgs("01", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), int64(2), int64(488)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	applied, err := repo.Apply(context.Background(), sampleEntry())

	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySkipsRepeatedTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("transaction:10", IdempotencyModule).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	applied, err := repo.Apply(context.Background(), sampleEntry())

	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRollsBackOnUpsertFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs("transaction:10", IdempotencyModule).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO daily_sales").
		WithArgs("01", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), int64(2), int64(488)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	applied, err := repo.Apply(context.Background(), sampleEntry())

	require.Error(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRejectsIncompleteEntry(t *testing.T) {
	repo, mock := newMockRepository(t)
	entry := sampleEntry()
	entry.StoreCode = ""

	_, err := repo.Apply(context.Background(), entry)

	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStore(t *testing.T) {
	repo, mock := newMockRepository(t)
	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 10, 18, 23, 15, 1, 0, time.UTC)
	mock.ExpectQuery("FROM daily_sales").
		WithArgs("01", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"store_code", "business_date", "transaction_count", "item_count", "total_amount", "updated_at"}).
			AddRow("01", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), int64(3), int64(7), int64(1290), updated).
			AddRow("01", to, int64(1), int64(2), int64(488), updated))

	days, err := repo.ListByStore(context.Background(), "01", from, to)

	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-10-17", days[0].Date)
	assert.Equal(t, int64(1290), days[0].TotalAmount)
	assert.Equal(t, "2026-10-18", days[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessDateUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	got := BusinessDate(time.Date(2026, 10, 19, 8, 0, 0, 0, tokyo))
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), got)
}
