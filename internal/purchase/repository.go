package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/posapp/pos-backend/internal/platform/db"
)

// ErrUnknownProduct is returned by InsertDetail when the referenced product row does not
// exist.
var ErrUnknownProduct = errors.New("purchase: referenced product does not exist")

// Repository persists transactions in PostgreSQL.
type Repository struct {
	pool db.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// WithTx runs fn inside one RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertHeader(ctx context.Context, h Header) (int64, time.Time, error) {
	const query = `INSERT INTO transactions (employee_code, store_code, register_id, total_amount)
VALUES ($1, $2, $3, 0)
RETURNING id, created_at`
	var (
		id        int64
		createdAt time.Time
	)
	if err := t.tx.QueryRow(ctx, query, h.EmployeeCode, h.StoreCode, h.RegisterID).Scan(&id, &createdAt); err != nil {
		return 0, time.Time{}, err
	}
	return id, createdAt, nil
}

func (t *txRepo) InsertDetail(ctx context.Context, d Detail) error {
	const query = `INSERT INTO transaction_details
    (transaction_id, line_no, product_id, product_code, product_name, product_price)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.Exec(ctx, query, d.TransactionID, d.LineNo, d.ProductID, d.ProductCode, d.ProductName, d.ProductPrice)
	if err != nil {
		if db.HasCode(err, db.CodeForeignKeyViolation) {
			return fmt.Errorf("%w: product id %d: %w", ErrUnknownProduct, d.ProductID, err)
		}
		return err
	}
	return nil
}

func (t *txRepo) UpdateTotal(ctx context.Context, id, total int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET total_amount = $1 WHERE id = $2`, total, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("transaction %d vanished before total update", id)
	}
	return nil
}

// GetTransaction loads a committed transaction with its details ordered by line number.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	const header = `SELECT id, created_at, employee_code, store_code, register_id, total_amount
FROM transactions WHERE id = $1`
	var txn Transaction
	err := r.pool.QueryRow(ctx, header, id).Scan(
		&txn.ID, &txn.CreatedAt, &txn.EmployeeCode, &txn.StoreCode, &txn.RegisterID, &txn.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, fmt.Errorf("purchase: get transaction %d: %w", id, err)
	}

	const details = `SELECT transaction_id, line_no, product_id, product_code, product_name, product_price
FROM transaction_details WHERE transaction_id = $1 ORDER BY line_no`
	rows, err := r.pool.Query(ctx, details, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("purchase: list details %d: %w", id, err)
	}
	defer rows.Close()

	txn.Details = []Detail{}
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.TransactionID, &d.LineNo, &d.ProductID, &d.ProductCode, &d.ProductName, &d.ProductPrice); err != nil {
			return Transaction{}, fmt.Errorf("purchase: scan detail: %w", err)
		}
		txn.Details = append(txn.Details, d)
	}
	if err := rows.Err(); err != nil {
		return Transaction{}, fmt.Errorf("purchase: list details %d: %w", id, err)
	}
	return txn, nil
}
