package purchase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/posapp/pos-backend/internal/platform/db"
)

var errCommit = errors.New("commit refused")

// memStore is an in-memory Store. Writes are staged per unit of work and only become
// visible when fn returns nil and the commit succeeds. Ids are never reused, mirroring a
// sequence that keeps advancing on rollback.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	committed map[int64]Transaction
	products  map[int64]bool

	failDetailAt int
	failCommit   bool
	beginErr     error

	attemptedLines []int
	totalUpdates   int
}

func newMemStore() *memStore {
	return &memStore{committed: map[int64]Transaction{}}
}

// withProducts restricts valid product ids; unknown ids fail like a foreign key.
func (m *memStore) withProducts(ids ...int64) *memStore {
	m.products = map[int64]bool{}
	for _, id := range ids {
		m.products[id] = true
	}
	return m
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	tx := &memTx{store: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCommit {
		return errCommit
	}
	if tx.txn != nil {
		m.committed[tx.txn.ID] = *tx.txn
	}
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id int64) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.committed[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return txn, nil
}

func (m *memStore) all() []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transaction, 0, len(m.committed))
	for _, txn := range m.committed {
		out = append(out, txn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) allocate() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}

type memTx struct {
	store *memStore
	txn   *Transaction
}

func (t *memTx) InsertHeader(_ context.Context, h Header) (int64, time.Time, error) {
	if t.txn != nil {
		return 0, time.Time{}, errors.New("header already inserted")
	}
	id := t.store.allocate()
	t.txn = &Transaction{
		ID:           id,
		CreatedAt:    time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		EmployeeCode: h.EmployeeCode,
		StoreCode:    h.StoreCode,
		RegisterID:   h.RegisterID,
		Details:      []Detail{},
	}
	return id, t.txn.CreatedAt, nil
}

func (t *memTx) InsertDetail(_ context.Context, d Detail) error {
	if t.txn == nil || d.TransactionID != t.txn.ID {
		return fmt.Errorf("detail for unknown transaction %d", d.TransactionID)
	}
	t.store.mu.Lock()
	t.store.attemptedLines = append(t.store.attemptedLines, d.LineNo)
	t.store.mu.Unlock()
	if t.store.failDetailAt == d.LineNo {
		return errors.New("connection reset")
	}
	if t.store.products != nil && !t.store.products[d.ProductID] {
		return fmt.Errorf("%w: %w", ErrUnknownProduct, &pgconn.PgError{Code: db.CodeForeignKeyViolation})
	}
	t.txn.Details = append(t.txn.Details, d)
	return nil
}

func (t *memTx) UpdateTotal(_ context.Context, id, total int64) error {
	if t.txn == nil || t.txn.ID != id {
		return fmt.Errorf("transaction %d not found", id)
	}
	t.store.mu.Lock()
	t.store.totalUpdates++
	t.store.mu.Unlock()
	t.txn.TotalAmount = total
	return nil
}
