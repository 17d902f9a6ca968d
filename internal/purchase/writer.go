package purchase

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Store opens units of work for the writer. Everything done through the TxStore passed
// to fn is committed together or not at all.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxStore is the write surface available inside one unit of work.
type TxStore interface {
	InsertHeader(ctx context.Context, h Header) (id int64, createdAt time.Time, err error)
	InsertDetail(ctx context.Context, d Detail) error
	UpdateTotal(ctx context.Context, id, total int64) error
}

// Writer records a transaction header and its details atomically.
type Writer struct {
	store Store
}

// NewWriter constructs a Writer.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// Record inserts the header with a zero total, one detail per item numbered from 1 in
// input order, then sets the header total to the sum of item prices. An empty item list
// records a zero-total transaction.
func (w *Writer) Record(ctx context.Context, header Header, items []Item) (Receipt, error) {
	if err := checkTotal(items); err != nil {
		return Receipt{}, err
	}

	var receipt Receipt
	err := w.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, createdAt, err := tx.InsertHeader(ctx, header)
		if err != nil {
			return fmt.Errorf("insert header: %w", err)
		}

		var total int64
		for i, item := range items {
			detail := Detail{
				TransactionID: id,
				LineNo:        i + 1,
				ProductID:     item.ProductID,
				ProductCode:   item.Code,
				ProductName:   item.Name,
				ProductPrice:  item.Price,
			}
			if err := tx.InsertDetail(ctx, detail); err != nil {
				return fmt.Errorf("insert line %d: %w", detail.LineNo, err)
			}
			total += item.Price
		}

		if err := tx.UpdateTotal(ctx, id, total); err != nil {
			return fmt.Errorf("update total: %w", err)
		}

		receipt = Receipt{
			TransactionID: id,
			TotalAmount:   total,
			ItemCount:     len(items),
			StoreCode:     header.StoreCode,
			RegisterID:    header.RegisterID,
			CreatedAt:     createdAt,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return receipt, nil
}

func checkTotal(items []Item) error {
	var total int64
	for i, item := range items {
		if item.Price < 0 {
			return fmt.Errorf("%w: line %d has a negative price", ErrValidation, i+1)
		}
		if total > math.MaxInt64-item.Price {
			return fmt.Errorf("%w: total amount overflows", ErrValidation)
		}
		total += item.Price
	}
	return nil
}
