package purchase

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{ProductID: 1, Code: "4901234567890", Name: "ソフコン", Price: 300},
		{ProductID: 2, Code: "4901234567891", Name: "福島県ほうれん草", Price: 188},
	}
}

func TestRecordWritesHeaderDetailsAndTotal(t *testing.T) {
	store := newMemStore()
	w := NewWriter(store)

	receipt, err := w.Record(context.Background(), Header{EmployeeCode: UnassignedEmployee, StoreCode: "01", RegisterID: "001"}, sampleItems())
	require.NoError(t, err)
	assert.Equal(t, int64(488), receipt.TotalAmount)
	assert.Equal(t, 2, receipt.ItemCount)
	assert.Positive(t, receipt.TransactionID)
	assert.False(t, receipt.CreatedAt.IsZero())

	txn, err := store.GetTransaction(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, UnassignedEmployee, txn.EmployeeCode)
	assert.Equal(t, "01", txn.StoreCode)
	assert.Equal(t, "001", txn.RegisterID)
	assert.Equal(t, int64(488), txn.TotalAmount)
	require.Len(t, txn.Details, 2)
	assert.Equal(t, Detail{TransactionID: txn.ID, LineNo: 1, ProductID: 1, ProductCode: "4901234567890", ProductName: "ソフコン", ProductPrice: 300}, txn.Details[0])
	assert.Equal(t, Detail{TransactionID: txn.ID, LineNo: 2, ProductID: 2, ProductCode: "4901234567891", ProductName: "福島県ほうれん草", ProductPrice: 188}, txn.Details[1])
}

func TestRecordRollsBackWhenDetailFails(t *testing.T) {
	store := newMemStore()
	store.failDetailAt = 2
	w := NewWriter(store)
	items := append(sampleItems(), Item{ProductID: 3, Code: "4901234567892", Name: "タイガー歯ブラシ青", Price: 200})

	receipt, err := w.Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, items)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, Receipt{}, receipt)
	assert.Empty(t, store.all())
	assert.Equal(t, []int{1, 2}, store.attemptedLines)
	assert.Zero(t, store.totalUpdates)
}

func TestRecordUnknownProductIsStorageFailure(t *testing.T) {
	store := newMemStore().withProducts(1)
	w := NewWriter(store)

	_, err := w.Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, sampleItems())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Empty(t, store.all())
}

func TestRecordCommitFailureLeavesNothing(t *testing.T) {
	store := newMemStore()
	store.failCommit = true

	_, err := NewWriter(store).Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, sampleItems())
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errCommit)
	assert.Empty(t, store.all())
}

func TestRecordBeginFailure(t *testing.T) {
	store := newMemStore()
	store.beginErr = errors.New("pool exhausted")

	_, err := NewWriter(store).Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, sampleItems())
	assert.ErrorIs(t, err, ErrStorage)
}

func TestRecordEmptyItemsRecordsZeroTotal(t *testing.T) {
	store := newMemStore()

	receipt, err := NewWriter(store).Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.TotalAmount)

	txn, err := store.GetTransaction(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Empty(t, txn.Details)
	assert.Equal(t, int64(0), txn.TotalAmount)
}

func TestRecordRejectsBadPricesBeforeStorage(t *testing.T) {
	cases := map[string][]Item{
		"negative": {{ProductID: 1, Code: "a", Price: -1}},
		"overflow": {{ProductID: 1, Code: "a", Price: math.MaxInt64}, {ProductID: 1, Code: "a", Price: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			_, err := NewWriter(store).Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, items)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, store.nextID)
		})
	}
}

func TestRecordLineNumbersAndTotalProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	store := newMemStore()
	w := NewWriter(store)

	for round := 0; round < 50; round++ {
		n := rng.IntN(12)
		items := make([]Item, n)
		var want int64
		for i := range items {
			items[i] = Item{ProductID: int64(rng.IntN(4) + 1), Code: "c", Name: "n", Price: rng.Int64N(10_000)}
			want += items[i].Price
		}

		receipt, err := w.Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, items)
		require.NoError(t, err)
		assert.Equal(t, want, receipt.TotalAmount)

		txn, err := store.GetTransaction(context.Background(), receipt.TransactionID)
		require.NoError(t, err)
		require.Len(t, txn.Details, n)
		var sum int64
		for i, d := range txn.Details {
			assert.Equal(t, i+1, d.LineNo)
			assert.Equal(t, items[i].Price, d.ProductPrice)
			sum += d.ProductPrice
		}
		assert.Equal(t, txn.TotalAmount, sum)
	}
}

func TestRecordConcurrentCallsGetDistinctIDs(t *testing.T) {
	const n = 32
	store := newMemStore()
	w := NewWriter(store)

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipt, err := w.Record(context.Background(), Header{StoreCode: "01", RegisterID: "001"}, sampleItems())
			if assert.NoError(t, err) {
				ids[i] = receipt.TransactionID
			}
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	committed := store.all()
	assert.Len(t, committed, n)
	for _, txn := range committed {
		assert.Equal(t, int64(488), txn.TotalAmount)
		assert.Len(t, txn.Details, 2)
	}
}
