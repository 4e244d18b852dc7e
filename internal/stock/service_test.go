package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/shared"
)

type fakeRepo struct {
	items   map[int64]*paper.Item
	entries map[int64]Entry
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]*paper.Item{}, entries: map[int64]Entry{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, paperItemID int64, _, _ time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if paperItemID == 0 || e.PaperItemID == paperItemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) RecordReceipt(_ context.Context, entry Entry) (Entry, error) {
	item, ok := f.items[entry.PaperItemID]
	if !ok {
		return Entry{}, shared.ErrNotFound
	}
	item.OnHand += entry.Quantity
	item.RecomputeWeight()
	entry.ID = f.nextID
	f.nextID++
	f.entries[entry.ID] = entry
	return entry, nil
}

func (f *fakeRepo) ReverseEntry(_ context.Context, id int64) error {
	e, ok := f.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	item := f.items[e.PaperItemID]
	if item.OnHand < e.Quantity {
		return &ReversalError{EntryID: id, OnHand: item.OnHand, Quantity: e.Quantity}
	}
	item.OnHand -= e.Quantity
	item.RecomputeWeight()
	delete(f.entries, id)
	return nil
}

func TestRecordReceiptIncrementsStockAndWeight(t *testing.T) {
	repo := newFakeRepo()
	repo.items[1] = &paper.Item{ID: 1, Dim1: 70, Dim2: 100, Grammage: 80, OnHand: 100}
	svc := NewService(repo)

	entry, err := svc.RecordReceipt(context.Background(), Entry{
		PaperItemID: 1, Quantity: 50, Supplier: "Antalis", InvoiceNumber: "F-100",
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.False(t, entry.ReceivedAt.IsZero())
	require.Regexp(t, `^REC-[0-9A-F]{8}$`, entry.Code)

	require.Equal(t, 150.0, repo.items[1].OnHand)
	require.InDelta(t, paper.SheetWeight(70, 100, 80, 150), repo.items[1].Weight, 1e-9)

	// Each receipt gets its own code.
	second, err := svc.RecordReceipt(context.Background(), Entry{
		PaperItemID: 1, Quantity: 10, Supplier: "Antalis", InvoiceNumber: "F-101",
	})
	require.NoError(t, err)
	require.NotEqual(t, entry.Code, second.Code)
}

func TestRecordReceiptValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.RecordReceipt(context.Background(), Entry{PaperItemID: 1, Quantity: 0, Supplier: "A", InvoiceNumber: "F"})
	require.Error(t, err)

	_, err = svc.RecordReceipt(context.Background(), Entry{PaperItemID: 1, Quantity: -5, Supplier: "A", InvoiceNumber: "F"})
	require.Error(t, err)

	_, err = svc.RecordReceipt(context.Background(), Entry{PaperItemID: 1, Quantity: 10, InvoiceNumber: "F"})
	require.Error(t, err)
}

func TestReverseEntryRestoresStock(t *testing.T) {
	repo := newFakeRepo()
	repo.items[1] = &paper.Item{ID: 1, Dim1: 70, Dim2: 100, Grammage: 80, OnHand: 0}
	svc := NewService(repo)

	entry, err := svc.RecordReceipt(context.Background(), Entry{
		PaperItemID: 1, Quantity: 40, Supplier: "Antalis", InvoiceNumber: "F-101",
	})
	require.NoError(t, err)
	require.Equal(t, 40.0, repo.items[1].OnHand)

	require.NoError(t, svc.ReverseEntry(context.Background(), entry.ID))
	require.Equal(t, 0.0, repo.items[1].OnHand)
	require.Zero(t, repo.items[1].Weight)
}

func TestReverseEntryGuardedWhenConsumed(t *testing.T) {
	repo := newFakeRepo()
	repo.items[1] = &paper.Item{ID: 1, Dim1: 70, Dim2: 100, Grammage: 80, OnHand: 0}
	svc := NewService(repo)

	entry, err := svc.RecordReceipt(context.Background(), Entry{
		PaperItemID: 1, Quantity: 40, Supplier: "Antalis", InvoiceNumber: "F-102",
	})
	require.NoError(t, err)

	// Simulate consumption by a finalized order.
	repo.items[1].OnHand = 10

	err = svc.ReverseEntry(context.Background(), entry.ID)
	var revErr *ReversalError
	require.ErrorAs(t, err, &revErr)
	require.Equal(t, 10.0, repo.items[1].OnHand)
}
