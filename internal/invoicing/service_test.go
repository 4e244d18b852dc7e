package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/copytop/printshop/internal/orders"
	"github.com/copytop/printshop/internal/shared"
)

type fakeLifecycle struct {
	byID map[int64]orders.Order
}

func newFakeLifecycle(list ...orders.Order) *fakeLifecycle {
	f := &fakeLifecycle{byID: map[int64]orders.Order{}}
	for _, o := range list {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeLifecycle) List(_ context.Context, filters orders.ListFilters) ([]orders.Order, int, error) {
	var out []orders.Order
	for _, o := range f.byID {
		if filters.ClientID > 0 && o.ClientID != filters.ClientID {
			continue
		}
		if filters.State != "" && o.State != filters.State {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeLifecycle) Get(_ context.Context, id int64) (orders.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return orders.Order{}, shared.ErrNotFound
	}
	return o, nil
}

func (f *fakeLifecycle) MarkInvoiced(_ context.Context, id int64, number string, date time.Time) (orders.Order, error) {
	o := f.byID[id]
	if o.State != orders.StateFinalized {
		return orders.Order{}, &orders.InvalidTransitionError{OrderNumber: o.Number, From: o.State, To: orders.StateInvoiced}
	}
	if !o.HasPrice() {
		return orders.Order{}, &orders.MissingPriceError{OrderNumbers: []int64{o.Number}}
	}
	o.State = orders.StateInvoiced
	o.Invoiced = true
	o.InvoiceNumber = number
	o.InvoiceDate = &date
	f.byID[id] = o
	return o, nil
}

func (f *fakeLifecycle) CancelInvoice(_ context.Context, id int64) (orders.Order, error) {
	o := f.byID[id]
	if o.State != orders.StateInvoiced {
		return orders.Order{}, &orders.InvalidTransitionError{OrderNumber: o.Number, From: o.State, To: orders.StateFinalized}
	}
	o.State = orders.StateFinalized
	o.Invoiced = false
	o.InvoiceNumber = ""
	o.InvoiceDate = nil
	f.byID[id] = o
	return o, nil
}

func finalizedOrder(id, number, clientID int64, price float64) orders.Order {
	return orders.Order{ID: id, Number: number, ClientID: clientID, State: orders.StateFinalized, Price: price}
}

func TestInvoiceBatchHappyPath(t *testing.T) {
	fake := newFakeLifecycle(
		finalizedOrder(1, 1001, 7, 350.50),
		finalizedOrder(2, 1002, 7, 149.50),
	)
	svc := NewService(fake)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	batch, err := svc.Invoice(context.Background(), 7, []int64{1, 2}, "INV-2026-14", date)
	require.NoError(t, err)
	require.Len(t, batch.Orders, 2)
	require.True(t, batch.Total.Equal(decimal.NewFromFloat(500.00)), "got total %s", batch.Total)

	for _, id := range []int64{1, 2} {
		o := fake.byID[id]
		require.Equal(t, orders.StateInvoiced, o.State)
		require.Equal(t, "INV-2026-14", o.InvoiceNumber)
		require.True(t, o.Invoiced)
	}
}

func TestInvoiceRejectsWholeBatchOnMissingPrice(t *testing.T) {
	fake := newFakeLifecycle(
		finalizedOrder(1, 1001, 7, 350),
		finalizedOrder(2, 1002, 7, 0),
		finalizedOrder(3, 1003, 7, 0),
	)
	svc := NewService(fake)

	_, err := svc.Invoice(context.Background(), 7, []int64{1, 2, 3}, "INV-1", time.Now())
	var priceErr *orders.MissingPriceError
	require.ErrorAs(t, err, &priceErr)
	require.Equal(t, []int64{1002, 1003}, priceErr.OrderNumbers)

	// Nothing was invoiced, including the priced order.
	for _, o := range fake.byID {
		require.Equal(t, orders.StateFinalized, o.State)
		require.Empty(t, o.InvoiceNumber)
	}
}

func TestInvoiceRejectsForeignAndNonFinalizedOrders(t *testing.T) {
	other := finalizedOrder(2, 1002, 9, 100)
	inProgress := orders.Order{ID: 3, Number: 1003, ClientID: 7, State: orders.StateInProgress, Price: 100}
	fake := newFakeLifecycle(finalizedOrder(1, 1001, 7, 100), other, inProgress)
	svc := NewService(fake)

	_, err := svc.Invoice(context.Background(), 7, []int64{1, 2}, "INV-1", time.Now())
	require.Error(t, err)

	_, err = svc.Invoice(context.Background(), 7, []int64{1, 3}, "INV-1", time.Now())
	var transErr *orders.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestCancelInvoice(t *testing.T) {
	fake := newFakeLifecycle(finalizedOrder(1, 1001, 7, 100))
	svc := NewService(fake)

	_, err := svc.Invoice(context.Background(), 7, []int64{1}, "INV-1", time.Now())
	require.NoError(t, err)

	order, err := svc.Cancel(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, orders.StateFinalized, order.State)
	require.Empty(t, order.InvoiceNumber)
}

func TestCandidates(t *testing.T) {
	fake := newFakeLifecycle(
		finalizedOrder(1, 1001, 7, 100),
		orders.Order{ID: 2, Number: 1002, ClientID: 7, State: orders.StateInProgress},
	)
	svc := NewService(fake)

	list, err := svc.Candidates(context.Background(), 7, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1001), list[0].Number)
}
