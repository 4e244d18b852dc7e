package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/sheets"
	"github.com/copytop/printshop/internal/shared"
)

type fakeRepo struct {
	mu         sync.Mutex
	orders     map[int64]Order
	papers     map[int64]*paper.Item
	nextID     int64
	nextNumber int64

	// afterGet, when set, runs after a read outside the lock. Tests use it
	// to line up concurrent lifecycle commands on the same stale snapshot.
	afterGet func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]Order{}, papers: map[int64]*paper.Item{}, nextID: 1, nextNumber: 1000}
}

func (f *fakeRepo) List(_ context.Context, filters ListFilters) ([]Order, int, error) {
	var out []Order
	for _, o := range f.orders {
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

func (f *fakeRepo) Get(_ context.Context, id int64) (Order, error) {
	f.mu.Lock()
	o, ok := f.orders[id]
	f.mu.Unlock()
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	if f.afterGet != nil {
		f.afterGet()
	}
	return o, nil
}

func (f *fakeRepo) Create(_ context.Context, o Order) (Order, error) {
	o.ID = f.nextID
	f.nextID++
	o.Number = f.nextNumber
	f.nextNumber++
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, o Order) error {
	existing, ok := f.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.ID = existing.ID
	o.Number = existing.Number
	o.State = existing.State
	o.Invoiced = existing.Invoiced
	o.InvoiceNumber = existing.InvoiceNumber
	o.InvoiceDate = existing.InvoiceDate
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeRepo) GetPaper(_ context.Context, id int64) (paper.Item, error) {
	it, ok := f.papers[id]
	if !ok {
		return paper.Item{}, shared.ErrNotFound
	}
	return *it, nil
}

func (f *fakeRepo) ApplyTransition(_ context.Context, order Order, from State, stockDelta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.State != from {
		return &InvalidTransitionError{OrderNumber: stored.Number, From: stored.State, To: order.State}
	}
	if stockDelta != 0 {
		item, ok := f.papers[order.PaperItemID]
		if !ok {
			return shared.ErrNotFound
		}
		newOnHand := item.OnHand + stockDelta
		if newOnHand < 0 {
			return &InsufficientStockError{
				OrderNumber: order.Number,
				PaperItemID: order.PaperItemID,
				Required:    -stockDelta,
				OnHand:      item.OnHand,
			}
		}
		item.OnHand = newOnHand
		item.RecomputeWeight()
	}
	stored.State = order.State
	stored.Invoiced = order.Invoiced
	stored.InvoiceNumber = order.InvoiceNumber
	stored.InvoiceDate = order.InvoiceDate
	f.orders[order.ID] = stored
	return nil
}

func testPaper() *paper.Item {
	it := &paper.Item{
		ID:           1,
		Name:         "DCP 90g",
		Format:       "70 x 100",
		Dim1:         70,
		Dim2:         100,
		Grammage:     90,
		OnHand:       100,
		FSCCertified: true,
		FSCInputCode: "P 2.1",
		FSCClaim:     "FSC Mix Credit",
	}
	it.RecomputeWeight()
	return it
}

func validInput() Input {
	return Input{
		ClientID:        1,
		PaperItemID:     1,
		Equipment:       "Accurio Press C6085",
		OrderDate:       time.Now(),
		JobName:         "Flyers spring sale",
		Description:     "A4 flyers, double sided",
		PrintRun:        500,
		Width:           210,
		Height:          297,
		Pages:           16,
		PagesPerSheet:   2,
		CorrectionIndex: 1.0,
		Colours:         "4 + 4",
		PressSheet:      "330 x 480 mm",
	}
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	repo.papers[1] = testPaper()
	return NewService(repo), repo
}

func TestCreateComputesDerivedFields(t *testing.T) {
	svc, _ := newTestService()

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, StateInProgress, order.State)
	require.Equal(t, int64(1000), order.Number)
	require.Equal(t, 4, order.YieldIndex)
	require.Equal(t, 2000, order.PressSheetsNeeded)
	require.Equal(t, 2000, order.TotalSheets)
	require.InDelta(t, 500.0, order.LargeSheetEquiv, 1e-9)
	require.InDelta(t, JobWeight(210, 297, 16, 1.0, 90, 500), order.Weight, 1e-9)
}

func TestCreateRejectsOddPages(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.Pages = 15
	_, err := svc.Create(context.Background(), in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateRejectsIncompatibleSheet(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.PressSheet = "A4 - 210 x 297 mm" // not cuttable from 70 x 100
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, sheets.ErrIncompatibleSheet)
}

func TestCreateRejectsFSCOnUncertifiedPaper(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].FSCCertified = false
	repo.papers[1].FSCInputCode = ""

	in := validInput()
	in.FSC = true
	in.FSCOutputCode = "P 8.4"
	_, err := svc.Create(context.Background(), in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestCreateBlocksImpossibleWeight(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.Width = 2100
	in.Height = 2970
	_, err := svc.Create(context.Background(), in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestFinalizeDebitsAndRevertCredits(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.InDelta(t, 500.0, order.Consumption(), 1e-9)

	// Finalize: 600 - 500 = 100
	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateFinalized, order.State)
	require.InDelta(t, 100.0, repo.papers[1].OnHand, 1e-9)

	// Revert restores exactly.
	order, err = svc.RevertToInProgress(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateInProgress, order.State)
	require.InDelta(t, 600.0, repo.papers[1].OnHand, 1e-9)

	// Finalize again.
	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateFinalized, order.State)
	require.InDelta(t, 100.0, repo.papers[1].OnHand, 1e-9)
}

func TestFinalizeInsufficientStockLeavesStateUntouched(t *testing.T) {
	svc, repo := newTestService()

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	repo.papers[1].OnHand = 5

	_, err = svc.Finalize(context.Background(), order.ID)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.InDelta(t, 500.0, stockErr.Required, 1e-9)
	require.InDelta(t, 5.0, stockErr.OnHand, 1e-9)

	require.Equal(t, 5.0, repo.papers[1].OnHand)
	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateInProgress, stored.State)
}

func TestScenarioFinalizeRevertFinalize(t *testing.T) {
	// on_hand=100, yield=4, total_sheets=40 -> consumption 10
	svc, repo := newTestService()
	repo.papers[1].OnHand = 100

	in := validInput()
	in.PrintRun = 10
	in.Pages = 16
	in.PagesPerSheet = 2 // needed = 40
	order, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 40, order.TotalSheets)
	require.InDelta(t, 10.0, order.Consumption(), 1e-9)

	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 90.0, repo.papers[1].OnHand, 1e-9)

	order, err = svc.RevertToInProgress(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 100.0, repo.papers[1].OnHand, 1e-9)

	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 90.0, repo.papers[1].OnHand, 1e-9)
	require.Equal(t, StateFinalized, order.State)
}

func TestConcurrentFinalizeDebitsStockOnce(t *testing.T) {
	// on_hand=100, consumption 10 per finalize
	svc, repo := newTestService()
	repo.papers[1].OnHand = 100

	in := validInput()
	in.PrintRun = 10
	in.PagesPerSheet = 2
	order, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	// Hold both requests until each has read the order as InProgress, like a
	// double-submitted finalize form.
	var reads sync.WaitGroup
	reads.Add(2)
	repo.afterGet = func() {
		reads.Done()
		reads.Wait()
	}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Finalize(context.Background(), order.ID)
			results <- err
		}()
	}

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			succeeded++
			continue
		}
		var transErr *InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		require.Equal(t, StateFinalized, transErr.From)
		rejected++
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, rejected)
	require.InDelta(t, 90.0, repo.papers[1].OnHand, 1e-9)

	repo.afterGet = nil
	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateFinalized, stored.State)
}

func TestMarkInvoicedRequiresFinalizedAndPrice(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	// InProgress -> Invoiced is disallowed.
	_, err = svc.MarkInvoiced(context.Background(), order.ID, "INV-1", time.Now())
	var transErr *InvalidTransitionError
	require.ErrorAs(t, err, &transErr)

	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)

	// No price yet.
	_, err = svc.MarkInvoiced(context.Background(), order.ID, "INV-1", time.Now())
	var priceErr *MissingPriceError
	require.ErrorAs(t, err, &priceErr)
	require.Equal(t, []int64{order.Number}, priceErr.OrderNumbers)

	require.NoError(t, svc.SetPrice(context.Background(), order.ID, 1500))

	invoiceDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	order, err = svc.MarkInvoiced(context.Background(), order.ID, "INV-1", invoiceDate)
	require.NoError(t, err)
	require.Equal(t, StateInvoiced, order.State)
	require.True(t, order.Invoiced)
	require.Equal(t, "INV-1", order.InvoiceNumber)
}

func TestCancelInvoiceKeepsStockDebited(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	order, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SetPrice(context.Background(), order.ID, 1500))
	order, err = svc.MarkInvoiced(context.Background(), order.ID, "INV-2", time.Now())
	require.NoError(t, err)

	onHandBefore := repo.papers[1].OnHand
	order, err = svc.CancelInvoice(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StateFinalized, order.State)
	require.False(t, order.Invoiced)
	require.Empty(t, order.InvoiceNumber)
	require.Nil(t, order.InvoiceDate)
	require.Equal(t, onHandBefore, repo.papers[1].OnHand)
}

func TestUpdateOnlyWhileInProgress(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), order.ID, validInput())
	require.ErrorIs(t, err, ErrNotEditable)

	_, err = svc.RevertToInProgress(context.Background(), order.ID)
	require.NoError(t, err)

	in := validInput()
	in.SurplusSheets = 40
	updated, err := svc.Update(context.Background(), order.ID, in)
	require.NoError(t, err)
	require.Equal(t, 2040, updated.TotalSheets)
	require.InDelta(t, 510.0, updated.LargeSheetEquiv, 1e-9)
	// Editing surplus while in progress never touches stock.
	require.Equal(t, 600.0, repo.papers[1].OnHand)
}

func TestDuplicateResetsSurplusAndInvoiceFields(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	in := validInput()
	in.PrintRun = 10
	in.PagesPerSheet = 2
	in.SurplusSheets = 5
	in.ClientRef = "PO-778"
	in.Price = 900
	order, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 45, order.TotalSheets)

	dup, err := svc.Duplicate(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotEqual(t, order.ID, dup.ID)
	require.Greater(t, dup.Number, order.Number)
	require.Equal(t, StateInProgress, dup.State)
	require.Zero(t, dup.SurplusSheets)
	require.Equal(t, 40, dup.TotalSheets)
	require.Empty(t, dup.ClientRef)
	require.Zero(t, dup.Price)
	require.False(t, dup.Invoiced)
	require.Empty(t, dup.InvoiceNumber)
}

func TestDeleteOnlyWhileInProgress(t *testing.T) {
	svc, repo := newTestService()
	repo.papers[1].OnHand = 600

	order, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), order.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), order.ID)
	var transErr *InvalidTransitionError
	require.ErrorAs(t, err, &transErr)

	_, err = svc.RevertToInProgress(context.Background(), order.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), order.ID))
}
