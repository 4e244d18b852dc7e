package paper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copytop/printshop/internal/shared"
)

type fakeRepo struct {
	items  map[int64]Item
	orders map[int64]bool
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]Item{}, orders: map[int64]bool{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, _ ListFilters) ([]Item, int, error) {
	out := make([]Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return it, nil
}

func (f *fakeRepo) Create(_ context.Context, it Item) (Item, error) {
	it.ID = f.nextID
	f.nextID++
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, it Item) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	it.ID = id
	f.items[id] = it
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) HasOrders(_ context.Context, id int64) (bool, error) {
	return f.orders[id], nil
}

func TestSheetWeight(t *testing.T) {
	// 70x100 cm, 80 g/m2, 1000 sheets: 70*100*80*1000/1e7 = 56 kg
	require.InDelta(t, 56.0, SheetWeight(70, 100, 80, 1000), 1e-9)
	require.Zero(t, SheetWeight(70, 100, 80, 0))
}

func TestCreateDerivesDimensionsAndWeight(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, err := svc.Create(context.Background(), Item{
		Name:     "DCP 100g",
		Format:   "SRA3",
		Grammage: 100,
		OnHand:   500,
	})
	require.NoError(t, err)
	require.Equal(t, 32.0, created.Dim1)
	require.Equal(t, 45.0, created.Dim2)
	require.InDelta(t, SheetWeight(32, 45, 100, 500), created.Weight, 1e-9)
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Item{Name: "X", Format: "B5", Grammage: 80})
	require.Error(t, err)
}

func TestCreateValidatesFSCFields(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Item{
		Name: "X", Format: "A4", Grammage: 80,
		FSCCertified: true, FSCInputCode: "P 9.9", FSCClaim: "FSC Mix Credit",
	})
	require.Error(t, err)

	created, err := svc.Create(context.Background(), Item{
		Name: "X", Format: "A4", Grammage: 80,
		FSCCertified: true, FSCInputCode: "P 2.1", FSCClaim: "FSC Mix Credit",
	})
	require.NoError(t, err)
	require.True(t, created.CanProduceFSC())
}

func TestFSCFieldsClearedWhenNotCertified(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, err := svc.Create(context.Background(), Item{
		Name: "X", Format: "A4", Grammage: 80,
		FSCCertified: false, FSCInputCode: "P 2.1", FSCClaim: "FSC Mix Credit",
	})
	require.NoError(t, err)
	require.Empty(t, created.FSCInputCode)
	require.Empty(t, created.FSCClaim)
	require.False(t, created.CanProduceFSC())
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Item{Name: "X", Format: "A4", Grammage: 80})
	require.NoError(t, err)

	repo.orders[created.ID] = true
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrPaperInUse)

	repo.orders[created.ID] = false
	require.NoError(t, svc.Delete(context.Background(), created.ID))
}
