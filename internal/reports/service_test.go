package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeQueries struct {
	consumptionCalls int
	revenueCalls     int
	stockCalls       int
}

func (f *fakeQueries) Consumption(_ context.Context, _, _ time.Time) ([]ConsumptionRow, error) {
	f.consumptionCalls++
	return []ConsumptionRow{{PaperItemID: 1, PaperName: "DCP 90g", Format: "70 x 100", Orders: 3, LargeSheets: 120, WeightKg: 75.6}}, nil
}

func (f *fakeQueries) Revenue(_ context.Context, _, _ time.Time) ([]RevenueRow, error) {
	f.revenueCalls++
	return []RevenueRow{{ClientID: 7, ClientName: "Acme", Orders: 2, Revenue: decimal.NewFromFloat(512.50)}}, nil
}

func (f *fakeQueries) StockSnapshot(_ context.Context) ([]StockRow, error) {
	f.stockCalls++
	return []StockRow{{PaperItemID: 1, PaperName: "DCP 90g", OnHand: 480, WeightKg: 302.4}}, nil
}

func newTestService(t *testing.T) (*Service, *fakeQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	queries := &fakeQueries{}
	return NewService(queries, NewCache(client, time.Minute)), queries
}

func TestConsumptionIsCached(t *testing.T) {
	svc, queries := newTestService(t)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	first, err := svc.Consumption(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, queries.consumptionCalls)

	second, err := svc.Consumption(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, queries.consumptionCalls, "second read must hit the cache")
}

func TestInvalidateBumpsVersion(t *testing.T) {
	svc, queries := newTestService(t)
	ctx := context.Background()

	_, err := svc.StockSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, queries.stockCalls)

	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.StockSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, queries.stockCalls, "invalidation must force a reload")
}

func TestRevenueTotalSurvivesCacheRoundTrip(t *testing.T) {
	svc, queries := newTestService(t)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	first, err := svc.Revenue(ctx, from, to)
	require.NoError(t, err)

	cached, err := svc.Revenue(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, 1, queries.revenueCalls)
	require.True(t, cached[0].Revenue.Equal(decimal.NewFromFloat(512.50)))
	require.True(t, cached[0].Revenue.Equal(first[0].Revenue))
}

func TestDistinctRangesUseDistinctKeys(t *testing.T) {
	svc, queries := newTestService(t)
	ctx := context.Background()

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	_, err := svc.Revenue(ctx, from, to)
	require.NoError(t, err)
	_, err = svc.Revenue(ctx, from.AddDate(0, 1, 0), to.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Equal(t, 2, queries.revenueCalls)
}
