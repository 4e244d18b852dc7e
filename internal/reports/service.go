// Package reports provides read-only aggregations over orders and the paper
// catalog: consumption by paper sort, revenue by client, stock snapshots.
// Results are cached in Redis and deduplicated with singleflight.
package reports

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

type Service struct {
	queries Queries
	cache   *Cache
	group   singleflight.Group
}

func NewService(queries Queries, cache *Cache) *Service {
	return &Service{queries: queries, cache: cache}
}

// Consumption returns paper consumption aggregates for the date range.
// An empty range yields an empty report, not an error.
func (s *Service) Consumption(ctx context.Context, from, to time.Time) ([]ConsumptionRow, error) {
	from, to = normalizeRange(from, to)
	key, err := s.cache.BuildKey(ctx, "reports", "consumption", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	var out []ConsumptionRow
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.queries.Consumption(ctx, from, to)
	})
	return out, err
}

// Revenue returns invoiced totals per client for the date range.
func (s *Service) Revenue(ctx context.Context, from, to time.Time) ([]RevenueRow, error) {
	from, to = normalizeRange(from, to)
	key, err := s.cache.BuildKey(ctx, "reports", "revenue", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	var out []RevenueRow
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.queries.Revenue(ctx, from, to)
	})
	return out, err
}

// StockSnapshot returns the current stock state of every paper sort.
func (s *Service) StockSnapshot(ctx context.Context) ([]StockRow, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "stock")
	if err != nil {
		return nil, err
	}

	var out []StockRow
	err = s.fetch(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.queries.StockSnapshot(ctx)
	})
	return out, err
}

// Invalidate drops all cached reports. Called after mutations that change
// the underlying aggregates.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// fetch funnels concurrent identical report requests into one query. The
// shared flight carries raw JSON so every caller can decode into its own
// destination.
func (s *Service) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	v, err, _ := s.group.Do(key, func() (any, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	return from, to
}
