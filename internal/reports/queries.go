package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ConsumptionRow aggregates paper consumed by finalized and invoiced orders.
type ConsumptionRow struct {
	PaperItemID int64   `json:"paper_item_id"`
	PaperName   string  `json:"paper_name"`
	Format      string  `json:"format"`
	Orders      int     `json:"orders"`
	LargeSheets float64 `json:"large_sheets"`
	WeightKg    float64 `json:"weight_kg"`
}

// RevenueRow aggregates invoiced totals per client. The total is decimal so
// summing many order prices cannot drift.
type RevenueRow struct {
	ClientID   int64           `json:"client_id"`
	ClientName string          `json:"client_name"`
	Orders     int             `json:"orders"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// StockRow is a point-in-time stock snapshot line.
type StockRow struct {
	PaperItemID int64   `json:"paper_item_id"`
	PaperName   string  `json:"paper_name"`
	Format      string  `json:"format"`
	Grammage    float64 `json:"grammage"`
	OnHand      float64 `json:"on_hand"`
	WeightKg    float64 `json:"weight_kg"`
}

type Queries interface {
	Consumption(ctx context.Context, from, to time.Time) ([]ConsumptionRow, error)
	Revenue(ctx context.Context, from, to time.Time) ([]RevenueRow, error)
	StockSnapshot(ctx context.Context) ([]StockRow, error)
}

type queries struct {
	pool *pgxpool.Pool
}

func NewQueries(pool *pgxpool.Pool) Queries {
	return &queries{pool: pool}
}

// Consumption sums large-sheet equivalents across orders that actually
// debited stock, i.e. finalized or invoiced, with an order date in range.
func (q *queries) Consumption(ctx context.Context, from, to time.Time) ([]ConsumptionRow, error) {
	const query = `
		SELECT p.id, p.name, p.format, COUNT(o.id),
		       COALESCE(SUM(o.large_sheet_equiv), 0),
		       COALESCE(SUM(p.dim1 * p.dim2 * p.grammage * o.large_sheet_equiv / 1e7), 0)
		FROM orders o
		JOIN paper_items p ON p.id = o.paper_item_id
		WHERE o.state IN ('finalized', 'invoiced')
		  AND o.order_date >= $1 AND o.order_date <= $2
		GROUP BY p.id, p.name, p.format
		ORDER BY 5 DESC`
	rows, err := q.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConsumptionRow
	for rows.Next() {
		var r ConsumptionRow
		if err := rows.Scan(&r.PaperItemID, &r.PaperName, &r.Format, &r.Orders, &r.LargeSheets, &r.WeightKg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *queries) Revenue(ctx context.Context, from, to time.Time) ([]RevenueRow, error) {
	const query = `
		SELECT c.id, c.name, COUNT(o.id), COALESCE(SUM(o.price), 0)::text
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.state = 'invoiced'
		  AND o.invoice_date >= $1 AND o.invoice_date <= $2
		GROUP BY c.id, c.name
		ORDER BY COALESCE(SUM(o.price), 0) DESC`
	rows, err := q.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RevenueRow
	for rows.Next() {
		var r RevenueRow
		var total string
		if err := rows.Scan(&r.ClientID, &r.ClientName, &r.Orders, &total); err != nil {
			return nil, err
		}
		if r.Revenue, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *queries) StockSnapshot(ctx context.Context) ([]StockRow, error) {
	const query = `
		SELECT id, name, format, grammage, on_hand, weight
		FROM paper_items
		ORDER BY name ASC`
	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var r StockRow
		if err := rows.Scan(&r.PaperItemID, &r.PaperName, &r.Format, &r.Grammage, &r.OnHand, &r.WeightKg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
