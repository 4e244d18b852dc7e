package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/platform/db"
	"github.com/copytop/printshop/internal/shared"
)

type Repository interface {
	List(ctx context.Context, paperItemID int64, from, to time.Time) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	RecordReceipt(ctx context.Context, entry Entry) (Entry, error)
	ReverseEntry(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, paperItemID int64, from, to time.Time) ([]Entry, error) {
	query := `
		SELECT e.id, e.code, e.paper_item_id, e.quantity, e.supplier, e.invoice_number,
		       e.cert_code, e.received_at, e.created_at, p.name
		FROM stock_entries e
		JOIN paper_items p ON p.id = e.paper_item_id
		WHERE ($1 = 0 OR e.paper_item_id = $1)
		  AND e.received_at >= $2 AND e.received_at <= $3
		ORDER BY e.received_at DESC, e.id DESC`
	rows, err := r.pool.Query(ctx, query, paperItemID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Code, &e.PaperItemID, &e.Quantity, &e.Supplier, &e.InvoiceNumber,
			&e.CertCode, &e.ReceivedAt, &e.CreatedAt, &e.PaperName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	query := `
		SELECT id, code, paper_item_id, quantity, supplier, invoice_number, cert_code, received_at, created_at
		FROM stock_entries WHERE id = $1`
	var e Entry
	err := r.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Code, &e.PaperItemID, &e.Quantity,
		&e.Supplier, &e.InvoiceNumber, &e.CertCode, &e.ReceivedAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrNotFound
	}
	return e, err
}

// RecordReceipt appends a ledger entry and increments the paper item's stock
// in one transaction. The paper row is locked to keep the derived weight
// consistent under concurrent finalizations.
func (r *repository) RecordReceipt(ctx context.Context, entry Entry) (Entry, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var dim1, dim2, grammage, onHand float64
		err := tx.QueryRow(ctx,
			`SELECT dim1, dim2, grammage, on_hand FROM paper_items WHERE id = $1 FOR UPDATE`,
			entry.PaperItemID).Scan(&dim1, &dim2, &grammage, &onHand)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}

		newOnHand := onHand + entry.Quantity
		weight := paper.SheetWeight(dim1, dim2, grammage, newOnHand)
		if _, err := tx.Exec(ctx,
			`UPDATE paper_items SET on_hand = $1, weight = $2, updated_at = now() WHERE id = $3`,
			newOnHand, weight, entry.PaperItemID); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.QueryRow(ctx, `
			INSERT INTO stock_entries (code, paper_item_id, quantity, supplier, invoice_number, cert_code, received_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			entry.Code, entry.PaperItemID, entry.Quantity, entry.Supplier, entry.InvoiceNumber,
			entry.CertCode, entry.ReceivedAt, now).Scan(&entry.ID); err != nil {
			return err
		}
		entry.CreatedAt = now
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ReverseEntry deletes a receipt and decrements the stock it added.
func (r *repository) ReverseEntry(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var paperItemID int64
		var quantity float64
		err := tx.QueryRow(ctx,
			`SELECT paper_item_id, quantity FROM stock_entries WHERE id = $1 FOR UPDATE`,
			id).Scan(&paperItemID, &quantity)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}

		var dim1, dim2, grammage, onHand float64
		if err := tx.QueryRow(ctx,
			`SELECT dim1, dim2, grammage, on_hand FROM paper_items WHERE id = $1 FOR UPDATE`,
			paperItemID).Scan(&dim1, &dim2, &grammage, &onHand); err != nil {
			return err
		}

		if onHand < quantity {
			return &ReversalError{EntryID: id, OnHand: onHand, Quantity: quantity}
		}

		newOnHand := onHand - quantity
		weight := paper.SheetWeight(dim1, dim2, grammage, newOnHand)
		if _, err := tx.Exec(ctx,
			`UPDATE paper_items SET on_hand = $1, weight = $2, updated_at = now() WHERE id = $3`,
			newOnHand, weight, paperItemID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM stock_entries WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("stock: entry %d vanished mid-transaction", id)
		}
		return nil
	})
}
