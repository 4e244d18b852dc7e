package paper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copytop/printshop/internal/shared"
)

const itemColumns = `id, name, dim1, dim2, grammage, format, on_hand, weight,
	fsc_certified, fsc_input_code, fsc_claim, supplier, supplier_cert, created_at, updated_at`

// ListFilters narrows and pages paper listings.
type ListFilters struct {
	Search      string
	Format      string
	InStockOnly bool
	Page        int
	Limit       int
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Item, int, error)
	Get(ctx context.Context, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id int64, item Item) error
	Delete(ctx context.Context, id int64) error
	HasOrders(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Dim1, &it.Dim2, &it.Grammage, &it.Format,
		&it.OnHand, &it.Weight, &it.FSCCertified, &it.FSCInputCode, &it.FSCClaim,
		&it.Supplier, &it.SupplierCert, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		where += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Format != "" {
		argCount++
		where += ` AND format = $` + strconv.Itoa(argCount)
		args = append(args, filters.Format)
	}
	if filters.InStockOnly {
		where += ` AND on_hand > 0`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM paper_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM paper_items` + where + ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM paper_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.ErrNotFound
	}
	return it, err
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	query := `
		INSERT INTO paper_items (name, dim1, dim2, grammage, format, on_hand, weight,
			fsc_certified, fsc_input_code, fsc_claim, supplier, supplier_cert, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, item.Name, item.Dim1, item.Dim2, item.Grammage, item.Format,
		item.OnHand, item.Weight, item.FSCCertified, item.FSCInputCode, item.FSCClaim,
		item.Supplier, item.SupplierCert, now).Scan(&item.ID)
	if err != nil {
		return Item{}, err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (r *repository) Update(ctx context.Context, id int64, item Item) error {
	query := `
		UPDATE paper_items SET name = $1, dim1 = $2, dim2 = $3, grammage = $4, format = $5,
			on_hand = $6, weight = $7, fsc_certified = $8, fsc_input_code = $9, fsc_claim = $10,
			supplier = $11, supplier_cert = $12, updated_at = $13
		WHERE id = $14`
	tag, err := r.db.Exec(ctx, query, item.Name, item.Dim1, item.Dim2, item.Grammage, item.Format,
		item.OnHand, item.Weight, item.FSCCertified, item.FSCInputCode, item.FSCClaim,
		item.Supplier, item.SupplierCert, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM paper_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) HasOrders(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE paper_item_id = $1)`, id).Scan(&exists)
	return exists, err
}
