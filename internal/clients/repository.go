package clients

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copytop/printshop/internal/shared"
)

// ListFilters narrows and pages client listings.
type ListFilters struct {
	Search string
	Page   int
	Limit  int
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Client, int, error)
	Get(ctx context.Context, id int64) (Client, error)
	Create(ctx context.Context, client Client) (Client, error)
	Update(ctx context.Context, id int64, client Client) error
	Delete(ctx context.Context, id int64) error
	HasOrders(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Client, int, error) {
	query := `SELECT id, name, contact, phone, email, created_at, updated_at FROM clients WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR contact ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM clients WHERE 1=1`
	countArgs := []any{}
	if filters.Search != "" {
		countQuery += ` AND (name ILIKE $1 OR contact ILIKE $1)`
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
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

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Client, error) {
	query := `SELECT id, name, contact, phone, email, created_at, updated_at FROM clients WHERE id = $1`
	var c Client
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Contact, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, client Client) (Client, error) {
	query := `INSERT INTO clients (name, contact, phone, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRow(ctx, query, client.Name, client.Contact, client.Phone, client.Email, now, now).Scan(&client.ID); err != nil {
		return Client{}, err
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	return client, nil
}

func (r *repository) Update(ctx context.Context, id int64, client Client) error {
	query := `UPDATE clients SET name = $1, contact = $2, phone = $3, email = $4, updated_at = $5 WHERE id = $6`
	tag, err := r.db.Exec(ctx, query, client.Name, client.Contact, client.Phone, client.Email, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
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
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE client_id = $1)`, id).Scan(&exists)
	return exists, err
}
