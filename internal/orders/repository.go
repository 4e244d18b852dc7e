package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/copytop/printshop/internal/paper"
	"github.com/copytop/printshop/internal/platform/db"
	"github.com/copytop/printshop/internal/shared"
)

const uniqueViolation = "23505"

const orderColumns = `o.id, o.number, o.client_id, o.paper_item_id, o.equipment, o.order_date,
	o.job_name, o.client_ref, o.description, o.print_run, o.width, o.height, o.pages,
	o.correction_index, o.colours, o.press_sheet, o.yield_index, o.pages_per_sheet,
	o.press_sheets_needed, o.surplus_sheets, o.total_sheets, o.large_sheet_equiv, o.weight,
	o.fsc, o.fsc_output_code, o.fsc_output_cert,
	o.lamination, o.creased, o.crease_count, o.laminated, o.laminate_format, o.laminate_count,
	o.cutter_plotter, o.stapled, o.rounded_corners, o.perforated, o.spiral, o.die_cut,
	o.glued, o.wobbler_tail, o.finishing_notes, o.delivery_notes,
	o.price, o.state, o.invoiced, o.invoice_number, o.invoice_date, o.created_at, o.updated_at`

// ListFilters narrows and pages order listings.
type ListFilters struct {
	From     time.Time
	To       time.Time
	ClientID int64
	State    State
	Page     int
	Limit    int
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, order Order) (Order, error)
	Update(ctx context.Context, id int64, order Order) error
	Delete(ctx context.Context, id int64) error
	GetPaper(ctx context.Context, id int64) (paper.Item, error)
	// ApplyTransition persists the order's lifecycle fields and adjusts the
	// paper item's on-hand count by stockDelta in one transaction. The order
	// row is locked and its state re-verified against from, so a concurrent
	// transition (a double-submitted form) fails with InvalidTransitionError
	// instead of firing twice. A debit that would drive stock negative fails
	// with InsufficientStockError and leaves both rows untouched.
	ApplyTransition(ctx context.Context, order Order, from State, stockDelta float64) error
}

type repository struct {
	pool        *pgxpool.Pool
	numberFloor int64
}

func NewRepository(pool *pgxpool.Pool, numberFloor int64) Repository {
	return &repository{pool: pool, numberFloor: numberFloor}
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.ClientID, &o.PaperItemID, &o.Equipment, &o.OrderDate,
		&o.JobName, &o.ClientRef, &o.Description, &o.PrintRun, &o.Width, &o.Height, &o.Pages,
		&o.CorrectionIndex, &o.Colours, &o.PressSheet, &o.YieldIndex, &o.PagesPerSheet,
		&o.PressSheetsNeeded, &o.SurplusSheets, &o.TotalSheets, &o.LargeSheetEquiv, &o.Weight,
		&o.FSC, &o.FSCOutputCode, &o.FSCOutputCert,
		&o.Finishing.Lamination, &o.Finishing.Creased, &o.Finishing.CreaseCount,
		&o.Finishing.Laminated, &o.Finishing.LaminateFormat, &o.Finishing.LaminateCount,
		&o.Finishing.CutterPlotter, &o.Finishing.Stapled, &o.Finishing.RoundedCorners,
		&o.Finishing.Perforated, &o.Finishing.Spiral, &o.Finishing.DieCut,
		&o.Finishing.Glued, &o.Finishing.WobblerTail, &o.Finishing.FinishingNotes,
		&o.Finishing.DeliveryNotes,
		&o.Price, &o.State, &o.Invoiced, &o.InvoiceNumber, &o.InvoiceDate, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if !filters.From.IsZero() {
		argCount++
		where += ` AND o.order_date >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		where += ` AND o.order_date <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}
	if filters.ClientID > 0 {
		argCount++
		where += ` AND o.client_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.ClientID)
	}
	if filters.State != "" {
		argCount++
		where += ` AND o.state = $` + strconv.Itoa(argCount)
		args = append(args, filters.State)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + `, c.name, p.name
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		JOIN paper_items p ON p.id = o.paper_item_id` + where + ` ORDER BY o.number DESC`
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.Number, &o.ClientID, &o.PaperItemID, &o.Equipment, &o.OrderDate,
			&o.JobName, &o.ClientRef, &o.Description, &o.PrintRun, &o.Width, &o.Height, &o.Pages,
			&o.CorrectionIndex, &o.Colours, &o.PressSheet, &o.YieldIndex, &o.PagesPerSheet,
			&o.PressSheetsNeeded, &o.SurplusSheets, &o.TotalSheets, &o.LargeSheetEquiv, &o.Weight,
			&o.FSC, &o.FSCOutputCode, &o.FSCOutputCert,
			&o.Finishing.Lamination, &o.Finishing.Creased, &o.Finishing.CreaseCount,
			&o.Finishing.Laminated, &o.Finishing.LaminateFormat, &o.Finishing.LaminateCount,
			&o.Finishing.CutterPlotter, &o.Finishing.Stapled, &o.Finishing.RoundedCorners,
			&o.Finishing.Perforated, &o.Finishing.Spiral, &o.Finishing.DieCut,
			&o.Finishing.Glued, &o.Finishing.WobblerTail, &o.Finishing.FinishingNotes,
			&o.Finishing.DeliveryNotes,
			&o.Price, &o.State, &o.Invoiced, &o.InvoiceNumber, &o.InvoiceDate, &o.CreatedAt, &o.UpdatedAt,
			&o.ClientName, &o.PaperName)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	return o, err
}

// Create inserts the order with a freshly assigned sequential number. The
// unique index on number is the backstop against a concurrent insert taking
// the same one; on collision the number is reassigned and the insert retried.
func (r *repository) Create(ctx context.Context, order Order) (Order, error) {
	const insert = `
		INSERT INTO orders (number, client_id, paper_item_id, equipment, order_date,
			job_name, client_ref, description, print_run, width, height, pages,
			correction_index, colours, press_sheet, yield_index, pages_per_sheet,
			press_sheets_needed, surplus_sheets, total_sheets, large_sheet_equiv, weight,
			fsc, fsc_output_code, fsc_output_cert,
			lamination, creased, crease_count, laminated, laminate_format, laminate_count,
			cutter_plotter, stapled, rounded_corners, perforated, spiral, die_cut,
			glued, wobbler_tail, finishing_notes, delivery_notes,
			price, state, invoiced, invoice_number, invoice_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33,
			$34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44, $45, $46, $47, $47)
		RETURNING id`

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		err := r.pool.QueryRow(ctx,
			`SELECT GREATEST(COALESCE(MAX(number), 0) + 1, $1) FROM orders`,
			r.numberFloor).Scan(&order.Number)
		if err != nil {
			return Order{}, err
		}

		now := time.Now()
		err = r.pool.QueryRow(ctx, insert,
			order.Number, order.ClientID, order.PaperItemID, order.Equipment, order.OrderDate,
			order.JobName, order.ClientRef, order.Description, order.PrintRun, order.Width,
			order.Height, order.Pages, order.CorrectionIndex, order.Colours, order.PressSheet,
			order.YieldIndex, order.PagesPerSheet, order.PressSheetsNeeded, order.SurplusSheets,
			order.TotalSheets, order.LargeSheetEquiv, order.Weight,
			order.FSC, order.FSCOutputCode, order.FSCOutputCert,
			order.Finishing.Lamination, order.Finishing.Creased, order.Finishing.CreaseCount,
			order.Finishing.Laminated, order.Finishing.LaminateFormat, order.Finishing.LaminateCount,
			order.Finishing.CutterPlotter, order.Finishing.Stapled, order.Finishing.RoundedCorners,
			order.Finishing.Perforated, order.Finishing.Spiral, order.Finishing.DieCut,
			order.Finishing.Glued, order.Finishing.WobblerTail, order.Finishing.FinishingNotes,
			order.Finishing.DeliveryNotes,
			order.Price, order.State, order.Invoiced, order.InvoiceNumber, order.InvoiceDate, now,
		).Scan(&order.ID)
		if err == nil {
			order.CreatedAt = now
			order.UpdatedAt = now
			return order, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			lastErr = err
			continue
		}
		return Order{}, err
	}
	return Order{}, lastErr
}

func (r *repository) Update(ctx context.Context, id int64, order Order) error {
	const query = `
		UPDATE orders SET client_id = $1, paper_item_id = $2, equipment = $3, order_date = $4,
			job_name = $5, client_ref = $6, description = $7, print_run = $8, width = $9,
			height = $10, pages = $11, correction_index = $12, colours = $13, press_sheet = $14,
			yield_index = $15, pages_per_sheet = $16, press_sheets_needed = $17,
			surplus_sheets = $18, total_sheets = $19, large_sheet_equiv = $20, weight = $21,
			fsc = $22, fsc_output_code = $23, fsc_output_cert = $24,
			lamination = $25, creased = $26, crease_count = $27, laminated = $28,
			laminate_format = $29, laminate_count = $30, cutter_plotter = $31, stapled = $32,
			rounded_corners = $33, perforated = $34, spiral = $35, die_cut = $36, glued = $37,
			wobbler_tail = $38, finishing_notes = $39, delivery_notes = $40,
			price = $41, updated_at = $42
		WHERE id = $43`
	tag, err := r.pool.Exec(ctx, query,
		order.ClientID, order.PaperItemID, order.Equipment, order.OrderDate,
		order.JobName, order.ClientRef, order.Description, order.PrintRun, order.Width,
		order.Height, order.Pages, order.CorrectionIndex, order.Colours, order.PressSheet,
		order.YieldIndex, order.PagesPerSheet, order.PressSheetsNeeded, order.SurplusSheets,
		order.TotalSheets, order.LargeSheetEquiv, order.Weight,
		order.FSC, order.FSCOutputCode, order.FSCOutputCert,
		order.Finishing.Lamination, order.Finishing.Creased, order.Finishing.CreaseCount,
		order.Finishing.Laminated, order.Finishing.LaminateFormat, order.Finishing.LaminateCount,
		order.Finishing.CutterPlotter, order.Finishing.Stapled, order.Finishing.RoundedCorners,
		order.Finishing.Perforated, order.Finishing.Spiral, order.Finishing.DieCut,
		order.Finishing.Glued, order.Finishing.WobblerTail, order.Finishing.FinishingNotes,
		order.Finishing.DeliveryNotes,
		order.Price, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetPaper(ctx context.Context, id int64) (paper.Item, error) {
	const query = `
		SELECT id, name, dim1, dim2, grammage, format, on_hand, weight,
		       fsc_certified, fsc_input_code, fsc_claim, supplier, supplier_cert, created_at, updated_at
		FROM paper_items WHERE id = $1`
	var it paper.Item
	err := r.pool.QueryRow(ctx, query, id).Scan(&it.ID, &it.Name, &it.Dim1, &it.Dim2,
		&it.Grammage, &it.Format, &it.OnHand, &it.Weight, &it.FSCCertified, &it.FSCInputCode,
		&it.FSCClaim, &it.Supplier, &it.SupplierCert, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return paper.Item{}, shared.ErrNotFound
	}
	return it, err
}

func (r *repository) ApplyTransition(ctx context.Context, order Order, from State, stockDelta float64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current State
		err := tx.QueryRow(ctx,
			`SELECT state FROM orders WHERE id = $1 FOR UPDATE`, order.ID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if current != from {
			return &InvalidTransitionError{OrderNumber: order.Number, From: current, To: order.State}
		}

		if stockDelta != 0 {
			var dim1, dim2, grammage, onHand float64
			err := tx.QueryRow(ctx,
				`SELECT dim1, dim2, grammage, on_hand FROM paper_items WHERE id = $1 FOR UPDATE`,
				order.PaperItemID).Scan(&dim1, &dim2, &grammage, &onHand)
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			if err != nil {
				return err
			}

			newOnHand := onHand + stockDelta
			if newOnHand < 0 {
				return &InsufficientStockError{
					OrderNumber: order.Number,
					PaperItemID: order.PaperItemID,
					Required:    -stockDelta,
					OnHand:      onHand,
				}
			}

			weight := paper.SheetWeight(dim1, dim2, grammage, newOnHand)
			if _, err := tx.Exec(ctx,
				`UPDATE paper_items SET on_hand = $1, weight = $2, updated_at = now() WHERE id = $3`,
				newOnHand, weight, order.PaperItemID); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE orders SET state = $1, invoiced = $2, invoice_number = $3, invoice_date = $4, updated_at = now()
			WHERE id = $5 AND state = $6`,
			order.State, order.Invoiced, order.InvoiceNumber, order.InvoiceDate, order.ID, from)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
