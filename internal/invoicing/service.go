// Package invoicing groups finalized orders for a client into numbered
// invoices and drives the Finalized <-> Invoiced transitions.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/copytop/printshop/internal/orders"
)

// OrderLifecycle is the slice of the order service invoicing drives.
type OrderLifecycle interface {
	List(ctx context.Context, filters orders.ListFilters) ([]orders.Order, int, error)
	Get(ctx context.Context, id int64) (orders.Order, error)
	MarkInvoiced(ctx context.Context, id int64, invoiceNumber string, invoiceDate time.Time) (orders.Order, error)
	CancelInvoice(ctx context.Context, id int64) (orders.Order, error)
}

// Batch is the result of invoicing a set of orders.
type Batch struct {
	InvoiceNumber string
	InvoiceDate   time.Time
	Orders        []orders.Order
	Total         decimal.Decimal
}

type Service struct {
	orders OrderLifecycle
}

func NewService(lifecycle OrderLifecycle) *Service {
	return &Service{orders: lifecycle}
}

// Candidates lists a client's orders eligible for invoicing, i.e. Finalized.
// With includeInvoiced set, already invoiced orders are listed too so the
// operator can review past invoices.
func (s *Service) Candidates(ctx context.Context, clientID int64, includeInvoiced bool) ([]orders.Order, error) {
	if clientID <= 0 {
		return nil, errors.New("invalid client ID")
	}

	finalized, _, err := s.orders.List(ctx, orders.ListFilters{ClientID: clientID, State: orders.StateFinalized})
	if err != nil {
		return nil, err
	}
	if !includeInvoiced {
		return finalized, nil
	}

	invoiced, _, err := s.orders.List(ctx, orders.ListFilters{ClientID: clientID, State: orders.StateInvoiced})
	if err != nil {
		return nil, err
	}
	return append(finalized, invoiced...), nil
}

// Invoice marks a batch of finalized orders as invoiced under one invoice
// number. Every order must belong to the client, be Finalized, and carry a
// positive price; any unpriced order rejects the whole batch before a single
// order is touched.
func (s *Service) Invoice(ctx context.Context, clientID int64, orderIDs []int64, invoiceNumber string, invoiceDate time.Time) (Batch, error) {
	if clientID <= 0 {
		return Batch{}, errors.New("invalid client ID")
	}
	if len(orderIDs) == 0 {
		return Batch{}, errors.New("no orders selected")
	}
	if strings.TrimSpace(invoiceNumber) == "" {
		return Batch{}, errors.New("invoice number is required")
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	selected := make([]orders.Order, 0, len(orderIDs))
	var unpriced []int64
	for _, id := range orderIDs {
		order, err := s.orders.Get(ctx, id)
		if err != nil {
			return Batch{}, fmt.Errorf("invoicing: load order %d: %w", id, err)
		}
		if order.ClientID != clientID {
			return Batch{}, fmt.Errorf("invoicing: order %d belongs to another client", order.Number)
		}
		if order.State != orders.StateFinalized {
			return Batch{}, &orders.InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: orders.StateInvoiced}
		}
		if !order.HasPrice() {
			unpriced = append(unpriced, order.Number)
		}
		selected = append(selected, order)
	}
	if len(unpriced) > 0 {
		return Batch{}, &orders.MissingPriceError{OrderNumbers: unpriced}
	}

	batch := Batch{InvoiceNumber: invoiceNumber, InvoiceDate: invoiceDate, Total: decimal.Zero}
	for _, order := range selected {
		updated, err := s.orders.MarkInvoiced(ctx, order.ID, invoiceNumber, invoiceDate)
		if err != nil {
			return Batch{}, fmt.Errorf("invoicing: order %d: %w", order.Number, err)
		}
		batch.Orders = append(batch.Orders, updated)
		batch.Total = batch.Total.Add(decimal.NewFromFloat(updated.Price))
	}
	return batch, nil
}

// Cancel reverts one invoiced order to Finalized. Paper stock is untouched.
func (s *Service) Cancel(ctx context.Context, orderID int64) (orders.Order, error) {
	return s.orders.CancelInvoice(ctx, orderID)
}
