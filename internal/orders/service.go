package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/copytop/printshop/internal/sheets"
)

// ErrNotEditable signals an edit attempt on an order past InProgress.
var ErrNotEditable = errors.New("orders: only in-progress orders can be edited")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Order, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, errors.New("invalid order ID")
	}
	return s.repo.Get(ctx, id)
}

// Create validates the input, derives all computed quantities and inserts a
// new order in state InProgress with a fresh sequential number. Stock is not
// touched here; consumption happens at finalization.
func (s *Service) Create(ctx context.Context, in Input) (Order, error) {
	order, err := s.build(ctx, in)
	if err != nil {
		return Order{}, err
	}
	order.State = StateInProgress
	return s.repo.Create(ctx, order)
}

// Update re-runs creation-time validation and computation over an existing
// in-progress order. Finalized orders must be reverted first; invoiced orders
// cannot be edited at all.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Order, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if existing.State != StateInProgress {
		return Order{}, ErrNotEditable
	}

	order, err := s.build(ctx, in)
	if err != nil {
		return Order{}, err
	}
	order.ID = existing.ID
	order.Number = existing.Number
	order.State = existing.State
	if err := s.repo.Update(ctx, id, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Duplicate copies an order's specification into a new in-progress order with
// a fresh number. Surplus sheets, the client reference, the price and all
// invoicing fields are reset; derived quantities are recomputed.
func (s *Service) Duplicate(ctx context.Context, id int64) (Order, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	item, err := s.repo.GetPaper(ctx, src.PaperItemID)
	if err != nil {
		return Order{}, fmt.Errorf("orders: load paper: %w", err)
	}

	dup := src
	dup.ID = 0
	dup.Number = 0
	dup.ClientRef = ""
	dup.SurplusSheets = 0
	dup.Price = 0
	dup.State = StateInProgress
	dup.Invoiced = false
	dup.InvoiceNumber = ""
	dup.InvoiceDate = nil
	dup.OrderDate = time.Now()
	dup.Recompute(item)

	return s.repo.Create(ctx, dup)
}

// Delete removes an in-progress order. Orders past InProgress hold stock or
// invoice bookkeeping and must be reverted first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.State != StateInProgress {
		return &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: StateInProgress}
	}
	return s.repo.Delete(ctx, id)
}

// Finalize moves an in-progress order to Finalized, debiting the paper item
// by the order's large-sheet consumption. The check-and-debit is atomic; an
// insufficient stock failure leaves both order and paper untouched.
func (s *Service) Finalize(ctx context.Context, id int64) (Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.State != StateInProgress {
		return Order{}, &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: StateFinalized}
	}

	order.State = StateFinalized
	if err := s.repo.ApplyTransition(ctx, order, StateInProgress, -order.Consumption()); err != nil {
		return Order{}, err
	}
	return order, nil
}

// RevertToInProgress moves a finalized order back to InProgress, crediting
// the paper item with the same consumption that finalization debited. A
// credit needs no stock check.
func (s *Service) RevertToInProgress(ctx context.Context, id int64) (Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.State != StateFinalized {
		return Order{}, &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: StateInProgress}
	}

	order.State = StateInProgress
	if err := s.repo.ApplyTransition(ctx, order, StateFinalized, order.Consumption()); err != nil {
		return Order{}, err
	}
	return order, nil
}

// MarkInvoiced performs Finalized -> Invoiced. Stock was already debited at
// finalization, so no stock effect here.
func (s *Service) MarkInvoiced(ctx context.Context, id int64, invoiceNumber string, invoiceDate time.Time) (Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.State != StateFinalized {
		return Order{}, &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: StateInvoiced}
	}
	if !order.HasPrice() {
		return Order{}, &MissingPriceError{OrderNumbers: []int64{order.Number}}
	}
	if strings.TrimSpace(invoiceNumber) == "" {
		return Order{}, &ValidationError{Field: "InvoiceNumber", Reason: "invoice number is required"}
	}

	order.State = StateInvoiced
	order.Invoiced = true
	order.InvoiceNumber = invoiceNumber
	order.InvoiceDate = &invoiceDate
	if err := s.repo.ApplyTransition(ctx, order, StateFinalized, 0); err != nil {
		return Order{}, err
	}
	return order, nil
}

// CancelInvoice performs Invoiced -> Finalized, clearing the invoice fields.
// Stock stays debited: the paper was already cut.
func (s *Service) CancelInvoice(ctx context.Context, id int64) (Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.State != StateInvoiced {
		return Order{}, &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: StateFinalized}
	}

	order.State = StateFinalized
	order.Invoiced = false
	order.InvoiceNumber = ""
	order.InvoiceDate = nil
	if err := s.repo.ApplyTransition(ctx, order, StateInvoiced, 0); err != nil {
		return Order{}, err
	}
	return order, nil
}

// SetPrice records the sale price on a finalized order ahead of invoicing.
func (s *Service) SetPrice(ctx context.Context, id int64, price float64) error {
	if price <= 0 {
		return &ValidationError{Field: "Price", Reason: "price must be positive"}
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.State == StateInvoiced {
		return &InvalidTransitionError{OrderNumber: order.Number, From: order.State, To: order.State}
	}
	order.Price = price
	return s.repo.Update(ctx, id, order)
}

func (s *Service) build(ctx context.Context, in Input) (Order, error) {
	if err := in.check(); err != nil {
		return Order{}, err
	}
	if !sheets.IsValidColourOption(in.Colours) {
		return Order{}, &ValidationError{Field: "Colours", Reason: "unknown colour option"}
	}

	item, err := s.repo.GetPaper(ctx, in.PaperItemID)
	if err != nil {
		return Order{}, fmt.Errorf("orders: load paper: %w", err)
	}
	if item.OnHand <= 0 {
		return Order{}, &ValidationError{Field: "PaperItemID", Reason: "paper item has no stock"}
	}

	var outputCert string
	if in.FSC {
		if !item.CanProduceFSC() {
			return Order{}, &ValidationError{Field: "FSC", Reason: "selected paper carries no raw-material FSC certification"}
		}
		cert, ok := sheets.FSCOutputDescription(in.FSCOutputCode)
		if !ok {
			return Order{}, &ValidationError{Field: "FSCOutputCode", Reason: "unknown FSC output code"}
		}
		outputCert = cert
	}

	yield, err := sheets.YieldIndex(item.Format, in.PressSheet)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ClientID:        in.ClientID,
		PaperItemID:     in.PaperItemID,
		Equipment:       in.Equipment,
		OrderDate:       in.OrderDate,
		JobName:         in.JobName,
		ClientRef:       in.ClientRef,
		Description:     in.Description,
		PrintRun:        in.PrintRun,
		Width:           in.Width,
		Height:          in.Height,
		Pages:           in.Pages,
		CorrectionIndex: in.CorrectionIndex,
		Colours:         in.Colours,
		PressSheet:      in.PressSheet,
		YieldIndex:      yield,
		PagesPerSheet:   in.PagesPerSheet,
		SurplusSheets:   in.SurplusSheets,
		FSC:             in.FSC,
		FSCOutputCode:   in.FSCOutputCode,
		FSCOutputCert:   outputCert,
		Finishing:       in.Finishing,
		Price:           in.Price,
	}
	if !in.FSC {
		order.FSCOutputCode = ""
	}
	order.Recompute(item)

	if check := order.CheckConversion(item); check.Block {
		return Order{}, &ValidationError{
			Reason: fmt.Sprintf("job weight exceeds the paper that would produce it (factor %.2f); check dimensions and run", check.Factor),
		}
	}
	return order, nil
}

// ConversionWarning re-runs the weight sanity check for display purposes.
func (s *Service) ConversionWarning(ctx context.Context, order Order) (ConversionCheck, error) {
	item, err := s.repo.GetPaper(ctx, order.PaperItemID)
	if err != nil {
		return ConversionCheck{}, err
	}
	return order.CheckConversion(item), nil
}
