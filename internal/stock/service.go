package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReversalError reports a receipt that can no longer be undone because the
// paper it added has since been consumed.
type ReversalError struct {
	EntryID  int64
	OnHand   float64
	Quantity float64
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("stock: cannot reverse entry %d: %.2f sheets on hand, receipt added %.2f",
		e.EntryID, e.OnHand, e.Quantity)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns ledger entries, optionally narrowed to one paper item.
// A zero paperItemID means all items.
func (s *Service) List(ctx context.Context, paperItemID int64, from, to time.Time) ([]Entry, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	return s.repo.List(ctx, paperItemID, from, to)
}

// RecordReceipt books a paper delivery: appends a ledger entry and increments
// the item's on-hand count.
func (s *Service) RecordReceipt(ctx context.Context, entry Entry) (Entry, error) {
	if entry.PaperItemID <= 0 {
		return Entry{}, errors.New("paper item is required")
	}
	if entry.Quantity <= 0 {
		return Entry{}, errors.New("quantity must be positive")
	}
	if strings.TrimSpace(entry.Supplier) == "" {
		return Entry{}, errors.New("supplier is required")
	}
	if strings.TrimSpace(entry.InvoiceNumber) == "" {
		return Entry{}, errors.New("source invoice number is required")
	}
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}
	entry.Code = receiptCode()
	return s.repo.RecordReceipt(ctx, entry)
}

// receiptCode mints the short reference printed on the delivery slip.
func receiptCode() string {
	return "REC-" + strings.ToUpper(uuid.NewString()[:8])
}

// ReverseEntry undoes a mistaken receipt. It fails when the stock the entry
// added has already been consumed.
func (s *Service) ReverseEntry(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid stock entry ID")
	}
	return s.repo.ReverseEntry(ctx, id)
}
