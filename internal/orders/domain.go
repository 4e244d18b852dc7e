// Package orders implements the print-job order lifecycle: creation and
// editing while in progress, finalization with paper-stock debit, invoicing,
// and the compensating reverse transitions.
package orders

import (
	"fmt"
	"strings"
	"time"
)

// State is an order's lifecycle state.
type State string

const (
	StateInProgress State = "in_progress"
	StateFinalized  State = "finalized"
	StateInvoiced   State = "invoiced"
)

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateInProgress, StateFinalized, StateInvoiced:
		return true
	}
	return false
}

// Label returns the state as shown in the UI.
func (s State) Label() string {
	switch s {
	case StateInProgress:
		return "In progress"
	case StateFinalized:
		return "Finalized"
	case StateInvoiced:
		return "Invoiced"
	}
	return string(s)
}

// Order is one print job.
type Order struct {
	ID     int64 `json:"id"`
	Number int64 `json:"number"`

	ClientID    int64     `json:"client_id"`
	PaperItemID int64     `json:"paper_item_id"`
	Equipment   string    `json:"equipment"`
	OrderDate   time.Time `json:"order_date"`
	JobName     string    `json:"job_name"`
	ClientRef   string    `json:"client_ref"`
	Description string    `json:"description"`

	PrintRun        int     `json:"print_run"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Pages           int     `json:"pages"`
	CorrectionIndex float64 `json:"correction_index"`
	Colours         string  `json:"colours"`

	PressSheet    string `json:"press_sheet"`
	YieldIndex    int    `json:"yield_index"`
	PagesPerSheet int    `json:"pages_per_sheet"`

	PressSheetsNeeded int     `json:"press_sheets_needed"`
	SurplusSheets     int     `json:"surplus_sheets"`
	TotalSheets       int     `json:"total_sheets"`
	LargeSheetEquiv   float64 `json:"large_sheet_equiv"`
	Weight            float64 `json:"weight"`

	FSC           bool   `json:"fsc"`
	FSCOutputCode string `json:"fsc_output_code"`
	FSCOutputCert string `json:"fsc_output_cert"`

	Finishing Finishing `json:"finishing"`

	Price float64 `json:"price"`

	State         State      `json:"state"`
	Invoiced      bool       `json:"invoiced"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   *time.Time `json:"invoice_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined for listings.
	ClientName string `json:"client_name"`
	PaperName  string `json:"paper_name"`
}

// Finishing groups the post-press options of an order.
type Finishing struct {
	Lamination     string `json:"lamination"`
	Creased        bool   `json:"creased"`
	CreaseCount    int    `json:"crease_count"`
	Laminated      bool   `json:"laminated"`
	LaminateFormat string `json:"laminate_format"`
	LaminateCount  int    `json:"laminate_count"`
	CutterPlotter  bool   `json:"cutter_plotter"`
	Stapled        bool   `json:"stapled"`
	RoundedCorners bool   `json:"rounded_corners"`
	Perforated     bool   `json:"perforated"`
	Spiral         bool   `json:"spiral"`
	DieCut         bool   `json:"die_cut"`
	Glued          bool   `json:"glued"`
	WobblerTail    bool   `json:"wobbler_tail"`
	FinishingNotes string `json:"finishing_notes"`
	DeliveryNotes  string `json:"delivery_notes"`
}

// HasPrice reports whether a sale price has been set on the order.
func (o *Order) HasPrice() bool {
	return o.Price > 0
}

// ValidationError reports rejected order input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// InsufficientStockError reports a finalization that would drive paper stock
// negative. Required and OnHand are in large-sheet equivalents.
type InsufficientStockError struct {
	OrderNumber int64
	PaperItemID int64
	Required    float64
	OnHand      float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("order %d: needs %.2f large sheets, only %.2f on hand (short %.2f)",
		e.OrderNumber, e.Required, e.OnHand, e.Required-e.OnHand)
}

// MissingPriceError reports invoicing attempted over unpriced orders.
type MissingPriceError struct {
	OrderNumbers []int64
}

func (e *MissingPriceError) Error() string {
	nums := make([]string, len(e.OrderNumbers))
	for i, n := range e.OrderNumbers {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return "orders without a price: " + strings.Join(nums, ", ")
}

// InvalidTransitionError reports a disallowed lifecycle change.
type InvalidTransitionError struct {
	OrderNumber int64
	From, To    State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %d: cannot move from %s to %s", e.OrderNumber, e.From.Label(), e.To.Label())
}
