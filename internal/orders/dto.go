package orders

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Input carries the user-supplied fields for creating or editing an order.
// Derived quantities are always recomputed server-side.
type Input struct {
	ClientID    int64     `validate:"required,gt=0"`
	PaperItemID int64     `validate:"required,gt=0"`
	Equipment   string    `validate:"required"`
	OrderDate   time.Time `validate:"required"`
	JobName     string    `validate:"required,max=300"`
	ClientRef   string    `validate:"max=100"`
	Description string    `validate:"required"`

	PrintRun        int     `validate:"required,gt=0"`
	Width           float64 `validate:"required,gt=0"`
	Height          float64 `validate:"required,gt=0"`
	Pages           int     `validate:"required,gte=2"`
	CorrectionIndex float64 `validate:"required,gt=0,lte=1"`
	Colours         string  `validate:"required"`

	PressSheet    string `validate:"required"`
	PagesPerSheet int    `validate:"required,gte=1"`
	SurplusSheets int    `validate:"gte=0"`

	FSC           bool
	FSCOutputCode string

	Finishing Finishing

	Price float64 `validate:"gte=0"`
}

func (in *Input) check() error {
	if err := validate.Struct(in); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &ValidationError{Field: errs[0].Field(), Reason: "invalid value"}
		}
		return &ValidationError{Reason: err.Error()}
	}
	if in.Pages%2 != 0 {
		return &ValidationError{Field: "Pages", Reason: "page count must be even"}
	}
	return nil
}
