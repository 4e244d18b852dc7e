package paper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/copytop/printshop/internal/sheets"
)

// ErrPaperInUse signals a delete attempt for a sort that orders still reference.
var ErrPaperInUse = errors.New("paper item has orders and cannot be deleted")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, errors.New("invalid paper item ID")
	}
	return s.repo.Get(ctx, id)
}

// Create registers a paper sort. Dimensions come from the chosen format and
// the derived weight is always recomputed server-side.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	if err := s.normalize(&item); err != nil {
		return Item{}, err
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) Update(ctx context.Context, id int64, item Item) error {
	if id <= 0 {
		return errors.New("invalid paper item ID")
	}
	if err := s.normalize(&item); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, item)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid paper item ID")
	}
	inUse, err := s.repo.HasOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("paper: check orders: %w", err)
	}
	if inUse {
		return ErrPaperInUse
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalize(item *Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return errors.New("paper name is required")
	}
	dims, ok := sheets.FormatDimensions(item.Format)
	if !ok {
		return fmt.Errorf("unknown paper format %q", item.Format)
	}
	item.Dim1 = dims.Width
	item.Dim2 = dims.Height
	if item.Grammage <= 0 {
		return errors.New("grammage must be positive")
	}
	if item.OnHand < 0 {
		return errors.New("stock cannot be negative")
	}
	if item.FSCCertified {
		if _, ok := sheets.FSCInputDescription(item.FSCInputCode); !ok {
			return fmt.Errorf("unknown FSC input code %q", item.FSCInputCode)
		}
		if !sheets.IsValidFSCInputClaim(item.FSCClaim) {
			return fmt.Errorf("unknown FSC claim %q", item.FSCClaim)
		}
	} else {
		item.FSCInputCode = ""
		item.FSCClaim = ""
	}
	item.RecomputeWeight()
	return nil
}
