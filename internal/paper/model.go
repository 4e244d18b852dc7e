package paper

import "time"

// Item is one stocked paper sort. OnHand is tracked in large sheets and may
// be fractional after a reversal.
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Dim1     float64 `json:"dim1"`
	Dim2     float64 `json:"dim2"`
	Grammage float64 `json:"grammage"`
	Format   string  `json:"format"`
	OnHand   float64 `json:"on_hand"`
	Weight   float64 `json:"weight"`

	FSCCertified bool   `json:"fsc_certified"`
	FSCInputCode string `json:"fsc_input_code"`
	FSCClaim     string `json:"fsc_claim"`
	Supplier     string `json:"supplier"`
	SupplierCert string `json:"supplier_cert"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SheetWeight computes the total weight in kg of qty large sheets of this sort.
// Dimensions are centimetres, grammage g/m2.
func SheetWeight(dim1, dim2, grammage, qty float64) float64 {
	return dim1 * dim2 * grammage * qty / 1e7
}

// RecomputeWeight refreshes the derived Weight from the current on-hand count.
func (i *Item) RecomputeWeight() {
	i.Weight = SheetWeight(i.Dim1, i.Dim2, i.Grammage, i.OnHand)
}

// CanProduceFSC reports whether the item may feed FSC certified output.
func (i *Item) CanProduceFSC() bool {
	return i.FSCCertified && i.FSCInputCode != ""
}
