package orders

import (
	"math"

	"github.com/copytop/printshop/internal/paper"
)

// Conversion factor bounds for the weight sanity check.
const (
	conversionBlockAbove = 1.0
	conversionWarnBelow  = 0.5
)

// PressSheetsNeeded returns the minimum press sheets for a run. Each press
// sheet carries pagesPerSheet pages on each of its two faces.
func PressSheetsNeeded(printRun, pages, pagesPerSheet int) int {
	if printRun <= 0 || pages <= 0 || pagesPerSheet <= 0 {
		return 0
	}
	return int(math.Ceil(float64(printRun*pages) / float64(2*pagesPerSheet)))
}

// LargeSheetEquivalent converts press sheets to large paper sheets.
func LargeSheetEquivalent(totalSheets, yieldIndex int) float64 {
	if yieldIndex <= 0 {
		return 0
	}
	return float64(totalSheets) / float64(yieldIndex)
}

// JobWeight returns the finished job's weight in kg. Width and height are in
// millimetres, grammage in g/m2.
func JobWeight(width, height float64, pages int, correction, grammage float64, printRun int) float64 {
	return width * height * float64(pages) * correction * grammage * float64(printRun) / 2e9
}

// Recompute refreshes all derived quantities from the order's inputs and the
// paper item it consumes.
func (o *Order) Recompute(item paper.Item) {
	o.PressSheetsNeeded = PressSheetsNeeded(o.PrintRun, o.Pages, o.PagesPerSheet)
	o.TotalSheets = o.PressSheetsNeeded + o.SurplusSheets
	o.LargeSheetEquiv = LargeSheetEquivalent(o.TotalSheets, o.YieldIndex)
	o.Weight = JobWeight(o.Width, o.Height, o.Pages, o.CorrectionIndex, item.Grammage, o.PrintRun)
}

// Consumption returns how many large sheets finalizing this order debits.
func (o *Order) Consumption() float64 {
	return LargeSheetEquivalent(o.TotalSheets, o.YieldIndex)
}

// ConversionCheck compares the job's weight with the weight of the raw paper
// it consumes. A factor above 1 means the job would weigh more than its paper,
// which can only be a data-entry mistake; below 0.5 is suspicious waste.
type ConversionCheck struct {
	Factor float64
	Block  bool
	Warn   bool
}

// CheckConversion runs the weight sanity check against a paper item.
func (o *Order) CheckConversion(item paper.Item) ConversionCheck {
	rawWeight := paper.SheetWeight(item.Dim1, item.Dim2, item.Grammage, o.LargeSheetEquiv)
	if rawWeight <= 0 {
		return ConversionCheck{}
	}
	factor := o.Weight / rawWeight
	return ConversionCheck{
		Factor: factor,
		Block:  factor > conversionBlockAbove,
		Warn:   factor < conversionWarnBelow,
	}
}
