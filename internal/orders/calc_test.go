package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copytop/printshop/internal/paper"
)

func TestPressSheetsNeeded(t *testing.T) {
	// 500 copies, 2 pages, 1 page per sheet face: 500*2/(2*1) = 500
	require.Equal(t, 500, PressSheetsNeeded(500, 2, 1))

	// 500 copies, 16 pages, 4 pages per face: ceil(500*16/8) = 1000
	require.Equal(t, 1000, PressSheetsNeeded(500, 16, 4))

	// Rounds up: 100 copies, 6 pages, 4 per face: ceil(600/8) = 75
	require.Equal(t, 75, PressSheetsNeeded(100, 6, 4))
	require.Equal(t, 38, PressSheetsNeeded(50, 6, 4))

	require.Zero(t, PressSheetsNeeded(0, 2, 1))
	require.Zero(t, PressSheetsNeeded(500, 2, 0))
}

func TestLargeSheetEquivalent(t *testing.T) {
	require.Equal(t, 10.0, LargeSheetEquivalent(40, 4))
	require.Equal(t, 5.5, LargeSheetEquivalent(44, 8))
	require.Zero(t, LargeSheetEquivalent(40, 0))
}

func TestJobWeight(t *testing.T) {
	// 210x297 mm, 2 pages, correction 1, 80 g/m2, 1000 copies:
	// 210*297*2*1*80*1000/2e9 = 4.98960 kg
	require.InDelta(t, 4.9896, JobWeight(210, 297, 2, 1.0, 80, 1000), 1e-9)
	require.Zero(t, JobWeight(210, 297, 0, 1.0, 80, 1000))
}

func TestRecomputeChainsInvariants(t *testing.T) {
	item := paper.Item{Dim1: 70, Dim2: 100, Grammage: 90}
	o := Order{
		PrintRun:        500,
		Pages:           16,
		PagesPerSheet:   4,
		SurplusSheets:   30,
		YieldIndex:      4,
		Width:           210,
		Height:          297,
		CorrectionIndex: 1.0,
	}
	o.Recompute(item)

	require.Equal(t, 1000, o.PressSheetsNeeded)
	require.Equal(t, 1030, o.TotalSheets)
	require.InDelta(t, 257.5, o.LargeSheetEquiv, 1e-9)
	require.InDelta(t, JobWeight(210, 297, 16, 1.0, 90, 500), o.Weight, 1e-9)
	require.Equal(t, o.LargeSheetEquiv, o.Consumption())
}

func TestCheckConversion(t *testing.T) {
	item := paper.Item{Dim1: 70, Dim2: 100, Grammage: 90}

	// A4 pages, two per press-sheet face, cut 4 press sheets per 70x100:
	// 2000 press sheets, 500 large sheets, factor ~0.71.
	o := Order{
		PrintRun:        500,
		Pages:           16,
		PagesPerSheet:   2,
		YieldIndex:      4,
		Width:           210,
		Height:          297,
		CorrectionIndex: 1.0,
	}
	o.Recompute(item)

	check := o.CheckConversion(item)
	require.False(t, check.Block)
	require.False(t, check.Warn)
	require.Positive(t, check.Factor)

	// A job claiming to weigh more than its raw paper must block.
	heavy := o
	heavy.Width = 2100
	heavy.Height = 2970
	heavy.Recompute(item)
	require.True(t, heavy.CheckConversion(item).Block)

	// A factor under 0.5 warns without blocking.
	light := o
	light.SurplusSheets = o.PressSheetsNeeded * 2
	light.Recompute(item)
	lc := light.CheckConversion(item)
	require.True(t, lc.Warn)
	require.False(t, lc.Block)
}
