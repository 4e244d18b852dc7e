// Package sheets holds the static press-sheet compatibility tables used when
// planning an order: which press sheets can be cut from each stocked paper
// format, and how many press sheets one large sheet yields.
package sheets

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIncompatibleSheet is returned when a press sheet cannot be cut from the
// requested paper format.
var ErrIncompatibleSheet = errors.New("sheets: press sheet incompatible with paper format")

// Dimensions are the physical size of a paper format in centimetres.
type Dimensions struct {
	Width  float64
	Height float64
}

var paperFormats = map[string]Dimensions{
	"70 x 100": {70, 100},
	"72 x 102": {72, 102},
	"45 x 64":  {45, 64},
	"SRA3":     {32, 45},
	"50 x 70":  {50, 70},
	"A4":       {21, 29.7},
	"64 x 90":  {64, 90},
	"61 x 86":  {61, 86},
	"A3":       {29.7, 42},
	"43 x 61":  {43, 61},
}

// yieldTable maps paper format -> press sheet -> press sheets obtained from
// one large sheet. Entries follow the cutting chart used on the shop floor.
var yieldTable = map[string]map[string]int{
	"70 x 100": {
		"330 x 480 mm":        4,
		"345 x 330 mm":        6,
		"330 x 700 mm":        3,
		"230 x 480 mm":        6,
		"SRA4 - 225 x 320 mm": 9,
		"230 x 330 mm":        9,
		"330 x 250 mm":        8,
		"250 x 700 mm":        4,
		"230 x 250 mm":        12,
		"250 x 350 mm":        8,
	},
	"72 x 102": {
		"330 x 480 mm":        4,
		"345 x 330 mm":        6,
		"330 x 700 mm":        3,
		"230 x 480 mm":        6,
		"SRA4 - 225 x 320 mm": 9,
		"230 x 330 mm":        9,
		"330 x 250 mm":        8,
		"250 x 700 mm":        4,
		"230 x 250 mm":        12,
		"250 x 350 mm":        8,
	},
	"45 x 64": {
		"SRA3 - 320 x 450 mm": 2,
		"SRA4 - 225 x 320 mm": 4,
		"210 x 450 mm":        3,
		"225 x 640 mm":        2,
		"A3 - 297 x 420 mm":   2,
	},
	"SRA3": {
		"SRA3 - 320 x 450 mm": 1,
		"SRA4 - 225 x 320 mm": 2,
		"A3 - 297 x 420 mm":   1,
	},
	"50 x 70": {
		"330 x 480 mm": 2,
		"230 x 480 mm": 3,
		"230 x 330 mm": 4,
		"330 x 250 mm": 4,
		"250 x 700 mm": 2,
		"230 x 250 mm": 6,
		"250 x 350 mm": 4,
	},
	"A4": {
		"A4 - 210 x 297 mm": 1,
	},
	"64 x 90": {
		"A4 - 210 x 297 mm": 8,
		"210 x 450 mm":      6,
		"225 x 640 mm":      4,
		"300 x 640 mm":      3,
		"300 x 320 mm":      6,
		"A3 - 297 x 420 mm": 4,
	},
	"61 x 86": {
		"A4 - 210 x 297 mm": 8,
		"A3 - 297 x 420 mm": 4,
	},
	"A3": {
		"A4 - 210 x 297 mm": 2,
		"A3 - 297 x 420 mm": 1,
		"305 x 430 mm":      1,
	},
	"43 x 61": {
		"A4 - 210 x 297 mm": 4,
		"305 x 430 mm":      2,
		"215 x 305 mm":      4,
		"200 x 430 mm":      3,
	},
}

// Formats returns the supported paper formats in a stable order.
func Formats() []string {
	out := make([]string, 0, len(paperFormats))
	for f := range paperFormats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FormatDimensions returns the physical dimensions of a paper format.
func FormatDimensions(format string) (Dimensions, bool) {
	d, ok := paperFormats[format]
	return d, ok
}

// IsValidFormat reports whether format names a supported paper format.
func IsValidFormat(format string) bool {
	_, ok := paperFormats[format]
	return ok
}

// PressSheetsFor returns the press sheets cuttable from a paper format,
// sorted for stable rendering.
func PressSheetsFor(format string) []string {
	compat := yieldTable[format]
	out := make([]string, 0, len(compat))
	for sheet := range compat {
		out = append(out, sheet)
	}
	sort.Strings(out)
	return out
}

// PressSheets returns every press sheet appearing in the cutting chart,
// sorted for stable rendering.
func PressSheets() []string {
	seen := map[string]bool{}
	for _, compat := range yieldTable {
		for sheet := range compat {
			seen[sheet] = true
		}
	}
	out := make([]string, 0, len(seen))
	for sheet := range seen {
		out = append(out, sheet)
	}
	sort.Strings(out)
	return out
}

// YieldIndex returns the number of press sheets one large sheet of the given
// paper format yields when cut to the given press sheet.
func YieldIndex(format, pressSheet string) (int, error) {
	compat, ok := yieldTable[format]
	if !ok {
		return 0, fmt.Errorf("%w: unknown paper format %q", ErrIncompatibleSheet, format)
	}
	idx, ok := compat[pressSheet]
	if !ok {
		return 0, fmt.Errorf("%w: %q cannot be cut from %q", ErrIncompatibleSheet, pressSheet, format)
	}
	return idx, nil
}
