package sheets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYieldIndexKnownPairs(t *testing.T) {
	cases := []struct {
		format string
		sheet  string
		want   int
	}{
		{"70 x 100", "230 x 250 mm", 12},
		{"70 x 100", "SRA4 - 225 x 320 mm", 9},
		{"SRA3", "SRA3 - 320 x 450 mm", 1},
		{"A4", "A4 - 210 x 297 mm", 1},
		{"64 x 90", "300 x 640 mm", 3},
		{"A3", "A4 - 210 x 297 mm", 2},
		{"43 x 61", "200 x 430 mm", 3},
	}
	for _, tc := range cases {
		got, err := YieldIndex(tc.format, tc.sheet)
		require.NoError(t, err, "%s / %s", tc.format, tc.sheet)
		require.Equal(t, tc.want, got, "%s / %s", tc.format, tc.sheet)
	}
}

func TestYieldIndexIncompatible(t *testing.T) {
	_, err := YieldIndex("A4", "330 x 480 mm")
	require.ErrorIs(t, err, ErrIncompatibleSheet)

	_, err = YieldIndex("no such format", "330 x 480 mm")
	require.ErrorIs(t, err, ErrIncompatibleSheet)
}

func TestEveryFormatHasCompatibleSheets(t *testing.T) {
	for _, f := range Formats() {
		sheets := PressSheetsFor(f)
		require.NotEmpty(t, sheets, "format %s has no press sheets", f)
		for _, s := range sheets {
			idx, err := YieldIndex(f, s)
			require.NoError(t, err)
			require.Positive(t, idx)
		}
	}
}

func TestFormatDimensions(t *testing.T) {
	d, ok := FormatDimensions("SRA3")
	require.True(t, ok)
	require.Equal(t, 32.0, d.Width)
	require.Equal(t, 45.0, d.Height)

	_, ok = FormatDimensions("B5")
	require.False(t, ok)
}

func TestFSCCatalogs(t *testing.T) {
	desc, ok := FSCInputDescription("P 2.1")
	require.True(t, ok)
	require.Equal(t, "Copying, printing, communication paper", desc)

	desc, ok = FSCOutputDescription("P 8.5")
	require.True(t, ok)
	require.Equal(t, "Business card", desc)

	require.True(t, IsValidFSCInputClaim("FSC Mix Credit"))
	require.False(t, IsValidFSCInputClaim("FSC Something"))

	require.True(t, IsValidColourOption("4 + K"))
	require.False(t, IsValidColourOption("5 + 5"))
}
