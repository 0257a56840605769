package listing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sicxe-asm/sicasm/listing"
	"github.com/sicxe-asm/sicasm/macro"
	"github.com/sicxe-asm/sicasm/opcode"
	"github.com/sicxe-asm/sicasm/pass1"
	"github.com/sicxe-asm/sicasm/pass2"
)

const testOptabCSV = `name,opcode,format
STL,14,3/4
LDA,00,3/4
`

func mustOptab(t *testing.T) *opcode.Table {
	t.Helper()
	tbl, err := opcode.Load(strings.NewReader(testOptabCSV))
	require.NoError(t, err, "loading test optab")
	return tbl
}

// Scenario 1's program, run end-to-end, produces one listing row per
// intermediate record with the STL row carrying its encoded object hex.
func TestBuildAndRenderScenario1(t *testing.T) {
	optab := mustOptab(t)
	src := []string{
		"COPY   START 1000",
		"FIRST  STL   RETADR",
		"RETADR RESW  1",
		"       END   FIRST",
	}
	expanded, _, err := macro.Expand(src, "t.asm")
	require.NoError(t, err, "macro.Expand")
	res, err := pass1.Run(expanded, optab, pass1.Config{})
	require.NoError(t, err, "pass1.Run")
	out, err := pass2.Run(res, optab)
	require.NoError(t, err, "pass2.Run")

	rows, err := listing.Build(res, res.Blocks, out.Bytes)
	require.NoError(t, err, "listing.Build")
	require.Len(t, rows, len(res.Intermediates))

	var stlRow *listing.Row
	for i := range rows {
		if strings.HasPrefix(rows[i].Source, "FIRST STL") {
			stlRow = &rows[i]
		}
	}
	require.NotNil(t, stlRow, "expected a row reconstructing the FIRST STL line")
	require.Equal(t, 0x1000, stlRow.Addr)
	require.Equal(t, "172000", stlRow.Object)

	rendered := listing.Render("COPY", rows, listing.DefaultConfig())
	require.Len(t, rendered, len(rows)+2, "2 header lines + rows")

	var found bool
	for _, l := range rendered {
		if strings.Contains(l, "172000") {
			found = true
		}
	}
	require.True(t, found, "expected a rendered line containing the STL object hex, got %v", rendered)
}

// A RESW record has no emitted bytes, so its row's Object column is empty.
func TestBuildLeavesObjectEmptyForReservations(t *testing.T) {
	optab := mustOptab(t)
	src := []string{
		"COPY   START 0",
		"RETADR RESW  1",
		"       END",
	}
	expanded, _, err := macro.Expand(src, "t.asm")
	require.NoError(t, err, "macro.Expand")
	res, err := pass1.Run(expanded, optab, pass1.Config{})
	require.NoError(t, err, "pass1.Run")
	out, err := pass2.Run(res, optab)
	require.NoError(t, err, "pass2.Run")
	rows, err := listing.Build(res, res.Blocks, out.Bytes)
	require.NoError(t, err, "listing.Build")
	for _, r := range rows {
		if strings.Contains(r.Source, "RESW") {
			require.Empty(t, r.Object, "expected empty object column for a RESW row")
		}
	}
}

// EmitHeader=false (SPEC_FULL §6.4's listing.emit_header) drops the two
// header lines, leaving one rendered line per row.
func TestRenderOmitsHeaderWhenDisabled(t *testing.T) {
	rows := []listing.Row{{LineNo: 1, Addr: 0x1000, Source: "FIRST STL RETADR", Object: "172000"}}
	cfg := listing.DefaultConfig()
	cfg.EmitHeader = false
	rendered := listing.Render("COPY", rows, cfg)
	require.Len(t, rendered, len(rows), "expected no header lines")
}
