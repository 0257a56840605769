// Package listing implements the human-readable listing formatter of
// spec §4.5: for each intermediate record, the source line number, the
// absolute (block-folded) address, a reconstructed "label opcode operand"
// column, and the object hex emitted there, if any.
package listing

import (
	"fmt"
	"strings"

	"github.com/sicxe-asm/sicasm/block"
	"github.com/sicxe-asm/sicasm/pass1"
)

// Config carries the fixed-width column settings SPEC_FULL §6.4 makes
// configurable; DefaultConfig reproduces spec.md's literal widths.
type Config struct {
	LineNumberWidth int
	SourceWidth     int
	EmitHeader      bool
}

// DefaultConfig matches spec.md §4.5's literal column widths (5, 30).
func DefaultConfig() Config {
	return Config{LineNumberWidth: 5, SourceWidth: 30, EmitHeader: true}
}

// Row is one formatted listing line, split into its fields so callers
// that want to render something other than plain text (tests, an
// alternate writer) can do so without re-parsing a formatted string.
type Row struct {
	LineNo int
	Addr   int
	Source string
	Object string
}

// Build produces one Row per intermediate record in res, looking up each
// record's emitted object bytes in objBytes (pass2.Output.Bytes).
func Build(res *pass1.Result, blocks *block.Table, objBytes map[*pass1.Intermediate][]byte) ([]Row, error) {
	rows := make([]Row, 0, len(res.Intermediates))
	for _, im := range res.Intermediates {
		base, ok := blocks.Base(im.Block)
		if !ok {
			return nil, fmt.Errorf("listing: unknown block %q", im.Block)
		}
		rows = append(rows, Row{
			LineNo: im.LineNo,
			Addr:   im.Addr + base,
			Source: reconstruct(im),
			Object: hexBytes(objBytes[im]),
		})
	}
	return rows, nil
}

// reconstruct rebuilds the "label opcode operand" source column from an
// intermediate record (the macro-expanded line, not the raw input, so
// expanded macro bodies appear in the listing the way they assembled).
func reconstruct(im *pass1.Intermediate) string {
	var b strings.Builder
	if im.Label != "" {
		b.WriteString(im.Label)
		b.WriteByte(' ')
	}
	if im.Extended {
		b.WriteByte('+')
	}
	b.WriteString(im.Mnemonic)
	if im.Operand != "" {
		b.WriteByte(' ')
		b.WriteString(im.Operand)
	}
	return b.String()
}

func hexBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// Render formats rows as spec §4.5's fixed-width lines. The two header
// lines spec §6's "Listing (output, listing.txt)" describes are included
// unless cfg.EmitHeader is false (SPEC_FULL §6.4: listing.emit_header).
func Render(programName string, rows []Row, cfg Config) []string {
	lines := make([]string, 0, len(rows)+2)
	if cfg.EmitHeader {
		lines = append(lines, fmt.Sprintf("%-*s%-*s%s", cfg.LineNumberWidth, "LINE", 5, "LOC", "SOURCE / OBJECT CODE"))
		lines = append(lines, fmt.Sprintf("Program: %s", programName))
	}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-*d%04X   %-*s%s",
			cfg.LineNumberWidth, r.LineNo, r.Addr, cfg.SourceWidth, r.Source, r.Object))
	}
	return lines
}
