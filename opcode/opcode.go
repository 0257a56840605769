// Package opcode loads the static mnemonic → (numeric code, format set)
// table that Pass 1 and Pass 2 consult. The table itself is an external
// collaborator (spec §6): this package only knows how to read its CSV
// form, not how SIC/XE encodes instructions.
package opcode

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format describes which instruction formats a mnemonic may use.
type Format int

const (
	// FormatUnknown is the zero value; never returned from a successful lookup.
	FormatUnknown Format = iota
	Format1
	Format2
	Format3or4
)

// Entry is one opcode-table row.
type Entry struct {
	Name   string
	Code   uint8
	Format Format
}

// Table is the loaded opcode table, keyed by uppercased mnemonic.
type Table struct {
	entries map[string]Entry
}

// Error is a fatal error while loading the opcode table (spec §6: "Missing
// or non-hex opcodes are fatal").
type Error struct {
	Row int
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("optab row %d: %s", e.Row, e.Msg) }

// Load reads an opcode table CSV with columns name, opcode, format.
// Whitespace in the header and in cells is stripped; names are uppercased.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading optab header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"name", "opcode", "format"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("optab missing required column %q", want)
		}
	}

	t := &Table{entries: make(map[string]Entry)}
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading optab row %d: %w", row, err)
		}
		row++

		name := strings.ToUpper(strings.TrimSpace(rec[col["name"]]))
		opcodeStr := strings.TrimSpace(rec[col["opcode"]])
		formatStr := strings.TrimSpace(rec[col["format"]])

		if opcodeStr == "" {
			return nil, &Error{Row: row, Msg: fmt.Sprintf("missing opcode for %q", name)}
		}
		code, err := strconv.ParseUint(opcodeStr, 16, 8)
		if err != nil {
			return nil, &Error{Row: row, Msg: fmt.Sprintf("invalid hex opcode %q for %q", opcodeStr, name)}
		}

		t.entries[name] = Entry{Name: name, Code: uint8(code), Format: classify(formatStr)}
	}
	return t, nil
}

func classify(formatStr string) Format {
	switch {
	case strings.Contains(formatStr, "2") && !strings.Contains(formatStr, "3"):
		return Format2
	case strings.Contains(formatStr, "1") && !strings.Contains(formatStr, "2") && !strings.Contains(formatStr, "3"):
		return Format1
	default:
		return Format3or4
	}
}

// Lookup returns the entry for a mnemonic, stripped of any leading '+'
// and uppercased by the caller (token.Line already does this).
func (t *Table) Lookup(mnemonic string) (Entry, bool) {
	e, ok := t.entries[strings.ToUpper(mnemonic)]
	return e, ok
}

// IsStandalone implements token.Classifier: format-1 instructions and the
// format-3 RSUB take no operand.
func (t *Table) IsStandalone(mnemonic string) bool {
	e, ok := t.Lookup(mnemonic)
	return ok && (e.Format == Format1 || e.Name == "RSUB")
}

// Size returns the number of table entries, mostly useful for -verbose
// reporting in cmd/sicasm.
func (t *Table) Size() int { return len(t.entries) }
