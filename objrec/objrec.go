// Package objrec assembles the encoded output of one control section into
// the canonical loader record set of spec §4.4's "Final record order":
// H, one D, one R, every T in address order, every M, then E.
package objrec

import (
	"fmt"
	"sort"
	"strings"
)

// Header is the program's H-record. Name is resolved by the caller from
// the START line's label (SPEC_FULL §4.8), not hard-coded here.
type Header struct {
	Name   string
	Start  int
	Length int
}

// Text is one T-record: a contiguous run of object bytes starting at
// Start, no longer than Pass 2's packing limit (30 bytes by default,
// spec §4.4 "Text-record packing").
type Text struct {
	Start int
	Bytes []byte
}

// Mod is one M-record: add or subtract a symbol's value into the field
// at Addr, HalfBytes half-bytes wide.
type Mod struct {
	Addr      int
	HalfBytes int
	Sign      byte // '+' or '-'
	Symbol    string
}

// Export is one name/address pair for the D-record.
type Export struct {
	Name string
	Addr int
}

// Program is everything needed to render one control section's record
// group.
type Program struct {
	Header  Header
	Exports []Export // rendered in the order given (pass2 sorts by name)
	Imports []string // rendered in the order given (pass2 sorts by name)
	Texts   []Text   // address order
	Mods    []Mod    // queued order
}

const maxTextBytes = 30

// name6 space-pads name to exactly 6 characters, truncating if longer
// (spec §6: "Names are space-padded to exactly 6 characters").
func name6(name string) string {
	if len(name) >= 6 {
		return name[:6]
	}
	return name + strings.Repeat(" ", 6-len(name))
}

func hex(n, width int) string {
	return fmt.Sprintf("%0*X", width, n)
}

// Render produces the record lines for p, in canonical order.
func (p *Program) Render() []string {
	var lines []string

	lines = append(lines, fmt.Sprintf("H%s%s%s",
		name6(p.Header.Name), hex(p.Header.Start, 6), hex(p.Header.Length, 6)))

	if len(p.Exports) > 0 {
		var b strings.Builder
		b.WriteByte('D')
		for _, e := range p.Exports {
			b.WriteString(name6(e.Name))
			b.WriteString(hex(e.Addr, 6))
		}
		lines = append(lines, b.String())
	}

	if len(p.Imports) > 0 {
		var b strings.Builder
		b.WriteByte('R')
		for _, name := range p.Imports {
			b.WriteString(name6(name))
		}
		lines = append(lines, b.String())
	}

	texts := make([]Text, len(p.Texts))
	copy(texts, p.Texts)
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].Start < texts[j].Start })
	for _, t := range texts {
		if len(t.Bytes) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("T%s%s%s",
			hex(t.Start, 6), hex(len(t.Bytes), 2), hexBytes(t.Bytes)))
	}

	for _, m := range p.Mods {
		lines = append(lines, fmt.Sprintf("M%s%s%c%s",
			hex(m.Addr, 6), hex(m.HalfBytes, 2), m.Sign, name6(m.Symbol)))
	}

	lines = append(lines, fmt.Sprintf("E%s", hex(p.Header.Start, 6)))
	return lines
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// MaxTextBytes is the default packing threshold a Pass 2 text-record
// buffer flushes at (spec §3 invariant, §4.4 "Text-record packing"). A
// config file may lower or raise it via assembly.text_record_max; Pass 2
// uses this value only when no positive limit is configured.
func MaxTextBytes() int { return maxTextBytes }
