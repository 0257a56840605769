// Package pass1 implements the address-assignment walk of spec §4.3: it
// consumes the macro-expanded line stream and produces the intermediate
// record stream plus the populated symbol, literal, and block tables that
// Pass 2 (package pass2) needs.
package pass1

import "github.com/sicxe-asm/sicasm/token"

// Intermediate is one row of the stream Pass 2 and the listing formatter
// walk: spec §3's "(source_line_number, block_local_address, parsed_line,
// owning_block)", plus one synthesized record per literal-pool emission.
type Intermediate struct {
	LineNo    int
	Pos       token.Position
	CSect     string
	Block     string
	Addr      int // block-local address
	Label     string
	Mnemonic  string
	Operand   string
	Extended  bool
	Synthetic bool // true for a literal-pool emission record ("*" label)
}

// Linkage is the EXTDEF/EXTREF state of one control section, spec §3
// "External linkage state".
type Linkage struct {
	Exports map[string]bool
	Imports map[string]bool
}

func newLinkage() *Linkage {
	return &Linkage{Exports: make(map[string]bool), Imports: make(map[string]bool)}
}
