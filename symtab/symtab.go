// Package symtab implements the scoped symbol table of spec §3/§4.3.
//
// Every definition is stored under two keys: the scoped key "CSECT.NAME"
// (authoritative) and the bare key "NAME" (convenience, last-write-wins
// across sections). Spec §9 calls the bare key "a code smell that should
// not survive the rewrite" but keeps the duplicate-storage invariant
// testable (symtab["C.S"] == symtab["S"] immediately after definition), so
// both keys are kept internally; callers resolve references through
// Lookup, which always consults the scoped key for the section doing the
// looking-up, never the bare map directly.
package symtab

import (
	"fmt"

	"github.com/sicxe-asm/sicasm/token"
)

// Symbol is one symbol-table entry.
type Symbol struct {
	Name     string
	CSect    string
	Block    string
	Value    int // block-local address, or the literal value if Absolute
	Absolute bool
	Pos      token.Position
}

func scopedKey(csect, name string) string { return csect + "." + name }

// Table is the symbol table built during Pass 1.
type Table struct {
	scoped map[string]*Symbol
	bare   map[string]*Symbol
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{
		scoped: make(map[string]*Symbol),
		bare:   make(map[string]*Symbol),
	}
}

// DuplicateSymbolError reports a conflicting definition within one CSECT.
type DuplicateSymbolError struct {
	Name  string
	CSect string
	First token.Position
	Pos   token.Position
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("%s: duplicate symbol %q in section %s (first defined at %s)",
		e.Pos, e.Name, e.CSect, e.First)
}

// Define binds name in section csect to value. A duplicate definition
// within the same section is fatal (spec §3 invariant); redefining the
// same bare name in a different section is allowed and simply overwrites
// the bare (non-scoped) entry.
func (t *Table) Define(csect, name string, value int, block string, absolute bool, pos token.Position) error {
	key := scopedKey(csect, name)
	if existing, ok := t.scoped[key]; ok {
		return &DuplicateSymbolError{Name: name, CSect: csect, First: existing.Pos, Pos: pos}
	}
	sym := &Symbol{Name: name, CSect: csect, Block: block, Value: value, Absolute: absolute, Pos: pos}
	t.scoped[key] = sym
	t.bare[name] = sym
	return nil
}

// Lookup resolves name within the given section: first the scoped key for
// that section, falling back to the bare (last-write-wins) entry so a
// reference can still find a symbol defined in another section's block by
// simple name, matching the original implementation's behavior for
// single-section programs.
func (t *Table) Lookup(csect, name string) (*Symbol, bool) {
	if sym, ok := t.scoped[scopedKey(csect, name)]; ok {
		return sym, true
	}
	sym, ok := t.bare[name]
	return sym, ok
}

// LookupScoped returns the entry stored under the fully scoped key only.
func (t *Table) LookupScoped(csect, name string) (*Symbol, bool) {
	sym, ok := t.scoped[scopedKey(csect, name)]
	return sym, ok
}

// LookupBare returns the entry stored under the bare (last-write-wins) key.
func (t *Table) LookupBare(name string) (*Symbol, bool) {
	sym, ok := t.bare[name]
	return sym, ok
}

// All returns every scoped entry, for folding and diagnostics.
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.scoped))
	for _, sym := range t.scoped {
		out = append(out, sym)
	}
	return out
}

// BlockBase reports the absolute base address for a block, used by Fold.
type BlockBase interface {
	Base(block string) (int, bool)
}

// Fold returns a fresh table with every non-absolute symbol's value
// replaced by value + block.base, per spec §4.4 / §9 ("fold once, up
// front, into a fresh table"). The Pass 1 table is never mutated.
func (t *Table) Fold(bases BlockBase) (*Table, error) {
	folded := New()
	for _, sym := range t.scoped {
		v := sym.Value
		if !sym.Absolute {
			base, ok := bases.Base(sym.Block)
			if !ok {
				return nil, fmt.Errorf("%s: symbol %q: unknown block %q", sym.Pos, sym.Name, sym.Block)
			}
			v = sym.Value + base
		}
		folded.scoped[scopedKey(sym.CSect, sym.Name)] = &Symbol{
			Name: sym.Name, CSect: sym.CSect, Block: sym.Block,
			Value: v, Absolute: sym.Absolute, Pos: sym.Pos,
		}
	}
	for name, sym := range t.bare {
		key := scopedKey(sym.CSect, sym.Name)
		if s, ok := folded.scoped[key]; ok {
			folded.bare[name] = s
		}
	}
	return folded, nil
}
