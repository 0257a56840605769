// Package block implements the program-block / control-section table of
// spec §3 / §4.3: each control section (CSECT) and each USE block within
// it has its own location counter, and after Pass 1 each block is assigned
// an absolute base address.
package block

import "fmt"

// DefaultCSect is the implicit control section in effect before any CSECT
// directive is seen.
const DefaultCSect = "DEFAULT"

// useSuffix names the USE block of a control section that a USE directive
// with no operand selects.
const useSuffix = "_DEFAULT"

// Block is one program block: either a control section's main region or a
// named USE sub-region within it.
type Block struct {
	Name   string
	CSect  string // owning control section name
	LocCtr int    // current location counter during Pass 1
	Size   int    // final size, set once Pass 1 finishes with this block
	Base   int    // absolute base address, assigned after Pass 1
}

// UseBlockName returns the canonical block name for a USE tag within csect.
func UseBlockName(csect, use string) string {
	if use == "" {
		return csect + useSuffix
	}
	return csect + "_" + use
}

// Table tracks every block across every control section.
type Table struct {
	blocks map[string]*Block
	// order preserves first-seen order per control section, needed to lay
	// USE blocks out sequentially after their CSECT's main region.
	csectOrder []string
	useOrder   map[string][]string
}

// New creates an empty block table, with the implicit DEFAULT control
// section's main block already present.
func New() *Table {
	t := &Table{
		blocks:   make(map[string]*Block),
		useOrder: make(map[string][]string),
	}
	t.ensureCSect(DefaultCSect)
	return t
}

func (t *Table) ensureCSect(name string) *Block {
	if b, ok := t.blocks[name]; ok {
		return b
	}
	b := &Block{Name: name, CSect: name}
	t.blocks[name] = b
	t.csectOrder = append(t.csectOrder, name)
	return b
}

// EnsureUse returns the USE block for (csect, use), creating it if this is
// its first appearance.
func (t *Table) EnsureUse(csect, use string) *Block {
	name := UseBlockName(csect, use)
	if b, ok := t.blocks[name]; ok {
		return b
	}
	b := &Block{Name: name, CSect: csect}
	t.blocks[name] = b
	t.useOrder[csect] = append(t.useOrder[csect], name)
	return b
}

// EnsureCSect returns the main block for a control section, creating it on
// first reference.
func (t *Table) EnsureCSect(name string) *Block {
	return t.ensureCSect(name)
}

// Get returns the block by name.
func (t *Table) Get(name string) (*Block, bool) {
	b, ok := t.blocks[name]
	return b, ok
}

// CSects returns control section names in first-seen order.
func (t *Table) CSects() []string {
	out := make([]string, len(t.csectOrder))
	copy(out, t.csectOrder)
	return out
}

// FinalizeSizes stores each block's final location counter as its size.
// Called once, after the whole Pass 1 walk completes.
func (t *Table) FinalizeSizes() {
	for _, b := range t.blocks {
		b.Size = b.LocCtr
	}
}

// AssignBases lays out, for every control section, the main block at
// address 0 and each of its USE blocks sequentially after it, per spec
// §4.3: "the main CSECT block starts at 0; each USE block of that CSECT
// follows sequentially at CSECT_size + Σ prior USE_sizes." Each control
// section is laid out independently: cross-CSECT layout is not done here.
func (t *Table) AssignBases() {
	for _, csect := range t.csectOrder {
		main := t.blocks[csect]
		main.Base = 0
		offset := main.Size
		for _, useName := range t.useOrder[csect] {
			u := t.blocks[useName]
			u.Base = offset
			offset += u.Size
		}
	}
}

// Base implements symtab.BlockBase.
func (t *Table) Base(name string) (int, bool) {
	b, ok := t.blocks[name]
	if !ok {
		return 0, false
	}
	return b.Base, true
}

// CSectLength returns a control section's total length: its own size plus
// every USE block laid out after it.
func (t *Table) CSectLength(csect string) (int, error) {
	main, ok := t.blocks[csect]
	if !ok {
		return 0, fmt.Errorf("unknown control section %q", csect)
	}
	total := main.Size
	for _, useName := range t.useOrder[csect] {
		total += t.blocks[useName].Size
	}
	return total, nil
}
