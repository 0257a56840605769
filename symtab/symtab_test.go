package symtab_test

import (
	"testing"

	"github.com/sicxe-asm/sicasm/symtab"
	"github.com/sicxe-asm/sicasm/token"
)

func pos(line int) token.Position { return token.Position{Filename: "t.asm", Line: line} }

func TestDefineDualKey(t *testing.T) {
	st := symtab.New()
	if err := st.Define("PROG1", "X", 10, "PROG1", false, pos(1)); err != nil {
		t.Fatalf("Define: %v", err)
	}
	scoped, ok := st.LookupScoped("PROG1", "X")
	if !ok {
		t.Fatal("scoped lookup failed")
	}
	bare, ok := st.LookupBare("X")
	if !ok {
		t.Fatal("bare lookup failed")
	}
	if scoped.Value != bare.Value {
		t.Fatalf("symtab[PROG1.X]=%d != symtab[X]=%d", scoped.Value, bare.Value)
	}
}

func TestDuplicateWithinSection(t *testing.T) {
	st := symtab.New()
	if err := st.Define("PROG1", "X", 10, "PROG1", false, pos(1)); err != nil {
		t.Fatal(err)
	}
	err := st.Define("PROG1", "X", 20, "PROG1", false, pos(2))
	if err == nil {
		t.Fatal("expected duplicate symbol error")
	}
	if _, ok := err.(*symtab.DuplicateSymbolError); !ok {
		t.Fatalf("expected *DuplicateSymbolError, got %T", err)
	}
}

func TestSameLabelDistinctSections(t *testing.T) {
	st := symtab.New()
	if err := st.Define("PROG1", "X", 10, "PROG1", false, pos(1)); err != nil {
		t.Fatal(err)
	}
	if err := st.Define("PROG2", "X", 99, "PROG2", false, pos(2)); err != nil {
		t.Fatal(err)
	}
	x1, _ := st.LookupScoped("PROG1", "X")
	x2, _ := st.LookupScoped("PROG2", "X")
	if x1.Value != 10 || x2.Value != 99 {
		t.Fatalf("sections not independent: %d %d", x1.Value, x2.Value)
	}
	// bare key is last-write-wins: PROG2's definition shadows PROG1's.
	bare, _ := st.LookupBare("X")
	if bare.Value != 99 {
		t.Fatalf("expected bare key to hold last write (99), got %d", bare.Value)
	}
}

type fakeBases map[string]int

func (f fakeBases) Base(block string) (int, bool) { v, ok := f[block]; return v, ok }

func TestFoldAddsBlockBase(t *testing.T) {
	st := symtab.New()
	_ = st.Define("PROG1", "A", 5, "PROG1", false, pos(1))
	_ = st.Define("PROG1", "B", 100, "PROG1_DEFAULT", false, pos(2))
	_ = st.Define("PROG1", "LIMIT", 4096, "PROG1", true, pos(3))

	folded, err := st.Fold(fakeBases{"PROG1": 1000, "PROG1_DEFAULT": 2000})
	if err != nil {
		t.Fatalf("Fold: %v", err)
	}
	a, _ := folded.LookupScoped("PROG1", "A")
	if a.Value != 1005 {
		t.Fatalf("expected folded A=1005, got %d", a.Value)
	}
	b, _ := folded.LookupScoped("PROG1", "B")
	if b.Value != 2100 {
		t.Fatalf("expected folded B=2100, got %d", b.Value)
	}
	limit, _ := folded.LookupScoped("PROG1", "LIMIT")
	if limit.Value != 4096 {
		t.Fatalf("absolute symbol should not be folded, got %d", limit.Value)
	}
}
