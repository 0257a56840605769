package opcode_test

import (
	"strings"
	"testing"

	"github.com/sicxe-asm/sicasm/opcode"
)

const sampleOptab = `name,opcode,format
STL,14,3/4
LDA, 00 ,3/4
COMPR, A0,2
RSUB,4C,3
FIX,C4,1
`

func TestLoad(t *testing.T) {
	tab, err := opcode.Load(strings.NewReader(sampleOptab))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, ok := tab.Lookup("stl")
	if !ok || e.Code != 0x14 || e.Format != opcode.Format3or4 {
		t.Fatalf("STL lookup: %+v ok=%v", e, ok)
	}
	e, ok = tab.Lookup("COMPR")
	if !ok || e.Format != opcode.Format2 {
		t.Fatalf("COMPR lookup: %+v ok=%v", e, ok)
	}
	if !tab.IsStandalone("FIX") {
		t.Fatal("FIX should be standalone (format 1)")
	}
	if tab.IsStandalone("STL") {
		t.Fatal("STL should not be standalone")
	}
}

func TestLoadMissingOpcode(t *testing.T) {
	_, err := opcode.Load(strings.NewReader("name,opcode,format\nSTL,,3/4\n"))
	if err == nil {
		t.Fatal("expected error for missing opcode")
	}
}

func TestLoadInvalidHex(t *testing.T) {
	_, err := opcode.Load(strings.NewReader("name,opcode,format\nSTL,ZZ,3/4\n"))
	if err == nil {
		t.Fatal("expected error for invalid hex opcode")
	}
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := opcode.Load(strings.NewReader("name,code\nSTL,14\n"))
	if err == nil {
		t.Fatal("expected error for missing column")
	}
}
