package block_test

import (
	"testing"

	"github.com/sicxe-asm/sicasm/block"
)

func TestUseBlocksLayoutAfterCSect(t *testing.T) {
	bt := block.New()
	main := bt.EnsureCSect("COPY")
	main.LocCtr = 100 // main CSECT occupies [0,100)

	cdata := bt.EnsureUse("COPY", "CDATA")
	cdata.LocCtr = 20
	cblks := bt.EnsureUse("COPY", "CBLKS")
	cblks.LocCtr = 4096

	bt.FinalizeSizes()
	bt.AssignBases()

	if main.Base != 0 {
		t.Fatalf("main base = %d, want 0", main.Base)
	}
	if cdata.Base != 100 {
		t.Fatalf("CDATA base = %d, want 100", cdata.Base)
	}
	if cblks.Base != 120 {
		t.Fatalf("CBLKS base = %d, want 120", cblks.Base)
	}

	length, err := bt.CSectLength("COPY")
	if err != nil {
		t.Fatal(err)
	}
	if length != 100+20+4096 {
		t.Fatalf("CSectLength = %d", length)
	}
}

func TestIndependentCSects(t *testing.T) {
	bt := block.New()
	p1 := bt.EnsureCSect("PROG1")
	p1.LocCtr = 50
	p2 := bt.EnsureCSect("PROG2")
	p2.LocCtr = 80
	bt.FinalizeSizes()
	bt.AssignBases()

	if p1.Base != 0 || p2.Base != 0 {
		t.Fatalf("each CSECT should independently start at 0: p1=%d p2=%d", p1.Base, p2.Base)
	}
}

func TestUseBlockNaming(t *testing.T) {
	if got := block.UseBlockName("COPY", "CDATA"); got != "COPY_CDATA" {
		t.Fatalf("got %q", got)
	}
	if got := block.UseBlockName("COPY", ""); got != "COPY_DEFAULT" {
		t.Fatalf("got %q", got)
	}
}
