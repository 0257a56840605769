package objrec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/sicxe-asm/sicasm/objrec"
)

func TestRenderCanonicalOrder(t *testing.T) {
	p := &objrec.Program{
		Header:  objrec.Header{Name: "COPY", Start: 0x1000, Length: 0x1A},
		Exports: []objrec.Export{{Name: "BUFFER", Addr: 0x2000}},
		Imports: []string{"RDREC"},
		Texts: []objrec.Text{
			{Start: 0x1000, Bytes: []byte{0x14, 0x10, 0x03}},
		},
		Mods: []objrec.Mod{
			{Addr: 0x1001, HalfBytes: 5, Sign: '+', Symbol: "RDREC"},
		},
	}
	got := p.Render()
	want := []string{
		"HCOPY  00100000001A",
		"DBUFFER002000",
		"RRDREC ",
		"T00100003141003",
		"M00100105+RDREC ",
		"E001000",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOmitsEmptyDAndR(t *testing.T) {
	p := &objrec.Program{Header: objrec.Header{Name: "PROG2", Start: 0, Length: 3}}
	got := p.Render()
	assert.Len(t, got, 2, "expected only H and E records")
	assert.Equal(t, byte('H'), got[0][0])
	assert.Equal(t, byte('E'), got[1][0])
}

func TestRenderSortsTextRecordsByAddress(t *testing.T) {
	p := &objrec.Program{
		Header: objrec.Header{Name: "X", Start: 0},
		Texts: []objrec.Text{
			{Start: 0x10, Bytes: []byte{0x01}},
			{Start: 0x00, Bytes: []byte{0x02}},
		},
	}
	got := p.Render()
	assert.Equal(t, "000000", got[1][1:7], "expected first T record at address 0")
	assert.Equal(t, "000010", got[2][1:7], "expected second T record at address 0x10")
}
