package pass1

import (
	"github.com/sicxe-asm/sicasm/block"
	"github.com/sicxe-asm/sicasm/littab"
	"github.com/sicxe-asm/sicasm/macro"
)

// flushLiterals places every as-yet-unplaced literal at the current
// location counter of cur, in declaration order, advancing it past each
// one's bytes, per spec §4.3 step 9 ("LTORG/END: place every pending
// literal at the current locctr, advancing it as for BYTE"). It returns
// one synthetic Intermediate per literal, flagged Synthetic so the
// listing formatter and Pass 2 know there is no real source line behind
// it.
func flushLiterals(lt *littab.Table, cur *block.Block, csect string, at macro.ExpandedLine) []*Intermediate {
	var out []*Intermediate
	for _, lit := range lt.Pending() {
		lt.Place(lit.Raw, cur.LocCtr, cur.Name)
		out = append(out, &Intermediate{
			LineNo: at.Pos.Line, Pos: at.Pos, CSect: csect, Block: cur.Name, Addr: cur.LocCtr,
			Label: "*", Mnemonic: "BYTE", Operand: lit.Raw, Synthetic: true,
		})
		cur.LocCtr += len(lit.Bytes)
	}
	return out
}
