package pass2

import (
	"strconv"
	"strings"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/littab"
	"github.com/sicxe-asm/sicasm/objrec"
	"github.com/sicxe-asm/sicasm/pass1"
)

// encodeByte decodes a BYTE operand (or a synthetic literal-pool
// emission, whose operand is the literal's raw "=..." form) into its
// byte sequence. littab.Decode strips a leading '=' itself, so both
// forms share one decoder.
func encodeByte(im *pass1.Intermediate) ([]byte, error) {
	bytes, err := littab.Decode(im.Operand)
	if err != nil {
		return nil, asmerr.New(im.Pos, asmerr.InvalidByteOperand, im.Operand, err.Error())
	}
	return bytes, nil
}

// encodeWord implements spec §4.4 "WORD": a bare integer emits directly;
// an "A ± B" expression referencing an EXTREF name emits zero and queues
// an M-record, resolving the non-external operand locally.
func (e *encoder) encodeWord(im *pass1.Intermediate, addr int) ([]byte, *objrec.Mod, error) {
	expr := strings.TrimSpace(im.Operand)

	if n, err := strconv.Atoi(expr); err == nil {
		v := uint32(n) & 0xFFFFFF
		return []byte{byte(v >> 16), byte(v >> 8), byte(v)}, nil, nil
	}

	op, a, b, ok := splitWordExpr(expr)
	if !ok {
		return nil, nil, asmerr.New(im.Pos, asmerr.MalformedLine, expr, "invalid WORD expression")
	}

	aExternal := e.linkage != nil && e.linkage.Imports[a]
	bExternal := e.linkage != nil && e.linkage.Imports[b]

	if !aExternal && !bExternal {
		va, oka := e.resolveWordOperand(a)
		vb, okb := e.resolveWordOperand(b)
		if !oka || !okb {
			return nil, nil, asmerr.New(im.Pos, asmerr.UndefinedSymbol, expr, "undefined symbol in WORD expression")
		}
		var v int
		if op == '+' {
			v = va + vb
		} else {
			v = va - vb
		}
		uv := uint32(v) & 0xFFFFFF
		return []byte{byte(uv >> 16), byte(uv >> 8), byte(uv)}, nil, nil
	}

	// Exactly one side is external (spec gives no worked case for both):
	// resolve the local side now, queue one M-record for the external
	// side. A's own sign in "A±B" is always '+'; B's sign is the
	// expression's operator.
	local, extern, sign := a, b, op
	if aExternal {
		local, extern, sign = b, a, byte('+')
	}

	v, ok := e.resolveWordOperand(local)
	if !ok {
		return nil, nil, asmerr.New(im.Pos, asmerr.UndefinedSymbol, local, "undefined symbol in WORD expression")
	}
	uv := uint32(v) & 0xFFFFFF
	return []byte{byte(uv >> 16), byte(uv >> 8), byte(uv)},
		&objrec.Mod{Addr: addr, HalfBytes: 6, Sign: sign, Symbol: extern}, nil
}

// resolveExpr evaluates a symbol-or-arithmetic operand (used by BASE and
// plain format-3/4 operands): spec §4.4's BASE is defined as a single
// symbol, but scenario 2's `BASE BUFEND-BUFFER` is an arithmetic
// expression; this accepts both forms, resolving the same way as WORD.
func (e *encoder) resolveExpr(operand string) (int, bool) {
	operand = strings.TrimSpace(operand)
	if v, ok := e.resolveWordOperand(operand); ok {
		return v, true
	}
	op, a, b, ok := splitWordExpr(operand)
	if !ok {
		return 0, false
	}
	va, oka := e.resolveWordOperand(a)
	vb, okb := e.resolveWordOperand(b)
	if !oka || !okb {
		return 0, false
	}
	if op == '+' {
		return va + vb, true
	}
	return va - vb, true
}

func (e *encoder) resolveWordOperand(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	sym, ok := e.sym.Lookup(e.csect, tok)
	if !ok {
		return 0, false
	}
	return sym.Value, true
}

// splitWordExpr splits a two-operand "A+B" or "A-B" WORD expression.
func splitWordExpr(expr string) (op byte, a, b string, ok bool) {
	for i := 1; i < len(expr); i++ {
		if expr[i] == '+' || expr[i] == '-' {
			return expr[i], strings.TrimSpace(expr[:i]), strings.TrimSpace(expr[i+1:]), true
		}
	}
	return 0, "", "", false
}
