package pass1

import (
	"strconv"
	"strings"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/symtab"
	"github.com/sicxe-asm/sicasm/token"
)

// pendingEqu is an EQU whose right-hand expression could not be resolved
// when its line was reached, because it names a symbol defined later.
// Spec §9 flags this as unhandled in the original implementation and
// mandates a deferred fix-up pass (SPEC_FULL §4.6) instead of silently
// computing a wrong value.
type pendingEqu struct {
	CSect string
	Label string
	Block string
	Expr  string
	Pos   token.Position
}

// evalEqu evaluates one of the four EQU expression forms recognized by
// spec §4.3: "*" (current locctr), "A - B"/"A + B" of defined symbols or
// integers, a plain integer, or a plain symbol. ok is false when the
// expression cannot yet be resolved (a referenced symbol isn't defined
// yet), in which case the caller defers it to the fix-up pass.
func evalEqu(expr string, st *symtab.Table, csect string, curLoc int) (value int, absolute bool, ok bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false, false
	}
	if expr == "*" {
		return curLoc, false, true
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return n, true, true
	}
	if idx := splitOperator(expr); idx >= 0 {
		op := expr[idx]
		a := strings.TrimSpace(expr[:idx])
		b := strings.TrimSpace(expr[idx+1:])
		va, oka := resolveOperand(a, st, csect)
		vb, okb := resolveOperand(b, st, csect)
		if !oka || !okb {
			return 0, false, false
		}
		if op == '+' {
			return va + vb, true, true
		}
		return va - vb, true, true
	}
	sym, ok := st.Lookup(csect, expr)
	if !ok {
		return 0, false, false
	}
	return sym.Value, sym.Absolute, true
}

// splitOperator finds the top-level '+' or '-' in a two-operand EQU
// expression, or -1 if expr is a single token.
func splitOperator(expr string) int {
	for i := 1; i < len(expr); i++ {
		if expr[i] == '+' || expr[i] == '-' {
			return i
		}
	}
	return -1
}

func resolveOperand(tok string, st *symtab.Table, csect string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, true
	}
	sym, ok := st.Lookup(csect, tok)
	if !ok {
		return 0, false
	}
	return sym.Value, true
}

// resolvePendingEqus runs the fix-up pass of SPEC_FULL §4.6: iterate the
// deferred EQU entries to a fixed point (one EQU may depend on another
// that itself needed deferral), binding each as soon as it resolves. Any
// entry still unresolved afterward is a fatal UndefinedSymbol error.
func resolvePendingEqus(st *symtab.Table, pending []*pendingEqu) error {
	for {
		progressed := false
		var remaining []*pendingEqu
		for _, p := range pending {
			value, absolute, ok := evalEqu(p.Expr, st, p.CSect, 0)
			if !ok {
				remaining = append(remaining, p)
				continue
			}
			if err := st.Define(p.CSect, p.Label, value, p.Block, absolute, p.Pos); err != nil {
				return err
			}
			progressed = true
		}
		pending = remaining
		if len(pending) == 0 {
			return nil
		}
		if !progressed {
			first := pending[0]
			return asmerr.New(first.Pos, asmerr.UndefinedSymbol, first.Expr,
				"EQU expression could not be resolved")
		}
	}
}
