package token

import "strings"

// Line is the result of splitting one source line, per spec §4.1.
type Line struct {
	Pos      Position
	Label    string // empty if none
	Mnemonic string // uppercased, leading '+' stripped
	Operand  string // empty if none
	Extended bool   // true if the mnemonic carried a leading '+'
}

// standaloneDirectives may appear as the second of two tokens with no
// operand of their own, so the first token is a label rather than an
// operand: "EOF  END" means label EOF, directive END, no operand;
// "PROG1 CSECT" means label PROG1 names the control section.
var standaloneDirectives = map[string]bool{
	"END":    true,
	"NOBASE": true,
	"CSECT":  true,
}

// Classifier reports whether a mnemonic never takes an operand (format-1
// SIC/XE instructions such as FIX, HIO, NORM, SIO, TIO, and the format-3
// RSUB). It is
// supplied by the opcode table so the line parser never has to hard-code
// the instruction set.
type Classifier interface {
	IsStandalone(mnemonic string) bool
}

// ParseLine applies spec §4.1's rules to one raw source line. It returns a
// nil Line (and nil error) for blank lines and full-line comments.
func ParseLine(raw string, pos Position, cls Classifier) (*Line, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, ".") {
		return nil, nil
	}

	if idx := strings.IndexByte(trimmed, '.'); idx >= 0 {
		trimmed = strings.TrimRight(trimmed[:idx], " \t")
	}
	if trimmed == "" {
		return nil, nil
	}

	fields := splitN(trimmed, 3)
	if len(fields) == 0 {
		return nil, nil
	}

	l := &Line{Pos: pos}

	switch len(fields) {
	case 1:
		l.Mnemonic = fields[0]
	case 2:
		if isStandalone(fields[1], cls) {
			l.Label = fields[0]
			l.Mnemonic = fields[1]
		} else {
			l.Mnemonic = fields[0]
			l.Operand = fields[1]
		}
	default:
		l.Label = fields[0]
		l.Mnemonic = fields[1]
		l.Operand = fields[2]
	}

	if strings.HasPrefix(l.Mnemonic, "+") {
		l.Extended = true
		l.Mnemonic = l.Mnemonic[1:]
	}
	l.Mnemonic = strings.ToUpper(l.Mnemonic)

	return l, nil
}

// splitN splits s on runs of whitespace into at most n fields, leaving any
// remaining whitespace runs inside the final field untouched (so an
// operand such as C'HELLO WORLD' is not itself split).
func splitN(s string, n int) []string {
	var out []string
	for len(out) < n-1 {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out
		}
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return append(out, s)
		}
		out = append(out, s[:idx])
		s = s[idx:]
	}
	s = strings.TrimLeft(s, " \t")
	if s != "" {
		out = append(out, s)
	}
	return out
}

func isStandalone(mnemonic string, cls Classifier) bool {
	if standaloneDirectives[strings.ToUpper(mnemonic)] {
		return true
	}
	if cls != nil {
		return cls.IsStandalone(mnemonic)
	}
	return false
}
