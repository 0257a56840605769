// Package macro implements the textual, non-recursive macro expander of
// spec §4.2: MACRO/MEND capture, and comma-positional parameter
// substitution at invocation sites.
package macro

import (
	"sort"
	"strings"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/token"
)

// Macro is one MACRO...MEND definition.
type Macro struct {
	Name   string
	Params []string
	Body   []string // verbatim source lines captured between MACRO and MEND
	Pos    token.Position
}

// Table holds every macro defined so far. Because Expand builds it
// incrementally while walking the source top to bottom, a macro body can
// never invoke a macro defined later in the file (spec §4.2: "non-
// recursive: a macro body may not invoke a macro defined later").
type Table struct {
	macros map[string]*Macro
}

func newTable() *Table { return &Table{macros: make(map[string]*Macro)} }

// Lookup returns the macro named name, if defined so far.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[strings.ToUpper(name)]
	return m, ok
}

// IsStandalone implements token.Classifier: a zero-parameter macro may be
// invoked with no operand, so a two-token line naming it is (label,
// mnemonic) rather than (mnemonic, operand).
func (t *Table) IsStandalone(mnemonic string) bool {
	m, ok := t.Lookup(mnemonic)
	return ok && len(m.Params) == 0
}

// Len returns the number of macros defined, mostly useful for -verbose
// reporting in cmd/sicasm.
func (t *Table) Len() int { return len(t.macros) }

// ExpandedLine is one line of the output stream the macro expander
// produces, annotated with the source line it came from so later stages
// keep reporting errors against real source positions even across macro
// expansion.
type ExpandedLine struct {
	Raw string
	Pos token.Position
}

// Expand walks a raw source line stream and returns the fully macro-
// expanded line stream plus the macro table built along the way (useful
// for diagnostics; Pass 1 does not need it).
func Expand(lines []string, filename string) ([]ExpandedLine, *Table, error) {
	table := newTable()
	var out []ExpandedLine

	var defining *Macro
	var body []string

	for i, raw := range lines {
		pos := token.Position{Filename: filename, Line: i + 1}
		line, err := token.ParseLine(raw, pos, table)
		if err != nil {
			return nil, nil, err
		}

		if defining != nil {
			if line != nil && line.Mnemonic == "MEND" {
				defining.Body = body
				table.macros[defining.Name] = defining
				defining, body = nil, nil
				continue
			}
			body = append(body, raw)
			continue
		}

		if line == nil {
			out = append(out, ExpandedLine{Raw: raw, Pos: pos})
			continue
		}

		switch {
		case line.Mnemonic == "MACRO":
			m, err := startDefinition(line, pos)
			if err != nil {
				return nil, nil, err
			}
			defining, body = m, nil

		case line.Mnemonic == "MEND":
			return nil, nil, asmerr.New(pos, asmerr.MalformedLine, "MEND", "MEND without matching MACRO")

		default:
			if m, ok := table.Lookup(line.Mnemonic); ok {
				expanded, err := expandInvocation(m, line, pos)
				if err != nil {
					return nil, nil, err
				}
				out = append(out, expanded...)
				continue
			}
			out = append(out, ExpandedLine{Raw: raw, Pos: pos})
		}
	}

	if defining != nil {
		return nil, nil, asmerr.New(
			token.Position{Filename: filename, Line: len(lines)},
			asmerr.MalformedLine, defining.Name, "unterminated macro definition (missing MEND)")
	}

	return out, table, nil
}

func startDefinition(line *token.Line, pos token.Position) (*Macro, error) {
	var name string
	var params []string

	if line.Label != "" {
		name = strings.ToUpper(line.Label)
		params = splitParams(line.Operand)
	} else {
		fields := splitParams(line.Operand)
		if len(fields) == 0 || fields[0] == "" {
			return nil, asmerr.New(pos, asmerr.MalformedLine, "MACRO", "macro definition missing a name")
		}
		name = strings.ToUpper(fields[0])
		params = fields[1:]
	}

	return &Macro{Name: name, Params: params, Pos: pos}, nil
}

func expandInvocation(m *Macro, line *token.Line, pos token.Position) ([]ExpandedLine, error) {
	actuals := splitParams(line.Operand)

	subs := make(map[string]string, len(m.Params))
	for i, formal := range m.Params {
		key := formal
		if !strings.HasPrefix(key, "&") {
			key = "&" + key
		}
		actual := ""
		if i < len(actuals) {
			actual = actuals[i]
		}
		subs[key] = actual
	}

	var out []ExpandedLine
	if line.Label != "" {
		out = append(out, ExpandedLine{Raw: line.Label + " EQU *", Pos: pos})
	}
	for _, bodyLine := range m.Body {
		out = append(out, ExpandedLine{Raw: substitute(bodyLine, subs), Pos: pos})
	}
	return out, nil
}

// substitute textually replaces every formal-parameter key with its bound
// actual, longest key first so "&AB" never gets partially consumed by a
// substitution for "&A".
func substitute(line string, subs map[string]string) string {
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	result := line
	for _, k := range keys {
		result = strings.ReplaceAll(result, k, subs[k])
	}
	return result
}

// splitParams comma-splits an operand into trimmed fields; an empty
// operand yields no fields.
func splitParams(operand string) []string {
	if strings.TrimSpace(operand) == "" {
		return nil
	}
	parts := strings.Split(operand, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
