// Package littab implements the literal table of spec §3/§4.3/§4.4:
// literal syntactic form (e.g. =C'EOF', =X'05', =123) to decoded bytes and
// eventual pool address.
package littab

import (
	"fmt"
	"strconv"
	"strings"
)

// Literal is one literal-table entry.
type Literal struct {
	Raw      string // including the leading '='
	Bytes    []byte
	PoolAddr int  // valid only when Placed is true
	Placed   bool // pool address assigned
	Block    string
}

// Table holds every literal seen, in first-registration order (spec §4.4:
// "Pass 2 walks the literal table in declaration order").
type Table struct {
	order   []string
	entries map[string]*Literal
}

// New creates an empty literal table.
func New() *Table {
	return &Table{entries: make(map[string]*Literal)}
}

// Register adds raw to the table if it is not already present, per spec
// §4.3 step 5 ("if not already in the literal table, register it with a
// null pool address").
func (t *Table) Register(raw string) error {
	if _, ok := t.entries[raw]; ok {
		return nil
	}
	bytes, err := Decode(raw)
	if err != nil {
		return err
	}
	t.entries[raw] = &Literal{Raw: raw, Bytes: bytes}
	t.order = append(t.order, raw)
	return nil
}

// Get returns the literal entry for raw.
func (t *Table) Get(raw string) (*Literal, bool) {
	l, ok := t.entries[raw]
	return l, ok
}

// Pending returns, in declaration order, every literal whose pool address
// has not yet been assigned.
func (t *Table) Pending() []*Literal {
	var out []*Literal
	for _, raw := range t.order {
		if l := t.entries[raw]; !l.Placed {
			out = append(out, l)
		}
	}
	return out
}

// Place assigns a literal's pool address and owning block. Called by
// LTORG/END handling, and by the large-reservation flush heuristic.
func (t *Table) Place(raw string, addr int, block string) {
	l := t.entries[raw]
	l.PoolAddr = addr
	l.Block = block
	l.Placed = true
}

// All returns every literal in declaration order.
func (t *Table) All() []*Literal {
	out := make([]*Literal, len(t.order))
	for i, raw := range t.order {
		out[i] = t.entries[raw]
	}
	return out
}

// Decode converts a literal's raw syntactic form into its byte sequence.
// C'...' decodes to the characters' byte values; X'...' decodes the hex
// digits directly; a bare decimal value decodes to a 3-byte big-endian
// word, matching spec §4.4's WORD encoding.
func Decode(raw string) ([]byte, error) {
	body := strings.TrimPrefix(raw, "=")
	switch {
	case strings.HasPrefix(body, "C'") && strings.HasSuffix(body, "'"):
		chars := body[2 : len(body)-1]
		out := make([]byte, len(chars))
		for i := 0; i < len(chars); i++ {
			out[i] = chars[i]
		}
		return out, nil
	case strings.HasPrefix(body, "X'") && strings.HasSuffix(body, "'"):
		digits := body[2 : len(body)-1]
		if len(digits)%2 != 0 {
			return nil, fmt.Errorf("invalid literal %q: odd number of hex digits", raw)
		}
		out := make([]byte, len(digits)/2)
		for i := 0; i < len(out); i++ {
			v, err := strconv.ParseUint(digits[2*i:2*i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid literal %q: %w", raw, err)
			}
			out[i] = byte(v)
		}
		return out, nil
	default:
		n, err := strconv.Atoi(body)
		if err != nil {
			return nil, fmt.Errorf("invalid literal %q", raw)
		}
		return []byte{byte(n >> 16), byte(n >> 8), byte(n)}, nil
	}
}

// ByteLen returns the number of bytes a literal occupies in its pool.
func (l *Literal) ByteLen() int { return len(l.Bytes) }
