package pass2

import (
	"strings"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/token"
)

// registerNumbers maps the SIC/XE register names to their numeric codes,
// spec §4.4 "Format 2": A,X,L,B,S,T,F -> 0,1,2,3,4,5,6.
var registerNumbers = map[string]int{
	"A": 0, "X": 1, "L": 2, "B": 3, "S": 4, "T": 5, "F": 6,
}

func registerNumber(name string) (int, bool) {
	n, ok := registerNumbers[strings.ToUpper(strings.TrimSpace(name))]
	return n, ok
}

// encodeFormat2 packs a format-2 instruction: one or two comma-separated
// register operands, second defaulting to 0 when absent.
func encodeFormat2(opcodeByte byte, operand string, pos token.Position) ([]byte, error) {
	parts := strings.SplitN(operand, ",", 2)
	r1, ok := registerNumber(parts[0])
	if !ok {
		return nil, asmerr.New(pos, asmerr.MalformedLine, parts[0], "unknown register")
	}
	r2 := 0
	if len(parts) == 2 {
		r2, ok = registerNumber(parts[1])
		if !ok {
			return nil, asmerr.New(pos, asmerr.MalformedLine, parts[1], "unknown register")
		}
	}
	word := (uint16(opcodeByte) << 8) | uint16(r1<<4) | uint16(r2)
	return []byte{byte(word >> 8), byte(word)}, nil
}
