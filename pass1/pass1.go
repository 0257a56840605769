package pass1

import (
	"strconv"
	"strings"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/block"
	"github.com/sicxe-asm/sicasm/littab"
	"github.com/sicxe-asm/sicasm/macro"
	"github.com/sicxe-asm/sicasm/opcode"
	"github.com/sicxe-asm/sicasm/symtab"
	"github.com/sicxe-asm/sicasm/token"
)

// DefaultLargeReservation is the RESW/RESB byte threshold above which
// pending literals are flushed as if an LTORG preceded, per spec §4.3
// step 8. Spec §9 documents this as a pragmatic, non-canonical choice.
const DefaultLargeReservation = 100

// DefaultProgName names the H-record when a source has no START label at
// all, so the object program never leaks the internal DEFAULT-block
// sentinel as its program name.
const DefaultProgName = "NONAME"

// Config tunes the parts of Pass 1 spec §9 calls out as implementation
// choices.
type Config struct {
	LargeReservation int
	DefaultProgName  string
}

// Result is everything Pass 1 hands to Pass 2: the intermediate stream
// and the populated symbol, literal, and block tables.
type Result struct {
	Intermediates []*Intermediate
	Symbols       *symtab.Table
	Literals      *littab.Table
	Blocks        *block.Table
	Linkage       map[string]*Linkage
	CSects        []string
	ProgramName   string
	// Origins holds each control section's starting address as given by
	// its START operand (0 for any section with none). Because START
	// seeds locctr directly with that address, every block-local value
	// Pass 1 records already includes it; Origins exists only so Pass 2
	// can recover the H-record's start field and program length
	// (size - origin) separately from the folding base.
	Origins map[string]int
}

// Run walks a macro-expanded line stream and assigns addresses, per spec
// §4.3.
func Run(lines []macro.ExpandedLine, optab *opcode.Table, cfg Config) (*Result, error) {
	if cfg.LargeReservation == 0 {
		cfg.LargeReservation = DefaultLargeReservation
	}
	if cfg.DefaultProgName == "" {
		cfg.DefaultProgName = DefaultProgName
	}

	st := symtab.New()
	lt := littab.New()
	bt := block.New()
	linkage := map[string]*Linkage{block.DefaultCSect: newLinkage()}

	cur, _ := bt.Get(block.DefaultCSect)
	curCSect := block.DefaultCSect
	programName := ""

	var intermediates []*Intermediate
	var pending []*pendingEqu
	origins := map[string]int{}
	ended := false

	linkageFor := func(csect string) *Linkage {
		l, ok := linkage[csect]
		if !ok {
			l = newLinkage()
			linkage[csect] = l
		}
		return l
	}

	for _, el := range lines {
		if ended {
			break
		}
		line, err := token.ParseLine(el.Raw, el.Pos, optab)
		if err != nil {
			return nil, err
		}
		if line == nil {
			continue
		}

		switch line.Mnemonic {
		case "START":
			if len(intermediates) == 0 {
				v, err := strconv.ParseInt(strings.TrimSpace(line.Operand), 16, 64)
				if err != nil {
					return nil, asmerr.New(el.Pos, asmerr.MalformedLine, line.Operand, "invalid START address")
				}
				cur.LocCtr = int(v)
				programName = line.Label
				origins[curCSect] = int(v)
			}
			intermediates = append(intermediates, rec(el, curCSect, cur, line))
			continue

		case "CSECT":
			name := line.Label
			if name == "" {
				name = line.Operand
			}
			cur = bt.EnsureCSect(name)
			curCSect = name
			linkageFor(curCSect)
			intermediates = append(intermediates, rec(el, curCSect, cur, line))
			continue

		case "USE":
			cur = bt.EnsureUse(curCSect, line.Operand)
			intermediates = append(intermediates, rec(el, curCSect, cur, line))
			continue
		}

		// Large-reservation heuristic (spec §4.3 step 8): flush pending
		// literals before the reservation if it would push them out of
		// PC-relative range.
		if line.Mnemonic == "RESW" || line.Mnemonic == "RESB" {
			n, err := strconv.Atoi(strings.TrimSpace(line.Operand))
			if err != nil {
				return nil, asmerr.New(el.Pos, asmerr.MalformedLine, line.Operand, "invalid reservation count")
			}
			size := n
			if line.Mnemonic == "RESW" {
				size = 3 * n
			}
			if size > cfg.LargeReservation {
				intermediates = append(intermediates, flushLiterals(lt, cur, curCSect, el)...)
			}
		}

		r := rec(el, curCSect, cur, line)
		intermediates = append(intermediates, r)

		if strings.HasPrefix(line.Operand, "=") {
			if err := lt.Register(line.Operand); err != nil {
				return nil, asmerr.New(el.Pos, asmerr.InvalidByteOperand, line.Operand, err.Error())
			}
		}

		if line.Label != "" && line.Mnemonic != "EQU" {
			if err := st.Define(curCSect, line.Label, r.Addr, cur.Name, false, el.Pos); err != nil {
				return nil, err
			}
		}

		switch line.Mnemonic {
		case "EXTDEF":
			for _, name := range splitCSV(line.Operand) {
				linkageFor(curCSect).Exports[name] = true
			}

		case "EXTREF":
			for _, name := range splitCSV(line.Operand) {
				linkageFor(curCSect).Imports[name] = true
			}

		case "BASE", "NOBASE":
			// No Pass 1 bookkeeping; Pass 2 tracks the base register value.

		case "EQU":
			value, absolute, ok := evalEqu(line.Operand, st, curCSect, cur.LocCtr)
			if ok {
				if err := st.Define(curCSect, line.Label, value, cur.Name, absolute, el.Pos); err != nil {
					return nil, err
				}
			} else {
				pending = append(pending, &pendingEqu{
					CSect: curCSect, Label: line.Label, Block: cur.Name,
					Expr: line.Operand, Pos: el.Pos,
				})
			}

		case "WORD":
			cur.LocCtr += 3

		case "RESW":
			n, _ := strconv.Atoi(strings.TrimSpace(line.Operand))
			cur.LocCtr += 3 * n

		case "RESB":
			n, _ := strconv.Atoi(strings.TrimSpace(line.Operand))
			cur.LocCtr += n

		case "BYTE":
			bytes, err := littab.Decode(line.Operand)
			if err != nil {
				return nil, asmerr.New(el.Pos, asmerr.InvalidByteOperand, line.Operand, err.Error())
			}
			cur.LocCtr += len(bytes)

		case "LTORG":
			intermediates = append(intermediates, flushLiterals(lt, cur, curCSect, el)...)

		case "END":
			intermediates = append(intermediates, flushLiterals(lt, cur, curCSect, el)...)
			ended = true

		default:
			entry, ok := optab.Lookup(line.Mnemonic)
			if !ok {
				return nil, asmerr.New(el.Pos, asmerr.InvalidOpcode, line.Mnemonic, "unknown mnemonic")
			}
			switch {
			case entry.Format == opcode.Format2:
				cur.LocCtr += 2
			case line.Extended:
				cur.LocCtr += 4
			default:
				cur.LocCtr += 3
			}
		}
	}

	bt.FinalizeSizes()
	bt.AssignBases()

	if err := resolvePendingEqus(st, pending); err != nil {
		return nil, err
	}

	if programName == "" {
		programName = cfg.DefaultProgName
		if cs := bt.CSects(); len(cs) > 0 && cs[0] != block.DefaultCSect {
			programName = cs[0]
		}
	}
	for _, cs := range bt.CSects() {
		if _, ok := origins[cs]; !ok {
			origins[cs] = 0
		}
	}

	return &Result{
		Intermediates: intermediates,
		Symbols:       st,
		Literals:      lt,
		Blocks:        bt,
		Linkage:       linkage,
		CSects:        bt.CSects(),
		ProgramName:   programName,
		Origins:       origins,
	}, nil
}

func rec(el macro.ExpandedLine, csect string, cur *block.Block, line *token.Line) *Intermediate {
	return &Intermediate{
		LineNo: el.Pos.Line, Pos: el.Pos, CSect: csect, Block: cur.Name, Addr: cur.LocCtr,
		Label: line.Label, Mnemonic: line.Mnemonic, Operand: line.Operand, Extended: line.Extended,
	}
}

func splitCSV(operand string) []string {
	var out []string
	for _, p := range strings.Split(operand, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
