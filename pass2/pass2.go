// Package pass2 implements the instruction/data encoder of spec §4.4: it
// consumes the Pass 1 intermediate stream and tables and produces one
// object-code record group per control section (each CSECT is
// independently relocatable and emitted as its own program, spec §4.3).
package pass2

import (
	"sort"

	"github.com/sicxe-asm/sicasm/asmerr"
	"github.com/sicxe-asm/sicasm/block"
	"github.com/sicxe-asm/sicasm/littab"
	"github.com/sicxe-asm/sicasm/objrec"
	"github.com/sicxe-asm/sicasm/opcode"
	"github.com/sicxe-asm/sicasm/pass1"
	"github.com/sicxe-asm/sicasm/symtab"
	"github.com/sicxe-asm/sicasm/token"
)

// encoder holds the state one control section's encoding pass needs:
// the up-front-folded symbol table (spec §9: "fold once, up front, into
// a fresh table", never mutated mid-pass), the literal and block tables,
// this section's linkage set, and its current base register.
type encoder struct {
	optab   *opcode.Table
	sym     *symtab.Table // folded
	lits    *littab.Table
	blocks  *block.Table
	linkage *pass1.Linkage
	csect   string
	base    int
	hasBase bool
}

// Output is the result of encoding every control section in a source:
// the loader-ready record groups, plus the object bytes emitted for each
// intermediate record (the listing formatter's source, spec §4.5).
type Output struct {
	Programs map[string]*objrec.Program
	Bytes    map[*pass1.Intermediate][]byte
}

// Config holds the Pass 2 tunables a config file may override (SPEC_FULL
// §6.4); a MaxTextBytes of zero or less falls back to DefaultConfig's value.
type Config struct {
	MaxTextBytes int // T-record packing threshold, spec §4.4
}

// DefaultConfig reproduces the literal constants spec §4.4 names.
func DefaultConfig() Config {
	return Config{MaxTextBytes: objrec.MaxTextBytes()}
}

// Run encodes every control section in res that has intermediate records,
// returning one objrec.Program per such section keyed by its CSECT name,
// plus the per-line object bytes the listing formatter needs.
func Run(res *pass1.Result, optab *opcode.Table, cfg ...Config) (*Output, error) {
	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.MaxTextBytes <= 0 {
		c.MaxTextBytes = objrec.MaxTextBytes()
	}

	folded, err := res.Symbols.Fold(res.Blocks)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Programs: make(map[string]*objrec.Program, len(res.CSects)),
		Bytes:    make(map[*pass1.Intermediate][]byte),
	}
	for _, csect := range res.CSects {
		// A section with no intermediate records (the implicit DEFAULT
		// section of a source that opens with its own CSECT) has nothing
		// to emit and gets no program.
		empty := true
		for _, im := range res.Intermediates {
			if im.CSect == csect {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		p, err := runSection(res, folded, optab, csect, out.Bytes, c.MaxTextBytes)
		if err != nil {
			return nil, err
		}
		out.Programs[csect] = p
	}
	return out, nil
}

func runSection(res *pass1.Result, folded *symtab.Table, optab *opcode.Table, csect string, lineBytes map[*pass1.Intermediate][]byte, maxTextBytes int) (*objrec.Program, error) {
	e := &encoder{
		optab:   optab,
		sym:     folded,
		lits:    res.Literals,
		blocks:  res.Blocks,
		linkage: res.Linkage[csect],
		csect:   csect,
	}

	var buf []byte
	bufStart := -1
	var texts []objrec.Text

	flush := func() {
		if len(buf) > 0 {
			cp := make([]byte, len(buf))
			copy(cp, buf)
			texts = append(texts, objrec.Text{Start: bufStart, Bytes: cp})
		}
		buf = nil
		bufStart = -1
	}

	emit := func(addr int, bytes []byte) {
		if len(bytes) == 0 {
			return
		}
		if bufStart == -1 {
			bufStart = addr
		}
		if len(buf)+len(bytes) > maxTextBytes {
			flush()
			bufStart = addr
		}
		buf = append(buf, bytes...)
	}

	var mods []objrec.Mod

	for _, im := range res.Intermediates {
		if im.CSect != csect {
			continue
		}
		base, ok := e.blocks.Base(im.Block)
		if !ok {
			return nil, asmerr.New(im.Pos, asmerr.IOError, im.Block, "unknown block")
		}
		addr := im.Addr + base

		switch im.Mnemonic {
		// END and LTORG carry no bytes of their own; a literal pool's bytes
		// already arrive as the synthetic BYTE records flushLiterals emits.
		case "START", "CSECT", "USE", "EXTDEF", "EXTREF", "EQU", "END", "LTORG":
			continue

		case "BASE":
			v, ok := e.resolveExpr(im.Operand)
			if !ok {
				return nil, asmerr.New(im.Pos, asmerr.UndefinedSymbol, im.Operand, "BASE operand undefined")
			}
			e.base, e.hasBase = v, true

		case "NOBASE":
			e.hasBase = false

		case "RESW", "RESB":
			flush()

		case "BYTE":
			bytes, err := encodeByte(im)
			if err != nil {
				return nil, err
			}
			emit(addr, bytes)
			lineBytes[im] = bytes

		case "WORD":
			bytes, mod, err := e.encodeWord(im, addr)
			if err != nil {
				return nil, err
			}
			emit(addr, bytes)
			lineBytes[im] = bytes
			if mod != nil {
				mods = append(mods, *mod)
			}

		default:
			entry, ok := optab.Lookup(im.Mnemonic)
			if !ok {
				return nil, asmerr.New(im.Pos, asmerr.InvalidOpcode, im.Mnemonic, "unknown mnemonic")
			}
			var bytes []byte
			var mod *objrec.Mod
			var err error
			if entry.Format == opcode.Format2 {
				bytes, err = encodeFormat2(entry.Code, im.Operand, im.Pos)
			} else {
				bytes, mod, err = e.encodeFormat34(entry, im, addr)
			}
			if err != nil {
				return nil, err
			}
			emit(addr, bytes)
			lineBytes[im] = bytes
			if mod != nil {
				mods = append(mods, *mod)
			}
		}
	}
	flush()

	size, err := res.Blocks.CSectLength(csect)
	if err != nil {
		return nil, err
	}
	origin := res.Origins[csect]

	name := csect
	if csect == block.DefaultCSect {
		name = res.ProgramName
	}

	linkage := res.Linkage[csect]
	var exports []objrec.Export
	var imports []string
	if linkage != nil {
		for n := range linkage.Exports {
			sym, ok := e.sym.Lookup(csect, n)
			if !ok {
				return nil, asmerr.New(firstPos(res, csect), asmerr.UndefinedSymbol, n, "EXTDEF name never defined")
			}
			exports = append(exports, objrec.Export{Name: n, Addr: sym.Value})
		}
		for n := range linkage.Imports {
			imports = append(imports, n)
		}
	}
	// Export/import declaration order isn't tracked by the linkage set
	// (spec §5 permits either declaration order or a deterministic sorted
	// order); this implementation sorts alphabetically.
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })
	sort.Strings(imports)

	return &objrec.Program{
		Header:  objrec.Header{Name: name, Start: origin, Length: size - origin},
		Exports: exports,
		Imports: imports,
		Texts:   texts,
		Mods:    mods,
	}, nil
}

// firstPos returns the source position of csect's first intermediate
// record, for section-level errors with no single offending line.
func firstPos(res *pass1.Result, csect string) token.Position {
	for _, im := range res.Intermediates {
		if im.CSect == csect {
			return im.Pos
		}
	}
	return token.Position{}
}
