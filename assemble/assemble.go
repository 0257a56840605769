// Package assemble wires the pipeline stages (token, macro, pass1, pass2,
// objrec, listing) into the single top-level operation spec §5 describes:
// strictly sequential, single-threaded, aborting without partial output
// on the first fatal error. It owns every file handle the run needs and
// guarantees each is closed on every exit path, mirroring the teacher's
// parser.ParseFile open/defer-close idiom.
package assemble

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sicxe-asm/sicasm/config"
	"github.com/sicxe-asm/sicasm/listing"
	"github.com/sicxe-asm/sicasm/macro"
	"github.com/sicxe-asm/sicasm/objrec"
	"github.com/sicxe-asm/sicasm/opcode"
	"github.com/sicxe-asm/sicasm/pass1"
	"github.com/sicxe-asm/sicasm/pass2"
)

// Options configures one assembly run.
type Options struct {
	SourcePath  string
	OptabPath   string
	ObjectPath  string
	ListingPath string
	Config      *config.Config // nil means config.DefaultConfig()
	Verbose     io.Writer      // non-nil enables per-pass progress lines
}

// Result is everything a caller (cmd/sicasm's main, or a test) might want
// back from a completed run.
type Result struct {
	Programs map[string]*objrec.Program
	Listing  []string
}

// Run executes one full assembly: load the opcode table, read the source,
// and drive it through macro expansion, both passes, the record
// assembler, and the listing formatter, writing the two output files.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	optab, err := loadOptab(opts.OptabPath)
	if err != nil {
		return nil, err
	}
	opts.logf("loaded opcode table: %d entries", optab.Size())

	lines, err := readSource(opts.SourcePath)
	if err != nil {
		return nil, err
	}

	expanded, macros, err := macro.Expand(lines, filepath.Base(opts.SourcePath))
	if err != nil {
		return nil, err
	}
	opts.logf("macro expansion: %d source lines -> %d expanded lines (%d macros)",
		len(lines), len(expanded), macros.Len())

	res, err := pass1.Run(expanded, optab, pass1.Config{
		LargeReservation: cfg.Assembly.LargeReservation,
		DefaultProgName:  cfg.Assembly.DefaultProgName,
	})
	if err != nil {
		return nil, err
	}
	opts.logf("pass 1: %d intermediate records, %d symbols, %d literals, %d control section(s)",
		len(res.Intermediates), len(res.Symbols.All()), len(res.Literals.All()), len(res.CSects))

	out, err := pass2.Run(res, optab, pass2.Config{MaxTextBytes: cfg.Assembly.TextRecordMax})
	if err != nil {
		return nil, err
	}
	opts.logf("pass 2: %d object program(s) encoded", len(out.Programs))

	rows, err := listing.Build(res, res.Blocks, out.Bytes)
	if err != nil {
		return nil, err
	}
	listCfg := listing.Config{
		LineNumberWidth: cfg.Listing.LineNumberWidth,
		SourceWidth:     cfg.Listing.SourceWidth,
		EmitHeader:      cfg.Listing.EmitHeader,
	}
	rendered := listing.Render(res.ProgramName, rows, listCfg)

	if err := writeObjectProgram(opts.ObjectPath, res.CSects, out.Programs); err != nil {
		return nil, err
	}
	if err := writeLines(opts.ListingPath, rendered); err != nil {
		return nil, err
	}
	opts.logf("wrote %s and %s", opts.ObjectPath, opts.ListingPath)

	return &Result{Programs: out.Programs, Listing: rendered}, nil
}

func (o Options) logf(format string, args ...any) {
	if o.Verbose == nil {
		return
	}
	fmt.Fprintf(o.Verbose, format+"\n", args...)
}

func loadOptab(path string) (*opcode.Table, error) {
	f, err := os.Open(path) // #nosec G304 -- user-supplied opcode table path
	if err != nil {
		return nil, fmt.Errorf("opening opcode table %s: %w", path, err)
	}
	defer f.Close()

	optab, err := opcode.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading opcode table %s: %w", path, err)
	}
	return optab, nil
}

func readSource(path string) ([]string, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- user-supplied source file path
	if err != nil {
		return nil, fmt.Errorf("reading source file %s: %w", path, err)
	}
	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.Split(normalized, "\n"), nil
}

// writeObjectProgram emits one program's records per control section, in
// the order Pass 1 first saw each CSECT, concatenated into a single
// output file (spec §6: "Object program (output, objectprogram.txt)").
func writeObjectProgram(path string, csects []string, programs map[string]*objrec.Program) error {
	f, err := os.Create(path) // #nosec G304 -- user-supplied object output path
	if err != nil {
		return fmt.Errorf("creating object program file %s: %w", path, err)
	}
	defer f.Close()

	for _, csect := range csects {
		p, ok := programs[csect]
		if !ok {
			continue
		}
		for _, line := range p.Render() {
			if _, err := fmt.Fprintln(f, line); err != nil {
				return fmt.Errorf("writing object program file %s: %w", path, err)
			}
		}
	}
	return nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path) // #nosec G304 -- user-supplied listing output path
	if err != nil {
		return fmt.Errorf("creating listing file %s: %w", path, err)
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("writing listing file %s: %w", path, err)
		}
	}
	return nil
}
