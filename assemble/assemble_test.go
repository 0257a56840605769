package assemble_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sicxe-asm/sicasm/assemble"
)

const testOptabCSV = `name,opcode,format
STL,14,3/4
LDA,00,3/4
`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Scenario 1, run through the full assemble.Run pipeline: both output
// files are written, and the object program contains the expected header
// and encoded STL word.
func TestRunProducesObjectAndListingFiles(t *testing.T) {
	dir := t.TempDir()
	optabPath := writeTemp(t, dir, "optab.csv", testOptabCSV)
	srcPath := writeTemp(t, dir, "prog.asm", strings.Join([]string{
		"COPY   START 1000",
		"FIRST  STL   RETADR",
		"RETADR RESW  1",
		"       END   FIRST",
	}, "\n"))
	objPath := filepath.Join(dir, "objectprogram.txt")
	listPath := filepath.Join(dir, "listing.txt")

	var verbose bytes.Buffer
	res, err := assemble.Run(assemble.Options{
		SourcePath:  srcPath,
		OptabPath:   optabPath,
		ObjectPath:  objPath,
		ListingPath: listPath,
		Verbose:     &verbose,
	})
	if err != nil {
		t.Fatalf("assemble.Run: %v", err)
	}
	if len(res.Programs) != 1 {
		t.Fatalf("expected 1 program, got %d", len(res.Programs))
	}

	objBytes, err := os.ReadFile(objPath)
	if err != nil {
		t.Fatalf("reading object program file: %v", err)
	}
	obj := string(objBytes)
	if !strings.HasPrefix(obj, "HCOPY  001000") {
		t.Fatalf("expected object program to start with the H record, got %q", obj)
	}
	if !strings.Contains(obj, "172000") {
		t.Fatalf("expected object program to contain the encoded STL word, got %q", obj)
	}

	listBytes, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("reading listing file: %v", err)
	}
	if len(listBytes) == 0 {
		t.Fatal("expected a non-empty listing file")
	}

	if verbose.Len() == 0 {
		t.Fatal("expected verbose output to be written")
	}
}

// A missing source file aborts with an error and writes neither output
// file (spec §7: "aborts without producing partial output files").
func TestRunMissingSourceProducesNoOutput(t *testing.T) {
	dir := t.TempDir()
	optabPath := writeTemp(t, dir, "optab.csv", testOptabCSV)
	objPath := filepath.Join(dir, "objectprogram.txt")
	listPath := filepath.Join(dir, "listing.txt")

	_, err := assemble.Run(assemble.Options{
		SourcePath:  filepath.Join(dir, "missing.asm"),
		OptabPath:   optabPath,
		ObjectPath:  objPath,
		ListingPath: listPath,
	})
	if err == nil {
		t.Fatal("expected an error for a missing source file")
	}
	if _, statErr := os.Stat(objPath); !os.IsNotExist(statErr) {
		t.Fatal("expected no object program file to be written on error")
	}
	if _, statErr := os.Stat(listPath); !os.IsNotExist(statErr) {
		t.Fatal("expected no listing file to be written on error")
	}
}

// A fatal Pass 1/2 error (an unknown mnemonic) aborts the run before any
// output file is created.
func TestRunFatalEncodingErrorProducesNoOutput(t *testing.T) {
	dir := t.TempDir()
	optabPath := writeTemp(t, dir, "optab.csv", testOptabCSV)
	srcPath := writeTemp(t, dir, "prog.asm", strings.Join([]string{
		"        START 0",
		"        NOSUCHOP X",
		"        END",
	}, "\n"))
	objPath := filepath.Join(dir, "objectprogram.txt")
	listPath := filepath.Join(dir, "listing.txt")

	_, err := assemble.Run(assemble.Options{
		SourcePath:  srcPath,
		OptabPath:   optabPath,
		ObjectPath:  objPath,
		ListingPath: listPath,
	})
	if err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
	if _, statErr := os.Stat(objPath); !os.IsNotExist(statErr) {
		t.Fatal("expected no object program file to be written on error")
	}
}
