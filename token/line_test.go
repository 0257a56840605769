package token_test

import (
	"testing"

	"github.com/sicxe-asm/sicasm/token"
)

type fakeClassifier map[string]bool

func (f fakeClassifier) IsStandalone(mnemonic string) bool { return f[mnemonic] }

func TestParseLineBlankAndComment(t *testing.T) {
	for _, raw := range []string{"", "   ", ".this is a comment"} {
		l, err := token.ParseLine(raw, token.Position{Filename: "t.asm", Line: 1}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l != nil {
			t.Fatalf("expected nil line for %q, got %+v", raw, l)
		}
	}
}

func TestParseLineInlineComment(t *testing.T) {
	l, err := token.ParseLine("FIRST STL RETADR   . save return address", token.Position{Line: 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Label != "FIRST" || l.Mnemonic != "STL" || l.Operand != "RETADR" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineThreeTokens(t *testing.T) {
	l, _ := token.ParseLine("COPY START 1000", token.Position{Line: 1}, nil)
	if l.Label != "COPY" || l.Mnemonic != "START" || l.Operand != "1000" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineOperandWithEmbeddedSpace(t *testing.T) {
	l, _ := token.ParseLine("MSG BYTE C'HELLO WORLD'", token.Position{Line: 1}, nil)
	if l.Operand != "C'HELLO WORLD'" {
		t.Fatalf("operand lost embedded space: %q", l.Operand)
	}
}

func TestParseLineTwoTokensStandaloneMnemonic(t *testing.T) {
	cls := fakeClassifier{"RSUB": true}
	l, _ := token.ParseLine("DONE RSUB", token.Position{Line: 1}, cls)
	if l.Label != "DONE" || l.Mnemonic != "RSUB" || l.Operand != "" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineTwoTokensMnemonicOperand(t *testing.T) {
	l, _ := token.ParseLine("LDA BUFFER", token.Position{Line: 1}, nil)
	if l.Label != "" || l.Mnemonic != "LDA" || l.Operand != "BUFFER" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineEndDirectiveStandalone(t *testing.T) {
	l, _ := token.ParseLine("EOF END", token.Position{Line: 1}, nil)
	if l.Label != "EOF" || l.Mnemonic != "END" || l.Operand != "" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineCsectDirectiveStandalone(t *testing.T) {
	l, _ := token.ParseLine("PROG1 CSECT", token.Position{Line: 1}, nil)
	if l.Label != "PROG1" || l.Mnemonic != "CSECT" || l.Operand != "" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineOneToken(t *testing.T) {
	l, _ := token.ParseLine("RSUB", token.Position{Line: 1}, nil)
	if l.Label != "" || l.Mnemonic != "RSUB" || l.Operand != "" {
		t.Fatalf("got %+v", l)
	}
}

func TestParseLineExtendedMarker(t *testing.T) {
	l, _ := token.ParseLine("+LDT #4096", token.Position{Line: 1}, nil)
	if !l.Extended || l.Mnemonic != "LDT" || l.Operand != "#4096" {
		t.Fatalf("got %+v", l)
	}
}
