package lexer

import "testing"

func TestScanAllBasic(t *testing.T) {
	src := `int x = 5; x += 1; print(x);`
	toks := NewScanner(src).ScanAll()

	want := []Kind{
		TypeInt, Ident, Assign, IntLit, Semicolon,
		Ident, PlusEq, IntLit, Semicolon,
		Ident, LParen, Ident, RParen, Semicolon,
		EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

// String literals have no escape processing (spec §4.1): bytes between
// the quotes are copied verbatim, so a backslash is just a backslash
// and the string ends at the first following '"'.
func TestScanStringNoEscapeProcessing(t *testing.T) {
	toks := NewScanner(`"a\nb"`).ScanAll()
	if toks[0].Kind != StringLit {
		t.Fatalf("expected StringLit, got %s", toks[0].Kind)
	}
	if toks[0].Lexeme != `a\nb` {
		t.Fatalf("got %q, want %q (backslash-n copied verbatim, not interpreted)", toks[0].Lexeme, `a\nb`)
	}
}

func TestScanFloatSecondDotTerminates(t *testing.T) {
	toks := NewScanner(`1.5.2`).ScanAll()
	if toks[0].Kind != FloatLit || toks[0].Lexeme != "1.5" {
		t.Fatalf("got %v", toks[0])
	}
	// the second '.' terminates the number (spec §4.1) and is not a
	// recognized punctuation on its own, so it surfaces as an ERROR
	// token and the lexer resumes cleanly on the following digit.
	if toks[1].Kind != ERROR {
		t.Fatalf("expected ERROR for stray '.', got %v", toks[1])
	}
	if toks[2].Kind != IntLit || toks[2].Lexeme != "2" {
		t.Fatalf("got %v", toks[2])
	}
}

func TestUnterminatedStringYieldsAccumulated(t *testing.T) {
	toks := NewScanner(`"abc`).ScanAll()
	if toks[0].Kind != StringLit || toks[0].Lexeme != "abc" {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Kind != EOF {
		t.Fatalf("expected EOF after unterminated string, got %v", toks[1])
	}
}

func TestUnknownByteProducesErrorAndAdvances(t *testing.T) {
	toks := NewScanner("1 @ 2").ScanAll()
	if toks[1].Kind != ERROR {
		t.Fatalf("expected ERROR token for '@', got %v", toks[1])
	}
	if toks[2].Kind != IntLit || toks[2].Lexeme != "2" {
		t.Fatalf("lexer should not wedge after an ERROR token: %v", toks)
	}
}

func TestEOFIsIdempotent(t *testing.T) {
	s := NewScanner("")
	a := s.NextToken()
	b := s.NextToken()
	if a.Kind != EOF || b.Kind != EOF {
		t.Fatalf("expected repeated EOF, got %v, %v", a, b)
	}
}

func TestLineColumnTracking(t *testing.T) {
	toks := NewScanner("int x\n= 1;").ScanAll()
	// "=" is on line 2
	for _, tok := range toks {
		if tok.Kind == Assign {
			if tok.Line != 2 {
				t.Fatalf("expected '=' on line 2, got line %d", tok.Line)
			}
		}
	}
}

func TestShebangSkipped(t *testing.T) {
	toks := NewScanner("#!/usr/bin/env tulpar\nint x = 1;").ScanAll()
	if toks[0].Kind != TypeInt {
		t.Fatalf("expected shebang to be skipped, got %v", toks[0])
	}
}
