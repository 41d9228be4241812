package interp

import (
	"bytes"
	"os"
	"testing"

	"github.com/tulpar-lang/tulpar/internal/lexer"
	"github.com/tulpar-lang/tulpar/internal/parser"
	"github.com/tulpar-lang/tulpar/internal/stdlib"
)

func runSrc(t *testing.T, src string) string {
	t.Helper()
	scanner := lexer.NewScanner(src)
	p := parser.New(scanner.ScanAll(), "<test>")
	prog := p.Parse()
	if p.Sink.HasErrors() {
		t.Fatalf("parse errors: %v", p.Sink.Diagnostics)
	}

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = old
	}()

	New(stdlib.Register()).Run(prog)

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestRecursion(t *testing.T) {
	src := `func fact(int n) {
  if (n <= 1) { return 1; }
  return n * fact(n-1);
}
print(fact(5));`
	if got := runSrc(t, src); got != "120\n" {
		t.Errorf("fact(5) output = %q, want %q", got, "120\n")
	}
}

func TestLexicalScopingNotDynamic(t *testing.T) {
	// g() is defined at top level where x=1; calling it from inside
	// f (where a local x=2 shadows) must still see the outer x, not
	// f's local — lexical, not dynamic, scoping.
	src := `int x = 1;
func g() { print(x); }
func f() {
  int x = 2;
  g();
}
f();`
	if got := runSrc(t, src); got != "1\n" {
		t.Errorf("lexical scoping output = %q, want %q", got, "1\n")
	}
}

func TestCompoundAssignAndIncDec(t *testing.T) {
	src := `int x = 10;
x += 5;
x++;
x--;
x--;
print(x);`
	if got := runSrc(t, src); got != "14\n" {
		t.Errorf("compound assign output = %q, want %q", got, "14\n")
	}
}

func TestBreakExitsOnlyInnermostLoop(t *testing.T) {
	src := `for (int i=0; i<2; i++) {
  for (int j=0; j<5; j++) {
    if (j == 1) { break; }
    print(j);
  }
}`
	if got := runSrc(t, src); got != "0\n0\n" {
		t.Errorf("nested break output = %q, want %q", got, "0\n0\n")
	}
}

func TestUncaughtThrowPropagatesAsPanic(t *testing.T) {
	defer func() {
		r := recover()
		th, ok := r.(thrown)
		if !ok {
			t.Fatalf("expected a thrown panic to escape, got %v", r)
		}
		if th.v.AsInt() != 99 {
			t.Fatalf("thrown value = %+v, want 99", th.v)
		}
	}()
	runSrc(t, `throw 99;`)
	t.Fatal("expected panic, got none")
}
