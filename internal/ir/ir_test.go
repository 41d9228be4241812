package ir

import (
	"bytes"
	"os"
	"testing"

	"github.com/tulpar-lang/tulpar/internal/ast"
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
	defer func() { os.Stdout = old }()

	mod := Lower(prog)
	NewExecutor(mod, stdlib.Register()).Run()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestLowerEmitsConstValueForLiterals(t *testing.T) {
	prog := parseOrFatal(t, `print(42);`)
	mod := Lower(prog)
	found := false
	for _, i := range mod.Main.Instrs {
		if i.Op == OpConstValue && i.Imm.IsInt() && i.Imm.AsInt() == 42 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a const_value 42 instruction, got: %+v", mod.Main.Instrs)
	}
}

func parseOrFatal(t *testing.T, src string) *ast.Program {
	t.Helper()
	scanner := lexer.NewScanner(src)
	p := parser.New(scanner.ScanAll(), "<test>")
	prog := p.Parse()
	if p.Sink.HasErrors() {
		t.Fatalf("parse errors: %v", p.Sink.Diagnostics)
	}
	return prog
}

func TestFunctionCallReturnsValue(t *testing.T) {
	src := `func add(int a, int b) { return a + b; }
print(add(3, 4));`
	if got := runSrc(t, src); got != "7\n" {
		t.Errorf("add(3,4) output = %q, want %q", got, "7\n")
	}
}

func TestTryCatchInsideLoopRegionBoundaries(t *testing.T) {
	// Regression test for the TryRegion boundary bug: a nested if/for
	// inside the try body emits its own branches before the
	// construct's own trailing branch, which a heuristic "find the
	// next branch" scan would misinterpret as the try block's end.
	src := `for (int i=0; i<3; i++) {
  try {
    if (i == 1) {
      throw "x";
    }
    for (int j=0; j<2; j++) {
      print(j);
    }
  } catch (e) {
    print("caught");
  }
}`
	want := "0\n1\ncaught\n0\n1\n"
	if got := runSrc(t, src); got != want {
		t.Errorf("nested try/for output = %q, want %q", got, want)
	}
}

func TestFinallyRunsOnEarlyReturn(t *testing.T) {
	src := `func f() {
  try {
    return 1;
  } finally {
    print("cleanup");
  }
}
print(f());`
	want := "cleanup\n1\n"
	if got := runSrc(t, src); got != want {
		t.Errorf("finally-on-return output = %q, want %q", got, want)
	}
}
