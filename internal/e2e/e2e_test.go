// Package e2e runs the six literal end-to-end scenarios spec §8
// describes, through both execution paths, and asserts their printed
// output is byte-identical — the "Interpreter/AOT equivalence"
// testable property, grounded on CWBudde-go-dws's run_unit_test.go
// os.Pipe stdout-capture pattern.
package e2e

import (
	"bytes"
	"os"
	"testing"

	"github.com/tulpar-lang/tulpar/internal/interp"
	"github.com/tulpar-lang/tulpar/internal/ir"
	"github.com/tulpar-lang/tulpar/internal/lexer"
	"github.com/tulpar-lang/tulpar/internal/parser"
	"github.com/tulpar-lang/tulpar/internal/stdlib"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func runInterp(t *testing.T, src string) string {
	t.Helper()
	return capture(t, func() {
		scanner := lexer.NewScanner(src)
		p := parser.New(scanner.ScanAll(), "<test>")
		prog := p.Parse()
		if p.Sink.HasErrors() {
			t.Fatalf("parse errors: %v", p.Sink.Diagnostics)
		}
		interp.New(stdlib.Register()).Run(prog)
	})
}

func runAOT(t *testing.T, src string) string {
	t.Helper()
	return capture(t, func() {
		scanner := lexer.NewScanner(src)
		p := parser.New(scanner.ScanAll(), "<test>")
		prog := p.Parse()
		if p.Sink.HasErrors() {
			t.Fatalf("parse errors: %v", p.Sink.Diagnostics)
		}
		mod := ir.Lower(prog)
		ir.NewExecutor(mod, stdlib.Register()).Run()
	})
}

func assertBothPaths(t *testing.T, src, want string) {
	t.Helper()
	if got := runInterp(t, src); got != want {
		t.Errorf("interp output = %q, want %q", got, want)
	}
	if got := runAOT(t, src); got != want {
		t.Errorf("AOT output = %q, want %q", got, want)
	}
}

func TestScenarioIntAddition(t *testing.T) {
	assertBothPaths(t, `int x = 5; int y = 10; print(x + y);`, "15\n")
}

func TestScenarioStringConcat(t *testing.T) {
	assertBothPaths(t, `str s = "Hel" + "lo"; print(s);`, "Hello\n")
}

func TestScenarioArrayIndexAssign(t *testing.T) {
	assertBothPaths(t, `array a = [1, 2, 3]; a[1] = 20; print(a);`, "[1, 20, 3]\n")
}

func TestScenarioObjectIndexAssign(t *testing.T) {
	assertBothPaths(t, `object o = {"k": 1, "m": 2}; o["k"] = 9; print(o["k"]); print(o["m"]);`, "9\n2\n")
}

func TestScenarioRecursiveFib(t *testing.T) {
	src := `func fib(int n){ if (n<2){ return n; } return fib(n-1)+fib(n-2); } print(fib(10));`
	assertBothPaths(t, src, "55\n")
}

func TestScenarioForLoop(t *testing.T) {
	assertBothPaths(t, `for (int i=0; i<3; i++) { print(i); }`, "0\n1\n2\n")
}

func TestWhileBreakContinue(t *testing.T) {
	src := `int i = 0;
while (true) {
  i = i + 1;
  if (i == 2) { continue; }
  if (i > 4) { break; }
  print(i);
}`
	assertBothPaths(t, src, "1\n3\n4\n")
}

func TestForInArray(t *testing.T) {
	src := `array a = [10, 20, 30];
for (item in a) { print(item); }`
	assertBothPaths(t, src, "10\n20\n30\n")
}

func TestTryCatchFinally(t *testing.T) {
	src := `try {
  throw "boom";
} catch (e) {
  print(e);
} finally {
  print("done");
}`
	assertBothPaths(t, src, "boom\ndone\n")
}

func TestTryFinallyNoThrow(t *testing.T) {
	src := `try {
  print("body");
} finally {
  print("cleanup");
}`
	assertBothPaths(t, src, "body\ncleanup\n")
}

func TestNestedTryInsideLoop(t *testing.T) {
	src := `for (int i=0; i<3; i++) {
  try {
    if (i == 1) { throw "skip"; }
    print(i);
  } catch (e) {
    print("caught");
  }
}`
	assertBothPaths(t, src, "0\ncaught\n2\n")
}
