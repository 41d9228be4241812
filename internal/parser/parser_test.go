package parser

import (
	"testing"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks := lexer.NewScanner(src).ScanAll()
	p := New(toks, "test.tlp")
	prog := p.Parse()
	if p.Sink.HasErrors() {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Sink.Diagnostics)
	}
	return prog
}

func TestParseVarDecl(t *testing.T) {
	prog := parse(t, `int x = 5;`)
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	decl, ok := prog.Stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected *ast.VarDecl, got %T", prog.Stmts[0])
	}
	if decl.Name != "x" || decl.DeclaredType != "int" {
		t.Fatalf("got %+v", decl)
	}
	lit, ok := decl.Init.(*ast.IntLit)
	if !ok || lit.Value != 5 {
		t.Fatalf("got init %+v", decl.Init)
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parse(t, `int x = 1 + 2 * 3;`)
	decl := prog.Stmts[0].(*ast.VarDecl)
	bin := decl.Init.(*ast.BinOp)
	if bin.Op != "+" {
		t.Fatalf("expected top-level '+', got %s", bin.Op)
	}
	right := bin.Right.(*ast.BinOp)
	if right.Op != "*" {
		t.Fatalf("expected nested '*', got %s", right.Op)
	}
}

func TestParseChainedIndex(t *testing.T) {
	prog := parse(t, `a[1][2] = 3;`)
	assign := prog.Stmts[0].(*ast.Assign)
	outer, ok := assign.Target.(*ast.IndexAccess)
	if !ok {
		t.Fatalf("expected IndexAccess, got %T", assign.Target)
	}
	inner, ok := outer.Target.(*ast.IndexAccess)
	if !ok {
		t.Fatalf("expected nested IndexAccess, got %T", outer.Target)
	}
	if _, ok := inner.Target.(*ast.Ident); !ok {
		t.Fatalf("index chain should bottom out at Ident, got %T", inner.Target)
	}
}

func TestParseForLoop(t *testing.T) {
	prog := parse(t, `for (int i = 0; i < 3; i++) { print(i); }`)
	f, ok := prog.Stmts[0].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", prog.Stmts[0])
	}
	if _, ok := f.Init.(*ast.VarDecl); !ok {
		t.Fatalf("expected VarDecl init, got %T", f.Init)
	}
	if _, ok := f.Step.(*ast.Inc); !ok {
		t.Fatalf("expected Inc step, got %T", f.Step)
	}
}

func TestParseForIn(t *testing.T) {
	prog := parse(t, `for (x in items) { print(x); }`)
	fi, ok := prog.Stmts[0].(*ast.ForIn)
	if !ok {
		t.Fatalf("expected *ast.ForIn, got %T", prog.Stmts[0])
	}
	if fi.Name != "x" {
		t.Fatalf("got %+v", fi)
	}
}

func TestParseFuncDecl(t *testing.T) {
	prog := parse(t, `func add(int a, int b) { return a + b; }`)
	fn := prog.Stmts[0].(*ast.FuncDecl)
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("got %+v", fn)
	}
}

func TestParseObjectAndArrayLit(t *testing.T) {
	prog := parse(t, `object o = {"k": 1, "m": 2};`)
	decl := prog.Stmts[0].(*ast.VarDecl)
	obj := decl.Init.(*ast.ObjectLit)
	if len(obj.Keys) != 2 || obj.Keys[0] != "k" {
		t.Fatalf("got %+v", obj)
	}
}

func TestParseErrorRecoveryContinuesAfterBadStatement(t *testing.T) {
	toks := lexer.NewScanner("int x = ; int y = 2;").ScanAll()
	p := New(toks, "test.tlp")
	prog := p.Parse()
	if !p.Sink.HasErrors() {
		t.Fatalf("expected a reported diagnostic")
	}
	found := false
	for _, s := range prog.Stmts {
		if d, ok := s.(*ast.VarDecl); ok && d.Name == "y" {
			found = true
		}
	}
	if !found {
		t.Fatalf("parser should recover and still parse 'y', stmts=%+v", prog.Stmts)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog := parse(t, `try { throw 1; } catch (e) { print(e); } finally { print(0); }`)
	tc := prog.Stmts[0].(*ast.TryCatch)
	if tc.CatchVar != "e" || tc.Catch == nil || tc.Finally == nil {
		t.Fatalf("got %+v", tc)
	}
}
