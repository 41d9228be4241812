// Package interp is Tulpar's tree-walking executor (spec §4.6). It
// mirrors the AOT lowering's semantics exactly by sharing
// internal/runtime's op set, so programs observe identical behavior on
// either execution path (spec §2, §8 "Interpreter/AOT equivalence").
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/runtime"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// ctrl is one of the three in-band control-flow flags spec §4.6
// describes: should_return, should_break, should_continue. Each is
// consumed by the nearest enclosing construct and re-cleared there.
type ctrl int

const (
	ctrlNone ctrl = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

// thrown is the panic payload used to implement `throw`/`try`/`catch`;
// it is recovered by the nearest enclosing TryCatch (spec §4.5.7's
// LIFO handler discipline, reused here per spec §4.6's "mirrors the
// AOT semantics exactly"). With no enclosing TryCatch it propagates
// out of Run as a Go panic.
type thrown struct{ v value.Value }

type funcEntry struct {
	decl     *ast.FuncDecl
	defScope *Scope
}

// Interpreter walks an *ast.Program directly.
type Interpreter struct {
	Out      io.Writer
	Global   *Scope
	funcs    map[string]funcEntry
	builtins builtin.Registry
}

func New(builtins builtin.Registry) *Interpreter {
	return &Interpreter{
		Out:      os.Stdout,
		Global:   NewScope(nil),
		funcs:    make(map[string]funcEntry),
		builtins: builtins,
	}
}

// Run executes prog top to bottom (spec §5 "program order is the only
// ordering"). Top-level function declarations are hoisted first so
// forward references and recursion resolve (spec §4.6, mirrored from
// the AOT path's function-table pre-pass, spec §4.5.2).
func (in *Interpreter) Run(prog *ast.Program) {
	in.hoistFuncs(prog.Stmts, in.Global)
	for _, stmt := range prog.Stmts {
		if _, isFn := stmt.(*ast.FuncDecl); isFn {
			continue
		}
		in.execStmt(stmt, in.Global)
	}
}

func (in *Interpreter) hoistFuncs(stmts []ast.Node, scope *Scope) {
	for _, stmt := range stmts {
		if fn, ok := stmt.(*ast.FuncDecl); ok {
			in.funcs[fn.Name] = funcEntry{decl: fn, defScope: scope}
		}
	}
}

// execBlock runs stmts in a fresh child scope and returns the first
// non-none control signal raised, along with its value.
func (in *Interpreter) execBlock(b *ast.Block, parent *Scope) (ctrl, value.Value) {
	scope := NewScope(parent)
	in.hoistFuncs(b.Stmts, scope)
	for _, stmt := range b.Stmts {
		if _, isFn := stmt.(*ast.FuncDecl); isFn {
			continue
		}
		c, v := in.execStmt(stmt, scope)
		if c != ctrlNone {
			return c, v
		}
	}
	return ctrlNone, value.VoidValue
}

func (in *Interpreter) execStmt(n ast.Node, scope *Scope) (ctrl, value.Value) {
	switch s := n.(type) {
	case *ast.VarDecl:
		var v value.Value
		if s.Init != nil {
			v = in.eval(s.Init, scope)
		}
		scope.Define(s.Name, v)

	case *ast.Assign:
		v := in.eval(s.Value, scope)
		in.assignTo(s.Target, v, scope)

	case *ast.CompoundAssign:
		slot, ok := scope.Lookup(s.Name)
		if !ok {
			reportUndefined(s.Name, s.Line)
			return ctrlNone, value.VoidValue
		}
		rhs := in.eval(s.Value, scope)
		op := s.Op[:len(s.Op)-1] // "+=" -> "+"
		*slot = runtime.BinaryOp(op, *slot, rhs)

	case *ast.Inc:
		slot, ok := scope.Lookup(s.Name)
		if !ok {
			reportUndefined(s.Name, s.Line)
			return ctrlNone, value.VoidValue
		}
		*slot = runtime.BinaryOp("+", *slot, value.IntValue(1))

	case *ast.Dec:
		slot, ok := scope.Lookup(s.Name)
		if !ok {
			reportUndefined(s.Name, s.Line)
			return ctrlNone, value.VoidValue
		}
		*slot = runtime.BinaryOp("-", *slot, value.IntValue(1))

	case *ast.Call:
		in.eval(s, scope)

	case *ast.Ident:
		in.eval(s, scope)

	case *ast.If:
		if in.eval(s.Cond, scope).Truthy() {
			return in.execBlock(s.Then, scope)
		}
		if s.Else != nil {
			return in.execElse(s.Else, scope)
		}

	case *ast.While:
		for in.eval(s.Cond, scope).Truthy() {
			c, v := in.execBlock(s.Body, scope)
			if c == ctrlBreak {
				break
			}
			if c == ctrlReturn {
				return c, v
			}
			// ctrlContinue and ctrlNone both fall through to re-check cond
		}

	case *ast.For:
		loopScope := NewScope(scope)
		if s.Init != nil {
			in.execStmt(s.Init, loopScope)
		}
		for s.Cond == nil || in.eval(s.Cond, loopScope).Truthy() {
			c, v := in.execBlock(s.Body, loopScope)
			if c == ctrlBreak {
				break
			}
			if c == ctrlReturn {
				return c, v
			}
			if s.Step != nil {
				in.execStmt(s.Step, loopScope)
			}
		}

	case *ast.ForIn:
		iterable := in.eval(s.Iterable, scope)
		items := iterableItems(iterable)
		for _, item := range items {
			loopScope := NewScope(scope)
			loopScope.Define(s.Name, item)
			c, v := in.execBlock(s.Body, loopScope)
			if c == ctrlBreak {
				break
			}
			if c == ctrlReturn {
				return c, v
			}
		}

	case *ast.Break:
		return ctrlBreak, value.VoidValue

	case *ast.Continue:
		return ctrlContinue, value.VoidValue

	case *ast.Return:
		var v value.Value
		if s.Value != nil {
			v = in.eval(s.Value, scope)
		}
		return ctrlReturn, v

	case *ast.Block:
		return in.execBlock(s, scope)

	case *ast.FuncDecl:
		in.funcs[s.Name] = funcEntry{decl: s, defScope: scope}

	case *ast.Import:
		// Imports are not resolved: the interpreter treats Import as a
		// no-op and never reads the imported file.

	case *ast.TryCatch:
		return in.execTryCatch(s, scope)

	case *ast.Throw:
		v := in.eval(s.Value, scope)
		panic(thrown{v})

	default:
		panic(fmt.Sprintf("interp: unhandled statement %T", n))
	}
	return ctrlNone, value.VoidValue
}

func (in *Interpreter) execElse(n ast.Node, scope *Scope) (ctrl, value.Value) {
	switch e := n.(type) {
	case *ast.Block:
		return in.execBlock(e, scope)
	case *ast.If:
		return in.execStmt(e, scope)
	}
	return ctrlNone, value.VoidValue
}

// execTryCatch implements spec §4.5.7's semantics on the interpreter
// path: try → (normal exit) finally; throw inside try → catch →
// finally. The handler stack discipline is LIFO by construction of Go's
// own panic/recover nesting.
func (in *Interpreter) execTryCatch(s *ast.TryCatch, scope *Scope) (c ctrl, v value.Value) {
	var uncaught interface{}

	func() {
		defer func() {
			if r := recover(); r != nil {
				th, ok := r.(thrown)
				if !ok {
					uncaught = r
					return
				}
				if s.Catch == nil {
					// No catch clause: finally still runs below, then the
					// exception keeps propagating past this construct.
					uncaught = th
					return
				}
				catchScope := NewScope(scope)
				if s.CatchVar != "" {
					catchScope.Define(s.CatchVar, th.v)
				}
				func() {
					// A throw raised by the catch block itself is held so
					// finally still runs before it propagates.
					defer func() {
						if r2 := recover(); r2 != nil {
							uncaught = r2
						}
					}()
					c, v = in.execBlock2(s.Catch, catchScope)
				}()
			}
		}()
		c, v = in.execBlock(s.Try, scope)
	}()

	if s.Finally != nil {
		fc, fv := in.execBlock(s.Finally, scope)
		if fc != ctrlNone {
			return fc, fv
		}
	}
	if uncaught != nil {
		panic(uncaught)
	}
	return c, v
}

// execBlock2 runs an already-scoped block's statements without
// allocating yet another child scope (used for the catch clause, whose
// scope already carries the bound exception variable).
func (in *Interpreter) execBlock2(b *ast.Block, scope *Scope) (ctrl, value.Value) {
	in.hoistFuncs(b.Stmts, scope)
	for _, stmt := range b.Stmts {
		if _, isFn := stmt.(*ast.FuncDecl); isFn {
			continue
		}
		c, v := in.execStmt(stmt, scope)
		if c != ctrlNone {
			return c, v
		}
	}
	return ctrlNone, value.VoidValue
}

func (in *Interpreter) assignTo(target ast.Node, v value.Value, scope *Scope) {
	switch t := target.(type) {
	case *ast.Ident:
		scope.Assign(t.Name, v)
	case *ast.IndexAccess:
		obj := in.eval(t.Target, scope)
		idx := in.eval(t.Index, scope)
		runtime.SetElement(obj, idx, v)
	}
}

func iterableItems(v value.Value) []value.Value {
	switch o := v.Object.(type) {
	case *value.Array:
		return o.Items
	case *value.Object:
		items := make([]value.Value, len(o.Keys))
		for i, k := range o.Keys {
			items[i] = value.ObjValue(value.NewStr(k))
		}
		return items
	case *value.Str:
		items := make([]value.Value, len(o.Bytes))
		for i := range o.Bytes {
			items[i] = value.ObjValue(value.NewStr(string(o.Bytes[i : i+1])))
		}
		return items
	}
	return nil
}

func reportUndefined(name string, line int) {
	fmt.Fprintf(os.Stderr, "Runtime Error: undefined identifier '%s' (line %d)\n", name, line)
}
