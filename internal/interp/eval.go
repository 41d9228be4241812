package interp

import (
	"fmt"
	"os"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/runtime"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// eval evaluates an expression node to a Value (spec §4.4, §4.6).
func (in *Interpreter) eval(n ast.Node, scope *Scope) value.Value {
	switch e := n.(type) {
	case *ast.IntLit:
		return value.IntValue(e.Value)
	case *ast.FloatLit:
		return value.FloatValue(e.Value)
	case *ast.StringLit:
		return value.ObjValue(value.NewStr(e.Value))
	case *ast.BoolLit:
		return value.BoolValue(e.Value)

	case *ast.ArrayLit:
		arr := value.NewArray()
		for _, el := range e.Elements {
			arr.Push(in.eval(el, scope))
		}
		return value.ObjValue(arr)

	case *ast.ObjectLit:
		obj := value.NewObject()
		for i, k := range e.Keys {
			obj.Set(k, in.eval(e.Values[i], scope))
		}
		return value.ObjValue(obj)

	case *ast.Ident:
		if slot, ok := scope.Lookup(e.Name); ok {
			return *slot
		}
		reportUndefined(e.Name, e.Line)
		return value.VoidValue

	case *ast.IndexAccess:
		target := in.eval(e.Target, scope)
		idx := in.eval(e.Index, scope)
		return runtime.GetElement(target, idx)

	case *ast.BinOp:
		return in.evalBinOp(e, scope)

	case *ast.UnaryOp:
		return in.evalUnaryOp(e, scope)

	case *ast.Call:
		return in.call(e, scope)

	default:
		panic(fmt.Sprintf("interp: unhandled expression %T", n))
	}
}

// evalBinOp special-cases && and || for short-circuit evaluation (spec
// §4.4.1); every other operator goes through runtime.BinaryOp.
func (in *Interpreter) evalBinOp(e *ast.BinOp, scope *Scope) value.Value {
	switch e.Op {
	case "&&":
		l := in.eval(e.Left, scope)
		if !l.Truthy() {
			return value.BoolValue(false)
		}
		return value.BoolValue(in.eval(e.Right, scope).Truthy())
	case "||":
		l := in.eval(e.Left, scope)
		if l.Truthy() {
			return value.BoolValue(true)
		}
		return value.BoolValue(in.eval(e.Right, scope).Truthy())
	}
	l := in.eval(e.Left, scope)
	r := in.eval(e.Right, scope)
	return runtime.BinaryOp(e.Op, l, r)
}

func (in *Interpreter) evalUnaryOp(e *ast.UnaryOp, scope *Scope) value.Value {
	v := in.eval(e.Operand, scope)
	switch e.Op {
	case "-":
		if v.IsFloat() {
			return value.FloatValue(-v.AsFloat())
		}
		return value.IntValue(-v.AsInt())
	case "!":
		return value.BoolValue(!v.Truthy())
	}
	return value.VoidValue
}

// call dispatches a Call node to either a builtin or a user-defined
// function (spec §4.5.6, §4.6). User functions execute in a fresh
// scope chained off their defining scope, not the caller's — lexical,
// not dynamic, scoping (spec §3.4).
func (in *Interpreter) call(c *ast.Call, scope *Scope) value.Value {
	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = in.eval(a, scope)
	}

	if fn, ok := in.builtins.Lookup(c.Name); ok {
		return fn(args)
	}

	entry, ok := in.funcs[c.Name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Runtime Error: undefined function '%s' (line %d)\n", c.Name, c.Line)
		return value.VoidValue
	}

	callScope := NewScope(entry.defScope)
	for i, p := range entry.decl.Params {
		var v value.Value
		if i < len(args) {
			v = args[i]
		}
		callScope.Define(p.Name, v)
	}

	ctl, ret := in.execBlock(entry.decl.Body, callScope)
	if ctl == ctrlReturn {
		return ret
	}
	return value.VoidValue
}
