// Package runtime implements the arithmetic/data-access heart shared by
// both execution paths (spec §4.4): binary_op, the element get/set
// protocol, printing, and coercions. Runtime errors print a one-line
// diagnostic and yield a neutral value — they never unwind on their own
// (spec §7); only the `throw` builtin does that, via internal/ir's
// handler stack.
package runtime

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/tulpar-lang/tulpar/internal/value"
)

// ErrOut is where runtime error diagnostics are printed. Tests may
// redirect it to capture output.
var ErrOut io.Writer = os.Stderr

func reportf(format string, args ...interface{}) {
	fmt.Fprintf(ErrOut, "Runtime Error: "+format+"\n", args...)
}

// typePair packs two tags into one byte, matching the original's
// TYPE_PAIR macro (spec GLOSSARY "Tag pair").
func typePair(a, b value.Value) uint8 {
	return uint8(a.Tag)<<4 | uint8(b.Tag)
}

// BinaryOp dispatches on the operand tag pair (spec §4.4.1). Any pair
// the table doesn't cover yields the neutral value int 0 — the
// source's observed fallback.
func BinaryOp(op string, a, b value.Value) value.Value {
	switch op {
	case "+":
		return arithOrConcat(a, b, func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
	case "-":
		return arith(a, b, func(x, y int64) int64 { return x - y }, func(x, y float64) float64 { return x - y })
	case "*":
		return arith(a, b, func(x, y int64) int64 { return x * y }, func(x, y float64) float64 { return x * y })
	case "/":
		return divide(a, b)
	case "<":
		return compare(a, b, func(x, y int64) bool { return x < y }, func(x, y float64) bool { return x < y })
	case ">":
		return compare(a, b, func(x, y int64) bool { return x > y }, func(x, y float64) bool { return x > y })
	case "<=":
		return compare(a, b, func(x, y int64) bool { return x <= y }, func(x, y float64) bool { return x <= y })
	case ">=":
		return compare(a, b, func(x, y int64) bool { return x >= y }, func(x, y float64) bool { return x >= y })
	case "==", "!=":
		numeric := (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat())
		if !numeric && !(a.IsStr() && b.IsStr()) && !(a.IsBool() && b.IsBool()) {
			return value.IntValue(0)
		}
		return value.BoolValue(valuesEqual(a, b) == (op == "=="))
	}
	return value.IntValue(0)
}

func arith(a, b value.Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) value.Value {
	switch typePair(a, b) {
	case typePair(value.IntValue(0), value.IntValue(0)):
		return value.IntValue(intOp(a.AsInt(), b.AsInt()))
	case typePair(value.FloatValue(0), value.FloatValue(0)):
		return value.FloatValue(floatOp(a.AsFloat(), b.AsFloat()))
	case typePair(value.IntValue(0), value.FloatValue(0)):
		return value.FloatValue(floatOp(float64(a.AsInt()), b.AsFloat()))
	case typePair(value.FloatValue(0), value.IntValue(0)):
		return value.FloatValue(floatOp(a.AsFloat(), float64(b.AsInt())))
	}
	return value.IntValue(0)
}

func arithOrConcat(a, b value.Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) value.Value {
	if a.IsStr() && b.IsStr() {
		return Concat(a, b)
	}
	return arith(a, b, intOp, floatOp)
}

func divide(a, b value.Value) value.Value {
	switch typePair(a, b) {
	case typePair(value.IntValue(0), value.IntValue(0)):
		if b.AsInt() == 0 {
			reportf("division by zero")
			return value.IntValue(0)
		}
		// truncation toward zero, two's complement wraparound on the
		// single representable overflow case (MinInt64 / -1), matching
		// plain int64 semantics (SPEC_FULL §C.3).
		return value.IntValue(a.AsInt() / b.AsInt())
	case typePair(value.FloatValue(0), value.FloatValue(0)):
		return value.FloatValue(a.AsFloat() / b.AsFloat())
	case typePair(value.IntValue(0), value.FloatValue(0)):
		return value.FloatValue(float64(a.AsInt()) / b.AsFloat())
	case typePair(value.FloatValue(0), value.IntValue(0)):
		return value.FloatValue(a.AsFloat() / float64(b.AsInt()))
	}
	return value.IntValue(0)
}

func compare(a, b value.Value, intOp func(int64, int64) bool, floatOp func(float64, float64) bool) value.Value {
	switch typePair(a, b) {
	case typePair(value.IntValue(0), value.IntValue(0)):
		return value.BoolValue(intOp(a.AsInt(), b.AsInt()))
	case typePair(value.FloatValue(0), value.FloatValue(0)):
		return value.BoolValue(floatOp(a.AsFloat(), b.AsFloat()))
	case typePair(value.IntValue(0), value.FloatValue(0)):
		return value.BoolValue(floatOp(float64(a.AsInt()), b.AsFloat()))
	case typePair(value.FloatValue(0), value.IntValue(0)):
		return value.BoolValue(floatOp(a.AsFloat(), float64(b.AsInt())))
	}
	return value.IntValue(0)
}

// Concat allocates a fresh Str whose hash is recomputed; both inputs
// are left unchanged (spec §4.4.1, §5 shared-resource policy).
func Concat(a, b value.Value) value.Value {
	sa, sb := a.Object.(*value.Str), b.Object.(*value.Str)
	buf := make([]byte, 0, sa.Len()+sb.Len())
	buf = append(buf, sa.Bytes...)
	buf = append(buf, sb.Bytes...)
	return value.ObjValue(value.NewStr(string(buf)))
}

func valuesEqual(a, b value.Value) bool {
	switch typePair(a, b) {
	case typePair(value.IntValue(0), value.IntValue(0)):
		return a.AsInt() == b.AsInt()
	case typePair(value.FloatValue(0), value.FloatValue(0)):
		return a.AsFloat() == b.AsFloat()
	case typePair(value.IntValue(0), value.FloatValue(0)):
		return float64(a.AsInt()) == b.AsFloat()
	case typePair(value.FloatValue(0), value.IntValue(0)):
		return a.AsFloat() == float64(b.AsInt())
	case typePair(value.BoolValue(false), value.BoolValue(false)):
		return a.Bool == b.Bool
	}
	if a.IsStr() && b.IsStr() {
		sa, sb := a.Object.(*value.Str), b.Object.(*value.Str)
		return string(sa.Bytes) == string(sb.Bytes)
	}
	if a.Tag == value.Void && b.Tag == value.Void {
		return true
	}
	return false
}

// GetElement implements spec §4.4.2.
func GetElement(target, index value.Value) value.Value {
	switch {
	case target.IsArray() && index.IsInt():
		arr := target.Object.(*value.Array)
		i := index.AsInt()
		if i < 0 || i >= int64(len(arr.Items)) {
			reportf("array index out of bounds: %d", i)
			return value.IntValue(0)
		}
		return arr.Items[i]
	case target.IsObject() && index.IsStr():
		obj := target.Object.(*value.Object)
		key := string(index.Object.(*value.Str).Bytes)
		if v, ok := obj.Get(key); ok {
			return v
		}
		return value.IntValue(0)
	case target.IsStr() && index.IsInt():
		s := target.Object.(*value.Str)
		i := index.AsInt()
		if i < 0 || i >= int64(len(s.Bytes)) {
			return value.ObjValue(value.NewStr(""))
		}
		return value.ObjValue(value.NewStr(string(s.Bytes[i : i+1])))
	}
	reportf("invalid element access")
	return value.IntValue(0)
}

// SetElement implements spec §4.4.2.
func SetElement(target, index, v value.Value) {
	switch {
	case target.IsArray() && index.IsInt():
		arr := target.Object.(*value.Array)
		i := index.AsInt()
		if i < 0 || i >= int64(len(arr.Items)) {
			reportf("array index out of bounds: %d", i)
			return
		}
		arr.Items[i] = v
	case target.IsObject() && index.IsStr():
		obj := target.Object.(*value.Object)
		key := string(index.Object.(*value.Str).Bytes)
		obj.Set(key, v)
	default:
		reportf("invalid element assignment target")
	}
}

// ToDisplayString renders v the way Print does, without the trailing
// newline (spec §4.4.3).
func ToDisplayString(v value.Value) string {
	switch v.Tag {
	case value.Void:
		return ""
	case value.Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.Int:
		return strconv.FormatInt(v.AsInt(), 10)
	case value.Float:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case value.Obj:
		switch o := v.Object.(type) {
		case *value.Str:
			return string(o.Bytes)
		case *value.Array:
			s := "["
			for i, e := range o.Items {
				if i > 0 {
					s += ", "
				}
				s += ToDisplayString(e)
			}
			return s + "]"
		case *value.Object:
			return "<object>"
		}
	}
	return ""
}

// Print writes v's canonical rendering followed by a single newline
// (spec §4.4.3).
func Print(w io.Writer, v value.Value) {
	fmt.Fprintln(w, ToDisplayString(v))
}

// Truthy re-exports value.Value.Truthy for callers that only import
// the runtime package (spec §4.4.4).
func Truthy(v value.Value) bool { return v.Truthy() }

// ToInt coerces v to an Int value for the `toInt` builtin.
func ToInt(v value.Value) value.Value {
	switch v.Tag {
	case value.Int:
		return v
	case value.Float:
		return value.IntValue(int64(v.AsFloat()))
	case value.Bool:
		if v.Bool {
			return value.IntValue(1)
		}
		return value.IntValue(0)
	case value.Obj:
		if s, ok := v.Object.(*value.Str); ok {
			n, err := strconv.ParseInt(string(s.Bytes), 10, 64)
			if err != nil {
				return value.IntValue(0)
			}
			return value.IntValue(n)
		}
	}
	return value.IntValue(0)
}

// ToFloat coerces v to a Float value for the `toFloat` builtin.
func ToFloat(v value.Value) value.Value {
	switch v.Tag {
	case value.Float:
		return v
	case value.Int:
		return value.FloatValue(float64(v.AsInt()))
	case value.Bool:
		if v.Bool {
			return value.FloatValue(1)
		}
		return value.FloatValue(0)
	case value.Obj:
		if s, ok := v.Object.(*value.Str); ok {
			f, err := strconv.ParseFloat(string(s.Bytes), 64)
			if err != nil {
				return value.FloatValue(math.NaN())
			}
			return value.FloatValue(f)
		}
	}
	return value.FloatValue(0)
}

// ToStringValue coerces v to a Str value for the `toString` builtin.
func ToStringValue(v value.Value) value.Value {
	return value.ObjValue(value.NewStr(ToDisplayString(v)))
}

// Len implements the `len`/`length` builtin over arrays, objects, and
// strings.
func Len(v value.Value) value.Value {
	switch o := v.Object.(type) {
	case *value.Array:
		return value.IntValue(int64(len(o.Items)))
	case *value.Object:
		return value.IntValue(int64(o.Len()))
	case *value.Str:
		return value.IntValue(int64(o.Len()))
	}
	reportf("len() called on non-collection value")
	return value.IntValue(0)
}
