package runtime

import (
	"bytes"
	"testing"

	"github.com/tulpar-lang/tulpar/internal/value"
)

func TestBinaryOpIntPromotion(t *testing.T) {
	cases := []struct {
		op       string
		a, b     value.Value
		wantInt  int64
		wantKind string
	}{
		{"+", value.IntValue(2), value.IntValue(3), 5, "int"},
		{"-", value.IntValue(5), value.IntValue(2), 3, "int"},
		{"*", value.IntValue(4), value.IntValue(3), 12, "int"},
	}
	for _, c := range cases {
		got := BinaryOp(c.op, c.a, c.b)
		if !got.IsInt() || got.AsInt() != c.wantInt {
			t.Errorf("BinaryOp(%q, %v, %v) = %+v, want int %d", c.op, c.a, c.b, got, c.wantInt)
		}
	}
}

func TestBinaryOpFloatPromotion(t *testing.T) {
	got := BinaryOp("+", value.IntValue(2), value.FloatValue(0.5))
	if !got.IsFloat() || got.AsFloat() != 2.5 {
		t.Errorf("int+float = %+v, want float 2.5", got)
	}
}

func TestBinaryOpStringConcat(t *testing.T) {
	a := value.ObjValue(value.NewStr("foo"))
	b := value.ObjValue(value.NewStr("bar"))
	got := BinaryOp("+", a, b)
	if ToDisplayString(got) != "foobar" {
		t.Errorf("string concat = %q, want %q", ToDisplayString(got), "foobar")
	}
}

func TestBinaryOpComparisons(t *testing.T) {
	if !BinaryOp("<", value.IntValue(1), value.IntValue(2)).Truthy() {
		t.Error("1 < 2 should be true")
	}
	if BinaryOp(">", value.IntValue(1), value.IntValue(2)).Truthy() {
		t.Error("1 > 2 should be false")
	}
	if !BinaryOp("==", value.IntValue(5), value.IntValue(5)).Truthy() {
		t.Error("5 == 5 should be true")
	}
}

func TestGetSetElementArray(t *testing.T) {
	backing := value.NewArray()
	backing.Push(value.IntValue(1))
	backing.Push(value.IntValue(2))
	arr := value.ObjValue(backing)

	SetElement(arr, value.IntValue(0), value.IntValue(9))
	got := GetElement(arr, value.IntValue(0))
	if got.AsInt() != 9 {
		t.Fatalf("GetElement(0) = %+v, want 9", got)
	}
	if GetElement(arr, value.IntValue(1)).AsInt() != 2 {
		t.Fatalf("GetElement(1) should be unaffected")
	}
}

func TestGetSetElementObjectReplacePreservesPosition(t *testing.T) {
	obj := value.ObjValue(value.NewObject())
	SetElement(obj, value.ObjValue(value.NewStr("a")), value.IntValue(1))
	SetElement(obj, value.ObjValue(value.NewStr("b")), value.IntValue(2))
	SetElement(obj, value.ObjValue(value.NewStr("a")), value.IntValue(9))

	got := GetElement(obj, value.ObjValue(value.NewStr("a")))
	if got.AsInt() != 9 {
		t.Fatalf("GetElement(a) = %+v, want 9", got)
	}
}

func TestPrintAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, value.IntValue(42))
	if buf.String() != "42\n" {
		t.Errorf("Print output = %q, want %q", buf.String(), "42\n")
	}
}

func TestToStringValueRoundTrips(t *testing.T) {
	v := ToStringValue(value.IntValue(7))
	if ToDisplayString(v) != "7" {
		t.Errorf("toString(7) = %q, want %q", ToDisplayString(v), "7")
	}
}

func TestLenOfArrayAndString(t *testing.T) {
	backing := value.NewArray()
	backing.Push(value.IntValue(1))
	backing.Push(value.IntValue(2))
	arr := value.ObjValue(backing)
	if Len(arr).AsInt() != 2 {
		t.Errorf("Len(array) = %+v, want 2", Len(arr))
	}

	s := value.ObjValue(value.NewStr("hello"))
	if Len(s).AsInt() != 5 {
		t.Errorf("Len(str) = %+v, want 5", Len(s))
	}
}
