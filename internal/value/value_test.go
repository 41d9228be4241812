package value

import "testing"

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{BoolValue(true), true},
		{BoolValue(false), false},
		{IntValue(0), false},
		{IntValue(1), true},
		{FloatValue(0), false},
		{FloatValue(0.5), true},
		{VoidValue, false},
		// Obj truthiness depends only on the pointer being non-nil, per
		// spec §4.4.4 — an empty string or empty array is still truthy.
		{ObjValue(NewStr("")), true},
		{ObjValue(NewStr("x")), true},
		{ObjValue(NewArray()), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestIntFloatRoundTrip(t *testing.T) {
	v := IntValue(-42)
	if !v.IsInt() || v.AsInt() != -42 {
		t.Fatalf("IntValue round-trip failed: %+v", v)
	}
	f := FloatValue(3.25)
	if !f.IsFloat() || f.AsFloat() != 3.25 {
		t.Fatalf("FloatValue round-trip failed: %+v", f)
	}
}

func TestStrHashStable(t *testing.T) {
	a := NewStr("hello")
	b := NewStr("hello")
	if a.Hash != b.Hash {
		t.Errorf("equal strings hashed differently: %d vs %d", a.Hash, b.Hash)
	}
	c := NewStr("world")
	if a.Hash == c.Hash {
		t.Errorf("different strings hashed identically (allowed but suspicious): %d", a.Hash)
	}
}

func TestObjectInsertionOrderPreserved(t *testing.T) {
	o := NewObject()
	o.Set("b", IntValue(2))
	o.Set("a", IntValue(1))
	o.Set("b", IntValue(20)) // replace, must keep position
	want := []string{"b", "a"}
	for i, k := range want {
		if o.Keys[i] != k {
			t.Fatalf("Keys = %v, want order %v", o.Keys, want)
		}
	}
	got, ok := o.Get("b")
	if !ok || got.AsInt() != 20 {
		t.Fatalf("Get(b) = %+v, want replaced value 20", got)
	}
}

func TestArrayPush(t *testing.T) {
	a := NewArray()
	a.Push(IntValue(1))
	a.Push(IntValue(2))
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
}
