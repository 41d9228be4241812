package stdlib

import (
	"testing"

	"github.com/tulpar-lang/tulpar/internal/value"
)

func str(s string) value.Value { return value.ObjValue(value.NewStr(s)) }

func TestPushPop(t *testing.T) {
	r := Register()
	arr := value.ObjValue(value.NewArray())
	r["push"]([]value.Value{arr, value.IntValue(1)})
	r["push"]([]value.Value{arr, value.IntValue(2)})

	got := r["pop"]([]value.Value{arr})
	if got.AsInt() != 2 {
		t.Fatalf("pop() = %+v, want 2", got)
	}
	if r["len"]([]value.Value{arr}).AsInt() != 1 {
		t.Fatalf("len() after pop = %+v, want 1", r["len"]([]value.Value{arr}))
	}
}

func TestTrimReplaceSplit(t *testing.T) {
	r := Register()

	trimmed := r["trim"]([]value.Value{str("  hi  ")})
	if trimmed.Object.(*value.Str).String() != "hi" {
		t.Errorf("trim() = %q, want %q", trimmed.Object.(*value.Str).String(), "hi")
	}

	replaced := r["replace"]([]value.Value{str("foobar"), str("bar"), str("baz")})
	if replaced.Object.(*value.Str).String() != "foobaz" {
		t.Errorf("replace() = %q, want %q", replaced.Object.(*value.Str).String(), "foobaz")
	}

	split := r["split"]([]value.Value{str("a,b,c"), str(",")})
	arr := split.Object.(*value.Array)
	if len(arr.Items) != 3 || arr.Items[1].Object.(*value.Str).String() != "b" {
		t.Fatalf("split() = %+v, want [a b c]", arr.Items)
	}
}

func TestToJsonObjectAndArray(t *testing.T) {
	r := Register()
	obj := value.NewObject()
	obj.Set("k", value.IntValue(1))
	arr := value.NewArray()
	arr.Push(value.IntValue(1))
	arr.Push(value.BoolValue(true))

	gotObj := r["toJson"]([]value.Value{value.ObjValue(obj)}).Object.(*value.Str).String()
	if gotObj != `{"k":1}` {
		t.Errorf("toJson(object) = %q, want %q", gotObj, `{"k":1}`)
	}

	gotArr := r["toJson"]([]value.Value{value.ObjValue(arr)}).Object.(*value.Str).String()
	if gotArr != `[1,true]` {
		t.Errorf("toJson(array) = %q, want %q", gotArr, `[1,true]`)
	}
}

func TestFileRoundTrip(t *testing.T) {
	r := Register()
	path := t.TempDir() + "/out.txt"

	ok := r["writeFile"]([]value.Value{str(path), str("hello")})
	if !ok.Bool {
		t.Fatalf("writeFile() returned false")
	}
	if !r["fileExists"]([]value.Value{str(path)}).Bool {
		t.Fatalf("fileExists() should be true after writeFile")
	}
	got := r["readFile"]([]value.Value{str(path)})
	if got.Object.(*value.Str).String() != "hello" {
		t.Errorf("readFile() = %q, want %q", got.Object.(*value.Str).String(), "hello")
	}
}
