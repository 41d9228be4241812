// Package stdlib wires Tulpar's native function surface (spec §4.5.6)
// into a builtin.Registry shared by both execution paths. Core
// language builtins are implemented directly against the value model;
// everything spec.md calls out as an "external collaborator" — SQL,
// WebSocket, UUID, humanized formatting, file I/O — lives here too,
// grounded on the teacher's internal/database, internal/network and
// internal/stdlib packages, generalized from VM-builtin registration to
// Tulpar's builtin.Registry shape.
package stdlib

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/runtime"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// Register returns a builtin.Registry carrying every builtin spec.md
// §4.5.6 names plus SPEC_FULL §B's domain-stack additions.
func Register() builtin.Registry {
	r := make(builtin.Registry)

	r["print"] = biPrint
	r["toString"] = biToString
	r["toInt"] = biToInt
	r["toFloat"] = biToFloat
	r["toJson"] = biToJson
	r["len"] = biLen
	r["length"] = biLen
	r["push"] = biPush
	r["pop"] = biPop
	r["input"] = biInput
	r["trim"] = biTrim
	r["replace"] = biReplace
	r["split"] = biSplit

	r["readFile"] = biReadFile
	r["writeFile"] = biWriteFile
	r["appendFile"] = biAppendFile
	r["fileExists"] = biFileExists

	registerDatabase(r)
	registerNetwork(r)
	registerMisc(r)

	return r
}

var stdin = bufio.NewReader(os.Stdin)

func reportf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Runtime Error: "+format+"\n", args...)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.VoidValue
}

func biPrint(args []value.Value) value.Value {
	runtime.Print(os.Stdout, arg(args, 0))
	return value.VoidValue
}

func biToString(args []value.Value) value.Value { return runtime.ToStringValue(arg(args, 0)) }
func biToInt(args []value.Value) value.Value    { return runtime.ToInt(arg(args, 0)) }
func biToFloat(args []value.Value) value.Value  { return runtime.ToFloat(arg(args, 0)) }
func biLen(args []value.Value) value.Value      { return runtime.Len(arg(args, 0)) }

// biToJson marshals a Value through a plain-Go-value projection:
// arrays become []any, objects become a map[string]any (field order is
// not specified for JSON output, only for object iteration itself —
// SPEC_FULL §B).
func biToJson(args []value.Value) value.Value {
	proj := projectJSON(arg(args, 0))
	out, err := json.Marshal(proj)
	if err != nil {
		reportf("toJson: %v", err)
		return value.ObjValue(value.NewStr(""))
	}
	return value.ObjValue(value.NewStr(string(out)))
}

func projectJSON(v value.Value) interface{} {
	switch v.Tag {
	case value.Void:
		return nil
	case value.Bool:
		return v.Bool
	case value.Int:
		return v.AsInt()
	case value.Float:
		return v.AsFloat()
	case value.Obj:
		switch o := v.Object.(type) {
		case *value.Str:
			return o.String()
		case *value.Array:
			out := make([]interface{}, len(o.Items))
			for i, e := range o.Items {
				out[i] = projectJSON(e)
			}
			return out
		case *value.Object:
			out := make(map[string]interface{}, o.Len())
			for i, k := range o.Keys {
				out[k] = projectJSON(o.Values[i])
			}
			return out
		}
	}
	return nil
}

func biPush(args []value.Value) value.Value {
	target := arg(args, 0)
	if !target.IsArray() {
		reportf("push() called on non-array value")
		return value.VoidValue
	}
	target.Object.(*value.Array).Push(arg(args, 1))
	return value.VoidValue
}

func biPop(args []value.Value) value.Value {
	target := arg(args, 0)
	if !target.IsArray() {
		reportf("pop() called on non-array value")
		return value.VoidValue
	}
	arr := target.Object.(*value.Array)
	if len(arr.Items) == 0 {
		reportf("pop() called on empty array")
		return value.VoidValue
	}
	last := arr.Items[len(arr.Items)-1]
	arr.Items = arr.Items[:len(arr.Items)-1]
	return last
}

func biInput(args []value.Value) value.Value {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return value.ObjValue(value.NewStr(""))
	}
	return value.ObjValue(value.NewStr(strings.TrimRight(line, "\r\n")))
}

func biTrim(args []value.Value) value.Value {
	s := arg(args, 0)
	if !s.IsStr() {
		reportf("trim() called on non-string value")
		return s
	}
	return value.ObjValue(value.NewStr(strings.TrimSpace(s.Object.(*value.Str).String())))
}

func biReplace(args []value.Value) value.Value {
	s, old, repl := arg(args, 0), arg(args, 1), arg(args, 2)
	if !s.IsStr() || !old.IsStr() || !repl.IsStr() {
		reportf("replace() expects three strings")
		return s
	}
	out := strings.ReplaceAll(s.Object.(*value.Str).String(), old.Object.(*value.Str).String(), repl.Object.(*value.Str).String())
	return value.ObjValue(value.NewStr(out))
}

func biSplit(args []value.Value) value.Value {
	s, sep := arg(args, 0), arg(args, 1)
	if !s.IsStr() || !sep.IsStr() {
		reportf("split() expects two strings")
		return value.ObjValue(value.NewArray())
	}
	parts := strings.Split(s.Object.(*value.Str).String(), sep.Object.(*value.Str).String())
	arr := value.NewArray()
	for _, p := range parts {
		arr.Push(value.ObjValue(value.NewStr(p)))
	}
	return value.ObjValue(arr)
}

func biReadFile(args []value.Value) value.Value {
	path := arg(args, 0)
	if !path.IsStr() {
		reportf("readFile() expects a string path")
		return value.ObjValue(value.NewStr(""))
	}
	data, err := os.ReadFile(path.Object.(*value.Str).String())
	if err != nil {
		reportf("readFile: %v", err)
		return value.ObjValue(value.NewStr(""))
	}
	return value.ObjValue(value.NewStr(string(data)))
}

func biWriteFile(args []value.Value) value.Value {
	path, content := arg(args, 0), arg(args, 1)
	if !path.IsStr() || !content.IsStr() {
		reportf("writeFile() expects (path, contents)")
		return value.BoolValue(false)
	}
	err := os.WriteFile(path.Object.(*value.Str).String(), content.Object.(*value.Str).Bytes, 0o644)
	if err != nil {
		reportf("writeFile: %v", err)
		return value.BoolValue(false)
	}
	return value.BoolValue(true)
}

func biAppendFile(args []value.Value) value.Value {
	path, content := arg(args, 0), arg(args, 1)
	if !path.IsStr() || !content.IsStr() {
		reportf("appendFile() expects (path, contents)")
		return value.BoolValue(false)
	}
	f, err := os.OpenFile(path.Object.(*value.Str).String(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		reportf("appendFile: %v", err)
		return value.BoolValue(false)
	}
	defer f.Close()
	if _, err := f.Write(content.Object.(*value.Str).Bytes); err != nil {
		reportf("appendFile: %v", err)
		return value.BoolValue(false)
	}
	return value.BoolValue(true)
}

func biFileExists(args []value.Value) value.Value {
	path := arg(args, 0)
	if !path.IsStr() {
		return value.BoolValue(false)
	}
	_, err := os.Stat(path.Object.(*value.Str).String())
	return value.BoolValue(err == nil)
}
