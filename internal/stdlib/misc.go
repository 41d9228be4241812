package stdlib

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// registerMisc wires the two teacher go.mod dependencies that never
// got a call site in the teacher's own source (SPEC_FULL §B): uuid and
// go-humanize are given builtins here instead.
func registerMisc(r builtin.Registry) {
	r["uuid"] = biUUID
	r["humanizeBytes"] = biHumanizeBytes
	r["humanizeNumber"] = biHumanizeNumber
	r["humanizeTime"] = biHumanizeTime
}

func biUUID(args []value.Value) value.Value {
	return value.ObjValue(value.NewStr(uuid.New().String()))
}

// humanizeBytes(n) -> "1.2 MB"
func biHumanizeBytes(args []value.Value) value.Value {
	n := runtimeToInt(arg(args, 0))
	return value.ObjValue(value.NewStr(humanize.Bytes(uint64(n))))
}

// humanizeNumber(n) -> "1,234,567"
func biHumanizeNumber(args []value.Value) value.Value {
	n := runtimeToInt(arg(args, 0))
	return value.ObjValue(value.NewStr(humanize.Comma(n)))
}

// humanizeTime(unixSeconds) -> "3 hours ago"
func biHumanizeTime(args []value.Value) value.Value {
	n := runtimeToInt(arg(args, 0))
	return value.ObjValue(value.NewStr(humanize.Time(time.Unix(n, 0))))
}

func runtimeToInt(v value.Value) int64 {
	if v.IsInt() {
		return v.AsInt()
	}
	if v.IsFloat() {
		return int64(v.AsFloat())
	}
	return 0
}
