// Package builtin defines the shared native-function shape that both
// execution paths (internal/interp and internal/ir) call into for the
// builtins enumerated in spec §4.5.6, and that internal/stdlib
// populates.
package builtin

import "github.com/tulpar-lang/tulpar/internal/value"

// Func is a single native function. Errors are reported the same way
// as any other runtime error (spec §7): printed, with a neutral
// return value, rather than propagated as a Go error to the caller.
type Func func(args []value.Value) value.Value

// Registry maps builtin names to their implementation.
type Registry map[string]Func

func (r Registry) Lookup(name string) (Func, bool) {
	f, ok := r[name]
	return f, ok
}
