package ir

import (
	"fmt"
	"io"
	"os"

	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/runtime"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// thrown is the panic payload implementing the setjmp/throw protocol
// (spec §4.5 point 7, §6 EH ABI row) — Go's panic/recover stands in for
// the original's non-local jump, preserving the same strictly LIFO
// handler discipline (spec §5 "Cancellation/timeout").
type thrown struct{ v value.Value }

// Executor runs a lowered Module. It is a stand-in for a real backend:
// it interprets the abstract instruction stream directly rather than
// compiling it, calling into the same internal/runtime ops the
// tree-walking interpreter uses so both paths observe identical
// behavior (spec §8).
type Executor struct {
	Out        io.Writer
	mod        *Module
	builtins   builtin.Registry
	nextHandle int
	excStack   []value.Value
}

func NewExecutor(mod *Module, builtins builtin.Registry) *Executor {
	return &Executor{Out: os.Stdout, mod: mod, builtins: builtins}
}

// Run executes the module's `main` function and returns its exit code
// (spec §6 "compiled main returns 0 unless an explicit return supplies
// an integer").
func (ex *Executor) Run() int {
	ret := ex.callFunction(ex.mod.Main, nil)
	if ret.IsInt() {
		return int(ret.AsInt())
	}
	return 0
}

type frame struct {
	slots map[string]*value.Value
}

func newFrame() *frame { return &frame{slots: make(map[string]*value.Value)} }

func (ex *Executor) callFunction(fn *Function, args []value.Value) value.Value {
	fr := newFrame()
	for i, p := range fn.Params {
		var v value.Value
		if i < len(args) {
			v = args[i]
		}
		slot := v
		fr.slots[p] = &slot
	}
	labels := indexLabels(fn.Instrs)
	v, _ := ex.run(fn, fr, labels, 0, len(fn.Instrs))
	return v
}

func indexLabels(instrs []Instr) map[string]int {
	labels := make(map[string]int)
	for i, in := range instrs {
		if in.Op == OpLabel {
			labels[in.Target] = i
		}
	}
	return labels
}

// run executes fn.Instrs[start:end] within fr, returning the function's
// return value (if a ret instruction fires) and whether one did.
// Branches that land within [start,end) are followed directly; a
// try/catch/finally region is handled inline when its `setjmp` call is
// reached, using Go panic/recover to implement the jump while still
// walking the call sequence the builder emitted for it (try_push,
// setjmp, try_pop, get_exception) so the ABI stays visible in the
// instruction stream.
func (ex *Executor) run(fn *Function, fr *frame, labels map[string]int, start, end int) (value.Value, bool) {
	regs := make([]value.Value, len(fn.Instrs))
	ip := start
	for ip < end {
		in := fn.Instrs[ip]
		switch in.Op {
		case OpConstValue:
			regs[ip] = in.Imm

		case OpAlloca:
			v := value.VoidValue
			fr.slots[in.Sym] = &v

		case OpLoad:
			slot, ok := fr.slots[in.Sym]
			if !ok {
				v := value.VoidValue
				fr.slots[in.Sym] = &v
				slot = &v
			}
			regs[ip] = *slot

		case OpStore:
			slot, ok := fr.slots[in.Sym]
			if !ok {
				v := value.VoidValue
				fr.slots[in.Sym] = &v
				slot = &v
			}
			*slot = regs[in.Args[0]]

		case OpCall:
			if in.Sym == "setjmp" {
				landed, retv, didRet := ex.runProtectedTry(fn, fr, labels, ip)
				if didRet {
					return retv, true
				}
				regs[ip] = value.BoolValue(landed)
				// skip past the cond_branch that follows setjmp: the
				// protected-try runner already executed try or catch plus
				// advanced past finally, so jump straight to its end.
				ip = protectedRegionEnd(fn, ip)
				continue
			}
			args := make([]value.Value, len(in.Args))
			for i, r := range in.Args {
				args[i] = regs[r]
			}
			regs[ip] = ex.dispatchCall(in.Sym, args)

		case OpBranch:
			ip = labels[in.Target]
			continue

		case OpCondBranch:
			if regs[in.Args[0]].Truthy() {
				ip = labels[in.Target]
			} else {
				ip = labels[in.Target2]
			}
			continue

		case OpLabel:
			// no-op marker

		case OpRet:
			if len(in.Args) > 0 {
				return regs[in.Args[0]], true
			}
			return value.VoidValue, true

		case OpUnreachable:
			panic("ir: reached unreachable instruction")

		default:
			panic(fmt.Sprintf("ir: unhandled opcode %v", in.Op))
		}
		ip++
	}
	return value.VoidValue, false
}

// runProtectedTry executes the try block (and, if it throws, the catch
// block) followed by the finally block, mirroring lowerTryCatch's
// `try -> try_pop -> finally -> end` / `catch -> finally -> end`
// sequencing. Exact instruction ranges come from fn.TryRegions, set by
// the builder, so nested control flow inside any of the three blocks
// never confuses block boundaries. It returns whether control landed
// via a throw, the function's return value and whether a `ret` fired.
func (ex *Executor) runProtectedTry(fn *Function, fr *frame, labels map[string]int, setjmpIP int) (landed bool, ret value.Value, didRet bool) {
	region := fn.TryRegions[setjmpIP]

	var bodyRet value.Value
	var bodyDidRet bool
	var uncaught *thrown

	func() {
		defer func() {
			if r := recover(); r != nil {
				th, ok := r.(thrown)
				if !ok {
					panic(r)
				}
				landed = true
				if region.CatchStart < 0 {
					// No catch clause: finally still runs (below), then the
					// exception keeps propagating past this construct.
					uncaught = &th
					return
				}
				ex.excStack = append(ex.excStack, th.v)
				func() {
					// A throw raised by the catch block itself is held so
					// finally still runs before it propagates.
					defer func() {
						ex.excStack = ex.excStack[:len(ex.excStack)-1]
						if r2 := recover(); r2 != nil {
							th2, ok := r2.(thrown)
							if !ok {
								panic(r2)
							}
							uncaught = &th2
						}
					}()
					v, did := ex.run(fn, fr, labels, region.CatchStart, region.CatchEnd)
					if did {
						bodyRet, bodyDidRet = v, true
					}
				}()
			}
		}()
		v, did := ex.run(fn, fr, labels, region.TryStart, region.TryEnd)
		if did {
			bodyRet, bodyDidRet = v, true
		}
	}()

	// finally always runs, whether the try/catch body returned, threw
	// (and was caught or left uncaught), or fell through normally —
	// matching `try -> try_pop -> finally -> end` / `catch -> finally ->
	// end` (spec §4.5 point 7). A return inside finally itself overrides
	// any pending return from the try/catch body.
	if region.FinallyStart >= 0 {
		v, did := ex.run(fn, fr, labels, region.FinallyStart, region.FinallyEnd)
		if did {
			return landed, v, true
		}
	}
	if uncaught != nil {
		panic(*uncaught)
	}
	if bodyDidRet {
		return landed, bodyRet, true
	}
	return landed, value.VoidValue, false
}

// protectedRegionEnd returns the instruction index right after the
// whole try/catch/finally construct rooted at setjmpIP — the builder
// records this directly as TryRegion.End (the position right after the
// construct's trailing `try_end` label).
func protectedRegionEnd(fn *Function, setjmpIP int) int {
	return fn.TryRegions[setjmpIP].End
}

// dispatchCall resolves a call instruction's callee: first the fixed
// runtime ABI (spec §6), then the EH protocol verbs not handled inline
// by setjmp, then user functions, then builtins.
func (ex *Executor) dispatchCall(name string, args []value.Value) value.Value {
	switch name {
	case "binary_op":
		op := string(args[2].Object.(*value.Str).Bytes)
		return runtime.BinaryOp(op, args[0], args[1])
	case "get_element":
		return runtime.GetElement(args[0], args[1])
	case "set_element":
		runtime.SetElement(args[0], args[1], args[2])
		return value.VoidValue
	case "allocate_array":
		return value.ObjValue(value.NewArray())
	case "array_push":
		args[0].Object.(*value.Array).Push(args[1])
		return value.VoidValue
	case "allocate_object":
		return value.ObjValue(value.NewObject())
	case "object_set":
		key := string(args[1].Object.(*value.Str).Bytes)
		args[0].Object.(*value.Object).Set(key, args[2])
		return value.VoidValue
	case "print_value":
		runtime.Print(ex.Out, args[0])
		return value.VoidValue
	case "to_string":
		return runtime.ToStringValue(args[0])
	case "to_int":
		return runtime.ToInt(args[0])
	case "to_float":
		return runtime.ToFloat(args[0])
	case "try_push":
		ex.nextHandle++
		return value.IntValue(int64(ex.nextHandle))
	case "try_pop":
		return value.VoidValue
	case "throw":
		panic(thrown{args[0]})
	case "get_exception":
		if len(ex.excStack) == 0 {
			return value.VoidValue
		}
		return ex.excStack[len(ex.excStack)-1]
	}

	if fn, ok := ex.mod.Functions[name]; ok {
		return ex.callFunction(fn, args)
	}
	if f, ok := ex.builtins.Lookup(name); ok {
		return f(args)
	}
	fmt.Fprintf(os.Stderr, "Runtime Error: undefined function '%s'\n", name)
	return value.VoidValue
}
