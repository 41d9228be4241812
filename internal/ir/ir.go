// Package ir implements Tulpar's AOT lowering (spec §4.5): an abstract,
// backend-agnostic instruction stream emitted from an *ast.Program, plus
// an executor that runs it. The instruction set is deliberately small —
// const_value, alloca, load, store, call, branch, cond_branch, label,
// ret, unreachable — so any real backend (native code, bytecode, WASM)
// could target it; this package's Executor is a stand-in for that
// backend, used to demonstrate and test that the AOT and interpreter
// paths agree (spec §8 "Interpreter/AOT equivalence").
package ir

import "github.com/tulpar-lang/tulpar/internal/value"

// Op is one of the fixed abstract instructions from spec §4.5.
type Op int

const (
	OpConstValue Op = iota
	OpAlloca
	OpLoad
	OpStore
	OpCall
	OpBranch
	OpCondBranch
	OpLabel
	OpRet
	OpUnreachable
)

// Instr is one instruction. Which fields are meaningful depends on Op:
//
//	const_value:  Imm                              -> produces a value
//	alloca:       Sym (slot name)
//	load:         Sym (slot name)                   -> produces a value
//	store:        Sym (slot name), Args[0] (value reg)
//	call:         Sym (callee name), Args (value regs) -> produces a value
//	branch:       Target (label name)
//	cond_branch:  Args[0] (cond reg), Target (true label), Target2 (false label)
//	label:        Target (label name)
//	ret:          Args[0] (value reg), or no Args for bare return
//	unreachable:  (none)
type Instr struct {
	Op      Op
	Sym     string
	Imm     value.Value
	Args    []int
	Target  string
	Target2 string
	Line    int
}

// Function is a single lowered function (spec §4.5 point 2): its
// parameters and return are both the boxed Value shape, and it begins a
// fresh scope (the executor binds Params directly into a fresh frame,
// rather than emitting alloca/store for each — the effect is identical
// since a parameter slot is already "allocated" by the calling
// convention).
type Function struct {
	Name       string
	Params     []string
	Instrs     []Instr
	TryRegions map[int]TryRegion // keyed by the setjmp call's instruction index
}

// TryRegion records the exact instruction ranges the builder emitted
// for one try/catch/finally (spec §4.5 point 7), so the executor never
// has to guess a block's end by scanning for "the next branch" —
// nested if/while/for inside the try body would otherwise be
// indistinguishable from the block's own trailing branch.
type TryRegion struct {
	TryStart, TryEnd         int
	CatchStart, CatchEnd     int // both -1 if there is no catch clause
	FinallyStart, FinallyEnd int // both -1 if there is no finally clause
	End                      int // instruction index right after the whole construct
}

// Module is a whole lowered program: the user-declared functions plus
// a single `main`. Runtime symbols are not declared in the module;
// call instructions name them and the executor resolves them by name
// when it runs. User-declared functions are
// looked up by exact name match (spec §4.5 point 6); anything not found
// there falls through to the builtin registry at execution time.
type Module struct {
	Main      *Function
	Functions map[string]*Function
}
