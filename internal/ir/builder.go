package ir

import (
	"fmt"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// lowerScope is a linked chain mapping a source name to the slot name
// it was allocated under, mirroring spec §3.4's scoping but at lowering
// time rather than at run time. A fresh nested block gets a fresh
// lowerScope; shadowed names are given a uniquified slot so sibling and
// parent slots never collide within one function.
type lowerScope struct {
	parent *lowerScope
	slots  map[string]string
}

func newLowerScope(parent *lowerScope) *lowerScope {
	return &lowerScope{parent: parent, slots: make(map[string]string)}
}

func (s *lowerScope) resolve(name string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if slot, ok := sc.slots[name]; ok {
			return slot, true
		}
	}
	return "", false
}

// Context carries all per-lowering mutable state explicitly, rather
// than through package-level globals (spec §9 REDESIGN FLAG: the
// original emitter's global mutable state becomes an explicit,
// threaded Context).
type Context struct {
	mod          *Module
	fn           *Function
	scope        *lowerScope
	labelCounter int
	slotCounter  int
	loops        []loopLabels
}

// loopLabels records the branch targets `break`/`continue` resolve to
// for the innermost enclosing loop — both are just ordinary branches
// to a label already established when the loop was lowered.
type loopLabels struct {
	breakTo    string
	continueTo string
}

func (c *Context) pushLoop(breakTo, continueTo string) {
	c.loops = append(c.loops, loopLabels{breakTo, continueTo})
}

func (c *Context) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Context) currentLoop() loopLabels {
	return c.loops[len(c.loops)-1]
}

// Lower translates prog into a Module (spec §4.5).
func Lower(prog *ast.Program) *Module {
	mod := &Module{Functions: make(map[string]*Function)}
	ctx := &Context{mod: mod}

	// Pass 1: declare every top-level function signature so forward
	// references resolve by exact name match (spec §4.5 point 6), then
	// lower each body.
	var topLevel []ast.Node
	for _, stmt := range prog.Stmts {
		if fn, ok := stmt.(*ast.FuncDecl); ok {
			mod.Functions[fn.Name] = &Function{Name: fn.Name, Params: paramNames(fn)}
			continue
		}
		topLevel = append(topLevel, stmt)
	}
	for _, stmt := range prog.Stmts {
		if fn, ok := stmt.(*ast.FuncDecl); ok {
			ctx.lowerFuncBody(fn, mod.Functions[fn.Name])
		}
	}

	main := &Function{Name: "main"}
	ctx.fn = main
	ctx.scope = newLowerScope(nil)
	for _, stmt := range topLevel {
		ctx.lowerStmt(stmt)
	}
	ctx.emit(Instr{Op: OpRet})
	mod.Main = main
	return mod
}

func paramNames(fn *ast.FuncDecl) []string {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
	}
	return names
}

func (c *Context) lowerFuncBody(fn *ast.FuncDecl, out *Function) {
	saved, savedScope := c.fn, c.scope
	c.fn = out
	c.scope = newLowerScope(nil)
	for _, p := range fn.Params {
		c.scope.slots[p.Name] = p.Name
	}
	c.lowerBlock(fn.Body)
	c.emit(Instr{Op: OpRet})
	c.fn, c.scope = saved, savedScope
}

func (c *Context) emit(i Instr) int {
	c.fn.Instrs = append(c.fn.Instrs, i)
	return len(c.fn.Instrs) - 1
}

func (c *Context) newLabel(prefix string) string {
	c.labelCounter++
	return fmt.Sprintf("%s_%d", prefix, c.labelCounter)
}

func (c *Context) newSlot(name string) string {
	c.slotCounter++
	return fmt.Sprintf("%s#%d", name, c.slotCounter)
}

func (c *Context) define(name string) string {
	slot := c.newSlot(name)
	c.scope.slots[name] = slot
	c.emit(Instr{Op: OpAlloca, Sym: slot})
	return slot
}

func (c *Context) lowerBlock(b *ast.Block) {
	saved := c.scope
	c.scope = newLowerScope(saved)
	for _, stmt := range b.Stmts {
		if _, isFn := stmt.(*ast.FuncDecl); isFn {
			continue // nested func decls are not lowered; only top-level ones become Functions
		}
		c.lowerStmt(stmt)
	}
	c.scope = saved
}

func (c *Context) lowerStmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.VarDecl:
		slot := c.define(s.Name)
		var v int
		if s.Init != nil {
			v = c.lowerExpr(s.Init)
		} else {
			v = c.emit(Instr{Op: OpConstValue, Imm: value.VoidValue})
		}
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{v}})

	case *ast.Assign:
		v := c.lowerExpr(s.Value)
		c.lowerAssignTo(s.Target, v)

	case *ast.CompoundAssign:
		slot, ok := c.scope.resolve(s.Name)
		if !ok {
			slot = c.define(s.Name)
		}
		cur := c.emit(Instr{Op: OpLoad, Sym: slot})
		rhs := c.lowerExpr(s.Value)
		op := s.Op[:len(s.Op)-1]
		opReg := c.emit(Instr{Op: OpConstValue, Imm: opTagValue(op)})
		result := c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{cur, rhs, opReg}})
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{result}})

	case *ast.Inc:
		c.lowerIncDec(s.Name, "+")

	case *ast.Dec:
		c.lowerIncDec(s.Name, "-")

	case *ast.Call:
		c.lowerExpr(s)

	case *ast.Ident:
		c.lowerExpr(s)

	case *ast.If:
		c.lowerIf(s)

	case *ast.While:
		cond := c.newLabel("while_cond")
		body := c.newLabel("while_body")
		end := c.newLabel("while_end")
		c.emit(Instr{Op: OpLabel, Target: cond})
		cv := c.lowerExpr(s.Cond)
		c.emit(Instr{Op: OpCondBranch, Args: []int{cv}, Target: body, Target2: end})
		c.emit(Instr{Op: OpLabel, Target: body})
		c.pushLoop(end, cond)
		c.lowerBlock(s.Body)
		c.popLoop()
		c.emit(Instr{Op: OpBranch, Target: cond})
		c.emit(Instr{Op: OpLabel, Target: end})

	case *ast.For:
		c.lowerFor(s)

	case *ast.ForIn:
		c.lowerForIn(s)

	case *ast.Break:
		c.emit(Instr{Op: OpBranch, Target: c.currentLoop().breakTo})

	case *ast.Continue:
		c.emit(Instr{Op: OpBranch, Target: c.currentLoop().continueTo})

	case *ast.Return:
		if s.Value != nil {
			v := c.lowerExpr(s.Value)
			c.emit(Instr{Op: OpRet, Args: []int{v}})
		} else {
			c.emit(Instr{Op: OpRet})
		}

	case *ast.Block:
		c.lowerBlock(s)

	case *ast.FuncDecl:
		// already lowered in pass 1/2.

	case *ast.Import:
		// Imports are not resolved: the lowering pass treats Import as a
		// no-op and never reads the imported file.

	case *ast.TryCatch:
		c.lowerTryCatch(s)

	case *ast.Throw:
		v := c.lowerExpr(s.Value)
		c.emit(Instr{Op: OpCall, Sym: "throw", Args: []int{v}})
		c.emit(Instr{Op: OpUnreachable})

	default:
		panic(fmt.Sprintf("ir: unhandled statement %T", n))
	}
}

func (c *Context) lowerIncDec(name, op string) {
	slot, ok := c.scope.resolve(name)
	if !ok {
		slot = c.define(name)
	}
	cur := c.emit(Instr{Op: OpLoad, Sym: slot})
	one := c.emit(Instr{Op: OpConstValue, Imm: value.IntValue(1)})
	opReg := c.emit(Instr{Op: OpConstValue, Imm: opTagValue(op)})
	result := c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{cur, one, opReg}})
	c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{result}})
}

func (c *Context) lowerAssignTo(target ast.Node, v int) {
	switch t := target.(type) {
	case *ast.Ident:
		slot, ok := c.scope.resolve(t.Name)
		if !ok {
			slot = c.define(t.Name)
		}
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{v}})
	case *ast.IndexAccess:
		tgt := c.lowerExpr(t.Target)
		idx := c.lowerExpr(t.Index)
		c.emit(Instr{Op: OpCall, Sym: "set_element", Args: []int{tgt, idx, v}})
	}
}

func (c *Context) lowerIf(s *ast.If) {
	thenL := c.newLabel("if_then")
	elseL := c.newLabel("if_else")
	endL := c.newLabel("if_end")
	cv := c.lowerExpr(s.Cond)
	c.emit(Instr{Op: OpCondBranch, Args: []int{cv}, Target: thenL, Target2: elseL})
	c.emit(Instr{Op: OpLabel, Target: thenL})
	c.lowerBlock(s.Then)
	c.emit(Instr{Op: OpBranch, Target: endL})
	c.emit(Instr{Op: OpLabel, Target: elseL})
	if s.Else != nil {
		switch e := s.Else.(type) {
		case *ast.Block:
			c.lowerBlock(e)
		case *ast.If:
			c.lowerIf(e)
		}
	}
	c.emit(Instr{Op: OpBranch, Target: endL})
	c.emit(Instr{Op: OpLabel, Target: endL})
}

func (c *Context) lowerFor(s *ast.For) {
	saved := c.scope
	c.scope = newLowerScope(saved)
	if s.Init != nil {
		c.lowerStmt(s.Init)
	}
	cond := c.newLabel("for_cond")
	body := c.newLabel("for_body")
	step := c.newLabel("for_step")
	end := c.newLabel("for_end")
	c.emit(Instr{Op: OpLabel, Target: cond})
	if s.Cond != nil {
		cv := c.lowerExpr(s.Cond)
		c.emit(Instr{Op: OpCondBranch, Args: []int{cv}, Target: body, Target2: end})
	} else {
		c.emit(Instr{Op: OpBranch, Target: body})
	}
	c.emit(Instr{Op: OpLabel, Target: body})
	c.pushLoop(end, step)
	c.lowerBlock(s.Body)
	c.popLoop()
	c.emit(Instr{Op: OpLabel, Target: step})
	if s.Step != nil {
		c.lowerStmt(s.Step)
	}
	c.emit(Instr{Op: OpBranch, Target: cond})
	c.emit(Instr{Op: OpLabel, Target: end})
	c.scope = saved
}

// lowerForIn desugars `for-in` into an index-counted loop over the
// iterable's length, exactly as spec §4.5 point 5 specifies.
func (c *Context) lowerForIn(s *ast.ForIn) {
	saved := c.scope
	c.scope = newLowerScope(saved)

	iterSlot := c.newSlot("__iter")
	c.emit(Instr{Op: OpAlloca, Sym: iterSlot})
	iterVal := c.lowerExpr(s.Iterable)
	c.emit(Instr{Op: OpStore, Sym: iterSlot, Args: []int{iterVal}})

	idxSlot := c.newSlot("__idx")
	c.emit(Instr{Op: OpAlloca, Sym: idxSlot})
	zero := c.emit(Instr{Op: OpConstValue, Imm: value.IntValue(0)})
	c.emit(Instr{Op: OpStore, Sym: idxSlot, Args: []int{zero}})

	cond := c.newLabel("forin_cond")
	body := c.newLabel("forin_body")
	step := c.newLabel("forin_step")
	end := c.newLabel("forin_end")

	c.emit(Instr{Op: OpLabel, Target: cond})
	idxLoad := c.emit(Instr{Op: OpLoad, Sym: idxSlot})
	iterLoad := c.emit(Instr{Op: OpLoad, Sym: iterSlot})
	lenReg := c.emit(Instr{Op: OpCall, Sym: "len", Args: []int{iterLoad}})
	ltOp := c.emit(Instr{Op: OpConstValue, Imm: opTagValue("<")})
	cmp := c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{idxLoad, lenReg, ltOp}})
	c.emit(Instr{Op: OpCondBranch, Args: []int{cmp}, Target: body, Target2: end})

	c.emit(Instr{Op: OpLabel, Target: body})
	elemSlot := c.define(s.Name)
	iterLoad2 := c.emit(Instr{Op: OpLoad, Sym: iterSlot})
	idxLoad2 := c.emit(Instr{Op: OpLoad, Sym: idxSlot})
	elem := c.emit(Instr{Op: OpCall, Sym: "get_element", Args: []int{iterLoad2, idxLoad2}})
	c.emit(Instr{Op: OpStore, Sym: elemSlot, Args: []int{elem}})
	c.pushLoop(end, step)
	c.lowerBlock(s.Body)
	c.popLoop()

	// idx = idx + 1
	c.emit(Instr{Op: OpLabel, Target: step})
	idxLoad3 := c.emit(Instr{Op: OpLoad, Sym: idxSlot})
	one := c.emit(Instr{Op: OpConstValue, Imm: value.IntValue(1)})
	plusOp := c.emit(Instr{Op: OpConstValue, Imm: opTagValue("+")})
	next := c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{idxLoad3, one, plusOp}})
	c.emit(Instr{Op: OpStore, Sym: idxSlot, Args: []int{next}})
	c.emit(Instr{Op: OpBranch, Target: cond})
	c.emit(Instr{Op: OpLabel, Target: end})

	c.scope = saved
}

// lowerTryCatch lowers try/catch/finally onto the EH protocol from spec
// §4.5 point 7 and §6's ABI table: try_push/setjmp establish a landing
// pad, throw performs the jump, and the emitter sequences blocks as
// `try -> try_pop -> finally -> end` / `catch -> finally -> end`.
func (c *Context) lowerTryCatch(s *ast.TryCatch) {
	tryL := c.newLabel("try_body")
	catchL := c.newLabel("try_catch")
	finallyL := c.newLabel("try_finally")
	endL := c.newLabel("try_end")

	token := c.emit(Instr{Op: OpCall, Sym: "try_push"})
	setjmpIP := c.emit(Instr{Op: OpCall, Sym: "setjmp", Args: []int{token}})
	c.emit(Instr{Op: OpCondBranch, Args: []int{setjmpIP}, Target: catchL, Target2: tryL})

	region := TryRegion{CatchStart: -1, CatchEnd: -1, FinallyStart: -1, FinallyEnd: -1}

	c.emit(Instr{Op: OpLabel, Target: tryL})
	region.TryStart = len(c.fn.Instrs)
	c.lowerBlock(s.Try)
	c.emit(Instr{Op: OpCall, Sym: "try_pop", Args: []int{token}})
	region.TryEnd = len(c.fn.Instrs)
	c.emit(Instr{Op: OpBranch, Target: finallyL})

	c.emit(Instr{Op: OpLabel, Target: catchL})
	if s.Catch != nil {
		region.CatchStart = len(c.fn.Instrs)
		saved := c.scope
		c.scope = newLowerScope(saved)
		exc := c.emit(Instr{Op: OpCall, Sym: "get_exception"})
		if s.CatchVar != "" {
			slot := c.define(s.CatchVar)
			c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{exc}})
		}
		c.lowerBlock(s.Catch)
		c.scope = saved
		region.CatchEnd = len(c.fn.Instrs)
	}
	c.emit(Instr{Op: OpBranch, Target: finallyL})

	c.emit(Instr{Op: OpLabel, Target: finallyL})
	if s.Finally != nil {
		region.FinallyStart = len(c.fn.Instrs)
		c.lowerBlock(s.Finally)
		region.FinallyEnd = len(c.fn.Instrs)
	}
	region.End = c.emit(Instr{Op: OpLabel, Target: endL}) + 1

	if c.fn.TryRegions == nil {
		c.fn.TryRegions = make(map[int]TryRegion)
	}
	c.fn.TryRegions[setjmpIP] = region
}

func (c *Context) lowerExpr(n ast.Node) int {
	switch e := n.(type) {
	case *ast.IntLit:
		return c.emit(Instr{Op: OpConstValue, Imm: value.IntValue(e.Value)})
	case *ast.FloatLit:
		return c.emit(Instr{Op: OpConstValue, Imm: value.FloatValue(e.Value)})
	case *ast.StringLit:
		return c.emit(Instr{Op: OpConstValue, Imm: value.ObjValue(value.NewStr(e.Value))})
	case *ast.BoolLit:
		return c.emit(Instr{Op: OpConstValue, Imm: value.BoolValue(e.Value)})

	case *ast.ArrayLit:
		arr := c.emit(Instr{Op: OpCall, Sym: "allocate_array"})
		for _, el := range e.Elements {
			v := c.lowerExpr(el)
			c.emit(Instr{Op: OpCall, Sym: "array_push", Args: []int{arr, v}})
		}
		return arr

	case *ast.ObjectLit:
		obj := c.emit(Instr{Op: OpCall, Sym: "allocate_object"})
		for i, k := range e.Keys {
			key := c.emit(Instr{Op: OpConstValue, Imm: value.ObjValue(value.NewStr(k))})
			v := c.lowerExpr(e.Values[i])
			c.emit(Instr{Op: OpCall, Sym: "object_set", Args: []int{obj, key, v}})
		}
		return obj

	case *ast.Ident:
		slot, ok := c.scope.resolve(e.Name)
		if !ok {
			slot = c.define(e.Name)
		}
		return c.emit(Instr{Op: OpLoad, Sym: slot})

	case *ast.IndexAccess:
		tgt := c.lowerExpr(e.Target)
		idx := c.lowerExpr(e.Index)
		return c.emit(Instr{Op: OpCall, Sym: "get_element", Args: []int{tgt, idx}})

	case *ast.BinOp:
		return c.lowerBinOp(e)

	case *ast.UnaryOp:
		return c.lowerUnaryOp(e)

	case *ast.Call:
		args := make([]int, len(e.Args))
		for i, a := range e.Args {
			args[i] = c.lowerExpr(a)
		}
		return c.emit(Instr{Op: OpCall, Sym: e.Name, Args: args})

	default:
		panic(fmt.Sprintf("ir: unhandled expression %T", n))
	}
}

// lowerBinOp special-cases && and || as short-circuiting branches
// (spec §4.4.1), materializing the result through a temp slot since the
// instruction set has no phi node.
func (c *Context) lowerBinOp(e *ast.BinOp) int {
	switch e.Op {
	case "&&", "||":
		slot := c.newSlot("__logic")
		c.emit(Instr{Op: OpAlloca, Sym: slot})
		l := c.lowerExpr(e.Left)
		shortL := c.newLabel("logic_short")
		evalR := c.newLabel("logic_eval_r")
		end := c.newLabel("logic_end")
		if e.Op == "&&" {
			c.emit(Instr{Op: OpCondBranch, Args: []int{l}, Target: evalR, Target2: shortL})
		} else {
			c.emit(Instr{Op: OpCondBranch, Args: []int{l}, Target: shortL, Target2: evalR})
		}
		c.emit(Instr{Op: OpLabel, Target: shortL})
		shortVal := c.emit(Instr{Op: OpConstValue, Imm: value.BoolValue(e.Op == "||")})
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{shortVal}})
		c.emit(Instr{Op: OpBranch, Target: end})
		c.emit(Instr{Op: OpLabel, Target: evalR})
		r := c.lowerExpr(e.Right)
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{r}})
		c.emit(Instr{Op: OpBranch, Target: end})
		c.emit(Instr{Op: OpLabel, Target: end})
		return c.emit(Instr{Op: OpLoad, Sym: slot})
	}

	l := c.lowerExpr(e.Left)
	r := c.lowerExpr(e.Right)
	opReg := c.emit(Instr{Op: OpConstValue, Imm: opTagValue(e.Op)})
	return c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{l, r, opReg}})
}

// lowerUnaryOp has no dedicated ABI entries, so it's expressed purely
// in terms of binary_op and the fixed instruction set: negation as
// `0 - x`, logical not as a truthiness branch materializing the
// opposite boolean.
func (c *Context) lowerUnaryOp(e *ast.UnaryOp) int {
	switch e.Op {
	case "-":
		zero := c.emit(Instr{Op: OpConstValue, Imm: value.IntValue(0)})
		v := c.lowerExpr(e.Operand)
		opReg := c.emit(Instr{Op: OpConstValue, Imm: opTagValue("-")})
		return c.emit(Instr{Op: OpCall, Sym: "binary_op", Args: []int{zero, v, opReg}})
	case "!":
		v := c.lowerExpr(e.Operand)
		slot := c.newSlot("__not")
		c.emit(Instr{Op: OpAlloca, Sym: slot})
		trueL := c.newLabel("not_true")
		falseL := c.newLabel("not_false")
		end := c.newLabel("not_end")
		c.emit(Instr{Op: OpCondBranch, Args: []int{v}, Target: trueL, Target2: falseL})
		c.emit(Instr{Op: OpLabel, Target: trueL})
		fv := c.emit(Instr{Op: OpConstValue, Imm: value.BoolValue(false)})
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{fv}})
		c.emit(Instr{Op: OpBranch, Target: end})
		c.emit(Instr{Op: OpLabel, Target: falseL})
		tv := c.emit(Instr{Op: OpConstValue, Imm: value.BoolValue(true)})
		c.emit(Instr{Op: OpStore, Sym: slot, Args: []int{tv}})
		c.emit(Instr{Op: OpBranch, Target: end})
		c.emit(Instr{Op: OpLabel, Target: end})
		return c.emit(Instr{Op: OpLoad, Sym: slot})
	}
	panic("ir: unhandled unary operator " + e.Op)
}

// opTagValue packs an operator's textual spelling into a Value the way
// spec §6's binary_op(..., op_tag, ...) parameter is passed across the
// ABI boundary; the executor unpacks it back to call runtime.BinaryOp.
func opTagValue(op string) value.Value {
	return value.ObjValue(value.NewStr(op))
}
