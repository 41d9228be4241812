package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tulpar-lang/tulpar/internal/ir"
	"github.com/tulpar-lang/tulpar/internal/runtime"
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Lower a Tulpar program to its AOT instruction stream and print it",
	Long: `Parse and lower a Tulpar program to the abstract instruction stream
described in spec §4.5 (const_value, alloca, load, store, call, branch,
cond_branch, label, ret, unreachable), then print it.

Emitting real object code or linking a native binary is out of this
repository's scope: any backend that targets this instruction set could
do so, and internal/ir.Executor stands in for one to let the AOT and
interpreter execution paths be tested against each other.`,
	Args: cobra.ExactArgs(1),
	RunE: buildScript,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func buildScript(_ *cobra.Command, args []string) error {
	src, filename, err := readSource("", args)
	if err != nil {
		return err
	}

	prog, hadErrors := parseSource(src, filename)
	if hadErrors {
		return fmt.Errorf("parsing failed")
	}

	mod := ir.Lower(prog)
	printFunction("main", mod.Main)
	for name, fn := range mod.Functions {
		fmt.Println()
		printFunction(name, fn)
	}
	return nil
}

func printFunction(name string, fn *ir.Function) {
	fmt.Printf("func %s(%s):\n", name, joinParams(fn.Params))
	for i, instr := range fn.Instrs {
		fmt.Printf("  %4d  %s\n", i, instrString(instr))
	}
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func instrString(i ir.Instr) string {
	switch i.Op {
	case ir.OpConstValue:
		return fmt.Sprintf("const_value  %s", runtime.ToDisplayString(i.Imm))
	case ir.OpAlloca:
		return fmt.Sprintf("alloca       %s", i.Sym)
	case ir.OpLoad:
		return fmt.Sprintf("load         %s", i.Sym)
	case ir.OpStore:
		return fmt.Sprintf("store        %s, %v", i.Sym, i.Args)
	case ir.OpCall:
		return fmt.Sprintf("call         %s(%v)", i.Sym, i.Args)
	case ir.OpBranch:
		return fmt.Sprintf("branch       %s", i.Target)
	case ir.OpCondBranch:
		return fmt.Sprintf("cond_branch  %v, %s, %s", i.Args, i.Target, i.Target2)
	case ir.OpLabel:
		return fmt.Sprintf("label        %s:", i.Target)
	case ir.OpRet:
		return fmt.Sprintf("ret          %v", i.Args)
	case ir.OpUnreachable:
		return "unreachable"
	default:
		return "?"
	}
}
