package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tulpar-lang/tulpar/internal/interp"
	"github.com/tulpar-lang/tulpar/internal/ir"
	"github.com/tulpar-lang/tulpar/internal/stdlib"
)

var (
	evalExpr string
	useAOT   bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute a Tulpar program",
	Long: `Execute a Tulpar program from a file or inline expression.

Examples:
  tulpar run script.tlp
  tulpar run -e 'print(1 + 2);'
  tulpar run --aot script.tlp   # execute via the AOT-lowered instruction stream`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&useAOT, "aot", false, "execute through the AOT instruction stream instead of the tree-walking interpreter")
}

func runScript(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	prog, hadErrors := parseSource(src, filename)
	if hadErrors {
		return fmt.Errorf("parsing failed")
	}

	builtins := stdlib.Register()

	if useAOT {
		mod := ir.Lower(prog)
		ex := ir.NewExecutor(mod, builtins)
		code := ex.Run()
		if code != 0 {
			return fmt.Errorf("program exited with status %d", code)
		}
		return nil
	}

	in := interp.New(builtins)
	in.Run(prog)
	return nil
}
