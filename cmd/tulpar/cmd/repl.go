package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tulpar-lang/tulpar/internal/interp"
	"github.com/tulpar-lang/tulpar/internal/stdlib"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive Tulpar session",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	fmt.Println("Tulpar REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)

	in := interp.New(stdlib.Register())

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}

		prog, hadErrors := parseSource(line, "<repl>")
		if hadErrors {
			continue
		}
		in.Run(prog)
	}
	return nil
}
