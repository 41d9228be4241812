// Package cmd is Tulpar's command-line driver. It is grounded on
// CWBudde-go-dws's cmd/dwscript/cmd package (not the teacher's
// cmd/sentra, which is a hand-rolled os.Args dispatcher with no
// third-party CLI library): a cobra root command with one subcommand
// per pipeline stage a user actually runs.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	Version = "0.1.0-dev"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "tulpar",
	Short:   "Tulpar scripting language toolchain",
	Version: Version,
	Long: `tulpar is the reference toolchain for the Tulpar scripting language:
a lexer, parser, tagged value runtime, and two execution paths — a
tree-walking interpreter and an AOT lowering to an abstract instruction
stream.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "accepted by every subcommand; no subcommand reads it")
}

