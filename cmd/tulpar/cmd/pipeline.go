package cmd

import (
	"fmt"
	"os"

	"github.com/tulpar-lang/tulpar/internal/ast"
	"github.com/tulpar-lang/tulpar/internal/lexer"
	"github.com/tulpar-lang/tulpar/internal/parser"
)

// parseSource runs the lexer and parser over src, printing any syntax
// diagnostics to stderr. It returns the (possibly partial) program and
// whether parsing produced at least one error.
func parseSource(src, filename string) (*ast.Program, bool) {
	scanner := lexer.NewScanner(src)
	tokens := scanner.ScanAll()

	p := parser.New(tokens, filename)
	prog := p.Parse()

	if p.Sink.HasErrors() {
		for _, diag := range p.Sink.Diagnostics {
			fmt.Fprintln(os.Stderr, diag.Error())
		}
		return prog, true
	}
	return prog, false
}

func readSource(evalExpr string, args []string) (src, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("either provide a file path or use -e/--eval for inline code")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}
