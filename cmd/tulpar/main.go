package main

import (
	"fmt"
	"os"

	"github.com/tulpar-lang/tulpar/cmd/tulpar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
