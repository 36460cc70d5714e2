// Package main provides the entry point for the mnemo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/mnemo-run/mnemo/cmd/mnemo/cmd"
	"github.com/mnemo-run/mnemo/internal/errs"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errs.FormatForCLI(err))
		os.Exit(1)
	}
}
