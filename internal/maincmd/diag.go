package maincmd

import (
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
)

// printDiags writes every diagnostic in sink to stdio.Stderr, the same
// one-per-line rendering every maincmd subcommand uses for scanner,
// parser, and resolver errors.
func printDiags(stdio mainer.Stdio, sink *diag.List) {
	for _, d := range sink.Items() {
		fmt.Fprintln(stdio.Stderr, d)
	}
}
