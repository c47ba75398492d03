package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, "", args...)
}

func ParseFiles(ctx context.Context, stdio mainer.Stdio, nodeFmt string, files ...string) error {
	var sink diag.List
	fs, chunks, err := parser.ParseFiles(ctx, &sink, files...)
	printer := ast.Printer{
		Output:  stdio.Stdout,
		Fset:    fs,
		NodeFmt: nodeFmt,
	}
	for _, ch := range chunks {
		if perr := printer.Print(ch); perr != nil {
			fmt.Fprintln(stdio.Stderr, perr)
			return perr
		}
	}
	if err != nil {
		printDiags(stdio, &sink)
	}
	return err
}
