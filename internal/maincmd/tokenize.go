package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/scanner"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var sink diag.List
	fs, toksByFile, err := scanner.ScanFiles(ctx, &sink, files...)
	for _, toks := range toksByFile {
		for _, tv := range toks {
			fmt.Fprintf(stdio.Stdout, "%s: %s", fs.Position(tv.Value.Src), tv.Token)
			if tv.Value.Raw != "" {
				fmt.Fprintf(stdio.Stdout, " %s", tv.Value.Raw)
			}
			fmt.Fprintln(stdio.Stdout)
		}
	}
	if err != nil {
		printDiags(stdio, &sink)
	}
	return err
}
