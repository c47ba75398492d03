package maincmd

import (
	"context"
	"fmt"
	"reflect"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/parser"
	"github.com/mna/adeptc/lang/query"
	"github.com/mna/adeptc/lang/resolver"
)

// Query demonstrates the demand-driven query engine (spec section 4.4)
// directly: it resolves every function head through one query.Engine,
// re-runs the same request to show the memoized result comes back
// without recomputation, then invalidates it and runs it once more to
// show invalidation forces a fresh Run.
func (c *Cmd) Query(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return QueryFiles(ctx, stdio, args...)
}

func QueryFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var sink diag.List
	_, chunks, perr := parser.ParseFiles(ctx, &sink, files...)
	if perr != nil {
		printDiags(stdio, &sink)
		return perr
	}

	g := asg.NewGraph()
	for _, ch := range chunks {
		for _, d := range ch.Decls {
			if sd, ok := d.(*ast.StructDecl); ok {
				g.AddStruct(asg.StructDecl{Source: sd.Start, Name: sd.Name.Name})
			}
		}
	}

	eng := query.NewEngine()
	for _, ch := range chunks {
		for _, d := range ch.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok {
				continue
			}
			req := resolver.FuncHeadReq{Graph: g, Decl: fd}
			name := fd.Sig.Name.Name

			first, err := eng.Run(req)
			if err != nil {
				fmt.Fprintf(stdio.Stderr, "fn %s: %s\n", name, err)
				return err
			}
			fmt.Fprintf(stdio.Stdout, "fn %s: resolved at %s\n", name, eng.Current())

			second, err := eng.Run(req)
			if err != nil {
				fmt.Fprintf(stdio.Stderr, "fn %s: %s\n", name, err)
				return err
			}
			fmt.Fprintf(stdio.Stdout, ". re-run without invalidation: memoized, %s\n", artifactEqual(first, second))

			eng.Invalidate(req)
			third, err := eng.Run(req)
			if err != nil {
				fmt.Fprintf(stdio.Stderr, "fn %s: %s\n", name, err)
				return err
			}
			fmt.Fprintf(stdio.Stdout, ". re-run after invalidation: recomputed, %s, now at %s\n", artifactEqual(first, third), eng.Current())
		}
	}
	return nil
}

func artifactEqual(a, b query.Artifact) string {
	if reflect.DeepEqual(a, b) {
		return "result unchanged"
	}
	return "result changed"
}
