package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/cfg"
	"github.com/mna/adeptc/lang/parser"
	"github.com/mna/adeptc/lang/query"
	"github.com/mna/adeptc/lang/resolver"
)

// Resolve executes the resolver phase (spec section 4.4): parse every
// file into one shared semantic graph, resolve every function head and
// build every function body's CFG, then print each CFG's nodes.
func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ResolveFiles(ctx, stdio, targetcfg.Default(), args...)
}

func ResolveFiles(ctx context.Context, stdio mainer.Stdio, target targetcfg.Target, files ...string) error {
	var sink diag.List
	_, chunks, perr := parser.ParseFiles(ctx, &sink, files...)
	if perr != nil {
		// cannot resolve an AST that failed to parse
		printDiags(stdio, &sink)
		return perr
	}

	g := asg.NewGraph()
	eng := query.NewEngine()
	funcDecls, err := buildGraph(eng, g, chunks)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	for _, fd := range funcDecls {
		name := fd.Sig.Name.Name
		if fd.Body == nil {
			fmt.Fprintf(stdio.Stdout, "fn %s (no body)\n", name)
			continue
		}
		decl := g.Funcs.Get(g.LookupFunc(name))
		cg, err := resolver.BuildFunc(g, target, decl, fd.Body)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "fn %s: %s\n", name, err)
			return err
		}
		fmt.Fprintf(stdio.Stdout, "fn %s (%d cfg nodes)\n", name, cg.Len())
		i := 0
		cg.All(func(_ cfg.NodeIdx, n cfg.Node) bool {
			fmt.Fprintf(stdio.Stdout, ". %d: %T\n", i, n)
			i++
			return true
		})
	}
	return nil
}
