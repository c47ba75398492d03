package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/abi"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/parser"
	"github.com/mna/adeptc/lang/query"
)

// AbiClassify parses every file's top-level declarations and prints,
// per function, how its parameters and return value cross the call
// boundary under the default compilation target (spec section 4.7).
// It classifies function heads only; a body is not required.
func (c *Cmd) AbiClassify(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return AbiClassifyFiles(ctx, stdio, targetcfg.Default(), args...)
}

func AbiClassifyFiles(ctx context.Context, stdio mainer.Stdio, target targetcfg.Target, files ...string) error {
	var sink diag.List
	_, chunks, perr := parser.ParseFiles(ctx, &sink, files...)
	if perr != nil {
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
		decl := g.Funcs.Get(g.LookupFunc(name))

		params := make([]asg.Type, len(decl.Params))
		for i, p := range decl.Params {
			params[i] = p.Type
		}
		ret := decl.Return
		if ret == nil {
			ret = asg.Void{}
		}

		fn, err := abi.Classify(g, params, ret, target, target.DefaultConvention)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "fn %s: %s\n", name, err)
			return err
		}

		fmt.Fprintf(stdio.Stdout, "fn %s\n", name)
		fmt.Fprintf(stdio.Stdout, ". return: %s\n", fn.Return.Kind)
		for i, p := range fn.Params {
			fmt.Fprintf(stdio.Stdout, ". param %d (%s): %s\n", i, decl.Params[i].Name, p.Kind)
		}
	}
	return nil
}
