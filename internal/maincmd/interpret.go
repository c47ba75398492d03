package maincmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/interp"
	"github.com/mna/adeptc/lang/parser"
	"github.com/mna/adeptc/lang/query"
)

// DefaultInterpMaxCells bounds the bytecode interpreter's memory for an
// interpret invocation; large enough for any example program this
// command is meant to exercise, small enough to still catch a runaway
// allocation loop (spec section 7's "out of memory" condition).
const DefaultInterpMaxCells = 1 << 20

// Interpret parses every file, lowers every function with a body to
// bytecode, then runs the program's main function through the
// bytecode interpreter (spec section 4.6), printing its result.
func (c *Cmd) Interpret(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return InterpretFiles(ctx, stdio, targetcfg.Default(), args...)
}

func InterpretFiles(ctx context.Context, stdio mainer.Stdio, target targetcfg.Target, files ...string) error {
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

	prog, err := compileProgram(g, funcDecls, target)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if funcByName(prog, "main") == nil {
		err := errors.New("interpret: no function named main")
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	mem := interp.NewMemory(DefaultInterpMaxCells)
	handler := &interp.BuildHandler{Stdout: stdio.Stdout}
	in := interp.New(prog, mem, handler)

	result, err := in.Run(ctx, nil)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprintln(stdio.Stdout, result)
	return nil
}
