package maincmd

import (
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/compiler"
	"github.com/mna/adeptc/lang/ir"
	"github.com/mna/adeptc/lang/query"
	"github.com/mna/adeptc/lang/resolver"
)

// buildGraph collects every top-level declaration across chunks into g,
// resolving struct fields and function signatures (spec section 4.4's
// "resolve type references" and "resolve function heads" jobs) before
// any function body is built, so a body referencing a struct or
// function declared later in the same file still finds it. Struct
// names are registered before any field is resolved so two structs may
// reference each other.
//
// Function heads run through eng (spec section 4.4's demand-driven
// query engine) rather than being resolved inline, the same
// incremental-recomputation path a real build uses; a CLI invocation
// only ever runs each head once, so the engine's caching has nothing to
// reuse here, but the entry point is identical to what a long-lived
// compiler daemon would call on every edit.
func buildGraph(eng *query.Engine, g *asg.Graph, chunks []*ast.Chunk) ([]*ast.FuncDecl, error) {
	var structDecls []*ast.StructDecl
	for _, ch := range chunks {
		for _, d := range ch.Decls {
			if sd, ok := d.(*ast.StructDecl); ok {
				g.AddStruct(asg.StructDecl{Source: sd.Start, Name: sd.Name.Name})
				structDecls = append(structDecls, sd)
			}
		}
	}
	for _, sd := range structDecls {
		fields := make([]asg.Field, len(sd.Fields))
		for i, fd := range sd.Fields {
			ft, err := resolver.ResolveTypeExpr(g, fd.Type)
			if err != nil {
				return nil, fmt.Errorf("struct %s field %s: %w", sd.Name.Name, fd.Name.Name, err)
			}
			fields[i] = asg.Field{Name: fd.Name.Name, Type: ft}
		}
		ix := g.LookupStruct(sd.Name.Name)
		full := g.Structs.Get(ix)
		full.Fields = fields
		g.Structs.Set(ix, full)
	}

	var funcDecls []*ast.FuncDecl
	for _, ch := range chunks {
		for _, d := range ch.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok {
				continue
			}
			art, err := eng.Run(resolver.FuncHeadReq{Graph: g, Decl: fd})
			if err != nil {
				return nil, fmt.Errorf("fn %s: %w", fd.Sig.Name.Name, err)
			}
			g.AddFunc(art.(asg.FuncDecl))
			funcDecls = append(funcDecls, fd)
		}
	}
	return funcDecls, nil
}

// compileProgram resolves and lowers every funcDecl with a body
// (spec section 4.4's body-resolution job, lang/cfg's CFG build,
// lang/ir's lowering, and lang/compiler's bytecode emission) into one
// shared compiler.Program, the unit lang/interp's VM loop executes.
func compileProgram(g *asg.Graph, funcDecls []*ast.FuncDecl, target targetcfg.Target) (*compiler.Program, error) {
	prog := compiler.NewProgram()
	funcDecls = orderEntryFirst(funcDecls, "main")
	for _, fd := range funcDecls {
		if fd.Body == nil {
			continue // external or trait-requirement declaration, nothing to lower
		}
		ix := g.LookupFunc(fd.Sig.Name.Name)
		decl := g.Funcs.Get(ix)

		cg, err := resolver.BuildFunc(g, target, decl, fd.Body)
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", decl.Name, err)
		}
		fn, err := ir.Lower(g, cg, ix)
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", decl.Name, err)
		}
		if _, err := compiler.Compile(prog, g, fn); err != nil {
			return nil, fmt.Errorf("fn %s: %w", decl.Name, err)
		}
	}
	return prog, nil
}

// orderEntryFirst moves the function named entry to the front so it
// becomes prog.Toplevel (the first function compiler.Compile sees),
// the only thing lang/interp.Interpreter.Run ever executes. Declaration
// order otherwise carries no meaning here, since every reference
// between functions resolves through the graph, not call order.
func orderEntryFirst(funcDecls []*ast.FuncDecl, entry string) []*ast.FuncDecl {
	for i, fd := range funcDecls {
		if fd.Sig.Name.Name == entry {
			if i == 0 {
				return funcDecls
			}
			out := make([]*ast.FuncDecl, 0, len(funcDecls))
			out = append(out, fd)
			out = append(out, funcDecls[:i]...)
			out = append(out, funcDecls[i+1:]...)
			return out
		}
	}
	return funcDecls
}

func funcByName(prog *compiler.Program, name string) *compiler.Funcode {
	if prog.Toplevel != nil && prog.Toplevel.Name == name {
		return prog.Toplevel
	}
	for _, fc := range prog.Functions {
		if fc.Name == name {
			return fc
		}
	}
	return nil
}
