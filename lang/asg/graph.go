package asg

import (
	"strconv"

	"github.com/mna/adeptc/internal/arena"
)

// Graph is the semantic graph for one resolved module: an arena per
// declaration kind plus a name → index table for each, mirroring the
// teacher's resolver.Function grouping Locals/FreeVars but generalized
// from "one table per function scope" to "one table per declaration
// kind for the whole module" (spec section 3: "every name is an arena
// index").
type Graph struct {
	Funcs   *arena.Arena[FuncDecl, FuncDecl]
	Structs *arena.Arena[StructDecl, StructDecl]
	Enums   *arena.Arena[EnumDecl, EnumDecl]
	Traits  *arena.Arena[TraitDecl, TraitDecl]
	Aliases *arena.Arena[TypeAliasDecl, TypeAliasDecl]
	Impls   *arena.Arena[ImplDecl, ImplDecl]

	funcByName   map[string]FuncIdx
	structByName map[string]StructIdx
	enumByName   map[string]EnumIdx
	traitByName  map[string]TraitIdx
	aliasByName  map[string]AliasIdx
}

// NewGraph returns an empty Graph ready to receive declarations.
func NewGraph() *Graph {
	return &Graph{
		Funcs:   arena.New[FuncDecl, FuncDecl](),
		Structs: arena.New[StructDecl, StructDecl](),
		Enums:   arena.New[EnumDecl, EnumDecl](),
		Traits:  arena.New[TraitDecl, TraitDecl](),
		Aliases: arena.New[TypeAliasDecl, TypeAliasDecl](),
		Impls:   arena.New[ImplDecl, ImplDecl](),

		funcByName:   make(map[string]FuncIdx),
		structByName: make(map[string]StructIdx),
		enumByName:   make(map[string]EnumIdx),
		traitByName:  make(map[string]TraitIdx),
		aliasByName:  make(map[string]AliasIdx),
	}
}

// AddFunc pushes d and registers it by name for local lookup. A second
// declaration with the same name is a distinct arena entry: overload
// resolution (spec section 4.4) is responsible for choosing among
// same-named functions, so the name table here records only the most
// recently pushed one; callers needing every overload should keep
// their own slice keyed by name while resolving a module.
func (g *Graph) AddFunc(d FuncDecl) FuncIdx {
	ix := g.Funcs.Push(d)
	g.funcByName[d.Name] = ix
	return ix
}

func (g *Graph) AddStruct(d StructDecl) StructIdx {
	ix := g.Structs.Push(d)
	g.structByName[d.Name] = ix
	return ix
}

func (g *Graph) AddEnum(d EnumDecl) EnumIdx {
	ix := g.Enums.Push(d)
	g.enumByName[d.Name] = ix
	return ix
}

func (g *Graph) AddTrait(d TraitDecl) TraitIdx {
	ix := g.Traits.Push(d)
	g.traitByName[d.Name] = ix
	return ix
}

func (g *Graph) AddAlias(d TypeAliasDecl) AliasIdx {
	ix := g.Aliases.Push(d)
	g.aliasByName[d.Name] = ix
	return ix
}

func (g *Graph) AddImpl(d ImplDecl) ImplIdx {
	return g.Impls.Push(d)
}

// LookupFunc returns the most recently registered FuncDecl named name,
// or the zero Idx (invalid) if none is registered.
func (g *Graph) LookupFunc(name string) FuncIdx { return g.funcByName[name] }
func (g *Graph) LookupStruct(name string) StructIdx { return g.structByName[name] }
func (g *Graph) LookupEnum(name string) EnumIdx { return g.enumByName[name] }
func (g *Graph) LookupTrait(name string) TraitIdx { return g.traitByName[name] }
func (g *Graph) LookupAlias(name string) AliasIdx { return g.aliasByName[name] }

// TypeString renders t using g to resolve reference names, unlike
// Type.String() which has no Graph to consult and falls back to a
// generic "<kind>#ref" form for EnumRef/StructureRef/TypeAliasRef/
// TraitRef.
func (g *Graph) TypeString(t Type) string {
	switch t := t.(type) {
	case EnumRef:
		return g.Enums.Get(t.Ref).Name
	case StructureRef:
		return withArgs(g, g.Structs.Get(t.Ref).Name, t.Args)
	case TypeAliasRef:
		return withArgs(g, g.Aliases.Get(t.Ref).Name, t.Args)
	case TraitRef:
		return withArgs(g, g.Traits.Get(t.Ref).Name, t.Args)
	case Pointer:
		return "*" + g.TypeString(t.Elem)
	case FixedArray:
		return "[" + strconv.FormatInt(t.Size, 10) + "]" + g.TypeString(t.Elem)
	default:
		return t.String()
	}
}

func withArgs(g *Graph, name string, args []Type) string {
	if len(args) == 0 {
		return name
	}
	s := name + "<"
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += g.TypeString(a)
	}
	return s + ">"
}
