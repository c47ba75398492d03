// Package asg implements the semantic graph (spec section 3): the
// post-resolution form of a program where every name is an arena index
// instead of a string, declarations carry their monomorphic or
// polymorphic type information, and a Func's body is a CFG rather than a
// list of AST statements.
//
// It generalizes the resolver.Binding/Function shape (a Binding per
// declared name, a Function grouping its Locals/FreeVars) from "one
// flat name table per function" to "one arena per declaration kind,
// referenced by strongly-typed arena.Idx values everywhere a name
// would otherwise appear as a string.
package asg

import (
	"strconv"

	"github.com/mna/adeptc/internal/arena"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

// FuncIdx, StructIdx, etc. are strongly-typed arena indices into
// Graph's declaration arenas (one alias per kind rather than a single
// generic Idx[V], since a generic type alias needs a newer Go version
// than this module targets).
type (
	FuncIdx   = arena.Idx[FuncDecl, FuncDecl]
	StructIdx = arena.Idx[StructDecl, StructDecl]
	EnumIdx   = arena.Idx[EnumDecl, EnumDecl]
	TraitIdx  = arena.Idx[TraitDecl, TraitDecl]
	AliasIdx  = arena.Idx[TypeAliasDecl, TypeAliasDecl]
	ImplIdx   = arena.Idx[ImplDecl, ImplDecl]
)

// Type is the semantic-graph counterpart of ast.Type: the same sum of
// type shapes (spec section 3), but with NamedType resolved down to a
// concrete Enum/Structure/TypeAlias/Trait reference (or left
// Unresolved, a sentinel that must never survive past resolution).
// Every variant implements String() for diagnostics and IR dumps.
type Type interface {
	String() string
	typ()
}

type (
	// Unresolved is the sentinel type of a reference that resolution has
	// not yet settled (spec section 3: "unresolved (sentinel, must never
	// appear after resolution)"). It is a valid intermediate value inside
	// the query engine's Restarting/Running states but an internal-compiler
	// error if still present in a Completed artifact.
	Unresolved struct{}

	// Boolean is `bool`.
	Boolean struct{}

	// Integer is a fixed-width integer, bits ∈ {8,16,32,64}.
	Integer struct {
		Bits   int
		Signed bool
	}

	// CInteger is a C-ABI-compatible integer whose width follows the
	// target's CIntegerAssumptions.
	CInteger struct {
		Rank   ast.CIntegerRank
		Signed *bool // nil means "default sign for this rank"
	}

	// SizeInteger is `usize`/`isize`.
	SizeInteger struct{ Signed bool }

	// IntegerLiteral is the type of a not-yet-conformed integer constant,
	// exact to one value (spec section 3: "IntegerLiteral(big-int)").
	IntegerLiteral struct{ Value int64 }

	// IntegerLiteralInRange is the type of an integer constant expression
	// whose exact value is not yet known but is bounded, e.g. the result
	// of folding across a conditional join of two literals.
	IntegerLiteralInRange struct{ Min, Max int64 }

	// FloatLiteral is the type of a not-yet-conformed floating constant.
	FloatLiteral struct {
		Value     float64
		NaNSafeF64 bool
	}

	// Floating is `f32` or `f64`.
	Floating struct{ Bits ast.FloatBits }

	// Pointer is `*T`.
	Pointer struct{ Elem Type }

	// Void is the `void` type.
	Void struct{}

	// Never is the bottom type of diverging expressions; absorbed by
	// unification (spec section 3).
	Never struct{}

	// Field is a single field of a struct, union, or anonymous aggregate,
	// resolved form of ast.FieldDecl.
	Field struct {
		Name string
		Type Type
	}

	// AnonymousStruct is an inline `struct { ... }` type.
	AnonymousStruct struct{ Fields []Field }

	// AnonymousUnion is an inline `union { ... }` type.
	AnonymousUnion struct{ Fields []Field }

	// EnumMember is a single resolved enum member: name plus its folded
	// constant value.
	EnumMember struct {
		Name  string
		Value int64
	}

	// AnonymousEnum is an inline `enum { ... }` type.
	AnonymousEnum struct {
		Backing Type // nil if the default backing integer type applies
		Members []EnumMember
	}

	// FixedArray is `[N]T`, with Size folded to a concrete length.
	FixedArray struct {
		Size int64
		Elem Type
	}

	// FuncPtr is `fn(T, ...) -> R`, used as a value/field type.
	FuncPtr struct {
		Params   []Type
		Variadic bool
		Return   Type // nil means void
	}

	// EnumRef is a reference to a declared Enum by arena index.
	EnumRef struct{ Ref EnumIdx }

	// StructureRef is a reference to a declared Struct by arena index,
	// with type arguments for generics (empty for a non-generic struct).
	StructureRef struct {
		Ref  StructIdx
		Args []Type
	}

	// TypeAliasRef is a reference to a declared `type` alias by arena
	// index, with type arguments for generics.
	TypeAliasRef struct {
		Ref  AliasIdx
		Args []Type
	}

	// TraitRef is a reference to a declared Trait by arena index, with
	// type arguments for generics. Also usable standalone as the
	// GenericTraitRef{trait, args} spec.md section 3 names for `impl T:
	// Trait<Args>` declarations.
	TraitRef struct {
		Ref  TraitIdx
		Args []Type
	}

	// Polymorph is a `$name` reference to a polymorphic type parameter not
	// yet substituted by a PolyCatalog/PolyRecipe.
	Polymorph struct{ Name string }
)

func (Unresolved) typ()            {}
func (Boolean) typ()               {}
func (Integer) typ()               {}
func (CInteger) typ()               {}
func (SizeInteger) typ()            {}
func (IntegerLiteral) typ()         {}
func (IntegerLiteralInRange) typ()  {}
func (FloatLiteral) typ()           {}
func (Floating) typ()               {}
func (Pointer) typ()                {}
func (Void) typ()                   {}
func (Never) typ()                  {}
func (AnonymousStruct) typ()        {}
func (AnonymousUnion) typ()         {}
func (AnonymousEnum) typ()          {}
func (FixedArray) typ()             {}
func (FuncPtr) typ()                {}
func (EnumRef) typ()                {}
func (StructureRef) typ()           {}
func (TypeAliasRef) typ()           {}
func (TraitRef) typ()               {}
func (Polymorph) typ()              {}

func (Unresolved) String() string { return "<unresolved>" }
func (Boolean) String() string    { return "bool" }

func (t Integer) String() string {
	sign := "i"
	if !t.Signed {
		sign = "u"
	}
	return sign + strconv.Itoa(t.Bits)
}

func (t CInteger) String() string {
	lbl := t.Rank.String()
	if t.Signed != nil {
		if *t.Signed {
			lbl = "signed " + lbl
		} else {
			lbl = "unsigned " + lbl
		}
	}
	return lbl
}

func (t SizeInteger) String() string {
	if t.Signed {
		return "isize"
	}
	return "usize"
}

func (t IntegerLiteral) String() string { return "literal(" + strconv.FormatInt(t.Value, 10) + ")" }

func (t IntegerLiteralInRange) String() string {
	return "literal[" + strconv.FormatInt(t.Min, 10) + ".." + strconv.FormatInt(t.Max, 10) + "]"
}

func (t FloatLiteral) String() string { return "float_literal" }

func (t Floating) String() string {
	if t.Bits == ast.Bits32 {
		return "f32"
	}
	return "f64"
}

func (t Pointer) String() string { return "*" + t.Elem.String() }
func (Void) String() string      { return "void" }
func (Never) String() string     { return "never" }

func (t AnonymousStruct) String() string { return "struct{...}" }
func (t AnonymousUnion) String() string  { return "union{...}" }
func (t AnonymousEnum) String() string   { return "enum{...}" }

func (t FixedArray) String() string {
	return "[" + strconv.FormatInt(t.Size, 10) + "]" + t.Elem.String()
}

func (t FuncPtr) String() string { return "fn(...)" }

// Those four reference kinds print as their declared name; String()
// itself has no access to the Graph that owns the arena, so it falls
// back to the generic form and callers that need the name use
// Graph.TypeString instead (graph.go).
func (t EnumRef) String() string      { return "enum#ref" }
func (t StructureRef) String() string { return "struct#ref" }
func (t TypeAliasRef) String() string { return "alias#ref" }
func (t TraitRef) String() string     { return "trait#ref" }
func (t Polymorph) String() string    { return "$" + t.Name }

// State classifies a Type per spec section 3: unresolved (the sentinel
// must never appear past resolution), polymorphic (contains a
// Polymorph anywhere in its structure), or monomorphic (neither).
type State int

const (
	Monomorphic State = iota
	Polymorphic
	UnresolvedState
)

func (s State) String() string {
	switch s {
	case Monomorphic:
		return "monomorphic"
	case Polymorphic:
		return "polymorphic"
	case UnresolvedState:
		return "unresolved"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Classify walks t's structure and reports its State.
func Classify(t Type) State {
	switch t := t.(type) {
	case Unresolved:
		return UnresolvedState
	case Polymorph:
		return Polymorphic
	case Pointer:
		return Classify(t.Elem)
	case FixedArray:
		return Classify(t.Elem)
	case FuncPtr:
		return classifyAll(append(append([]Type{}, t.Params...), orNil(t.Return)...))
	case StructureRef:
		return classifyAll(t.Args)
	case TypeAliasRef:
		return classifyAll(t.Args)
	case TraitRef:
		return classifyAll(t.Args)
	case AnonymousStruct:
		return classifyFields(t.Fields)
	case AnonymousUnion:
		return classifyFields(t.Fields)
	default:
		return Monomorphic
	}
}

func orNil(t Type) []Type {
	if t == nil {
		return nil
	}
	return []Type{t}
}

func classifyAll(ts []Type) State {
	worst := Monomorphic
	for _, t := range ts {
		switch Classify(t) {
		case UnresolvedState:
			return UnresolvedState
		case Polymorphic:
			worst = Polymorphic
		}
	}
	return worst
}

func classifyFields(fs []Field) State {
	worst := Monomorphic
	for _, f := range fs {
		switch Classify(f.Type) {
		case UnresolvedState:
			return UnresolvedState
		case Polymorphic:
			worst = Polymorphic
		}
	}
	return worst
}

// GenericTraitRef is the `trait, args` pair spec section 3 names for an
// `impl T: Trait<Args>` declaration's trait half; TraitRef already
// carries the same shape and is reused here under that name.
type GenericTraitRef = TraitRef

// Source is carried by every declaration, mirroring ast's per-node
// Source (spec section 3: "Every token, AST node, and diagnostic
// carries a Source").
type Source = token.Source
