package ast

import (
	"fmt"

	"github.com/mna/adeptc/lang/token"
)

type (
	// ParamDecl is a single function parameter.
	ParamDecl struct {
		Name *IdentExpr
		Type Type
	}

	// FuncSignature is the part of a function shared between a full
	// definition and a trait method requirement: name, type parameters,
	// value parameters and return type.
	FuncSignature struct {
		Name       *IdentExpr
		TypeParams []*IdentExpr // polymorph names, e.g. `fn get<$T>(...)`
		Params     []*ParamDecl
		Variadic   bool
		Return     Type // nil means void
	}

	// FuncDecl is a top-level (or impl-member) function declaration. Body is
	// nil for a trait method requirement or an external (no-body) function.
	FuncDecl struct {
		Start token.Source
		Vis   token.Token // PUB, PRIV, or ILLEGAL if unspecified
		Sig   *FuncSignature
		Body  *Block
		End   token.Source
	}

	// StructDecl is `struct Name<$T> { field: T, ... }`.
	StructDecl struct {
		Start      token.Source
		Vis        token.Token
		Name       *IdentExpr
		TypeParams []*IdentExpr
		Fields     []*FieldDecl
		End        token.Source
	}

	// EnumDecl is `enum Name { A, B = 2, ... }`, optionally with an explicit
	// backing integer type.
	EnumDecl struct {
		Start   token.Source
		Vis     token.Token
		Name    *IdentExpr
		Backing Type // nil means default backing type
		Members []*EnumMemberDecl
		End     token.Source
	}

	// TraitDecl is `trait Name<$T> { fn method(...) -> R; ... }`: a set of
	// method requirements with no bodies.
	TraitDecl struct {
		Start      token.Source
		Vis        token.Token
		Name       *IdentExpr
		TypeParams []*IdentExpr
		Methods    []*FuncSignature
		End        token.Source
	}

	// ImplDecl is `impl Trait<Args> for Type { ... }` (trait implementation)
	// or `impl Type { ... }` (inherent impl, Trait is nil).
	ImplDecl struct {
		Start      token.Source
		TypeParams []*IdentExpr
		Trait      *NamedType // nil for an inherent impl
		For        Type
		Methods    []*FuncDecl
		End        token.Source
	}

	// TypeAliasDecl is `type Name<$T> = Target;`.
	TypeAliasDecl struct {
		Start      token.Source
		Vis        token.Token
		Name       *IdentExpr
		TypeParams []*IdentExpr
		Target     Type
		End        token.Source
	}

	// ImportDecl is `import name;`, bringing a namespace into scope for
	// remote (namespace-qualified) overload resolution.
	ImportDecl struct {
		Start token.Source
		Name  *IdentExpr
		End   token.Source
	}

	// BadDecl is a declaration that failed to parse.
	BadDecl struct {
		Start, End token.Source
	}
)

func (n *ImportDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "import "+n.Name.Name, nil)
}
func (n *ImportDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *ImportDecl) Walk(v Visitor)                  { Walk(v, n.Name) }
func (n *ImportDecl) decl()                           {}

func (n *FuncDecl) Format(f fmt.State, verb rune) {
	lbl := "fn " + n.Sig.Name.Name
	if n.Body == nil {
		lbl += " (no body)"
	}
	format(f, verb, n, lbl, map[string]int{"params": len(n.Sig.Params)})
}
func (n *FuncDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *FuncDecl) Walk(v Visitor) {
	Walk(v, n.Sig.Name)
	for _, p := range n.Sig.Params {
		Walk(v, p.Name)
		Walk(v, p.Type)
	}
	if n.Sig.Return != nil {
		Walk(v, n.Sig.Return)
	}
	if n.Body != nil {
		Walk(v, n.Body)
	}
}
func (n *FuncDecl) decl() {}

func (n *StructDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "struct "+n.Name.Name, map[string]int{"fields": len(n.Fields)})
}
func (n *StructDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *StructDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, fd := range n.Fields {
		Walk(v, fd.Name)
		Walk(v, fd.Type)
	}
}
func (n *StructDecl) decl() {}

func (n *EnumDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "enum "+n.Name.Name, map[string]int{"members": len(n.Members)})
}
func (n *EnumDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *EnumDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Backing != nil {
		Walk(v, n.Backing)
	}
	for _, m := range n.Members {
		Walk(v, m.Name)
		if m.Value != nil {
			Walk(v, m.Value)
		}
	}
}
func (n *EnumDecl) decl() {}

func (n *TraitDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "trait "+n.Name.Name, map[string]int{"methods": len(n.Methods)})
}
func (n *TraitDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *TraitDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, m := range n.Methods {
		Walk(v, m.Name)
		for _, p := range m.Params {
			Walk(v, p.Name)
			Walk(v, p.Type)
		}
		if m.Return != nil {
			Walk(v, m.Return)
		}
	}
}
func (n *TraitDecl) decl() {}

func (n *ImplDecl) Format(f fmt.State, verb rune) {
	lbl := "impl"
	if n.Trait != nil {
		lbl = "impl " + n.Trait.Name.Name + " for"
	}
	format(f, verb, n, lbl, map[string]int{"methods": len(n.Methods)})
}
func (n *ImplDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *ImplDecl) Walk(v Visitor) {
	if n.Trait != nil {
		Walk(v, n.Trait)
	}
	Walk(v, n.For)
	for _, m := range n.Methods {
		Walk(v, m)
	}
}
func (n *ImplDecl) decl() {}

func (n *TypeAliasDecl) Format(f fmt.State, verb rune) {
	format(f, verb, n, "type "+n.Name.Name, nil)
}
func (n *TypeAliasDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *TypeAliasDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	Walk(v, n.Target)
}
func (n *TypeAliasDecl) decl() {}

func (n *BadDecl) Format(f fmt.State, verb rune)   { format(f, verb, n, "!bad decl!", nil) }
func (n *BadDecl) Span() (start, end token.Source) { return n.Start, n.End }
func (n *BadDecl) Walk(v Visitor)                  {}
func (n *BadDecl) decl()                            {}
