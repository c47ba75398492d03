package asg

// Privacy is the resolved visibility of a declaration (lang/ast's
// token.PUB/token.PRIV vis token, collapsed to a bool once resolution
// has applied the module's default when a declaration is unmarked).
type Privacy int

const (
	Private Privacy = iota
	Public
)

func (p Privacy) String() string {
	if p == Public {
		return "public"
	}
	return "private"
}

// Param is a single resolved function parameter.
type Param struct {
	Name string
	Type Type
}

// FuncDecl is the resolved form of ast.FuncDecl: a name, its resolved
// signature, and type parameters (still present as Polymorph names
// until a call site bakes a PolyRecipe substituting them). It has no
// body field.
//
// The function's CFG body itself lives outside this package (cfg.Graph,
// which depends on asg for its Type references) to avoid a->cfg->a
// import cycle; lang/cfg's FuncBody associates a FuncDecl's Idx with its
// *cfg.Graph once the body job completes.
type FuncDecl struct {
	Source     Source
	Name       string
	Privacy    Privacy
	TypeParams []string
	Params     []Param
	Variadic   bool
	Return     Type // nil means void
}

// StructDecl is the resolved form of ast.StructDecl.
type StructDecl struct {
	Source     Source
	Name       string
	Privacy    Privacy
	TypeParams []string
	Fields     []Field
}

// EnumDecl is the resolved form of ast.EnumDecl.
type EnumDecl struct {
	Source  Source
	Name    string
	Privacy Privacy
	Backing Type // nil if the default backing integer type applies
	Members []EnumMember
}

// TraitDecl is the resolved form of ast.TraitDecl: a set of method
// signatures every implementor must provide.
type TraitDecl struct {
	Source     Source
	Name       string
	Privacy    Privacy
	TypeParams []string
	Methods    []FuncDecl // signatures only; FuncDecl carries no body
}

// TypeAliasDecl is the resolved form of ast.TypeAliasDecl.
type TypeAliasDecl struct {
	Source     Source
	Name       string
	Privacy    Privacy
	TypeParams []string
	Target     Type
}

// ImplDecl is `ImplDecl{impl, privacy, source}` from spec section 3: an
// `impl T: Trait<Args>` (Trait non-nil) or inherent `impl T { ... }`
// (Trait nil) block, resolved against the concrete For type and, for a
// trait impl, checked per spec section 4.4's impl-matching rules.
type ImplDecl struct {
	Source  Source
	Privacy Privacy
	Trait   *GenericTraitRef // nil for an inherent impl
	For     Type
	Methods []FuncIdx
}
