package typesys

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/adeptc/lang/asg"
)

// PolyCatalog maps a generic declaration's type-parameter names to the
// concrete types a particular instantiation substitutes for them (spec
// section 3: polymorph substitution for generic func/struct/trait
// instantiation).
type PolyCatalog map[string]asg.Type

// PolyRecipe is an ordered substitution list, the form a StructureRef's
// or TraitRef's Args carries positionally; Bake pairs it with the
// declaration's TypeParams names to produce a lookup catalog.
type PolyRecipe []asg.Type

// Bake zips names (a generic declaration's TypeParams, in order) with
// r's positional arguments into a PolyCatalog. Extra names beyond
// len(r) are left unbound (useful while a call site's type arguments
// are still being inferred).
func (r PolyRecipe) Bake(names []string) PolyCatalog {
	cat := make(PolyCatalog, len(names))
	for i, name := range names {
		if i < len(r) {
			cat[name] = r[i]
		}
	}
	return cat
}

// Names returns cat's bound type-parameter names in a stable,
// deterministic order, for diagnostics that need to list a catalog's
// contents reproducibly (map iteration order is not, by itself, safe
// to print).
func (cat PolyCatalog) Names() []string {
	names := maps.Keys(cat)
	slices.Sort(names)
	return names
}

// Substitute replaces every Polymorph in t with its binding in cat,
// recursing through composite types; a Polymorph with no binding is
// left as-is (spec section 3: substitution only applies where the
// catalog has a concrete answer, e.g. during partial monomorphization).
func Substitute(t asg.Type, cat PolyCatalog) asg.Type {
	switch t := t.(type) {
	case asg.Polymorph:
		if bound, ok := cat[t.Name]; ok {
			return bound
		}
		return t
	case asg.Pointer:
		return asg.Pointer{Elem: Substitute(t.Elem, cat)}
	case asg.FixedArray:
		return asg.FixedArray{Size: t.Size, Elem: Substitute(t.Elem, cat)}
	case asg.FuncPtr:
		params := make([]asg.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Substitute(p, cat)
		}
		var ret asg.Type
		if t.Return != nil {
			ret = Substitute(t.Return, cat)
		}
		return asg.FuncPtr{Params: params, Variadic: t.Variadic, Return: ret}
	case asg.StructureRef:
		return asg.StructureRef{Ref: t.Ref, Args: substituteAll(t.Args, cat)}
	case asg.TypeAliasRef:
		return asg.TypeAliasRef{Ref: t.Ref, Args: substituteAll(t.Args, cat)}
	case asg.TraitRef:
		return asg.TraitRef{Ref: t.Ref, Args: substituteAll(t.Args, cat)}
	case asg.AnonymousStruct:
		return asg.AnonymousStruct{Fields: substituteFields(t.Fields, cat)}
	case asg.AnonymousUnion:
		return asg.AnonymousUnion{Fields: substituteFields(t.Fields, cat)}
	default:
		return t
	}
}

func substituteAll(ts []asg.Type, cat PolyCatalog) []asg.Type {
	if ts == nil {
		return nil
	}
	out := make([]asg.Type, len(ts))
	for i, t := range ts {
		out[i] = Substitute(t, cat)
	}
	return out
}

func substituteFields(fs []asg.Field, cat PolyCatalog) []asg.Field {
	if fs == nil {
		return nil
	}
	out := make([]asg.Field, len(fs))
	for i, f := range fs {
		out[i] = asg.Field{Name: f.Name, Type: Substitute(f.Type, cat)}
	}
	return out
}
