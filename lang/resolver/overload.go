package resolver

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/typesys"
)

// Candidate is one overload resolution candidate: a declared function
// plus its own index, so a successful match can report back which
// function to call.
type Candidate struct {
	Func asg.FuncIdx
	Decl asg.FuncDecl
}

// Callee is the outcome of a successful overload resolution (spec
// section 4.4): which function, and the polymorph substitutions baked
// from the matched call site.
type Callee struct {
	Func   asg.FuncIdx
	Recipe typesys.PolyRecipe
}

var (
	// ErrNoMatchingCandidate is returned when no bucket contains a
	// candidate whose signature accepts the call.
	ErrNoMatchingCandidate = errors.New("resolver: no matching overload")

	// ErrAmbiguousCall is returned when more than one candidate in the
	// same bucket accepts the call (spec section 4.4: resolution does not
	// fall through to a later bucket once a bucket has any fit).
	ErrAmbiguousCall = errors.New("resolver: ambiguous call")
)

// NearMatch is one candidate a failed or ambiguous ResolveCall
// considered, carried by NoMatchError/AmbiguousError so a diagnostic
// can report arity alongside name (spec section 7: "overload not found
// with a list of near matches and arities") instead of a bare sentinel.
type NearMatch struct {
	Func     asg.FuncIdx
	Name     string
	Arity    int
	Variadic bool

	// Bound lists, in deterministic order, the type parameters this
	// candidate's structural match managed to bind before the call was
	// deemed ambiguous (empty for a NoMatchError entry, which never got
	// far enough to bind anything).
	Bound []string
}

func (n NearMatch) String() string {
	suffix := ""
	if n.Variadic {
		suffix = "..."
	}
	if len(n.Bound) == 0 {
		return fmt.Sprintf("%s/%d%s", n.Name, n.Arity, suffix)
	}
	return fmt.Sprintf("%s/%d%s<%s>", n.Name, n.Arity, suffix, strings.Join(n.Bound, ", "))
}

// NoMatchError reports that no candidate in any bucket accepted the
// call, together with every candidate considered.
type NoMatchError struct {
	Near []NearMatch
}

func (e *NoMatchError) Error() string {
	names := make([]string, len(e.Near))
	for i, n := range e.Near {
		names[i] = n.String()
	}
	return fmt.Sprintf("%s; near matches: %s", ErrNoMatchingCandidate, strings.Join(names, ", "))
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatchingCandidate }

// AmbiguousError reports that more than one candidate in the same
// bucket tied for the lowest conform cost.
type AmbiguousError struct {
	Candidates []NearMatch
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, n := range e.Candidates {
		names[i] = n.String()
	}
	return fmt.Sprintf("%s: %s", ErrAmbiguousCall, strings.Join(names, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguousCall }

// fit is one candidate that accepted the call, plus its conform cost:
// the bucket-local ranking spec section 7's near-match diagnostics
// need to distinguish "the" match from "a" tied match.
type fit struct {
	near   NearMatch
	callee Callee
	cost   int
}

// ResolveCall runs spec section 4.4's overload resolution steps 2-4
// over buckets already gathered in bucket order (local, remote,
// imported — spec section 4.4 step 1's namespace/import bucketing is
// the caller's job, since it depends on module/import bookkeeping this
// package does not itself model). typeArgs are the call's explicit
// type arguments (G), argTypes the resolved types of its positional
// arguments (A).
//
// Within a bucket, candidates are ranked by arity first (an exact,
// non-variadic arity match always outranks a variadic fallback), then
// by conform cost (how many parameters needed an actual conversion
// rather than matching the argument type outright) — the lowest-cost
// candidate wins; a tie at the lowest cost is ambiguous.
func ResolveCall(target targetcfg.Target, buckets [][]Candidate, typeArgs, argTypes []asg.Type) (Callee, error) {
	var tried []NearMatch
	for _, bucket := range buckets {
		var fits []fit
		for _, cand := range bucket {
			near := NearMatch{Func: cand.Func, Name: cand.Decl.Name, Arity: len(cand.Decl.Params), Variadic: cand.Decl.Variadic}
			tried = append(tried, near)

			callee, cat, cost, ok := matchCandidate(target, cand, typeArgs, argTypes)
			if !ok {
				continue
			}
			near.Bound = cat.Names()
			fits = append(fits, fit{near: near, callee: callee, cost: cost})
		}
		if len(fits) == 0 {
			continue
		}

		costs := make([]int, len(fits))
		for i, f := range fits {
			costs[i] = f.cost
		}
		sortedCosts := append([]int(nil), costs...)
		slices.Sort(sortedCosts)
		best := sortedCosts[0]

		var winners []fit
		for _, f := range fits {
			if f.cost == best {
				winners = append(winners, f)
			}
		}
		if len(winners) == 1 {
			return winners[0].callee, nil
		}
		candidates := make([]NearMatch, len(winners))
		for i, w := range winners {
			candidates[i] = w.near
		}
		return Callee{}, &AmbiguousError{Candidates: candidates}
	}
	return Callee{}, &NoMatchError{Near: tried}
}

// candidateArityCost is the weight an arity mismatch carries relative
// to a per-parameter conform cost: large enough that any exact-arity
// (non-variadic) candidate always outranks any variadic one, so arity
// is compared before conform cost ever breaks a tie.
const candidateArityCost = 1 << 16

func matchCandidate(target targetcfg.Target, cand Candidate, typeArgs, argTypes []asg.Type) (Callee, typesys.PolyCatalog, int, bool) {
	if len(typeArgs) > len(cand.Decl.TypeParams) {
		return Callee{}, nil, 0, false
	}

	catalog := make(typesys.PolyCatalog, len(cand.Decl.TypeParams))
	for i, t := range typeArgs {
		catalog[cand.Decl.TypeParams[i]] = t
	}

	if cand.Decl.Variadic {
		if len(argTypes) < len(cand.Decl.Params) {
			return Callee{}, nil, 0, false
		}
	} else if len(argTypes) != len(cand.Decl.Params) {
		return Callee{}, nil, 0, false
	}

	cost := 0
	if cand.Decl.Variadic {
		cost += candidateArityCost
	}

	for i, p := range cand.Decl.Params {
		paramType := typesys.Substitute(p.Type, catalog)
		if asg.Classify(paramType) == asg.Polymorphic {
			defaulted := defaultizeLiteral(argTypes[i])
			if !matchStructural(defaulted, paramType, catalog) {
				return Callee{}, nil, 0, false
			}
			cost++
			continue
		}
		if argTypes[i].String() != paramType.String() {
			if _, err := typesys.Conform(target, argTypes[i], paramType, typesys.ParameterPassing); err != nil {
				return Callee{}, nil, 0, false
			}
			cost++
		}
	}

	recipe := make(typesys.PolyRecipe, len(cand.Decl.TypeParams))
	for i, name := range cand.Decl.TypeParams {
		recipe[i] = catalog[name]
	}
	return Callee{Func: cand.Func, Recipe: recipe}, catalog, cost, true
}

// defaultizeLiteral resolves a not-yet-conformed literal type to the
// concrete type it would default to absent any other context (spec
// section 4.4 step 3: "conform A[i] to its default"), so a polymorph
// match has a concrete type to bind instead of an open-ended literal
// range.
func defaultizeLiteral(t asg.Type) asg.Type {
	switch t.(type) {
	case asg.IntegerLiteral, asg.IntegerLiteralInRange:
		return asg.Integer{Bits: 32, Signed: true}
	case asg.FloatLiteral:
		return asg.Floating{Bits: 64}
	default:
		return t
	}
}

// matchStructural descends value and pattern in lockstep, binding any
// Polymorph found in pattern to the corresponding piece of value in
// cat (or checking it against an existing binding), per spec section
// 4.4's "structural recurse" rule for polymorphs appearing anywhere
// inside a parameter type (pointer, fixed-array, funcptr, structure,
// trait, type-alias).
func matchStructural(value, pattern asg.Type, cat typesys.PolyCatalog) bool {
	if poly, ok := pattern.(asg.Polymorph); ok {
		if bound, ok := cat[poly.Name]; ok {
			return bound.String() == value.String()
		}
		cat[poly.Name] = value
		return true
	}

	switch pattern := pattern.(type) {
	case asg.Pointer:
		v, ok := value.(asg.Pointer)
		return ok && matchStructural(v.Elem, pattern.Elem, cat)
	case asg.FixedArray:
		v, ok := value.(asg.FixedArray)
		return ok && v.Size == pattern.Size && matchStructural(v.Elem, pattern.Elem, cat)
	case asg.FuncPtr:
		v, ok := value.(asg.FuncPtr)
		if !ok || len(v.Params) != len(pattern.Params) || v.Variadic != pattern.Variadic {
			return false
		}
		for i := range pattern.Params {
			if !matchStructural(v.Params[i], pattern.Params[i], cat) {
				return false
			}
		}
		if (pattern.Return == nil) != (v.Return == nil) {
			return false
		}
		if pattern.Return != nil && !matchStructural(v.Return, pattern.Return, cat) {
			return false
		}
		return true
	case asg.StructureRef:
		v, ok := value.(asg.StructureRef)
		return ok && v.Ref == pattern.Ref && matchArgs(v.Args, pattern.Args, cat)
	case asg.TypeAliasRef:
		v, ok := value.(asg.TypeAliasRef)
		return ok && v.Ref == pattern.Ref && matchArgs(v.Args, pattern.Args, cat)
	case asg.TraitRef:
		v, ok := value.(asg.TraitRef)
		return ok && v.Ref == pattern.Ref && matchArgs(v.Args, pattern.Args, cat)
	default:
		return value.String() == pattern.String()
	}
}

func matchArgs(value, pattern []asg.Type, cat typesys.PolyCatalog) bool {
	if len(value) != len(pattern) {
		return false
	}
	for i := range pattern {
		if !matchStructural(value[i], pattern[i], cat) {
			return false
		}
	}
	return true
}
