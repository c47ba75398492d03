// Package typesys implements the static type system (spec section
// 4.4/section 3): the numeric-literal lattice, CInteger loose integers,
// type unification (join/phi inputs), implicit conversion (conform),
// and polymorph substitution (PolyCatalog/PolyRecipe) used by trait/impl
// matching and overload resolution.
//
// Named distinctly from lang/types, which is a different concern
// entirely: runtime interpreter values, not static types.
package typesys

import (
	"errors"
	"strings"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/asg"
)

// ErrNoUnifier is returned by Unify when no rule in spec section 4.4's
// table applies to the given incoming types.
var ErrNoUnifier = errors.New("typesys: no unifier for incoming types")

// Unify computes the common type of ts (spec section 4.4: "used for
// conditional expression joins, phi inputs, common types"). Leading
// pointer indirections are stripped equally from every input (down to
// the shallowest input's depth) before the table below applies, and
// re-wrapped around the result afterward; Never inputs are dropped
// first since Never is absorbed by unification (spec section 3).
func Unify(target targetcfg.Target, ts ...asg.Type) (asg.Type, error) {
	ts = dropNever(ts)
	if len(ts) == 0 {
		return asg.Never{}, nil
	}

	depth := pointerDepth(ts[0])
	for _, t := range ts[1:] {
		if d := pointerDepth(t); d < depth {
			depth = d
		}
	}
	bases := make([]asg.Type, len(ts))
	for i, t := range ts {
		bases[i] = stripPointers(t, depth)
	}

	result, err := unifyBase(target, bases)
	if err != nil {
		return nil, err
	}
	for i := 0; i < depth; i++ {
		result = asg.Pointer{Elem: result}
	}
	return result, nil
}

func dropNever(ts []asg.Type) []asg.Type {
	out := ts[:0:0]
	for _, t := range ts {
		if _, ok := t.(asg.Never); ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func pointerDepth(t asg.Type) int {
	n := 0
	for {
		p, ok := t.(asg.Pointer)
		if !ok {
			return n
		}
		n++
		t = p.Elem
	}
}

func stripPointers(t asg.Type, n int) asg.Type {
	for i := 0; i < n; i++ {
		t = t.(asg.Pointer).Elem
	}
	return t
}

func unifyBase(target targetcfg.Target, ts []asg.Type) (asg.Type, error) {
	if allIdentical(ts) {
		return ts[0], nil
	}

	if allIntegerLiteralLike(ts) {
		min, max := literalRange(ts)
		if min == max {
			return asg.IntegerLiteral{Value: min}, nil
		}
		return asg.IntegerLiteralInRange{Min: min, Max: max}, nil
	}

	if allFloatLiteral(ts) {
		return asg.Floating{Bits: ast.Bits64}, nil
	}

	if isMixOf(ts, isIntegerLiteralLike, isFloatLiteral) {
		return asg.Floating{Bits: ast.Bits64}, nil
	}

	if allIntegerLike(ts) {
		return unifyIntegerLike(target, ts), nil
	}

	if isMixOf(ts, isF32, isFloatLiteral) {
		return asg.Floating{Bits: ast.Bits32}, nil
	}

	if allOf(ts, func(t asg.Type) bool {
		return isFloating(t) || isFloatLiteral(t) || isIntegerLiteralLike(t)
	}) {
		return asg.Floating{Bits: ast.Bits64}, nil
	}

	return nil, ErrNoUnifier
}

func allIdentical(ts []asg.Type) bool {
	first := ts[0].String()
	for _, t := range ts[1:] {
		if t.String() != first {
			return false
		}
	}
	return true
}

func isIntegerLiteralLike(t asg.Type) bool {
	switch t.(type) {
	case asg.IntegerLiteral, asg.IntegerLiteralInRange:
		return true
	}
	return false
}

func isFloatLiteral(t asg.Type) bool {
	_, ok := t.(asg.FloatLiteral)
	return ok
}

func isF32(t asg.Type) bool {
	f, ok := t.(asg.Floating)
	return ok && f.Bits == ast.Bits32
}

func isFloating(t asg.Type) bool {
	_, ok := t.(asg.Floating)
	return ok
}

func isIntegerLike(t asg.Type) bool {
	switch t.(type) {
	case asg.Integer, asg.CInteger, asg.SizeInteger, asg.IntegerLiteral, asg.IntegerLiteralInRange:
		return true
	}
	return false
}

func allOf(ts []asg.Type, pred func(asg.Type) bool) bool {
	for _, t := range ts {
		if !pred(t) {
			return false
		}
	}
	return true
}

func allIntegerLiteralLike(ts []asg.Type) bool { return allOf(ts, isIntegerLiteralLike) }
func allFloatLiteral(ts []asg.Type) bool       { return allOf(ts, isFloatLiteral) }
func allIntegerLike(ts []asg.Type) bool        { return allOf(ts, isIntegerLike) }

// isMixOf reports whether every t in ts matches a or b, and at least
// one matches each (a true "mix", not all-a or all-b, which earlier,
// more specific rules in unifyBase already handle).
func isMixOf(ts []asg.Type, a, b func(asg.Type) bool) bool {
	var sawA, sawB bool
	for _, t := range ts {
		switch {
		case a(t):
			sawA = true
		case b(t):
			sawB = true
		default:
			return false
		}
	}
	return sawA && sawB
}

func literalRange(ts []asg.Type) (min, max int64) {
	first := true
	for _, t := range ts {
		var lo, hi int64
		switch t := t.(type) {
		case asg.IntegerLiteral:
			lo, hi = t.Value, t.Value
		case asg.IntegerLiteralInRange:
			lo, hi = t.Min, t.Max
		}
		if first {
			min, max = lo, hi
			first = false
			continue
		}
		if lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max
}

// IntegerProperties is the folded result spec section 4.4 computes
// while unifying a set of integer-like types.
type IntegerProperties struct {
	LargestLooseUsed *ast.CIntegerRank
	RequiredBits     int
	RequiredSign     bool
	IsConcrete       bool
}

func unifyIntegerLike(target targetcfg.Target, ts []asg.Type) asg.Type {
	var props IntegerProperties
	props.IsConcrete = true
	first := true

	for _, t := range ts {
		var bits int
		var signed bool
		var loose *ast.CIntegerRank

		switch t := t.(type) {
		case asg.Integer:
			bits, signed = t.Bits, t.Signed
		case asg.SizeInteger:
			bits, signed = target.PointerWidth, t.Signed
		case asg.CInteger:
			r := t.Rank
			loose = &r
			bits = ciBits(target, r)
			signed = t.Signed == nil || *t.Signed
			props.IsConcrete = false
		case asg.IntegerLiteral:
			bits, signed = bitsForLiteral(t.Value)
		case asg.IntegerLiteralInRange:
			bits, signed = bitsForLiteral(t.Min)
			if hb, hs := bitsForLiteral(t.Max); hb > bits || (hb == bits && hs != signed) {
				bits, signed = hb, hs
			}
		}

		if loose != nil && (props.LargestLooseUsed == nil || *loose > *props.LargestLooseUsed) {
			props.LargestLooseUsed = loose
		}

		if first {
			props.RequiredBits, props.RequiredSign = bits, signed
			first = false
			continue
		}
		props.RequiredBits, props.RequiredSign = foldPair(props.RequiredBits, props.RequiredSign, bits, signed)
	}

	if props.LargestLooseUsed != nil {
		rank := smallestRankFor(target, props.RequiredBits, *props.LargestLooseUsed)
		return asg.CInteger{Rank: rank, Signed: &props.RequiredSign}
	}
	return asg.Integer{Bits: props.RequiredBits, Signed: props.RequiredSign}
}

// foldPair implements spec section 4.4's pairwise width/sign promotion
// rule: equal widths with differing signs widen by one bit signed;
// otherwise the wider of the two wins, gaining one extra signed bit
// only when the wider one is unsigned and the narrower one is signed.
func foldPair(aBits int, aSigned bool, bBits int, bSigned bool) (int, bool) {
	if aBits == bBits && aSigned != bSigned {
		return aBits + 1, true
	}
	if aBits == bBits {
		return aBits, aSigned && bSigned
	}
	if aBits > bBits {
		if !aSigned && bSigned {
			return aBits + 1, true
		}
		return aBits, aSigned
	}
	if !bSigned && aSigned {
		return bBits + 1, true
	}
	return bBits, bSigned
}

func bitsForLiteral(v int64) (int, bool) {
	switch {
	case v >= -128 && v <= 127:
		return 8, v < 0
	case v >= -32768 && v <= 32767:
		return 16, v < 0
	case v >= -2147483648 && v <= 2147483647:
		return 32, v < 0
	default:
		return 64, v < 0
	}
}

func ciBits(target targetcfg.Target, rank ast.CIntegerRank) int {
	return target.CInteger.Bits(rankName(rank))
}

func rankName(r ast.CIntegerRank) string {
	return strings.ReplaceAll(r.String(), " ", "")
}

// smallestRankFor returns the narrowest CIntegerRank at or above floor
// whose target-assumed width covers bits, capped at LongLong (spec
// section 4.4: "the smallest that fits the computed bits under the
// target's CIntegerAssumptions, capped at LongLong").
func smallestRankFor(target targetcfg.Target, bits int, floor ast.CIntegerRank) ast.CIntegerRank {
	for rank := floor; rank <= ast.RankLongLong; rank++ {
		if ciBits(target, rank) >= bits {
			return rank
		}
	}
	return ast.RankLongLong
}
