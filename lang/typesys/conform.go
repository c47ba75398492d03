package typesys

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// Mode selects which conform rule set applies (spec section 4.4):
// Explicit casts permit the widest set of conversions, ParameterPassing
// governs call-site argument conversion, and Validate only checks that
// a value already has (or trivially is) the target type, used by the
// borrow checker and IR lowering to re-confirm a conform decision made
// earlier without redoing the full rule search.
type Mode int

const (
	Explicit Mode = iota
	ParameterPassing
	Validate
)

// ErrNoConform is returned by Conform when no rule permits from to
// reach to under mode.
var ErrNoConform = errors.New("typesys: no conversion")

// Conform reports whether a value of type from may be used where to is
// expected under mode, and if so, returns the resulting type (from,
// widened/extended as needed; never narrower than to).
func Conform(target targetcfg.Target, from, to asg.Type, mode Mode) (asg.Type, error) {
	if from.String() == to.String() {
		return to, nil
	}

	switch from := from.(type) {
	case asg.IntegerLiteral:
		if fitsInteger(target, from.Value, from.Value, to) {
			return to, nil
		}
		if f, ok := to.(asg.Floating); ok {
			return f, nil
		}
	case asg.IntegerLiteralInRange:
		if fitsInteger(target, from.Min, from.Max, to) {
			return to, nil
		}
	case asg.FloatLiteral:
		if f, ok := to.(asg.Floating); ok {
			return f, nil
		}
	}

	if isIntegerLike(from) && isIntegerLike(to) && mode != Validate {
		fb, fs := integerShape(target, from)
		tb, ts := integerShape(target, to)
		switch {
		case fb < tb:
			return to, nil // widening: zero/sign-extend
		case fb == tb && fs == ts:
			return to, nil
		case fb == tb && !fs && ts:
			return to, nil // same-width unsigned->signed zero-extend equivalent, spec 4.4
		}
	}

	if isFloating(from) {
		if t, ok := to.(asg.Floating); ok && t.Bits >= from.(asg.Floating).Bits {
			return to, nil // float extend only, never narrows implicitly
		}
	}

	if mode == Explicit {
		if _, ok := from.(asg.Boolean); ok && isIntegerLike(to) {
			return to, nil
		}
		if isIntegerLike(from) {
			if _, ok := to.(asg.Boolean); ok {
				return to, nil
			}
		}
		if isIntegerLike(from) || isFloating(from) {
			if isIntegerLike(to) || isFloating(to) {
				return to, nil
			}
		}
	}

	if p, ok := from.(asg.Pointer); ok {
		if tp, ok := to.(asg.Pointer); ok {
			if elem, err := Conform(target, p.Elem, tp.Elem, mode); err == nil {
				_ = elem
				return to, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrNoConform, from.String(), to.String())
}

func fitsInteger(target targetcfg.Target, min, max int64, to asg.Type) bool {
	if !isIntegerLike(to) {
		return false
	}
	bits, signed := integerShape(target, to)
	lo, hi := rangeFor(bits, signed)
	return min >= lo && max <= hi
}

func rangeFor(bits int, signed bool) (int64, int64) {
	if !signed {
		return 0, (int64(1) << uint(bits)) - 1
	}
	return -(int64(1) << uint(bits-1)), (int64(1) << uint(bits-1)) - 1
}

func integerShape(target targetcfg.Target, t asg.Type) (bits int, signed bool) {
	switch t := t.(type) {
	case asg.Integer:
		return t.Bits, t.Signed
	case asg.SizeInteger:
		return target.PointerWidth, t.Signed
	case asg.CInteger:
		return ciBits(target, t.Rank), t.Signed == nil || *t.Signed
	case asg.IntegerLiteral:
		return bitsForLiteral(t.Value)
	case asg.IntegerLiteralInRange:
		lb, ls := bitsForLiteral(t.Min)
		hb, hs := bitsForLiteral(t.Max)
		if hb > lb {
			return hb, hs
		}
		return lb, ls
	default:
		return 0, false
	}
}
