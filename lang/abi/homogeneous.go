package abi

import (
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// homogeneousAggregate reports whether t is built entirely from one
// repeated scalar base type (spec section 4.7's "homogeneous
// aggregate", the shared condition AArch64's HFA/HVA rule and Win64's
// vectorcall reclassification both gate on), and if so returns that
// base type's bit width, whether it's floating, and how many times it
// repeats. softFloat excludes asg.Floating as a valid base type (spec
// section 4.7: "Under AapcsSoft, FP is not a homogeneous-aggregate
// base type").
func homogeneousAggregate(g *asg.Graph, t asg.Type, target targetcfg.Target, softFloat bool) (baseBits int, baseFloat bool, count int, ok bool) {
	var baseKind int
	var baseBits int64
	haveBase := false
	n := 0
	var walk func(t asg.Type) bool
	walk = func(t asg.Type) bool {
		if fields, isAgg := structFields(g, t); isAgg {
			if len(fields) == 0 {
				return false
			}
			for _, f := range fields {
				if !walk(f) {
					return false
				}
			}
			return true
		}
		if fa, isArr := t.(asg.FixedArray); isArr {
			if fa.Size == 0 {
				return false
			}
			for i := int64(0); i < fa.Size; i++ {
				if !walk(fa.Elem) {
					return false
				}
			}
			return true
		}
		// scalar leaf
		if _, isF := t.(asg.Floating); isF && softFloat {
			return false
		}
		switch t.(type) {
		case asg.Floating, asg.Integer, asg.CInteger, asg.SizeInteger, asg.Pointer, asg.Boolean:
		default:
			return false
		}
		l, err := SizeAlign(g, t, target)
		if err != nil {
			return false
		}
		kind := kindTag(t)
		if !haveBase {
			baseKind, baseBits, haveBase = kind, l.Size, true
		} else if kind != baseKind || l.Size != baseBits {
			// a homogeneous aggregate's repeated base type must match
			// exactly, not merely share a kind bucket: i64 and i32 are
			// both "integer-like" but are not the same base type.
			return false
		}
		n++
		return true
	}
	if !walk(t) || !haveBase || n == 0 || n > 4 {
		return 0, false, 0, false
	}
	return int(baseBits) * 8, baseKind == 1, n, true
}

func kindTag(t asg.Type) int {
	switch t.(type) {
	case asg.Floating:
		return 1
	case asg.Boolean:
		return 2
	default:
		return 3 // every integer-like kind lumped together
	}
}
