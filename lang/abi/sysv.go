package abi

import (
	"golang.org/x/exp/slices"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// sysvClass is one eightbyte's register class, the lattice spec
// section 4.7 classifies a SysV aggregate's first and second eightbyte
// into before merging. X87/X87Up/ComplexX87 (the long-double classes)
// are omitted: this language's type system has no 80-bit extended
// float (asg.Floating is f32/f64 only), so no source type can ever
// produce them; neither sysvMergeClass nor postMerge below has merge
// rules for them.
type sysvClass int

const (
	sysvNoClass sysvClass = iota
	sysvInteger
	sysvSSE
	sysvSSEUp
	sysvMemory
)

func sysvMergeClass(a, b sysvClass) sysvClass {
	switch {
	case a == b:
		return a
	case a == sysvNoClass:
		return b
	case b == sysvNoClass:
		return a
	case a == sysvMemory || b == sysvMemory:
		return sysvMemory
	case a == sysvInteger || b == sysvInteger:
		return sysvInteger
	default:
		return sysvSSE
	}
}

// classifyEightbytes walks t's fields, assigning each scalar leaf's
// class into the [2]sysvClass pair covering bytes [0,8) and [8,16) of
// t, per spec section 4.7: "classify recursively into the pair
// (low,high) of reg classes". Aggregates larger than 16 bytes are
// Memory outright (the homogeneous-SSE-vector exception to that rule
// needs a vector type this language's type system doesn't have).
func classifyEightbytes(g *asg.Graph, t asg.Type, target targetcfg.Target) ([2]sysvClass, int64, error) {
	l, err := SizeAlign(g, t, target)
	if err != nil {
		return [2]sysvClass{}, 0, err
	}
	if l.Size > 16 {
		return [2]sysvClass{sysvMemory, sysvMemory}, l.Size, nil
	}
	classes := [2]sysvClass{sysvNoClass, sysvNoClass}
	if err := classifyInto(g, t, target, 0, &classes); err != nil {
		return [2]sysvClass{}, 0, err
	}
	// an eightbyte touched by nothing (e.g. trailing padding of a
	// <8-byte type) defaults to Integer, the "unused eightbyte of a
	// small aggregate" convention.
	if classes[0] == sysvNoClass {
		classes[0] = sysvInteger
	}
	if l.Size > 8 && classes[1] == sysvNoClass {
		classes[1] = sysvInteger
	}
	return postMerge(classes), l.Size, nil
}

func classifyInto(g *asg.Graph, t asg.Type, target targetcfg.Target, offset int64, classes *[2]sysvClass) error {
	if fields, ok := structFields(g, t); ok {
		var fieldOffset int64
		for _, ft := range fields {
			fl, err := SizeAlign(g, ft, target)
			if err != nil {
				return err
			}
			fieldOffset = alignUp(fieldOffset, fl.Align)
			if err := classifyInto(g, ft, target, offset+fieldOffset, classes); err != nil {
				return err
			}
			fieldOffset += fl.Size
		}
		return nil
	}
	if au, ok := t.(asg.AnonymousUnion); ok {
		// every union member starts at the same offset; merge each
		// member's contribution into the same eightbyte(s) rather than
		// walking them as if they were sequential struct fields.
		for _, f := range au.Fields {
			if err := classifyInto(g, f.Type, target, offset, classes); err != nil {
				return err
			}
		}
		return nil
	}
	if fa, ok := t.(asg.FixedArray); ok {
		el, err := SizeAlign(g, fa.Elem, target)
		if err != nil {
			return err
		}
		for i := int64(0); i < fa.Size; i++ {
			if err := classifyInto(g, fa.Elem, target, offset+i*el.Size, classes); err != nil {
				return err
			}
		}
		return nil
	}

	cls := sysvInteger
	if isFloatingOnly(t) {
		cls = sysvSSE
	}
	l, err := SizeAlign(g, t, target)
	if err != nil {
		return err
	}
	lo := int(offset / 8)
	hi := int((offset + l.Size - 1) / 8)
	for eb := lo; eb <= hi && eb < 2; eb++ {
		classes[eb] = sysvMergeClass(classes[eb], cls)
	}
	return nil
}

// postMerge applies spec section 4.7's post-merge rules: "any half =
// Memory -> both Memory; ... high = SseUp without low = Sse -> high :=
// Sse; aggregate > 16 bytes with low != Sse -> Memory" (the last rule
// is handled by classifyEightbytes's early >16-byte return above since
// no SSE-homogeneous-vector exception can exist here).
func postMerge(c [2]sysvClass) [2]sysvClass {
	if slices.Contains(c[:], sysvMemory) {
		return [2]sysvClass{sysvMemory, sysvMemory}
	}
	if c[1] == sysvSSEUp && c[0] != sysvSSE {
		c[1] = sysvSSE
	}
	return c
}

// sysvState tracks the free integer/SSE registers spec section 4.7
// says to "start with 16 integer / 8 SSE (or 11/6 in reg-call)" and
// deduct from per parameter classified into registers rather than
// memory.
type sysvState struct {
	intFree, sseFree int
}

func newSysVState(regCall bool) *sysvState {
	if regCall {
		return &sysvState{intFree: 11, sseFree: 6}
	}
	return &sysvState{intFree: 16, sseFree: 8}
}

func sysvClassifyParam(g *asg.Graph, t asg.Type, target targetcfg.Target, st *sysvState) (ABIParam, error) {
	if p, ok := itaniumBase(g, t, target); ok {
		return p, nil
	}

	classes, size, err := classifyEightbytes(g, t, target)
	if err != nil {
		return ABIParam{}, err
	}

	if !isAggregate(t) && !isFloatingOnly(t) {
		// scalar: one eightbyte, Direct, possibly Extend for a
		// promotable integer narrower than a register.
		if isPromotableIntegerType(t) {
			if st.intFree < 1 {
				return sysvMemoryFallback(g, t, target, size)
			}
			st.intFree--
			return NewExtend(smallestIntCovering(size), isSignedIntegerType(t)), nil
		}
		if st.intFree < 1 {
			return sysvMemoryFallback(g, t, target, size)
		}
		st.intFree--
		return NewDirect(Int(int(size) * 8)), nil
	}
	if isFloatingOnly(t) {
		if st.sseFree < 1 {
			return sysvMemoryFallback(g, t, target, size)
		}
		st.sseFree--
		return NewDirect(Float(int(size) * 8)), nil
	}

	// aggregate: count the registers each half of the pair needs and
	// deduct only if everything fits; otherwise fall back to memory,
	// which for an aggregate that would fit in 8 bytes anyway gets the
	// spec's documented single-integer-coercion special case.
	needInt, needSSE := 0, 0
	nEightbytes := 1
	if size > 8 {
		nEightbytes = 2
	}
	for i := 0; i < nEightbytes; i++ {
		if classes[i] == sysvSSE {
			needSSE++
		} else {
			needInt++
		}
	}
	if classes[0] == sysvMemory || needInt > st.intFree || needSSE > st.sseFree {
		return sysvMemoryFallback(g, t, target, size)
	}
	st.intFree -= needInt
	st.sseFree -= needSSE

	parts := make([]CoerceType, nEightbytes)
	for i := 0; i < nEightbytes; i++ {
		width := 64
		if size-int64(i)*8 < 8 {
			width = int(size-int64(i)*8) * 8
		}
		if classes[i] == sysvSSE {
			parts[i] = Float(width)
		} else {
			parts[i] = Int(width)
		}
	}
	if nEightbytes == 1 {
		return NewDirect(parts[0]), nil
	}
	return NewDirect(Struct(parts...)), nil
}

// sysvMemoryFallback implements spec section 4.7's "pass Indirect via
// memory (with special 8-byte-aligned, <= 8-byte fallback that coerces
// to a single integer)": an aggregate that doesn't fit in registers
// but is itself no larger than one eightbyte is still coerced to a
// single integer rather than passed as a true pointer-indirect,
// because the caller already laid it out 8-byte-aligned on the stack
// and the callee can read it back as one scalar.
func sysvMemoryFallback(g *asg.Graph, t asg.Type, target targetcfg.Target, size int64) (ABIParam, error) {
	if size <= 8 && isAggregate(t) {
		return NewDirect(smallestIntCovering(size)), nil
	}
	l, err := SizeAlign(g, t, target)
	if err != nil {
		return ABIParam{}, err
	}
	align := l.Align
	if align < 8 {
		align = 8
	}
	return NewIndirect(int(align), true), nil
}

// classifySysV implements the x86-64 SysV ABI (spec section 4.7),
// grounded on
// original_source/src/llvm_backend/abi/arch/x86_64/sysv/mod.rs's own
// eightbyte classify/merge/register-allocation passage, adapted from
// LLVM-C-typed ABIType construction to this package's CoerceType/
// ABIParam vocabulary.
func classifySysV(g *asg.Graph, params []asg.Type, ret asg.Type, target targetcfg.Target, regCall bool) (*ABIFunction, error) {
	st := newSysVState(regCall)

	retParam, err := sysvClassifyParam(g, ret, target, newSysVState(regCall))
	if err != nil {
		return nil, err
	}
	// an Indirect return (sret) consumes the first integer register of
	// the real call, same as every other platform's sret convention.
	if retParam.Kind == Indirect {
		st.intFree--
	}

	out := make([]ABIParam, len(params))
	for i, p := range params {
		classified, err := sysvClassifyParam(g, p, target, st)
		if err != nil {
			return nil, err
		}
		out[i] = classified
	}
	return &ABIFunction{Params: out, Return: retParam}, nil
}
