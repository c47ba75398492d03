package abi

import "strconv"

// CoerceType is the small, backend-agnostic vocabulary a Direct/Extend/
// CoerceAndExpand ABIParam's CoerceTo describes a register-shaped value
// as. The original implementation names this a `coerce_to_type:
// Option<LLVMTypeRef>`, an actual LLVM IR type handle; lang/abi has no
// LLVM-C binding to hand back (spec section 6 treats IR emission as a
// downstream consumer this core doesn't implement), so CoerceType is
// the same small closed set of shapes an LLVM-C type would need to
// express one of these classifications, without a dependency on LLVM
// itself.
type CoerceType struct {
	Kind   CoerceKind
	Bits   int          // CoerceInt / CoerceFloat
	Elem   *CoerceType  // CoerceArray
	Count  int          // CoerceArray
	Fields []CoerceType // CoerceStruct
}

// CoerceKind distinguishes CoerceType's variants.
type CoerceKind int

const (
	CoerceInt CoerceKind = iota
	CoerceFloat
	CoercePointer
	CoerceArray
	CoerceStruct
)

func Int(bits int) CoerceType       { return CoerceType{Kind: CoerceInt, Bits: bits} }
func Float(bits int) CoerceType     { return CoerceType{Kind: CoerceFloat, Bits: bits} }
func Pointer() CoerceType           { return CoerceType{Kind: CoercePointer} }
func Array(elem CoerceType, n int) CoerceType {
	return CoerceType{Kind: CoerceArray, Elem: &elem, Count: n}
}
func Struct(fields ...CoerceType) CoerceType {
	return CoerceType{Kind: CoerceStruct, Fields: fields}
}

// I8Array is the padding pseudo-field CoerceAndExpand's struct inserts
// between real fields, the same `[N x i8]` array the original
// implementation's is_padding_for_coerce_expand recognizes by its
// element type.
func I8Array(n int) CoerceType { return Array(Int(8), n) }

func (c CoerceType) String() string {
	switch c.Kind {
	case CoerceInt:
		return "i" + strconv.Itoa(c.Bits)
	case CoerceFloat:
		return "f" + strconv.Itoa(c.Bits)
	case CoercePointer:
		return "ptr"
	case CoerceArray:
		return "[" + strconv.Itoa(c.Count) + " x " + c.Elem.String() + "]"
	case CoerceStruct:
		s := "{"
		for i, f := range c.Fields {
			if i > 0 {
				s += ", "
			}
			s += f.String()
		}
		return s + "}"
	default:
		return "<invalid coerce type>"
	}
}

// IsPaddingField reports whether c is an i8 array, the padding marker
// CoerceAndExpand's field-by-field comparison against the unpadded
// type skips.
func (c CoerceType) IsPaddingField() bool {
	return c.Kind == CoerceArray && c.Elem != nil && c.Elem.Kind == CoerceInt && c.Elem.Bits == 8
}

// smallestIntCovering returns the smallest power-of-two-width integer
// coercion that covers n bytes, the AArch64 "aggregates of size <= 8
// bytes coerce to the smallest containing i8/i16/i32/i64" rule (spec
// section 4.7).
func smallestIntCovering(n int64) CoerceType {
	switch {
	case n <= 1:
		return Int(8)
	case n <= 2:
		return Int(16)
	case n <= 4:
		return Int(32)
	default:
		return Int(64)
	}
}
