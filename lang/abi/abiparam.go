package abi

// ParamKind is one of the eight ABI parameter-passing strategies spec
// section 4.7 enumerates. Grounded on
// original_source/src/llvm_backend/abi/abi_type/mod.rs's ABITypeKind
// enum (Direct/Extend/Indirect/IndirectAliased/Ignore/Expand/
// CoerceAndExpand/InAlloca), adapted from a Rust sum type with one
// payload struct per variant to a single flat Go struct (ABIParam)
// whose fields are grouped by which Kind reads them — the same flat,
// doc-commented-by-section idiom lang/compiler's RuntimeType already
// uses for a C-style "tagged struct" instead of a real union.
type ParamKind int

const (
	Direct ParamKind = iota
	Extend
	Indirect
	IndirectAliased
	Ignore
	Expand
	CoerceAndExpand
	InAlloca
)

func (k ParamKind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Extend:
		return "extend"
	case Indirect:
		return "indirect"
	case IndirectAliased:
		return "indirect_aliased"
	case Ignore:
		return "ignore"
	case Expand:
		return "expand"
	case CoerceAndExpand:
		return "coerce_and_expand"
	case InAlloca:
		return "in_alloca"
	default:
		return "invalid_abi_param_kind"
	}
}

// ABIParam is one parameter's (or the return value's) crossing
// strategy, classified per spec section 4.7's table. Only the fields
// relevant to Kind are meaningful; others are left zero.
type ABIParam struct {
	Kind ParamKind

	// Direct, Extend, CoerceAndExpand: the register-shaped value the
	// source type is coerced to before crossing the boundary.
	CoerceTo CoerceType
	// CoerceAndExpand only: the same shape with padding i8-arrays
	// removed, used to match field-by-field against the source
	// aggregate's own (unpadded) layout.
	Unpadded CoerceType

	// Direct: byte offset of this piece within a multi-piece argument
	// (second eightbyte of a SysV pair, say) and whether adjacent
	// scalar fields of the source aggregate may each get their own
	// slot (can_be_flattened) rather than being coerced as one lump.
	Offset         int
	CanBeFlattened bool

	// Extend: true for sign-extension, false for zero-extension of an
	// integer narrower than one register.
	SignExt bool

	// Direct, Extend, Indirect, IndirectAliased, Expand: natural
	// alignment this piece requires, and whether it is passed in a
	// register rather than on the stack (the Win64/SysV "free
	// registers" bookkeeping decides this per call, not per type).
	Align      int
	InRegister bool

	// Indirect: alignment the callee may assume the pointee has
	// (realign requests the caller to over-align a copy first), byval
	// requests the callee treat the pointee as an owned stack copy
	// rather than an alias of the caller's storage, and
	// sret_after_this places this indirect argument after an implicit
	// `this` pointer (Itanium member functions; unused here since this
	// language has no member functions, kept for fidelity with the
	// classification table).
	Byval         bool
	Realign       bool
	SRetAfterThis bool

	// IndirectAliased: which address space the pointee lives in
	// (always 0, the default data address space, absent a language
	// feature that puts arguments in a non-default address space).
	AddressSpace int

	// InAlloca: this argument's field index within the caller-allocated
	// combined struct (Win64 __stdcall-style explicit-stack-frame
	// passing), and whether the callee additionally receives a sret
	// pointer / an extra indirection through that field.
	FieldIndex int
	SRet       bool
	Indirect   bool
}

// NewDirect returns a Direct classification: pass in register(s),
// coerced to coerceTo.
func NewDirect(coerceTo CoerceType) ABIParam {
	return ABIParam{Kind: Direct, CoerceTo: coerceTo, CanBeFlattened: true}
}

// NewDirectInRegister is NewDirect with InRegister forced true, the
// Win64 vectorcall reclassification's own target shape (spec section
// 4.7: "converts qualifying homo-vector aggregates to
// Direct{can_be_flattened=false, in_register=true}").
func NewDirectInRegister(coerceTo CoerceType) ABIParam {
	return ABIParam{Kind: Direct, CoerceTo: coerceTo, InRegister: true}
}

// NewExtend returns an Extend classification widening an integer
// narrower than a register, sign- or zero-extending per signed.
func NewExtend(coerceTo CoerceType, signed bool) ABIParam {
	return ABIParam{Kind: Extend, CoerceTo: coerceTo, SignExt: signed}
}

// NewIgnore returns the Ignore classification for a zero-sized type.
func NewIgnore() ABIParam { return ABIParam{Kind: Ignore} }

// NewIndirect returns an Indirect classification: pass a pointer,
// optionally requesting the callee treat it as an owned stack copy
// (byval).
func NewIndirect(align int, byval bool) ABIParam {
	return ABIParam{Kind: Indirect, Align: align, Byval: byval}
}

// NewIndirectAliased returns an IndirectAliased classification: like
// Indirect but the callee may not assume exclusive ownership of the
// pointee (the caller's own storage may still be read through it).
func NewIndirectAliased(align int) ABIParam {
	return ABIParam{Kind: IndirectAliased, Align: align}
}

// NewExpand returns an Expand classification: flatten every scalar
// field of the source aggregate into its own ABI slot.
func NewExpand() ABIParam { return ABIParam{Kind: Expand} }

// NewCoerceAndExpand returns a CoerceAndExpand classification for a
// mixed register/memory aggregate: coerceTo (with i8-array padding
// fields) is what the backend allocates; unpadded is the same shape
// with padding removed, used to line the real fields up against the
// source aggregate's own layout.
func NewCoerceAndExpand(coerceTo, unpadded CoerceType) ABIParam {
	return ABIParam{Kind: CoerceAndExpand, CoerceTo: coerceTo, Unpadded: unpadded}
}

// NewInAlloca returns an InAlloca classification: this argument lives
// at fieldIndex within a structure the caller allocates in its own
// frame (Win64's __stdcall-with-variable-args convention), rather than
// being pushed or passed in a register at all.
func NewInAlloca(fieldIndex int) ABIParam {
	return ABIParam{Kind: InAlloca, FieldIndex: fieldIndex}
}
