package ast

import (
	"fmt"
	"strconv"

	"github.com/mna/adeptc/lang/token"
)

// CIntegerRank is the rank of a C-compatible integer type (spec section 3).
type CIntegerRank int

// List of CIntegerRank values, ordered from narrowest to widest per the
// platform's promotion rules.
const (
	RankChar CIntegerRank = iota
	RankShort
	RankInt
	RankLong
	RankLongLong
)

func (r CIntegerRank) String() string {
	switch r {
	case RankChar:
		return "char"
	case RankShort:
		return "short"
	case RankInt:
		return "int"
	case RankLong:
		return "long"
	case RankLongLong:
		return "long long"
	default:
		return "CIntegerRank(" + strconv.Itoa(int(r)) + ")"
	}
}

// FloatBits is the width of a floating-point type.
type FloatBits int

// List of FloatBits values.
const (
	Bits32 FloatBits = 32
	Bits64 FloatBits = 64
)

type (
	// BooleanType is the `bool` type.
	BooleanType struct{ Start token.Source }

	// IntegerType is a fixed-width integer, `i8`/`u8`/`i16`/.../`u64`.
	IntegerType struct {
		Start  token.Source
		Bits   int // 8, 16, 32 or 64
		Signed bool
	}

	// CIntegerType is a C-ABI-compatible integer whose width follows the
	// target's CIntegerAssumptions (`char`, `short`, `int`, `long`, `long
	// long`, with an optional explicit sign).
	CIntegerType struct {
		Start  token.Source
		Rank   CIntegerRank
		Signed *bool // nil means "default sign for this rank"
	}

	// SizeIntegerType is `usize`/`isize`, sized to the target's pointer
	// width.
	SizeIntegerType struct {
		Start  token.Source
		Signed bool
	}

	// PointerType is `*T`.
	PointerType struct {
		Star token.Source
		Elem Type
	}

	// VoidType is `void`.
	VoidType struct{ Start token.Source }

	// NeverType is the bottom type of diverging expressions (spec section 3);
	// it never appears in source but is synthesized by the resolver, so it
	// still needs an AST shape to participate in unification plumbing that
	// operates over ast.Type before lowering to asg.
	NeverType struct{ Start token.Source }

	// FieldDecl is a single field of a struct, union or anonymous aggregate.
	FieldDecl struct {
		Name *IdentExpr
		Type Type
	}

	// AnonymousStructType is an inline `struct { ... }` type.
	AnonymousStructType struct {
		Start  token.Source
		Fields []*FieldDecl
		End    token.Source
	}

	// AnonymousUnionType is an inline `union { ... }` type.
	AnonymousUnionType struct {
		Start  token.Source
		Fields []*FieldDecl
		End    token.Source
	}

	// EnumMemberDecl is a single `name` or `name = value` enum member.
	EnumMemberDecl struct {
		Name  *IdentExpr
		Value Expr // nil if not explicitly assigned
	}

	// AnonymousEnumType is an inline `enum { ... }` type.
	AnonymousEnumType struct {
		Start   token.Source
		Backing Type // nil if the default backing integer type applies
		Members []*EnumMemberDecl
		End     token.Source
	}

	// FixedArrayType is `[N]T`.
	FixedArrayType struct {
		Lbrack token.Source
		Size   Expr
		Elem   Type
	}

	// FuncPtrType is `fn(T, ...) -> R`, used as a value/field type.
	FuncPtrType struct {
		Start   token.Source
		Params  []Type
		Return  Type // nil means void
		End     token.Source
	}

	// NamedType is a reference to a declared Struct, Enum, Trait or
	// TypeAlias by name, with optional type arguments for generics. Which of
	// those four it denotes is not known until resolution; at the AST level
	// it is just a name plus arguments.
	NamedType struct {
		Name *IdentExpr
		Args []Type // generic type arguments, e.g. `List<T>`
		End  token.Source
	}

	// PolymorphType is a `$name` type-position reference to a polymorphic
	// type parameter.
	PolymorphType struct {
		Start token.Source
		Name  string
	}

	// BadType is a type expression that failed to parse.
	BadType struct {
		Start, End token.Source
	}
)

func (n *BooleanType) Format(f fmt.State, verb rune)   { format(f, verb, n, "bool", nil) }
func (n *BooleanType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *BooleanType) Walk(v Visitor)                  {}
func (n *BooleanType) typ()                            {}

func (n *IntegerType) Format(f fmt.State, verb rune) {
	sign := "i"
	if !n.Signed {
		sign = "u"
	}
	format(f, verb, n, sign+strconv.Itoa(n.Bits), nil)
}
func (n *IntegerType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *IntegerType) Walk(v Visitor)                  {}
func (n *IntegerType) typ()                            {}

func (n *CIntegerType) Format(f fmt.State, verb rune) {
	lbl := n.Rank.String()
	if n.Signed != nil {
		if *n.Signed {
			lbl = "signed " + lbl
		} else {
			lbl = "unsigned " + lbl
		}
	}
	format(f, verb, n, lbl, nil)
}
func (n *CIntegerType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *CIntegerType) Walk(v Visitor)                  {}
func (n *CIntegerType) typ()                            {}

func (n *SizeIntegerType) Format(f fmt.State, verb rune) {
	lbl := "usize"
	if n.Signed {
		lbl = "isize"
	}
	format(f, verb, n, lbl, nil)
}
func (n *SizeIntegerType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *SizeIntegerType) Walk(v Visitor)                  {}
func (n *SizeIntegerType) typ()                            {}

func (n *PointerType) Format(f fmt.State, verb rune) { format(f, verb, n, "*T", nil) }
func (n *PointerType) Span() (start, end token.Source) {
	_, end = n.Elem.Span()
	return n.Star, end
}
func (n *PointerType) Walk(v Visitor) { Walk(v, n.Elem) }
func (n *PointerType) typ()           {}

func (n *VoidType) Format(f fmt.State, verb rune)   { format(f, verb, n, "void", nil) }
func (n *VoidType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *VoidType) Walk(v Visitor)                  {}
func (n *VoidType) typ()                            {}

func (n *NeverType) Format(f fmt.State, verb rune)   { format(f, verb, n, "never", nil) }
func (n *NeverType) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *NeverType) Walk(v Visitor)                  {}
func (n *NeverType) typ()                            {}

func (n *AnonymousStructType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "struct", map[string]int{"fields": len(n.Fields)})
}
func (n *AnonymousStructType) Span() (start, end token.Source) { return n.Start, n.End }
func (n *AnonymousStructType) Walk(v Visitor) {
	for _, fd := range n.Fields {
		Walk(v, fd.Name)
		Walk(v, fd.Type)
	}
}
func (n *AnonymousStructType) typ() {}

func (n *AnonymousUnionType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "union", map[string]int{"fields": len(n.Fields)})
}
func (n *AnonymousUnionType) Span() (start, end token.Source) { return n.Start, n.End }
func (n *AnonymousUnionType) Walk(v Visitor) {
	for _, fd := range n.Fields {
		Walk(v, fd.Name)
		Walk(v, fd.Type)
	}
}
func (n *AnonymousUnionType) typ() {}

func (n *AnonymousEnumType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "enum", map[string]int{"members": len(n.Members)})
}
func (n *AnonymousEnumType) Span() (start, end token.Source) { return n.Start, n.End }
func (n *AnonymousEnumType) Walk(v Visitor) {
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
func (n *AnonymousEnumType) typ() {}

func (n *FixedArrayType) Format(f fmt.State, verb rune) { format(f, verb, n, "[N]T", nil) }
func (n *FixedArrayType) Span() (start, end token.Source) {
	_, end = n.Elem.Span()
	return n.Lbrack, end
}
func (n *FixedArrayType) Walk(v Visitor) {
	Walk(v, n.Size)
	Walk(v, n.Elem)
}
func (n *FixedArrayType) typ() {}

func (n *FuncPtrType) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn ptr", map[string]int{"params": len(n.Params)})
}
func (n *FuncPtrType) Span() (start, end token.Source) { return n.Start, n.End }
func (n *FuncPtrType) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.Return != nil {
		Walk(v, n.Return)
	}
}
func (n *FuncPtrType) typ() {}

func (n *NamedType) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name.Name, nil) }
func (n *NamedType) Span() (start, end token.Source) {
	start, _ = n.Name.Span()
	end = start
	if n.End.IsValid() {
		end = n.End
	}
	return start, end
}
func (n *NamedType) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *NamedType) typ() {}

func (n *PolymorphType) Format(f fmt.State, verb rune) { format(f, verb, n, "$"+n.Name, nil) }
func (n *PolymorphType) Span() (start, end token.Source) {
	return n.Start, n.Start
}
func (n *PolymorphType) Walk(v Visitor) {}
func (n *PolymorphType) typ()           {}

func (n *BadType) Format(f fmt.State, verb rune)   { format(f, verb, n, "!bad type!", nil) }
func (n *BadType) Span() (start, end token.Source) { return n.Start, n.End }
func (n *BadType) Walk(v Visitor)                  {}
func (n *BadType) typ()                            {}
