package ast

import (
	"fmt"

	"github.com/mna/adeptc/lang/token"
)

// Unwrap the expression inside the parens. It unwraps multiple ParenExpr
// recursively until it reaches a non-ParenExpr.
func Unwrap(e Expr) Expr {
	if pe, ok := e.(*ParenExpr); ok {
		return Unwrap(pe.X)
	}
	return e
}

// IsAssignable returns true if e can be assigned to: an IdentExpr, a
// SelectorExpr or an IndexExpr whose base is itself assignable, or a
// `*x` dereference.
func IsAssignable(e Expr) bool {
	switch e := Unwrap(e).(type) {
	case *IdentExpr:
		return true
	case *SelectorExpr:
		return IsAssignable(e.X)
	case *IndexExpr:
		return IsAssignable(e.X)
	case *UnaryExpr:
		return e.Op == token.STAR
	default:
		return false
	}
}

type (
	// IdentExpr is a bare identifier reference.
	IdentExpr struct {
		Start token.Source
		Name  string
	}

	// IntLitExpr is an integer literal; Value is already parsed per the
	// lexer's radix rule.
	IntLitExpr struct {
		Start token.Source
		Raw   string
		Value int64
	}

	// FloatLitExpr is a floating-point literal.
	FloatLitExpr struct {
		Start token.Source
		Raw   string
		Value float64
	}

	// StringLitExpr is a double-quoted string literal, already unescaped.
	StringLitExpr struct {
		Start token.Source
		Raw   string
		Value string
	}

	// BoolLitExpr is `true` or `false`.
	BoolLitExpr struct {
		Start token.Source
		Value bool
	}

	// BinaryExpr is a binary operator expression, e.g. `x + y`.
	BinaryExpr struct {
		Left  Expr
		Op    token.Token
		OpPos token.Source
		Right Expr
	}

	// UnaryExpr is a unary prefix operator expression, e.g. `-x`, `!x`, `*x`,
	// `&x`.
	UnaryExpr struct {
		Op    token.Token
		Start token.Source
		X     Expr
	}

	// CallExpr is a function call, e.g. `f(a, b)`.
	CallExpr struct {
		Fn     Expr
		Lparen token.Source
		Args   []Expr
		Rparen token.Source
	}

	// IndexExpr is `x[i]`.
	IndexExpr struct {
		X      Expr
		Lbrack token.Source
		Index  Expr
		Rbrack token.Source
	}

	// SelectorExpr is `x.name`.
	SelectorExpr struct {
		X   Expr
		Dot token.Source
		Sel *IdentExpr
	}

	// ParenExpr is a parenthesized expression, `(x)`.
	ParenExpr struct {
		Lparen token.Source
		X      Expr
		Rparen token.Source
	}

	// FieldInit is a single `name: value` pair inside a struct literal.
	FieldInit struct {
		Name  *IdentExpr
		Colon token.Source
		Value Expr
	}

	// StructLiteralExpr is `Name{field: value, ...}`, or `Name{extend base,
	// field: value}` when Extend is non-nil. The disambiguation between a
	// struct literal and a bare variable reference is the parser's job, not
	// the AST's (spec section 4.2: a name followed by `{` is only a struct
	// literal if what follows looks like one).
	StructLiteralExpr struct {
		Type   Type
		Lbrace token.Source
		Extend Expr // non-nil for `Name{extend base, ...}`
		Fields []*FieldInit
		Rbrace token.Source
	}

	// SizeOfExpr is `sizeof<T>` or `sizeof<"target"|"compilation", T>`.
	SizeOfExpr struct {
		Start token.Source
		Mode  string // "", "target" or "compilation"
		Of    Type
		End   token.Source
	}

	// SizeOfValueExpr is the value-taking form of sizeof, applied to an
	// expression rather than a type.
	SizeOfValueExpr struct {
		Start token.Source
		Mode  string
		Of    Expr
		End   token.Source
	}

	// PolymorphExpr is a `$name` reference to a polymorphic type parameter
	// used as a value-position expression (e.g. `sizeof<$T>` contexts).
	PolymorphExpr struct {
		Start token.Source
		Name  string
	}

	// AnnotationExpr attaches a `#name` annotation (e.g. `#comptime`) to the
	// expression it prefixes.
	AnnotationExpr struct {
		Hash token.Source
		Name string
		X    Expr
	}

	// BadExpr is an expression that failed to parse, used for recovery.
	BadExpr struct {
		Start, End token.Source
	}
)

func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name, nil) }
func (n *IdentExpr) Span() (start, end token.Source) {
	return n.Start, n.Start
}
func (n *IdentExpr) Walk(v Visitor) {}
func (n *IdentExpr) expr()          {}

func (n *IntLitExpr) Format(f fmt.State, verb rune)   { format(f, verb, n, "int "+n.Raw, nil) }
func (n *IntLitExpr) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *IntLitExpr) Walk(v Visitor)                  {}
func (n *IntLitExpr) expr()                           {}

func (n *FloatLitExpr) Format(f fmt.State, verb rune)   { format(f, verb, n, "float "+n.Raw, nil) }
func (n *FloatLitExpr) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *FloatLitExpr) Walk(v Visitor)                  {}
func (n *FloatLitExpr) expr()                           {}

func (n *StringLitExpr) Format(f fmt.State, verb rune)   { format(f, verb, n, "string "+n.Raw, nil) }
func (n *StringLitExpr) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *StringLitExpr) Walk(v Visitor)                  {}
func (n *StringLitExpr) expr()                           {}

func (n *BoolLitExpr) Format(f fmt.State, verb rune) {
	lbl := "false"
	if n.Value {
		lbl = "true"
	}
	format(f, verb, n, lbl, nil)
}
func (n *BoolLitExpr) Span() (start, end token.Source) { return n.Start, n.Start }
func (n *BoolLitExpr) Walk(v Visitor)                  {}
func (n *BoolLitExpr) expr()                           {}

func (n *BinaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Op.GoString(), nil)
}
func (n *BinaryExpr) Span() (start, end token.Source) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *BinaryExpr) expr() {}

func (n *UnaryExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Op.GoString(), nil)
}
func (n *UnaryExpr) Span() (start, end token.Source) {
	_, end = n.X.Span()
	return n.Start, end
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }
func (n *UnaryExpr) expr()          {}

func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Source) {
	start, _ = n.Fn.Span()
	return start, n.Rparen
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *CallExpr) expr() {}

func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "x[index]", nil) }
func (n *IndexExpr) Span() (start, end token.Source) {
	start, _ = n.X.Span()
	return start, n.Rbrack
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Index)
}
func (n *IndexExpr) expr() {}

func (n *SelectorExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "x.sel", nil) }
func (n *SelectorExpr) Span() (start, end token.Source) {
	start, _ = n.X.Span()
	_, end = n.Sel.Span()
	return start, end
}
func (n *SelectorExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Sel)
}
func (n *SelectorExpr) expr() {}

func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(expr)", nil) }
func (n *ParenExpr) Span() (start, end token.Source) {
	return n.Lparen, n.Rparen
}
func (n *ParenExpr) Walk(v Visitor) { Walk(v, n.X) }
func (n *ParenExpr) expr()          {}

func (n *StructLiteralExpr) Format(f fmt.State, verb rune) {
	lbl := "struct literal"
	if n.Extend != nil {
		lbl = "struct literal extend"
	}
	format(f, verb, n, lbl, map[string]int{"fields": len(n.Fields)})
}
func (n *StructLiteralExpr) Span() (start, end token.Source) {
	start, _ = n.Type.Span()
	return start, n.Rbrace
}
func (n *StructLiteralExpr) Walk(v Visitor) {
	Walk(v, n.Type)
	if n.Extend != nil {
		Walk(v, n.Extend)
	}
	for _, fi := range n.Fields {
		Walk(v, fi.Name)
		Walk(v, fi.Value)
	}
}
func (n *StructLiteralExpr) expr() {}

func (n *SizeOfExpr) Format(f fmt.State, verb rune) {
	lbl := "sizeof"
	if n.Mode != "" {
		lbl += " " + n.Mode
	}
	format(f, verb, n, lbl, nil)
}
func (n *SizeOfExpr) Span() (start, end token.Source) { return n.Start, n.End }
func (n *SizeOfExpr) Walk(v Visitor)                  { Walk(v, n.Of) }
func (n *SizeOfExpr) expr() {}

func (n *SizeOfValueExpr) Format(f fmt.State, verb rune) {
	lbl := "sizeof value"
	if n.Mode != "" {
		lbl += " " + n.Mode
	}
	format(f, verb, n, lbl, nil)
}
func (n *SizeOfValueExpr) Span() (start, end token.Source) { return n.Start, n.End }
func (n *SizeOfValueExpr) Walk(v Visitor)                  { Walk(v, n.Of) }
func (n *SizeOfValueExpr) expr() {}

func (n *PolymorphExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "$"+n.Name, nil) }
func (n *PolymorphExpr) Span() (start, end token.Source) {
	return n.Start, n.Start
}
func (n *PolymorphExpr) Walk(v Visitor) {}
func (n *PolymorphExpr) expr()          {}

func (n *AnnotationExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "#"+n.Name, nil) }
func (n *AnnotationExpr) Span() (start, end token.Source) {
	_, end = n.X.Span()
	return n.Hash, end
}
func (n *AnnotationExpr) Walk(v Visitor) { Walk(v, n.X) }
func (n *AnnotationExpr) expr()          {}

func (n *BadExpr) Format(f fmt.State, verb rune)   { format(f, verb, n, "!bad expr!", nil) }
func (n *BadExpr) Span() (start, end token.Source) { return n.Start, n.End }
func (n *BadExpr) Walk(v Visitor)                  {}
func (n *BadExpr) expr()                           {}
