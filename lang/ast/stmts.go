package ast

import (
	"fmt"

	"github.com/mna/adeptc/lang/token"
)

type (
	// DeclStmt is a `let`/`const` local declaration, e.g. `let x = 1` or
	// `const y: i32 = 2`.
	DeclStmt struct {
		Kind      token.Token // LET or CONST
		Start     token.Source
		Name      *IdentExpr
		Type      Type // may be nil, inferred from Value
		Value     Expr // may be nil for `let x: i32;`
		AssignPos token.Source
	}

	// AssignStmt is `lhs = rhs`; Left is always a single assignable
	// expression (IdentExpr, IndexExpr, SelectorExpr).
	AssignStmt struct {
		Left      Expr
		Op        token.Token // EQ from the parser; Format labels any other Op "augmented"
		AssignPos token.Source
		Right     Expr
	}

	// ExprStmt is an expression used as a statement, valid for calls.
	ExprStmt struct {
		X Expr
	}

	// BadStmt is a statement that failed to parse; used for error recovery.
	BadStmt struct {
		Start, End token.Source
	}

	// IfStmt is `if cond { ... } elif cond { ... } else { ... }`. Else is
	// either another *IfStmt (for `elif`) wrapped in a single-statement
	// Block, or a plain Block, or nil.
	IfStmt struct {
		Start token.Source
		Cond  Expr
		Then  *Block
		Else  *Block // nil if no else/elif; a single *IfStmt inside for elif
	}

	// WhileStmt is `while cond { ... }`.
	WhileStmt struct {
		Start token.Source
		Cond  Expr
		Body  *Block
		End   token.Source
	}

	// ForStmt is `for name in expr { ... }`.
	ForStmt struct {
		Start token.Source
		Name  *IdentExpr
		Range Expr
		Body  *Block
		End   token.Source
	}

	// ReturnLikeStmt is return, break or continue.
	ReturnLikeStmt struct {
		Kind  token.Token // RETURN, BREAK, CONTINUE
		Start token.Source
		X     Expr // non-nil only for RETURN with a value
	}
)

func (n *DeclStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Kind.String()+" "+n.Name.Name, nil)
}
func (n *DeclStmt) Span() (start, end token.Source) {
	end = n.Start
	if n.Value != nil {
		_, end = n.Value.Span()
	} else if n.Type != nil {
		_, end = n.Type.Span()
	}
	return n.Start, end
}
func (n *DeclStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *DeclStmt) BlockEnding() bool { return false }

func (n *AssignStmt) Format(f fmt.State, verb rune) {
	lbl := "assignment"
	if n.Op != token.EQ {
		lbl = "augmented " + lbl
	}
	format(f, verb, n, lbl, nil)
}
func (n *AssignStmt) Span() (start, end token.Source) {
	start, _ = n.Left.Span()
	_, end = n.Right.Span()
	return start, end
}
func (n *AssignStmt) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *AssignStmt) BlockEnding() bool { return false }

func (n *ExprStmt) Format(f fmt.State, verb rune)   { format(f, verb, n, "expr stmt", nil) }
func (n *ExprStmt) Span() (start, end token.Source) { return n.X.Span() }
func (n *ExprStmt) Walk(v Visitor)                  { Walk(v, n.X) }
func (n *ExprStmt) BlockEnding() bool               { return false }

func (n *BadStmt) Format(f fmt.State, verb rune)   { format(f, verb, n, "!bad stmt!", nil) }
func (n *BadStmt) Span() (start, end token.Source) { return n.Start, n.End }
func (n *BadStmt) Walk(v Visitor)                  {}
func (n *BadStmt) BlockEnding() bool                { return false }

func (n *IfStmt) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.Else != nil {
		lbl = "if/else"
	}
	format(f, verb, n, lbl, nil)
}
func (n *IfStmt) Span() (start, end token.Source) {
	_, end = n.Then.Span()
	if n.Else != nil {
		_, end = n.Else.Span()
	}
	return n.Start, end
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfStmt) BlockEnding() bool { return false }

func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }
func (n *WhileStmt) Span() (start, end token.Source) {
	return n.Start, n.End
}
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *WhileStmt) BlockEnding() bool { return false }

func (n *ForStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for in", nil) }
func (n *ForStmt) Span() (start, end token.Source) {
	return n.Start, n.End
}
func (n *ForStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	Walk(v, n.Range)
	Walk(v, n.Body)
}
func (n *ForStmt) BlockEnding() bool { return false }

func (n *ReturnLikeStmt) Format(f fmt.State, verb rune) {
	var exprCount int
	if n.X != nil {
		exprCount = 1
	}
	format(f, verb, n, n.Kind.String(), map[string]int{"expr": exprCount})
}
func (n *ReturnLikeStmt) Span() (start, end token.Source) {
	end = n.Start
	if n.X != nil {
		_, end = n.X.Span()
	}
	return n.Start, end
}
func (n *ReturnLikeStmt) Walk(v Visitor) {
	if n.X != nil {
		Walk(v, n.X)
	}
}
func (n *ReturnLikeStmt) BlockEnding() bool { return true }
