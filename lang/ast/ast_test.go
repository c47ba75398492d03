package ast

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func src(off int) token.Source { return token.Source{File: 1, Offset: off} }

func TestChunkSpanEmpty(t *testing.T) {
	c := &Chunk{EOF: src(42)}
	start, end := c.Span()
	require.Equal(t, src(42), start)
	require.Equal(t, src(42), end)
}

func TestChunkSpanWithDecls(t *testing.T) {
	d1 := &StructDecl{Start: src(0), End: src(10), Name: &IdentExpr{Start: src(7), Name: "A"}}
	d2 := &EnumDecl{Start: src(11), End: src(30), Name: &IdentExpr{Start: src(16), Name: "B"}}
	c := &Chunk{Decls: []Decl{d1, d2}}
	start, end := c.Span()
	require.Equal(t, src(0), start)
	require.Equal(t, src(30), end)
}

func TestIsAssignable(t *testing.T) {
	ident := &IdentExpr{Name: "x"}
	require.True(t, IsAssignable(ident))
	require.True(t, IsAssignable(&ParenExpr{X: ident}))

	sel := &SelectorExpr{X: ident, Sel: &IdentExpr{Name: "y"}}
	require.True(t, IsAssignable(sel))

	idx := &IndexExpr{X: ident, Index: &IntLitExpr{Value: 0}}
	require.True(t, IsAssignable(idx))

	deref := &UnaryExpr{Op: token.STAR, X: ident}
	require.True(t, IsAssignable(deref))

	call := &CallExpr{Fn: ident}
	require.False(t, IsAssignable(call))

	require.False(t, IsAssignable(&IntLitExpr{Value: 1}))
}

func TestUnwrap(t *testing.T) {
	ident := &IdentExpr{Name: "x"}
	wrapped := &ParenExpr{X: &ParenExpr{X: ident}}
	require.Equal(t, Expr(ident), Unwrap(wrapped))
}

type countingVisitor struct {
	enters, exits int
}

func (c *countingVisitor) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitEnter {
		c.enters++
	} else {
		c.exits++
	}
	return c
}

func TestWalkVisitsEveryNodeOnce(t *testing.T) {
	bin := &BinaryExpr{
		Left:  &IntLitExpr{Value: 1},
		Op:    token.PLUS,
		Right: &IntLitExpr{Value: 2},
	}
	stmt := &ExprStmt{X: bin}
	block := &Block{Stmts: []Stmt{stmt}}

	var cv countingVisitor
	Walk(&cv, block)

	// block, exprstmt, binary, two int lits = 5 nodes
	require.Equal(t, 5, cv.enters)
	require.Equal(t, 5, cv.exits)
}

func TestWalkNilVisitorSkipsChildren(t *testing.T) {
	bin := &BinaryExpr{
		Left:  &IntLitExpr{Value: 1},
		Op:    token.PLUS,
		Right: &IntLitExpr{Value: 2},
	}

	visited := 0
	var v VisitorFunc
	v = func(n Node, dir VisitDirection) Visitor {
		if dir != VisitEnter {
			return nil
		}
		visited++
		if _, ok := n.(*BinaryExpr); ok {
			return nil // skip children
		}
		return v
	}
	Walk(v, bin)
	require.Equal(t, 1, visited)
}

func TestFormatUnknownVerb(t *testing.T) {
	var buf bytes.Buffer
	ident := &IdentExpr{Name: "x"}
	fmt.Fprintf(&buf, "%d", ident)
	require.Contains(t, buf.String(), "%!d")
}

func TestFormatWidthAndFlags(t *testing.T) {
	var buf bytes.Buffer
	n := &IdentExpr{Name: "abc"}
	fmt.Fprintf(&buf, "%8v", n)
	require.Equal(t, "     abc", buf.String())

	buf.Reset()
	fmt.Fprintf(&buf, "%-8v|", n)
	require.Equal(t, "abc     |", buf.String())
}

func TestStructLiteralFormatLabel(t *testing.T) {
	var buf bytes.Buffer
	lit := &StructLiteralExpr{
		Type: &NamedType{Name: &IdentExpr{Name: "Point"}},
		Fields: []*FieldInit{
			{Name: &IdentExpr{Name: "x"}, Value: &IntLitExpr{Value: 1}},
		},
	}
	fmt.Fprintf(&buf, "%v", lit)
	require.Equal(t, "struct literal", buf.String())

	buf.Reset()
	fmt.Fprintf(&buf, "%#v", lit)
	require.Equal(t, "struct literal {fields=1}", buf.String())
}

func TestStructLiteralExtendFormatLabel(t *testing.T) {
	var buf bytes.Buffer
	lit := &StructLiteralExpr{
		Type:   &NamedType{Name: &IdentExpr{Name: "Point"}},
		Extend: &IdentExpr{Name: "base"},
	}
	fmt.Fprintf(&buf, "%#v", lit)
	require.Equal(t, "struct literal extend {fields=0}", buf.String())
}
