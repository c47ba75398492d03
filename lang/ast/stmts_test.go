package ast

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func TestDeclStmtSpanWithValue(t *testing.T) {
	ds := &DeclStmt{
		Kind:  token.LET,
		Start: src(0),
		Name:  &IdentExpr{Name: "x"},
		Value: &IntLitExpr{Start: src(10), Value: 1},
	}
	start, end := ds.Span()
	require.Equal(t, src(0), start)
	require.Equal(t, src(10), end)
}

func TestDeclStmtSpanTypeOnly(t *testing.T) {
	ds := &DeclStmt{
		Kind:  token.LET,
		Start: src(0),
		Name:  &IdentExpr{Name: "x"},
		Type:  &IntegerType{Start: src(5), Bits: 32, Signed: true},
	}
	_, end := ds.Span()
	require.Equal(t, src(5), end)
}

func TestAssignStmtFormatPlainVsAugmented(t *testing.T) {
	var buf bytes.Buffer
	as := &AssignStmt{Left: &IdentExpr{Name: "x"}, Op: token.EQ, Right: &IntLitExpr{Value: 1}}
	fmt.Fprintf(&buf, "%v", as)
	require.Equal(t, "assignment", buf.String())

	buf.Reset()
	as.Op = token.PLUS
	fmt.Fprintf(&buf, "%v", as)
	require.Equal(t, "augmented assignment", buf.String())
}

func TestIfStmtFormatWithElse(t *testing.T) {
	th := &Block{}
	el := &Block{}
	ifs := &IfStmt{Cond: &BoolLitExpr{Value: true}, Then: th, Else: el}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%v", ifs)
	require.Equal(t, "if/else", buf.String())
}

func TestIfStmtFormatNoElse(t *testing.T) {
	ifs := &IfStmt{Cond: &BoolLitExpr{Value: true}, Then: &Block{}}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%v", ifs)
	require.Equal(t, "if", buf.String())
}

func TestReturnLikeStmtBlockEnding(t *testing.T) {
	r := &ReturnLikeStmt{Kind: token.RETURN}
	require.True(t, r.BlockEnding())

	d := &DeclStmt{Kind: token.LET, Name: &IdentExpr{Name: "x"}}
	require.False(t, d.BlockEnding())
}

func TestForStmtWalk(t *testing.T) {
	fs := &ForStmt{
		Name:  &IdentExpr{Name: "i"},
		Range: &IdentExpr{Name: "items"},
		Body:  &Block{Stmts: []Stmt{&ExprStmt{X: &IdentExpr{Name: "i"}}}},
	}
	var cv countingVisitor
	Walk(&cv, fs)
	// for, name, range, body, exprstmt, ident
	require.Equal(t, 6, cv.enters)
}
