package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/ir"
	"github.com/mna/adeptc/lang/resolver"
	"github.com/mna/adeptc/lang/token"
)

func ident(name string) *ast.IdentExpr { return &ast.IdentExpr{Name: name} }

func i32() asg.Type { return asg.Integer{Bits: 32, Signed: true} }

func buildFunc(t *testing.T, g *asg.Graph, decl asg.FuncDecl, body *ast.Block) *ir.Function {
	t.Helper()
	cfgGraph, err := resolver.BuildFunc(g, targetcfg.Default(), decl, body)
	require.NoError(t, err)
	declIx := g.AddFunc(decl)
	fn, err := ir.Lower(g, cfgGraph, declIx)
	require.NoError(t, err)
	return fn
}

func TestLowerReturnsBinaryExpr(t *testing.T) {
	g := asg.NewGraph()
	decl := asg.FuncDecl{
		Name: "add",
		Params: []asg.Param{
			{Name: "a", Type: i32()},
			{Name: "b", Type: i32()},
		},
		Return: i32(),
	}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnLikeStmt{
			Kind: token.RETURN,
			X:    &ast.BinaryExpr{Left: ident("a"), Op: token.PLUS, Right: ident("b")},
		},
	}}

	fn := buildFunc(t, g, decl, body)
	require.Equal(t, 1, fn.Blocks.Len(), "a single return with no branches lowers to one block")

	entry := fn.Block(fn.Entry)
	// a, b, the BinOp, then the Return terminator.
	require.Len(t, entry.Instrs, 3)

	paramA, ok := fn.Get(entry.Instrs[0]).(*ir.Parameter)
	require.True(t, ok)
	require.Equal(t, 0, paramA.Index)

	paramB, ok := fn.Get(entry.Instrs[1]).(*ir.Parameter)
	require.True(t, ok)
	require.Equal(t, 1, paramB.Index)

	bin, ok := fn.Get(entry.Instrs[2]).(*ir.BinOp)
	require.True(t, ok)
	require.Equal(t, token.PLUS, bin.Op)
	require.False(t, bin.Float)
	require.True(t, bin.Signed)
	require.Equal(t, entry.Instrs[0], bin.Left)
	require.Equal(t, entry.Instrs[1], bin.Right)

	ret, ok := fn.Get(entry.Term).(*ir.Return)
	require.True(t, ok)
	require.True(t, ret.HasValue)
	require.Equal(t, entry.Instrs[2], ret.Value)
}

func TestLowerDeclareAndAssignShareOneAlloca(t *testing.T) {
	g := asg.NewGraph()
	decl := asg.FuncDecl{Name: "set", Return: asg.Void{}}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.DeclStmt{Kind: token.LET, Name: ident("x"), Type: &ast.IntegerType{Bits: 32, Signed: true}, Value: &ast.IntLitExpr{Value: 1}},
		&ast.AssignStmt{Left: ident("x"), Op: token.EQ, Right: &ast.IntLitExpr{Value: 2}},
		&ast.ExprStmt{X: ident("x")},
	}}

	fn := buildFunc(t, g, decl, body)
	require.Equal(t, 1, fn.Blocks.Len())

	entry := fn.Block(fn.Entry)
	// Declare's own operand (the literal 1) is lowered before Declare
	// itself, since a cfg Declare node's Operands reference an
	// already-built value node.
	require.Len(t, entry.Instrs, 6)

	allocaIx := entry.Instrs[1]
	alloca, ok := fn.Get(allocaIx).(*ir.Alloca)
	require.True(t, ok)
	require.Equal(t, i32(), alloca.Type)

	firstStore, ok := fn.Get(entry.Instrs[2]).(*ir.Store)
	require.True(t, ok)
	require.Equal(t, allocaIx, firstStore.Dest)
	require.Equal(t, entry.Instrs[0], firstStore.Value)

	secondStore, ok := fn.Get(entry.Instrs[4]).(*ir.Store)
	require.True(t, ok)
	require.Equal(t, allocaIx, secondStore.Dest, "assignment must store to the same alloca the declaration produced")

	load, ok := fn.Get(entry.Instrs[5]).(*ir.Load)
	require.True(t, ok)
	require.Equal(t, allocaIx, load.Ptr)
}

func TestLowerIfElseProducesAMergeBlock(t *testing.T) {
	g := asg.NewGraph()
	decl := asg.FuncDecl{Name: "choose", Return: asg.Void{}}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.DeclStmt{Kind: token.LET, Name: ident("x"), Type: &ast.IntegerType{Bits: 32, Signed: true}},
		&ast.IfStmt{
			Cond: &ast.BoolLitExpr{Value: true},
			Then: &ast.Block{Stmts: []ast.Stmt{
				&ast.AssignStmt{Left: ident("x"), Op: token.EQ, Right: &ast.IntLitExpr{Value: 1}},
			}},
			Else: &ast.Block{Stmts: []ast.Stmt{
				&ast.AssignStmt{Left: ident("x"), Op: token.EQ, Right: &ast.IntLitExpr{Value: 2}},
			}},
		},
		&ast.ExprStmt{X: ident("x")},
	}}

	fn := buildFunc(t, g, decl, body)
	// entry (decl+cond), then-arm, else-arm, and the merge block (the
	// trailing load plus the function's implicit Return).
	require.Equal(t, 4, fn.Blocks.Len())

	entry := fn.Block(fn.Entry)
	cbr, ok := fn.Get(entry.Term).(*ir.ConditionalBreak)
	require.True(t, ok)

	thenBlk := fn.Block(cbr.WhenTrue)
	elseBlk := fn.Block(cbr.WhenFalse)
	thenBreak, ok := fn.Get(thenBlk.Term).(*ir.Break)
	require.True(t, ok)
	elseBreak, ok := fn.Get(elseBlk.Term).(*ir.Break)
	require.True(t, ok)
	require.Equal(t, thenBreak.Target, elseBreak.Target, "both arms must converge on the same merge block")
}

func TestLowerWhileLoopBackEdgeAndBreak(t *testing.T) {
	g := asg.NewGraph()
	decl := asg.FuncDecl{Name: "loop", Return: asg.Void{}}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.WhileStmt{
			Cond: &ast.BoolLitExpr{Value: true},
			Body: &ast.Block{Stmts: []ast.Stmt{
				&ast.ReturnLikeStmt{Kind: token.BREAK},
			}},
		},
	}}

	fn := buildFunc(t, g, decl, body)
	// A body that immediately breaks never builds a distinct body block:
	// the break and the loop's own false edge both land on the same
	// shared function-exit node, so it's condition-check plus exit.
	require.Equal(t, 2, fn.Blocks.Len())

	entry := fn.Block(fn.Entry)
	cbr, ok := fn.Get(entry.Term).(*ir.ConditionalBreak)
	require.True(t, ok, "the condition check must be its own block so the back edge can target it")
	require.Equal(t, cbr.WhenTrue, cbr.WhenFalse, "break and the loop's false edge share the same exit node")

	exit := fn.Block(cbr.WhenFalse)
	_, ok = fn.Get(exit.Term).(*ir.Return)
	require.True(t, ok)
}
