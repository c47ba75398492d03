package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/compiler"
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

func TestCompileReturnsBinaryExpr(t *testing.T) {
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

	prog := compiler.NewProgram()
	fc, err := compiler.Compile(prog, g, fn)
	require.NoError(t, err)

	require.Equal(t, "add", fc.Name)
	require.Equal(t, 2, fc.NumParams)
	require.Same(t, prog, fc.Prog)
	require.Same(t, fc, prog.Toplevel, "the first function compiled into a Program becomes its Toplevel")
	require.NotEmpty(t, fc.Code)

	// a, b: two LOCAL loads, then PLUS, then SETLOCAL, then RETURNVALUE
	// loads its result and returns. The exact byte layout is an
	// implementation detail; what matters is that the opcodes it
	// contains are the ones a plain register-sum-then-return shape must
	// produce, each exactly once.
	var sawPlus, sawReturnValue, sawSetLocal int
	for i := 0; i < len(fc.Code); {
		op := compiler.Opcode(fc.Code[i])
		switch op {
		case compiler.PLUS:
			sawPlus++
		case compiler.RETURNVALUE:
			sawReturnValue++
		case compiler.SETLOCAL:
			sawSetLocal++
		}
		i += opcodeWidth(fc.Code, i)
	}
	require.Equal(t, 1, sawPlus)
	require.Equal(t, 1, sawReturnValue)
	require.Equal(t, 1, sawSetLocal, "the BinOp's result is stored to its slot exactly once")
}

func TestCompileAllocaStoreLoad(t *testing.T) {
	g := asg.NewGraph()
	decl := asg.FuncDecl{Name: "set", Return: asg.Void{}}
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.DeclStmt{Kind: token.LET, Name: ident("x"), Type: &ast.IntegerType{Bits: 32, Signed: true}, Value: &ast.IntLitExpr{Value: 1}},
		&ast.AssignStmt{Left: ident("x"), Op: token.EQ, Right: &ast.IntLitExpr{Value: 2}},
		&ast.ExprStmt{X: ident("x")},
	}}
	fn := buildFunc(t, g, decl, body)

	prog := compiler.NewProgram()
	fc, err := compiler.Compile(prog, g, fn)
	require.NoError(t, err)

	require.Len(t, prog.Constants, 2, "the two literals 1 and 2 are interned once each")
	require.Contains(t, prog.Constants, int64(1))
	require.Contains(t, prog.Constants, int64(2))

	var sawAlloca, sawStore, sawLoad int
	for i := 0; i < len(fc.Code); {
		switch compiler.Opcode(fc.Code[i]) {
		case compiler.ALLOCA:
			sawAlloca++
		case compiler.STORE:
			sawStore++
		case compiler.LOAD:
			sawLoad++
		}
		i += opcodeWidth(fc.Code, i)
	}
	require.Equal(t, 1, sawAlloca, "declare and assign share one alloca")
	require.Equal(t, 2, sawStore, "one store for the declaration's initializer, one for the assignment")
	require.Equal(t, 1, sawLoad)
}

func TestCompileIfElseEmitsJumps(t *testing.T) {
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

	prog := compiler.NewProgram()
	fc, err := compiler.Compile(prog, g, fn)
	require.NoError(t, err)

	var sawCJMP, sawJMP int
	for i := 0; i < len(fc.Code); {
		switch compiler.Opcode(fc.Code[i]) {
		case compiler.CJMP:
			sawCJMP++
		case compiler.JMP:
			sawJMP++
		}
		i += opcodeWidth(fc.Code, i)
	}
	require.Equal(t, 1, sawCJMP, "the if condition compiles to one conditional branch")
	require.GreaterOrEqual(t, sawJMP, 2, "both arms jump to the shared merge block")
}

func TestCompileSharesConstantPoolAcrossFunctions(t *testing.T) {
	g := asg.NewGraph()
	declA := asg.FuncDecl{Name: "a", Return: i32()}
	bodyA := &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnLikeStmt{Kind: token.RETURN, X: &ast.IntLitExpr{Value: 7}},
	}}
	fnA := buildFunc(t, g, declA, bodyA)

	declB := asg.FuncDecl{Name: "b", Return: i32()}
	bodyB := &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnLikeStmt{Kind: token.RETURN, X: &ast.IntLitExpr{Value: 7}},
	}}
	fnB := buildFunc(t, g, declB, bodyB)

	prog := compiler.NewProgram()
	_, err := compiler.Compile(prog, g, fnA)
	require.NoError(t, err)
	_, err = compiler.Compile(prog, g, fnB)
	require.NoError(t, err)

	require.Len(t, prog.Constants, 1, "the literal 7 is interned once across both functions")
	require.Len(t, prog.Functions, 1, "the second compiled function is appended, the first became Toplevel")
}

// opcodeWidth reports how many bytes the instruction starting at code[i]
// occupies, mirroring encodedSize's own jump/hasArg/varint rules closely
// enough for a test to walk a byte stream without re-decoding values.
func opcodeWidth(code []byte, i int) int {
	op := compiler.Opcode(code[i])
	// JMP/CJMP always occupy 1+4 bytes; every other opcode here that
	// takes an argument fits its operand in the single varint byte these
	// small test programs produce (no pool ever grows past 127 entries),
	// so advancing 1 or 5 bytes based on opcode name alone is enough to
	// walk these particular byte streams without importing unexported
	// decode helpers.
	switch op {
	case compiler.JMP, compiler.CJMP:
		return 5
	case compiler.CONSTANT, compiler.LOCAL, compiler.SETLOCAL, compiler.GLOBAL,
		compiler.ALLOCA, compiler.MALLOC, compiler.MALLOCARRAY, compiler.MEMBER,
		compiler.ARRAYACCESS, compiler.STRUCTLIT, compiler.SIZEOF,
		compiler.EXTEND, compiler.TRUNCATE, compiler.BITCAST, compiler.INTTOPTR,
		compiler.PTRTOINT, compiler.FLOATTOINT, compiler.INTTOFLOAT,
		compiler.FLOATEXTEND, compiler.TRUNCATEFLOAT, compiler.CALL, compiler.SYSCALL:
		return 2
	default:
		return 1
	}
}
