package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*ast.Chunk, *diag.List) {
	t.Helper()
	var sink diag.List
	fset := token.NewFileSet()
	chunk, err := ParseChunk(context.Background(), &sink, fset, "test.ad", []byte(src))
	require.NotNil(t, chunk)
	_ = err
	return chunk, &sink
}

func parseOK(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, sink := parse(t, src)
	require.Empty(t, sink.Items(), "unexpected diagnostics: %v", sink.Items())
	return chunk
}

func TestParseFuncDecl(t *testing.T) {
	chunk := parseOK(t, `fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	require.Len(t, chunk.Decls, 1)
	fd, ok := chunk.Decls[0].(*ast.FuncDecl)
	require.True(t, ok)
	require.Equal(t, "add", fd.Sig.Name.Name)
	require.Len(t, fd.Sig.Params, 2)
	require.Equal(t, "a", fd.Sig.Params[0].Name.Name)
	require.IsType(t, &ast.IntegerType{}, fd.Sig.Params[0].Type)
	require.NotNil(t, fd.Body)
	require.Len(t, fd.Body.Stmts, 1)
	ret, ok := fd.Body.Stmts[0].(*ast.ReturnLikeStmt)
	require.True(t, ok)
	require.Equal(t, token.RETURN, ret.Kind)
	require.IsType(t, &ast.BinaryExpr{}, ret.X)
}

func TestParseFuncDeclNoBody(t *testing.T) {
	chunk := parseOK(t, `fn puts(s: *u8) -> i32;`)
	fd := chunk.Decls[0].(*ast.FuncDecl)
	require.Nil(t, fd.Body)
}

func TestParseVariadicFuncSignature(t *testing.T) {
	chunk := parseOK(t, `fn printf(fmt: *u8, ...) -> i32;`)
	fd := chunk.Decls[0].(*ast.FuncDecl)
	require.True(t, fd.Sig.Variadic)
}

func TestParseGenericFuncSignature(t *testing.T) {
	chunk := parseOK(t, `fn first<$T>(xs: *T) -> T { return *xs; }`)
	fd := chunk.Decls[0].(*ast.FuncDecl)
	require.Len(t, fd.Sig.TypeParams, 1)
	require.Equal(t, "T", fd.Sig.TypeParams[0].Name)
}

func TestParseStructDecl(t *testing.T) {
	chunk := parseOK(t, `pub struct Point { x: i32, y: i32 }`)
	sd := chunk.Decls[0].(*ast.StructDecl)
	require.Equal(t, token.PUB, sd.Vis)
	require.Equal(t, "Point", sd.Name.Name)
	require.Len(t, sd.Fields, 2)
	require.Equal(t, "x", sd.Fields[0].Name.Name)
}

func TestParseEnumDecl(t *testing.T) {
	chunk := parseOK(t, `enum Color: u8 { Red, Green, Blue = 5 }`)
	ed := chunk.Decls[0].(*ast.EnumDecl)
	require.NotNil(t, ed.Backing)
	require.Len(t, ed.Members, 3)
	require.Nil(t, ed.Members[0].Value)
	require.NotNil(t, ed.Members[2].Value)
}

func TestParseTraitAndImplDecl(t *testing.T) {
	chunk := parseOK(t, `
trait Shape {
	fn area(self: *Shape) -> i32;
}
impl Shape for Circle {
	fn area(self: *Circle) -> i32 { return 0; }
}
`)
	require.Len(t, chunk.Decls, 2)
	td := chunk.Decls[0].(*ast.TraitDecl)
	require.Equal(t, "Shape", td.Name.Name)
	require.Len(t, td.Methods, 1)

	id := chunk.Decls[1].(*ast.ImplDecl)
	require.NotNil(t, id.Trait)
	require.Equal(t, "Shape", id.Trait.Name.Name)
	require.IsType(t, &ast.NamedType{}, id.For)
	require.Len(t, id.Methods, 1)
}

func TestParseInherentImplDecl(t *testing.T) {
	chunk := parseOK(t, `impl Circle { fn area(self: *Circle) -> i32 { return 0; } }`)
	id := chunk.Decls[0].(*ast.ImplDecl)
	require.Nil(t, id.Trait)
}

func TestParseTypeAliasDecl(t *testing.T) {
	chunk := parseOK(t, `type IntPtr = *i32;`)
	ta := chunk.Decls[0].(*ast.TypeAliasDecl)
	require.Equal(t, "IntPtr", ta.Name.Name)
	require.IsType(t, &ast.PointerType{}, ta.Target)
}

func TestParseImportDecl(t *testing.T) {
	chunk := parseOK(t, `import net;`)
	im, ok := chunk.Decls[0].(*ast.ImportDecl)
	require.True(t, ok)
	require.Equal(t, "net", im.Name.Name)
}

func TestParseDeclStmtWithAndWithoutValue(t *testing.T) {
	chunk := parseOK(t, `fn f() { let x: i32 = 1; const y = 2; }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	require.Len(t, body.Stmts, 2)

	ds0 := body.Stmts[0].(*ast.DeclStmt)
	require.Equal(t, token.LET, ds0.Kind)
	require.NotNil(t, ds0.Type)
	require.NotNil(t, ds0.Value)

	ds1 := body.Stmts[1].(*ast.DeclStmt)
	require.Equal(t, token.CONST, ds1.Kind)
	require.Nil(t, ds1.Type)
}

func TestParseIfElifElse(t *testing.T) {
	chunk := parseOK(t, `
fn f() {
	if a { x; } elif b { y; } else { z; }
}
`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	ifs := body.Stmts[0].(*ast.IfStmt)
	require.NotNil(t, ifs.Else)
	require.Len(t, ifs.Else.Stmts, 1)
	elif, ok := ifs.Else.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, elif.Else)
}

func TestParseWhileAndForStmt(t *testing.T) {
	chunk := parseOK(t, `
fn f() {
	while x { y; }
	for i in xs { z; }
}
`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	require.IsType(t, &ast.WhileStmt{}, body.Stmts[0])
	fs := body.Stmts[1].(*ast.ForStmt)
	require.Equal(t, "i", fs.Name.Name)
}

func TestParseAssignStmt(t *testing.T) {
	chunk := parseOK(t, `fn f() { x = 1; }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	as := body.Stmts[0].(*ast.AssignStmt)
	require.Equal(t, token.EQ, as.Op)
	require.IsType(t, &ast.IdentExpr{}, as.Left)
}

func TestParseStructLiteralDisambiguation(t *testing.T) {
	chunk := parseOK(t, `
fn f() {
	let a = Point{x: 1, y: 2};
	let b = Point{};
	let c = Point{extend a, x: 3};
	if Point { z; }
}
`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body

	a := body.Stmts[0].(*ast.DeclStmt).Value.(*ast.StructLiteralExpr)
	require.Len(t, a.Fields, 2)
	require.Nil(t, a.Extend)

	b := body.Stmts[1].(*ast.DeclStmt).Value.(*ast.StructLiteralExpr)
	require.Empty(t, b.Fields)

	c := body.Stmts[2].(*ast.DeclStmt).Value.(*ast.StructLiteralExpr)
	require.NotNil(t, c.Extend)
	require.Len(t, c.Fields, 1)

	// "Point" followed by a block (not a literal body) in an if-condition
	// position must parse as a bare variable reference, not a struct
	// literal, since nothing in the braces matches the literal-body rule.
	ifs := body.Stmts[3].(*ast.IfStmt)
	require.IsType(t, &ast.IdentExpr{}, ifs.Cond)
}

func TestParseSizeOf(t *testing.T) {
	chunk := parseOK(t, `
fn f() {
	let a = sizeof<i32>;
	let b = sizeof<"target", i32>;
}
`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	a := body.Stmts[0].(*ast.DeclStmt).Value.(*ast.SizeOfExpr)
	require.Equal(t, "", a.Mode)
	require.IsType(t, &ast.IntegerType{}, a.Of)

	b := body.Stmts[1].(*ast.DeclStmt).Value.(*ast.SizeOfExpr)
	require.Equal(t, "target", b.Mode)
}

func TestParseAnnotationExpr(t *testing.T) {
	chunk := parseOK(t, `fn f() { let a = #comptime 1 + 2; }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	ds := body.Stmts[0].(*ast.DeclStmt)
	ann, ok := ds.Value.(*ast.AnnotationExpr)
	require.True(t, ok)
	require.Equal(t, "comptime", ann.Name)
	require.IsType(t, &ast.BinaryExpr{}, ann.X)
}

func TestParsePolymorphExprAndType(t *testing.T) {
	chunk := parseOK(t, `fn f<$T>(x: $T) -> $T { return x; }`)
	fd := chunk.Decls[0].(*ast.FuncDecl)
	require.IsType(t, &ast.PolymorphType{}, fd.Sig.Params[0].Type)
	require.IsType(t, &ast.PolymorphType{}, fd.Sig.Return)
}

func TestParseCIntegerTypes(t *testing.T) {
	chunk := parseOK(t, `fn f(a: c_int, b: unsigned c_long, c: signed c_longlong, d: usize, e: isize);`)
	fd := chunk.Decls[0].(*ast.FuncDecl)
	params := fd.Sig.Params

	ci := params[0].Type.(*ast.CIntegerType)
	require.Equal(t, ast.RankInt, ci.Rank)
	require.Nil(t, ci.Signed)

	cl := params[1].Type.(*ast.CIntegerType)
	require.Equal(t, ast.RankLong, cl.Rank)
	require.False(t, *cl.Signed)

	cll := params[2].Type.(*ast.CIntegerType)
	require.Equal(t, ast.RankLongLong, cll.Rank)
	require.True(t, *cll.Signed)

	require.IsType(t, &ast.SizeIntegerType{}, params[3].Type)
	require.IsType(t, &ast.SizeIntegerType{}, params[4].Type)
}

func TestParseAnonymousAggregateTypes(t *testing.T) {
	chunk := parseOK(t, `
struct S {
	a: struct { x: i32 },
	b: union { y: i32, z: f32 },
	c: enum { A, B },
	d: [4]i32,
	e: fn(i32, i32) -> i32,
}
`)
	_ = chunk
	sd := chunk.Decls[0].(*ast.StructDecl)
	require.Len(t, sd.Fields, 5)
	require.IsType(t, &ast.AnonymousStructType{}, sd.Fields[0].Type)
	require.IsType(t, &ast.AnonymousUnionType{}, sd.Fields[1].Type)
	require.IsType(t, &ast.AnonymousEnumType{}, sd.Fields[2].Type)
	require.IsType(t, &ast.FixedArrayType{}, sd.Fields[3].Type)
	require.IsType(t, &ast.FuncPtrType{}, sd.Fields[4].Type)
}

func TestParseLessThanIsNotGenericArgs(t *testing.T) {
	chunk := parseOK(t, `fn f() { let a = x < y; }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	ds := body.Stmts[0].(*ast.DeclStmt)
	bin, ok := ds.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.LT, bin.Op)
}

func TestParseBinaryOperatorPrecedence(t *testing.T) {
	chunk := parseOK(t, `fn f() { let a = 1 + 2 * 3; }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	bin := body.Stmts[0].(*ast.DeclStmt).Value.(*ast.BinaryExpr)
	require.Equal(t, token.PLUS, bin.Op)
	require.IsType(t, &ast.IntLitExpr{}, bin.Left)
	mul, ok := bin.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, token.STAR, mul.Op)
}

func TestParseUnaryAndCallAndIndexAndSelector(t *testing.T) {
	chunk := parseOK(t, `fn f() { let a = -x.y[0](z); }`)
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	un := body.Stmts[0].(*ast.DeclStmt).Value.(*ast.UnaryExpr)
	require.Equal(t, token.MINUS, un.Op)
	call := un.X.(*ast.CallExpr)
	require.Len(t, call.Args, 1)
	idx := call.Fn.(*ast.IndexExpr)
	sel := idx.X.(*ast.SelectorExpr)
	require.Equal(t, "y", sel.Sel.Name)
}

func TestParseErrorRecoveryProducesBadDeclAndContinues(t *testing.T) {
	chunk, sink := parse(t, `fn ) broken ( struct Ok { a: i32 }`)
	require.NotEmpty(t, sink.Items())
	require.Len(t, chunk.Decls, 2)
	require.IsType(t, &ast.BadDecl{}, chunk.Decls[0])
	sd, ok := chunk.Decls[1].(*ast.StructDecl)
	require.True(t, ok)
	require.Equal(t, "Ok", sd.Name.Name)
}

func TestParseErrorRecoveryInStatement(t *testing.T) {
	chunk, sink := parse(t, `fn f() { let = ; return 1; }`)
	require.NotEmpty(t, sink.Items())
	body := chunk.Decls[0].(*ast.FuncDecl).Body
	var sawReturn bool
	for _, s := range body.Stmts {
		if r, ok := s.(*ast.ReturnLikeStmt); ok {
			sawReturn = true
			require.Equal(t, token.RETURN, r.Kind)
		}
	}
	require.True(t, sawReturn)
}

func TestParseFilesAcrossMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.ad")
	f2 := filepath.Join(dir, "b.ad")
	require.NoError(t, os.WriteFile(f1, []byte(`struct A { x: i32 }`), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte(`struct B { y: i32 }`), 0o644))

	var sink diag.List
	fset, chunks, err := ParseFiles(context.Background(), &sink, f1, f2)
	require.NoError(t, err)
	require.NotNil(t, fset)
	require.Len(t, chunks, 2)
	require.Equal(t, "A", chunks[0].Decls[0].(*ast.StructDecl).Name.Name)
	require.Equal(t, "B", chunks[1].Decls[0].(*ast.StructDecl).Name.Name)
}
