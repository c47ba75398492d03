package ast

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func TestFuncDeclFormatNoBody(t *testing.T) {
	fd := &FuncDecl{
		Sig: &FuncSignature{Name: &IdentExpr{Name: "add"}},
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%v", fd)
	require.Equal(t, "fn add (no body)", buf.String())
}

func TestFuncDeclWalkVisitsParamsAndBody(t *testing.T) {
	fd := &FuncDecl{
		Sig: &FuncSignature{
			Name: &IdentExpr{Name: "add"},
			Params: []*ParamDecl{
				{Name: &IdentExpr{Name: "a"}, Type: &IntegerType{Bits: 32, Signed: true}},
			},
			Return: &IntegerType{Bits: 32, Signed: true},
		},
		Body: &Block{Stmts: []Stmt{&ExprStmt{X: &IdentExpr{Name: "a"}}}},
	}
	var cv countingVisitor
	Walk(&cv, fd)
	// fn, name, param name, param type, return type, block, exprstmt, ident
	require.Equal(t, 8, cv.enters)
}

func TestImplDeclInherentFormat(t *testing.T) {
	impl := &ImplDecl{For: &NamedType{Name: &IdentExpr{Name: "Point"}}}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%v", impl)
	require.Equal(t, "impl", buf.String())
}

func TestImplDeclTraitFormat(t *testing.T) {
	impl := &ImplDecl{
		Trait: &NamedType{Name: &IdentExpr{Name: "Eq"}},
		For:   &NamedType{Name: &IdentExpr{Name: "Point"}},
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%v", impl)
	require.Equal(t, "impl Eq for", buf.String())
}

func TestEnumDeclWalk(t *testing.T) {
	ed := &EnumDecl{
		Name: &IdentExpr{Name: "Color"},
		Members: []*EnumMemberDecl{
			{Name: &IdentExpr{Name: "Red"}},
			{Name: &IdentExpr{Name: "Green"}, Value: &IntLitExpr{Value: 1}},
		},
	}
	var cv countingVisitor
	Walk(&cv, ed)
	// enum, name, Red name, Green name, Green value
	require.Equal(t, 5, cv.enters)
}

func TestTraitDeclFormat(t *testing.T) {
	td := &TraitDecl{
		Name: &IdentExpr{Name: "Eq"},
		Methods: []*FuncSignature{
			{Name: &IdentExpr{Name: "eq"}},
		},
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%#v", td)
	require.Equal(t, "trait Eq {methods=1}", buf.String())
}

func TestFuncDeclVisibility(t *testing.T) {
	fd := &FuncDecl{Vis: token.PUB, Sig: &FuncSignature{Name: &IdentExpr{Name: "f"}}}
	require.Equal(t, token.PUB, fd.Vis)
}
