package typesys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/typesys"
)

func target() targetcfg.Target { return targetcfg.Default() }

func TestUnifyIdentical(t *testing.T) {
	got, err := typesys.Unify(target(), asg.Boolean{}, asg.Boolean{})
	require.NoError(t, err)
	require.Equal(t, asg.Boolean{}, got)
}

func TestUnifyIntegerLiterals(t *testing.T) {
	got, err := typesys.Unify(target(), asg.IntegerLiteral{Value: 1}, asg.IntegerLiteral{Value: 1})
	require.NoError(t, err)
	require.Equal(t, asg.IntegerLiteral{Value: 1}, got)

	got, err = typesys.Unify(target(), asg.IntegerLiteral{Value: 1}, asg.IntegerLiteral{Value: 5})
	require.NoError(t, err)
	require.Equal(t, asg.IntegerLiteralInRange{Min: 1, Max: 5}, got)
}

func TestUnifyFloatLiterals(t *testing.T) {
	got, err := typesys.Unify(target(), asg.FloatLiteral{Value: 1}, asg.FloatLiteral{Value: 2})
	require.NoError(t, err)
	require.Equal(t, asg.Floating{Bits: ast.Bits64}, got)
}

func TestUnifyIntegerLiteralAndFloatLiteral(t *testing.T) {
	got, err := typesys.Unify(target(), asg.IntegerLiteral{Value: 1}, asg.FloatLiteral{Value: 2})
	require.NoError(t, err)
	require.Equal(t, asg.Floating{Bits: ast.Bits64}, got)
}

func TestUnifyConcreteIntegersDifferentWidths(t *testing.T) {
	got, err := typesys.Unify(target(), asg.Integer{Bits: 8, Signed: true}, asg.Integer{Bits: 32, Signed: true})
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 32, Signed: true}, got)
}

func TestUnifySameWidthDifferentSignPromotes(t *testing.T) {
	got, err := typesys.Unify(target(), asg.Integer{Bits: 32, Signed: false}, asg.Integer{Bits: 32, Signed: true})
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 33, Signed: true}, got)
}

func TestUnifyCIntegerLooseResult(t *testing.T) {
	signed := true
	got, err := typesys.Unify(target(), asg.CInteger{Rank: ast.RankInt, Signed: &signed}, asg.Integer{Bits: 8, Signed: true})
	require.NoError(t, err)
	ci, ok := got.(asg.CInteger)
	require.True(t, ok)
	require.Equal(t, ast.RankInt, ci.Rank)
}

func TestUnifyF32AndFloatLiteral(t *testing.T) {
	got, err := typesys.Unify(target(), asg.Floating{Bits: ast.Bits32}, asg.FloatLiteral{Value: 1})
	require.NoError(t, err)
	require.Equal(t, asg.Floating{Bits: ast.Bits32}, got)
}

func TestUnifyPointersUnifyTheirElementTypes(t *testing.T) {
	a := asg.Pointer{Elem: asg.Integer{Bits: 8, Signed: true}}
	b := asg.Pointer{Elem: asg.Integer{Bits: 32, Signed: true}}
	got, err := typesys.Unify(target(), a, b)
	require.NoError(t, err)
	require.Equal(t, asg.Pointer{Elem: asg.Integer{Bits: 32, Signed: true}}, got)
}

func TestUnifyDropsNever(t *testing.T) {
	got, err := typesys.Unify(target(), asg.Never{}, asg.Boolean{})
	require.NoError(t, err)
	require.Equal(t, asg.Boolean{}, got)
}

func TestUnifyNoRuleErrors(t *testing.T) {
	_, err := typesys.Unify(target(), asg.Boolean{}, asg.Void{})
	require.ErrorIs(t, err, typesys.ErrNoUnifier)
}

func TestConformIntegerLiteralFitsTarget(t *testing.T) {
	got, err := typesys.Conform(target(), asg.IntegerLiteral{Value: 10}, asg.Integer{Bits: 8, Signed: true}, typesys.Explicit)
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 8, Signed: true}, got)
}

func TestConformIntegerLiteralOverflowsRejected(t *testing.T) {
	_, err := typesys.Conform(target(), asg.IntegerLiteral{Value: 1000}, asg.Integer{Bits: 8, Signed: true}, typesys.ParameterPassing)
	require.ErrorIs(t, err, typesys.ErrNoConform)
}

func TestConformWideningIsImplicit(t *testing.T) {
	got, err := typesys.Conform(target(), asg.Integer{Bits: 8, Signed: true}, asg.Integer{Bits: 32, Signed: true}, typesys.ParameterPassing)
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 32, Signed: true}, got)
}

func TestConformNarrowingRejectedImplicitly(t *testing.T) {
	_, err := typesys.Conform(target(), asg.Integer{Bits: 32, Signed: true}, asg.Integer{Bits: 8, Signed: true}, typesys.ParameterPassing)
	require.ErrorIs(t, err, typesys.ErrNoConform)
}

func TestConformExplicitNarrowingAllowed(t *testing.T) {
	got, err := typesys.Conform(target(), asg.Integer{Bits: 32, Signed: true}, asg.Integer{Bits: 8, Signed: true}, typesys.Explicit)
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 8, Signed: true}, got)
}

func TestConformBoolToIntegerRequiresExplicit(t *testing.T) {
	_, err := typesys.Conform(target(), asg.Boolean{}, asg.Integer{Bits: 32, Signed: true}, typesys.ParameterPassing)
	require.ErrorIs(t, err, typesys.ErrNoConform)

	got, err := typesys.Conform(target(), asg.Boolean{}, asg.Integer{Bits: 32, Signed: true}, typesys.Explicit)
	require.NoError(t, err)
	require.Equal(t, asg.Integer{Bits: 32, Signed: true}, got)
}

func TestConformFloatExtendOnly(t *testing.T) {
	got, err := typesys.Conform(target(), asg.Floating{Bits: ast.Bits32}, asg.Floating{Bits: ast.Bits64}, typesys.ParameterPassing)
	require.NoError(t, err)
	require.Equal(t, asg.Floating{Bits: ast.Bits64}, got)

	_, err = typesys.Conform(target(), asg.Floating{Bits: ast.Bits64}, asg.Floating{Bits: ast.Bits32}, typesys.ParameterPassing)
	require.ErrorIs(t, err, typesys.ErrNoConform)
}

func TestPolySubstituteSimple(t *testing.T) {
	cat := typesys.PolyCatalog{"T": asg.Integer{Bits: 32, Signed: true}}
	got := typesys.Substitute(asg.Pointer{Elem: asg.Polymorph{Name: "T"}}, cat)
	require.Equal(t, asg.Pointer{Elem: asg.Integer{Bits: 32, Signed: true}}, got)
}

func TestPolySubstituteLeavesUnboundPolymorph(t *testing.T) {
	cat := typesys.PolyCatalog{}
	got := typesys.Substitute(asg.Polymorph{Name: "T"}, cat)
	require.Equal(t, asg.Polymorph{Name: "T"}, got)
}

func TestPolyRecipeBake(t *testing.T) {
	recipe := typesys.PolyRecipe{asg.Boolean{}, asg.Void{}}
	cat := recipe.Bake([]string{"T", "U", "V"})
	require.Equal(t, asg.Boolean{}, cat["T"])
	require.Equal(t, asg.Void{}, cat["U"])
	_, ok := cat["V"]
	require.False(t, ok)
}
