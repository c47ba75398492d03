package cpp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func evalStr(t *testing.T, src string) int64 {
	t.Helper()
	toks := tokenize(t, src)
	expr, errMsg := ParseConstExpr(toks)
	require.Empty(t, errMsg)
	return Eval(expr, NewEnvironment())
}

func TestConstExprArithmetic(t *testing.T) {
	require.EqualValues(t, 7, evalStr(t, "1 + 2 * 3"))
	require.EqualValues(t, 9, evalStr(t, "(1 + 2) * 3"))
}

func TestConstExprShortCircuit(t *testing.T) {
	require.EqualValues(t, 1, evalStr(t, "1 || (1 / 0)"))
	require.EqualValues(t, 0, evalStr(t, "0 && (1 / 0)"))
}

func TestConstExprTernary(t *testing.T) {
	require.EqualValues(t, 2, evalStr(t, "1 ? 2 : 3"))
	require.EqualValues(t, 3, evalStr(t, "0 ? 2 : 3"))
}

func TestConstExprTernaryRightAssociative(t *testing.T) {
	require.EqualValues(t, 2, evalStr(t, "1 ? 2 : 0 ? 3 : 4"))
	require.EqualValues(t, 4, evalStr(t, "0 ? 2 : 0 ? 3 : 4"))
}

func TestConstExprRadix(t *testing.T) {
	require.EqualValues(t, 255, evalStr(t, "0xFF"))
	require.EqualValues(t, 8, evalStr(t, "010"))
	require.EqualValues(t, 10, evalStr(t, "10"))
}

func TestConstExprUnary(t *testing.T) {
	require.EqualValues(t, -5, evalStr(t, "-5"))
	require.EqualValues(t, 1, evalStr(t, "!0"))
	require.EqualValues(t, 0, evalStr(t, "!5"))
	require.EqualValues(t, -1, evalStr(t, "~0"))
}

func TestConstExprUndeclaredIdentIsZero(t *testing.T) {
	require.EqualValues(t, 0, evalStr(t, "UNDECLARED"))
	require.EqualValues(t, 1, evalStr(t, "true"))
}

func TestConstExprComparisons(t *testing.T) {
	require.EqualValues(t, 1, evalStr(t, "3 < 5"))
	require.EqualValues(t, 0, evalStr(t, "5 <= 3"))
	require.EqualValues(t, 1, evalStr(t, "4 == 4"))
}

func TestConstExprTrailingTokensError(t *testing.T) {
	toks := tokenize(t, "1 2")
	_, errMsg := ParseConstExpr(toks)
	require.NotEmpty(t, errMsg)
}
