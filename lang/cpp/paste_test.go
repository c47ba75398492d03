package cpp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasteIdentIdent(t *testing.T) {
	tok, err := pasteTokens(Token{Kind: Identifier, Text: "foo"}, Token{Kind: Identifier, Text: "bar"})
	require.NoError(t, err)
	require.Equal(t, Identifier, tok.Kind)
	require.Equal(t, "foobar", tok.Text)
}

func TestPasteIdentNumber(t *testing.T) {
	tok, err := pasteTokens(Token{Kind: Identifier, Text: "v"}, Token{Kind: Number, Text: "2"})
	require.NoError(t, err)
	require.Equal(t, Identifier, tok.Kind)
	require.Equal(t, "v2", tok.Text)
}

func TestPasteNumberNumber(t *testing.T) {
	tok, err := pasteTokens(Token{Kind: Number, Text: "1"}, Token{Kind: Number, Text: "2"})
	require.NoError(t, err)
	require.Equal(t, Number, tok.Kind)
	require.Equal(t, "12", tok.Text)
}

func TestPasteStringString(t *testing.T) {
	tok, err := pasteTokens(
		Token{Kind: String, Text: `"foo"`, Encoding: Default},
		Token{Kind: String, Text: `"bar"`, Encoding: Default},
	)
	require.NoError(t, err)
	require.Equal(t, String, tok.Kind)
	require.Equal(t, `"foobar"`, tok.Text)
}

func TestPasteIncompatibleIsError(t *testing.T) {
	_, err := pasteTokens(Token{Kind: Punct, Text: "+"}, Token{Kind: Identifier, Text: "x"})
	require.Error(t, err)
}

func TestResolvePasteMalformedEdgeKeptLiteral(t *testing.T) {
	toks := []Token{{Kind: Punct, Text: "##"}, {Kind: Identifier, Text: "x"}}
	out := resolvePaste(toks)
	require.Equal(t, "##", out[0].Text)
}
