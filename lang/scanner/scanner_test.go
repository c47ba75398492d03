package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value, []string) {
	t.Helper()

	var errs []string
	fs := token.NewFileSet()
	f := fs.AddFile("test.ad", len(src))

	var s Scanner
	s.Init(f, []byte(src), func(pos token.Source, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	return toks, vals, errs
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks, _, errs := scanAll(t, `+ - * / % & | ^ << >> ~ ! . ... , = ; : :: -> ( ) [ ] { } < > >= <= == != && || #`)
	require.Empty(t, errs)
	want := []token.Token{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.AMPERSAND, token.PIPE, token.CIRCUMFLEX, token.LTLT, token.GTGT,
		token.TILDE, token.BANG, token.DOT, token.DOTDOTDOT, token.COMMA,
		token.EQ, token.SEMI, token.COLON, token.COLONCOLON, token.ARROW,
		token.LPAREN, token.RPAREN, token.LBRACK, token.RBRACK, token.LBRACE,
		token.RBRACE, token.LT, token.GT, token.GE, token.LE, token.EQEQ,
		token.NEQ, token.ANDAND, token.OROR, token.HASH, token.EOF,
	}
	require.Equal(t, want, toks)
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks, vals, errs := scanAll(t, `fn struct foo bar_baz while`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.FN, token.STRUCT, token.IDENT, token.IDENT, token.WHILE, token.EOF}, toks)
	require.Equal(t, "foo", vals[2].Raw)
	require.Equal(t, "bar_baz", vals[3].Raw)
}

func TestScanPolymorphReference(t *testing.T) {
	toks, vals, errs := scanAll(t, `$T`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.POLY, token.EOF}, toks)
	require.Equal(t, "T", vals[0].Raw)
}

func TestScanIntegerLiterals(t *testing.T) {
	toks, vals, errs := scanAll(t, `0 42 0x1F 0o17 0b101 1_000`)
	require.Empty(t, errs)
	for _, tok := range toks[:len(toks)-1] {
		require.Equal(t, token.INT, tok)
	}
	require.Equal(t, int64(0), vals[0].Int)
	require.Equal(t, int64(42), vals[1].Int)
	require.Equal(t, int64(0x1F), vals[2].Int)
	require.Equal(t, int64(017), vals[3].Int)
	require.Equal(t, int64(0b101), vals[4].Int)
	require.Equal(t, int64(1000), vals[5].Int)
}

func TestScanFloatLiterals(t *testing.T) {
	toks, vals, errs := scanAll(t, `1.5 1.0e10 .5`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.FLOAT, token.FLOAT, token.FLOAT, token.EOF}, toks)
	require.Equal(t, 1.5, vals[0].Float)
	require.Equal(t, 1.0e10, vals[1].Float)
	require.Equal(t, 0.5, vals[2].Float)
}

func TestScanStringLiteralsAndEscapes(t *testing.T) {
	toks, vals, errs := scanAll(t, `"hello" "a\nb" "\x41" "A" "\101"`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.STRING, token.STRING, token.STRING, token.STRING, token.STRING, token.EOF}, toks)
	require.Equal(t, "hello", vals[0].Str)
	require.Equal(t, "a\nb", vals[1].Str)
	require.Equal(t, "A", vals[2].Str)
	require.Equal(t, "A", vals[3].Str)
	require.Equal(t, "A", vals[4].Str)
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	_, _, errs := scanAll(t, `"abc`)
	require.NotEmpty(t, errs)
}

func TestScanCommentsAreSkipped(t *testing.T) {
	toks, _, errs := scanAll(t, "// a line comment\nfn /* a block\ncomment */ foo")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.FN, token.IDENT, token.EOF}, toks)
}

func TestScanUnterminatedBlockCommentReportsError(t *testing.T) {
	_, _, errs := scanAll(t, `/* never closed`)
	require.NotEmpty(t, errs)
}

func TestScanIllegalCharacterReportsError(t *testing.T) {
	toks, _, errs := scanAll(t, "`")
	require.NotEmpty(t, errs)
	require.Equal(t, []token.Token{token.ILLEGAL, token.EOF}, toks)
}

func TestScanFilesAccumulatesPerFileTokens(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.ad")
	f2 := filepath.Join(dir, "b.ad")
	require.NoError(t, os.WriteFile(f1, []byte("fn foo"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("let x"), 0o644))

	var sink diag.List
	fs, byFile, err := ScanFiles(context.Background(), &sink, f1, f2)
	require.NoError(t, err)
	require.NotNil(t, fs)
	require.Len(t, byFile, 2)
	require.Equal(t, token.FN, byFile[0][0].Token)
	require.Equal(t, token.LET, byFile[1][0].Token)
}
