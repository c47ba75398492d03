package cpp

import (
	"testing"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func processSrc(t *testing.T, src string, files SourceFiles) (string, *diag.List) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("t.c", len(src))
	var sink diag.List
	l := NewLexer(f, []byte(src), &sink)
	raw := l.Tokens()

	pp := NewPreprocessor(NewEnvironment(), files, &sink)
	out := pp.ProcessFile(f, fset, raw)
	return joinText(out), &sink
}

func TestDirectiveDefineAndExpand(t *testing.T) {
	out, sink := processSrc(t, "#define TWO 2\nTWO + TWO", nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "2 + 2", out)
}

func TestDirectiveIfTrue(t *testing.T) {
	out, sink := processSrc(t, "#if 1\nyes\n#else\nno\n#endif", nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "yes", out)
}

func TestDirectiveIfFalseElse(t *testing.T) {
	out, sink := processSrc(t, "#if 0\nyes\n#else\nno\n#endif", nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "no", out)
}

func TestDirectiveElif(t *testing.T) {
	src := "#if 0\na\n#elif 1\nb\n#elif 1\nc\n#else\nd\n#endif"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "b", out)
}

func TestDirectiveIfdefIfndef(t *testing.T) {
	src := "#define X\n#ifdef X\na\n#endif\n#ifndef Y\nb\n#endif"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "a b", out)
}

func TestDirectiveDefinedOperator(t *testing.T) {
	src := "#define X\n#if defined(X) && !defined(Y)\na\n#endif"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "a", out)
}

func TestDirectiveNestedIf(t *testing.T) {
	src := "#if 1\n#if 0\na\n#else\nb\n#endif\n#endif"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "b", out)
}

func TestDirectiveUndef(t *testing.T) {
	src := "#define X 1\n#undef X\n#ifdef X\na\n#else\nb\n#endif"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "b", out)
}

func TestDirectiveFunctionMacroAcrossDefine(t *testing.T) {
	src := "#define ADD(a, b) ((a) + (b))\nADD(1, 2)"
	out, sink := processSrc(t, src, nil)
	require.False(t, sink.HasErrors())
	require.Equal(t, "( ( 1 ) + ( 2 ) )", out)
}

func TestDirectiveUnterminatedIfReportsError(t *testing.T) {
	_, sink := processSrc(t, "#if 1\na", nil)
	require.True(t, sink.HasErrors())
}

func TestDirectiveElseWithoutIfReportsError(t *testing.T) {
	_, sink := processSrc(t, "#else\na\n#endif", nil)
	require.True(t, sink.HasErrors())
}

func TestDirectiveError(t *testing.T) {
	_, sink := processSrc(t, "#error boom", nil)
	require.True(t, sink.HasErrors())
}

type fakeFiles struct {
	files map[string][]byte
}

func (f fakeFiles) Resolve(_ string, spelling string, _ bool) (string, []byte, bool) {
	b, ok := f.files[spelling]
	return spelling, b, ok
}

func TestDirectiveIncludeNotFoundReportsError(t *testing.T) {
	_, sink := processSrc(t, `#include "missing.h"`, fakeFiles{files: map[string][]byte{}})
	require.True(t, sink.HasErrors())
}

func TestDirectiveIncludeFoundNoError(t *testing.T) {
	files := fakeFiles{files: map[string][]byte{"found.h": []byte("int x;")}}
	_, sink := processSrc(t, `#include "found.h"`, files)
	require.False(t, sink.HasErrors())
}

func TestPreprocessorHasInclude(t *testing.T) {
	files := fakeFiles{files: map[string][]byte{"a.h": []byte("")}}
	pp := NewPreprocessor(NewEnvironment(), files, nil)
	pp.currentFile = "main.c"
	require.Equal(t, 1, pp.HasInclude("a.h", false))
	require.Equal(t, 0, pp.HasInclude("b.h", false))
}

func TestInstallPredefined(t *testing.T) {
	pp := NewPreprocessor(NewEnvironment(), nil, nil)
	pp.InstallPredefined("202311", 64, false, 64, "Jan  1 2026", "00:00:00")
	d, ok := pp.Env.Lookup("__POINTER_WIDTH__")
	require.True(t, ok)
	require.Equal(t, "64", d.Body[0].Text)
}
