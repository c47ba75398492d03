package diag

import (
	"testing"

	"github.com/mna/adeptc/lang/token"
	"github.com/stretchr/testify/require"
)

func TestListSortAndErr(t *testing.T) {
	var l List
	require.NoError(t, l.Err())

	l.Add(token.Position{Filename: "b.c", Offset: 5}, "second")
	l.Add(token.Position{Filename: "a.c", Offset: 1}, "first")
	l.Report(Diagnostic{Severity: Warning, Message: "just a warning"})

	l.Sort()
	require.True(t, l.HasErrors())

	err := l.Err()
	require.Error(t, err)

	var ue interface{ Unwrap() []error }
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Unwrap(), 3)

	items := l.Items()
	require.Equal(t, "", items[0].Pos.Filename)
	require.Equal(t, "a.c", items[1].Pos.Filename)
	require.Equal(t, "b.c", items[2].Pos.Filename)
}

func TestListNoErrors(t *testing.T) {
	var l List
	l.Report(Diagnostic{Severity: Warning, Message: "w"})
	require.False(t, l.HasErrors())
	require.NoError(t, l.Err())
}
