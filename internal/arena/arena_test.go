package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fooKind struct{}

func TestArenaPushGet(t *testing.T) {
	a := New[fooKind, string]()

	ix1 := a.Push("one")
	ix2 := a.Push("two")

	require.True(t, ix1.Valid())
	require.True(t, ix2.Valid())
	require.Equal(t, "one", a.Get(ix1))
	require.Equal(t, "two", a.Get(ix2))
	require.Equal(t, 2, a.Len())
}

func TestArenaZeroIdxInvalid(t *testing.T) {
	var zero Idx[fooKind, string]
	require.False(t, zero.Valid())
}

func TestArenaSet(t *testing.T) {
	a := New[fooKind, string]()
	ix := a.Push("placeholder")
	a.Set(ix, "final")
	require.Equal(t, "final", a.Get(ix))
}

func TestArenaAll(t *testing.T) {
	a := New[fooKind, string]()
	a.Push("a")
	a.Push("b")
	a.Push("c")

	var got []string
	a.All(func(ix Idx[fooKind, string], v string) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []string{"a", "b", "c"}, got)

	got = nil
	a.All(func(ix Idx[fooKind, string], v string) bool {
		got = append(got, v)
		return len(got) < 2
	})
	require.Equal(t, []string{"a", "b"}, got)
}
