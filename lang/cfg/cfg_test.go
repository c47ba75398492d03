package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/cfg"
)

func TestGraphPushGetSet(t *testing.T) {
	g := cfg.NewGraph()
	start := g.Push(&cfg.StartNode{Label: "main"})
	g.Start = start
	require.Equal(t, 1, g.Len())

	lit := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.Integer{Bits: 32, Signed: true}})
	g.Set(start, &cfg.StartNode{Label: "main", Next: lit})

	n := g.Get(start).(*cfg.StartNode)
	require.Equal(t, lit, n.Next)
}

func TestCursorAtStartAndDone(t *testing.T) {
	start := cfg.NodeIdx{}
	c := cfg.AtStart(start)
	require.False(t, c.Done())
	require.True(t, cfg.Terminated.Done())
}

func TestResolveJoinConformToCommonType(t *testing.T) {
	g := cfg.NewGraph()
	a := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.IntegerLiteral{Value: 1}})
	b := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.IntegerLiteral{Value: 5}})
	join := g.Push(&cfg.SequentialNode{
		Kind: cfg.JoinNKind,
		JoinInputs: []cfg.JoinInput{
			{Position: 0, Ref: a},
			{Position: 1, Ref: b},
		},
		Conform: cfg.ConformToCommonType,
	})

	got, err := g.ResolveJoin(join, targetcfg.Default())
	require.NoError(t, err)
	require.Equal(t, asg.IntegerLiteralInRange{Min: 1, Max: 5}, got)
}

func TestResolveJoinConformNoneRequiresAgreement(t *testing.T) {
	g := cfg.NewGraph()
	a := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.Boolean{}})
	b := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.Void{}})
	join := g.Push(&cfg.SequentialNode{
		Kind: cfg.JoinNKind,
		JoinInputs: []cfg.JoinInput{
			{Position: 0, Ref: a},
			{Position: 1, Ref: b},
		},
		Conform: cfg.ConformNone,
	})

	_, err := g.ResolveJoin(join, targetcfg.Default())
	require.ErrorIs(t, err, cfg.ErrJoinInputsDisagree)
}

func TestResolveJoin1ForwardsOperandType(t *testing.T) {
	g := cfg.NewGraph()
	a := g.Push(&cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.Boolean{}})
	join := g.Push(&cfg.SequentialNode{Kind: cfg.Join1Kind, Join1Ref: a})

	got, err := g.ResolveJoin(join, targetcfg.Default())
	require.NoError(t, err)
	require.Equal(t, asg.Boolean{}, got)
}

func TestBorrowBirthMoveOut(t *testing.T) {
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	require.Equal(t, cfg.Owned, o.State)
	require.NoError(t, o.MoveOut())
	require.Equal(t, cfg.Moved, o.State)
}

func TestBorrowMoveOutRequiresNoReferrers(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r := alloc.New(false)
	require.NoError(t, o.BorrowImmutable(r))
	require.ErrorIs(t, o.MoveOut(), cfg.ErrMoveRequiresNoReferrers)
}

func TestBorrowMutableExcludesImmutable(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r1 := alloc.New(false)
	require.NoError(t, o.BorrowImmutable(r1))
	r2 := alloc.New(true)
	require.ErrorIs(t, o.BorrowMutable(r2), cfg.ErrBorrowMutableConflict)
}

func TestBorrowImmutableExcludesMutable(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r1 := alloc.New(true)
	require.NoError(t, o.BorrowMutable(r1))
	r2 := alloc.New(false)
	require.ErrorIs(t, o.BorrowImmutable(r2), cfg.ErrBorrowImmutableConflict)
}

func TestBorrowFinalizeDeathStillBorrowed(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r := alloc.New(false)
	require.NoError(t, o.BorrowImmutable(r))
	require.ErrorIs(t, o.FinalizeDeath(), cfg.ErrStillBorrowedAfterDeath)
}

func TestBorrowFinalizeDeathClean(t *testing.T) {
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	require.NoError(t, o.FinalizeDeath())
	require.Equal(t, cfg.Dead, o.State)
}

func TestStartDeathOfReferenceClearsReferrer(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r := alloc.New(false)
	require.NoError(t, o.BorrowImmutable(r))

	p := &cfg.Point{Origins: []cfg.Origin{o}}
	p.StartDeathOfReference(r)
	require.NoError(t, p.Origins[0].FinalizeDeath())
}

func TestPointForkIndependentCopies(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	o := cfg.NewOrigin()
	require.NoError(t, o.Birth())
	r := alloc.New(false)
	require.NoError(t, o.BorrowImmutable(r))

	p := cfg.Point{Origins: []cfg.Origin{o}}
	forked := p.Fork()

	forked.Origins[0].PotentialImmutableReferrers.Remove(r)
	require.True(t, p.Origins[0].PotentialImmutableReferrers.Has(r), "fork must not alias the original's referrer set")
	require.False(t, forked.Origins[0].PotentialImmutableReferrers.Has(r))
}

func TestJoinOriginsAllDead(t *testing.T) {
	joined, drops := cfg.JoinOrigins([]cfg.Origin{cfg.NewOrigin(), cfg.NewOrigin()})
	require.Equal(t, cfg.Dead, joined.State)
	require.Nil(t, drops)
}

func TestJoinOriginsCommonState(t *testing.T) {
	a := cfg.NewOrigin()
	require.NoError(t, a.Birth())
	b := cfg.NewOrigin()
	require.NoError(t, b.Birth())

	joined, drops := cfg.JoinOrigins([]cfg.Origin{a, b})
	require.Equal(t, cfg.Owned, joined.State)
	require.Nil(t, drops)
}

func TestJoinOriginsDisagreeDegradesToMovedWithDrops(t *testing.T) {
	owned := cfg.NewOrigin()
	require.NoError(t, owned.Birth())
	moved := cfg.NewOrigin()
	require.NoError(t, moved.Birth())
	require.NoError(t, moved.MoveOut())

	joined, drops := cfg.JoinOrigins([]cfg.Origin{owned, moved})
	require.Equal(t, cfg.Moved, joined.State)
	require.Equal(t, []int{0}, drops)
}

func TestJoinOriginsIntersectsReferrerSets(t *testing.T) {
	var alloc cfg.ReferrerAllocator
	shared := alloc.New(false)
	onlyA := alloc.New(false)

	a := cfg.NewOrigin()
	require.NoError(t, a.Birth())
	require.NoError(t, a.BorrowImmutable(shared))
	require.NoError(t, a.BorrowImmutable(onlyA))

	b := cfg.NewOrigin()
	require.NoError(t, b.Birth())
	require.NoError(t, b.BorrowImmutable(shared))

	joined, _ := cfg.JoinOrigins([]cfg.Origin{a, b})
	require.True(t, joined.PotentialImmutableReferrers.Has(shared))
	require.False(t, joined.PotentialImmutableReferrers.Has(onlyA))
}
