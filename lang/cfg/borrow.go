package cfg

import "errors"

// ReferrerIdx identifies one borrow site, tagged by mutability and
// unique within the function being checked (spec section 4.5).
type ReferrerIdx struct {
	N       int
	Mutable bool
}

// ReferrerAllocator hands out unique ReferrerIdx values for one
// function's borrow check.
type ReferrerAllocator struct{ next int }

// New returns a fresh ReferrerIdx tagged mutable or immutable.
func (a *ReferrerAllocator) New(mutable bool) ReferrerIdx {
	a.next++
	return ReferrerIdx{N: a.next, Mutable: mutable}
}

// BitSet is a set of ReferrerIdx, the "potential referrers" set an
// Origin carries (spec section 4.5). Backed by a map rather than
// actual bits: referrer counts per function are small and a map keeps
// Intersect/Remove straightforward without a separate bit-width bound.
type BitSet map[ReferrerIdx]struct{}

// NewBitSet returns a BitSet containing rs.
func NewBitSet(rs ...ReferrerIdx) BitSet {
	b := make(BitSet, len(rs))
	for _, r := range rs {
		b[r] = struct{}{}
	}
	return b
}

func (b BitSet) Add(r ReferrerIdx)    { b[r] = struct{}{} }
func (b BitSet) Remove(r ReferrerIdx) { delete(b, r) }
func (b BitSet) Has(r ReferrerIdx) bool {
	_, ok := b[r]
	return ok
}
func (b BitSet) Len() int { return len(b) }

// Clone returns an independent copy of b.
func (b BitSet) Clone() BitSet {
	out := make(BitSet, len(b))
	for r := range b {
		out[r] = struct{}{}
	}
	return out
}

// Intersect returns the set of referrers present in every set in bs
// (spec section 4.5's join rule: "potential referrers must survive all
// incoming edges"). Returns an empty, non-nil BitSet if bs is empty.
func Intersect(bs ...BitSet) BitSet {
	if len(bs) == 0 {
		return NewBitSet()
	}
	out := bs[0].Clone()
	for _, b := range bs[1:] {
		for r := range out {
			if !b.Has(r) {
				delete(out, r)
			}
		}
	}
	return out
}

// OriginState is an Origin's lifecycle state (spec section 4.5).
type OriginState int

const (
	Dead OriginState = iota
	Owned
	Moved
)

func (s OriginState) String() string {
	switch s {
	case Dead:
		return "Dead"
	case Owned:
		return "Owned"
	case Moved:
		return "Moved"
	default:
		return "OriginState(?)"
	}
}

// Origin tracks one storage location's ownership and borrow state at a
// single program point (spec section 4.5).
type Origin struct {
	State                       OriginState
	PotentialImmutableReferrers BitSet
	PotentialMutableReferrers   BitSet

	// IsReference is set when this origin is itself a reference value;
	// its target is the referrer index it occupies in whatever origin(s)
	// it currently points to, used by Start-death to find what to clear.
	IsReference *ReferrerIdx
}

// NewOrigin returns a Dead origin with empty referrer sets, the state
// every local variable's storage starts in before its declaration point
// runs Birth.
func NewOrigin() Origin {
	return Origin{State: Dead, PotentialImmutableReferrers: NewBitSet(), PotentialMutableReferrers: NewBitSet()}
}

var (
	ErrBirthRequiresDead          = errors.New("cfg: birth requires a Dead origin with no referrers")
	ErrMoveRequiresNoReferrers    = errors.New("cfg: move-out requires an Owned origin with no referrers")
	ErrBorrowMutableConflict      = errors.New("cfg: mutable borrow conflicts with an existing borrow")
	ErrBorrowImmutableConflict    = errors.New("cfg: immutable borrow conflicts with an existing mutable borrow")
	ErrStillBorrowedAfterDeath    = errors.New("cfg: origin still borrowed at death")
)

// Birth transitions o from Dead to Owned (spec section 4.5).
func (o *Origin) Birth() error {
	if o.State != Dead || o.PotentialImmutableReferrers.Len() != 0 || o.PotentialMutableReferrers.Len() != 0 {
		return ErrBirthRequiresDead
	}
	o.State = Owned
	return nil
}

// MoveOut transitions o from Owned to Moved, requiring no outstanding
// referrers (spec section 4.5).
func (o *Origin) MoveOut() error {
	if o.State != Owned || o.PotentialImmutableReferrers.Len() != 0 || o.PotentialMutableReferrers.Len() != 0 {
		return ErrMoveRequiresNoReferrers
	}
	o.State = Moved
	return nil
}

// BorrowImmutable records r as a potential immutable referrer of o,
// rejecting it if a mutable borrow is outstanding (spec section 4.5).
func (o *Origin) BorrowImmutable(r ReferrerIdx) error {
	if o.PotentialMutableReferrers.Len() != 0 {
		return ErrBorrowImmutableConflict
	}
	o.PotentialImmutableReferrers.Add(r)
	return nil
}

// BorrowMutable records r as o's sole potential mutable referrer,
// rejecting it if any borrow, mutable or immutable, is outstanding
// (spec section 4.5).
func (o *Origin) BorrowMutable(r ReferrerIdx) error {
	if o.PotentialMutableReferrers.Len() != 0 || o.PotentialImmutableReferrers.Len() != 0 {
		return ErrBorrowMutableConflict
	}
	o.PotentialMutableReferrers.Add(r)
	return nil
}

// FinalizeDeath transitions o to Dead, erroring if it is still Owned
// with an outstanding borrow (spec section 4.5). A Moved origin always
// finalizes cleanly: nothing can still be borrowing a moved-out value.
func (o *Origin) FinalizeDeath() error {
	if o.State == Owned && (o.PotentialImmutableReferrers.Len() != 0 || o.PotentialMutableReferrers.Len() != 0) {
		return ErrStillBorrowedAfterDeath
	}
	o.State = Dead
	return nil
}

// Point is one program point's full set of tracked origins, indexed by
// a stable per-function origin number (spec section 4.5).
type Point struct {
	Origins []Origin
}

// Fork returns an independent copy of p: each Origin's referrer
// BitSets are cloned (mirroring BitSet.Clone) so that walking the two
// arms of a branch from a shared point can diverge without one arm's
// Birth/MoveOut/Borrow calls mutating the other's state.
func (p Point) Fork() Point {
	out := Point{Origins: make([]Origin, len(p.Origins))}
	for i, o := range p.Origins {
		forked := Origin{
			State:                       o.State,
			PotentialImmutableReferrers: o.PotentialImmutableReferrers.Clone(),
			PotentialMutableReferrers:   o.PotentialMutableReferrers.Clone(),
		}
		if o.IsReference != nil {
			ref := *o.IsReference
			forked.IsReference = &ref
		}
		out.Origins[i] = forked
	}
	return out
}

// StartDeathOfReference removes r from every origin's referrer sets in
// p: the effect of a reference value itself going out of scope, which
// must stop counting as a potential referrer of whatever it pointed to
// (spec section 4.5).
func (p *Point) StartDeathOfReference(r ReferrerIdx) {
	for i := range p.Origins {
		p.Origins[i].PotentialImmutableReferrers.Remove(r)
		p.Origins[i].PotentialMutableReferrers.Remove(r)
	}
}

// JoinOrigins computes one origin's value at a CFG merge from its
// value along each incoming edge, per spec section 4.5's join rule.
// The returned slice of edge indices are those that were Owned and
// must run MoveOut (a "drop") on their own copy before the join is
// considered to have happened, returned only when the result degrades
// to Moved because the incoming states disagreed.
func JoinOrigins(incoming []Origin) (Origin, []int) {
	joined := Origin{
		PotentialImmutableReferrers: Intersect(referrerSets(incoming, false)...),
		PotentialMutableReferrers:   Intersect(referrerSets(incoming, true)...),
	}

	allDead := true
	for _, o := range incoming {
		if o.State != Dead {
			allDead = false
			break
		}
	}
	if allDead {
		joined.State = Dead
		return joined, nil
	}

	common, commonOK := Owned, true
	sawNonDead := false
	for _, o := range incoming {
		if o.State == Dead {
			continue
		}
		if !sawNonDead {
			common = o.State
			sawNonDead = true
			continue
		}
		if o.State != common {
			commonOK = false
		}
	}
	if commonOK {
		joined.State = common
		return joined, nil
	}

	joined.State = Moved
	var dropEdges []int
	for i, o := range incoming {
		if o.State == Owned {
			dropEdges = append(dropEdges, i)
		}
	}
	return joined, dropEdges
}

func referrerSets(origins []Origin, mutable bool) []BitSet {
	out := make([]BitSet, len(origins))
	for i, o := range origins {
		if mutable {
			out[i] = o.PotentialMutableReferrers
		} else {
			out[i] = o.PotentialImmutableReferrers
		}
	}
	return out
}
