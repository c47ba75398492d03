// Package arena provides the append-only, strongly-typed index store that
// the rest of the core uses instead of an owning pointer graph (spec section
// 9, "arena indices replace pointer graphs"). It is the implementation of
// the Arena<K,V> collaborator that spec.md section 1 treats as external: the
// core exercises it pervasively (AST nodes, CFG nodes, IR values, semantic
// declarations) so it is provided here rather than stubbed.
package arena

// Idx is a strongly-typed index into an Arena[K,V]. K is a phantom type
// parameter: it prevents an Idx minted for one arena from being used to
// index a different arena of the same value type V, entirely at compile
// time, with no runtime cost (Idx is just an int under the hood).
type Idx[K any, V any] struct {
	n int32
}

// Valid reports whether ix was ever returned by an Arena.Push call (the zero
// Idx is never valid: arenas reserve index 0 as the "nil" sentinel).
func (ix Idx[K, V]) Valid() bool { return ix.n > 0 }

func (ix Idx[K, V]) index() int { return int(ix.n) - 1 }

// Arena is an append-only store of values of type V, indexed by Idx[K, V].
// Once pushed, a value's index is stable for the arena's entire lifetime;
// the core relies on this to let, e.g., an IR function refer to its basic
// blocks by index while the blocks slice itself keeps growing.
type Arena[K any, V any] struct {
	items []V
}

// New creates an empty Arena.
func New[K any, V any]() *Arena[K, V] {
	return &Arena[K, V]{}
}

// Push appends v and returns its stable index.
func (a *Arena[K, V]) Push(v V) Idx[K, V] {
	a.items = append(a.items, v)
	return Idx[K, V]{n: int32(len(a.items))}
}

// Get dereferences ix. It panics if ix is not valid for this arena (the
// zero Idx, or one minted with a larger index than this arena currently
// holds) since that indicates a programming error in the compiler itself,
// not a user-facing condition.
func (a *Arena[K, V]) Get(ix Idx[K, V]) V {
	return a.items[ix.index()]
}

// Set overwrites the value at ix. Used sparingly, e.g. to back-patch a
// function's body once its CFG has been built after the function's head was
// already pushed to reserve its index.
func (a *Arena[K, V]) Set(ix Idx[K, V], v V) {
	a.items[ix.index()] = v
}

// Len returns the number of values pushed so far.
func (a *Arena[K, V]) Len() int { return len(a.items) }

// All iterates every (index, value) pair in push order.
func (a *Arena[K, V]) All(yield func(Idx[K, V], V) bool) {
	for i, v := range a.items {
		if !yield(Idx[K, V]{n: int32(i + 1)}, v) {
			return
		}
	}
}
