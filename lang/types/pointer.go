package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is an address into a Memory arena (lang/interp). Addr names the
// top-level cell; Path, when non-empty, descends into that cell's
// aggregate value (the result of one or more MEMBER/ARRAYACCESS steps)
// without allocating a separate cell per field or element — this
// interpreter tier does not compute a full byte layout (that is
// lang/abi's job), so a struct or array lives in memory as a single
// types.Struct cell and a "pointer to its Nth field" is this same cell's
// address plus a path to that field.
type Pointer struct {
	Addr  uint64
	Path  []int
	Taint Taint
}

func NewPointer(addr uint64) Pointer { return Pointer{Addr: addr} }

// WithPathStep returns a pointer descending one more level into the
// aggregate at p's address, the way MEMBER/ARRAYACCESS extend a pointer
// without touching memory themselves (the descent is only realized when
// the pointer is later Load-ed or Store-d through).
func (p Pointer) WithPathStep(index int) Pointer {
	path := make([]int, len(p.Path)+1)
	copy(path, p.Path)
	path[len(p.Path)] = index
	return Pointer{Addr: p.Addr, Path: path, Taint: p.Taint}
}

var _ Value = Pointer{}

func (p Pointer) String() string {
	if len(p.Path) == 0 {
		return fmt.Sprintf("0x%x", p.Addr)
	}
	steps := make([]string, len(p.Path))
	for i, s := range p.Path {
		steps[i] = strconv.Itoa(s)
	}
	return fmt.Sprintf("0x%x/%s", p.Addr, strings.Join(steps, "/"))
}

func (p Pointer) Type() string   { return "pointer" }
func (p Pointer) Truth() Bool    { return Bool{V: p.Addr != 0} }
func (p Pointer) TaintOf() Taint { return p.Taint }

func (p Pointer) WithTaint(t Taint) Value {
	p.Taint = CombineTaint(p.Taint, t)
	return p
}
