// Package interp implements the bytecode interpreter the compiler uses
// for compile-time evaluation of #pragma-style build scripts. It adapts
// lang/machine's VM dispatch loop to execute lang/compiler's bytecode
// over lang/types values.
//
// Much of the VM dispatch loop is adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package interp

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/lang/types"
)

// region identifies which of Memory's three arenas a Pointer's Addr
// falls into (spec section 4.6: alloc_stack, alloc_heap, alloc_permanent).
type region uint8

const (
	regionPermanent region = iota
	regionHeap
	regionStack
)

// regionShift reserves the top byte of a Pointer's Addr for its region,
// leaving 56 bits of cell index: ample for any program this interpreter
// evaluates and simple to decode without a side table.
const regionShift = 56

func encodeAddr(r region, idx int) uint64 {
	return uint64(r)<<regionShift | uint64(idx)
}

func decodeAddr(addr uint64) (region, int) {
	return region(addr >> regionShift), int(addr &^ (uint64(0xff) << regionShift))
}

var (
	// ErrNullDeref reports a LOAD/STORE/MEMBER/ARRAYACCESS through the
	// null pointer (Addr zero with an empty Path; no allocation returns
	// Addr zero).
	ErrNullDeref = errors.New("interp: null pointer dereference")
	// ErrOutOfMemory reports an allocation request this Memory refuses,
	// per spec section 7's interpreter error taxonomy.
	ErrOutOfMemory = errors.New("interp: out of memory")
)

// Memory is the arena backing ALLOCA/MALLOC/MALLOCARRAY/FREE. It does
// not compute a target-accurate byte layout (lang/abi does that for the
// eventual backend); a struct or array value lives in memory as one
// types.Struct cell, and MEMBER/ARRAYACCESS build a types.Pointer with a
// Path into it rather than addressing individual bytes.
type Memory struct {
	permanent []types.Value
	heap      []types.Value
	stack     []types.Value

	// maxCells bounds total live cells across all three regions, the
	// interpreter's stand-in for "out of memory" (spec section 7).
	maxCells int
}

// NewMemory returns an empty Memory. maxCells <= 0 means unbounded.
func NewMemory(maxCells int) *Memory {
	return &Memory{maxCells: maxCells}
}

func (m *Memory) totalCells() int {
	return len(m.permanent) + len(m.heap) + len(m.stack)
}

func (m *Memory) checkBudget() error {
	if m.maxCells > 0 && m.totalCells() >= m.maxCells {
		return ErrOutOfMemory
	}
	return nil
}

// AllocPermanent allocates v in the permanent region (globals, spec
// section 4.6: "Globals are preallocated"). Permanent cells are never
// reclaimed.
func (m *Memory) AllocPermanent(v types.Value) (types.Pointer, error) {
	if err := m.checkBudget(); err != nil {
		return types.Pointer{}, err
	}
	if len(m.permanent) == 0 {
		// permanent cell zero would encode to Addr zero, the null pointer,
		// so it is never handed out.
		m.permanent = append(m.permanent, nil)
	}
	m.permanent = append(m.permanent, v)
	return types.NewPointer(encodeAddr(regionPermanent, len(m.permanent)-1)), nil
}

// AllocHeap allocates v in the heap region (MALLOC/MALLOCARRAY). Heap
// cells outlive the call that allocated them and are only reclaimed by
// an explicit FREE.
func (m *Memory) AllocHeap(v types.Value) (types.Pointer, error) {
	if err := m.checkBudget(); err != nil {
		return types.Pointer{}, err
	}
	m.heap = append(m.heap, v)
	return types.NewPointer(encodeAddr(regionHeap, len(m.heap)-1)), nil
}

// AllocStack allocates v in the stack region (ALLOCA). Stack cells are
// reclaimed in bulk by StackRestore when the allocating call returns.
func (m *Memory) AllocStack(v types.Value) (types.Pointer, error) {
	if err := m.checkBudget(); err != nil {
		return types.Pointer{}, err
	}
	m.stack = append(m.stack, v)
	return types.NewPointer(encodeAddr(regionStack, len(m.stack)-1)), nil
}

// StackMark returns a mark identifying the stack region's current
// extent, to be passed to StackRestore when the current call frame
// exits on any path (spec section 5: "every push on a successful path
// has a matching pop on every exit path, including error paths").
func (m *Memory) StackMark() int { return len(m.stack) }

// StackRestore discards every stack cell allocated since mark.
func (m *Memory) StackRestore(mark int) {
	for i := mark; i < len(m.stack); i++ {
		m.stack[i] = nil
	}
	m.stack = m.stack[:mark]
}

// Free releases a heap cell allocated by AllocHeap (MALLOC/MALLOCARRAY). Freeing a
// non-heap or already-freed pointer is an interpreter error, mirroring a
// real allocator's double-free/invalid-free diagnostics.
func (m *Memory) Free(p types.Pointer) error {
	r, idx := decodeAddr(p.Addr)
	if r != regionHeap || idx < 0 || idx >= len(m.heap) {
		return fmt.Errorf("interp: free of non-heap or invalid pointer %s", p)
	}
	if m.heap[idx] == nil {
		return fmt.Errorf("interp: double free of pointer %s", p)
	}
	m.heap[idx] = nil
	return nil
}

func (m *Memory) cellSlice(r region) ([]types.Value, error) {
	switch r {
	case regionPermanent:
		return m.permanent, nil
	case regionHeap:
		return m.heap, nil
	case regionStack:
		return m.stack, nil
	default:
		return nil, fmt.Errorf("interp: invalid pointer region %d", r)
	}
}

// Load reads the value a pointer denotes, walking its Path into a
// types.Struct cell one step at a time.
func (m *Memory) Load(p types.Pointer) (types.Value, error) {
	if p.Addr == 0 && len(p.Path) == 0 {
		return nil, ErrNullDeref
	}
	r, idx := decodeAddr(p.Addr)
	cells, err := m.cellSlice(r)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(cells) || cells[idx] == nil {
		return nil, fmt.Errorf("interp: load through invalid or freed pointer %s", p)
	}
	v := cells[idx]
	for depth, step := range p.Path {
		agg, ok := v.(types.Struct)
		if !ok {
			return nil, fmt.Errorf("interp: field/index path step %d of %s applied to a non-aggregate %s value", depth, p, v.Type())
		}
		if step < 0 {
			return nil, fmt.Errorf("interp: negative field/array index %d", step)
		}
		if step >= len(agg.Fields) || agg.Fields[step] == nil {
			return nil, fmt.Errorf("interp: read of uninitialized field/element %d through %s", step, p)
		}
		v = agg.Fields[step]
	}
	if _, ok := v.(types.Undefined); ok {
		return nil, fmt.Errorf("interp: read of uninitialized value through %s", p)
	}
	return v, nil
}

// Store writes v at the location p denotes, growing any aggregate along
// the path as needed (this interpreter tier never knows a struct/array's
// full field count up front, since lang/compiler's ALLOCA operand only
// carries a scalar RuntimeType sliver — see DESIGN.md).
func (m *Memory) Store(p types.Pointer, v types.Value) error {
	if p.Addr == 0 && len(p.Path) == 0 {
		return ErrNullDeref
	}
	r, idx := decodeAddr(p.Addr)
	cells, err := m.cellSlice(r)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(cells) || cells[idx] == nil {
		return fmt.Errorf("interp: store through invalid or freed pointer %s", p)
	}
	if len(p.Path) == 0 {
		cells[idx] = v
		return nil
	}
	cells[idx], err = setPath(cells[idx], p.Path, v)
	return err
}

// setPath rebuilds root with v stored at path, auto-vivifying
// intermediate aggregates (and growing a types.Struct's Fields slice) as
// needed.
func setPath(root types.Value, path []int, v types.Value) (types.Value, error) {
	step := path[0]
	if step < 0 {
		return nil, fmt.Errorf("interp: negative field/array index %d", step)
	}

	agg, ok := root.(types.Struct)
	if !ok {
		if _, isUndef := root.(types.Undefined); !isUndef {
			return nil, fmt.Errorf("interp: field/index path applied to a non-aggregate %s value", root.Type())
		}
		agg = types.Struct{}
	}
	fields := agg.Fields
	if step >= len(fields) {
		grown := make([]types.Value, step+1)
		copy(grown, fields)
		for i := len(fields); i < len(grown); i++ {
			grown[i] = types.NewUndefined()
		}
		fields = grown
	}

	if len(path) == 1 {
		fields[step] = v
	} else {
		var err error
		cur := fields[step]
		if cur == nil {
			cur = types.NewUndefined()
		}
		fields[step], err = setPath(cur, path[1:], v)
		if err != nil {
			return nil, err
		}
	}
	return types.NewStruct(fields), nil
}
