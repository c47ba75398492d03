// Package abi implements the ABI classifier (spec section 4.7): given a
// function signature expressed in lang/asg's Type vocabulary and a
// compilation target (internal/targetcfg), it produces an ABIFunction
// describing how each parameter and the return value cross the call
// boundary, the way LLVM's own clang CodeGen ABI layer classifies a
// C/C++ signature before emitting IR.
//
// It is organized the way a C ABI classifier conventionally splits an
// Itanium base (record/RAII handling shared by every platform) from one
// layer per platform (AArch64, x86-64 Win64, x86-64 SysV): itanium.go
// holds the shared rules, and sysv.go/win64.go/aarch64.go hold each
// platform's own classify function.
package abi

import (
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
)

// Layout is a type's size and alignment in bytes, the two quantities
// every classifier needs before it can decide Direct vs Indirect.
type Layout struct {
	Size  int64
	Align int64
}

// SizeAlign computes t's Layout under target, resolving StructureRef/
// EnumRef against g. It mirrors lang/compiler's typeOf/cRankBits LP64
// fallback for CInteger but goes further: unlike RuntimeType (a bare
// scalar sliver), a classifier needs a real struct's per-field offsets,
// so aggregates are walked recursively here rather than flattened to
// one opaque cell the way lang/interp's Memory treats them.
func SizeAlign(g *asg.Graph, t asg.Type, target targetcfg.Target) (Layout, error) {
	switch v := t.(type) {
	case asg.Boolean:
		return Layout{1, 1}, nil

	case asg.Integer:
		bytes := int64(v.Bits+7) / 8
		return Layout{bytes, bytes}, nil

	case asg.CInteger:
		bits := cRankBits(v.Rank, target)
		bytes := int64(bits+7) / 8
		return Layout{bytes, bytes}, nil

	case asg.SizeInteger:
		bytes := int64(target.PointerWidth+7) / 8
		return Layout{bytes, bytes}, nil

	case asg.Floating:
		bytes := int64(v.Bits) / 8
		return Layout{bytes, bytes}, nil

	case asg.Pointer:
		bytes := int64(target.PointerWidth+7) / 8
		return Layout{bytes, bytes}, nil

	case asg.Void, asg.Never:
		return Layout{0, 1}, nil

	case asg.FuncPtr:
		bytes := int64(target.PointerWidth+7) / 8
		return Layout{bytes, bytes}, nil

	case asg.FixedArray:
		elem, err := SizeAlign(g, v.Elem, target)
		if err != nil {
			return Layout{}, err
		}
		return Layout{elem.Size * v.Size, elem.Align}, nil

	case asg.AnonymousStruct:
		return structLayout(g, v.Fields, target)

	case asg.AnonymousUnion:
		return unionLayout(g, v.Fields, target)

	case asg.EnumRef:
		d := g.Enums.Get(v.Ref)
		backing := d.Backing
		if backing == nil {
			backing = asg.Integer{Bits: 32, Signed: true}
		}
		return SizeAlign(g, backing, target)

	case asg.StructureRef:
		d := g.Structs.Get(v.Ref)
		return structLayout(g, d.Fields, target)

	case asg.TypeAliasRef:
		d := g.Aliases.Get(v.Ref)
		return SizeAlign(g, d.Target, target)

	default:
		return Layout{}, fmt.Errorf("abi: %s has no concrete layout (unresolved or polymorphic type reached the classifier)", t)
	}
}

func structLayout(g *asg.Graph, fields []asg.Field, target targetcfg.Target) (Layout, error) {
	var offset, maxAlign int64 = 0, 1
	for _, f := range fields {
		l, err := SizeAlign(g, f.Type, target)
		if err != nil {
			return Layout{}, err
		}
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		offset = alignUp(offset, l.Align) + l.Size
	}
	return Layout{alignUp(offset, maxAlign), maxAlign}, nil
}

func unionLayout(g *asg.Graph, fields []asg.Field, target targetcfg.Target) (Layout, error) {
	var size, maxAlign int64 = 0, 1
	for _, f := range fields {
		l, err := SizeAlign(g, f.Type, target)
		if err != nil {
			return Layout{}, err
		}
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		if l.Size > size {
			size = l.Size
		}
	}
	return Layout{alignUp(size, maxAlign), maxAlign}, nil
}

func alignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// cRankBits resolves a CInteger's width against target's
// CIntegerAssumptions, the same target-driven lookup
// targetcfg.CIntegerAssumptions.Bits already implements (the preprocess
// command also reads it for the long-size predefined macro).
func cRankBits(rank ast.CIntegerRank, target targetcfg.Target) int {
	switch rank.String() {
	case "char":
		return target.CInteger.Bits("char")
	case "short":
		return target.CInteger.Bits("short")
	case "long":
		return target.CInteger.Bits("long")
	case "long long":
		return target.CInteger.Bits("longlong")
	default:
		return target.CInteger.Bits("int")
	}
}

// fieldTypes flattens fields to their bare Type slice, the shape
// every aggregate classifier below recurses over.
func fieldTypes(fields []asg.Field) []asg.Type {
	ts := make([]asg.Type, len(fields))
	for i, f := range fields {
		ts[i] = f.Type
	}
	return ts
}

// structFields resolves t to its flat field-type list when t is some
// kind of aggregate (struct, anonymous struct, or a struct-backed type
// alias), or reports that it isn't one. Arrays are handled separately
// by callers since their "fields" all share one element type.
func structFields(g *asg.Graph, t asg.Type) ([]asg.Type, bool) {
	switch v := t.(type) {
	case asg.AnonymousStruct:
		return fieldTypes(v.Fields), true
	case asg.StructureRef:
		return fieldTypes(g.Structs.Get(v.Ref).Fields), true
	case asg.TypeAliasRef:
		return structFields(g, g.Aliases.Get(v.Ref).Target)
	default:
		return nil, false
	}
}

func isFloatingOnly(t asg.Type) bool {
	_, ok := t.(asg.Floating)
	return ok
}

func isAggregate(t asg.Type) bool {
	switch t.(type) {
	case asg.AnonymousStruct, asg.AnonymousUnion, asg.StructureRef, asg.FixedArray:
		return true
	default:
		return false
	}
}
