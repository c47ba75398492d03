package abi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/abi"
	"github.com/mna/adeptc/lang/asg"
)

func sysvTarget() targetcfg.Target {
	return targetcfg.Default() // x86_64-unknown-linux-gnu
}

func TestClassifySysVSmallStructPassesDirect(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Point2",
		Fields: []asg.Field{
			{Name: "x", Type: asg.Integer{Bits: 32, Signed: true}},
			{Name: "y", Type: asg.Integer{Bits: 32, Signed: true}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, sysvTarget(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Ignore, fn.Return.Kind)
	require.Len(t, fn.Params, 1)
	require.Equal(t, abi.Direct, fn.Params[0].Kind)
}

func TestClassifySysVLargeStructPassesIndirect(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Big",
		Fields: []asg.Field{
			{Name: "a", Type: asg.FixedArray{Size: 4, Elem: asg.Integer{Bits: 64, Signed: true}}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, sysvTarget(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Indirect, fn.Params[0].Kind)
	require.True(t, fn.Params[0].Byval)
}

func TestClassifySysVBoolReturnExtends(t *testing.T) {
	g := asg.NewGraph()
	fn, err := abi.Classify(g, nil, asg.Boolean{}, sysvTarget(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Extend, fn.Return.Kind)
	require.False(t, fn.Return.SignExt)
}

func TestClassifySysVIntegerDividesRegisters(t *testing.T) {
	g := asg.NewGraph()
	fn, err := abi.Classify(g, []asg.Type{
		asg.Integer{Bits: 64, Signed: true},
		asg.Floating{Bits: 64},
	}, asg.Void{}, sysvTarget(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Direct, fn.Params[0].Kind)
	require.Equal(t, abi.Direct, fn.Params[1].Kind)
	require.Equal(t, abi.CoerceInt, fn.Params[0].CoerceTo.Kind)
	require.Equal(t, abi.CoerceFloat, fn.Params[1].CoerceTo.Kind)
}

func aarch64Target() targetcfg.Target {
	tgt := targetcfg.Default()
	tgt.Triple = "aarch64-unknown-linux-gnu"
	return tgt
}

func TestClassifyAArch64HomogeneousFloatAggregatePassesDirect(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Vec3",
		Fields: []asg.Field{
			{Name: "x", Type: asg.Floating{Bits: 32}},
			{Name: "y", Type: asg.Floating{Bits: 32}},
			{Name: "z", Type: asg.Floating{Bits: 32}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, aarch64Target(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Direct, fn.Params[0].Kind)
	require.Equal(t, abi.CoerceArray, fn.Params[0].CoerceTo.Kind)
	require.Equal(t, 3, fn.Params[0].CoerceTo.Count)
}

func TestClassifyAArch64LargeAggregatePassesIndirect(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Huge",
		Fields: []asg.Field{
			{Name: "a", Type: asg.FixedArray{Size: 5, Elem: asg.Integer{Bits: 64, Signed: true}}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, aarch64Target(), targetcfg.ConvC)
	require.NoError(t, err)
	require.Equal(t, abi.Indirect, fn.Params[0].Kind)
}

func win64Target() targetcfg.Target {
	tgt := targetcfg.Default()
	tgt.Triple = "x86_64-pc-windows-msvc"
	return tgt
}

func TestClassifyWin64SmallAggregateCoercesToInteger(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Pair",
		Fields: []asg.Field{
			{Name: "a", Type: asg.Integer{Bits: 32, Signed: true}},
			{Name: "b", Type: asg.Integer{Bits: 32, Signed: true}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, win64Target(), targetcfg.ConvWin64)
	require.NoError(t, err)
	require.Equal(t, abi.Direct, fn.Params[0].Kind)
	require.Equal(t, 64, fn.Params[0].CoerceTo.Bits)
}

func TestClassifyWin64OversizeAggregatePassesIndirect(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "Oversize",
		Fields: []asg.Field{
			{Name: "a", Type: asg.Integer{Bits: 64, Signed: true}},
			{Name: "b", Type: asg.Integer{Bits: 32, Signed: true}},
		},
	})
	t_ := asg.StructureRef{Ref: s}

	fn, err := abi.Classify(g, []asg.Type{t_}, asg.Void{}, win64Target(), targetcfg.ConvWin64)
	require.NoError(t, err)
	require.Equal(t, abi.Indirect, fn.Params[0].Kind)
}

func TestClassifyRejectsUnresolvedType(t *testing.T) {
	g := asg.NewGraph()
	_, err := abi.Classify(g, []asg.Type{asg.Unresolved{}}, asg.Void{}, sysvTarget(), targetcfg.ConvC)
	require.Error(t, err)
}

func TestSizeAlignStructPadsToMaxFieldAlignment(t *testing.T) {
	g := asg.NewGraph()
	s := g.AddStruct(asg.StructDecl{
		Name: "S",
		Fields: []asg.Field{
			{Name: "a", Type: asg.Integer{Bits: 8, Signed: true}},
			{Name: "b", Type: asg.Integer{Bits: 64, Signed: true}},
		},
	})
	l, err := abi.SizeAlign(g, asg.StructureRef{Ref: s}, sysvTarget())
	require.NoError(t, err)
	require.Equal(t, int64(16), l.Size)
	require.Equal(t, int64(8), l.Align)
}
