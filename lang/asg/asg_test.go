package asg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMonomorphic(t *testing.T) {
	require.Equal(t, Monomorphic, Classify(Boolean{}))
	require.Equal(t, Monomorphic, Classify(Integer{Bits: 32, Signed: true}))
	require.Equal(t, Monomorphic, Classify(Pointer{Elem: Boolean{}}))
}

func TestClassifyUnresolved(t *testing.T) {
	require.Equal(t, UnresolvedState, Classify(Unresolved{}))
	require.Equal(t, UnresolvedState, Classify(Pointer{Elem: Unresolved{}}))
}

func TestClassifyPolymorphic(t *testing.T) {
	poly := Polymorph{Name: "T"}
	require.Equal(t, Polymorphic, Classify(poly))
	require.Equal(t, Polymorphic, Classify(Pointer{Elem: poly}))
	require.Equal(t, Polymorphic, Classify(FixedArray{Size: 4, Elem: poly}))
	require.Equal(t, Polymorphic, Classify(FuncPtr{Params: []Type{poly}, Return: Boolean{}}))
}

func TestClassifyUnresolvedDominatesPolymorphic(t *testing.T) {
	ft := FuncPtr{Params: []Type{Polymorph{Name: "T"}, Unresolved{}}}
	require.Equal(t, UnresolvedState, Classify(ft))
}

func TestGraphAddAndLookup(t *testing.T) {
	g := NewGraph()
	six := g.AddStruct(StructDecl{Name: "Point", Fields: []Field{
		{Name: "x", Type: Integer{Bits: 32, Signed: true}},
		{Name: "y", Type: Integer{Bits: 32, Signed: true}},
	}})
	require.True(t, six.Valid())
	require.Equal(t, six, g.LookupStruct("Point"))
	require.False(t, g.LookupStruct("Nope").Valid())

	got := g.Structs.Get(six)
	require.Equal(t, "Point", got.Name)
	require.Len(t, got.Fields, 2)
}

func TestGraphTypeStringResolvesNames(t *testing.T) {
	g := NewGraph()
	structIx := g.AddStruct(StructDecl{Name: "Box", TypeParams: []string{"T"}})
	ty := StructureRef{Ref: structIx, Args: []Type{Integer{Bits: 32, Signed: true}}}
	require.Equal(t, "Box<i32>", g.TypeString(ty))
}

func TestGraphTypeStringForPointerAndArray(t *testing.T) {
	g := NewGraph()
	require.Equal(t, "*bool", g.TypeString(Pointer{Elem: Boolean{}}))
	require.Equal(t, "[4]bool", g.TypeString(FixedArray{Size: 4, Elem: Boolean{}}))
}

func TestImplDeclTraitVsInherent(t *testing.T) {
	g := NewGraph()
	traitIx := g.AddTrait(TraitDecl{Name: "Shape"})
	structIx := g.AddStruct(StructDecl{Name: "Circle"})

	trait := ImplDecl{
		Trait: &GenericTraitRef{Ref: traitIx},
		For:   StructureRef{Ref: structIx},
	}
	require.NotNil(t, trait.Trait)

	inherent := ImplDecl{For: StructureRef{Ref: structIx}}
	require.Nil(t, inherent.Trait)
}
