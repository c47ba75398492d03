package resolver

import (
	"fmt"

	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

// ErrUnknownType is returned when a NamedType names no declared
// struct, enum, trait, or alias in the graph.
var ErrUnknownType = fmt.Errorf("resolver: unknown type name")

// ErrNonConstantArraySize is returned when a FixedArrayType's size
// expression is not a literal this resolver can fold without the
// interpreter (spec section 4.6 owns full compile-time evaluation;
// this resolver only folds the literal integer case a type reference
// needs inline).
var ErrNonConstantArraySize = fmt.Errorf("resolver: array size is not a constant integer literal")

// ResolveTypeExpr lowers an ast.Type to its asg.Type counterpart (spec
// section 4.4's "resolve type references" job), resolving NamedType
// references against g's declaration arenas.
func ResolveTypeExpr(g *asg.Graph, t ast.Type) (asg.Type, error) {
	switch t := t.(type) {
	case *ast.BooleanType:
		return asg.Boolean{}, nil
	case *ast.IntegerType:
		return asg.Integer{Bits: t.Bits, Signed: t.Signed}, nil
	case *ast.CIntegerType:
		return asg.CInteger{Rank: t.Rank, Signed: t.Signed}, nil
	case *ast.SizeIntegerType:
		return asg.SizeInteger{Signed: t.Signed}, nil
	case *ast.PointerType:
		elem, err := ResolveTypeExpr(g, t.Elem)
		if err != nil {
			return nil, err
		}
		return asg.Pointer{Elem: elem}, nil
	case *ast.VoidType:
		return asg.Void{}, nil
	case *ast.NeverType:
		return asg.Never{}, nil
	case *ast.AnonymousStructType:
		fields, err := resolveFields(g, t.Fields)
		if err != nil {
			return nil, err
		}
		return asg.AnonymousStruct{Fields: fields}, nil
	case *ast.AnonymousUnionType:
		fields, err := resolveFields(g, t.Fields)
		if err != nil {
			return nil, err
		}
		return asg.AnonymousUnion{Fields: fields}, nil
	case *ast.AnonymousEnumType:
		var backing asg.Type
		if t.Backing != nil {
			var err error
			backing, err = ResolveTypeExpr(g, t.Backing)
			if err != nil {
				return nil, err
			}
		}
		members, err := resolveEnumMembers(t.Members)
		if err != nil {
			return nil, err
		}
		return asg.AnonymousEnum{Backing: backing, Members: members}, nil
	case *ast.FixedArrayType:
		size, err := constEvalInt(t.Size)
		if err != nil {
			return nil, err
		}
		elem, err := ResolveTypeExpr(g, t.Elem)
		if err != nil {
			return nil, err
		}
		return asg.FixedArray{Size: size, Elem: elem}, nil
	case *ast.FuncPtrType:
		params := make([]asg.Type, len(t.Params))
		for i, p := range t.Params {
			pt, err := ResolveTypeExpr(g, p)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		var ret asg.Type
		if t.Return != nil {
			var err error
			ret, err = ResolveTypeExpr(g, t.Return)
			if err != nil {
				return nil, err
			}
		}
		return asg.FuncPtr{Params: params, Return: ret}, nil
	case *ast.NamedType:
		return resolveNamedType(g, t)
	case *ast.PolymorphType:
		return asg.Polymorph{Name: t.Name}, nil
	case *ast.BadType:
		return asg.Unresolved{}, nil
	default:
		return nil, fmt.Errorf("resolver: unhandled type expression %T", t)
	}
}

func resolveFields(g *asg.Graph, decls []*ast.FieldDecl) ([]asg.Field, error) {
	fields := make([]asg.Field, len(decls))
	for i, fd := range decls {
		ft, err := ResolveTypeExpr(g, fd.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = asg.Field{Name: fd.Name.Name, Type: ft}
	}
	return fields, nil
}

func resolveEnumMembers(decls []*ast.EnumMemberDecl) ([]asg.EnumMember, error) {
	members := make([]asg.EnumMember, len(decls))
	next := int64(0)
	for i, md := range decls {
		v := next
		if md.Value != nil {
			folded, err := constEvalInt(md.Value)
			if err != nil {
				return nil, err
			}
			v = folded
		}
		members[i] = asg.EnumMember{Name: md.Name.Name, Value: v}
		next = v + 1
	}
	return members, nil
}

func resolveNamedType(g *asg.Graph, t *ast.NamedType) (asg.Type, error) {
	args := make([]asg.Type, len(t.Args))
	for i, a := range t.Args {
		at, err := ResolveTypeExpr(g, a)
		if err != nil {
			return nil, err
		}
		args[i] = at
	}

	name := t.Name.Name
	if ix := g.LookupStruct(name); ix.Valid() {
		return asg.StructureRef{Ref: ix, Args: args}, nil
	}
	if ix := g.LookupEnum(name); ix.Valid() {
		return asg.EnumRef{Ref: ix}, nil
	}
	if ix := g.LookupAlias(name); ix.Valid() {
		return asg.TypeAliasRef{Ref: ix, Args: args}, nil
	}
	if ix := g.LookupTrait(name); ix.Valid() {
		return asg.TraitRef{Ref: ix, Args: args}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

// constEvalInt folds the small set of constant-integer expression
// shapes a type reference needs (array sizes, enum member values)
// without involving the full IR interpreter (spec section 4.6): an
// integer literal, or a unary minus applied to one.
func constEvalInt(e ast.Expr) (int64, error) {
	switch e := e.(type) {
	case *ast.IntLitExpr:
		return e.Value, nil
	case *ast.UnaryExpr:
		if e.Op == token.MINUS {
			v, err := constEvalInt(e.X)
			if err != nil {
				return 0, err
			}
			return -v, nil
		}
	}
	return 0, ErrNonConstantArraySize
}
