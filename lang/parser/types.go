package parser

import (
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

// fixedWidthInts maps the spelling of a fixed-width integer type to its
// bit width and signedness. There are no dedicated keyword tokens for
// these; they are recognized as plain IDENT lexemes by spelling, same as
// bool/usize/isize below (spec section 3 names the type but not its
// source syntax).
var fixedWidthInts = map[string]struct {
	bits   int
	signed bool
}{
	"i8": {8, true}, "u8": {8, false},
	"i16": {16, true}, "u16": {16, false},
	"i32": {32, true}, "u32": {32, false},
	"i64": {64, true}, "u64": {64, false},
}

// cIntegerRanks maps the unprefixed spelling of a C-ABI-compatible integer
// rank to its CIntegerRank. A leading "signed "/"unsigned " modifier (two
// IDENTs) sets CIntegerType.Signed explicitly; RankLongLong is spelled
// with the single identifier cLongLong below.
var cIntegerRanks = map[string]ast.CIntegerRank{
	"c_char":  ast.RankChar,
	"c_short": ast.RankShort,
	"c_int":   ast.RankInt,
	"c_long":  ast.RankLong,
}

const cLongLong = "c_longlong"

// parseType parses a type expression (spec section 3's Type sum): bool,
// fixed-width and C-compatible integers, usize/isize, pointers, void,
// anonymous struct/union/enum, fixed arrays, function pointers, named
// types (with optional generic arguments) and polymorph references.
func (p *parser) parseType() ast.Type {
	switch p.tok {
	case token.STAR:
		star := p.expect(token.STAR)
		return &ast.PointerType{Star: star, Elem: p.parseType()}

	case token.VOID:
		return &ast.VoidType{Start: p.expect(token.VOID)}

	case token.STRUCT:
		return p.parseAnonymousStructType()

	case token.ENUM:
		return p.parseAnonymousEnumType()

	case token.LBRACK:
		return p.parseFixedArrayType()

	case token.FN:
		return p.parseFuncPtrType()

	case token.POLY:
		start := p.val.Src
		name := p.val.Raw
		p.advance()
		return &ast.PolymorphType{Start: start, Name: name}

	case token.IDENT:
		return p.parseIdentOrKeywordType()
	}

	start := p.val.Src
	p.errorExpected(start, "type")
	return &ast.BadType{Start: start, End: start}
}

// parseIdentOrKeywordType handles every type spelled as one or more plain
// IDENT lexemes: bool, usize/isize, i8/u8/.../i64/u64, the C integer ranks
// (with an optional signed/unsigned modifier and the two-word "long
// long"), or a NamedType reference with optional <Args>.
func (p *parser) parseIdentOrKeywordType() ast.Type {
	start := p.val.Src
	name := p.val.Raw

	switch name {
	case "bool":
		p.advance()
		return &ast.BooleanType{Start: start}
	case "usize":
		p.advance()
		return &ast.SizeIntegerType{Start: start, Signed: false}
	case "isize":
		p.advance()
		return &ast.SizeIntegerType{Start: start, Signed: true}
	case "signed", "unsigned":
		signed := name == "signed"
		p.advance()
		return p.parseCIntegerType(start, &signed)
	case "union":
		return p.parseAnonymousUnionType()
	}

	if fw, ok := fixedWidthInts[name]; ok {
		p.advance()
		return &ast.IntegerType{Start: start, Bits: fw.bits, Signed: fw.signed}
	}
	if _, ok := cIntegerRanks[name]; ok || name == "c_longlong" {
		return p.parseCIntegerType(start, nil)
	}

	return p.parseNamedType()
}

func (p *parser) parseCIntegerType(start token.Source, signed *bool) ast.Type {
	name := p.val.Raw
	if rank, ok := cIntegerRanks[name]; ok {
		p.advance()
		return &ast.CIntegerType{Start: start, Rank: rank, Signed: signed}
	}
	if name == cLongLong {
		p.advance()
		return &ast.CIntegerType{Start: start, Rank: ast.RankLongLong, Signed: signed}
	}
	p.errorExpected(start, "integer type")
	p.advance()
	return &ast.BadType{Start: start, End: start}
}

func (p *parser) parseNamedType() ast.Type {
	name := p.parseIdentExpr()
	nt := &ast.NamedType{Name: name, End: name.Start}
	if p.tok == token.LT {
		p.advance()
		for {
			nt.Args = append(nt.Args, p.parseType())
			if p.tok != token.COMMA {
				break
			}
			p.advance()
		}
		nt.End = p.expect(token.GT)
	}
	return nt
}

func (p *parser) parseFieldDecl() *ast.FieldDecl {
	name := p.parseIdentExpr()
	p.expect(token.COLON)
	return &ast.FieldDecl{Name: name, Type: p.parseType()}
}

func (p *parser) parseFieldList() []*ast.FieldDecl {
	var fields []*ast.FieldDecl
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		fields = append(fields, p.parseFieldDecl())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return fields
}

func (p *parser) parseAnonymousStructType() ast.Type {
	start := p.expect(token.STRUCT)
	p.expect(token.LBRACE)
	fields := p.parseFieldList()
	end := p.expect(token.RBRACE)
	return &ast.AnonymousStructType{Start: start, Fields: fields, End: end}
}

func (p *parser) parseAnonymousUnionType() ast.Type {
	start := p.val.Src
	p.advance() // "union" keyword is spelled as an IDENT, not a token
	p.expect(token.LBRACE)
	fields := p.parseFieldList()
	end := p.expect(token.RBRACE)
	return &ast.AnonymousUnionType{Start: start, Fields: fields, End: end}
}

func (p *parser) parseEnumMember() *ast.EnumMemberDecl {
	name := p.parseIdentExpr()
	var value ast.Expr
	if p.tok == token.EQ {
		p.advance()
		value = p.parseExpr()
	}
	return &ast.EnumMemberDecl{Name: name, Value: value}
}

func (p *parser) parseEnumMemberList() []*ast.EnumMemberDecl {
	var members []*ast.EnumMemberDecl
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		members = append(members, p.parseEnumMember())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return members
}

func (p *parser) parseAnonymousEnumType() ast.Type {
	start := p.expect(token.ENUM)
	var backing ast.Type
	if p.tok == token.COLON {
		p.advance()
		backing = p.parseType()
	}
	p.expect(token.LBRACE)
	members := p.parseEnumMemberList()
	end := p.expect(token.RBRACE)
	return &ast.AnonymousEnumType{Start: start, Backing: backing, Members: members, End: end}
}

func (p *parser) parseFixedArrayType() ast.Type {
	lbrack := p.expect(token.LBRACK)
	size := p.parseExpr()
	p.expect(token.RBRACK)
	return &ast.FixedArrayType{Lbrack: lbrack, Size: size, Elem: p.parseType()}
}

func (p *parser) parseFuncPtrType() ast.Type {
	start := p.expect(token.FN)
	p.expect(token.LPAREN)
	var params []ast.Type
	for !tokenIn(p.tok, token.RPAREN, token.EOF) {
		params = append(params, p.parseType())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RPAREN)
	var ret ast.Type
	if p.tok == token.ARROW {
		p.advance()
		ret = p.parseType()
		_, end = ret.Span()
	}
	return &ast.FuncPtrType{Start: start, Params: params, Return: ret, End: end}
}

// parseTypeParams parses an optional `<$T, $U>` generic parameter list,
// lexed as a comma-separated run of POLY tokens between angle brackets.
func (p *parser) parseTypeParams() []*ast.IdentExpr {
	if p.tok != token.LT {
		return nil
	}
	p.advance()
	var params []*ast.IdentExpr
	for {
		start := p.val.Src
		name := p.val.Raw
		p.expect(token.POLY)
		params = append(params, &ast.IdentExpr{Start: start, Name: name})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.GT)
	return params
}
