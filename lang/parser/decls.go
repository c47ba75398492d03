package parser

import (
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

func (p *parser) parseChunk() *ast.Chunk {
	var chunk ast.Chunk
	for p.tok != token.EOF {
		if d := p.parseDecl(); d != nil {
			chunk.Decls = append(chunk.Decls, d)
		}
	}
	chunk.EOF = p.expect(token.EOF)
	return &chunk
}

// parseDecl parses one top-level declaration, recovering to the next
// declSyncToks boundary (producing a BadDecl) on a parse error.
func (p *parser) parseDecl() (decl ast.Decl) {
	start := p.val.Src

	defer func() {
		if err := recover(); err != nil {
			if err != errPanicMode {
				panic(err)
			}
			decl = &ast.BadDecl{Start: start, End: p.syncTo(declSyncToks)}
		}
	}()

	vis := token.ILLEGAL
	if tokenIn(p.tok, token.PUB, token.PRIV) {
		vis = p.tok
		p.advance()
	}

	switch p.tok {
	case token.FN:
		return p.parseFuncDecl(start, vis)
	case token.STRUCT:
		return p.parseStructDecl(start, vis)
	case token.ENUM:
		return p.parseEnumDecl(start, vis)
	case token.TRAIT:
		return p.parseTraitDecl(start, vis)
	case token.IMPL:
		return p.parseImplDecl(start)
	case token.TYPE:
		return p.parseTypeAliasDecl(start, vis)
	case token.IMPORT:
		return p.parseImportDecl(start)
	}

	p.expect(token.FN, token.STRUCT, token.ENUM, token.TRAIT, token.IMPL, token.TYPE, token.IMPORT)
	panic("unreachable")
}

func (p *parser) parseFuncSignature() *ast.FuncSignature {
	var sig ast.FuncSignature
	sig.Name = p.parseIdentExpr()
	sig.TypeParams = p.parseTypeParams()

	p.expect(token.LPAREN)
	for !tokenIn(p.tok, token.RPAREN, token.EOF) {
		if p.tok == token.DOTDOTDOT {
			p.advance()
			sig.Variadic = true
			break
		}
		name := p.parseIdentExpr()
		p.expect(token.COLON)
		ty := p.parseType()
		sig.Params = append(sig.Params, &ast.ParamDecl{Name: name, Type: ty})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)

	if p.tok == token.ARROW {
		p.advance()
		sig.Return = p.parseType()
	}
	return &sig
}

func (p *parser) parseFuncDecl(start token.Source, vis token.Token) *ast.FuncDecl {
	p.expect(token.FN)
	sig := p.parseFuncSignature()

	var body *ast.Block
	end := start
	if p.tok == token.LBRACE {
		body = p.parseBlock()
		_, end = body.Span()
	} else {
		end = p.expect(token.SEMI)
	}
	return &ast.FuncDecl{Start: start, Vis: vis, Sig: sig, Body: body, End: end}
}

func (p *parser) parseStructDecl(start token.Source, vis token.Token) *ast.StructDecl {
	p.expect(token.STRUCT)
	name := p.parseIdentExpr()
	typeParams := p.parseTypeParams()
	p.expect(token.LBRACE)
	fields := p.parseFieldList()
	end := p.expect(token.RBRACE)
	return &ast.StructDecl{Start: start, Vis: vis, Name: name, TypeParams: typeParams, Fields: fields, End: end}
}

func (p *parser) parseEnumDecl(start token.Source, vis token.Token) *ast.EnumDecl {
	p.expect(token.ENUM)
	name := p.parseIdentExpr()
	var backing ast.Type
	if p.tok == token.COLON {
		p.advance()
		backing = p.parseType()
	}
	p.expect(token.LBRACE)
	members := p.parseEnumMemberList()
	end := p.expect(token.RBRACE)
	return &ast.EnumDecl{Start: start, Vis: vis, Name: name, Backing: backing, Members: members, End: end}
}

func (p *parser) parseTraitDecl(start token.Source, vis token.Token) *ast.TraitDecl {
	p.expect(token.TRAIT)
	name := p.parseIdentExpr()
	typeParams := p.parseTypeParams()
	p.expect(token.LBRACE)

	var methods []*ast.FuncSignature
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		p.expect(token.FN)
		methods = append(methods, p.parseFuncSignature())
		p.expect(token.SEMI)
	}
	end := p.expect(token.RBRACE)
	return &ast.TraitDecl{Start: start, Vis: vis, Name: name, TypeParams: typeParams, Methods: methods, End: end}
}

func (p *parser) parseImplDecl(start token.Source) *ast.ImplDecl {
	p.expect(token.IMPL)
	typeParams := p.parseTypeParams()

	first := p.parseType()
	var trait *ast.NamedType
	var forTy ast.Type
	if p.tok == token.FOR {
		p.advance()
		nt, ok := first.(*ast.NamedType)
		if !ok {
			start2, end2 := first.Span()
			p.errorExpected(start2, "trait name")
			nt = &ast.NamedType{Name: &ast.IdentExpr{Start: start2, Name: ""}, End: end2}
		}
		trait = nt
		forTy = p.parseType()
	} else {
		forTy = first
	}

	p.expect(token.LBRACE)
	var methods []*ast.FuncDecl
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		mStart := p.val.Src
		methods = append(methods, p.parseFuncDecl(mStart, token.ILLEGAL))
	}
	end := p.expect(token.RBRACE)
	return &ast.ImplDecl{Start: start, TypeParams: typeParams, Trait: trait, For: forTy, Methods: methods, End: end}
}

func (p *parser) parseTypeAliasDecl(start token.Source, vis token.Token) *ast.TypeAliasDecl {
	p.expect(token.TYPE)
	name := p.parseIdentExpr()
	typeParams := p.parseTypeParams()
	p.expect(token.EQ)
	target := p.parseType()
	end := p.expect(token.SEMI)
	return &ast.TypeAliasDecl{Start: start, Vis: vis, Name: name, TypeParams: typeParams, Target: target, End: end}
}

func (p *parser) parseImportDecl(start token.Source) *ast.ImportDecl {
	p.expect(token.IMPORT)
	name := p.parseIdentExpr()
	end := p.expect(token.SEMI)
	return &ast.ImportDecl{Start: start, Name: name, End: end}
}
