package parser

import (
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

func (p *parser) parseBlock() *ast.Block {
	var block ast.Block
	block.Start = p.expect(token.LBRACE)
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		if s := p.parseStmt(); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	block.End = p.expect(token.RBRACE)
	return &block
}

// parseStmt parses one statement, recovering to the next stmtSyncToks
// boundary (producing a BadStmt) on a parse error. It returns nil for a
// bare ';' with no statement.
func (p *parser) parseStmt() (stmt ast.Stmt) {
	start := p.val.Src

	defer func() {
		if err := recover(); err != nil {
			if err != errPanicMode {
				panic(err)
			}
			stmt = &ast.BadStmt{Start: start, End: p.syncTo(stmtSyncToks)}
		}
	}()

	switch p.tok {
	case token.SEMI:
		p.advance()
		return nil
	case token.LET, token.CONST:
		return p.parseDeclStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN, token.BREAK, token.CONTINUE:
		return p.parseReturnLikeStmt()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseDeclStmt() *ast.DeclStmt {
	kind := p.tok
	start := p.expect(kind)
	name := p.parseIdentExpr()

	var ty ast.Type
	if p.tok == token.COLON {
		p.advance()
		ty = p.parseType()
	}

	var value ast.Expr
	var assignPos token.Source
	if p.tok == token.EQ {
		assignPos = p.expect(token.EQ)
		value = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.DeclStmt{Kind: kind, Start: start, Name: name, Type: ty, Value: value, AssignPos: assignPos}
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	start := p.expect(token.IF)
	return p.parseIfBody(start)
}

// parseIfBody parses the condition, then-block and optional elif/else
// chain shared between `if` and `elif`. An `elif` tail is represented as
// a nested *IfStmt inside a single-statement Block (ast.IfStmt doc).
func (p *parser) parseIfBody(start token.Source) *ast.IfStmt {
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Start: start, Cond: cond, Then: then}

	switch p.tok {
	case token.ELIF:
		elifStart := p.expect(token.ELIF)
		elifStmt := p.parseIfBody(elifStart)
		block := &ast.Block{Start: elifStart, Stmts: []ast.Stmt{elifStmt}}
		_, block.End = elifStmt.Span()
		stmt.Else = block
	case token.ELSE:
		p.advance()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	start := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBlock()
	_, end := body.Span()
	return &ast.WhileStmt{Start: start, Cond: cond, Body: body, End: end}
}

func (p *parser) parseForStmt() *ast.ForStmt {
	start := p.expect(token.FOR)
	name := p.parseIdentExpr()
	p.expect(token.IN)
	rangeExpr := p.parseExpr()
	body := p.parseBlock()
	_, end := body.Span()
	return &ast.ForStmt{Start: start, Name: name, Range: rangeExpr, Body: body, End: end}
}

func (p *parser) parseReturnLikeStmt() *ast.ReturnLikeStmt {
	kind := p.tok
	start := p.expect(kind)

	var x ast.Expr
	if kind == token.RETURN && p.tok != token.SEMI {
		x = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.ReturnLikeStmt{Kind: kind, Start: start, X: x}
}

// parseSimpleStmt parses an expression statement or a single-target
// assignment (the only assignment form the token vocabulary supports,
// since there are no augmented-assign operators).
func (p *parser) parseSimpleStmt() ast.Stmt {
	expr := p.parseExpr()

	if p.tok == token.EQ {
		if !ast.IsAssignable(expr) {
			pos, _ := expr.Span()
			p.errorExpected(pos, "assignable expression")
		}
		assignPos := p.expect(token.EQ)
		right := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.AssignStmt{Left: expr, Op: token.EQ, AssignPos: assignPos, Right: right}
	}

	p.expect(token.SEMI)
	return &ast.ExprStmt{X: expr}
}
