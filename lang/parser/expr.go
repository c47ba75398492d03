package parser

import (
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/token"
)

// binopPriority gives the left/right binding power of each binary
// operator for precedence-climbing; higher binds tighter. A right
// priority below the left one makes an operator right-associative (none
// here are).
var binopPriority = [...]struct{ left, right int }{
	token.OROR:       {1, 1},
	token.ANDAND:     {2, 2},
	token.LT:         {3, 3},
	token.LE:         {3, 3},
	token.GT:         {3, 3},
	token.GE:         {3, 3},
	token.EQEQ:       {3, 3},
	token.NEQ:        {3, 3},
	token.PIPE:       {4, 4},
	token.CIRCUMFLEX: {5, 5},
	token.AMPERSAND:  {6, 6},
	token.LTLT:       {7, 7},
	token.GTGT:       {7, 7},
	token.PLUS:       {10, 10},
	token.MINUS:      {10, 10},
	token.STAR:       {11, 11},
	token.SLASH:      {11, 11},
	token.PERCENT:    {11, 11},
}

const unopPriority = 12

func isBinop(tok token.Token) bool {
	switch tok {
	case token.OROR, token.ANDAND, token.LT, token.LE, token.GT, token.GE,
		token.EQEQ, token.NEQ, token.PIPE, token.CIRCUMFLEX, token.AMPERSAND,
		token.LTLT, token.GTGT, token.PLUS, token.MINUS, token.STAR,
		token.SLASH, token.PERCENT:
		return true
	}
	return false
}

func isUnop(tok token.Token) bool {
	switch tok {
	case token.MINUS, token.BANG, token.STAR, token.AMPERSAND, token.TILDE:
		return true
	}
	return false
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseAnnotation()
}

// parseAnnotation handles a leading `#name` annotation (e.g. `#comptime`)
// attached to the expression that follows it.
func (p *parser) parseAnnotation() ast.Expr {
	if p.tok != token.HASH {
		return p.parseSubExpr(0)
	}
	hash := p.expect(token.HASH)
	name := p.val.Raw
	if p.tok == token.COMPTIME {
		// comptime is a keyword token, not an IDENT
		p.advance()
	} else {
		p.expect(token.IDENT)
	}
	return &ast.AnnotationExpr{Hash: hash, Name: name, X: p.parseAnnotation()}
}

func (p *parser) parseSubExpr(priority int) ast.Expr {
	var left ast.Expr
	if isUnop(p.tok) {
		op := p.tok
		start := p.expect(op)
		left = &ast.UnaryExpr{Op: op, Start: start, X: p.parseSubExpr(unopPriority)}
	} else {
		left = p.parsePrimaryExpr()
	}

	for isBinop(p.tok) && binopPriority[p.tok].left > priority {
		op := p.tok
		opPos := p.expect(op)
		right := p.parseSubExpr(binopPriority[op].right)
		left = &ast.BinaryExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

// parsePrimaryExpr parses a primary expression and any trailing call,
// index or selector suffixes.
func (p *parser) parsePrimaryExpr() ast.Expr {
	x := p.parseOperand()
loop:
	for {
		switch p.tok {
		case token.DOT:
			dot := p.expect(token.DOT)
			x = &ast.SelectorExpr{X: x, Dot: dot, Sel: p.parseIdentExpr()}
		case token.LBRACK:
			lbrack := p.expect(token.LBRACK)
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			x = &ast.IndexExpr{X: x, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		case token.LPAREN:
			lparen := p.expect(token.LPAREN)
			var args []ast.Expr
			for p.tok != token.RPAREN && p.tok != token.EOF {
				args = append(args, p.parseExpr())
				if p.tok != token.COMMA {
					break
				}
				p.advance()
			}
			rparen := p.expect(token.RPAREN)
			x = &ast.CallExpr{Fn: x, Lparen: lparen, Args: args, Rparen: rparen}
		default:
			break loop
		}
	}
	return x
}

func (p *parser) parseOperand() ast.Expr {
	switch p.tok {
	case token.INT:
		start, raw, v := p.val.Src, p.val.Raw, p.val.Int
		p.advance()
		return &ast.IntLitExpr{Start: start, Raw: raw, Value: v}

	case token.FLOAT:
		start, raw, v := p.val.Src, p.val.Raw, p.val.Float
		p.advance()
		return &ast.FloatLitExpr{Start: start, Raw: raw, Value: v}

	case token.STRING:
		start, raw, v := p.val.Src, p.val.Raw, p.val.Str
		p.advance()
		return &ast.StringLitExpr{Start: start, Raw: raw, Value: v}

	case token.TRUE, token.FALSE:
		start := p.val.Src
		v := p.tok == token.TRUE
		p.advance()
		return &ast.BoolLitExpr{Start: start, Value: v}

	case token.POLY:
		start, name := p.val.Src, p.val.Raw
		p.advance()
		return &ast.PolymorphExpr{Start: start, Name: name}

	case token.SIZEOF:
		return p.parseSizeOf()

	case token.LPAREN:
		lparen := p.expect(token.LPAREN)
		x := p.parseExpr()
		rparen := p.expect(token.RPAREN)
		return &ast.ParenExpr{Lparen: lparen, X: x, Rparen: rparen}

	case token.IDENT:
		return p.parseIdentOrStructLiteral()
	}

	start := p.val.Src
	p.errorExpected(start, "expression")
	p.advance()
	return &ast.BadExpr{Start: start, End: start}
}

// parseSizeOf parses `sizeof<T>` or `sizeof<"target"|"compilation", T>`
// into a SizeOfExpr. The value-taking SizeOfValueExpr form only arises
// when the type grammar fails to parse the bracketed argument at all.
func (p *parser) parseSizeOf() ast.Expr {
	start := p.expect(token.SIZEOF)
	p.expect(token.LT)

	var mode string
	if p.tok == token.STRING {
		mode = p.val.Str
		p.advance()
		p.expect(token.COMMA)
	}

	ty := p.parseType()
	end := p.expect(token.GT)
	if _, bad := ty.(*ast.BadType); bad {
		return &ast.SizeOfValueExpr{Start: start, Mode: mode, Of: &ast.BadExpr{Start: start, End: end}, End: end}
	}
	return &ast.SizeOfExpr{Start: start, Mode: mode, Of: ty, End: end}
}

// parseIdentOrStructLiteral implements the disambiguation rule from spec
// section 4.2: a name followed by `{` is a struct literal only if what
// follows looks like `…}`, `extend …`, `name :`, or `: …`; otherwise it
// is a bare variable reference. Generic type arguments on the struct
// literal's type name (`<...>`) are not considered here: in value
// position `<` is always the less-than operator, so a generic struct
// literal's type must be written without explicit arguments and have
// them inferred.
func (p *parser) parseIdentOrStructLiteral() ast.Expr {
	name := p.parseIdentExpr()
	if p.tok != token.LBRACE || !p.looksLikeStructLiteralBody() {
		return name
	}
	ty := &ast.NamedType{Name: name, End: name.Start}
	return p.parseStructLiteral(ty)
}

// looksLikeStructLiteralBody peeks past the '{' already current to decide
// whether it opens a struct literal body, without consuming any tokens:
// an immediate '}' (empty literal), the `extend` keyword, or an
// identifier followed by ':'.
func (p *parser) looksLikeStructLiteralBody() bool {
	switch first := p.peekAt(1); first.tok {
	case token.RBRACE, token.EXTEND, token.COLON:
		return true
	case token.IDENT:
		return p.peekAt(2).tok == token.COLON
	}
	return false
}

func (p *parser) parseStructLiteral(ty ast.Type) ast.Expr {
	lbrace := p.expect(token.LBRACE)

	var extend ast.Expr
	if p.tok == token.EXTEND {
		p.advance()
		extend = p.parseExpr()
		if p.tok == token.COMMA {
			p.advance()
		}
	}

	var fields []*ast.FieldInit
	for !tokenIn(p.tok, token.RBRACE, token.EOF) {
		name := p.parseIdentExpr()
		colon := p.expect(token.COLON)
		value := p.parseExpr()
		fields = append(fields, &ast.FieldInit{Name: name, Colon: colon, Value: value})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.StructLiteralExpr{Type: ty, Lbrace: lbrace, Extend: extend, Fields: fields, Rbrace: rbrace}
}

func (p *parser) parseIdentExpr() *ast.IdentExpr {
	start, name := p.val.Src, p.val.Raw
	p.expect(token.IDENT)
	return &ast.IdentExpr{Start: start, Name: name}
}
