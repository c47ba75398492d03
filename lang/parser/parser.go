// Package parser implements the recursive-descent parser that turns a
// scanned source file into an AST (section 4.2): it disambiguates struct
// literals from bare names by lookahead, recognizes `sizeof<...>` and
// `$name` polymorph references, and attaches `#` annotations to the
// expression they prefix.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/scanner"
	"github.com/mna/adeptc/lang/token"
)

// ParseFiles parses each of files into a Chunk, registering them all in a
// single new FileSet. Parsing continues across files even if one of them
// fails; the returned error, if non-nil, collects every diagnostic sink
// reported across all of them.
func ParseFiles(ctx context.Context, sink *diag.List, files ...string) (*token.FileSet, []*ast.Chunk, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var p parser
	p.sink = sink
	fs := token.NewFileSet()
	chunks := make([]*ast.Chunk, 0, len(files))

	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			sink.Add(token.Position{Filename: file}, "%s", err)
			continue
		}
		p.init(fs, file, b)
		ch := p.parseChunk()
		ch.Name = file
		chunks = append(chunks, ch)
	}
	return fs, chunks, sink.Err()
}

// ParseChunk parses a single chunk from src, registering it in fset under
// filename.
func ParseChunk(ctx context.Context, sink *diag.List, fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.sink = sink
	p.init(fset, filename, src)
	ch := p.parseChunk()
	ch.Name = filename
	return ch, sink.Err()
}

// tokAndVal is one buffered lookahead slot.
type tokAndVal struct {
	tok token.Token
	val token.Value
}

// parser holds the mutable state of a single-file parse: the scanner feeding
// it tokens one at a time, and the diagnostics sink errors are reported to.
type parser struct {
	sink    *diag.List
	scanner scanner.Scanner
	fset    *token.FileSet
	file    *token.File

	// current token
	tok token.Token
	val token.Value

	// lookahead holds tokens read ahead of the current one by peekAt, not
	// yet consumed by advance.
	lookahead []tokAndVal
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.fset = fset
	p.file = fset.AddFile(filename, len(src))
	p.scanner.Init(p.file, src, func(pos token.Source, msg string) {
		p.sink.Add(fset.Position(pos), "%s", msg)
	})
	p.advance()
}

func (p *parser) scan() tokAndVal {
	var tv tokAndVal
	tv.tok = p.scanner.Scan(&tv.val)
	return tv
}

func (p *parser) advance() {
	if len(p.lookahead) > 0 {
		tv := p.lookahead[0]
		p.lookahead = p.lookahead[1:]
		p.tok, p.val = tv.tok, tv.val
		return
	}
	tv := p.scan()
	p.tok, p.val = tv.tok, tv.val
}

// peekAt returns the token n positions past the current one without
// consuming it (peekAt(0) would be the current token, but callers always
// pass n >= 1). Used only for bounded lookahead, e.g. disambiguating a
// struct literal from a bare name after a '{'.
func (p *parser) peekAt(n int) tokAndVal {
	for len(p.lookahead) < n {
		p.lookahead = append(p.lookahead, p.scan())
	}
	return p.lookahead[n-1]
}

// errPanicMode unwinds the recursive-descent call stack back to the
// nearest statement or declaration boundary, where it is recovered and
// turned into a Bad node.
var errPanicMode = errors.New("parser: panic mode")

// expect consumes the current token if it is one of toks and returns its
// position; otherwise it reports an error and unwinds via errPanicMode.
func (p *parser) expect(toks ...token.Token) token.Source {
	pos := p.val.Src
	for _, tok := range toks {
		if p.tok == tok {
			p.advance()
			return pos
		}
	}

	var buf strings.Builder
	for i, tok := range toks {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(tok.GoString())
	}
	lbl := buf.String()
	if len(toks) > 1 {
		lbl = "one of " + lbl
	}
	p.errorExpected(pos, lbl)
	panic(errPanicMode)
}

func (p *parser) error(pos token.Source, msg string) {
	p.sink.Add(p.fset.Position(pos), "%s", msg)
}

func (p *parser) errorf(pos token.Source, format string, args ...any) {
	p.error(pos, fmt.Sprintf(format, args...))
}

func (p *parser) errorExpected(pos token.Source, msg string) {
	msg = "expected " + msg
	if pos == p.val.Src {
		if p.val.Raw != "" {
			msg += ", found " + p.val.Raw
		} else {
			msg += ", found " + p.tok.GoString()
		}
	}
	p.error(pos, msg)
}

// declSyncToks are the tokens recognized as the start of a new top-level
// declaration, used to resynchronize after a parse error inside one.
var declSyncToks = map[token.Token]bool{
	token.FN:     true,
	token.STRUCT: true,
	token.ENUM:   true,
	token.TRAIT:  true,
	token.IMPL:   true,
	token.TYPE:   true,
	token.IMPORT: true,
	token.PUB:    true,
	token.PRIV:   true,
	token.EOF:    true,
}

// stmtSyncToks are the tokens recognized as a safe resume point after a
// statement fails to parse.
var stmtSyncToks = map[token.Token]bool{
	token.SEMI:     true,
	token.RBRACE:   true,
	token.LET:      true,
	token.CONST:    true,
	token.IF:       true,
	token.WHILE:    true,
	token.FOR:      true,
	token.RETURN:   true,
	token.BREAK:    true,
	token.CONTINUE: true,
	token.EOF:      true,
}

// syncTo advances the token stream until it reaches one of the tokens in
// toks (without consuming it) or EOF, then returns the current position.
func (p *parser) syncTo(toks map[token.Token]bool) token.Source {
	for !toks[p.tok] {
		p.advance()
	}
	return p.val.Src
}

func tokenIn(t token.Token, toks ...token.Token) bool {
	for _, tok := range toks {
		if t == tok {
			return true
		}
	}
	return false
}
