// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/token"
)

// TokenAndValue combines the token kind with its lexeme/decoded value.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles tokenizes the given source files and returns the tokens grouped
// by file at the same index, plus any lexical errors accumulated across all
// of them.
func ScanFiles(ctx context.Context, sink *diag.List, files ...string) (*token.FileSet, [][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var (
		s      Scanner
		tokVal token.Value
	)

	fs := token.NewFileSet()
	tokensByFile := make([][]TokenAndValue, len(files))
	for i, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			sink.Add(token.Position{Filename: file}, "%s", err)
			continue
		}

		fsf := fs.AddFile(file, len(b))
		s.Init(fsf, b, func(pos token.Source, msg string) {
			sink.Add(fs.Position(pos), "%s", msg)
		})
		for {
			tok := s.Scan(&tokVal)
			tokensByFile[i] = append(tokensByFile[i], TokenAndValue{Token: tok, Value: tokVal})
			if tok == token.EOF {
				break
			}
		}
	}
	return fs, tokensByFile, sink.Err()
}

// Scanner tokenizes a single source file for the parser to consume.
type Scanner struct {
	// immutable state after Init
	file *token.File
	src  []byte
	err  func(pos token.Source, msg string)

	// mutable scanning state
	cur  rune // current character, -1 at end of file
	off  int  // byte offset of cur
	roff int  // reading offset, one past cur

	sb strings.Builder // scratch buffer for decoding string literal values
}

// Init initializes s to tokenize a new file. It panics if the file size
// does not match len(src).
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Source, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("scanner: file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}

	s.file = file
	s.src = src
	s.err = errHandler

	s.cur = ' '
	s.off = 0
	s.roff = 0
	s.advance()
}

// peek returns the byte following the most recently read character without
// advancing the scanner. At end of file it returns 0.
func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// advance reads the next Unicode character into s.cur; s.cur < 0 means end
// of file.
func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		if s.cur == '\n' {
			s.file.AddLine(s.off)
		}
		s.cur = -1
		return
	}

	s.off = s.roff
	if s.cur == '\n' {
		s.file.AddLine(s.off)
	}

	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.off, "illegal UTF-8 encoding")
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Src(off), msg)
	}
}

func (s *Scanner) errorf(off int, format string, args ...any) {
	s.error(off, fmt.Sprintf(format, args...))
}

// advanceIf advances the scanner only if the current char matches one of
// the given bytes.
func (s *Scanner) advanceIf(matches ...byte) bool {
	if bytes.ContainsRune(matches, s.cur) {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token in the source file and fills val with its
// lexeme and decoded literal value.
func (s *Scanner) Scan(val *token.Value) (tok token.Token) {
	s.skipWhitespaceAndComments()

	pos := s.file.Src(s.off)
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		tok = token.LookupIdent(lit)
		*val = token.Value{Raw: lit, Src: pos}

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(s.peek()))):
		tok = s.number(pos, val)

	case cur == '$':
		s.advance()
		lit := s.ident()
		if lit == "" {
			s.error(start, "expected a name after '$'")
		}
		tok = token.POLY
		*val = token.Value{Raw: lit, Src: pos}

	default:
		s.advance() // always make progress
		switch cur {
		case '"':
			tok = token.STRING
			lit, str := s.shortString()
			*val = token.Value{Raw: lit, Src: pos, Str: str}

		case '(', ')', ',', '{', '}', '[', ']', '#', ';', '+', '%', '^':
			tok = singleCharTok[cur]
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '*':
			tok = token.STAR
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '!':
			tok = token.BANG
			if s.advanceIf('=') {
				tok = token.NEQ
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '~':
			tok = token.TILDE
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '&':
			tok = token.AMPERSAND
			if s.advanceIf('&') {
				tok = token.ANDAND
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '|':
			tok = token.PIPE
			if s.advanceIf('|') {
				tok = token.OROR
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '=':
			tok = token.EQ
			if s.advanceIf('=') {
				tok = token.EQEQ
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '<':
			tok = token.LT
			switch {
			case s.advanceIf('<'):
				tok = token.LTLT
			case s.advanceIf('='):
				tok = token.LE
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '>':
			tok = token.GT
			switch {
			case s.advanceIf('>'):
				tok = token.GTGT
			case s.advanceIf('='):
				tok = token.GE
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case ':':
			tok = token.COLON
			if s.advanceIf(':') {
				tok = token.COLONCOLON
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '-':
			tok = token.MINUS
			if s.advanceIf('>') {
				tok = token.ARROW
			}
			*val = token.Value{Raw: tok.String(), Src: pos}

		case '.':
			tok = token.DOT
			raw := tok.String()
			if s.advanceIf('.') {
				if s.advanceIf('.') {
					tok = token.DOTDOTDOT
					raw = tok.String()
				} else {
					// we could tokenize this as DOT and DOT, but it's never a valid
					// sequence so we error (and we only have 1 lookahead).
					s.error(start, "illegal punctuation '..'")
					tok = token.ILLEGAL
					raw = ".."
				}
			}
			*val = token.Value{Raw: raw, Src: pos}

		case '/':
			tok = token.SLASH
			*val = token.Value{Raw: tok.String(), Src: pos}

		case -1:
			tok = token.EOF
			*val = token.Value{Raw: "", Src: pos}

		default:
			s.errorf(start, "illegal character %#U", cur)
			tok = token.ILLEGAL
			*val = token.Value{Raw: string(cur), Src: pos}
		}
	}
	return tok
}

var singleCharTok = map[rune]token.Token{
	'(': token.LPAREN,
	')': token.RPAREN,
	',': token.COMMA,
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACK,
	']': token.RBRACK,
	'#': token.HASH,
	';': token.SEMI,
	'+': token.PLUS,
	'%': token.PERCENT,
	'^': token.CIRCUMFLEX,
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// skipWhitespaceAndComments consumes whitespace, `//` line comments and
// `/* */` block comments; this language has no COMMENT token, comments
// carry no meaning past the lexer.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch {
		case isWhitespace(s.cur):
			s.advance()
		case s.cur == '/' && s.peek() == '/':
			for s.cur != '\n' && s.cur != -1 {
				s.advance()
			}
		case s.cur == '/' && s.peek() == '*':
			s.skipBlockComment()
		default:
			return
		}
	}
}

func (s *Scanner) skipBlockComment() {
	start := s.off
	s.advance()
	s.advance()
	for s.cur != -1 {
		if s.cur == '*' && s.peek() == '/' {
			s.advance()
			s.advance()
			return
		}
		s.advance()
	}
	s.error(start, "comment not terminated")
}

func isWhitespace(rn rune) bool {
	return rn == ' ' || rn == '\t' || rn == '\n' || rn == '\r'
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9' ||
		rn >= utf8.RuneSelf && unicode.IsDigit(rn)
}
