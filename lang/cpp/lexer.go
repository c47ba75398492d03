package cpp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/token"
)

// lexState names the lexer's states (spec section 4.1: "A state machine
// with states {Idle, Number, MultiLineComment, Identifier,
// CharacterConstant(enc), StringLiteral(enc), HeaderName}"). The Lexer
// does not store one: next dispatches on the current byte and each lex*
// method runs one state to completion.
type lexState int

const (
	stIdle lexState = iota
	stNumber
	stMultiLineComment
	stIdentifier
	stCharacterConstant
	stStringLiteral
	stHeaderName
)

// Lexer tokenizes a single C source file into preprocessor tokens. It does
// not evaluate directives or expand macros; that is the directive layer and
// expander's job (lexer.go only produces the flat token stream, comments and
// line continuations already removed).
type Lexer struct {
	file *token.File
	src  []byte
	diag diag.Sink

	off              int
	cur              rune
	startOfLine      bool
	sawWhitespace    bool
	lastWasInclude   bool // true if the previous non-whitespace token was #include/#embed or a __has_include(/__has_embed( function invocation
	inCommentDepth   int
}

// NewLexer creates a lexer over src, registered in file. The caller must
// have already registered file's size to match len(src) (mirrors
// lang/scanner.Scanner.Init's contract).
func NewLexer(file *token.File, src []byte, sink diag.Sink) *Lexer {
	return &Lexer{file: file, src: src, diag: sink, startOfLine: true}
}

func (l *Lexer) errorf(off int, format string, args ...any) {
	if l.diag == nil {
		return
	}
	l.diag.Report(diag.Diagnostic{
		Pos:      l.file.Position(off),
		Severity: diag.Error,
		Message:  fmt.Sprintf(format, args...),
	})
}

// peekByte returns the byte at off without consuming it, or 0 past EOF.
func (l *Lexer) peekByte(off int) byte {
	if off < len(l.src) {
		return l.src[off]
	}
	return 0
}

// Tokens lexes every token in the file, joining backslash-newline physical
// line continuations first (spec section 4.1: "Input is a sequence of
// physical lines (continuation-joined)").
func (l *Lexer) Tokens() []Token {
	src := joinContinuations(l.src)
	l.src = src

	var toks []Token
	for {
		tok := l.next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks
}

// joinContinuations removes every "\\\n" (or "\\\r\n") sequence, replacing it
// with nothing so that logical lines span what were multiple physical lines.
// Removed newlines are not recorded: positions in Token.Src point into the
// joined buffer, and the lexer registers in token.File only the line
// starts it sees there as it consumes them.
func joinContinuations(src []byte) []byte {
	if !strings.ContainsRune(string(src), '\\') {
		return src
	}
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] == '\\' {
			j := i + 1
			if j < len(src) && src[j] == '\r' {
				j++
			}
			if j < len(src) && src[j] == '\n' {
				i = j
				continue
			}
		}
		out = append(out, src[i])
	}
	return out
}

func (l *Lexer) advance() {
	if l.off >= len(l.src) {
		l.cur = -1
		return
	}
	r, w := rune(l.src[l.off]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(l.src[l.off:])
	}
	if r == '\n' {
		l.file.AddLine(l.off + 1)
	}
	l.off += w
	l.cur = r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.off < len(l.src) && (l.src[l.off] == ' ' || l.src[l.off] == '\t' || l.src[l.off] == '\r'):
			l.off++
			l.sawWhitespace = true
		case l.off < len(l.src) && l.src[l.off] == '\n':
			l.off++
			l.file.AddLine(l.off)
			l.startOfLine = true
			l.sawWhitespace = true
		case l.off+1 < len(l.src) && l.src[l.off] == '/' && l.src[l.off+1] == '/':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.off++
			}
			l.sawWhitespace = true
		case l.off+1 < len(l.src) && l.src[l.off] == '/' && l.src[l.off+1] == '*':
			start := l.off
			l.off += 2
			closed := false
			for l.off+1 < len(l.src) {
				if l.src[l.off] == '\n' {
					l.file.AddLine(l.off + 1)
				}
				if l.src[l.off] == '*' && l.src[l.off+1] == '/' {
					l.off += 2
					closed = true
					break
				}
				l.off++
			}
			if !closed {
				l.errorf(start, "unterminated multi-line comment")
				l.off = len(l.src)
			}
			l.sawWhitespace = true
		default:
			return
		}
	}
}

// next produces the single next Token, starting from the current offset.
func (l *Lexer) next() Token {
	l.skipWhitespaceAndComments()

	startOfLine := l.startOfLine
	l.startOfLine = false
	precededByWS := l.sawWhitespace
	l.sawWhitespace = false

	if l.off >= len(l.src) {
		return Token{Kind: EOF, Src: l.file.Src(l.off), StartOfLine: startOfLine, PrecededByWhitespace: precededByWS}
	}

	start := l.off
	c := l.src[l.off]

	switch {
	case isIdentStart(c):
		for l.off < len(l.src) && isIdentCont(l.src[l.off]) {
			l.off++
		}
		text := string(l.src[start:l.off])
		enc, isEncPrefix := encodingPrefix(text)
		if isEncPrefix && l.off < len(l.src) && (l.src[l.off] == '"' || l.src[l.off] == '\'') {
			return l.lexQuoted(start, enc, precededByWS, startOfLine)
		}
		return l.mk(Identifier, start, text, precededByWS, startOfLine)

	case isDigit(c) || (c == '.' && l.off+1 < len(l.src) && isDigit(l.src[l.off+1])):
		return l.lexNumber(start, precededByWS, startOfLine)

	case c == '"' || c == '\'':
		return l.lexQuoted(start, Default, precededByWS, startOfLine)

	case c == '<' && l.lastWasInclude:
		return l.lexHeaderName(start, precededByWS, startOfLine)

	default:
		return l.lexPunct(start, precededByWS, startOfLine)
	}
}

func (l *Lexer) mk(kind Kind, start int, text string, ws, sol bool) Token {
	l.off = start + len(text)
	tok := Token{Kind: kind, Text: text, Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
	l.trackInclude(tok)
	return tok
}

// trackInclude updates lastWasInclude so that the NEXT '<' is recognized as
// starting a header-name only right after #include/#embed/__has_include(/
// __has_embed( (spec section 4.1).
func (l *Lexer) trackInclude(tok Token) {
	switch tok.Kind {
	case Identifier:
		l.lastWasInclude = tok.Text == "include" || tok.Text == "embed" ||
			tok.Text == "__has_include" || tok.Text == "__has_embed"
	case Punct:
		if tok.Text != "(" {
			l.lastWasInclude = false
		}
		// a '(' immediately after __has_include/__has_embed keeps the flag set
		// for one more token (the '<'); anything else clears it.
	default:
		l.lastWasInclude = false
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }
func isDigit(c byte) bool     { return c >= '0' && c <= '9' }

func encodingPrefix(text string) (Encoding, bool) {
	switch text {
	case "u8":
		return Utf8, true
	case "u":
		return Utf16, true
	case "U":
		return Utf32, true
	case "L":
		return Wide, true
	default:
		return Default, false
	}
}

