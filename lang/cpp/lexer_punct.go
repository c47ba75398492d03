package cpp

// lexHeaderName lexes a <...> header-name, only ever invoked right after an
// #include/#embed directive or __has_include(/__has_embed( call (spec
// section 4.1).
func (l *Lexer) lexHeaderName(start int, ws, sol bool) Token {
	l.off = start + 1 // consume '<'
	terminated := false
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c == '\n' {
			break
		}
		l.off++
		if c == '>' {
			terminated = true
			break
		}
	}
	if !terminated {
		l.errorf(start, "unterminated header name")
	}
	l.lastWasInclude = false
	return Token{Kind: HeaderName, Text: string(l.src[start:l.off]), Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
}

// multiChar punctuators, longest first within each starting byte so the
// greedy match below never needs backtracking.
var multiCharPuncts = []string{
	"...", "<<=", ">>=", "->*",
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "++", "--", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "::", "##",
}

func (l *Lexer) lexPunct(start int, ws, sol bool) Token {
	rest := l.src[start:]
	for _, p := range multiCharPuncts {
		if len(rest) >= len(p) && string(rest[:len(p)]) == p {
			l.off = start + len(p)
			return Token{Kind: Punct, Text: p, Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
		}
	}

	c := l.src[start]
	if !isPunctByte(c) {
		l.errorf(start, "illegal character %q", rune(c))
		l.off = start + 1
		return Token{Kind: Illegal, Text: string(c), Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
	}
	l.off = start + 1
	return Token{Kind: Punct, Text: string(c), Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
}

func isPunctByte(c byte) bool {
	switch c {
	case '[', ']', '(', ')', '{', '}', '.', '&', '*', '+', '-', '~', '!',
		'/', '%', '<', '>', '^', '|', '?', ':', ';', '=', ',', '#', '\'', '"', '@', '$', '\\':
		return true
	default:
		return false
	}
}
