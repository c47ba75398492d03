package cpp

import (
	"strconv"
)

// lexQuoted lexes a character or string constant (spec section 4.1 /
// section 3, Encoding). start is the offset of the encoding prefix if any,
// otherwise of the opening quote itself.
func (l *Lexer) lexQuoted(start int, enc Encoding, ws, sol bool) Token {
	l.off = start + len(enc.String())
	opening := l.src[l.off]
	l.off++

	kind := String
	if opening == '\'' {
		kind = Character
	}

	startContent := l.off
	terminated := false
	for l.off < len(l.src) {
		c := l.src[l.off]
		if c == '\n' {
			break
		}
		if c == opening {
			terminated = true
			l.off++
			break
		}
		if c == '\\' {
			l.off++
			l.consumeEscape()
			continue
		}
		l.off++
	}
	if !terminated {
		l.errorf(start, "unterminated %s", kind)
	}
	text := string(l.src[start:l.off])
	_ = startContent
	return Token{Kind: kind, Text: text, Encoding: enc, Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
}

// consumeEscape consumes one escape sequence body (the backslash itself was
// already consumed by the caller), validating it against the C standard's
// escape sequence table: \' \" \? \\ \a \b \f \n \r \t \v, \ooo (1-3
// octal), \xH+ (any length hex run), \uHHHH, \UHHHHHHHH.
func (l *Lexer) consumeEscape() {
	if l.off >= len(l.src) {
		l.errorf(l.off, "bad escape sequence: unexpected end of input")
		return
	}
	c := l.src[l.off]
	switch c {
	case '\'', '"', '?', '\\', 'a', 'b', 'f', 'n', 'r', 't', 'v':
		l.off++
	case 'x':
		start := l.off + 1
		l.off++
		n := 0
		for l.off < len(l.src) && isHexDigit(l.src[l.off]) {
			l.off++
			n++
		}
		if n == 0 {
			l.errorf(start, "bad escape sequence: \\x requires at least one hex digit")
		}
	case 'u':
		l.consumeFixedHex(4)
	case 'U':
		l.consumeFixedHex(8)
	default:
		if c >= '0' && c <= '7' {
			n := 0
			for l.off < len(l.src) && n < 3 && l.src[l.off] >= '0' && l.src[l.off] <= '7' {
				l.off++
				n++
			}
			return
		}
		l.errorf(l.off, "bad escape sequence: \\%c", c)
		l.off++
	}
}

func (l *Lexer) consumeFixedHex(n int) {
	start := l.off + 1
	l.off++
	for i := 0; i < n; i++ {
		if l.off >= len(l.src) || !isHexDigit(l.src[l.off]) {
			l.errorf(start, "bad escaped code point: expected %d hex digits", n)
			return
		}
		l.off++
	}
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeEscape decodes a single escape sequence body (the text following the
// backslash, e.g. "n" or "x41" or "101") into its rune value, per the table
// in spec section 4.1. It is used by the compiler's string-literal lowering
// once a token has been confirmed well-formed by the lexer.
func DecodeEscape(body string) (rune, bool) {
	if body == "" {
		return 0, false
	}
	switch body[0] {
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case '?':
		return '?', true
	case '\\':
		return '\\', true
	case 'a':
		return 0x07, true
	case 'b':
		return 0x08, true
	case 'f':
		return 0x0C, true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return 0x0B, true
	case 'x':
		v, err := strconv.ParseUint(body[1:], 16, 64)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	case 'u', 'U':
		v, err := strconv.ParseUint(body[1:], 16, 32)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	default:
		if body[0] >= '0' && body[0] <= '7' {
			v, err := strconv.ParseUint(body, 8, 32)
			if err != nil {
				return 0, false
			}
			return rune(v), true
		}
		return 0, false
	}
}
