package cpp

// lexNumber recognizes a C "preprocessing number" (spec section 4.1): a
// digit (or '.' followed by a digit) followed by any run of letters,
// digits, '_', '$', '.', a digit-separator "'" followed by a digit, or an
// exponent marker [eEpP] followed by an optional sign.
func (l *Lexer) lexNumber(start int, ws, sol bool) Token {
	l.off = start
	l.consumeNumberChar() // the leading digit or '.'

	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case (c == 'e' || c == 'E' || c == 'p' || c == 'P') && l.off+1 < len(l.src) &&
			(l.src[l.off+1] == '+' || l.src[l.off+1] == '-'):
			l.off += 2
		case isIdentCont(c) || c == '.' || c == '$':
			l.off++
		case c == '\'' && l.off+1 < len(l.src) && isDigit(l.src[l.off+1]):
			l.off += 2
		default:
			goto done
		}
	}
done:
	text := string(l.src[start:l.off])
	return Token{Kind: Number, Text: text, Src: l.file.Src(start), PrecededByWhitespace: ws, StartOfLine: sol}
}

func (l *Lexer) consumeNumberChar() {
	if l.off < len(l.src) {
		l.off++
	}
}
