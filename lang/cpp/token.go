// Package cpp implements the C preprocessor (spec section 4.1): a lexer
// over physical source lines, the directive layer (#if/#define/#include/...),
// macro expansion (object-like, function-like, stringize, paste,
// __VA_OPT__), and the constant-expression evaluator used by #if.
//
// The lexer is a state machine in the same style as lang/scanner (itself
// adapted from go/scanner): an Idle dispatch state plus a handful of
// in-progress states, each carrying its own accumulator.
package cpp

import "github.com/mna/adeptc/lang/token"

// Kind identifies the lexical class of a preprocessor token (spec section
// 3, "Tokens").
type Kind int8

const (
	Illegal Kind = iota
	EOF
	Identifier
	Number // a "preprocessing number" per the C grammar
	Character
	String
	HeaderName
	Punct
	Other
	Newline // only emitted internally between directive groups; stripped from macro-expanded output
)

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "illegal"
	case EOF:
		return "eof"
	case Identifier:
		return "identifier"
	case Number:
		return "number"
	case Character:
		return "character constant"
	case String:
		return "string literal"
	case HeaderName:
		return "header name"
	case Punct:
		return "punctuator"
	case Other:
		return "other"
	case Newline:
		return "newline"
	default:
		return "?"
	}
}

// Encoding identifies the prefix of a character or string constant (spec
// section 3).
type Encoding int8

const (
	Default Encoding = iota
	Utf8
	Utf16
	Utf32
	Wide
)

func (e Encoding) String() string {
	switch e {
	case Utf8:
		return "u8"
	case Utf16:
		return "u"
	case Utf32:
		return "U"
	case Wide:
		return "L"
	default:
		return ""
	}
}

// Token is a single preprocessor token (spec section 3). Tokens are value
// types: macro expansion freely copies them into new slices (the body of an
// expansion is never the same backing array as the macro definition, so
// repeated expansions of the same define cannot alias each other's hide
// sets by accident).
type Token struct {
	Kind     Kind
	Text     string // raw spelling, e.g. "123", `"foo"`, "+", "include"
	Encoding Encoding

	Src token.Source

	// PrecededByWhitespace records whether this token had intervening
	// whitespace (including comments, which the lexer replaces with a single
	// space) before it on the same logical line. Needed to distinguish a
	// function-like macro invocation "F(" from an object-like macro followed
	// by an unrelated, whitespace-separated "(" per spec section 4.1.
	PrecededByWhitespace bool

	// StartOfLine records whether this is the first token on its logical
	// line, used by the directive layer to recognize a leading '#'.
	StartOfLine bool
}

func (t Token) String() string { return t.Text }

// IsIdent reports whether t is an identifier spelled lit.
func (t Token) IsIdent(lit string) bool {
	return t.Kind == Identifier && t.Text == lit
}

// IsPunct reports whether t is the punctuator spelled lit.
func (t Token) IsPunct(lit string) bool {
	return t.Kind == Punct && t.Text == lit
}
