package cpp

import "fmt"

// resolvePaste implements spec section 4.1's second pass: resolving `##`
// token concatenation per the C preprocessor's token-pasting rules. It
// runs after macro bodies have otherwise been fully substituted (the
// `##` operator itself is never macro-expanded, so any `##` remaining
// at this point came from a macro body verbatim).
func resolvePaste(toks []Token) []Token {
	var out []Token
	for i := 0; i < len(toks); i++ {
		if toks[i].IsPunct("##") {
			if len(out) == 0 || i+1 >= len(toks) {
				// malformed input (## at an edge); keep as a literal punctuator so
				// the parser reports a clearer syntax error downstream.
				out = append(out, toks[i])
				continue
			}
			left := out[len(out)-1]
			right := toks[i+1]
			pasted, err := pasteTokens(left, right)
			if err != nil {
				out = append(out, toks[i], right)
				i++
				continue
			}
			out[len(out)-1] = pasted
			i++
			continue
		}
		out = append(out, toks[i])
	}
	return out
}

// pasteTokens concatenates two tokens per the table in spec section 4.1.
func pasteTokens(left, right Token) (Token, error) {
	switch {
	case left.Kind == Identifier && right.Kind == Identifier:
		return Token{Kind: Identifier, Text: left.Text + right.Text, Src: left.Src}, nil
	case left.Kind == Identifier && right.Kind == Number:
		return Token{Kind: Identifier, Text: left.Text + right.Text, Src: left.Src}, nil
	case left.Kind == Number && right.Kind == Identifier:
		return Token{Kind: Number, Text: left.Text + right.Text, Src: left.Src}, nil
	case left.Kind == Number && right.Kind == Number:
		return Token{Kind: Number, Text: left.Text + right.Text, Src: left.Src}, nil
	case left.Kind == String && right.Kind == String && left.Encoding == right.Encoding:
		// both quoted; strip right's opening quote and left's closing quote.
		lt, rt := left.Text, right.Text
		if len(lt) >= 2 && len(rt) >= 2 {
			merged := lt[:len(lt)-1] + rt[1:]
			return Token{Kind: String, Text: merged, Encoding: left.Encoding, Src: left.Src}, nil
		}
		return Token{}, fmt.Errorf("cannot concatenate malformed string tokens")
	default:
		return Token{}, fmt.Errorf("cannot concatenate tokens %q (%s) and %q (%s)",
			left.Text, left.Kind, right.Text, right.Kind)
	}
}
