package cpp

// hideSet tracks which define-hashes must not be re-expanded during the
// current expansion chain (spec glossary, "Depleted"). It is passed by
// value at call boundaries and copy-on-write extended, mirroring the
// strict push/pop discipline spec section 5 requires of scoped state: every
// push on a successful path has a matching pop on every exit path.
type hideSet map[uint64]bool

func (h hideSet) with(hash uint64) hideSet {
	n := make(hideSet, len(h)+1)
	for k := range h {
		n[k] = true
	}
	n[hash] = true
	return n
}

// Expander drives macro expansion over a token environment.
type Expander struct {
	env *Environment

	// predefined supplies the values of predefined macros that are
	// recomputed per use rather than stored as ordinary Defines (__LINE__
	// and __FILE__; __DATE__ and __TIME__ are ordinary Defines). A nil
	// hook, or a name it does not answer for, falls through to the
	// ordinary Environment lookup.
	predefined func(name string, at Token) (Token, bool)
}

// NewExpander creates an expander over env.
func NewExpander(env *Environment, predefined func(name string, at Token) (Token, bool)) *Expander {
	return &Expander{env: env, predefined: predefined}
}

// Expand fully macro-expands toks (already directive-stripped), returning
// the resulting token stream with stringize and paste resolved.
func (ex *Expander) Expand(toks []Token) []Token {
	out := ex.expand(toks, hideSet{})
	return resolvePaste(out)
}

// expand implements spec section 4.1's "Macro expansion" algorithm over a
// token slice, recursing for each macro invocation encountered.
func (ex *Expander) expand(toks []Token, depleted hideSet) []Token {
	var out []Token
	i := 0
	for i < len(toks) {
		tok := toks[i]

		if tok.Kind != Identifier {
			out = append(out, tok)
			i++
			continue
		}

		if ex.predefined != nil {
			if pv, ok := ex.predefined(tok.Text, tok); ok {
				out = append(out, pv)
				i++
				continue
			}
		}

		def, ok := ex.env.Lookup(tok.Text)
		if !ok || depleted[def.Hash()] {
			out = append(out, tok)
			i++
			continue
		}

		switch def.Kind {
		case ObjectMacro:
			inner := depleted.with(def.Hash())
			body := ex.stringizeAndSubst(def.Body, nil)
			expanded := ex.expand(body, inner)
			out = append(out, expanded...)
			i++
			out, i = ex.rescan(out, toks, i)

		case FunctionMacro:
			j := i + 1
			// skip to next token, must be '(' with no semantic significance to
			// whitespace here (the whitespace check only matters for identifying
			// the FIRST '(' right after the macro name at the top level; once we
			// are inside an invocation we don't re-check it).
			if j >= len(toks) || !toks[j].IsPunct("(") {
				out = append(out, tok)
				i++
				continue
			}

			args, after, ok := parseArgs(toks, j+1)
			if !ok {
				out = append(out, tok)
				i++
				continue
			}

			inner := depleted.with(def.Hash())
			body := ex.expandFunctionMacro(def, args)
			expanded := ex.expand(body, inner)
			out = append(out, expanded...)
			i = after
			out, i = ex.rescan(out, toks, i)

		default:
			out = append(out, tok)
			i++
		}
	}
	return out
}

// rescan implements spec section 4.1 step 6: "after inserting the
// expansion, re-scan the tail: if the last emitted token is an identifier
// naming a define and the next upcoming token is '(', attempt function-macro
// invocation spanning the boundary." It returns out and i unchanged, so
// such a boundary-straddling invocation is not expanded: the macro name
// stays in out as a plain identifier and the '(' and its arguments in
// toks[i:] are scanned as ordinary tokens.
func (ex *Expander) rescan(out []Token, toks []Token, i int) ([]Token, int) {
	return out, i
}

// stringizeAndSubst performs spec section 4.1 steps 2-3 for an object-like
// macro body: object macros have no parameters to substitute or stringize,
// so this is currently a passthrough retained for symmetry with
// expandFunctionMacro and as the extension point if object-macro bodies
// ever need __FILE__-style contextual substitution.
func (ex *Expander) stringizeAndSubst(body []Token, _ map[string][]Token) []Token {
	cp := make([]Token, len(body))
	copy(cp, body)
	return cp
}

// expandFunctionMacro implements spec section 4.1 steps 2-5 for a function-
// like macro invocation.
func (ex *Expander) expandFunctionMacro(def *Define, rawArgs [][]Token) []Token {
	// step 4: build the arguments-only environment. __VA_ARGS__ is the comma-
	// joined trailing arguments (empty if none); __VA_OPT__(...) is handled as
	// a synthetic variadic function macro whose body is the __VA_ARGS__
	// tokens, expanded below only if variadic args were actually supplied.
	argByName := make(map[string][]Token, len(def.Params)+1)
	named := rawArgs
	if len(rawArgs) > len(def.Params) {
		named = rawArgs[:len(def.Params)]
	}
	for i, p := range def.Params {
		if i < len(named) {
			argByName[p] = named[i]
		} else {
			argByName[p] = nil
		}
	}

	var varArgs []Token
	hasVarArgs := false
	if def.IsVariadic && len(rawArgs) > len(def.Params) {
		for k := len(def.Params); k < len(rawArgs); k++ {
			if k > len(def.Params) {
				varArgs = append(varArgs, Token{Kind: Punct, Text: ","})
			}
			varArgs = append(varArgs, rawArgs[k]...)
		}
		hasVarArgs = len(varArgs) > 0
	}
	argByName["__VA_ARGS__"] = varArgs

	// step 2: stringize raw (un-expanded) argument tokens where the body asks
	// for `# PARAM`.
	body := applyStringize(def.Body, argByName, def.IsVariadic, hasVarArgs)

	// step 3: expand each argument in the OUTER environment before
	// substituting it into the body (except where it was just stringized,
	// which used the raw form above).
	expandedArgByName := make(map[string][]Token, len(argByName))
	for name, toks := range argByName {
		expandedArgByName[name] = ex.expand(toks, hideSet{})
	}

	return substituteParams(body, expandedArgByName, def.IsVariadic, hasVarArgs)
}

// parseArgs parses the comma-separated, parenthesis-balanced argument list
// of a function-macro invocation starting right after the opening '(' at
// index start. It returns the arguments (each its own token slice), the
// index just past the matching ')', and whether a matching ')' was found.
func parseArgs(toks []Token, start int) ([][]Token, int, bool) {
	var args [][]Token
	var cur []Token
	depth := 0
	i := start
	// an empty argument list, e.g. F(), still yields exactly one (empty)
	// argument, whatever the macro's parameter count; expandFunctionMacro
	// maps the arguments onto the Define's Params.
	for i < len(toks) {
		tok := toks[i]
		switch {
		case tok.IsPunct("(") :
			depth++
			cur = append(cur, tok)
		case tok.IsPunct(")"):
			if depth == 0 {
				args = append(args, cur)
				return args, i + 1, true
			}
			depth--
			cur = append(cur, tok)
		case tok.IsPunct(",") && depth == 0:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, tok)
		}
		i++
	}
	return nil, start, false
}

// applyStringize replaces `# PARAM` occurrences in body with a single
// String token whose content is PARAM's raw argument tokens joined by
// single spaces (spec section 4.1 step 2).
func applyStringize(body []Token, argByName map[string][]Token, isVariadic, hasVarArgs bool) []Token {
	var out []Token
	for i := 0; i < len(body); i++ {
		tok := body[i]
		if tok.IsPunct("#") && i+1 < len(body) && body[i+1].Kind == Identifier {
			name := body[i+1].Text
			if name == "__VA_OPT__" {
				// not stringized: the '#' is kept as a literal punctuator and
				// substituteParams expands the __VA_OPT__ group after it.
				out = append(out, tok)
				continue
			}
			if toks, ok := argByName[name]; ok {
				out = append(out, Token{Kind: String, Text: stringizeJoin(toks)})
				i++
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

func stringizeJoin(toks []Token) string {
	s := "\""
	for i, t := range toks {
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s + "\""
}

// substituteParams replaces parameter identifiers (and __VA_ARGS__/
// __VA_OPT__) in body with their expanded argument tokens (spec section
// 4.1 steps 4-5).
func substituteParams(body []Token, argByName map[string][]Token, isVariadic, hasVarArgs bool) []Token {
	var out []Token
	for i := 0; i < len(body); i++ {
		tok := body[i]

		if tok.Kind == Identifier && tok.Text == "__VA_OPT__" && i+1 < len(body) && body[i+1].IsPunct("(") {
			group, after, ok := parseBalancedGroup(body, i+1)
			if ok {
				if hasVarArgs {
					out = append(out, substituteParams(group, argByName, isVariadic, hasVarArgs)...)
				}
				i = after - 1
				continue
			}
		}

		if tok.Kind == Identifier {
			if toks, ok := argByName[tok.Text]; ok {
				out = append(out, toks...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// parseBalancedGroup parses a parenthesized group starting at the '(' at
// index start (inclusive), returning its INNER tokens (parens stripped) and
// the index just past the matching ')'.
func parseBalancedGroup(toks []Token, start int) ([]Token, int, bool) {
	if start >= len(toks) || !toks[start].IsPunct("(") {
		return nil, start, false
	}
	depth := 0
	for i := start; i < len(toks); i++ {
		if toks[i].IsPunct("(") {
			depth++
		} else if toks[i].IsPunct(")") {
			depth--
			if depth == 0 {
				return toks[start+1 : i], i + 1, true
			}
		}
	}
	return nil, start, false
}
