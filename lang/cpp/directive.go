package cpp

import (
	"fmt"
	"strings"

	"github.com/mna/adeptc/internal/diag"
	"github.com/mna/adeptc/lang/token"
)

// SourceFiles is the external collaborator (spec section 1) mapping an
// include spelling to source text. The preprocessor treats it as an
// interface: workspace enumeration and actual file I/O are out of scope.
type SourceFiles interface {
	// Resolve looks up a "quoted" or <angle-bracket> include/embed spelling
	// relative to the including file, returning the resolved identifier and
	// its text.
	Resolve(fromFile string, spelling string, angled bool) (resolvedName string, text []byte, ok bool)
}

// groupState tracks one nested #if/#elif/.../#endif group (spec section
// 4.1: "A group stack tracks whether emission is currently active").
type groupState struct {
	active       bool // are we currently emitting tokens for this branch?
	everTaken    bool // has any branch of this group been taken yet?
	parentActive bool // was the enclosing group active when this one started?
}

// Preprocessor drives the directive layer over a file's token stream,
// producing the final, directive-stripped and macro-expanded output (spec
// section 4.1).
type Preprocessor struct {
	Env   *Environment
	Files SourceFiles
	Diag  diag.Sink

	// Target-ish predefined macro values (spec section 6): __STDC__,
	// __STDC_VERSION__, __LINE__, __FILE__, __DATE__, __TIME__, and a
	// target-specific triplet of __POINTER_WIDTH__, endianness and long-size
	// macros. Line/File are recomputed per use; the rest are installed as
	// ordinary Defines by InstallPredefined.
	currentFile string
	currentFileSet *token.FileSet
}

// NewPreprocessor creates a preprocessor sharing env and reporting through
// sink.
func NewPreprocessor(env *Environment, files SourceFiles, sink diag.Sink) *Preprocessor {
	return &Preprocessor{Env: env, Files: files, Diag: sink}
}

// InstallPredefined installs the predefined object macros named in spec
// section 6, aside from __LINE__/__FILE__ which are computed per use by the
// expander's `predefined` hook. date and buildTime are caller-supplied
// (rather than sampled from the wall clock here) so that a build driver can
// keep them stable across reproducible builds.
func (pp *Preprocessor) InstallPredefined(stdcVersion string, pointerWidth int, bigEndian bool, longBits int, date, buildTime string) {
	str := func(s string) []Token { return []Token{{Kind: String, Text: "\"" + s + "\""}} }
	num := func(n int) []Token { return []Token{{Kind: Number, Text: fmt.Sprint(n)}} }

	pp.Env.Define(&Define{Name: "__STDC__", Kind: ObjectMacro, Body: num(1)})
	pp.Env.Define(&Define{Name: "__STDC_VERSION__", Kind: ObjectMacro, Body: []Token{{Kind: Number, Text: stdcVersion}}})
	pp.Env.Define(&Define{Name: "__POINTER_WIDTH__", Kind: ObjectMacro, Body: num(pointerWidth)})
	endian := 0
	if bigEndian {
		endian = 1
	}
	pp.Env.Define(&Define{Name: "__BIG_ENDIAN__", Kind: ObjectMacro, Body: num(endian)})
	pp.Env.Define(&Define{Name: "__LONG_WIDTH__", Kind: ObjectMacro, Body: num(longBits)})
	pp.Env.Define(&Define{Name: "__DATE__", Kind: ObjectMacro, Body: str(date)})
	pp.Env.Define(&Define{Name: "__TIME__", Kind: ObjectMacro, Body: str(buildTime)})
}

func (pp *Preprocessor) errorf(pos token.Position, format string, args ...any) {
	if pp.Diag == nil {
		return
	}
	pp.Diag.Report(diag.Diagnostic{Pos: pos, Severity: diag.Error, Message: fmt.Sprintf(format, args...)})
}

// ProcessFile runs the full directive layer + macro expansion pipeline over
// a single file's raw tokens (as produced by Lexer.Tokens), returning the
// final expanded token stream.
func (pp *Preprocessor) ProcessFile(file *token.File, fset *token.FileSet, raw []Token) []Token {
	pp.currentFile = file.Name()
	pp.currentFileSet = fset

	lines := splitLines(raw)

	var groups []groupState
	isActive := func() bool {
		for _, g := range groups {
			if !g.active {
				return false
			}
		}
		return true
	}

	var out []Token
	lineNo := 0
	ex := NewExpander(pp.Env, pp.predefinedHook(file, &lineNo))

	for _, line := range lines {
		lineNo++
		if len(line) == 0 {
			continue
		}

		if line[0].IsPunct("#") && line[0].StartOfLine {
			pp.directive(line[1:], &groups, isActive, fset)
			continue
		}

		if !isActive() {
			continue
		}
		expanded := ex.Expand(line)
		out = append(out, expanded...)
	}

	for range groups {
		pp.errorf(fset.Position(file.Src(0)), "unterminated #if: missing #endif")
	}
	return out
}

func (pp *Preprocessor) predefinedHook(file *token.File, lineNo *int) func(string, Token) (Token, bool) {
	return func(name string, at Token) (Token, bool) {
		switch name {
		case "__LINE__":
			return Token{Kind: Number, Text: fmt.Sprint(*lineNo), Src: at.Src}, true
		case "__FILE__":
			return Token{Kind: String, Text: "\"" + file.Name() + "\"", Src: at.Src}, true
		default:
			return Token{}, false
		}
	}
}

// splitLines groups a flat token slice into logical lines using
// Token.StartOfLine, dropping the synthesized EOF token.
func splitLines(toks []Token) [][]Token {
	var lines [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Kind == EOF {
			break
		}
		if t.StartOfLine && len(cur) > 0 {
			lines = append(lines, cur)
			cur = nil
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func (pp *Preprocessor) directive(rest []Token, groups *[]groupState, isActive func() bool, fset *token.FileSet) {
	if len(rest) == 0 {
		return // null directive, legal and a no-op
	}
	kw := rest[0]
	if kw.Kind != Identifier {
		pp.errorf(fset.Position(kw.Src), "expected preprocessing directive name")
		return
	}
	args := rest[1:]

	switch kw.Text {
	case "if":
		pp.pushIf(groups, isActive(), pp.evalCondTokens(args))
	case "ifdef":
		pp.pushIf(groups, isActive(), len(args) > 0 && pp.isDefined(args[0]))
	case "ifndef":
		pp.pushIf(groups, isActive(), !(len(args) > 0 && pp.isDefined(args[0])))
	case "elif":
		pp.elseIf(groups, pp.evalCondTokens(args), kw.Src, fset)
	case "elifdef":
		pp.elseIf(groups, len(args) > 0 && pp.isDefined(args[0]), kw.Src, fset)
	case "elifndef":
		pp.elseIf(groups, !(len(args) > 0 && pp.isDefined(args[0])), kw.Src, fset)
	case "else":
		pp.elseBranch(groups, kw.Src, fset)
	case "endif":
		pp.endif(groups, kw.Src, fset)
	case "define":
		if isActive() {
			pp.define(args, kw.Src, fset)
		}
	case "undef":
		if isActive() && len(args) > 0 {
			pp.Env.Undef(args[0].Text)
		}
	case "include", "embed":
		if isActive() {
			pp.include(args, kw.Src, fset)
		}
	case "error":
		if isActive() {
			pp.errorf(fset.Position(kw.Src), "#error %s", joinText(args))
		}
	case "pragma":
		// out of scope beyond acceptance: a target-specific pragma handler
		// collaborator would attach here.
	default:
		pp.errorf(fset.Position(kw.Src), "unknown directive #%s", kw.Text)
	}
}

func (pp *Preprocessor) pushIf(groups *[]groupState, parentActive, cond bool) {
	*groups = append(*groups, groupState{active: parentActive && cond, everTaken: cond, parentActive: parentActive})
}

func (pp *Preprocessor) elseIf(groups *[]groupState, cond bool, at token.Source, fset *token.FileSet) {
	if len(*groups) == 0 {
		pp.errorf(fset.Position(at), "#elif without #if")
		return
	}
	g := &(*groups)[len(*groups)-1]
	// spec section 4.1: "#elif is evaluated only if no previous branch in the
	// group was taken".
	if g.everTaken {
		g.active = false
		return
	}
	g.active = g.parentActive && cond
	g.everTaken = cond
}

func (pp *Preprocessor) elseBranch(groups *[]groupState, at token.Source, fset *token.FileSet) {
	if len(*groups) == 0 {
		pp.errorf(fset.Position(at), "#else without #if")
		return
	}
	g := &(*groups)[len(*groups)-1]
	g.active = g.parentActive && !g.everTaken
	g.everTaken = true
}

func (pp *Preprocessor) endif(groups *[]groupState, at token.Source, fset *token.FileSet) {
	if len(*groups) == 0 {
		pp.errorf(fset.Position(at), "#endif without #if")
		return
	}
	*groups = (*groups)[:len(*groups)-1]
}

func (pp *Preprocessor) isDefined(tok Token) bool {
	_, ok := pp.Env.Lookup(tok.Text)
	return ok
}

// evalCondTokens implements the `defined(X)`/`defined X` substitution (left
// as-is by macro expansion, since `defined` is not itself a macro) followed
// by full macro expansion and constant folding.
func (pp *Preprocessor) evalCondTokens(toks []Token) bool {
	subst := pp.substDefined(toks)
	ex := NewExpander(pp.Env, nil)
	expanded := ex.Expand(subst)
	expr, errMsg := ParseConstExpr(expanded)
	if errMsg != "" {
		if pp.Diag != nil {
			pp.Diag.Report(diag.Diagnostic{Severity: diag.Error, Message: errMsg})
		}
		return false
	}
	return Eval(expr, pp.Env) != 0
}

func (pp *Preprocessor) substDefined(toks []Token) []Token {
	var out []Token
	for i := 0; i < len(toks); i++ {
		if toks[i].Kind == Identifier && toks[i].Text == "defined" {
			if i+1 < len(toks) && toks[i+1].IsPunct("(") {
				name, after, ok := parseBalancedGroup(toks, i+1)
				if ok && len(name) == 1 {
					out = append(out, Token{Kind: Number, Text: boolLit(pp.isDefined(name[0]))})
					i = after - 1
					continue
				}
			} else if i+1 < len(toks) && toks[i+1].Kind == Identifier {
				out = append(out, Token{Kind: Number, Text: boolLit(pp.isDefined(toks[i+1]))})
				i++
				continue
			}
		}
		out = append(out, toks[i])
	}
	return out
}

func boolLit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (pp *Preprocessor) define(args []Token, at token.Source, fset *token.FileSet) {
	if len(args) == 0 {
		pp.errorf(fset.Position(at), "#define: missing macro name")
		return
	}
	name := args[0]
	rest := args[1:]

	if len(rest) > 0 && rest[0].IsPunct("(") && !rest[0].PrecededByWhitespace {
		params, body, ok := parseFunctionMacroHead(rest)
		if !ok {
			pp.errorf(fset.Position(at), "#define: malformed function-like macro %s", name.Text)
			return
		}
		variadic := false
		if n := len(params); n > 0 && params[n-1] == "..." {
			variadic = true
			params = params[:n-1]
		}
		pp.Env.Define(&Define{Name: name.Text, Kind: FunctionMacro, Params: params, IsVariadic: variadic, Body: body})
		return
	}

	pp.Env.Define(&Define{Name: name.Text, Kind: ObjectMacro, Body: rest})
}

// parseFunctionMacroHead parses "(p1, p2, ...)" REPLACEMENT... given rest
// starting at the '(' token, returning the parameter names and the body.
func parseFunctionMacroHead(rest []Token) ([]string, []Token, bool) {
	if len(rest) == 0 || !rest[0].IsPunct("(") {
		return nil, nil, false
	}
	i := 1
	var params []string
	for i < len(rest) && !rest[i].IsPunct(")") {
		switch {
		case rest[i].IsPunct(","):
			i++
		case rest[i].IsPunct("..."):
			params = append(params, "...")
			i++
		case rest[i].Kind == Identifier:
			params = append(params, rest[i].Text)
			i++
		default:
			return nil, nil, false
		}
	}
	if i >= len(rest) {
		return nil, nil, false
	}
	return params, rest[i+1:], true
}

func (pp *Preprocessor) include(args []Token, at token.Source, fset *token.FileSet) {
	if len(args) == 0 {
		pp.errorf(fset.Position(at), "#include: missing filename")
		return
	}
	tok := args[0]
	var spelling string
	var angled bool
	switch tok.Kind {
	case HeaderName:
		angled = strings.HasPrefix(tok.Text, "<")
		spelling = strings.Trim(tok.Text, "<>\"")
	case String:
		spelling = strings.Trim(tok.Text, "\"")
	default:
		pp.errorf(fset.Position(at), "#include: expected a header name or string literal")
		return
	}

	if pp.Files == nil {
		pp.errorf(fset.Position(at), "#include %q: no SourceFiles collaborator configured", spelling)
		return
	}
	_, _, ok := pp.Files.Resolve(pp.currentFile, spelling, angled)
	if !ok {
		pp.errorf(fset.Position(at), "#include %q: not found", spelling)
	}
	// Actual recursive tokenizing/processing of the included file's tokens is
	// driven by the caller (it owns the FileSet registration for the new
	// file); ProcessFile is invoked once per file by the top-level driver.
}

func joinText(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// HasInclude evaluates __has_include(spelling) per C23 (spec section 6):
// returns 1 if Files can resolve it, 0 otherwise.
func (pp *Preprocessor) HasInclude(spelling string, angled bool) int {
	if pp.Files == nil {
		return 0
	}
	if _, _, ok := pp.Files.Resolve(pp.currentFile, spelling, angled); ok {
		return 1
	}
	return 0
}
