package resolver

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/cfg"
	"github.com/mna/adeptc/lang/token"
	"github.com/mna/adeptc/lang/typesys"
)

var (
	ErrUnknownIdent            = errors.New("resolver: undeclared identifier")
	ErrUnsupportedAssignTarget = errors.New("resolver: unsupported assignment target")
	ErrUnsupportedCallee       = errors.New("resolver: unsupported call target")
	ErrUnknownField            = errors.New("resolver: unknown field")
	ErrBreakOutsideLoop        = errors.New("resolver: break outside of a loop")
	ErrContinueOutsideLoop     = errors.New("resolver: continue outside of a loop")
	ErrUnsupportedExpr         = errors.New("resolver: unsupported expression")
	ErrAlreadyDeclared         = errors.New("resolver: already declared in this block")
)

// binding is one name's entry in a scope: its type, plus the Declare
// node that introduced it (zero for a function parameter, which has no
// Declare node of its own).
type binding struct {
	typ asg.Type
	ix  cfg.NodeIdx
}

// scope is one lexical block's name table, linked to its enclosing
// block so a lookup walks outward until it finds a binding or runs out
// of parents. A name may be declared again in a child scope (shadowing
// the outer one for the rest of that child) but not twice in the same
// scope.
type scope struct {
	parent *scope
	vars   map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]binding)}
}

func (s *scope) declare(name string, t asg.Type, ix cfg.NodeIdx) error {
	if _, ok := s.vars[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDeclared, name)
	}
	s.vars[name] = binding{typ: t, ix: ix}
	return nil
}

func (s *scope) lookup(name string) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// loopFrame tracks the two jump targets a while loop's body needs that
// aren't known until the loop has been (partially) lowered: continueTo
// is the loop condition's re-entry node (known as soon as the
// condition itself is built), breaks accumulates the dangling exit
// edges of every break met while lowering the body, to be joined with
// the loop's own false-edge once the loop is done (spec section 3: the
// CFG has no implicit loop edges, so Break/Continue lower directly to
// whichever edge the enclosing loop recorded).
type loopFrame struct {
	continueTo cfg.NodeIdx
	breaks     []cfg.Cursor
}

// Builder lowers one resolved function's body into a cfg.Graph (spec
// section 4.4's body-resolution job), threading a set of dangling
// successor edges through each statement/expression instead of
// back-patching after the fact: a statement that can produce more than
// one exit (an if with no else, a loop's false edge plus its breaks)
// simply returns more than one edge, and the next statement lowered
// fills all of them with its own entry node.
type Builder struct {
	Graph  *asg.Graph
	CFG    *cfg.Graph
	Target targetcfg.Target

	scope *scope
	loops []*loopFrame
}

// BuildFunc lowers body into a fresh cfg.Graph for decl, whose
// parameters seed the builder's outermost local scope; the function's
// own body then opens a nested child scope, the way a parameter list
// and its body are two distinct blocks (the body may shadow a
// parameter name).
func BuildFunc(g *asg.Graph, target targetcfg.Target, decl asg.FuncDecl, body *ast.Block) (*cfg.Graph, error) {
	graph := cfg.NewGraph()
	b := &Builder{
		Graph:  g,
		CFG:    graph,
		Target: target,
		scope:  newScope(nil),
	}
	for _, p := range decl.Params {
		// A duplicate parameter name is a head-resolution error, not a
		// body-lowering one; BuildFunc only sees already-accepted heads.
		// Parameters have no Declare node of their own (cfg.NodeIdx{}).
		_ = b.scope.declare(p.Name, p.Type, cfg.NodeIdx{})
	}

	start := graph.Push(&cfg.StartNode{Label: decl.Name})
	graph.Start = start

	edges, err := b.block([]cfg.Cursor{cfg.AtStart(start)}, body)
	if err != nil {
		return nil, err
	}
	if len(edges) > 0 {
		term := graph.Push(&cfg.TerminatingNode{Kind: cfg.Return})
		fillAll(graph, edges, term)
	}
	return graph, nil
}

// fill writes to into the single successor slot the cursor c is
// positioned at. Since Graph.Get returns the interface holding the
// same pointer the arena stores, mutating the dereferenced node
// mutates the arena in place; no Graph.Set call is needed.
func fill(g *cfg.Graph, c cfg.Cursor, to cfg.NodeIdx) {
	if !c.IsValid {
		return
	}
	switch n := g.Get(c.From).(type) {
	case *cfg.StartNode:
		n.Next = to
	case *cfg.SequentialNode:
		n.Next = to
	case *cfg.BranchingNode:
		if c.Slot == 0 {
			n.WhenTrue = to
		} else {
			n.WhenFalse = to
		}
	case *cfg.ScopeNode:
		n.ClosedAt = to
	}
}

func fillAll(g *cfg.Graph, edges []cfg.Cursor, to cfg.NodeIdx) {
	for _, c := range edges {
		fill(g, c, to)
	}
}

// push1 appends n, wires every dangling edge in edges to it, and
// returns n's own index plus the single dangling edge now open right
// after it.
func (b *Builder) push1(edges []cfg.Cursor, n cfg.Node) (cfg.NodeIdx, []cfg.Cursor) {
	ix := b.CFG.Push(n)
	fillAll(b.CFG, edges, ix)
	return ix, []cfg.Cursor{cfg.AtStart(ix)}
}

func (b *Builder) block(edges []cfg.Cursor, blk *ast.Block) ([]cfg.Cursor, error) {
	b.scope = newScope(b.scope)
	defer func() { b.scope = b.scope.parent }()

	for _, s := range blk.Stmts {
		if len(edges) == 0 {
			// Unreachable: a prior statement in this block already terminated
			// every path (return/break/continue). Nothing left to wire.
			break
		}
		var err error
		edges, err = b.stmt(edges, s)
		if err != nil {
			return nil, err
		}
	}
	return edges, nil
}

func (b *Builder) stmt(edges []cfg.Cursor, s ast.Stmt) ([]cfg.Cursor, error) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		return b.declStmt(edges, s)
	case *ast.AssignStmt:
		return b.assignStmt(edges, s)
	case *ast.ExprStmt:
		_, _, _, next, err := b.expr(edges, s.X)
		return next, err
	case *ast.IfStmt:
		return b.ifStmt(edges, s)
	case *ast.WhileStmt:
		return b.whileStmt(edges, s)
	case *ast.ForStmt:
		return nil, fmt.Errorf("resolver: for-in statements are not yet supported")
	case *ast.ReturnLikeStmt:
		return b.returnLikeStmt(edges, s)
	case *ast.BadStmt:
		return nil, fmt.Errorf("resolver: bad statement")
	default:
		return nil, fmt.Errorf("resolver: unhandled statement %T", s)
	}
}

func (b *Builder) declStmt(edges []cfg.Cursor, s *ast.DeclStmt) ([]cfg.Cursor, error) {
	var (
		declType asg.Type
		valIx    cfg.NodeIdx
		hasValue bool
		err      error
	)
	if s.Type != nil {
		declType, err = ResolveTypeExpr(b.Graph, s.Type)
		if err != nil {
			return nil, err
		}
	}
	if s.Value != nil {
		var vt asg.Type
		valIx, _, vt, edges, err = b.expr(edges, s.Value)
		if err != nil {
			return nil, err
		}
		hasValue = true
		if declType == nil {
			declType = defaultizeLiteral(vt)
		} else if _, cerr := typesys.Conform(b.Target, vt, declType, typesys.ParameterPassing); cerr != nil {
			return nil, cerr
		}
	}

	var operands []cfg.NodeIdx
	if hasValue {
		operands = []cfg.NodeIdx{valIx}
	}
	declIx, next := b.push1(edges, &cfg.SequentialNode{
		Kind:       cfg.Declare,
		FieldName:  s.Name.Name,
		Operands:   operands,
		ResultType: declType,
		Source:     s.Start,
	})
	if err := b.scope.declare(s.Name.Name, declType, declIx); err != nil {
		return nil, err
	}
	return next, nil
}

func (b *Builder) assignStmt(edges []cfg.Cursor, s *ast.AssignStmt) ([]cfg.Cursor, error) {
	ident, ok := s.Left.(*ast.IdentExpr)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAssignTarget, s.Left)
	}
	if s.Op != token.EQ {
		return nil, fmt.Errorf("resolver: unsupported assignment operator %s", s.Op.GoString())
	}
	bdg, ok := b.scope.lookup(ident.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdent, ident.Name)
	}

	valIx, _, vt, next, err := b.expr(edges, s.Right)
	if err != nil {
		return nil, err
	}
	if _, err := typesys.Conform(b.Target, vt, bdg.typ, typesys.ParameterPassing); err != nil {
		return nil, err
	}

	_, next = b.push1(next, &cfg.SequentialNode{
		Kind:       cfg.Assign,
		FieldName:  ident.Name,
		Binding:    bdg.ix,
		Operands:   []cfg.NodeIdx{valIx},
		ResultType: bdg.typ,
		Source:     s.AssignPos,
	})
	return next, nil
}

func (b *Builder) ifStmt(edges []cfg.Cursor, s *ast.IfStmt) ([]cfg.Cursor, error) {
	condIx, _, condType, next, err := b.expr(edges, s.Cond)
	if err != nil {
		return nil, err
	}
	condIx, next = b.asBool(next, condIx, condType)

	branchIx := b.CFG.Push(&cfg.BranchingNode{Condition: condIx})
	fillAll(b.CFG, next, branchIx)

	thenExits, err := b.block([]cfg.Cursor{{From: branchIx, Slot: 0, IsValid: true}}, s.Then)
	if err != nil {
		return nil, err
	}

	falseEdge := cfg.Cursor{From: branchIx, Slot: 1, IsValid: true}
	elseExits := []cfg.Cursor{falseEdge}
	if s.Else != nil {
		elseExits, err = b.block([]cfg.Cursor{falseEdge}, s.Else)
		if err != nil {
			return nil, err
		}
	}

	return append(thenExits, elseExits...), nil
}

// whileStmt lowers `while cond { body }`. The false edge of the
// condition branch, plus every break met while lowering body, become
// this statement's own dangling exits; the body's own fallthrough
// (and every continue) loop back to the condition's entry node.
func (b *Builder) whileStmt(edges []cfg.Cursor, s *ast.WhileStmt) ([]cfg.Cursor, error) {
	condIx, condEntry, condType, next, err := b.expr(edges, s.Cond)
	if err != nil {
		return nil, err
	}
	condIx, next = b.asBool(next, condIx, condType)

	branchIx := b.CFG.Push(&cfg.BranchingNode{Condition: condIx})
	fillAll(b.CFG, next, branchIx)

	frame := &loopFrame{continueTo: condEntry}
	b.loops = append(b.loops, frame)
	bodyExits, err := b.block([]cfg.Cursor{{From: branchIx, Slot: 0, IsValid: true}}, s.Body)
	b.loops = b.loops[:len(b.loops)-1]
	if err != nil {
		return nil, err
	}
	fillAll(b.CFG, bodyExits, condEntry)

	exits := append([]cfg.Cursor{{From: branchIx, Slot: 1, IsValid: true}}, frame.breaks...)
	return exits, nil
}

func (b *Builder) returnLikeStmt(edges []cfg.Cursor, s *ast.ReturnLikeStmt) ([]cfg.Cursor, error) {
	switch s.Kind {
	case token.RETURN:
		var (
			valIx  cfg.NodeIdx
			hasVal bool
			err    error
		)
		if s.X != nil {
			valIx, _, _, edges, err = b.expr(edges, s.X)
			if err != nil {
				return nil, err
			}
			hasVal = true
		}
		term := &cfg.TerminatingNode{Kind: cfg.Return}
		if hasVal {
			term.Value = valIx
		}
		ix := b.CFG.Push(term)
		fillAll(b.CFG, edges, ix)
		return nil, nil

	case token.BREAK:
		if len(b.loops) == 0 {
			return nil, ErrBreakOutsideLoop
		}
		frame := b.loops[len(b.loops)-1]
		frame.breaks = append(frame.breaks, edges...)
		return nil, nil

	case token.CONTINUE:
		if len(b.loops) == 0 {
			return nil, ErrContinueOutsideLoop
		}
		frame := b.loops[len(b.loops)-1]
		fillAll(b.CFG, edges, frame.continueTo)
		return nil, nil

	default:
		return nil, fmt.Errorf("resolver: unhandled return-like statement kind %s", s.Kind.String())
	}
}

// asBool inserts a ConformToBool node after valIx unless t is already
// Boolean.
func (b *Builder) asBool(edges []cfg.Cursor, valIx cfg.NodeIdx, t asg.Type) (cfg.NodeIdx, []cfg.Cursor) {
	if _, ok := t.(asg.Boolean); ok {
		return valIx, edges
	}
	return b.push1(edges, &cfg.SequentialNode{
		Kind:       cfg.ConformToBool,
		Operands:   []cfg.NodeIdx{valIx},
		ResultType: asg.Boolean{},
	})
}

// expr lowers e, returning the node supplying its value, the entry
// node of the chain built for e (the first node a loop re-entry or
// back-edge into this subexpression should target), e's resolved
// type, and the dangling edges left open after it.
func (b *Builder) expr(edges []cfg.Cursor, e ast.Expr) (value, entry cfg.NodeIdx, typ asg.Type, next []cfg.Cursor, err error) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return b.expr(edges, e.X)

	case *ast.IdentExpr:
		bdg, ok := b.scope.lookup(e.Name)
		if !ok {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("%w: %s", ErrUnknownIdent, e.Name)
		}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Name, ResultType: bdg.typ, FieldName: e.Name, Binding: bdg.ix, Source: e.Start})
		return ix, ix, bdg.typ, next, nil

	case *ast.PolymorphExpr:
		t := asg.Polymorph{Name: e.Name}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Name, ResultType: t, FieldName: e.Name, Source: e.Start})
		return ix, ix, t, next, nil

	case *ast.IntLitExpr:
		t := asg.IntegerLiteral{Value: e.Value}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Literal, ResultType: t, Literal: e.Value, Source: e.Start})
		return ix, ix, t, next, nil

	case *ast.FloatLitExpr:
		t := asg.FloatLiteral{Value: e.Value}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Literal, ResultType: t, Literal: e.Value, Source: e.Start})
		return ix, ix, t, next, nil

	case *ast.BoolLitExpr:
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Literal, ResultType: asg.Boolean{}, Literal: e.Value, Source: e.Start})
		return ix, ix, asg.Boolean{}, next, nil

	case *ast.StringLitExpr:
		// asg.Type has no dedicated string type; a string literal is a
		// pointer to its first byte, same as the runtime representation.
		t := asg.Pointer{Elem: asg.Integer{Bits: 8, Signed: false}}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Literal, ResultType: t, Literal: e.Value, Source: e.Start})
		return ix, ix, t, next, nil

	case *ast.BinaryExpr:
		return b.binaryExpr(edges, e)

	case *ast.UnaryExpr:
		return b.unaryExpr(edges, e)

	case *ast.CallExpr:
		return b.callExpr(edges, e)

	case *ast.IndexExpr:
		xv, xentry, xt, next, err := b.expr(edges, e.X)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		iv, _, _, next, err := b.expr(next, e.Index)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		elemType, err := elementType(xt)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		ix, next := b.push1(next, &cfg.SequentialNode{
			Kind:       cfg.ArrayAccess,
			Operands:   []cfg.NodeIdx{xv},
			Index:      iv,
			ResultType: elemType,
		})
		return ix, xentry, elemType, next, nil

	case *ast.SelectorExpr:
		xv, xentry, xt, next, err := b.expr(edges, e.X)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		fieldType, err := b.fieldType(xt, e.Sel.Name)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		ix, next := b.push1(next, &cfg.SequentialNode{
			Kind:       cfg.Member,
			Operands:   []cfg.NodeIdx{xv},
			FieldName:  e.Sel.Name,
			ResultType: fieldType,
		})
		return ix, xentry, fieldType, next, nil

	case *ast.StructLiteralExpr:
		return b.structLiteralExpr(edges, e)

	case *ast.SizeOfExpr:
		t, err := ResolveTypeExpr(b.Graph, e.Of)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		rt := asg.SizeInteger{Signed: false}
		ix, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.SizeOf, MeasuredType: t, Mode: sizeOfModeOf(e.Mode), ResultType: rt, Source: e.Start})
		return ix, ix, rt, next, nil

	case *ast.SizeOfValueExpr:
		xv, xentry, _, next, err := b.expr(edges, e.Of)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		rt := asg.SizeInteger{Signed: false}
		ix, next := b.push1(next, &cfg.SequentialNode{Kind: cfg.SizeOfValue, Operands: []cfg.NodeIdx{xv}, Mode: sizeOfModeOf(e.Mode), ResultType: rt, Source: e.Start})
		return ix, xentry, rt, next, nil

	case *ast.AnnotationExpr:
		// Annotations (e.g. #comptime) don't change the CFG shape of the
		// expression they prefix; only the const-eval job downstream cares.
		return b.expr(edges, e.X)

	case *ast.BadExpr:
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("resolver: bad expression")

	default:
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedExpr, e)
	}
}

func (b *Builder) binaryExpr(edges []cfg.Cursor, e *ast.BinaryExpr) (cfg.NodeIdx, cfg.NodeIdx, asg.Type, []cfg.Cursor, error) {
	logical := e.Op == token.ANDAND || e.Op == token.OROR

	lv, lentry, lt, next, err := b.expr(edges, e.Left)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}
	if logical {
		lv, next = b.asBool(next, lv, lt)
	}

	rv, _, rt, next, err := b.expr(next, e.Right)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}
	if logical {
		rv, next = b.asBool(next, rv, rt)
	}

	resultType, err := b.binOpType(e.Op, lt, rt)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}
	ix, next := b.push1(next, &cfg.SequentialNode{
		Kind:       cfg.BinOp,
		Operator:   e.Op,
		Operands:   []cfg.NodeIdx{lv, rv},
		ResultType: resultType,
		Source:     e.OpPos,
	})
	return ix, lentry, resultType, next, nil
}

// binOpType computes a BinaryExpr's result type: comparisons and the
// (eagerly evaluated, not short-circuited — a documented simplification)
// logical operators always produce bool, everything else unifies its
// operand types per spec section 4.4's numeric lattice.
func (b *Builder) binOpType(op token.Token, left, right asg.Type) (asg.Type, error) {
	switch op {
	case token.ANDAND, token.OROR, token.EQEQ, token.NEQ, token.LT, token.GT, token.GE, token.LE:
		return asg.Boolean{}, nil
	default:
		return typesys.Unify(b.Target, left, right)
	}
}

// sizeOfModeOf maps a SizeOf/SizeOfValue expression's parsed mode
// string ("", "target" or "compilation") onto the CFG's SizeOfMode.
func sizeOfModeOf(mode string) cfg.SizeOfMode {
	switch mode {
	case "target":
		return cfg.SizeOfModeTarget
	case "compilation":
		return cfg.SizeOfModeCompilation
	default:
		return cfg.SizeOfModeUnspecified
	}
}

func (b *Builder) unaryExpr(edges []cfg.Cursor, e *ast.UnaryExpr) (cfg.NodeIdx, cfg.NodeIdx, asg.Type, []cfg.Cursor, error) {
	xv, xentry, xt, next, err := b.expr(edges, e.X)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}

	var resultType asg.Type
	switch e.Op {
	case token.STAR:
		p, ok := xt.(asg.Pointer)
		if !ok {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("resolver: cannot dereference non-pointer type %s", xt.String())
		}
		resultType = p.Elem
	case token.AMPERSAND:
		resultType = asg.Pointer{Elem: xt}
	case token.BANG:
		xv, next = b.asBool(next, xv, xt)
		resultType = asg.Boolean{}
	case token.MINUS, token.TILDE:
		resultType = xt
	default:
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("resolver: unsupported unary operator %s", e.Op.GoString())
	}

	ix, next := b.push1(next, &cfg.SequentialNode{
		Kind:       cfg.UnaryOp,
		Operator:   e.Op,
		Operands:   []cfg.NodeIdx{xv},
		ResultType: resultType,
		Source:     e.Start,
	})
	return ix, xentry, resultType, next, nil
}

// callExpr only supports a direct identifier callee (spec section
// 4.4's full overload resolution needs namespace/import bucketing this
// resolver does not yet model — see ResolveCall's doc comment); the
// single matching function in the graph is the only candidate bucket.
func (b *Builder) callExpr(edges []cfg.Cursor, e *ast.CallExpr) (cfg.NodeIdx, cfg.NodeIdx, asg.Type, []cfg.Cursor, error) {
	ident, ok := e.Fn.(*ast.IdentExpr)
	if !ok {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedCallee, e.Fn)
	}
	fix := b.Graph.LookupFunc(ident.Name)
	if !fix.Valid() {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, fmt.Errorf("%w: %s", ErrUnknownIdent, ident.Name)
	}
	decl := b.Graph.Funcs.Get(fix)

	paramTypes := make([]asg.Type, len(decl.Params))
	for i, p := range decl.Params {
		paramTypes[i] = p.Type
	}
	calleeType := asg.FuncPtr{Params: paramTypes, Variadic: decl.Variadic, Return: decl.Return}
	calleeIx, next := b.push1(edges, &cfg.SequentialNode{Kind: cfg.Name, FieldName: ident.Name, ResultType: calleeType, Source: ident.Start})

	operands := make([]cfg.NodeIdx, 0, len(e.Args)+1)
	operands = append(operands, calleeIx)
	argTypes := make([]asg.Type, len(e.Args))
	for i, a := range e.Args {
		var av cfg.NodeIdx
		var at asg.Type
		var err error
		av, _, at, next, err = b.expr(next, a)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		operands = append(operands, av)
		argTypes[i] = at
	}

	buckets := [][]Candidate{{{Func: fix, Decl: decl}}}
	callee, err := ResolveCall(b.Target, buckets, nil, argTypes)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}

	ix, next := b.push1(next, &cfg.SequentialNode{
		Kind:       cfg.Call,
		Operands:   operands,
		ResultType: decl.Return,
		Source:     e.Lparen,
	})
	_ = callee.Recipe // polymorph substitution for generic callees is wired once lang/ir lowers this Call node
	return ix, calleeIx, decl.Return, next, nil
}

func (b *Builder) structLiteralExpr(edges []cfg.Cursor, e *ast.StructLiteralExpr) (cfg.NodeIdx, cfg.NodeIdx, asg.Type, []cfg.Cursor, error) {
	t, err := ResolveTypeExpr(b.Graph, e.Type)
	if err != nil {
		return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
	}

	var (
		operands  []cfg.NodeIdx
		firstIx   cfg.NodeIdx
		haveFirst bool
		next      = edges
	)
	for _, fi := range e.Fields {
		ft, err := b.fieldType(t, fi.Name.Name)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		var fv, fentry cfg.NodeIdx
		var vt asg.Type
		fv, fentry, vt, next, err = b.expr(next, fi.Value)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		if _, err := typesys.Conform(b.Target, vt, ft, typesys.ParameterPassing); err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		if !haveFirst {
			firstIx, haveFirst = fentry, true
		}
		operands = append(operands, fv)
	}
	if e.Extend != nil {
		var ev, eentry cfg.NodeIdx
		var err error
		ev, eentry, _, next, err = b.expr(next, e.Extend)
		if err != nil {
			return cfg.NodeIdx{}, cfg.NodeIdx{}, nil, nil, err
		}
		if !haveFirst {
			firstIx, haveFirst = eentry, true
		}
		operands = append(operands, ev)
	}

	ix, next := b.push1(next, &cfg.SequentialNode{
		Kind:       cfg.StructLiteral,
		Operands:   operands,
		ResultType: t,
		Source:     e.Lbrace,
	})
	if !haveFirst {
		firstIx = ix
	}
	return ix, firstIx, t, next, nil
}

func (b *Builder) fieldType(t asg.Type, name string) (asg.Type, error) {
	var fields []asg.Field
	switch t := t.(type) {
	case asg.AnonymousStruct:
		fields = t.Fields
	case asg.AnonymousUnion:
		fields = t.Fields
	case asg.StructureRef:
		fields = b.Graph.Structs.Get(t.Ref).Fields
	default:
		return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t.String(), name)
	}
	for _, f := range fields {
		if f.Name == name {
			return f.Type, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func elementType(t asg.Type) (asg.Type, error) {
	switch t := t.(type) {
	case asg.Pointer:
		return t.Elem, nil
	case asg.FixedArray:
		return t.Elem, nil
	default:
		return nil, fmt.Errorf("resolver: cannot index type %s", t.String())
	}
}
