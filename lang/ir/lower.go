package ir

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/internal/arena"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/cfg"
	"github.com/mna/adeptc/lang/token"
)

var (
	ErrDanglingEdge    = errors.New("ir: cfg node has no successor")
	ErrUnsupportedOp   = errors.New("ir: unsupported operator")
	ErrUnsupportedKind = errors.New("ir: cfg node kind not yet lowered")
	ErrUnknownField    = errors.New("ir: unknown struct field")
)

// lowerer threads the per-function state Lower's walk needs: the
// Function under construction, and a map from each already-lowered cfg
// node to the InstrIdx that carries its value (the Alloca for a
// Declare, the Load for a Name, and so on).
type lowerer struct {
	g  *asg.Graph
	cg *cfg.Graph
	fn *Function

	params  map[string]int
	values  map[cfg.NodeIdx]InstrIdx
	blockOf map[cfg.NodeIdx]BlockIdx
	leaders map[cfg.NodeIdx]bool
}

// Lower walks declIx's resolved CFG and produces its SSA form (spec
// section 3): every basic-block leader (the CFG's Start, plus every
// node targeted by a branch or reached by more than one edge) becomes
// a BasicBlock, and every node's chain is replayed between leaders to
// build that block's instructions.
//
// CFG bodies currently lower mutable locals through Declare/Assign/Name
// nodes backed by a single alloca per local (see lang/resolver's
// DESIGN.md entry), not through cfg's Join1/JoinN nodes, so Lower never
// constructs a Phi: every local merges implicitly through its shared
// alloca slot instead of an explicit SSA join. Phi is defined and ready
// for whenever a later resolver pass starts emitting join nodes.
func Lower(g *asg.Graph, cg *cfg.Graph, declIx asg.FuncIdx) (*Function, error) {
	decl := g.Funcs.Get(declIx)

	fn := &Function{
		Decl:   declIx,
		Instrs: arena.New[Instr, Instr](),
		Blocks: arena.New[BasicBlock, BasicBlock](),
	}
	lw := &lowerer{
		g:       g,
		cg:      cg,
		fn:      fn,
		params:  make(map[string]int, len(decl.Params)),
		values:  make(map[cfg.NodeIdx]InstrIdx),
		blockOf: make(map[cfg.NodeIdx]BlockIdx),
	}
	for i, p := range decl.Params {
		lw.params[p.Name] = i
	}

	leaders, order := computeLeaders(cg)
	lw.leaders = leaders
	for i, lead := range order {
		lw.blockOf[lead] = fn.Blocks.Push(BasicBlock{Label: fmt.Sprintf("bb%d", i)})
	}
	fn.Entry = lw.blockOf[cg.Start]

	for _, lead := range order {
		if err := lw.buildBlock(lead); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// computeLeaders finds every basic-block leader: the CFG's Start, every
// node a BranchingNode targets (a jump target is always a leader, even
// with a single predecessor), and every node reached by more than one
// edge (a plain fallthrough merge, e.g. an if/else join, or a loop's
// back edge landing back on its condition check). order lists them in
// the graph's own push order, which is already a valid build order
// since a value is always pushed before anything that can reference it.
func computeLeaders(cg *cfg.Graph) (map[cfg.NodeIdx]bool, []cfg.NodeIdx) {
	indegree := make(map[cfg.NodeIdx]int)
	leaders := make(map[cfg.NodeIdx]bool)
	leaders[cg.Start] = true

	edge := func(target cfg.NodeIdx) {
		if target.Valid() {
			indegree[target]++
		}
	}

	cg.All(func(_ cfg.NodeIdx, n cfg.Node) bool {
		switch v := n.(type) {
		case *cfg.StartNode:
			edge(v.Next)
		case *cfg.SequentialNode:
			edge(v.Next)
		case *cfg.BranchingNode:
			edge(v.WhenTrue)
			edge(v.WhenFalse)
			if v.WhenTrue.Valid() {
				leaders[v.WhenTrue] = true
			}
			if v.WhenFalse.Valid() {
				leaders[v.WhenFalse] = true
			}
		case *cfg.ScopeNode:
			edge(v.Inner)
			edge(v.ClosedAt)
		}
		return true
	})
	for target, count := range indegree {
		if count > 1 {
			leaders[target] = true
		}
	}

	var order []cfg.NodeIdx
	cg.All(func(ix cfg.NodeIdx, _ cfg.Node) bool {
		if leaders[ix] {
			order = append(order, ix)
		}
		return true
	})
	return leaders, order
}

// emit appends instr to the block under construction and records it in
// the function's instruction arena, returning its stable index.
func (lw *lowerer) emit(blk *BasicBlock, instr Instr) InstrIdx {
	ix := lw.fn.Instrs.Push(instr)
	blk.Instrs = append(blk.Instrs, ix)
	return ix
}

// term pushes instr as the block's terminator. Unlike emit, it is not
// appended to Instrs: a block's terminator is reachable only via Term.
func (lw *lowerer) term(blk *BasicBlock, instr Instr) InstrIdx {
	ix := lw.fn.Instrs.Push(instr)
	blk.Term = ix
	return ix
}

// buildBlock replays the cfg chain starting at lead until it reaches
// another leader, a branch, or a terminating node, then back-patches
// the placeholder pushed for lead in Lower.
func (lw *lowerer) buildBlock(lead cfg.NodeIdx) error {
	blk := lw.fn.Blocks.Get(lw.blockOf[lead])
	cur := lead
	first := true
	for {
		if !first && lw.leaders[cur] {
			lw.term(&blk, &Break{Target: lw.blockOf[cur]})
			break
		}
		first = false

		switch n := lw.cg.Get(cur).(type) {
		case *cfg.StartNode:
			if !n.Next.Valid() {
				return fmt.Errorf("%w: start node", ErrDanglingEdge)
			}
			cur = n.Next

		case *cfg.SequentialNode:
			ix, err := lw.lowerSequential(&blk, n)
			if err != nil {
				return err
			}
			lw.values[cur] = ix
			if !n.Next.Valid() {
				return fmt.Errorf("%w: %s", ErrDanglingEdge, n.Kind)
			}
			cur = n.Next

		case *cfg.BranchingNode:
			cond := lw.values[n.Condition]
			lw.term(&blk, &ConditionalBreak{
				Cond:      cond,
				WhenTrue:  lw.blockOf[n.WhenTrue],
				WhenFalse: lw.blockOf[n.WhenFalse],
			})
			goto done

		case *cfg.TerminatingNode:
			switch n.Kind {
			case cfg.Return:
				if n.Value.Valid() {
					lw.term(&blk, &Return{Value: lw.values[n.Value], HasValue: true})
				} else {
					lw.term(&blk, &Return{})
				}
			case cfg.Unreachable:
				lw.term(&blk, &Unreachable{})
			case cfg.Computed:
				lw.term(&blk, &ExitInterpreter{Value: lw.values[n.Value]})
			}
			goto done

		case *cfg.ScopeNode:
			return fmt.Errorf("%w: ScopeNode (no resolver job emits one yet)", ErrUnsupportedKind)

		default:
			return fmt.Errorf("%w: %T", ErrUnsupportedKind, n)
		}
	}
done:
	lw.fn.Blocks.Set(lw.blockOf[lead], blk)
	return nil
}

// lowerSequential translates one cfg.SequentialNode into the IR
// instruction(s) it needs, appending them to blk and returning the
// index that represents this node's value to later references.
func (lw *lowerer) lowerSequential(blk *BasicBlock, n *cfg.SequentialNode) (InstrIdx, error) {
	switch n.Kind {
	case cfg.Name:
		if n.Binding.Valid() {
			return lw.emit(blk, &Load{Ptr: lw.values[n.Binding], Pointee: n.ResultType}), nil
		}
		if p, ok := lw.params[n.FieldName]; ok {
			return lw.emit(blk, &Parameter{Index: p}), nil
		}
		return lw.emit(blk, &GlobalVariable{Ref: n.FieldName}), nil

	case cfg.Declare:
		alloca := lw.emit(blk, &Alloca{Type: n.ResultType})
		if len(n.Operands) == 1 {
			lw.emit(blk, &Store{Dest: alloca, Value: lw.values[n.Operands[0]]})
		}
		return alloca, nil

	case cfg.Assign:
		val := lw.values[n.Operands[0]]
		lw.emit(blk, &Store{Dest: lw.values[n.Binding], Value: val})
		return val, nil

	case cfg.BinOp:
		left, right := lw.values[n.Operands[0]], lw.values[n.Operands[1]]
		operandType := lw.resultTypeOf(n.Operands[0])
		return lw.emit(blk, &BinOp{
			Op:     n.Operator,
			Left:   left,
			Right:  right,
			Float:  isFloatType(operandType),
			Signed: isSignedType(operandType),
			Type:   n.ResultType,
		}), nil

	case cfg.Literal:
		return lw.emit(blk, &Const{Value: n.Literal, Type: n.ResultType}), nil

	case cfg.Call:
		callee := lw.cg.Get(n.Operands[0]).(*cfg.SequentialNode).FieldName
		args := make([]InstrIdx, 0, len(n.Operands)-1)
		for _, a := range n.Operands[1:] {
			args = append(args, lw.values[a])
		}
		return lw.emit(blk, &Call{Callee: callee, Args: args, Type: n.ResultType}), nil

	case cfg.Member:
		obj := lw.values[n.Operands[0]]
		fieldIdx, structTy, err := lw.fieldIndex(lw.resultTypeOf(n.Operands[0]), n.FieldName)
		if err != nil {
			return InstrIdx{}, err
		}
		return lw.emit(blk, &Member{StructType: structTy, Pointer: obj, FieldIndex: fieldIdx}), nil

	case cfg.ArrayAccess:
		return lw.emit(blk, &ArrayAccess{
			Pointer:  lw.values[n.Operands[0]],
			Index:    lw.values[n.Index],
			ElemType: n.ResultType,
		}), nil

	case cfg.StructLiteral:
		fields := make([]InstrIdx, len(n.Operands))
		for i, o := range n.Operands {
			fields[i] = lw.values[o]
		}
		return lw.emit(blk, &StructLiteral{Type: n.ResultType, Fields: fields}), nil

	case cfg.UnaryOp:
		operand := lw.values[n.Operands[0]]
		switch n.Operator {
		case token.MINUS:
			return lw.emit(blk, &Negate{Value: operand}), nil
		case token.TILDE:
			return lw.emit(blk, &BitComplement{Value: operand}), nil
		case token.BANG:
			return lw.emit(blk, &IsZero{Value: operand}), nil
		case token.STAR:
			return lw.emit(blk, &Load{Ptr: operand, Pointee: n.ResultType}), nil
		case token.AMPERSAND:
			// Taking the address of an lvalue properly needs body.go to
			// carry the lvalue's own alloca pointer through Name/Member/
			// ArrayAccess rather than its loaded value; until it does,
			// this reinterprets the already-loaded value's bits as the
			// pointer type instead of re-deriving the real address.
			return lw.emit(blk, &Bitcast{Value: operand, To: n.ResultType}), nil
		default:
			return InstrIdx{}, fmt.Errorf("%w: %s", ErrUnsupportedOp, n.Operator)
		}

	case cfg.SizeOf:
		return lw.emit(blk, &SizeOf{Type: n.MeasuredType, Mode: sizeOfModeOf(n.Mode)}), nil

	case cfg.SizeOfValue:
		return lw.emit(blk, &SizeOf{Type: lw.resultTypeOf(n.Operands[0]), Mode: sizeOfModeOf(n.Mode)}), nil

	case cfg.IntegerPromote:
		operand := lw.values[n.Operands[0]]
		return lw.emit(blk, &Extend{Value: operand, To: n.ResultType, Signed: isSignedType(n.ResultType)}), nil

	case cfg.ConformToBool:
		return lw.emit(blk, &IsNonZero{Value: lw.values[n.Operands[0]]}), nil

	case cfg.InterpreterSyscall:
		kind, err := syscallKindOf(n.FieldName)
		if err != nil {
			return InstrIdx{}, err
		}
		args := make([]InstrIdx, len(n.Operands))
		for i, o := range n.Operands {
			args[i] = lw.values[o]
		}
		return lw.emit(blk, &InterpreterSyscall{Kind: kind, Args: args, Result: n.ResultType}), nil

	default:
		return InstrIdx{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, n.Kind)
	}
}

// resultTypeOf returns the asg.Type the cfg node at ix produces, used
// when an instruction needs an operand's own type (e.g. BinOp's
// Float/Signed flags), not just the operation's declared ResultType.
func (lw *lowerer) resultTypeOf(ix cfg.NodeIdx) asg.Type {
	if n, ok := lw.cg.Get(ix).(*cfg.SequentialNode); ok {
		return n.ResultType
	}
	return nil
}

// fieldIndex finds name's position within ty's field list, unwrapping
// a leading pointer (Member's Pointer operand is always a pointer to
// the struct, per spec section 3).
func (lw *lowerer) fieldIndex(ty asg.Type, name string) (int, asg.Type, error) {
	if p, ok := ty.(asg.Pointer); ok {
		ty = p.Elem
	}
	var fields []asg.Field
	switch t := ty.(type) {
	case asg.AnonymousStruct:
		fields = t.Fields
	case asg.AnonymousUnion:
		fields = t.Fields
	case asg.StructureRef:
		fields = lw.g.Structs.Get(t.Ref).Fields
	default:
		return 0, ty, fmt.Errorf("%w: %s has no fields", ErrUnknownField, ty)
	}
	for i, f := range fields {
		if f.Name == name {
			return i, ty, nil
		}
	}
	return 0, ty, fmt.Errorf("%w: %s.%s", ErrUnknownField, ty, name)
}

// sizeOfModeOf maps the CFG's layer-local SizeOfMode onto this
// package's own, cfg.SizeOf/cfg.SizeOfValue's Mode having been set by
// the resolver from the source's parsed mode string.
func sizeOfModeOf(m cfg.SizeOfMode) SizeOfMode {
	switch m {
	case cfg.SizeOfModeTarget:
		return Target
	case cfg.SizeOfModeCompilation:
		return Compilation
	default:
		return Unspecified
	}
}

func isFloatType(t asg.Type) bool {
	switch t.(type) {
	case asg.Floating, asg.FloatLiteral:
		return true
	default:
		return false
	}
}

func isSignedType(t asg.Type) bool {
	switch t := t.(type) {
	case asg.Integer:
		return t.Signed
	case asg.SizeInteger:
		return t.Signed
	case asg.CInteger:
		return t.Signed == nil || *t.Signed
	case asg.IntegerLiteral, asg.IntegerLiteralInRange:
		return true
	default:
		return false
	}
}

func syscallKindOf(name string) (SyscallKind, error) {
	for k := Println; k <= Exit; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ir: unknown interpreter syscall %q", name)
}
