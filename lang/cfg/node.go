// Package cfg implements the untyped control-flow graph (spec section
// 3) a resolved function's body lowers to, plus the origin-based borrow
// checker (spec section 4.5) that walks it once types are known.
//
// It depends on lang/asg for Type (a Sequential/Branching/JoinN node's
// result is an asg.Type), but lang/asg does not depend back on cfg: a
// FuncDecl's body is associated with its built Graph externally, via
// FuncBody in this package, to keep the import graph one-directional.
package cfg

import (
	"github.com/mna/adeptc/internal/arena"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/token"
)

// NodeIdx is a strongly-typed arena index into a Graph's node arena.
type NodeIdx = arena.Idx[Node, Node]

// SequentialKind is the operation a Sequential node performs (spec
// section 3's Sequential{kind, next} list).
type SequentialKind int

const (
	Name SequentialKind = iota
	Declare
	Assign
	BinOp
	Literal
	Call
	Member
	ArrayAccess
	StructLiteral
	UnaryOp
	SizeOf
	SizeOfValue
	InterpreterSyscall
	IntegerPromote
	ConformToBool
	Is
	OpenScope
	CloseScope
	Join1Kind
	JoinNKind
)

func (k SequentialKind) String() string {
	switch k {
	case Name:
		return "Name"
	case Declare:
		return "Declare"
	case Assign:
		return "Assign"
	case BinOp:
		return "BinOp"
	case Literal:
		return "Literal"
	case Call:
		return "Call"
	case Member:
		return "Member"
	case ArrayAccess:
		return "ArrayAccess"
	case StructLiteral:
		return "StructLiteral"
	case UnaryOp:
		return "UnaryOp"
	case SizeOf:
		return "SizeOf"
	case SizeOfValue:
		return "SizeOfValue"
	case InterpreterSyscall:
		return "InterpreterSyscall"
	case IntegerPromote:
		return "IntegerPromote"
	case ConformToBool:
		return "ConformToBool"
	case Is:
		return "Is"
	case OpenScope:
		return "OpenScope"
	case CloseScope:
		return "CloseScope"
	case Join1Kind:
		return "Join1"
	case JoinNKind:
		return "JoinN"
	default:
		return "SequentialKind(?)"
	}
}

// ConformBehavior governs how a JoinN node's incoming value types are
// unified (spec section 4.4's unify/conform rules apply here as well,
// since a join's result type is "the unifying type of incoming values
// under the given conform behavior" per spec section 3).
type ConformBehavior int

const (
	ConformNone ConformBehavior = iota
	ConformToCommonType
)

// SizeOfMode distinguishes how a SizeOf/SizeOfValue expression wrote
// its mode at the call site: SizeOfModeUnspecified when the source
// wrote `sizeof<T>` with no mode at all, versus the two explicit
// spellings `sizeof<"target", T>` / `sizeof<"compilation", T>` (spec
// section 4.6). Unspecified is distinct from explicit Compilation: an
// unspecified sizeof still compiles (it falls back to the compilation
// host's own representation) but the result is tainted, while an
// explicit "compilation" sizeof is a deliberate, untainted opt-in.
type SizeOfMode int

const (
	SizeOfModeUnspecified SizeOfMode = iota
	SizeOfModeTarget
	SizeOfModeCompilation
)

func (m SizeOfMode) String() string {
	switch m {
	case SizeOfModeTarget:
		return "target"
	case SizeOfModeCompilation:
		return "compilation"
	default:
		return "unspecified"
	}
}

// JoinInput is one incoming edge into a JoinN node: the predecessor's
// position (an index into the block's predecessor list, stable for the
// borrow checker's join-by-position logic) and the node supplying the
// value.
type JoinInput struct {
	Position int
	Ref      NodeIdx
}

// TerminatingKind distinguishes the three ways a function body ends
// (spec section 3).
type TerminatingKind int

const (
	Return TerminatingKind = iota
	Unreachable
	Computed // const-eval bodies: Computed(value)
)

// Node is the sum type of CFG node shapes (spec section 3). Edges are
// optional successor slots stored on the node itself rather than as a
// separate edge list, so walking the graph never needs a side table.
type Node interface {
	node()
}

type (
	// StartNode is a function's entry point, optionally labelled (e.g.
	// with the function's name, for dump/debug output).
	StartNode struct {
		Label string
		Next  NodeIdx
	}

	// SequentialNode is one non-branching operation plus its single
	// successor. ResultType is the asg.Type the operation produces (nil
	// for kinds with no value, e.g. OpenScope/CloseScope).
	SequentialNode struct {
		Kind       SequentialKind
		ResultType asg.Type
		Source     asg.Source

		// Operands holds the other already-built nodes this operation reads,
		// in kind-specific order: BinOp is [left, right]; UnaryOp, SizeOfValue
		// and IntegerPromote/ConformToBool/Is are [operand]; Call is
		// [callee, arg0, arg1, ...]; Member and ArrayAccess are [object] (plus
		// Index for ArrayAccess); StructLiteral is one operand per field, in
		// field declaration order (plus an optional trailing extend-base
		// operand recorded via Operands[len(Fields)] when present).
		Operands []NodeIdx

		// Index is ArrayAccess's index operand (kept separate from Operands
		// since ArrayAccess's one real operand is the array/pointer value).
		Index NodeIdx

		// Operator is BinOp/UnaryOp's token (e.g. PLUS, MINUS, LT).
		Operator token.Token

		// FieldName is Member's selected field name, or Declare/Name's
		// referenced local/parameter name.
		FieldName string

		// Binding is the Declare node that introduced the variable a Name
		// or Assign node refers to (zero for a Name referring to a
		// parameter, a callee, or a polymorph parameter, none of which
		// have a Declare node of their own). Recorded directly rather than
		// re-derived from FieldName downstream, since two Declare nodes
		// for shadowed occurrences of the same name are distinct nodes
		// and a name string alone can't disambiguate them once the scope
		// that did the shadowing has closed.
		Binding NodeIdx

		// Literal is Literal kind's folded constant value (int64, float64,
		// string, or bool, matching ResultType).
		Literal any

		// MeasuredType is SizeOf's queried type (ResultType is always
		// usize, the size's own type, not the type being measured).
		MeasuredType asg.Type

		// Mode is SizeOf/SizeOfValue's queried mode, as written at the
		// call site (SizeOfModeUnspecified when the source wrote no mode
		// at all — distinct from an explicit SizeOfModeCompilation).
		Mode SizeOfMode

		// Join1Ref is set only when Kind == Join1Kind: a single-predecessor
		// join simply forwards its operand's type and value.
		Join1Ref NodeIdx

		// JoinInputs is set only when Kind == JoinNKind.
		JoinInputs []JoinInput
		Conform    ConformBehavior

		Next NodeIdx
	}

	// BranchingNode is a two-way conditional; WhenTrue/WhenFalse are
	// optional since a branch used only for its side effect (e.g. a
	// diverging `if`) may leave one arm terminated already.
	BranchingNode struct {
		Condition NodeIdx
		WhenTrue  NodeIdx
		WhenFalse NodeIdx
	}

	// ScopeNode is a nested lexical scope: Inner is the scope's first
	// node, ClosedAt is the exit edge recorded once the scope closes
	// (spec section 3: "nested lexical scope, exit edge recorded at
	// close").
	ScopeNode struct {
		Inner    NodeIdx
		ClosedAt NodeIdx
	}

	// TerminatingNode ends a path through the function: Return carries an
	// optional value node, Unreachable carries none, Computed carries the
	// const-eval result for an interpreter-only body.
	TerminatingNode struct {
		Kind  TerminatingKind
		Value NodeIdx // valid for Return (optional) and Computed
	}
)

func (*StartNode) node()       {}
func (*SequentialNode) node()  {}
func (*BranchingNode) node()   {}
func (*ScopeNode) node()       {}
func (*TerminatingNode) node() {}
