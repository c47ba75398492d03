// Package ir implements the register-based SSA form a function's CFG
// lowers to once its types are fully resolved (spec section 3): a
// Function is a set of BasicBlocks, each a straight-line list of Instr
// values ending in exactly one control-transfer Instr. Every Instr is
// itself the SSA register it defines; other instructions reference it
// by InstrIdx rather than by a separate virtual-register number.
package ir

import (
	"github.com/mna/adeptc/internal/arena"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/token"
)

// InstrIdx is a stable arena index into a Function's instruction
// arena, shared across every block (so a Phi or a later block can
// reference a value defined in an earlier one without a cross-arena
// lookup).
type InstrIdx = arena.Idx[Instr, Instr]

// BlockIdx is a stable arena index into a Function's block arena.
type BlockIdx = arena.Idx[BasicBlock, BasicBlock]

// SizeOfMode distinguishes a size queried against the compilation
// target's ABI from one queried against the interpreter's own host
// representation (spec section 3: `SizeOf(ty, mode?)` with mode ∈
// {Target, Compilation} — the two can differ, e.g. a pointer's size
// under a 32-bit target evaluated by a 64-bit compiler host). A third
// state, Unspecified, distinguishes `sizeof<T>` (no mode written at
// all) from the explicit `sizeof<"compilation", T>` spelling: both
// resolve against the compilation host at interpret time, but only
// the former is tainted (spec section 4.6).
type SizeOfMode int

const (
	Unspecified SizeOfMode = iota
	Target
	Compilation
)

func (m SizeOfMode) String() string {
	switch m {
	case Target:
		return "target"
	case Compilation:
		return "compilation"
	default:
		return "unspecified"
	}
}

// SyscallKind enumerates the interpreter's compile-time syscalls (spec
// section 4.6): InterpreterSyscall's operation is one of these rather
// than a free-form name, so the interpreter can dispatch without a
// string comparison.
type SyscallKind int

const (
	Println SyscallKind = iota
	BuildAddProject
	BuildLinkFilename
	ImportNamespace
	UseDependency
	Experimental
	DontAssumeIntAtLeast32Bits
	Exit
)

var syscallNames = [...]string{
	Println:                    "println",
	BuildAddProject:            "build_add_project",
	BuildLinkFilename:          "build_link_filename",
	ImportNamespace:            "import_namespace",
	UseDependency:              "use_dependency",
	Experimental:               "experimental",
	DontAssumeIntAtLeast32Bits: "dont_assume_int_at_least_32_bits",
	Exit:                       "exit",
}

func (k SyscallKind) String() string {
	if int(k) >= 0 && int(k) < len(syscallNames) {
		return syscallNames[k]
	}
	return "SyscallKind(?)"
}

// Instr is the sum type of IR instruction variants (spec section 3's
// IR paragraph). Every Instr value is itself a register: an
// instruction that consumes another's result holds that result's
// InstrIdx, not a copy of the Instr.
type Instr interface {
	instr()
}

type (
	// Alloca reserves stack storage sized for Type and produces a
	// pointer to it.
	Alloca struct {
		Type asg.Type
	}

	// Store writes Value to the address held by Dest.
	Store struct {
		Dest  InstrIdx
		Value InstrIdx
	}

	// Load reads Pointee's worth of data from the address held by Ptr.
	Load struct {
		Ptr     InstrIdx
		Pointee asg.Type
	}

	// Malloc allocates Type on the heap, producing a pointer.
	Malloc struct {
		Type asg.Type
	}

	// MallocArray allocates Count contiguous elements of Elem on the
	// heap, producing a pointer to the first one.
	MallocArray struct {
		Elem  asg.Type
		Count InstrIdx
	}

	// Free releases a prior Malloc/MallocArray allocation.
	Free struct {
		Ptr InstrIdx
	}

	// SizeOf queries the size in bytes of Type under Mode.
	SizeOf struct {
		Type asg.Type
		Mode SizeOfMode
	}

	// Parameter reads the function's Index-th argument.
	Parameter struct {
		Index int
	}

	// GlobalVariable references a module-level global by name, yielding
	// its address.
	GlobalVariable struct {
		Ref string
	}

	// BinOp combines Left and Right with Op. Float/Signed record the
	// operand kind the operator must be lowered against, since Op alone
	// (a lexical token) doesn't carry that: `+` on two floats and `+` on
	// two signed integers are different machine operations downstream.
	BinOp struct {
		Op     token.Token
		Left   InstrIdx
		Right  InstrIdx
		Float  bool
		Signed bool
		Type   asg.Type
	}

	// Extend widens Value to To, sign- or zero-extending per Signed.
	Extend struct {
		Value  InstrIdx
		To     asg.Type
		Signed bool
	}

	// Truncate narrows Value to To.
	Truncate struct {
		Value InstrIdx
		To    asg.Type
	}

	// Bitcast reinterprets Value's bits as To without conversion.
	Bitcast struct {
		Value InstrIdx
		To    asg.Type
	}

	// IntegerToPointer reinterprets an integer Value as a pointer.
	IntegerToPointer struct {
		Value InstrIdx
		To    asg.Type
	}

	// PointerToInteger reinterprets a pointer Value as an integer.
	PointerToInteger struct {
		Value InstrIdx
		To    asg.Type
	}

	// FloatToInteger converts a floating Value to an integer of type To.
	FloatToInteger struct {
		Value  InstrIdx
		To     asg.Type
		Signed bool
	}

	// IntegerToFloat converts an integer Value to a floating type To.
	IntegerToFloat struct {
		Value  InstrIdx
		To     asg.Type
		Signed bool
	}

	// FloatExtend widens a floating Value to the wider floating type To.
	FloatExtend struct {
		Value InstrIdx
		To    asg.Type
	}

	// TruncateFloat narrows a floating Value to the narrower floating
	// type To.
	TruncateFloat struct {
		Value InstrIdx
		To    asg.Type
	}

	// Member computes the address of one field of the struct value
	// Pointer points to, identified by its position (FieldIndex) rather
	// than name, since by this stage field lookup has already happened.
	Member struct {
		StructType asg.Type
		Pointer    InstrIdx
		FieldIndex int
	}

	// ArrayAccess computes the address of Pointer[Index].
	ArrayAccess struct {
		Pointer  InstrIdx
		Index    InstrIdx
		ElemType asg.Type
	}

	// StructLiteral materializes a Type-typed struct value from Fields,
	// in declaration order.
	StructLiteral struct {
		Type   asg.Type
		Fields []InstrIdx
	}

	// IsZero tests whether Value is the zero value of its type.
	IsZero struct {
		Value InstrIdx
	}

	// IsNonZero tests the negation of IsZero.
	IsNonZero struct {
		Value InstrIdx
	}

	// Negate computes the arithmetic negation of Value.
	Negate struct {
		Value InstrIdx
	}

	// BitComplement computes the bitwise complement of Value.
	BitComplement struct {
		Value InstrIdx
	}

	// Break unconditionally transfers control to Target. A block's last
	// instruction is always exactly one of Break, ConditionalBreak,
	// Return, ExitInterpreter, or Unreachable.
	Break struct {
		Target BlockIdx
	}

	// ConditionalBreak transfers control to WhenTrue or WhenFalse
	// depending on Cond.
	ConditionalBreak struct {
		Cond      InstrIdx
		WhenTrue  BlockIdx
		WhenFalse BlockIdx
	}

	// PhiInput is one (predecessor block, incoming value) pair of a Phi.
	PhiInput struct {
		Block BlockIdx
		Value InstrIdx
	}

	// Phi selects Incoming's value for whichever predecessor block
	// control arrived from. Its incoming list must cover exactly the
	// predecessor blocks present once every CFG join has been threaded
	// (spec section 3's phi invariant).
	Phi struct {
		Incoming []PhiInput
		Type     asg.Type
	}

	// InterpreterSyscall invokes one of the compile-time evaluator's
	// builtin operations (spec section 4.6).
	InterpreterSyscall struct {
		Kind   SyscallKind
		Args   []InstrIdx
		Result asg.Type
	}

	// Return ends the function, optionally carrying Value.
	Return struct {
		Value    InstrIdx
		HasValue bool
	}

	// ExitInterpreter ends compile-time evaluation of this body with
	// Value as the computed result (spec section 3: `Computed(value)`
	// terminating CFG nodes lower to this).
	ExitInterpreter struct {
		Value InstrIdx
	}

	// Const materializes an integer, float, bool, or string literal as
	// an SSA value. The IR instruction list in spec section 3 has no
	// dedicated constant variant because every other instruction there
	// references operands by InstrIdx alone; some instruction has to be
	// the one that turns a folded literal into a value other
	// instructions can reference, so this lowering adds Const for that
	// purpose (documented as a supplement, not part of the original
	// instruction list).
	Const struct {
		Value any // int64, float64, bool, or string
		Type  asg.Type
	}

	// Call invokes the function named Callee with Args and yields Type.
	// Spec section 3's instruction list has no Call variant, likely
	// because that list describes only what the compile-time evaluator
	// needs (builtin operations go through InterpreterSyscall instead),
	// but a user-defined function invocation still has to flow through
	// the IR for both the interpreter and the ABI lowering stage to
	// consume, so Lower adds Call as a supplement alongside Const.
	Call struct {
		Callee string
		Args   []InstrIdx
		Type   asg.Type
	}

	// Unreachable marks a point control can never reach (e.g. past a
	// `never`-typed expression). It is the IR counterpart to cfg's
	// TerminatingKind Unreachable, which spec section 3's instruction
	// list has no dedicated variant for; every other terminating CFG
	// node (Return, Computed) has one, so Lower adds this one to keep
	// every TerminatingNode kind representable.
	Unreachable struct{}
)

func (*Alloca) instr()             {}
func (*Store) instr()              {}
func (*Load) instr()               {}
func (*Malloc) instr()             {}
func (*MallocArray) instr()        {}
func (*Free) instr()               {}
func (*SizeOf) instr()             {}
func (*Parameter) instr()          {}
func (*GlobalVariable) instr()     {}
func (*BinOp) instr()              {}
func (*Extend) instr()             {}
func (*Truncate) instr()           {}
func (*Bitcast) instr()            {}
func (*IntegerToPointer) instr()   {}
func (*PointerToInteger) instr()   {}
func (*FloatToInteger) instr()     {}
func (*IntegerToFloat) instr()     {}
func (*FloatExtend) instr()        {}
func (*TruncateFloat) instr()      {}
func (*Member) instr()             {}
func (*ArrayAccess) instr()        {}
func (*StructLiteral) instr()      {}
func (*IsZero) instr()             {}
func (*IsNonZero) instr()          {}
func (*Negate) instr()             {}
func (*BitComplement) instr()      {}
func (*Break) instr()              {}
func (*ConditionalBreak) instr()   {}
func (*Phi) instr()                {}
func (*InterpreterSyscall) instr() {}
func (*Return) instr()             {}
func (*ExitInterpreter) instr()    {}
func (*Const) instr()              {}
func (*Call) instr()               {}
func (*Unreachable) instr()        {}

// BasicBlock is a maximal straight-line run of instructions: Instrs
// holds every non-terminator in execution order, and Term holds the
// single control-transfer instruction (Break, ConditionalBreak,
// Return, ExitInterpreter, or Unreachable) that ends it.
type BasicBlock struct {
	Label  string
	Instrs []InstrIdx
	Term   InstrIdx
}

// Function is one resolved function's SSA body.
type Function struct {
	Decl   asg.FuncIdx
	Instrs *arena.Arena[Instr, Instr]
	Blocks *arena.Arena[BasicBlock, BasicBlock]
	Entry  BlockIdx
}

// Get dereferences an instruction index.
func (f *Function) Get(ix InstrIdx) Instr { return f.Instrs.Get(ix) }

// Block dereferences a block index. The returned pointer is to a copy:
// BasicBlock is a plain struct, not an interface over a pointer like
// cfg.Node, so Get already hands back an independent value and this
// just avoids making every call site repeat the addressing. Lower
// builds each BasicBlock to completion before pushing it (or
// back-patches it with Blocks.Set), never through this method.
func (f *Function) Block(ix BlockIdx) *BasicBlock {
	b := f.Blocks.Get(ix)
	return &b
}
