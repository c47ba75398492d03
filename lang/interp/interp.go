package interp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mna/adeptc/lang/compiler"
	"github.com/mna/adeptc/lang/ir"
	"github.com/mna/adeptc/lang/types"
)

// DefaultMaxSteps bounds a build script's execution, per the
// departure this interpreter makes from a general-purpose scripting
// VM: a compile-time evaluator has no legitimate reason to run
// forever, and an unbounded default would turn an accidental infinite
// loop in a build script into a hung compiler invocation rather than a
// diagnosable error.
const DefaultMaxSteps = 1_000_000

var (
	// ErrTimedOut reports that a Run exhausted its step budget.
	ErrTimedOut = errors.New("interp: exceeded max steps")
	// ErrTainted reports a tainted value reaching an escape boundary:
	// the top-level result of Run, or an argument to a SyscallHandler
	// method.
	ErrTainted = errors.New("interp: tainted value escaped compile-time evaluation")
	// ErrSizeOfTarget reports a SizeOf evaluated with an explicit
	// "target" mode: the interpreter has no target ABI of its own to
	// consult (that's lang/abi's job, applied after compilation), so
	// this can never be resolved at compile time.
	ErrSizeOfTarget = errors.New("interp: sizeof<\"target\", ...> cannot be evaluated at compile time")
)

// SyscallHandler implements the interpreter's compile-time builtins
// (spec section 4.6). Each method corresponds to one ir.SyscallKind;
// Interpreter dispatches SYSCALL instructions to these by the kind
// packed into the instruction's operand.
type SyscallHandler interface {
	Println(args []types.Value) (types.Value, error)
	BuildAddProject(args []types.Value) (types.Value, error)
	BuildLinkFilename(args []types.Value) (types.Value, error)
	ImportNamespace(args []types.Value) (types.Value, error)
	UseDependency(args []types.Value) (types.Value, error)
	Experimental(args []types.Value) (types.Value, error)
	DontAssumeIntAtLeast32Bits(args []types.Value) (types.Value, error)
	Exit(args []types.Value) (types.Value, error)
}

// NopSyscallHandler answers every syscall with Undefined and no error,
// useful for tests that only exercise arithmetic/memory opcodes.
type NopSyscallHandler struct{}

func (NopSyscallHandler) Println(args []types.Value) (types.Value, error) { return types.NewUndefined(), nil }
func (NopSyscallHandler) BuildAddProject(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) BuildLinkFilename(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) ImportNamespace(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) UseDependency(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) Experimental(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) DontAssumeIntAtLeast32Bits(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}
func (NopSyscallHandler) Exit(args []types.Value) (types.Value, error) {
	return types.NewUndefined(), nil
}

// Interpreter executes a compiled Program's Toplevel function (and
// whatever other Functions it transitively Calls) over a Memory arena.
// There is no goroutine-shared, reusable machine state to guard: one
// Interpreter evaluates exactly one build script and is discarded.
type Interpreter struct {
	Prog     *compiler.Program
	Mem      *Memory
	Syscalls SyscallHandler

	// MaxSteps bounds total executed instructions across every Call in
	// this run. Zero means DefaultMaxSteps (spec section 4.6).
	MaxSteps int64

	globals map[string]types.Pointer
	steps   int64
}

// New returns an Interpreter ready to Run prog. handler must not be
// nil; pass NopSyscallHandler{} for a syscall-free program.
func New(prog *compiler.Program, mem *Memory, handler SyscallHandler) *Interpreter {
	return &Interpreter{
		Prog:     prog,
		Mem:      mem,
		Syscalls: handler,
		globals:  make(map[string]types.Pointer),
	}
}

// Run executes prog.Toplevel with args and returns its computed result:
// either the value passed to an EXIT instruction (ir.ExitInterpreter),
// or RETURNVALUE's operand if the function falls off the end by
// returning normally, or Undefined if it RETURNs without a value.
func (in *Interpreter) Run(ctx context.Context, args []types.Value) (types.Value, error) {
	if in.Prog.Toplevel == nil {
		return nil, errors.New("interp: program has no top-level function")
	}
	maxSteps := in.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	in.steps = 0

	result, err := in.call(ctx, maxSteps, in.Prog.Toplevel, args)
	if err != nil {
		var sig *exitSignal
		if errors.As(err, &sig) {
			result = sig.value
		} else {
			return nil, err
		}
	}
	if err := in.checkNotTainted(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (in *Interpreter) checkNotTainted(v types.Value) error {
	if v == nil {
		return nil
	}
	if v.TaintOf() != types.NoTaint {
		return fmt.Errorf("%w: %s", ErrTainted, v.String())
	}
	return nil
}

// funcByName finds a compiled function by name among Prog.Toplevel and
// Prog.Functions, the way a CALL instruction's Program.Names-indexed
// callee is resolved at execution time.
func (in *Interpreter) funcByName(name string) *compiler.Funcode {
	if in.Prog.Toplevel != nil && in.Prog.Toplevel.Name == name {
		return in.Prog.Toplevel
	}
	for _, fn := range in.Prog.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// exitSignal is the sentinel carried through call's error return when
// an EXIT instruction unwinds the whole interpreter run rather than
// just the current call, letting every enclosing call propagate it
// without itself being mistaken for a normal function error.
type exitSignal struct {
	value types.Value
}

func (e *exitSignal) Error() string { return "interp: compile-time evaluation exited" }

// call executes fn with args on a fresh locals/operand stack, honoring
// the shared step budget across the whole Run. An EXIT instruction
// anywhere in the call chain surfaces as a *exitSignal error, which
// every enclosing call propagates unexamined until Run unwraps it: EXIT
// ends the whole compile-time evaluation, not just the innermost call.
func (in *Interpreter) call(ctx context.Context, maxSteps int64, fn *compiler.Funcode, args []types.Value) (types.Value, error) {
	nlocals := len(fn.Locals)
	locals := make([]types.Value, nlocals)
	for i := range locals {
		locals[i] = types.NewUndefined()
	}
	for i := 0; i < fn.NumParams && i < len(args); i++ {
		locals[i] = args[i]
	}

	stack := make([]types.Value, fn.MaxStack)
	sp := 0
	code := fn.Code
	mark := in.Mem.StackMark()
	defer in.Mem.StackRestore(mark)

	var pc uint32
	for int(pc) < len(code) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		in.steps++
		if in.steps > maxSteps {
			return nil, ErrTimedOut
		}

		op := compiler.Opcode(code[pc])
		pc++
		var arg uint32
		if compiler.HasArg(op) {
			v, n := binary.Uvarint(code[pc:])
			if n <= 0 {
				return nil, fmt.Errorf("interp: invalid operand for %s at pc %d", op, pc-1)
			}
			arg = uint32(v)
			if compiler.IsJump(op) && n < 4 {
				n = 4
			}
			pc += uint32(n)
		}

		switch op {
		case compiler.NOP:
			// nothing

		case compiler.LT, compiler.GT, compiler.GE, compiler.LE, compiler.EQL, compiler.NEQ:
			y, x := stack[sp-1], stack[sp-2]
			sp -= 2
			v, err := compareValues(op, x, y)
			if err != nil {
				return nil, err
			}
			stack[sp] = v
			sp++

		case compiler.PLUS, compiler.MINUS, compiler.STAR, compiler.SLASH, compiler.PERCENT,
			compiler.AMPERSAND, compiler.PIPE, compiler.CIRCUMFLEX, compiler.LTLT, compiler.GTGT:
			y, x := stack[sp-1], stack[sp-2]
			sp -= 2
			v, err := binArith(op, x, y)
			if err != nil {
				return nil, err
			}
			stack[sp] = v
			sp++

		case compiler.NEGATE, compiler.BITCOMPLEMENT, compiler.ISZERO, compiler.ISNONZERO:
			x := stack[sp-1]
			v, err := unaryOp(op, x)
			if err != nil {
				return nil, err
			}
			stack[sp-1] = v

		case compiler.CONSTANT:
			stack[sp] = constantValue(in.Prog.Constants[arg])
			sp++

		case compiler.LOCAL:
			stack[sp] = locals[arg]
			sp++

		case compiler.SETLOCAL:
			locals[arg] = stack[sp-1]
			sp--

		case compiler.GLOBAL:
			name := in.Prog.Names[arg]
			p, ok := in.globals[name]
			if !ok {
				var err error
				p, err = in.Mem.AllocPermanent(types.NewUndefined())
				if err != nil {
					return nil, err
				}
				in.globals[name] = p
			}
			stack[sp] = p
			sp++

		case compiler.ALLOCA:
			p, err := in.Mem.AllocStack(types.NewUndefined())
			if err != nil {
				return nil, err
			}
			stack[sp] = p
			sp++

		case compiler.MALLOC:
			p, err := in.Mem.AllocHeap(types.NewUndefined())
			if err != nil {
				return nil, err
			}
			stack[sp] = p
			sp++

		case compiler.MALLOCARRAY:
			count, err := asInt(stack[sp-1])
			if err != nil {
				return nil, err
			}
			sp--
			fields := make([]types.Value, count)
			for i := range fields {
				fields[i] = types.NewUndefined()
			}
			p, err := in.Mem.AllocHeap(types.NewStruct(fields))
			if err != nil {
				return nil, err
			}
			stack[sp] = p
			sp++

		case compiler.FREE:
			p, ok := stack[sp-1].(types.Pointer)
			sp--
			if !ok {
				return nil, fmt.Errorf("interp: free of non-pointer value")
			}
			if err := in.Mem.Free(p); err != nil {
				return nil, err
			}

		case compiler.LOAD:
			p, ok := stack[sp-1].(types.Pointer)
			if !ok {
				return nil, fmt.Errorf("interp: load through non-pointer value")
			}
			v, err := in.Mem.Load(p)
			if err != nil {
				return nil, err
			}
			stack[sp-1] = v

		case compiler.STORE:
			v := stack[sp-1]
			p, ok := stack[sp-2].(types.Pointer)
			sp -= 2
			if !ok {
				return nil, fmt.Errorf("interp: store through non-pointer value")
			}
			if err := in.Mem.Store(p, v); err != nil {
				return nil, err
			}

		case compiler.MEMBER:
			p, ok := stack[sp-1].(types.Pointer)
			if !ok {
				return nil, fmt.Errorf("interp: member access on non-pointer value")
			}
			stack[sp-1] = p.WithPathStep(int(arg))

		case compiler.ARRAYACCESS:
			idxVal := stack[sp-1]
			p, ok := stack[sp-2].(types.Pointer)
			sp--
			if !ok {
				return nil, fmt.Errorf("interp: array access on non-pointer value")
			}
			idx, err := asInt(idxVal)
			if err != nil {
				return nil, err
			}
			stack[sp-1] = p.WithPathStep(idx)

		case compiler.STRUCTLIT:
			n := int(arg)
			fields := append([]types.Value(nil), stack[sp-n:sp]...)
			sp -= n
			stack[sp] = types.NewStruct(fields)
			sp++

		case compiler.SIZEOF:
			typeIdx := arg >> 2
			mode := ir.SizeOfMode(arg & 3)
			rt := in.Prog.Types[typeIdx]
			v, err := sizeOf(rt, mode)
			if err != nil {
				return nil, err
			}
			stack[sp] = v
			sp++

		case compiler.EXTEND, compiler.TRUNCATE, compiler.BITCAST, compiler.INTTOPTR,
			compiler.PTRTOINT, compiler.FLOATTOINT, compiler.INTTOFLOAT,
			compiler.FLOATEXTEND, compiler.TRUNCATEFLOAT:
			rt := in.Prog.Types[arg]
			v, err := convert(op, stack[sp-1], rt)
			if err != nil {
				return nil, err
			}
			stack[sp-1] = v

		case compiler.JMP:
			pc = arg

		case compiler.CJMP:
			cond := stack[sp-1]
			sp--
			if cond.Truth().V {
				pc = arg
			}

		case compiler.CALL:
			argc := int(arg >> 8)
			nameIdx := arg & 0xff
			callee := in.funcByName(in.Prog.Names[nameIdx])
			if callee == nil {
				return nil, fmt.Errorf("interp: call to undefined function %q", in.Prog.Names[nameIdx])
			}
			callArgs := append([]types.Value(nil), stack[sp-argc:sp]...)
			sp -= argc
			res, err := in.call(ctx, maxSteps, callee, callArgs)
			if err != nil {
				// an *exitSignal from a nested call ends the whole run: propagate
				// it unexamined rather than resuming this frame.
				return nil, err
			}
			stack[sp] = res
			sp++

		case compiler.SYSCALL:
			argc := int(arg >> 8)
			kind := arg & 0xff
			callArgs := append([]types.Value(nil), stack[sp-argc:sp]...)
			sp -= argc
			for _, a := range callArgs {
				if err := in.checkNotTainted(a); err != nil {
					return nil, err
				}
			}
			res, err := in.dispatchSyscall(kind, callArgs)
			if err != nil {
				return nil, err
			}
			stack[sp] = res
			sp++

		case compiler.RETURN:
			return types.NewUndefined(), nil

		case compiler.RETURNVALUE:
			return stack[sp-1], nil

		case compiler.EXIT:
			return nil, &exitSignal{value: stack[sp-1]}

		case compiler.TRAP:
			return nil, fmt.Errorf("interp: control reached unreachable code")

		default:
			return nil, fmt.Errorf("interp: unimplemented opcode %s", op)
		}
	}
	return types.NewUndefined(), nil
}

func (in *Interpreter) dispatchSyscall(kind uint32, args []types.Value) (types.Value, error) {
	switch kind {
	case 0:
		return in.Syscalls.Println(args)
	case 1:
		return in.Syscalls.BuildAddProject(args)
	case 2:
		return in.Syscalls.BuildLinkFilename(args)
	case 3:
		return in.Syscalls.ImportNamespace(args)
	case 4:
		return in.Syscalls.UseDependency(args)
	case 5:
		return in.Syscalls.Experimental(args)
	case 6:
		return in.Syscalls.DontAssumeIntAtLeast32Bits(args)
	case 7:
		return in.Syscalls.Exit(args)
	default:
		return nil, fmt.Errorf("interp: unknown syscall kind %d", kind)
	}
}

