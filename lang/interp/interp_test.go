package interp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/lang/compiler"
	"github.com/mna/adeptc/lang/interp"
	"github.com/mna/adeptc/lang/types"
)

func mustAsm(t *testing.T, src string) *compiler.Program {
	t.Helper()
	prog, err := compiler.Asm([]byte(src))
	require.NoError(t, err)
	return prog
}

func TestRunArithmetic(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		int 2
		int 3

function: main 2 0
	code:
		constant 0
		constant 1
		plus
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(5, 64, true), res)
}

func TestRunStoreThenLoad(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		int 7
	types:
		64 signed

function: main 3 0
	locals:
		x
	code:
		alloca   0
		setlocal 0
		local    0
		constant 0
		store
		local    0
		load
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(7, 64, true), res)
}

func TestRunJumpTakesBranch(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		bool  true
		int   1
		int   2

function: main 2 0
	code:
		constant 0
		cjmp     4
		constant 1
		returnvalue
		constant 2
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(2, 64, true), res)
}

func TestRunSizeOfUnspecifiedModeTaintsResult(t *testing.T) {
	prog := mustAsm(t, `
program:
	types:
		32 signed

function: main 1 0
	code:
		sizeof   0
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	_, err := in.Run(context.Background(), nil)
	require.ErrorIs(t, err, interp.ErrTainted)
}

func TestRunSizeOfCompilationModeIsUntainted(t *testing.T) {
	prog := mustAsm(t, `
program:
	types:
		32 signed

function: main 1 0
	code:
		sizeof   2
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NoTaint, res.TaintOf())
	require.Equal(t, types.NewInt(4, 64, false), res)
}

func TestRunSizeOfTargetModeRejected(t *testing.T) {
	prog := mustAsm(t, `
program:
	types:
		32 signed

function: main 1 0
	code:
		sizeof   1
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	_, err := in.Run(context.Background(), nil)
	require.ErrorIs(t, err, interp.ErrSizeOfTarget)
}

func TestRunCallsSecondFunction(t *testing.T) {
	prog := mustAsm(t, `
program:
	names:
		double
	constants:
		int 21

function: main 2 0
	code:
		constant 0
		call     256
		returnvalue

function: double 2 1
	locals:
		x
	code:
		local    0
		local    0
		plus
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(42, 64, true), res)
}

func TestRunExitUnwindsWholeRun(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		int 99

function: main 1 0
	code:
		constant 0
		exit
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(99, 64, true), res)
}

func TestRunMemberAccessOnStruct(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		int 10
		int 20
	types:
		64 signed

function: main 3 0
	locals:
		x
	code:
		alloca    0
		setlocal  0
		local     0
		constant  0
		constant  1
		structlit 2
		store
		local     0
		member    1
		load
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	res, err := in.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(20, 64, true), res)
}

func TestRunTimesOutOnStepBudget(t *testing.T) {
	prog := mustAsm(t, `
program:

function: loop 1 0
	code:
		nop
		jmp 0
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	in.MaxSteps = 10
	_, err := in.Run(context.Background(), nil)
	require.ErrorIs(t, err, interp.ErrTimedOut)
}

func TestRunRejectsDivisionByZero(t *testing.T) {
	prog := mustAsm(t, `
program:
	constants:
		int 1
		int 0

function: main 2 0
	code:
		constant 0
		constant 1
		slash
		returnvalue
`)
	in := interp.New(prog, interp.NewMemory(0), interp.NopSyscallHandler{})
	_, err := in.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestMemoryFreeThenLoadFails(t *testing.T) {
	mem := interp.NewMemory(0)
	p, err := mem.AllocHeap(types.NewInt(1, 64, true))
	require.NoError(t, err)
	require.NoError(t, mem.Free(p))
	_, err = mem.Load(p)
	require.Error(t, err)
}

func TestMemoryStackRestoreDiscardsCells(t *testing.T) {
	mem := interp.NewMemory(0)
	mark := mem.StackMark()
	p, err := mem.AllocStack(types.NewInt(1, 64, true))
	require.NoError(t, err)
	mem.StackRestore(mark)
	_, err = mem.Load(p)
	require.Error(t, err)
}

func TestMemoryArrayAccessAutoVivifies(t *testing.T) {
	mem := interp.NewMemory(0)
	p, err := mem.AllocHeap(types.NewUndefined())
	require.NoError(t, err)
	elem := p.WithPathStep(3)
	require.NoError(t, mem.Store(elem, types.NewInt(42, 64, true)))
	v, err := mem.Load(elem)
	require.NoError(t, err)
	require.Equal(t, types.NewInt(42, 64, true), v)
}
