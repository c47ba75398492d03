package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/adeptc/lang/compiler"
)

const sumAsm = `
program:
	names:
		helper
	constants:
		int 1
		string "hi"
	types:
		32 signed
		64 pointer

function: main 4 1
	locals:
		x
	code:
		local    0
		constant 0
		plus
		setlocal 1
		local    1
		returnvalue
`

func TestAsmParsesProgramSections(t *testing.T) {
	prog, err := compiler.Asm([]byte(sumAsm))
	require.NoError(t, err)

	require.Equal(t, []string{"helper"}, prog.Names)
	require.Len(t, prog.Constants, 2)
	require.Equal(t, int64(1), prog.Constants[0])
	require.Equal(t, "hi", prog.Constants[1])
	require.Equal(t, []compiler.RuntimeType{
		{Bits: 32, Signed: true},
		{Bits: 64, Pointer: true},
	}, prog.Types)

	require.NotNil(t, prog.Toplevel)
	require.Equal(t, "main", prog.Toplevel.Name)
	require.Equal(t, 4, prog.Toplevel.MaxStack)
	require.Equal(t, 1, prog.Toplevel.NumParams)
	require.Equal(t, []compiler.Binding{{Name: "x"}}, prog.Toplevel.Locals)
	require.NotEmpty(t, prog.Toplevel.Code)
}

func TestAsmDasmRoundTrip(t *testing.T) {
	prog, err := compiler.Asm([]byte(sumAsm))
	require.NoError(t, err)

	out, err := compiler.Dasm(prog)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	reparsed, err := compiler.Asm(out)
	require.NoError(t, err)

	require.Equal(t, prog.Names, reparsed.Names)
	require.Equal(t, prog.Constants, reparsed.Constants)
	require.Equal(t, prog.Types, reparsed.Types)
	require.Equal(t, prog.Toplevel.Name, reparsed.Toplevel.Name)
	require.Equal(t, prog.Toplevel.Code, reparsed.Toplevel.Code, "disassembling and reassembling must reproduce the exact same encoded instruction stream")
}

const branchAsm = `
program:

function: branch 2 1
	code:
		local    0
		cjmp     3
		jmp      5
		constant 0
		returnvalue
		constant 1
		returnvalue
`

func TestAsmTranslatesJumpIndicesToAddresses(t *testing.T) {
	prog, err := compiler.Asm([]byte(branchAsm))
	require.NoError(t, err)

	var sawCJMP, sawJMP int
	code := prog.Toplevel.Code
	for i := 0; i < len(code); {
		switch compiler.Opcode(code[i]) {
		case compiler.CJMP:
			sawCJMP++
		case compiler.JMP:
			sawJMP++
		}
		i += opcodeWidth(code, i)
	}
	require.Equal(t, 1, sawCJMP)
	require.Equal(t, 1, sawJMP)

	// the CJMP/JMP targets must round-trip through a full disassemble and
	// reassemble cycle: Dasm translates the in-code byte addresses back
	// to source-order indices, and Asm translates them forward again.
	out, err := compiler.Dasm(prog)
	require.NoError(t, err)
	reparsed, err := compiler.Asm(out)
	require.NoError(t, err)
	require.Equal(t, prog.Toplevel.Code, reparsed.Toplevel.Code)
}

func TestAsmRejectsUnknownOpcode(t *testing.T) {
	_, err := compiler.Asm([]byte(`
program:

function: bad 1 0
	code:
		bogusop
`))
	require.Error(t, err)
}

func TestAsmRejectsMissingTopLevelFunction(t *testing.T) {
	_, err := compiler.Asm([]byte(`program:
`))
	require.Error(t, err)
}
