// Package compiler lowers a resolved function's register-based SSA form
// (lang/ir) to the linear bytecode the interpreter's VM loop executes.
// It also provides a pseudo-assembly serialization and deserialization to
// encode in textual form a program that closely matches the binary
// format of the compiled form.
//
// The block-linearization and variable-length instruction encoding here
// are adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package compiler

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/ir"
	"github.com/mna/adeptc/lang/token"
)

var ErrUnsupportedInstr = errors.New("compiler: ir instruction not yet compiled")

// NewProgram returns an empty Program, ready to receive compiled
// functions via Compile. Its Names/Constants/Types pools start empty and
// grow as functions are compiled into it, so every *ir.Function destined
// for the same interpreter run should share one Program.
func NewProgram() *Program {
	return &Program{}
}

// Compile lowers fn to bytecode and appends the result to prog as a new
// Funcode. The first function ever compiled into a Program becomes its
// Toplevel.
//
// Unlike lang/ir's Lower, which walks a cfg.Graph whose block order is
// not itself meaningful beyond "valid build order", Compile treats
// fn.Blocks' own push order as the program's linear block order: lang/ir
// already assigned one BasicBlock per leader in a single forward pass
// (lang/ir's DESIGN.md entry), so there are no empty, thread-away blocks
// left over for a jmp-threading step to fold.
func Compile(prog *Program, g *asg.Graph, fn *ir.Function) (*Funcode, error) {
	decl := g.Funcs.Get(fn.Decl)
	slots, numSlots := assignSlots(fn, len(decl.Params))

	fc := &pfunc{
		prog:  prog,
		fn:    fn,
		slots: slots,
	}

	var blocks []ir.BlockIdx
	fn.Blocks.All(func(ix ir.BlockIdx, _ ir.BasicBlock) bool {
		blocks = append(blocks, ix)
		return true
	})

	// Pass 1: lower every block to an address-agnostic insn list, and
	// compute each block's start address from the encoded sizes alone
	// (a jump's size never depends on its target, only on whether it is a
	// jump, so the address pass doesn't need to know the other blocks'
	// addresses yet).
	blockInsns := make(map[ir.BlockIdx][]insn, len(blocks))
	blockAddr := make(map[ir.BlockIdx]uint32, len(blocks))
	var addr uint32
	for _, bix := range blocks {
		blk := fn.Block(bix)
		ins, err := fc.lowerBlock(blk)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", blk.Label, err)
		}
		blockInsns[bix] = ins
		blockAddr[bix] = addr
		for _, in := range ins {
			addr += uint32(encodedSize(in.op, in.arg))
		}
	}

	// Pass 2: now that every block's address is known, resolve JMP/CJMP
	// targets and encode the final byte stream.
	var code []byte
	for _, bix := range blocks {
		for _, in := range blockInsns[bix] {
			arg := in.arg
			if in.isBlockRef {
				arg = blockAddr[in.target]
			}
			code = encodeInsn(code, in.op, arg)
		}
	}

	numLocals := numSlots
	locals := make([]Binding, numLocals)
	for i := range locals[:len(decl.Params)] {
		locals[i] = Binding{Name: decl.Params[i].Name}
	}
	for i := len(decl.Params); i < numLocals; i++ {
		locals[i] = Binding{Name: fmt.Sprintf("t%d", i)}
	}

	fcode := &Funcode{
		Prog:      prog,
		Name:      decl.Name,
		Code:      code,
		Locals:    locals,
		NumParams: len(decl.Params),
		MaxStack:  maxStack(blocks, blockInsns),
	}
	if prog.Toplevel == nil {
		prog.Toplevel = fcode
	} else {
		prog.Functions = append(prog.Functions, fcode)
	}
	return fcode, nil
}

// maxStack walks every block's insns in isolation (each block always
// starts and ends at stack depth zero: every value an instruction needs
// is loaded fresh via LOCAL/CONSTANT/GLOBAL and every value it produces
// is immediately stored back via SETLOCAL, so blocks never hand off a
// residual operand-stack value to their successor) and reports the
// deepest point reached.
func maxStack(blocks []ir.BlockIdx, blockInsns map[ir.BlockIdx][]insn) int {
	var max int
	for _, bix := range blocks {
		var depth int
		for _, in := range blockInsns[bix] {
			se := int(stackEffect[in.op])
			if se == variableStackEffect {
				se = variadicStackEffect(in)
			}
			depth += se
			if depth > max {
				max = depth
			}
		}
	}
	return max
}

// variadicStackEffect computes the net stack effect of an instruction
// whose stackEffect table entry is variableStackEffect: CALL/SYSCALL pop
// their argument count and push one result; STRUCTLIT pops its field
// count and pushes one aggregate.
func variadicStackEffect(in insn) int {
	switch in.op {
	case CALL, SYSCALL:
		return -int(in.arg>>8) + 1
	case STRUCTLIT:
		return -int(in.arg) + 1
	default:
		return 0
	}
}

// insn is one address-agnostic bytecode instruction: arg is meaningful
// unless isBlockRef, in which case the real argument is blockAddr[target]
// and is only known once every block's size has been computed.
type insn struct {
	op         Opcode
	arg        uint32
	isBlockRef bool
	target     ir.BlockIdx
}

// pfunc holds the state threaded through one function's lowering: the
// slot each value-producing ir.InstrIdx was assigned (assignSlots), kept
// separate from pcomp-style pool state (Names/Constants/Types) which
// lives directly on the shared Program so every function compiled into
// it reuses the same pools.
type pfunc struct {
	prog  *Program
	fn    *ir.Function
	slots map[ir.InstrIdx]int
}

// assignSlots gives every value-producing ir.Instr a local slot. A
// *ir.Parameter's slot is its own Index (locals list parameters first,
// per Funcode's own field doc), so reading a parameter costs no
// bytecode at all; every other value-producing instruction gets the
// next free slot in arena order. Void instructions (Store, Free, and the
// five terminators) never appear as an operand and get no slot.
func assignSlots(fn *ir.Function, numParams int) (map[ir.InstrIdx]int, int) {
	slots := make(map[ir.InstrIdx]int)
	next := numParams
	fn.Instrs.All(func(ix ir.InstrIdx, instr ir.Instr) bool {
		if p, ok := instr.(*ir.Parameter); ok {
			slots[ix] = p.Index
			return true
		}
		if isVoid(instr) {
			return true
		}
		slots[ix] = next
		next++
		return true
	})
	return slots, next
}

func isVoid(instr ir.Instr) bool {
	switch instr.(type) {
	case *ir.Store, *ir.Free, *ir.Break, *ir.ConditionalBreak, *ir.Return, *ir.ExitInterpreter, *ir.Unreachable:
		return true
	default:
		return false
	}
}

// lowerBlock compiles one basic block's straight-line instructions
// followed by its terminator.
func (fc *pfunc) lowerBlock(blk *ir.BasicBlock) ([]insn, error) {
	var out []insn
	emit := func(op Opcode, arg uint32) { out = append(out, insn{op: op, arg: arg}) }
	load := func(ix ir.InstrIdx) { emit(LOCAL, uint32(fc.slots[ix])) }
	store := func(ix ir.InstrIdx) { emit(SETLOCAL, uint32(fc.slots[ix])) }

	for _, ix := range blk.Instrs {
		if err := fc.lowerInstr(ix, fc.fn.Get(ix), emit, load, store); err != nil {
			return nil, err
		}
	}

	term := fc.fn.Get(blk.Term)
	switch t := term.(type) {
	case *ir.Break:
		out = append(out, insn{op: JMP, isBlockRef: true, target: t.Target})
	case *ir.ConditionalBreak:
		load(t.Cond)
		out = append(out, insn{op: CJMP, isBlockRef: true, target: t.WhenTrue})
		out = append(out, insn{op: JMP, isBlockRef: true, target: t.WhenFalse})
	case *ir.Return:
		if t.HasValue {
			load(t.Value)
			emit(RETURNVALUE, 0)
		} else {
			emit(RETURN, 0)
		}
	case *ir.ExitInterpreter:
		load(t.Value)
		emit(EXIT, 0)
	case *ir.Unreachable:
		emit(TRAP, 0)
	default:
		return nil, fmt.Errorf("%w: terminator %T", ErrUnsupportedInstr, term)
	}
	return out, nil
}

func (fc *pfunc) lowerInstr(ix ir.InstrIdx, instr ir.Instr, emit func(Opcode, uint32), load, store func(ir.InstrIdx)) error {
	switch n := instr.(type) {
	case *ir.Parameter:
		// Already resident in its slot at call entry; no bytecode needed.
		return nil

	case *ir.Const:
		emit(CONSTANT, internConstant(fc.prog, n.Value))
		store(ix)

	case *ir.GlobalVariable:
		emit(GLOBAL, internName(fc.prog, n.Ref))
		store(ix)

	case *ir.Alloca:
		emit(ALLOCA, internType(fc.prog, typeOf(n.Type)))
		store(ix)

	case *ir.Malloc:
		emit(MALLOC, internType(fc.prog, typeOf(n.Type)))
		store(ix)

	case *ir.MallocArray:
		load(n.Count)
		emit(MALLOCARRAY, internType(fc.prog, typeOf(n.Elem)))
		store(ix)

	case *ir.Free:
		load(n.Ptr)
		emit(FREE, 0)

	case *ir.Store:
		load(n.Dest)
		load(n.Value)
		emit(STORE, 0)

	case *ir.Load:
		load(n.Ptr)
		emit(LOAD, 0)
		store(ix)

	case *ir.BinOp:
		load(n.Left)
		load(n.Right)
		emit(binOpcode(n.Op), 0)
		store(ix)

	case *ir.Negate:
		load(n.Value)
		emit(NEGATE, 0)
		store(ix)

	case *ir.BitComplement:
		load(n.Value)
		emit(BITCOMPLEMENT, 0)
		store(ix)

	case *ir.IsZero:
		load(n.Value)
		emit(ISZERO, 0)
		store(ix)

	case *ir.IsNonZero:
		load(n.Value)
		emit(ISNONZERO, 0)
		store(ix)

	case *ir.Extend:
		load(n.Value)
		emit(EXTEND, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.Truncate:
		load(n.Value)
		emit(TRUNCATE, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.Bitcast:
		load(n.Value)
		emit(BITCAST, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.IntegerToPointer:
		load(n.Value)
		emit(INTTOPTR, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.PointerToInteger:
		load(n.Value)
		emit(PTRTOINT, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.FloatToInteger:
		load(n.Value)
		emit(FLOATTOINT, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.IntegerToFloat:
		load(n.Value)
		emit(INTTOFLOAT, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.FloatExtend:
		load(n.Value)
		emit(FLOATEXTEND, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.TruncateFloat:
		load(n.Value)
		emit(TRUNCATEFLOAT, internType(fc.prog, typeOf(n.To)))
		store(ix)

	case *ir.Member:
		load(n.Pointer)
		emit(MEMBER, uint32(n.FieldIndex))
		store(ix)

	case *ir.ArrayAccess:
		load(n.Pointer)
		load(n.Index)
		emit(ARRAYACCESS, internType(fc.prog, typeOf(n.ElemType)))
		store(ix)

	case *ir.StructLiteral:
		for _, f := range n.Fields {
			load(f)
		}
		emit(STRUCTLIT, uint32(len(n.Fields)))
		store(ix)

	case *ir.Call:
		for _, a := range n.Args {
			load(a)
		}
		emit(CALL, packArgs(len(n.Args), internName(fc.prog, n.Callee)))
		store(ix)

	case *ir.InterpreterSyscall:
		for _, a := range n.Args {
			load(a)
		}
		emit(SYSCALL, packArgs(len(n.Args), uint32(n.Kind)))
		store(ix)

	case *ir.SizeOf:
		// The byte count itself depends on the interpreter's own Target
		// configuration (a pointer's size under a 32-bit target differs
		// from the compiler host's own, spec section 3's whole point for
		// Mode); the compiler only resolves which RuntimeType and which
		// SizeOfMode apply, packed into a single operand (2 bits: mode has
		// three values), and leaves the actual arithmetic to the
		// interpreter's SIZEOF handler.
		typeIdx := internType(fc.prog, typeOf(n.Type))
		emit(SIZEOF, typeIdx<<2|uint32(n.Mode))
		store(ix)

	case *ir.Phi:
		return fmt.Errorf("%w: Phi (no lowering pass emits one yet)", ErrUnsupportedInstr)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedInstr, instr)
	}
	return nil
}

// packArgs packs an argument count and a pool index the way the
// teacher's own CALL opcode packs positional/named argument counts: the
// high bits carry the count, the low byte carries the index.
func packArgs(argc int, idx uint32) uint32 {
	return uint32(argc)<<8 | (idx & 0xff)
}

func binOpcode(op token.Token) Opcode {
	switch {
	case op >= token.LT && op <= token.NEQ:
		return LT + Opcode(op-token.LT)
	case op >= token.PLUS && op <= token.GTGT:
		return PLUS + Opcode(op-token.PLUS)
	default:
		return NOP
	}
}

// typeOf reduces t to the bit width/signedness/kind slice the
// interpreter needs for a conversion or sized allocation. CInteger's
// exact width is target-dependent (spec section 4.4's whole point); this
// falls back to the rank's usual width (char=8, short=16, int/long=32/64
// per the common LP64 assumption) since the compile-time interpreter
// tier does not carry a Target here. lang/abi, which does have a Target,
// is the authority for ABI-accurate sizing.
func typeOf(t asg.Type) RuntimeType {
	switch t := t.(type) {
	case asg.Boolean:
		return RuntimeType{Bits: 8}
	case asg.Integer:
		return RuntimeType{Bits: t.Bits, Signed: t.Signed}
	case asg.CInteger:
		return RuntimeType{Bits: cRankBits(t.Rank), Signed: t.Signed == nil || *t.Signed}
	case asg.SizeInteger:
		return RuntimeType{Bits: 64, Signed: t.Signed}
	case asg.IntegerLiteral, asg.IntegerLiteralInRange:
		return RuntimeType{Bits: 64, Signed: true}
	case asg.FloatLiteral:
		return RuntimeType{Bits: 64, Float: true}
	case asg.Floating:
		return RuntimeType{Bits: int(t.Bits), Float: true}
	case asg.Pointer:
		return RuntimeType{Bits: 64, Pointer: true}
	case asg.Void, asg.Never:
		return RuntimeType{Bits: 0}
	default:
		// Aggregates (structs, unions, arrays, enums, func pointers) and
		// not-yet-substituted polymorphs have no single scalar width; the
		// interpreter only needs a stable pool index to name them, e.g. as
		// MEMBER/STRUCTLIT operands, not their precise layout.
		return RuntimeType{Bits: 64, Pointer: true}
	}
}

func cRankBits(r ast.CIntegerRank) int {
	switch r {
	case ast.RankChar:
		return 8
	case ast.RankShort:
		return 16
	case ast.RankInt:
		return 32
	default: // RankLong, RankLongLong
		return 64
	}
}

func internName(p *Program, name string) uint32 {
	for i, n := range p.Names {
		if n == name {
			return uint32(i)
		}
	}
	p.Names = append(p.Names, name)
	return uint32(len(p.Names) - 1)
}

func internConstant(p *Program, v interface{}) uint32 {
	for i, c := range p.Constants {
		if c == v {
			return uint32(i)
		}
	}
	p.Constants = append(p.Constants, v)
	return uint32(len(p.Constants) - 1)
}

func internType(p *Program, rt RuntimeType) uint32 {
	for i, t := range p.Types {
		if t == rt {
			return uint32(i)
		}
	}
	p.Types = append(p.Types, rt)
	return uint32(len(p.Types) - 1)
}

// encodeInsn appends one instruction's encoding to code.
func encodeInsn(code []byte, op Opcode, arg uint32) []byte {
	code = append(code, byte(op))
	switch {
	case isJump(op):
		code = addUint32(code, arg, 4) // pad arg to 4 bytes
	case int(op) < len(hasArg) && hasArg[op]:
		code = addUint32(code, arg, 0)
	}
	return code
}

// addUint32 encodes x as a 7-bit little-endian varint, padded with NOPs
// to at least min bytes.
func addUint32(code []byte, x uint32, min int) []byte {
	end := len(code) + min
	for x >= 0x80 {
		code = append(code, byte(x)|0x80)
		x >>= 7
	}
	code = append(code, byte(x))
	for len(code) < end {
		code = append(code, byte(NOP))
	}
	return code
}
