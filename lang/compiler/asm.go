package compiler

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// This asm file implements a human-readable/writable form of a compiled
// program. This is mostly to support testing of the bytecode compiler
// and interpreter without going through parsing and resolution. A
// disassembler is also implemented.
//
// The assembly format looks like this (indentation and spacing is
// arbitrary, but order of sections is important):
//
// 	program:                             # required
// 		names:                             # optional, list of Names (GLOBAL/CALL operands)
//			some_global
// 		constants:                         # optional, list of Constants
// 			string "abc"
// 			int    1234
// 			float  1.34
// 		types:                             # optional, list of RuntimeTypes
// 			32 signed
// 			64 pointer
//
// 	function: NAME <stack> <params>
//                                       # required at least once for top-level
//  	locals:                            # optional, list of Locals
// 			x
// 		code:                              # required, list of instructions
//			NOP
// 			JMP 3                            # jump argument refers to index in code section (will be translated to pc address)
// 			CALL 2

var sections = map[string]bool{
	"program:":   true,
	"names:":     true,
	"constants:": true,
	"types:":     true,
	"function:":  true,
	"locals:":    true,
	"code:":      true,
}

// Asm loads a compiled program from its assembler textual format.
func Asm(b []byte) (*Program, error) {
	asm := asm{s: bufio.NewScanner(bytes.NewReader(b))}

	// must start with the program: section
	fields := asm.next()
	asm.program(fields)

	// optional sections
	fields = asm.next()
	fields = asm.names(fields)
	fields = asm.constants(fields)
	fields = asm.types(fields)

	// functions
	for asm.err == nil && len(fields) > 0 && fields[0] == "function:" {
		fields = asm.function(fields)
	}

	if asm.err == nil {
		if len(fields) > 0 {
			asm.err = fmt.Errorf("unexpected section: %s", fields[0])
		} else if asm.p.Toplevel == nil {
			asm.err = errors.New("missing top-level function")
		}
	}
	return asm.p, asm.err
}

type asm struct {
	s       *bufio.Scanner
	rawLine string // current raw line (not split in fields)
	p       *Program
	fn      *Funcode // current function
	err     error
}

func (a *asm) function(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "function:") {
		return fields
	}

	if len(fields) != 4 {
		a.err = fmt.Errorf("invalid function: want 'function: NAME <stack> <params>', got %d fields (%s)", len(fields), strings.Join(fields, " "))
		fields = a.next()
		return fields
	}
	fn := Funcode{
		Prog:      a.p,
		Name:      fields[1],
		MaxStack:  int(a.int(fields[2])),
		NumParams: int(a.int(fields[3])),
	}
	a.fn = &fn

	fields = a.next()
	fields = a.locals(fields)
	fields, _ = a.code(fields)

	a.fn = nil
	if a.p.Toplevel == nil {
		a.p.Toplevel = &fn
	} else {
		a.p.Functions = append(a.p.Functions, &fn)
	}
	return fields
}

// code parses the code section and translates jump indices to addresses,
// returning both the next fields to parse and the mapping of
// instruction index in the code section to address in the encoded code
// slice.
func (a *asm) code(fields []string) ([]string, []int) {
	var indexToAddr []int
	if a.err != nil {
		return fields, indexToAddr
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		msg := "expected code section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return fields, indexToAddr
	}

	var insns []insn
	var addr int
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		op, ok := reverseLookupOpcode[strings.ToLower(fields[0])]
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", fields[0])
			return fields, indexToAddr
		}

		var arg uint32
		if needsArg(op) {
			if len(fields) != 2 {
				a.err = fmt.Errorf("expected an argument for opcode %s, got %d fields", fields[0], len(fields))
				return fields, indexToAddr
			}
			arg = uint32(a.uint(fields[1]))
		} else if len(fields) != 1 {
			a.err = fmt.Errorf("expected no argument for opcode %s, got %d fields", fields[0], len(fields))
			return fields, indexToAddr
		}
		insns = append(insns, insn{op: op, arg: arg})
		indexToAddr = append(indexToAddr, addr)
		addr += encodedSize(op, arg)
	}

	// encode the instructions with the translated addresses
	for i, in := range insns {
		op, arg := in.op, in.arg
		if isJump(op) {
			if arg >= uint32(len(indexToAddr)) {
				a.err = fmt.Errorf("invalid jump index %d: instruction %s at index %d", arg, op, i)
				return fields, indexToAddr
			}
			arg = uint32(indexToAddr[arg])
		}
		a.fn.Code = encodeInsn(a.fn.Code, op, arg)
	}

	return fields, indexToAddr
}

// needsArg reports whether op carries an operand, for an asm opcode
// whose bounds haven't already been checked against len(hasArg) by
// encodedSize/encodeInsn.
func needsArg(op Opcode) bool {
	return HasArg(op)
}

func (a *asm) locals(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "locals:") {
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		a.fn.Locals = append(a.fn.Locals, Binding{Name: fields[0]})
	}
	return fields
}

var rxConstLineString = regexp.MustCompile(`^\s*string\s+(.+)$`)

func (a *asm) constants(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "constants:") {
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		// string constants may have whitespace in the value, need to keep
		// the raw line around and extract the whole quoted value from it.
		strVal := rxConstLineString.FindStringSubmatch(a.rawLine)
		if strVal == nil && len(fields) != 2 {
			a.err = fmt.Errorf("invalid constant: expected type and value, got %d fields", len(fields))
			return fields
		}

		switch fields[0] {
		case "int":
			a.p.Constants = append(a.p.Constants, a.int(fields[1]))
		case "bool":
			a.p.Constants = append(a.p.Constants, fields[1] == "true")
		case "float":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				a.err = fmt.Errorf("invalid float: %s: %w", fields[1], err)
				return fields
			}
			a.p.Constants = append(a.p.Constants, f)
		case "string":
			qs, err := strconv.QuotedPrefix(strVal[1])
			if err != nil {
				a.err = fmt.Errorf("invalid string: %q: %w", strVal[1], err)
				return fields
			}
			s, err := strconv.Unquote(qs)
			if err != nil {
				a.err = fmt.Errorf("invalid string: %q: %w", qs, err)
				return fields
			}
			a.p.Constants = append(a.p.Constants, s)
		default:
			a.err = fmt.Errorf("invalid constant type: %s", fields[0])
			return fields
		}
	}
	return fields
}

// types parses the optional types: section, one RuntimeType per line as
// "<bits> [signed] [float] [pointer]".
func (a *asm) types(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "types:") {
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) == 0 {
			a.err = errors.New("invalid type: expected at least a bit width")
			return fields
		}
		rt := RuntimeType{Bits: int(a.int(fields[0]))}
		for _, flag := range fields[1:] {
			switch flag {
			case "signed":
				rt.Signed = true
			case "float":
				rt.Float = true
			case "pointer":
				rt.Pointer = true
			default:
				a.err = fmt.Errorf("invalid type flag: %s", flag)
				return fields
			}
		}
		a.p.Types = append(a.p.Types, rt)
	}
	return fields
}

func (a *asm) names(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "names:") {
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		a.p.Names = append(a.p.Names, fields[0])
	}
	return fields
}

func (a *asm) program(fields []string) {
	if a.err != nil {
		return
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "program:") {
		msg := "expected program section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return
	}

	var p Program
	a.p = &p
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid integer: %s: %w", s, err)
	}
	return i
}

func (a *asm) uint(s string) uint64 {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid unsigned integer: %s: %w", s, err)
	}
	return u
}

// next returns the fields for the next non-empty, non-comment-only
// line, so that fields[0] will contain the line identification if it
// is a section.
func (a *asm) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) != 0 && !strings.HasPrefix(fields[0], "#") {
			// strip comments to make rest of parsing simpler
			for i, fld := range fields {
				if strings.HasPrefix(fld, "#") {
					fields = fields[:i]
					break
				}
			}
			a.rawLine = line
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}

// Dasm writes a compiled program to its assembler textual format.
func Dasm(p *Program) ([]byte, error) {
	d := dasm{p: p, buf: new(bytes.Buffer)}
	d.program()
	d.write("\n")

	if d.p.Toplevel == nil {
		d.err = errors.New("missing top-level function")
	}
	if d.err == nil {
		d.function(p.Toplevel)
		for _, fn := range p.Functions {
			d.write("\n")
			d.function(fn)
		}
	}

	return d.buf.Bytes(), d.err
}

type dasm struct {
	p   *Program
	buf *bytes.Buffer
	err error
}

func (d *dasm) function(fn *Funcode) {
	if d.err != nil {
		return
	}

	d.writef("function: %s %d %d\n", fn.Name, fn.MaxStack, fn.NumParams)

	if len(fn.Locals) > 0 {
		d.write("\tlocals:\n")
		for i, l := range fn.Locals {
			d.writef("\t\t%s\t# %03d\n", l.Name, i)
		}
	}

	// decode all instructions to translate addresses to index
	var insns []insn
	addrToIndex := make([]int, len(fn.Code))
	for i := range addrToIndex {
		addrToIndex[i] = -1
	}
	var addr int
	for addr < len(fn.Code) {
		op := Opcode(fn.Code[addr])
		sz := 1

		var arg uint32
		if needsArg(op) {
			v, n := binary.Uvarint(fn.Code[addr+1:])
			if n <= 0 || v > math.MaxUint32 {
				d.err = fmt.Errorf("invalid uvarint argument in function %s code at index %d (%s)", fn.Name, addr, op)
				return
			}
			arg = uint32(v)

			if isJump(op) && n < 4 {
				n = 4
			}
			sz += n
		}

		addrToIndex[addr] = len(insns)
		insns = append(insns, insn{op: op, arg: arg})
		addr += sz
	}

	if len(insns) > 0 {
		d.write("\tcode:\n")
		for i, in := range insns {
			op, arg := in.op, in.arg
			if needsArg(op) {
				if isJump(op) {
					if addrToIndex[arg] == -1 {
						d.err = fmt.Errorf("invalid jump address %d in function %s, instruction %d (%s)", arg, fn.Name, i, op)
						return
					}
					arg = uint32(addrToIndex[arg])
				}
				d.writef("\t\t%s %03d\t# %03d\n", op, arg, i)
			} else {
				d.writef("\t\t%s\t# %03d\n", op, i)
			}
		}
	}
}

func (d *dasm) program() {
	d.write("program:")
	d.write("\n")

	if len(d.p.Names) > 0 {
		d.write("\tnames:\n")
		for i, n := range d.p.Names {
			d.writef("\t\t%s\t# %03d\n", n, i)
		}
	}
	if len(d.p.Constants) > 0 {
		d.write("\tconstants:\n")
		for i, c := range d.p.Constants {
			switch c := c.(type) {
			case string:
				d.writef("\t\tstring\t%q\t# %03d\n", c, i)
			case int64:
				d.writef("\t\tint\t%d\t# %03d\n", c, i)
			case float64:
				d.writef("\t\tfloat\t%g\t# %03d\n", c, i)
			case bool:
				d.writef("\t\tbool\t%t\t# %03d\n", c, i)
			default:
				d.err = fmt.Errorf("unsupported constant type: %T", c)
				return
			}
		}
	}
	if len(d.p.Types) > 0 {
		d.write("\ttypes:\n")
		for i, t := range d.p.Types {
			d.writef("\t\t%d%s%s%s\t# %03d\n", t.Bits, flagSuffix(t.Signed, "signed"), flagSuffix(t.Float, "float"), flagSuffix(t.Pointer, "pointer"), i)
		}
	}
}

func flagSuffix(set bool, name string) string {
	if !set {
		return ""
	}
	return " " + name
}

func (d *dasm) writef(s string, args ...any) {
	d.write(fmt.Sprintf(s, args...))
}

func (d *dasm) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.buf.WriteString(s)
}
