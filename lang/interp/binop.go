package interp

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/mna/adeptc/lang/compiler"
	"github.com/mna/adeptc/lang/ir"
	"github.com/mna/adeptc/lang/types"
)

// foldCommon folds the arithmetic opcodes intArith and floatArith
// agree on bit-for-bit (PLUS/MINUS/STAR; SLASH and the integer-only
// bitwise/shift opcodes diverge too much between T's kinds to share a
// generic body) over a and b, returning ok=false for any other opcode
// so the caller falls through to its own kind-specific switch.
func foldCommon[T constraints.Integer | constraints.Float](op compiler.Opcode, a, b T) (T, bool) {
	switch op {
	case compiler.PLUS:
		return a + b, true
	case compiler.MINUS:
		return a - b, true
	case compiler.STAR:
		return a * b, true
	default:
		var zero T
		return zero, false
	}
}

// constantValue lifts one of Program.Constants' untyped Go values (the
// int64/float64/bool/string CONSTANT's operand indexes into) to its
// types.Value counterpart. The bytecode itself carries no width for a
// literal (lang/compiler's internConstant stores the raw Go value
// unadorned), so a literal starts life as a plain 64-bit/default-signed
// value and is narrowed by a later EXTEND/TRUNCATE/BITCAST if the
// program needs it at a smaller width.
func constantValue(v any) types.Value {
	switch x := v.(type) {
	case int64:
		return types.NewInt(x, 64, true)
	case float64:
		return types.NewFloat(x, 64)
	case bool:
		return types.Bool{V: x}
	case string:
		return types.NewString(x)
	default:
		return types.NewUndefined()
	}
}

func asInt(v types.Value) (int, error) {
	i, ok := v.(types.Int)
	if !ok {
		return 0, fmt.Errorf("interp: expected an integer value, got %s", v.Type())
	}
	return int(i.V), nil
}

// compareValues implements the LT..NEQ comparison opcodes, which share
// Opcode's token.Token-derived ordering (lang/compiler's opcode.go) so
// that op - compiler.LT recovers the same 0..5 index a token.Token's
// LT..NEQ range would.
func compareValues(op compiler.Opcode, x, y types.Value) (types.Value, error) {
	if op == compiler.EQL || op == compiler.NEQ {
		eq, err := equalValues(x, y)
		if err != nil {
			return nil, err
		}
		if op == compiler.NEQ {
			eq = !eq
		}
		return types.Bool{V: eq}, nil
	}

	ox, ok := x.(types.Ordered)
	if !ok {
		return nil, fmt.Errorf("interp: %s is not ordered", x.Type())
	}
	c, err := ox.Cmp(y)
	if err != nil {
		return nil, err
	}
	var result bool
	switch op {
	case compiler.LT:
		result = c < 0
	case compiler.GT:
		result = c > 0
	case compiler.GE:
		result = c >= 0
	case compiler.LE:
		result = c <= 0
	default:
		return nil, fmt.Errorf("interp: unsupported comparison opcode %s", op)
	}
	return types.Bool{V: result}, nil
}

func equalValues(x, y types.Value) (bool, error) {
	switch a := x.(type) {
	case types.Int:
		b, ok := y.(types.Int)
		return ok && a.V == b.V, nil
	case types.Float:
		b, ok := y.(types.Float)
		return ok && a.V == b.V, nil
	case types.Bool:
		b, ok := y.(types.Bool)
		return ok && a.V == b.V, nil
	case types.String:
		b, ok := y.(types.String)
		return ok && a.V == b.V, nil
	case types.Pointer:
		b, ok := y.(types.Pointer)
		return ok && a.Addr == b.Addr && pathsEqual(a.Path, b.Path), nil
	case types.Undefined:
		_, ok := y.(types.Undefined)
		return ok, nil
	default:
		return false, fmt.Errorf("interp: %s is not comparable", x.Type())
	}
}

func pathsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// binArith implements the PLUS..GTGT arithmetic/bitwise opcodes. The
// operand kinds themselves (types.Int vs types.Float) select the
// operation, since lang/compiler's BinOp lowering folds token and
// operand kind into the same generic opcode rather than one opcode per
// (token, kind) pair.
func binArith(op compiler.Opcode, x, y types.Value) (types.Value, error) {
	switch a := x.(type) {
	case types.Int:
		b, ok := y.(types.Int)
		if !ok {
			return nil, fmt.Errorf("interp: mismatched operand kinds %s and %s", x.Type(), y.Type())
		}
		return intArith(op, a, b)
	case types.Float:
		b, ok := y.(types.Float)
		if !ok {
			return nil, fmt.Errorf("interp: mismatched operand kinds %s and %s", x.Type(), y.Type())
		}
		return floatArith(op, a, b)
	case types.Pointer:
		// pointer + integer offset, the runtime counterpart of C-style
		// pointer arithmetic on an array element.
		b, ok := y.(types.Int)
		if !ok || op != compiler.PLUS {
			return nil, fmt.Errorf("interp: unsupported pointer arithmetic with %s", y.Type())
		}
		return a.WithPathStep(int(b.V)), nil
	default:
		return nil, fmt.Errorf("interp: unsupported operand kind %s for arithmetic", x.Type())
	}
}

func intArith(op compiler.Opcode, a, b types.Int) (types.Value, error) {
	bits, signed := a.Bits, a.Signed
	if b.Bits > bits {
		bits = b.Bits
	}
	v, ok := foldCommon(op, a.V, b.V)
	if !ok {
		switch op {
		case compiler.SLASH:
			if b.V == 0 {
				return nil, fmt.Errorf("interp: integer division by zero")
			}
			v = a.V / b.V
		case compiler.PERCENT:
			if b.V == 0 {
				return nil, fmt.Errorf("interp: integer division by zero")
			}
			v = a.V % b.V
		case compiler.AMPERSAND:
			v = a.V & b.V
		case compiler.PIPE:
			v = a.V | b.V
		case compiler.CIRCUMFLEX:
			v = a.V ^ b.V
		case compiler.LTLT:
			v = a.V << uint(b.V)
		case compiler.GTGT:
			v = a.V >> uint(b.V)
		default:
			return nil, fmt.Errorf("interp: unsupported integer opcode %s", op)
		}
	}
	return types.NewInt(v, bits, signed).WithTaint(types.CombineTaint(a.TaintOf(), b.TaintOf())), nil
}

func floatArith(op compiler.Opcode, a, b types.Float) (types.Value, error) {
	bits := a.Bits
	if b.Bits > bits {
		bits = b.Bits
	}
	v, ok := foldCommon(op, a.V, b.V)
	if !ok {
		switch op {
		case compiler.SLASH:
			v = a.V / b.V
		default:
			return nil, fmt.Errorf("interp: unsupported float opcode %s", op)
		}
	}
	return types.NewFloat(v, bits).WithTaint(types.CombineTaint(a.TaintOf(), b.TaintOf())), nil
}

// unaryOp implements NEGATE/BITCOMPLEMENT/ISZERO/ISNONZERO.
func unaryOp(op compiler.Opcode, x types.Value) (types.Value, error) {
	switch op {
	case compiler.ISZERO:
		return types.Bool{V: !x.Truth().V}.WithTaint(x.TaintOf()), nil
	case compiler.ISNONZERO:
		return types.Bool{V: x.Truth().V}.WithTaint(x.TaintOf()), nil
	}

	switch a := x.(type) {
	case types.Int:
		switch op {
		case compiler.NEGATE:
			return types.NewInt(-a.V, a.Bits, a.Signed).WithTaint(a.TaintOf()), nil
		case compiler.BITCOMPLEMENT:
			return types.NewInt(^a.V, a.Bits, a.Signed).WithTaint(a.TaintOf()), nil
		}
	case types.Float:
		if op == compiler.NEGATE {
			return types.NewFloat(-a.V, a.Bits).WithTaint(a.TaintOf()), nil
		}
	}
	return nil, fmt.Errorf("interp: unsupported unary opcode %s on %s", op, x.Type())
}

// sizeOf answers SIZEOF's query for rt under mode. The interpreter has
// no target ABI of its own to consult (that's lang/abi's job, applied
// after compilation), so every mode that can be resolved here reports
// rt's own declared width under the compilation host's representation:
//
//   - Unspecified (`sizeof<T>`, no mode written): resolved here as a
//     fallback, but tainted ByCompilationHostSizeof since the value may
//     silently differ from the eventual target's real sizeof.
//   - Compilation (`sizeof<"compilation", T>`): the same value, but an
//     explicit opt-in, so it is returned untainted.
//   - Target (`sizeof<"target", T>`): rejected; this interpreter cannot
//     answer for a target it isn't compiling for.
func sizeOf(rt compiler.RuntimeType, mode ir.SizeOfMode) (types.Value, error) {
	if mode == ir.Target {
		return nil, ErrSizeOfTarget
	}
	bytes := (rt.Bits + 7) / 8
	var v types.Value = types.NewInt(int64(bytes), 64, false)
	if mode == ir.Unspecified {
		v = v.WithTaint(types.TaintByCompilationHostSizeof)
	}
	return v, nil
}

// convert implements the nine EXTEND..TRUNCATEFLOAT conversion opcodes,
// each retargeting x to the RuntimeType rt describes.
func convert(op compiler.Opcode, x types.Value, rt compiler.RuntimeType) (types.Value, error) {
	switch op {
	case compiler.EXTEND, compiler.TRUNCATE:
		i, ok := x.(types.Int)
		if !ok {
			return nil, fmt.Errorf("interp: %s on non-integer value %s", op, x.Type())
		}
		return types.NewInt(i.V, rt.Bits, rt.Signed).WithTaint(i.TaintOf()), nil

	case compiler.BITCAST:
		switch a := x.(type) {
		case types.Int:
			if rt.Float {
				return types.NewFloat(float64(a.V), rt.Bits).WithTaint(a.TaintOf()), nil
			}
			return types.Int{V: a.V, Bits: rt.Bits, Signed: rt.Signed, Taint: a.TaintOf()}, nil
		case types.Float:
			return types.Float{V: a.V, Bits: rt.Bits, Taint: a.TaintOf()}, nil
		case types.Pointer:
			return a, nil
		default:
			return nil, fmt.Errorf("interp: bitcast of unsupported value %s", x.Type())
		}

	case compiler.INTTOPTR:
		i, ok := x.(types.Int)
		if !ok {
			return nil, fmt.Errorf("interp: inttoptr on non-integer value %s", x.Type())
		}
		return types.Pointer{Addr: uint64(i.V), Taint: i.TaintOf()}, nil

	case compiler.PTRTOINT:
		p, ok := x.(types.Pointer)
		if !ok {
			return nil, fmt.Errorf("interp: ptrtoint on non-pointer value %s", x.Type())
		}
		return types.NewInt(int64(p.Addr), rt.Bits, rt.Signed).WithTaint(p.TaintOf()), nil

	case compiler.FLOATTOINT:
		f, ok := x.(types.Float)
		if !ok {
			return nil, fmt.Errorf("interp: floattoint on non-float value %s", x.Type())
		}
		return types.NewInt(int64(f.V), rt.Bits, rt.Signed).WithTaint(f.TaintOf()), nil

	case compiler.INTTOFLOAT:
		i, ok := x.(types.Int)
		if !ok {
			return nil, fmt.Errorf("interp: inttofloat on non-integer value %s", x.Type())
		}
		return types.NewFloat(float64(i.V), rt.Bits).WithTaint(i.TaintOf()), nil

	case compiler.FLOATEXTEND, compiler.TRUNCATEFLOAT:
		f, ok := x.(types.Float)
		if !ok {
			return nil, fmt.Errorf("interp: %s on non-float value %s", op, x.Type())
		}
		return types.NewFloat(f.V, rt.Bits).WithTaint(f.TaintOf()), nil

	default:
		return nil, fmt.Errorf("interp: unsupported conversion opcode %s", op)
	}
}
