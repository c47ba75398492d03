package types

import "fmt"

// Float is a floating point value, Bits is either 32 or 64.
type Float struct {
	V     float64
	Bits  int
	Taint Taint
}

func NewFloat(v float64, bits int) Float { return Float{V: v, Bits: bits} }

var (
	_ Value   = Float{}
	_ Ordered = Float{}
)

func (f Float) String() string { return fmt.Sprintf("%g", f.V) }
func (f Float) Type() string   { return "float" }
func (f Float) Truth() Bool    { return Bool{V: f.V != 0} }
func (f Float) TaintOf() Taint { return f.Taint }

func (f Float) WithTaint(t Taint) Value {
	f.Taint = CombineTaint(f.Taint, t)
	return f
}

// Cmp performs a three-valued comparison on floats, which are totally
// ordered with NaN > +Inf for this purpose.
func (f Float) Cmp(y Value) (int, error) {
	g := y.(Float)
	switch {
	case f.V > g.V:
		return +1, nil
	case f.V < g.V:
		return -1, nil
	case f.V == g.V:
		return 0, nil
	}
	// At least one operand is NaN.
	if f.V == f.V {
		return -1, nil // g is NaN
	} else if g.V == g.V {
		return +1, nil // f is NaN
	}
	return 0, nil // both NaN
}
