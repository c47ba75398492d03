package types

import "strings"

// Struct is an aggregate value, the runtime counterpart of an ir.StructLiteral
// (and of any struct-typed local the interpreter materializes wholesale
// rather than through individual ALLOCA/MEMBER/STORE steps).
type Struct struct {
	Fields []Value
	Taint  Taint
}

// NewStruct aggregates fields into a Struct. Per the taint propagation
// rule for aggregation (distinct from the OR rule binary operations use),
// the result carries the first tainted field's taint, not the union of
// all fields' taints.
func NewStruct(fields []Value) Struct {
	s := Struct{Fields: fields}
	for _, f := range fields {
		if t := f.TaintOf(); t != NoTaint {
			s.Taint = t
			break
		}
	}
	return s
}

var _ Value = Struct{}

func (s Struct) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.String())
	}
	b.WriteByte('}')
	return b.String()
}

func (s Struct) Type() string   { return "struct" }
func (s Struct) Truth() Bool    { return Bool{V: len(s.Fields) > 0} }
func (s Struct) TaintOf() Taint { return s.Taint }

func (s Struct) WithTaint(t Taint) Value {
	s.Taint = CombineTaint(s.Taint, t)
	return s
}
