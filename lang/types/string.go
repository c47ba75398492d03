package types

import "strconv"

// String is a string value, used for the narrow set of string-typed
// constants and syscall arguments build scripts deal with (namespace
// names, project/dependency identifiers, output filenames) — this
// interpreter has no general string-processing surface.
type String struct {
	V     string
	Taint Taint
}

func NewString(v string) String { return String{V: v} }

var (
	_ Value   = String{}
	_ Ordered = String{}
)

func (s String) String() string { return strconv.Quote(s.V) }
func (s String) Type() string   { return "string" }
func (s String) Truth() Bool    { return Bool{V: s.V != ""} }
func (s String) TaintOf() Taint { return s.Taint }

func (s String) WithTaint(t Taint) Value {
	s.Taint = CombineTaint(s.Taint, t)
	return s
}

func (s String) Cmp(y Value) (int, error) {
	t := y.(String)
	switch {
	case s.V < t.V:
		return -1, nil
	case s.V > t.V:
		return +1, nil
	default:
		return 0, nil
	}
}
