package types

// Undefined is the marker value of a local or memory cell that has been
// allocated but never stored to. Reading one is a usage error the
// interpreter reports rather than a zero value, so uninitialized reads
// can't silently masquerade as a legitimate zero/false/nil.
type Undefined struct{ Taint Taint }

var undefined = Undefined{}

func NewUndefined() Undefined { return undefined }

var _ Value = Undefined{}

func (Undefined) String() string { return "<undefined>" }
func (Undefined) Type() string   { return "undefined" }
func (Undefined) Truth() Bool    { return False }
func (u Undefined) TaintOf() Taint { return u.Taint }

func (u Undefined) WithTaint(t Taint) Value {
	u.Taint = CombineTaint(u.Taint, t)
	return u
}
