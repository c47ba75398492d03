package cpp

import "github.com/dolthub/swiss"

// DefineKind distinguishes object-like from function-like macros (spec
// section 3, "Defines").
type DefineKind int8

const (
	ObjectMacro DefineKind = iota
	FunctionMacro
)

// Define is a single macro definition.
type Define struct {
	Name string
	Kind DefineKind

	// Body is the replacement-list tokens, valid for both kinds.
	Body []Token

	// Params and IsVariadic are only meaningful when Kind == FunctionMacro.
	Params     []string
	IsVariadic bool

	// hash uniquely identifies this particular Define value for hide-set
	// membership (spec section 4.1: "a Depleted set of already-used
	// define-hashes"). Two Defines with identical name/kind/body/params
	// produce the same hash, matching the intent that redefining a macro to
	// an identical body does not perturb hide-set behavior.
	hash uint64
}

// Hash returns d's hide-set identity.
func (d *Define) Hash() uint64 {
	if d.hash == 0 {
		d.hash = hashDefine(d)
	}
	return d.hash
}

func hashDefine(d *Define) uint64 {
	h := fnvOffset
	h = hashString(h, d.Name)
	h = hashByte(h, byte(d.Kind))
	for _, p := range d.Params {
		h = hashString(h, p)
	}
	if d.IsVariadic {
		h = hashByte(h, 1)
	}
	for _, t := range d.Body {
		h = hashString(h, t.Text)
		h = hashByte(h, byte(t.Kind))
	}
	return h
}

const fnvOffset = 14695981039346656037
const fnvPrime = 1099511628211

func hashString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func hashByte(h uint64, b byte) uint64 {
	h ^= uint64(b)
	h *= fnvPrime
	return h
}

// Environment is the preprocessor's name -> Define mapping (spec section 3).
// It must iterate in insertion order for deterministic `#if defined(...)`
// and re-expansion behavior, so lookups go through a string-keyed
// swiss.Map while order is tracked separately.
type Environment struct {
	byName *swiss.Map[string, *Define]
	order  []string
}

// NewEnvironment creates an empty macro environment.
func NewEnvironment() *Environment {
	return &Environment{byName: swiss.NewMap[string, *Define](64)}
}

// Define installs (or replaces) a macro definition.
func (e *Environment) Define(d *Define) {
	if _, ok := e.byName.Get(d.Name); !ok {
		e.order = append(e.order, d.Name)
	}
	e.byName.Put(d.Name, d)
}

// Undef removes a macro definition, if present.
func (e *Environment) Undef(name string) {
	if _, ok := e.byName.Get(name); !ok {
		return
	}
	e.byName.Delete(name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the Define for name, or (nil, false).
func (e *Environment) Lookup(name string) (*Define, bool) {
	return e.byName.Get(name)
}

// Names returns the defined macro names in insertion order.
func (e *Environment) Names() []string {
	return e.order
}

// Clone produces an independent copy of the environment, used when the
// constant-expression parser for #if needs to inject operators mid-
// expression without perturbing the surrounding environment (spec section
// 4.1: "It must be re-parsed per environment because macros can inject
// operators mid-expression").
func (e *Environment) Clone() *Environment {
	c := NewEnvironment()
	for _, n := range e.order {
		d, _ := e.byName.Get(n)
		c.Define(d)
	}
	return c
}
