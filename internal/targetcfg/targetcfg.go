// Package targetcfg loads the Target description consumed by lang/abi and
// lang/types: the triplet, endianness, pointer width and the
// CIntegerAssumptions that the C integer loose-type lattice (spec section
// 4.1/4.4, CInteger) resolves against. Two loading paths are supported:
// environment overrides via github.com/caarlos0/env/v6, and a
// target-description file via gopkg.in/yaml.v3.
package targetcfg

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Endianness of a target.
type Endianness string

const (
	LittleEndian Endianness = "little"
	BigEndian    Endianness = "big"
)

// CallingConvention names the default calling convention a target's ABI
// classifier lowers to absent an explicit annotation (spec section 6:
// "Calling conventions named C, Win64, VectorCall, RegCall").
type CallingConvention string

const (
	ConvC         CallingConvention = "c"
	ConvWin64     CallingConvention = "win64"
	ConvVectorCall CallingConvention = "vectorcall"
	ConvRegCall   CallingConvention = "regcall"
)

// CIntegerAssumptions records, per C integer rank, the bit width a target
// assumes (spec section 4.4, "Integer-like unification" / CInteger). A rank
// left at zero falls back to the LP64 width Bits reports for it.
type CIntegerAssumptions struct {
	Char     int `yaml:"char" env:"ADEPTC_CINT_CHAR" envDefault:"8"`
	Short    int `yaml:"short" env:"ADEPTC_CINT_SHORT" envDefault:"16"`
	Int      int `yaml:"int" env:"ADEPTC_CINT_INT" envDefault:"32"`
	Long     int `yaml:"long" env:"ADEPTC_CINT_LONG" envDefault:"64"`
	LongLong int `yaml:"long_long" env:"ADEPTC_CINT_LONGLONG" envDefault:"64"`
}

// Target is the full description of a compilation target.
type Target struct {
	Triple            string            `yaml:"triple" env:"ADEPTC_TARGET_TRIPLE" envDefault:"x86_64-unknown-linux-gnu"`
	Endian            Endianness        `yaml:"endian" env:"ADEPTC_TARGET_ENDIAN" envDefault:"little"`
	PointerWidth      int               `yaml:"pointer_width" env:"ADEPTC_TARGET_POINTER_WIDTH" envDefault:"64"`
	DefaultConvention CallingConvention `yaml:"default_convention" env:"ADEPTC_TARGET_CONVENTION" envDefault:"c"`
	CInteger          CIntegerAssumptions `yaml:"cinteger"`

	// DontAssumeIntAtLeast32Bits mirrors the interpreter syscall of the same
	// name (spec section 4.6): when true, build-script code cannot assume
	// int is at least 32 bits wide when reasoning about host-vs-target
	// sizeof taint.
	DontAssumeIntAtLeast32Bits bool `yaml:"dont_assume_int_at_least_32_bits"`
}

// Default returns the SysV x86-64 default target, used whenever no override
// file or environment variable is supplied.
func Default() Target {
	var t Target
	_ = env.Parse(&t)
	return t
}

// LoadFile parses a target-description YAML file, falling back to Default's
// field values for anything the file omits.
func LoadFile(path string) (Target, error) {
	t := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Target{}, fmt.Errorf("read target config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Target{}, fmt.Errorf("parse target config %s: %w", path, err)
	}
	return t, nil
}

// LoadEnv starts from base and then applies any ADEPTC_TARGET_*/
// ADEPTC_CINT_* environment variable overrides on top of it, useful for CI pipelines that need to tweak one field of an
// otherwise file-defined target.
func LoadEnv(base Target) (Target, error) {
	t := base
	if err := env.Parse(&t); err != nil {
		return Target{}, fmt.Errorf("parse target env overrides: %w", err)
	}
	return t, nil
}

// Bits returns the assumed bit width for rank, defaulting to the LP64 width
// (char 8, short 16, int 32, long and long long 64) if the target's
// assumptions table has a zero entry.
func (c CIntegerAssumptions) Bits(rank string) int {
	switch rank {
	case "char":
		return orDefault(c.Char, 8)
	case "short":
		return orDefault(c.Short, 16)
	case "int":
		return orDefault(c.Int, 32)
	case "long":
		return orDefault(c.Long, 64)
	case "longlong":
		return orDefault(c.LongLong, 64)
	default:
		panic("targetcfg: unknown C integer rank " + rank)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
