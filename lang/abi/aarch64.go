package abi

import (
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// AArch64Variant selects which of the four AArch64 ABI flavors spec
// section 4.7 names classifies a signature.
type AArch64Variant int

const (
	DarwinPCS AArch64Variant = iota
	Win64Variant
	Aapcs
	AapcsSoft
)

// aarch64VariantFor picks a variant from target the same way Classify
// picks a platform: by triple substring (tripleContains), falling back
// to the standard Linux AAPCS (spec section 6's triplet convention
// gives no dedicated "abi variant" field of its own, so this inspects
// only the Triple field targetcfg.Target already exposes rather than
// inventing a new one).
func aarch64VariantFor(target targetcfg.Target) AArch64Variant {
	switch {
	case tripleContains(target, "darwin") || tripleContains(target, "macos") || tripleContains(target, "ios"):
		return DarwinPCS
	case tripleContains(target, "windows"):
		return Win64Variant
	case tripleContains(target, "softfloat") || tripleContains(target, "eabi"):
		return AapcsSoft
	default:
		return Aapcs
	}
}

// classifyAArch64 implements the four AArch64 ABI variants (spec
// section 4.7), grounded on
// original_source/src/components/build_llvm_ir/src/abi/arch/aarch64.rs's
// own void/promotable-integer/small-aggregate-coercion/homogeneous-
// aggregate passage.
func classifyAArch64(g *asg.Graph, params []asg.Type, ret asg.Type, target targetcfg.Target) (*ABIFunction, error) {
	variant := aarch64VariantFor(target)
	softFloat := variant == AapcsSoft

	classifyOne := func(t asg.Type) (ABIParam, error) {
		if p, ok := itaniumBase(g, t, target); ok {
			return p, nil
		}

		if !isAggregate(t) {
			l, err := SizeAlign(g, t, target)
			if err != nil {
				return ABIParam{}, err
			}
			if isPromotableIntegerType(t) {
				if variant == DarwinPCS {
					return NewExtend(smallestIntCovering(l.Size), isSignedIntegerType(t)), nil
				}
				return NewDirect(smallestIntCovering(l.Size)), nil
			}
			if isFloatingOnly(t) {
				return NewDirect(Float(int(l.Size) * 8)), nil
			}
			return NewDirect(Int(int(l.Size) * 8)), nil
		}

		l, err := SizeAlign(g, t, target)
		if err != nil {
			return ABIParam{}, err
		}

		if bits, isFloat, n, ok := homogeneousAggregate(g, t, target, softFloat); ok && isFloat {
			return NewDirect(Array(Float(bits), n)), nil
		} else if ok && bits >= 64 {
			// homogeneous integer/pointer aggregate of 8- or 16-byte
			// members: spec section 4.7's "8/16-byte vectors pass
			// Direct" generalized to this language's lack of a true
			// vector type (see win64.go's matching note).
			return NewDirect(Array(Int(bits), n)), nil
		}

		if l.Size <= 8 {
			return NewDirect(smallestIntCovering(l.Size)), nil
		}
		if l.Size <= 16 && l.Align < 16 {
			n := (l.Size + 7) / 8
			return NewDirect(Array(Int(64), int(n))), nil
		}
		return NewIndirect(int(l.Align), true), nil
	}

	ret1, err := classifyOne(ret)
	if err != nil {
		return nil, err
	}
	out := make([]ABIParam, len(params))
	for i, p := range params {
		classified, err := classifyOne(p)
		if err != nil {
			return nil, err
		}
		out[i] = classified
	}
	return &ABIFunction{Params: out, Return: ret1}, nil
}
