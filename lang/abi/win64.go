package abi

import (
	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// classifyWin64 implements the x86-64 Win64 ABI (spec section 4.7),
// grounded on
// original_source/src/components/job/src/build_llvm_ir/abi/arch/x86_64/win64/mod.rs's
// own aggregate-without-trivial-copy / homogeneous-aggregate /
// vectorcall-reclassification passage.
func classifyWin64(g *asg.Graph, params []asg.Type, ret asg.Type, target targetcfg.Target, conv targetcfg.CallingConvention) (*ABIFunction, error) {
	regCall := conv == targetcfg.ConvRegCall
	vectorcall := conv == targetcfg.ConvVectorCall

	classifyOne := func(t asg.Type) (ABIParam, error) {
		if p, ok := itaniumBase(g, t, target); ok {
			return p, nil
		}
		if _, isBool := t.(asg.Boolean); isBool {
			return NewExtend(Int(8), false), nil
		}
		if isFloatingOnly(t) {
			l, err := SizeAlign(g, t, target)
			if err != nil {
				return ABIParam{}, err
			}
			return NewDirect(Float(int(l.Size) * 8)), nil
		}
		if !isAggregate(t) {
			l, err := SizeAlign(g, t, target)
			if err != nil {
				return ABIParam{}, err
			}
			if isPromotableIntegerType(t) {
				return NewExtend(smallestIntCovering(l.Size), isSignedIntegerType(t)), nil
			}
			return NewDirect(Int(int(l.Size) * 8)), nil
		}

		// aggregate, and (per nonTrivialForCall's doc comment) always
		// trivially copyable in this language, so it never hits the
		// Itanium base's indirect-byval rule above.
		if _, _, _, ok := homogeneousAggregate(g, t, target, false); ok {
			if regCall {
				return NewExpand(), nil
			}
			l, err := SizeAlign(g, t, target)
			if err != nil {
				return ABIParam{}, err
			}
			return NewDirect(smallestIntCovering(l.Size)), nil
		}

		l, err := SizeAlign(g, t, target)
		if err != nil {
			return ABIParam{}, err
		}
		switch l.Size {
		case 1, 2, 4, 8:
			return NewDirect(smallestIntCovering(l.Size)), nil
		default:
			return NewIndirect(int(l.Align), true), nil
		}
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

	if vectorcall {
		win64VectorcallReclassify(g, params, out, target)
	}

	return &ABIFunction{Params: out, Return: ret1}, nil
}

// win64VectorcallReclassify implements spec section 4.7's "Vectorcall
// has a reclassification pass that converts qualifying homo-vector
// aggregates to Direct{can_be_flattened=false, in_register=true}". This
// language's type system has no vector type (only Floating scalars and
// aggregates of them), so the qualifying shape here is a homogeneous
// floating-point aggregate rather than a homogeneous-vector one; the
// pass still runs as a distinct second step over the already-
// classified params, matching the original two-pass structure, rather
// than folding the reclassification into classifyOne's own float-
// aggregate branch.
func win64VectorcallReclassify(g *asg.Graph, params []asg.Type, out []ABIParam, target targetcfg.Target) {
	for i, t := range params {
		bits, isFloat, _, ok := homogeneousAggregate(g, t, target, false)
		if !ok || !isFloat {
			continue
		}
		out[i] = ABIParam{
			Kind:           Direct,
			CoerceTo:       Float(bits),
			CanBeFlattened: false,
			InRegister:     true,
		}
	}
}
