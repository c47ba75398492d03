package abi

import (
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
)

// ABIFunction is a classified function signature (spec section 4.7):
// one ABIParam per parameter plus one for the return value.
type ABIFunction struct {
	Params []ABIParam
	Return ABIParam

	// InallocaCombinedStruct holds the field list of the caller-
	// allocated frame struct when any parameter classified InAlloca
	// (Win64's explicit-stack-frame convention); nil otherwise.
	InallocaCombinedStruct []CoerceType

	// HeadMaxVectorWidth is the widest vector width seen among the
	// leading homogeneous-aggregate parameters, the same
	// "head_max_vector_width" field spec section 4.7's ABIFunction
	// shape names; always 0 here since this language's type system has
	// no vector type for any parameter to contribute one.
	HeadMaxVectorWidth int
}

// Classify produces params' and ret's ABIFunction under target and
// conv, dispatching to the platform layer the target's triple/
// convention select (spec section 4.7: "Itanium base... the four
// platform layers classify further"). A type containing Unresolved or
// Polymorph, or any other shape SizeAlign can't lay out, is reported
// as an internal assert (spec section 7, "ABI / backend: unsupported
// type category... record layout overflow") since by the time a
// signature reaches the classifier, resolution and monomorphization
// must already have settled every type to a concrete shape.
func Classify(g *asg.Graph, params []asg.Type, ret asg.Type, target targetcfg.Target, conv targetcfg.CallingConvention) (*ABIFunction, error) {
	for _, p := range params {
		if err := checkClassifiable(p); err != nil {
			return nil, err
		}
	}
	if err := checkClassifiable(ret); err != nil {
		return nil, err
	}

	arch := archOf(target)
	switch {
	case arch == "aarch64" || arch == "arm64":
		return classifyAArch64(g, params, ret, target)
	case arch == "x86_64" && (conv == targetcfg.ConvWin64 || conv == targetcfg.ConvVectorCall || conv == targetcfg.ConvRegCall) && tripleContains(target, "windows"):
		return classifyWin64(g, params, ret, target, conv)
	case arch == "x86_64" && tripleContains(target, "windows"):
		return classifyWin64(g, params, ret, target, targetcfg.ConvWin64)
	case arch == "x86_64":
		return classifySysV(g, params, ret, target, conv == targetcfg.ConvRegCall)
	default:
		return nil, fmt.Errorf("abi: unsupported target architecture %q", arch)
	}
}

func checkClassifiable(t asg.Type) error {
	switch v := t.(type) {
	case asg.Unresolved:
		return fmt.Errorf("abi: internal error: Unresolved type reached the classifier")
	case asg.Polymorph:
		return fmt.Errorf("abi: internal error: unsubstituted polymorphic type $%s reached the classifier", v.Name)
	case asg.IntegerLiteral, asg.IntegerLiteralInRange, asg.FloatLiteral:
		return fmt.Errorf("abi: internal error: un-conformed literal type %s reached the classifier", t)
	case asg.Never:
		return fmt.Errorf("abi: internal error: Never type reached the classifier")
	case asg.TraitRef:
		return fmt.Errorf("abi: unsupported type category: bare trait reference %s has no concrete layout", t)
	}
	switch asg.Classify(t) {
	case asg.UnresolvedState:
		return fmt.Errorf("abi: internal error: type %s containing Unresolved reached the classifier", t)
	case asg.Polymorphic:
		return fmt.Errorf("abi: internal error: type %s containing an unsubstituted polymorph reached the classifier", t)
	}
	return nil
}
