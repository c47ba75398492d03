package cfg

import (
	"errors"
	"fmt"

	"github.com/mna/adeptc/internal/targetcfg"
	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/typesys"
)

// ErrJoinInputsDisagree is returned by ResolveJoin when Conform is
// ConformNone and the incoming types are not identical.
var ErrJoinInputsDisagree = errors.New("cfg: join inputs disagree and node has no conform behavior")

// ResolveJoin computes a JoinN (or Join1) Sequential node's ResultType
// from its incoming edges' value nodes, per spec section 3: a join's
// result type is the unifying type of incoming values under the node's
// conform behavior. ConformNone requires every input to already agree
// (the builder used it because the join is known to be type-stable,
// e.g. a loop back-edge joining a variable with itself);
// ConformToCommonType calls into lang/typesys.Unify, the same table a
// conditional expression's phi uses.
func (g *Graph) ResolveJoin(ix NodeIdx, target targetcfg.Target) (asg.Type, error) {
	n, ok := g.Get(ix).(*SequentialNode)
	if !ok {
		return nil, fmt.Errorf("cfg: ResolveJoin called on non-Sequential node %v", ix)
	}

	var inputTypes []asg.Type
	switch n.Kind {
	case Join1Kind:
		ref, ok := g.Get(n.Join1Ref).(*SequentialNode)
		if !ok {
			return nil, fmt.Errorf("cfg: Join1 node %v has no Sequential operand", ix)
		}
		inputTypes = []asg.Type{ref.ResultType}
	case JoinNKind:
		inputTypes = make([]asg.Type, 0, len(n.JoinInputs))
		for _, in := range n.JoinInputs {
			ref, ok := g.Get(in.Ref).(*SequentialNode)
			if !ok {
				return nil, fmt.Errorf("cfg: JoinN input %v at position %d has no Sequential operand", in.Ref, in.Position)
			}
			inputTypes = append(inputTypes, ref.ResultType)
		}
	default:
		return nil, fmt.Errorf("cfg: ResolveJoin called on non-join Sequential node kind %s", n.Kind)
	}

	if n.Conform == ConformNone {
		for _, t := range inputTypes[1:] {
			if t.String() != inputTypes[0].String() {
				return nil, ErrJoinInputsDisagree
			}
		}
		return inputTypes[0], nil
	}

	return typesys.Unify(target, inputTypes...)
}
