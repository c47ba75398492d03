package resolver

import (
	"fmt"

	"github.com/mna/adeptc/lang/asg"
	"github.com/mna/adeptc/lang/ast"
	"github.com/mna/adeptc/lang/query"
	"github.com/mna/adeptc/lang/token"
)

// TypeRefReq is the query engine request for spec section 4.4's
// "resolve type references" job: lower one ast.Type to its asg.Type
// form. It is Pure: given the same Graph contents (tracked externally
// by the engine's revision clock invalidating on declaration changes),
// re-running it always produces the same artifact.
type TypeRefReq struct {
	Graph *asg.Graph
	Expr  ast.Type
	// Site disambiguates two otherwise-identical type expressions parsed
	// at different source locations (e.g. two occurrences of `i32`),
	// since Req.Key must be stable and unique per logical request.
	Site string
}

func (r TypeRefReq) Key() string {
	return fmt.Sprintf("typeref:%s:%p", r.Site, r.Expr)
}

func (r TypeRefReq) Pure() bool { return true }

func (r TypeRefReq) Run(eng *query.Engine) query.Result {
	t, err := ResolveTypeExpr(r.Graph, r.Expr)
	if err != nil {
		return query.Result{Err: err}
	}
	return query.Result{Artifact: t}
}

// FuncHeadReq is the "resolve function heads" job (spec section 4.4):
// lower one ast.FuncSignature to an asg.FuncDecl with no body, so
// overload resolution can see every signature before any body
// resolution job runs (the job graph's dependency edges, not source
// order, is what guarantees heads-before-bodies).
type FuncHeadReq struct {
	Graph *asg.Graph
	Decl  *ast.FuncDecl
}

func (r FuncHeadReq) Key() string { return fmt.Sprintf("funchead:%p", r.Decl) }

func (r FuncHeadReq) Pure() bool { return true }

func (r FuncHeadReq) Run(eng *query.Engine) query.Result {
	sig := r.Decl.Sig

	typeParams := make([]string, len(sig.TypeParams))
	for i, tp := range sig.TypeParams {
		typeParams[i] = tp.Name
	}

	params := make([]asg.Param, len(sig.Params))
	for i, p := range sig.Params {
		pt, err := ResolveTypeExpr(r.Graph, p.Type)
		if err != nil {
			return query.Result{Err: err}
		}
		params[i] = asg.Param{Name: p.Name.Name, Type: pt}
	}

	var ret asg.Type = asg.Void{}
	if sig.Return != nil {
		rt, err := ResolveTypeExpr(r.Graph, sig.Return)
		if err != nil {
			return query.Result{Err: err}
		}
		ret = rt
	}

	privacy := asg.Private
	if r.Decl.Vis == token.PUB {
		privacy = asg.Public
	}

	decl := asg.FuncDecl{
		Source:     r.Decl.Start,
		Name:       sig.Name.Name,
		Privacy:    privacy,
		TypeParams: typeParams,
		Params:     params,
		Variadic:   sig.Variadic,
		Return:     ret,
	}
	return query.Result{Artifact: decl}
}
