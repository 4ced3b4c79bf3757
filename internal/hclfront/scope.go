package hclfront

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/restype"
	"github.com/harwell/strata/internal/token"
)

// deferredBox carries a token through expression evaluation.
type deferredBox struct {
	tok token.Token
}

// deferredType is the capsule type for values that are unknown until
// deployment. Capsule values pass through object lookups and collection
// constructors untouched, and fail loudly when an expression tries to
// force them into a concrete value.
var deferredType = cty.Capsule("deferred", reflect.TypeOf(deferredBox{}))

func deferredVal(t token.Token) cty.Value {
	return cty.CapsuleVal(deferredType, &deferredBox{tok: t})
}

func deferredFromVal(v cty.Value) (token.Token, bool) {
	if v.Type().Equals(deferredType) && !v.IsNull() {
		return v.EncapsulatedValue().(*deferredBox).tok, true
	}
	return nil, false
}

// scope holds the evaluation material shared by every stack of one build:
// per-stack resource objects, parameter objects, and the context values.
type scope struct {
	// resources maps stack name to resource name to its attribute object.
	resources map[string]map[string]cty.Value
	// params maps stack name to parameter name to its reference token.
	params map[string]map[string]cty.Value
	// contextVals is shared by every stack.
	contextVals cty.Value
}

func newScope(contextValues map[string]string) *scope {
	ctxAttrs := make(map[string]cty.Value, len(contextValues))
	for k, v := range contextValues {
		ctxAttrs[k] = cty.StringVal(v)
	}
	contextVal := cty.EmptyObjectVal
	if len(ctxAttrs) > 0 {
		contextVal = cty.ObjectVal(ctxAttrs)
	}
	return &scope{
		resources:   make(map[string]map[string]cty.Value),
		params:      make(map[string]map[string]cty.Value),
		contextVals: contextVal,
	}
}

// addResource publishes a resource's attribute object into the scope.
// Every declared attribute becomes a reference token, plus Ref for the
// primary value.
func (s *scope) addResource(stackName string, res *construct.Resource, rt *restype.Type) {
	attrs := map[string]cty.Value{
		"Ref": deferredVal(token.NewReference(res, "")),
	}
	for _, a := range rt.Attributes {
		attrs[a] = deferredVal(token.NewReference(res, a))
	}
	byName := s.resources[stackName]
	if byName == nil {
		byName = make(map[string]cty.Value)
		s.resources[stackName] = byName
	}
	byName[res.Node().ID()] = cty.ObjectVal(attrs)
}

func (s *scope) addParameter(stackName string, p *construct.Parameter) {
	byName := s.params[stackName]
	if byName == nil {
		byName = make(map[string]cty.Value)
		s.params[stackName] = byName
	}
	byName[p.Node().ID()] = deferredVal(token.NewReference(p, ""))
}

// evalContext builds the expression scope for one stack. The stack's own
// resources and parameters are addressable directly; every stack's
// resources are also reachable through the stack.<name> object so
// references can cross boundaries.
func (s *scope) evalContext(stackName string, locals map[string]cty.Value) *hcl.EvalContext {
	vars := map[string]cty.Value{
		"context": s.contextVals,
	}

	if own := s.resources[stackName]; len(own) > 0 {
		vars["resource"] = cty.ObjectVal(own)
	} else {
		vars["resource"] = cty.EmptyObjectVal
	}
	if own := s.params[stackName]; len(own) > 0 {
		vars["param"] = cty.ObjectVal(own)
	} else {
		vars["param"] = cty.EmptyObjectVal
	}

	stackObjs := make(map[string]cty.Value, len(s.resources))
	for name, byName := range s.resources {
		if len(byName) == 0 {
			continue
		}
		stackObjs[name] = cty.ObjectVal(byName)
	}
	if len(stackObjs) > 0 {
		vars["stack"] = cty.ObjectVal(stackObjs)
	} else {
		vars["stack"] = cty.EmptyObjectVal
	}

	if len(locals) > 0 {
		vars["local"] = cty.ObjectVal(locals)
	} else {
		vars["local"] = cty.EmptyObjectVal
	}

	return &hcl.EvalContext{
		Variables: vars,
		Functions: scopeFunctions,
	}
}

// scopeFunctions is the curated function table available to expressions.
var scopeFunctions = map[string]function.Function{
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"title":      stdlib.TitleFunc,
	"format":     stdlib.FormatFunc,
	"join":       stdlib.JoinFunc,
	"split":      stdlib.SplitFunc,
	"replace":    stdlib.ReplaceFunc,
	"substr":     stdlib.SubstrFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"length":     stdlib.LengthFunc,
	"concat":     stdlib.ConcatFunc,
	"merge":      stdlib.MergeFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
}
