package hclfront

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/harwell/strata/internal/token"
)

// evalExpr evaluates an expression against the scope, keeping deferred
// values alive. Plain expressions go straight through HCL evaluation.
// String templates need special handling: a deferred part cannot be
// converted to a string, so the template is taken apart and rebuilt as a
// concatenation token over its evaluated parts.
func evalExpr(expr hcl.Expression, ectx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.TemplateWrapExpr:
		return evalExpr(e.Wrapped, ectx)
	case *hclsyntax.TemplateExpr:
		if len(e.Parts) == 1 {
			return evalExpr(e.Parts[0], ectx)
		}
		return evalTemplate(e, ectx)
	}
	return expr.Value(ectx)
}

func evalTemplate(e *hclsyntax.TemplateExpr, ectx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	parts := make([]cty.Value, 0, len(e.Parts))
	deferred := false

	for _, part := range e.Parts {
		v, partDiags := evalExpr(part, ectx)
		diags = append(diags, partDiags...)
		if partDiags.HasErrors() {
			continue
		}
		if _, ok := deferredFromVal(v); ok {
			deferred = true
		}
		parts = append(parts, v)
	}
	if diags.HasErrors() {
		return cty.NilVal, diags
	}

	if !deferred {
		// Every part is concrete; let HCL apply its own conversion and
		// joining semantics.
		return e.Value(ectx)
	}

	concat := make([]any, 0, len(parts))
	for i, v := range parts {
		g, err := valueToGo(v)
		if err == nil && !isTemplatePart(g) {
			err = fmt.Errorf("value of type %s cannot be interpolated into a string", v.Type().FriendlyName())
		}
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid template interpolation value",
				Detail:   err.Error(),
				Subject:  e.Parts[i].Range().Ptr(),
			})
			continue
		}
		concat = append(concat, g)
	}
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return deferredVal(token.NewConcat(concat...)), diags
}

// isTemplatePart reports whether a lowered value may appear as one part of
// a string template.
func isTemplatePart(v any) bool {
	switch v.(type) {
	case string, bool, int64, float64, token.Token:
		return true
	}
	return false
}

// lowerExpression evaluates an expression and converts the result into the
// plain Go form property bags carry.
func lowerExpression(expr hcl.Expression, ectx *hcl.EvalContext) (any, hcl.Diagnostics) {
	v, diags := evalExpr(expr, ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	g, err := valueToGo(v)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported expression value",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		})
		return nil, diags
	}
	return g, diags
}

// valueToGo converts a cty value into the Go shape the document layer
// expects: scalars, []any, map[string]any, and tokens for deferred values.
func valueToGo(v cty.Value) (any, error) {
	if tok, ok := deferredFromVal(v); ok {
		return tok, nil
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := []any{}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			g, err := valueToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			g, err := valueToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = g
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
