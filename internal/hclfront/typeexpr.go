package hclfront

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// typeFromExpr resolves a parameter's `type` expression into its value
// constraint and document-facing label. A nil expression defaults to
// string. Only simple type keywords are accepted; the expression form
// (`type = string`, not `type = "string"`) keeps parity with the rest of
// the configuration language.
func typeFromExpr(expr hcl.Expression) (cty.Type, string, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	if expr == nil {
		return cty.String, "String", diags
	}
	// An absent optional attribute decodes to a static null expression, not
	// a nil field.
	if v, valDiags := expr.Value(nil); !valDiags.HasErrors() && v.IsNull() {
		return cty.String, "String", diags
	}

	traversal, hclDiags := hcl.AbsTraversalForExpr(expr)
	if hclDiags.HasErrors() || len(traversal) != 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a simple type keyword like string, number, or bool.",
			Subject:  expr.Range().Ptr(),
		})
		return cty.NilType, "", diags
	}

	switch name := traversal.RootName(); name {
	case "string":
		return cty.String, "String", diags
	case "number":
		return cty.Number, "Number", diags
	case "bool":
		return cty.Bool, "Bool", diags
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unsupported parameter type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a supported parameter type. Supported types are: string, number, bool.", name),
			Subject:  expr.Range().Ptr(),
		})
		return cty.NilType, "", diags
	}
}
