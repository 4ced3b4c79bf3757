package hclfront

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/harwell/strata/internal/construct"
	"github.com/harwell/strata/internal/ctxlog"
	"github.com/harwell/strata/internal/model"
	"github.com/harwell/strata/internal/restype"
)

// BuildInput carries everything Build needs.
type BuildInput struct {
	Unit *model.Unit
	// Types is the resource type catalog expressions may instantiate.
	Types *restype.Registry
	// Context values are exposed to expressions as context.<key>.
	Context map[string]string
}

// builtStack pairs a model stack with its construct and member handles.
type builtStack struct {
	model     *model.Stack
	stack     *construct.Stack
	resources map[string]*construct.Resource
}

// Build creates the construct tree for a loaded unit.
//
// It runs in two passes. The first declares every stack, resource, and
// parameter, publishing reference tokens for each into the shared scope.
// The second evaluates locals, property expressions, outputs, and
// dependency declarations against that scope. Property bags are created
// empty in pass one and filled in pass two, so declaration order never
// restricts what an expression may reference.
func Build(ctx context.Context, in BuildInput) (*construct.App, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	var diags hcl.Diagnostics

	app := construct.NewApp()
	sc := newScope(in.Context)
	var built []*builtStack

	for _, ms := range in.Unit.Stacks {
		stack, err := construct.NewStack(app, ms.Name)
		if err != nil {
			diags = append(diags, constructErr("Cannot declare stack", err))
			continue
		}
		bs := &builtStack{model: ms, stack: stack, resources: make(map[string]*construct.Resource)}

		for _, mr := range ms.Resources {
			rt, ok := in.Types.Lookup(mr.Type)
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown resource type",
					Detail: fmt.Sprintf("Resource %q uses undeclared type %q. Known types: %s.",
						mr.Name, mr.Type, strings.Join(in.Types.Names(), ", ")),
					Subject: rangeOrNil(mr.DeclRange),
				})
				continue
			}
			res, err := construct.NewResource(stack, mr.Name, rt.Name, map[string]any{})
			if err != nil {
				diags = append(diags, constructErr("Cannot declare resource", err))
				continue
			}
			bs.resources[mr.Name] = res
			sc.addResource(ms.Name, res, rt)
		}

		for _, mp := range ms.Parameters {
			var def any
			if mp.Default != nil {
				g, err := valueToGo(*mp.Default)
				if err != nil {
					diags = append(diags, constructErr("Invalid parameter default", err))
					continue
				}
				def = g
			}
			p, err := construct.NewParameter(stack, mp.Name, construct.ParameterProps{
				Type:        mp.TypeName,
				Default:     def,
				Description: mp.Description,
			})
			if err != nil {
				diags = append(diags, constructErr("Cannot declare parameter", err))
				continue
			}
			sc.addParameter(ms.Name, p)
		}

		built = append(built, bs)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	for _, bs := range built {
		diags = append(diags, buildStackMembers(sc, bs, built)...)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	logger.Debug("Construct tree built.", "stacks", len(built))
	return app, diags
}

func buildStackMembers(sc *scope, bs *builtStack, all []*builtStack) hcl.Diagnostics {
	locals, diags := evalLocals(bs.model.Locals, sc, bs.model.Name)
	if diags.HasErrors() {
		return diags
	}
	ectx := sc.evalContext(bs.model.Name, locals)

	for _, mr := range bs.model.Resources {
		res := bs.resources[mr.Name]
		props := res.Properties()
		for _, name := range mr.PropertyOrder {
			v, exprDiags := lowerExpression(mr.Properties[name], ectx)
			diags = append(diags, exprDiags...)
			if exprDiags.HasErrors() {
				continue
			}
			props[name] = v
		}

		for _, addr := range mr.DependsOn {
			target, diag := resolveDepAddress(addr, bs, all)
			if diag != nil {
				diags = append(diags, diag)
				continue
			}
			if err := res.AddDependsOn(target); err != nil {
				diags = append(diags, constructErr("Cannot declare dependency", err))
			}
		}
	}

	for _, mo := range bs.model.Outputs {
		v, exprDiags := lowerExpression(mo.Value, ectx)
		diags = append(diags, exprDiags...)
		if exprDiags.HasErrors() {
			continue
		}
		_, err := construct.NewOutput(bs.stack, mo.Name, construct.OutputProps{
			Value:       v,
			ExportName:  mo.Export,
			Description: mo.Description,
		})
		if err != nil {
			diags = append(diags, constructErr("Cannot declare output", err))
		}
	}

	for _, depName := range bs.model.DependsOn {
		target := stackNamed(all, depName)
		if target == nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown stack dependency",
				Detail:   fmt.Sprintf("Stack %q depends on undeclared stack %q.", bs.model.Name, depName),
			})
			continue
		}
		if err := bs.stack.AddDependency(target.stack); err != nil {
			diags = append(diags, constructErr("Cannot declare stack dependency", err))
		}
	}

	return diags
}

// evalLocals evaluates every locals attribute of a stack to a fixpoint, so
// locals may reference other locals in any order. Entries that never
// resolve report their last evaluation failure.
func evalLocals(bodies []hcl.Body, sc *scope, stackName string) (map[string]cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	pending := make(map[string]hcl.Expression)

	for _, body := range bodies {
		attrs, attrDiags := body.JustAttributes()
		diags = append(diags, attrDiags...)
		for name, attr := range attrs {
			if _, exists := pending[name]; exists {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate local value",
					Detail:   fmt.Sprintf("A local named %q is already defined in this stack.", name),
					Subject:  attr.Range.Ptr(),
				})
				continue
			}
			pending[name] = attr.Expr
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	locals := make(map[string]cty.Value)
	lastFailure := make(map[string]hcl.Diagnostics)
	for progress := true; progress && len(pending) > 0; {
		progress = false
		ectx := sc.evalContext(stackName, locals)
		for name, expr := range pending {
			v, evalDiags := evalExpr(expr, ectx)
			if evalDiags.HasErrors() {
				lastFailure[name] = evalDiags
				continue
			}
			locals[name] = v
			delete(pending, name)
			delete(lastFailure, name)
			progress = true
		}
	}

	if len(pending) > 0 {
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			diags = append(diags, lastFailure[name]...)
		}
	}
	return locals, diags
}

// resolveDepAddress maps a depends_on entry to its target construct. The
// address is either a resource name in the same stack or a
// "Stack.Resource" pair.
func resolveDepAddress(addr string, bs *builtStack, all []*builtStack) (construct.Construct, *hcl.Diagnostic) {
	parts := strings.Split(addr, ".")
	switch len(parts) {
	case 1:
		if parts[0] != "" {
			if res, ok := bs.resources[parts[0]]; ok {
				return res, nil
			}
		}
		return nil, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown dependency",
			Detail:   fmt.Sprintf("Stack %q has no resource named %q.", bs.model.Name, addr),
		}
	case 2:
		target := stackNamed(all, parts[0])
		if target != nil && parts[1] != "" {
			if res, ok := target.resources[parts[1]]; ok {
				return res, nil
			}
		}
		return nil, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unknown dependency",
			Detail:   fmt.Sprintf("No resource %q found for depends_on entry %q.", parts[1], addr),
		}
	default:
		return nil, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid dependency address",
			Detail:   fmt.Sprintf("The depends_on entry %q must be a resource name or a Stack.Resource pair.", addr),
		}
	}
}

func stackNamed(all []*builtStack, name string) *builtStack {
	for _, bs := range all {
		if bs.model.Name == name {
			return bs
		}
	}
	return nil
}

func constructErr(summary string, err error) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   err.Error(),
	}
}
