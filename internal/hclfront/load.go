package hclfront

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/harwell/strata/internal/ctxlog"
	"github.com/harwell/strata/internal/model"
)

// Loader parses source files into the normalized model.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader with a fresh parser. The parser keeps every
// parsed file, which lets diagnostics print source snippets.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files exposes the parsed files for diagnostic rendering.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load discovers, parses, and normalizes every source file under path.
func (l *Loader) Load(ctx context.Context, path string) (*model.Unit, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)

	paths, err := DiscoverSources(ctx, path)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Cannot read source path",
			Detail:   err.Error(),
		}}
	}
	if len(paths) == 0 {
		logger.Warn("No source files found.", "path", path)
		return &model.Unit{}, nil
	}

	var diags hcl.Diagnostics
	var files []*model.File
	for _, p := range paths {
		hclFile, parseDiags := l.parser.ParseHCLFile(p)
		diags = append(diags, parseDiags...)
		if parseDiags.HasErrors() {
			continue
		}
		var f model.File
		diags = append(diags, gohcl.DecodeBody(hclFile.Body, nil, &f)...)
		files = append(files, &f)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	unit, normDiags := normalize(files)
	diags = append(diags, normDiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	logger.Debug("Sources loaded.", "files", len(paths), "stacks", len(unit.Stacks))
	return unit, diags
}

// normalize merges decoded files into one Unit. Stacks with the same name
// accumulate members across files in declaration order.
func normalize(files []*model.File) (*model.Unit, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	unit := &model.Unit{}
	byName := make(map[string]*model.Stack)

	for _, f := range files {
		for _, sb := range f.Stacks {
			stack, ok := byName[sb.Name]
			if !ok {
				stack = &model.Stack{Name: sb.Name}
				byName[sb.Name] = stack
				unit.Stacks = append(unit.Stacks, stack)
			}
			diags = append(diags, mergeStackBlock(stack, sb)...)
		}
	}
	return unit, diags
}

func mergeStackBlock(stack *model.Stack, sb *model.StackBlock) hcl.Diagnostics {
	var diags hcl.Diagnostics

	for _, rb := range sb.Resources {
		res, resDiags := normalizeResource(rb)
		diags = append(diags, resDiags...)
		if res == nil {
			continue
		}
		if _, exists := stack.ResourceNamed(res.Name); exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate resource name",
				Detail:   fmt.Sprintf("A resource named %q is already declared in stack %q.", res.Name, stack.Name),
				Subject:  rangeOrNil(res.DeclRange),
			})
			continue
		}
		stack.Resources = append(stack.Resources, res)
	}

	for _, pb := range sb.Parameters {
		param, paramDiags := normalizeParameter(pb)
		diags = append(diags, paramDiags...)
		if param == nil {
			continue
		}
		if hasParameter(stack, param.Name) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter name",
				Detail:   fmt.Sprintf("A parameter named %q is already declared in stack %q.", param.Name, stack.Name),
			})
			continue
		}
		stack.Parameters = append(stack.Parameters, param)
	}

	for _, ob := range sb.Outputs {
		if hasOutput(stack, ob.Name) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate output name",
				Detail:   fmt.Sprintf("An output named %q is already declared in stack %q.", ob.Name, stack.Name),
				Subject:  ob.Value.Range().Ptr(),
			})
			continue
		}
		stack.Outputs = append(stack.Outputs, &model.Output{
			Name:        ob.Name,
			Value:       ob.Value,
			Export:      ob.Export,
			Description: ob.Description,
		})
	}

	for _, lb := range sb.Locals {
		stack.Locals = append(stack.Locals, lb.Body)
	}
	stack.DependsOn = append(stack.DependsOn, sb.DependsOn...)
	return diags
}

func normalizeResource(rb *model.ResourceBlock) (*model.Resource, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	res := &model.Resource{
		Type:       rb.Type,
		Name:       rb.Name,
		Properties: make(map[string]hcl.Expression),
		DependsOn:  rb.DependsOn,
	}

	if rb.Properties != nil {
		res.DeclRange = rb.Properties.Body.MissingItemRange()
		attrs, attrDiags := rb.Properties.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		for name, attr := range attrs {
			res.Properties[name] = attr.Expr
			res.PropertyOrder = append(res.PropertyOrder, name)
		}
		// JustAttributes returns a map; order by source position so later
		// evaluation and its diagnostics are stable.
		sort.Slice(res.PropertyOrder, func(i, j int) bool {
			ri := attrs[res.PropertyOrder[i]].Range
			rj := attrs[res.PropertyOrder[j]].Range
			return ri.Start.Byte < rj.Start.Byte
		})
	}
	return res, diags
}

func normalizeParameter(pb *model.ParameterBlock) (*model.Parameter, hcl.Diagnostics) {
	ty, label, diags := typeFromExpr(pb.Type)
	if diags.HasErrors() {
		return nil, diags
	}

	param := &model.Parameter{
		Name:        pb.Name,
		Type:        ty,
		TypeName:    label,
		Description: pb.Description,
	}

	if pb.Default != nil {
		// No variable scope here: a default must be a literal. An omitted
		// default decodes to a null expression and is treated as absent.
		v, valDiags := pb.Default.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			return nil, diags
		}
		if !v.IsNull() {
			converted, err := convert.Convert(v, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid parameter default",
					Detail:   fmt.Sprintf("Cannot convert default for parameter %q to %s: %s.", pb.Name, ty.FriendlyName(), err),
					Subject:  pb.Default.Range().Ptr(),
				})
				return nil, diags
			}
			param.Default = &converted
		}
	}
	return param, diags
}

func hasParameter(s *model.Stack, name string) bool {
	for _, p := range s.Parameters {
		if p.Name == name {
			return true
		}
	}
	return false
}

func hasOutput(s *model.Stack, name string) bool {
	for _, o := range s.Outputs {
		if o.Name == name {
			return true
		}
	}
	return false
}

func rangeOrNil(r hcl.Range) *hcl.Range {
	if r.Filename == "" {
		return nil
	}
	return &r
}
