package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Unit is the merged configuration from every loaded file.
type Unit struct {
	// Stacks in first-declaration order, members merged across files.
	Stacks []*Stack
}

// StackNamed returns the stack with the given name.
func (u *Unit) StackNamed(name string) (*Stack, bool) {
	for _, s := range u.Stacks {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Stack is the normalized form of one stack, possibly assembled from
// several files.
type Stack struct {
	Name       string
	Resources  []*Resource
	Parameters []*Parameter
	Outputs    []*Output
	// Locals holds the raw bodies of every locals block in the stack.
	Locals []hcl.Body
	// DependsOn names other stacks that must deploy first.
	DependsOn []string
}

// ResourceNamed returns the stack's resource with the given name.
func (s *Stack) ResourceNamed(name string) (*Resource, bool) {
	for _, r := range s.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Resource is the normalized form of a resource block. Properties map
// attribute names to their unevaluated expressions.
type Resource struct {
	Type       string
	Name       string
	Properties map[string]hcl.Expression
	// PropertyOrder preserves source declaration order of property names.
	PropertyOrder []string
	DependsOn     []string
	// DeclRange points at the block for diagnostics.
	DeclRange hcl.Range
}

// Parameter is the normalized form of a parameter block.
type Parameter struct {
	Name string
	// Type is the declared value constraint, cty.String when omitted.
	Type cty.Type
	// TypeName is the document-facing type label, e.g. "String".
	TypeName    string
	Default     *cty.Value
	Description string
}

// Output is the normalized form of an output block. The value expression
// stays unevaluated until the tree is built.
type Output struct {
	Name        string
	Value       hcl.Expression
	Export      string
	Description string
}
