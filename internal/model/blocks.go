package model

import "github.com/hashicorp/hcl/v2"

// File is the top-level decode target for one source file.
type File struct {
	Stacks []*StackBlock `hcl:"stack,block"`
	Body   hcl.Body      `hcl:",remain"`
}

// StackBlock is a `stack "name" {}` block.
type StackBlock struct {
	Name       string            `hcl:"name,label"`
	Resources  []*ResourceBlock  `hcl:"resource,block"`
	Parameters []*ParameterBlock `hcl:"parameter,block"`
	Outputs    []*OutputBlock    `hcl:"output,block"`
	Locals     []*LocalsBlock    `hcl:"locals,block"`
	DependsOn  []string          `hcl:"depends_on,optional"`
}

// ResourceBlock is a `resource "type" "name" {}` block inside a stack.
type ResourceBlock struct {
	Type       string           `hcl:"type,label"`
	Name       string           `hcl:"name,label"`
	Properties *PropertiesBlock `hcl:"properties,block"`
	DependsOn  []string         `hcl:"depends_on,optional"`
}

// PropertiesBlock carries a resource's property assignments. The body is
// kept raw so each attribute can be evaluated against the full scope later.
type PropertiesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// ParameterBlock is a `parameter "name" {}` block inside a stack.
type ParameterBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// OutputBlock is an `output "name" {}` block inside a stack.
type OutputBlock struct {
	Name        string         `hcl:"name,label"`
	Value       hcl.Expression `hcl:"value"`
	Export      string         `hcl:"export,optional"`
	Description string         `hcl:"description,optional"`
}

// LocalsBlock carries a `locals {}` body, evaluated with the stack's scope.
type LocalsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
