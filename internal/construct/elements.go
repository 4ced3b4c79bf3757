package construct

import "fmt"

// ParameterProps configures a Parameter.
type ParameterProps struct {
	// Type is the document-level parameter type. Defaults to "String".
	Type string
	// Default is the optional default value.
	Default any
	// Description is an optional human-readable description.
	Description string
}

// Parameter declares an externally supplied input of its stack's document.
// Its value is referenced during construction through a deferred value and
// stays unresolved until deployment.
type Parameter struct {
	node  *Node
	props ParameterProps
}

// NewParameter creates a parameter under scope, which must be inside a stack.
func NewParameter(scope Construct, id string, props ParameterProps) (*Parameter, error) {
	if scope == nil {
		return nil, fmt.Errorf("parameter %q: scope must not be nil", id)
	}
	if _, err := StackOf(scope); err != nil {
		return nil, fmt.Errorf("parameter %q must be created inside a stack: %w", id, err)
	}
	if props.Type == "" {
		props.Type = "String"
	}
	p := &Parameter{props: props}
	n, err := NewNode(p, scope, id)
	if err != nil {
		return nil, err
	}
	p.node = n
	return p, nil
}

// Node implements Construct.
func (p *Parameter) Node() *Node { return p.node }

// Type returns the parameter's document type.
func (p *Parameter) Type() string { return p.props.Type }

// Default returns the parameter's default value, nil when absent.
func (p *Parameter) Default() any { return p.props.Default }

// Description returns the parameter's description.
func (p *Parameter) Description() string { return p.props.Description }

// OutputProps configures an Output.
type OutputProps struct {
	// Value is the output's value. It may contain deferred values.
	Value any
	// ExportName optionally exports the value under a caller-chosen name.
	ExportName string
	// Description is an optional human-readable description.
	Description string
}

// Output declares a named value of its stack's document, optionally exported
// for consumption by other documents.
type Output struct {
	node  *Node
	props OutputProps
}

// NewOutput creates an output under scope, which must be inside a stack.
func NewOutput(scope Construct, id string, props OutputProps) (*Output, error) {
	if scope == nil {
		return nil, fmt.Errorf("output %q: scope must not be nil", id)
	}
	if _, err := StackOf(scope); err != nil {
		return nil, fmt.Errorf("output %q must be created inside a stack: %w", id, err)
	}
	if props.Value == nil {
		return nil, fmt.Errorf("output %q: value must not be nil", id)
	}
	o := &Output{props: props}
	n, err := NewNode(o, scope, id)
	if err != nil {
		return nil, err
	}
	o.node = n
	return o, nil
}

// Node implements Construct.
func (o *Output) Node() *Node { return o.node }

// Value returns the output's value, possibly containing deferred values.
func (o *Output) Value() any { return o.props.Value }

// ExportName returns the explicit export name, empty when not exported.
func (o *Output) ExportName() string { return o.props.ExportName }

// Description returns the output's description.
func (o *Output) Description() string { return o.props.Description }
