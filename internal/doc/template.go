package doc

// Template is one stack's synthesized document. Section maps are keyed by
// logical id; key order in the serialized form is always sorted, so the
// maps can be populated in any order.
type Template struct {
	Description string               `json:"Description,omitempty"`
	Parameters  map[string]Parameter `json:"Parameters,omitempty"`
	Resources   map[string]Entity    `json:"Resources"`
	Outputs     map[string]Output    `json:"Outputs,omitempty"`
}

// NewTemplate returns an empty template. The Resources section is always
// present in the serialized output, even when no entity was emitted.
func NewTemplate() *Template {
	return &Template{
		Resources: map[string]Entity{},
	}
}

// Parameter is an externally supplied input declaration.
type Parameter struct {
	Type        string `json:"Type"`
	Default     any    `json:"Default,omitempty"`
	Description string `json:"Description,omitempty"`
}

// Entity is the record a resource contributes to the Resources section.
type Entity struct {
	Type       string         `json:"Type"`
	Properties map[string]any `json:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty"`
}

// Output is a named document value, optionally exported for other stacks.
type Output struct {
	Description string  `json:"Description,omitempty"`
	Value       any     `json:"Value"`
	Export      *Export `json:"Export,omitempty"`
}

// Export names an output for cross-stack consumption.
type Export struct {
	Name string `json:"Name"`
}
