package doc

// Ref is an intra-stack reference to another element of the same document,
// serialized as {"Ref": logicalID}.
type Ref struct {
	LogicalID string
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return encodeNoEscape(map[string]any{"Ref": r.LogicalID})
}

// GetAtt is an intra-stack attribute lookup, serialized as
// {"Fn::GetAtt": [logicalID, attribute]}.
type GetAtt struct {
	LogicalID string
	Attribute string
}

func (g GetAtt) MarshalJSON() ([]byte, error) {
	return encodeNoEscape(map[string]any{"Fn::GetAtt": []any{g.LogicalID, g.Attribute}})
}

// Join concatenates parts with a delimiter at deployment time, serialized as
// {"Fn::Join": [delimiter, [parts...]]}. Parts may be literals or further
// intrinsics; their order is preserved exactly.
type Join struct {
	Delimiter string
	Parts     []any
}

func (j Join) MarshalJSON() ([]byte, error) {
	parts := j.Parts
	if parts == nil {
		parts = []any{}
	}
	return encodeNoEscape(map[string]any{"Fn::Join": []any{j.Delimiter, parts}})
}

// Select picks one element of a list at deployment time, serialized as
// {"Fn::Select": [index, list]}.
type Select struct {
	Index int
	List  any
}

func (s Select) MarshalJSON() ([]byte, error) {
	return encodeNoEscape(map[string]any{"Fn::Select": []any{s.Index, s.List}})
}

// Split divides a composite string by a delimiter at deployment time,
// serialized as {"Fn::Split": [delimiter, value]}.
type Split struct {
	Delimiter string
	Value     any
}

func (s Split) MarshalJSON() ([]byte, error) {
	return encodeNoEscape(map[string]any{"Fn::Split": []any{s.Delimiter, s.Value}})
}

// ImportValue reads another stack's export by name at deployment time,
// serialized as {"Fn::ImportValue": name}.
type ImportValue struct {
	Name string
}

func (i ImportValue) MarshalJSON() ([]byte, error) {
	return encodeNoEscape(map[string]any{"Fn::ImportValue": i.Name})
}
