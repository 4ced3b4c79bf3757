package construct

import "fmt"

// Resource is a construct that emits one entity record into its stack's
// document. Property values may contain deferred values that are resolved
// during synthesis.
type Resource struct {
	node *Node

	entityType string
	props      map[string]any

	deps   []Construct
	depSet map[*Node]struct{}
}

// NewResource creates a resource under scope. The entity type names the
// record's type in the synthesized document, e.g. "Bucket". A nil props map
// is treated as empty.
func NewResource(scope Construct, id, entityType string, props map[string]any) (*Resource, error) {
	if scope == nil {
		return nil, fmt.Errorf("resource %q: scope must not be nil", id)
	}
	if entityType == "" {
		return nil, fmt.Errorf("resource %q: entity type must not be empty", id)
	}
	if _, err := StackOf(scope); err != nil {
		return nil, fmt.Errorf("resource %q must be created inside a stack: %w", id, err)
	}
	if props == nil {
		props = map[string]any{}
	}
	r := &Resource{entityType: entityType, props: props, depSet: make(map[*Node]struct{})}
	n, err := NewNode(r, scope, id)
	if err != nil {
		return nil, err
	}
	r.node = n
	return r, nil
}

// Node implements Construct.
func (r *Resource) Node() *Node {
	return r.node
}

// EntityType implements Emitter.
func (r *Resource) EntityType() string {
	return r.entityType
}

// Properties implements Emitter.
func (r *Resource) Properties() map[string]any {
	return r.props
}

// AddDependsOn declares explicit ordering edges on other constructs.
// Duplicate targets are ignored. Fails once the tree is frozen.
func (r *Resource) AddDependsOn(targets ...Construct) error {
	if r.node.Frozen() {
		return fmt.Errorf("resource %q: %w", r.node.PathString(), ErrTreeFrozen)
	}
	for _, t := range targets {
		if _, ok := r.depSet[t.Node()]; ok {
			continue
		}
		r.depSet[t.Node()] = struct{}{}
		r.deps = append(r.deps, t)
	}
	return nil
}

// Dependencies implements DependencyProducer.
func (r *Resource) Dependencies() []Construct {
	out := make([]Construct, len(r.deps))
	copy(out, r.deps)
	return out
}
