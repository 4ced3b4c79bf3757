package construct

// Construct is the addressable capability shared by every member of the
// construction tree.
type Construct interface {
	// Node returns the tree bookkeeping for this construct.
	Node() *Node
}

// DependencyProducer is implemented by constructs that declare explicit
// ordering requirements on other constructs in the same tree.
type DependencyProducer interface {
	Construct

	// Dependencies returns the constructs this construct must be emitted
	// after, in declaration order.
	Dependencies() []Construct
}

// Emitter is implemented by constructs that contribute an entity record to
// their enclosing stack's document.
type Emitter interface {
	Construct

	// EntityType returns the type name of the emitted entity.
	EntityType() string

	// Properties returns the entity's property mapping. Values may contain
	// unresolved deferred values.
	Properties() map[string]any
}

// Walk visits c and all of its descendants depth-first in insertion order.
// It stops at the first error and returns it.
func Walk(c Construct, visit func(Construct) error) error {
	if err := visit(c); err != nil {
		return err
	}
	for _, child := range c.Node().Children() {
		if err := Walk(child, visit); err != nil {
			return err
		}
	}
	return nil
}

// StackOf resolves the stack that owns c: c itself if it is a stack,
// otherwise the nearest stack ancestor. It fails with a *NotFoundError when
// c is outside any stack.
func StackOf(c Construct) (*Stack, error) {
	if s, ok := c.(*Stack); ok {
		return s, nil
	}
	anc, err := c.Node().FindAncestor(func(x Construct) bool {
		_, ok := x.(*Stack)
		return ok
	})
	if err != nil {
		return nil, &NotFoundError{Path: c.Node().PathString(), Want: "enclosing stack"}
	}
	return anc.(*Stack), nil
}
