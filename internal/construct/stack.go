package construct

import "fmt"

// Stack is the aggregation boundary: the construct kind that maps one-to-one
// to a synthesized document. Every construct below a stack belongs to it, up
// to the next nested stack.
type Stack struct {
	node *Node

	deps   []*Stack
	depSet map[*Stack]struct{}
}

// NewStack creates a stack under scope. The id doubles as the stack name
// used in export names and output files, so it must be non-empty and unique
// among its siblings.
func NewStack(scope Construct, id string) (*Stack, error) {
	if scope == nil {
		return nil, fmt.Errorf("stack %q: scope must not be nil", id)
	}
	s := &Stack{depSet: make(map[*Stack]struct{})}
	n, err := NewNode(s, scope, id)
	if err != nil {
		return nil, err
	}
	s.node = n
	return s, nil
}

// Node implements Construct.
func (s *Stack) Node() *Node {
	return s.node
}

// Name returns the stack's name, which is its construct id.
func (s *Stack) Name() string {
	return s.node.ID()
}

// AddDependency declares that this stack must be deployed after target.
// Adding the same target twice is a no-op. Self-dependencies are rejected.
func (s *Stack) AddDependency(target *Stack) error {
	if target == s {
		return fmt.Errorf("stack %q cannot depend on itself", s.Name())
	}
	if _, ok := s.depSet[target]; ok {
		return nil
	}
	s.depSet[target] = struct{}{}
	s.deps = append(s.deps, target)
	return nil
}

// Dependencies returns the explicitly declared stack dependencies in
// declaration order.
func (s *Stack) Dependencies() []*Stack {
	out := make([]*Stack, len(s.deps))
	copy(out, s.deps)
	return out
}

// RelativePathOf returns the path of c relative to this stack, for use as
// the identifier-allocation key. It fails when c is not inside the stack.
func (s *Stack) RelativePathOf(c Construct) ([]string, error) {
	owner, err := StackOf(c)
	if err != nil {
		return nil, err
	}
	if owner != s {
		return nil, fmt.Errorf("construct %q does not belong to stack %q", c.Node().PathString(), s.Name())
	}
	full := c.Node().Path()
	base := len(s.node.Path())
	rel := make([]string, len(full)-base)
	copy(rel, full[base:])
	return rel, nil
}
