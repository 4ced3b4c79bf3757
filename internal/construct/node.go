package construct

import (
	"fmt"
	"strings"
	"sync"
)

// PathSeparator joins path segments in the string form of a node path.
// Construct ids must not contain it.
const PathSeparator = "/"

// counter hands out creation sequence numbers for one tree. Every node
// attached under the same root shares the root's counter, so sequence
// numbers order declarations tree-wide.
type counter struct {
	n int
}

func (c *counter) next() int {
	c.n++
	return c.n
}

// Node owns the tree bookkeeping for a single construct: identity, scope,
// ordered children, and the lazily computed path.
type Node struct {
	self     Construct
	scope    Construct
	id       string
	children []Construct
	index    map[string]Construct
	seq      int
	ctr      *counter
	frozen   bool

	pathOnce sync.Once
	path     []string
	pathStr  string
}

// NewNode creates the node for self and attaches it under scope. A nil scope
// creates a tree root, which is the only node allowed an empty id. Attaching
// fails with a *DuplicateIDError when scope already has a child with the
// same id, and with ErrTreeFrozen once the tree is frozen.
func NewNode(self Construct, scope Construct, id string) (*Node, error) {
	if scope == nil {
		n := &Node{self: self, id: id, ctr: &counter{}}
		n.seq = n.ctr.next()
		return n, nil
	}
	if id == "" {
		return nil, fmt.Errorf("construct id must not be empty (scope %q)", scope.Node().PathString())
	}
	if strings.Contains(id, PathSeparator) {
		return nil, fmt.Errorf("construct id %q must not contain %q", id, PathSeparator)
	}

	parent := scope.Node()
	if parent.frozen {
		return nil, fmt.Errorf("adding %q to %q: %w", id, parent.PathString(), ErrTreeFrozen)
	}
	if _, exists := parent.index[id]; exists {
		return nil, &DuplicateIDError{Scope: parent.PathString(), ID: id}
	}

	n := &Node{self: self, scope: scope, id: id, ctr: parent.ctr}
	n.seq = n.ctr.next()
	if parent.index == nil {
		parent.index = make(map[string]Construct)
	}
	parent.index[id] = self
	parent.children = append(parent.children, self)
	return n, nil
}

// MustNode is a convenience for tests and static wiring where the scope and
// id are known to be valid. It panics on error.
func MustNode(self Construct, scope Construct, id string) *Node {
	n, err := NewNode(self, scope, id)
	if err != nil {
		panic(err)
	}
	return n
}

// ID returns the construct's id, unique among its siblings.
func (n *Node) ID() string {
	return n.id
}

// Scope returns the parent construct, or nil for a tree root.
func (n *Node) Scope() Construct {
	return n.scope
}

// Seq returns the node's creation sequence number within its tree. Sequence
// numbers are strictly increasing in declaration order and are used as the
// deterministic tie-breaker for independent nodes during emission ordering.
func (n *Node) Seq() int {
	return n.seq
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []Construct {
	out := make([]Construct, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the direct child with the given id.
func (n *Node) Child(id string) (Construct, bool) {
	c, ok := n.index[id]
	return c, ok
}

// Root walks to the root of the tree this node belongs to.
func (n *Node) Root() Construct {
	c := n.self
	for c.Node().scope != nil {
		c = c.Node().scope
	}
	return c
}

// Path returns the ids from the root down to this node. The root's empty id
// is not included. The result is computed once and cached; callers receive
// a copy.
func (n *Node) Path() []string {
	n.computePath()
	out := make([]string, len(n.path))
	copy(out, n.path)
	return out
}

// PathString returns the node's path joined with PathSeparator. The root's
// path string is empty.
func (n *Node) PathString() string {
	n.computePath()
	return n.pathStr
}

func (n *Node) computePath() {
	n.pathOnce.Do(func() {
		var segs []string
		for c := n.self; c != nil; {
			node := c.Node()
			if node.id != "" {
				segs = append(segs, node.id)
			}
			c = node.scope
		}
		for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
			segs[i], segs[j] = segs[j], segs[i]
		}
		n.path = segs
		n.pathStr = strings.Join(segs, PathSeparator)
	})
}

// FindAncestor returns the nearest ancestor (excluding the node itself)
// satisfying pred, or a *NotFoundError when no ancestor matches.
func (n *Node) FindAncestor(pred func(Construct) bool) (Construct, error) {
	for c := n.scope; c != nil; c = c.Node().scope {
		if pred(c) {
			return c, nil
		}
	}
	return nil, &NotFoundError{Path: n.PathString(), Want: "matching ancestor"}
}

// Frozen reports whether the tree this node belongs to has been frozen.
func (n *Node) Frozen() bool {
	return n.frozen
}

// Freeze marks this node and its whole subtree immutable. Called on the root
// at the start of synthesis; afterwards attempts to attach children fail.
func (n *Node) Freeze() {
	n.frozen = true
	for _, child := range n.children {
		child.Node().Freeze()
	}
}
