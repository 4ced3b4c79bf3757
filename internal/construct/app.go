package construct

import "fmt"

// App is the root of a construction tree and the common deployable root that
// cross-stack references are resolved under.
type App struct {
	node *Node
}

// NewApp creates an empty tree root.
func NewApp() *App {
	a := &App{}
	n, err := NewNode(a, nil, "")
	if err != nil {
		// A root node with no scope cannot fail to attach.
		panic(err)
	}
	a.node = n
	return a
}

// Node implements Construct.
func (a *App) Node() *Node {
	return a.node
}

// Stacks returns the stacks directly or transitively contained in the app,
// in declaration order.
func (a *App) Stacks() []*Stack {
	var out []*Stack
	_ = Walk(a, func(c Construct) error {
		if s, ok := c.(*Stack); ok {
			out = append(out, s)
		}
		return nil
	})
	return out
}

// Group is a plain construct used to organize children without contributing
// anything to the synthesized documents.
type Group struct {
	node *Node
}

// NewGroup creates a grouping construct under scope.
func NewGroup(scope Construct, id string) (*Group, error) {
	if scope == nil {
		return nil, fmt.Errorf("group %q: scope must not be nil", id)
	}
	g := &Group{}
	n, err := NewNode(g, scope, id)
	if err != nil {
		return nil, err
	}
	g.node = n
	return g, nil
}

// Node implements Construct.
func (g *Group) Node() *Node {
	return g.node
}
