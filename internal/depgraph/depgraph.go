// Package depgraph orders emission by explicit and reference-implied
// dependency edges and guarantees the result is cycle-free.
package depgraph

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is a directed dependency graph over string keys. An edge added with
// AddDependency(from, to) means from must be emitted after to.
//
// Graphs are built and consumed within a single synthesis pass and are not
// safe for concurrent use.
type Graph struct {
	nodes map[string]*node
}

type node struct {
	key        string
	seq        int
	deps       map[string]struct{}
	dependents map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode registers a key with its declaration sequence number. Sequence
// numbers break ordering ties between independent nodes, keeping emission
// order deterministic. Adding an existing key is a no-op.
func (g *Graph) AddNode(key string, seq int) {
	if _, ok := g.nodes[key]; ok {
		return
	}
	g.nodes[key] = &node{
		key:        key,
		seq:        seq,
		deps:       make(map[string]struct{}),
		dependents: make(map[string]struct{}),
	}
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Has reports whether key is registered.
func (g *Graph) Has(key string) bool {
	_, ok := g.nodes[key]
	return ok
}

// AddDependency records that from must be emitted after to. Adding the same
// edge twice is a no-op. Both nodes must already be registered and
// self-edges are rejected.
func (g *Graph) AddDependency(from, to string) error {
	if from == to {
		return fmt.Errorf("self-referential dependency not allowed: %s", from)
	}
	fromNode, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("dependency source not registered: %s", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("dependency target not registered: %s", to)
	}

	fromNode.deps[to] = struct{}{}
	toNode.dependents[from] = struct{}{}
	return nil
}

// DependenciesOf returns the keys from must be emitted after, sorted.
func (g *Graph) DependenciesOf(from string) []string {
	n, ok := g.nodes[from]
	if !ok {
		return nil
	}
	return sortedKeys(n.deps)
}

// DependentsOf returns the keys that must be emitted after key, sorted.
func (g *Graph) DependentsOf(key string) []string {
	n, ok := g.nodes[key]
	if !ok {
		return nil
	}
	return sortedKeys(n.dependents)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// seqOrdered returns all nodes sorted by declaration sequence.
func (g *Graph) seqOrdered() []*node {
	out := make([]*node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// DetectCycle checks the graph with a depth-first traversal over dependency
// edges. A cycle is reported as a *CycleError carrying the full cycle path;
// it is never silently broken.
func (g *Graph) DetectCycle() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(key string) *CycleError
	visit = func(key string) *CycleError {
		color[key] = grey
		stack = append(stack, key)

		for _, dep := range g.DependenciesOf(key) {
			switch color[dep] {
			case grey:
				// dep is on the recursion stack: the slice from its first
				// occurrence back to here is the cycle.
				start := 0
				for i, k := range stack {
					if k == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start+1)
				cycle = append(cycle, stack[start:]...)
				cycle = append(cycle, dep)
				return &CycleError{Path: cycle}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[key] = black
		return nil
	}

	for _, n := range g.seqOrdered() {
		if color[n.key] == white {
			if err := visit(n.key); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopologicalOrder returns every key ordered so that dependencies precede
// their dependents. Independent nodes are ordered by declaration sequence,
// so the result is deterministic for a fixed input. Fails with a
// *CycleError when the graph is cyclic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if err := g.DetectCycle(); err != nil {
		return nil, err
	}

	indeg := make(map[string]int, len(g.nodes))
	var ready []*node
	for _, n := range g.seqOrdered() {
		indeg[n.key] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		mi := 0
		for i, n := range ready {
			if n.seq < ready[mi].seq {
				mi = i
			}
		}
		n := ready[mi]
		ready = append(ready[:mi], ready[mi+1:]...)
		order = append(order, n.key)

		for dep := range n.dependents {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, g.nodes[dep])
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("internal: topological sort dropped %d nodes", len(g.nodes)-len(order))
	}
	return order, nil
}

// CycleError reports a dependency cycle. Path holds the keys along the
// cycle in traversal order; the first key is repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Path, " -> "))
}
