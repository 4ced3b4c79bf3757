package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddDependency(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		g := New()
		g.AddNode("a", 1)
		g.AddNode("b", 2)

		require.NoError(t, g.AddDependency("a", "b"))
		require.NoError(t, g.AddDependency("a", "b"))
		assert.Equal(t, []string{"b"}, g.DependenciesOf("a"))
		assert.Equal(t, []string{"a"}, g.DependentsOf("b"))
	})

	t.Run("rejects self edges", func(t *testing.T) {
		g := New()
		g.AddNode("a", 1)
		assert.Error(t, g.AddDependency("a", "a"))
	})

	t.Run("rejects unregistered nodes", func(t *testing.T) {
		g := New()
		g.AddNode("a", 1)
		assert.Error(t, g.AddDependency("a", "ghost"))
		assert.Error(t, g.AddDependency("ghost", "a"))
	})
}

func TestGraph_AddNodeIgnoresDuplicates(t *testing.T) {
	g := New()
	g.AddNode("a", 1)
	g.AddNode("a", 99)
	assert.Equal(t, 1, g.Len())

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, order)
}

func TestGraph_CycleRejection(t *testing.T) {
	g := New()
	g.AddNode("A", 1)
	g.AddNode("B", 2)
	g.AddNode("C", 3)
	require.NoError(t, g.AddDependency("A", "B"))
	require.NoError(t, g.AddDependency("B", "C"))
	require.NoError(t, g.AddDependency("C", "A"))

	err := g.DetectCycle()
	require.Error(t, err)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Contains(t, cycle.Path, "A")
	assert.Contains(t, cycle.Path, "B")
	assert.Contains(t, cycle.Path, "C")
	assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1],
		"cycle path should close on its first node")
	assert.Contains(t, err.Error(), " -> ")

	_, err = g.TopologicalOrder()
	assert.ErrorAs(t, err, &cycle)
}

func TestGraph_ChainWithoutBackEdgeOrders(t *testing.T) {
	g := New()
	g.AddNode("A", 1)
	g.AddNode("B", 2)
	g.AddNode("C", 3)
	// C after B, B after A; no cycle.
	require.NoError(t, g.AddDependency("C", "B"))
	require.NoError(t, g.AddDependency("B", "A"))

	require.NoError(t, g.DetectCycle())
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestGraph_TiesBrokenByDeclarationOrder(t *testing.T) {
	g := New()
	// Declaration order deliberately differs from lexicographic order.
	g.AddNode("zeta", 1)
	g.AddNode("alpha", 2)
	g.AddNode("mid", 3)

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, order)
}

func TestGraph_OrderIsDeterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.AddNode("w", 4)
		g.AddNode("x", 1)
		g.AddNode("y", 3)
		g.AddNode("z", 2)
		_ = g.AddDependency("w", "x")
		_ = g.AddDependency("y", "x")
		return g
	}

	first, err := build().TopologicalOrder()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := build().TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGraph_DiamondRespectsEdgesAndSeq(t *testing.T) {
	g := New()
	g.AddNode("base", 1)
	g.AddNode("left", 2)
	g.AddNode("right", 3)
	g.AddNode("top", 4)
	require.NoError(t, g.AddDependency("left", "base"))
	require.NoError(t, g.AddDependency("right", "base"))
	require.NoError(t, g.AddDependency("top", "left"))
	require.NoError(t, g.AddDependency("top", "right"))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "left", "right", "top"}, order)
}

func TestGraph_TwoNodeCyclePath(t *testing.T) {
	g := New()
	g.AddNode("A", 1)
	g.AddNode("B", 2)
	require.NoError(t, g.AddDependency("A", "B"))
	require.NoError(t, g.AddDependency("B", "A"))

	var cycle *CycleError
	require.ErrorAs(t, g.DetectCycle(), &cycle)
	assert.Len(t, cycle.Path, 3)
}
