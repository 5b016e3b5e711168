package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddNode("root", "plan"))
	require.NoError(t, g.AddNode("left", "search"))
	require.NoError(t, g.AddNode("right", "search"))
	require.NoError(t, g.AddNode("final", "rank"))
	require.NoError(t, g.AddEdge("root", "left"))
	require.NoError(t, g.AddEdge("root", "right"))
	require.NoError(t, g.AddEdge("left", "final"))
	require.NoError(t, g.AddEdge("right", "final"))
	return g
}

func TestGraph_NodesInInsertionOrder(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []string{"root", "left", "right", "final"}, g.Nodes())
}

func TestGraph_RootsAndNeighbors(t *testing.T) {
	g := diamond(t)

	assert.Equal(t, []string{"root"}, g.Roots())
	assert.Equal(t, []string{"left", "right"}, g.Successors("root"))
	assert.Equal(t, []string{"left", "right"}, g.Predecessors("final"))
	assert.Empty(t, g.Predecessors("root"))
	assert.Empty(t, g.Successors("final"))
}

func TestGraph_TemplateName(t *testing.T) {
	g := diamond(t)

	tmpl, ok := g.TemplateName("left")
	require.True(t, ok)
	assert.Equal(t, "search", tmpl)

	_, ok = g.TemplateName("missing")
	assert.False(t, ok)
}

func TestGraph_DuplicateNodeRejected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", "x"))
	assert.Error(t, g.AddNode("a", "y"))
}

func TestGraph_UnknownDependencyRejected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", "x"))
	assert.Error(t, g.AddEdge("ghost", "a"))
	assert.Error(t, g.AddEdge("a", "ghost"))
	assert.Error(t, g.AddEdge("a", "a"))
}

func TestGraph_ValidateDetectsCycle(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", "x"))
	require.NoError(t, g.AddNode("b", "x"))
	require.NoError(t, g.AddNode("c", "x"))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))

	err := g.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestGraph_ValidateRejectsEmptyGraph(t *testing.T) {
	assert.Error(t, NewGraph().Validate())
}

func TestGraph_ValidateAcceptsDiamond(t *testing.T) {
	assert.NoError(t, diamond(t).Validate())
}

func TestGraph_TopologicalOrder(t *testing.T) {
	g := diamond(t)

	order, err := g.TopologicalOrder()
	require.NoError(t, err)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Len(t, order, 4)
	assert.Less(t, pos["root"], pos["left"])
	assert.Less(t, pos["root"], pos["right"])
	assert.Less(t, pos["left"], pos["final"])
	assert.Less(t, pos["right"], pos["final"])
}

func TestGraph_MultipleRoots(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode("a", "x"))
	require.NoError(t, g.AddNode("b", "x"))
	require.NoError(t, g.AddNode("join", "x"))
	require.NoError(t, g.AddEdge("a", "join"))
	require.NoError(t, g.AddEdge("b", "join"))

	require.NoError(t, g.Validate())
	assert.Equal(t, []string{"a", "b"}, g.Roots())
}
