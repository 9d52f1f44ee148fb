package toposort_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwire/core/toposort"
)

func TestSort_AcyclicLinearChain(t *testing.T) {
	g := toposort.NewGraph()
	g.AddEdge("App", "Service", false)
	g.AddEdge("Service", "Repo", false)
	g.AddVertex("Repo")

	res, err := g.Sort()
	require.NoError(t, err)
	assert.Equal(t, []toposort.Vertex{"Repo", "Service", "App"}, res.SortedKeys)
	assert.Empty(t, res.DeferredTypes)
}

func TestSort_CycleWithDeferrableEdgeIsBroken(t *testing.T) {
	g := toposort.NewGraph()
	g.AddEdge("A", "B", false)
	g.AddEdge("B", "A", true) // Provider<A> inside B breaks the cycle

	res, err := g.Sort()
	require.NoError(t, err)
	assert.Len(t, res.SortedKeys, 2)
	assert.Contains(t, res.DeferredTypes, toposort.Vertex("B"))
}

func TestSort_CycleWithNoDeferrableEdgeFails(t *testing.T) {
	g := toposort.NewGraph()
	g.AddEdge("A", "B", false)
	g.AddEdge("B", "A", false)

	_, err := g.Sort()
	require.Error(t, err)
	var cycleErr *toposort.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestSort_ImplicitlyDeferrableVertexPreferred(t *testing.T) {
	g := toposort.NewGraph()
	g.AddEdge("Factory", "Target", false)
	g.AddEdge("Target", "Factory", false)
	g.MarkImplicitlyDeferrable("Factory")

	res, err := g.Sort()
	require.NoError(t, err)
	assert.Contains(t, res.DeferredTypes, toposort.Vertex("Factory"))
}

func TestSort_DeterministicTieBreak(t *testing.T) {
	g := toposort.NewGraph()
	g.AddVertex("Z")
	g.AddVertex("A")
	g.AddVertex("M")

	res, err := g.Sort()
	require.NoError(t, err)
	assert.Equal(t, []toposort.Vertex{"A", "M", "Z"}, res.SortedKeys)
}
