package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphgate/internal/directive"
)

func node(g *Graph, typ, field string) NodeID {
	return g.addNode(&Node{Type: typ, Field: field, Kind: directive.KindHTTP, Directive: &directive.HTTP{URL: "http://x"}}).ID
}

func TestAddEdgeRejectsCycles(t *testing.T) {
	g := newGraph("Query")
	a := node(g, "Query", "a")
	b := node(g, "A", "b")
	c := node(g, "B", "c")

	_, err := g.addEdge(a, b, EdgeParent, false, false)
	require.NoError(t, err)
	_, err = g.addEdge(b, c, EdgeParent, true, false)
	require.NoError(t, err)

	_, err = g.addEdge(c, a, EdgeSibling, false, false)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	require.Equal(t, "resolver graph cycle: Query.a -> A.b -> B.c -> Query.a", err.Error())
	require.Len(t, g.Edges, 2)

	_, err = g.addEdge(a, a, EdgeSibling, false, false)
	require.EqualError(t, err, "resolver graph cycle: Query.a -> Query.a")
}

func TestAddEdgeIsIdempotent(t *testing.T) {
	g := newGraph("Query")
	a := node(g, "Query", "a")
	b := node(g, "A", "b")

	first, err := g.addEdge(a, b, EdgeParent, true, false)
	require.NoError(t, err)
	again, err := g.addEdge(a, b, EdgeParent, true, false)
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Len(t, g.Incoming(b), 1)
}
