// Package graph holds the resolver graph: one node per resolver-backed field
// reachable from the query root, and edges for the data each resolver reads
// from another.
//
// Nodes and edges live in arenas addressed by NodeID and EdgeID. The graph
// is built once and never mutated afterwards.
package graph

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphgate/internal/directive"
)

type NodeID int

type EdgeID int

// FieldRef names a field by its type and field name.
type FieldRef struct {
	Type  string `json:"type"`
	Field string `json:"field"`
}

func (r FieldRef) String() string { return r.Type + "." + r.Field }

type Node struct {
	ID        NodeID              `json:"id"`
	Type      string              `json:"type"`
	Field     string              `json:"field"`
	Kind      directive.Kind      `json:"kind"`
	Directive directive.Directive `json:"directive"`
	// List is set when the field itself returns a list.
	List bool `json:"list"`
	// ListAmplified is set when at least one list field lies above the node
	// on some route from the query root.
	ListAmplified bool `json:"listAmplified"`
	// ListDepth counts the list fields above the node on the route recorded
	// in Path.
	ListDepth int `json:"listDepth,omitempty"`
	// Path runs from the first list field above the node down to the node.
	// Empty unless ListAmplified.
	Path []FieldRef `json:"path,omitempty"`
}

func (n *Node) Ref() FieldRef { return FieldRef{Type: n.Type, Field: n.Field} }

// Batched reports whether the node's directive declares a batch key.
func (n *Node) Batched() bool { return directive.BatchKey(n.Directive) != "" }

type EdgeKind string

const (
	// EdgeParent: the child reads data produced by the resolver of an
	// ancestor field.
	EdgeParent EdgeKind = "parent"
	// EdgeSibling: the child reads a resolver-backed field of its own type.
	EdgeSibling EdgeKind = "sibling"
)

type Edge struct {
	ID   EdgeID   `json:"id"`
	From NodeID   `json:"from"`
	To   NodeID   `json:"to"`
	Kind EdgeKind `json:"kind"`
	// PerItem is set when the child runs once per item of a list produced
	// between the two ends.
	PerItem bool `json:"perItem"`
	// Batched is set when the child coalesces its per-item calls.
	Batched bool `json:"batched"`
}

type Graph struct {
	Root  string  `json:"root"`
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	byRef map[FieldRef]NodeID
	out   [][]EdgeID
	in    [][]EdgeID
}

func newGraph(root string) *Graph {
	return &Graph{Root: root, Nodes: []*Node{}, Edges: []*Edge{}, byRef: map[FieldRef]NodeID{}}
}

func (g *Graph) Node(id NodeID) *Node { return g.Nodes[id] }

func (g *Graph) Edge(id EdgeID) *Edge { return g.Edges[id] }

// Lookup returns the node for a field, if the field is a reachable resolver.
func (g *Graph) Lookup(typeName, field string) (*Node, bool) {
	id, ok := g.byRef[FieldRef{Type: typeName, Field: field}]
	if !ok {
		return nil, false
	}
	return g.Nodes[id], true
}

// Incoming returns the edges ending at id in insertion order.
func (g *Graph) Incoming(id NodeID) []*Edge {
	out := make([]*Edge, 0, len(g.in[id]))
	for _, e := range g.in[id] {
		out = append(out, g.Edges[e])
	}
	return out
}

// Outgoing returns the edges starting at id in insertion order.
func (g *Graph) Outgoing(id NodeID) []*Edge {
	out := make([]*Edge, 0, len(g.out[id]))
	for _, e := range g.out[id] {
		out = append(out, g.Edges[e])
	}
	return out
}

func (g *Graph) addNode(n *Node) *Node {
	n.ID = NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.byRef[n.Ref()] = n.ID
	return n
}

// addEdge inserts an edge unless an identical one exists. It refuses any
// edge that would close a cycle.
func (g *Graph) addEdge(from, to NodeID, kind EdgeKind, perItem, batched bool) (*Edge, error) {
	for _, id := range g.out[from] {
		if e := g.Edges[id]; e.To == to && e.Kind == kind {
			return e, nil
		}
	}
	if route := g.route(to, from); route != nil {
		nodes := make([]FieldRef, 0, len(route)+1)
		for _, id := range route {
			nodes = append(nodes, g.Nodes[id].Ref())
		}
		nodes = append(nodes, g.Nodes[to].Ref())
		return nil, &CycleError{Nodes: nodes}
	}
	e := &Edge{ID: EdgeID(len(g.Edges)), From: from, To: to, Kind: kind, PerItem: perItem, Batched: batched}
	g.Edges = append(g.Edges, e)
	g.out[from] = append(g.out[from], e.ID)
	g.in[to] = append(g.in[to], e.ID)
	return e, nil
}

// route returns a node sequence from src to dst following edges, or nil
// when dst is unreachable.
func (g *Graph) route(src, dst NodeID) []NodeID {
	prev := map[NodeID]NodeID{src: src}
	queue := []NodeID{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			var path []NodeID
			for n := dst; n != src; n = prev[n] {
				path = append([]NodeID{n}, path...)
			}
			return append([]NodeID{src}, path...)
		}
		for _, id := range g.out[cur] {
			next := g.Edges[id].To
			if _, seen := prev[next]; !seen {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// CycleError reports an edge that would have closed a cycle. It means the
// validator let through a schema it should have rejected.
type CycleError struct {
	Nodes []FieldRef
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		parts[i] = n.String()
	}
	return fmt.Sprintf("resolver graph cycle: %s", strings.Join(parts, " -> "))
}
