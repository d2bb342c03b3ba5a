// Package nplusone flags resolvers that would issue one upstream call per
// list item for a single incoming query.
//
// The analysis is structural. It reads the resolver graph and never runs
// anything.
package nplusone

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/graph"
)

type Reason string

const (
	ReasonUnbatchedHTTP    Reason = "UnbatchedHTTP"
	ReasonUnbatchedGraphQL Reason = "UnbatchedGraphQL"
)

type Finding struct {
	Node graph.NodeID `json:"node"`
	// Path runs from the first list field above the node to the node.
	Path   []graph.FieldRef `json:"path"`
	Reason Reason           `json:"reason"`
	FanOut string           `json:"fanOut"`
}

// Field is the flagged resolver field.
func (f Finding) Field() graph.FieldRef { return f.Path[len(f.Path)-1] }

func (f Finding) String() string {
	parts := make([]string, len(f.Path))
	for i, p := range f.Path {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s %s: %s upstream calls per query along %s",
		f.Reason, f.Field(), f.FanOut, strings.Join(parts, " -> "))
}

// Analyze returns the findings of g ordered by node ID, which is the
// declaration order of the flagged fields.
func Analyze(g *graph.Graph) []Finding {
	findings := []Finding{}
	for _, n := range g.Nodes {
		reason, remote := reasonFor(n.Directive)
		if !remote || !n.ListAmplified || batched(g, n) {
			continue
		}
		findings = append(findings, Finding{
			Node:   n.ID,
			Path:   append([]graph.FieldRef(nil), n.Path...),
			Reason: reason,
			FanOut: fanOut(n.ListDepth),
		})
	}
	return findings
}

func reasonFor(d directive.Directive) (Reason, bool) {
	switch d.(type) {
	case *directive.HTTP:
		return ReasonUnbatchedHTTP, true
	case *directive.GraphQL:
		return ReasonUnbatchedGraphQL, true
	case *directive.Expr, *directive.Literal, directive.None:
		return "", false
	default:
		panic("nplusone: unhandled directive " + string(d.Kind()))
	}
}

func batched(g *graph.Graph, n *graph.Node) bool {
	if n.Batched() {
		return true
	}
	for _, e := range g.Incoming(n.ID) {
		if e.Batched {
			return true
		}
	}
	return false
}

func fanOut(lists int) string {
	if lists <= 1 {
		return "O(n)"
	}
	return fmt.Sprintf("O(n^%d)", lists)
}

// Lines renders findings one per line.
func Lines(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.String()
	}
	return out
}
