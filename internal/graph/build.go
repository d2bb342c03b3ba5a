package graph

import (
	"fmt"
	"slices"

	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/schema"
)

// Build derives the resolver graph of a validated schema.
//
// The build runs in two passes. The first walks types depth first from the
// query root, fields in declaration order, and records for every reachable
// type the route that first reached it and the route with the most list
// fields above it. The second creates one node per resolver field of each
// reachable object type in schema declaration order, so node IDs follow
// (type, field) declaration order whatever the walk order was.
//
// A node is linked to the nearest resolver above its type on the first
// route (EdgeParent) and to each resolver sibling it reads through a parent
// placeholder (EdgeSibling). Its amplification comes from the deepest route.
func Build(s *schema.Schema) (*Graph, error) {
	root := s.GetQueryType()
	if root == nil {
		return nil, fmt.Errorf("graph: query root %q is not declared", s.QueryType)
	}
	b := &builder{
		schema:       s,
		g:            newGraph(root.Name),
		reached:      map[string]*reach{},
		onPath:       map[string]bool{},
		implementors: map[string][]*schema.Type{},
	}
	for _, t := range s.Types {
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, i := range t.Interfaces {
			b.implementors[i] = append(b.implementors[i], t)
		}
	}
	b.walk(root, scope{firstList: -1})
	b.place()
	if err := b.link(); err != nil {
		return nil, err
	}
	return b.g, nil
}

// reach is what the walk learned about one type.
type reach struct {
	first   scope
	deepest scope
}

type builder struct {
	schema  *schema.Schema
	g       *Graph
	reached map[string]*reach
	// onPath holds the types on the current walk route. A recursive type
	// is never re-entered, so list depth stays finite.
	onPath       map[string]bool
	implementors map[string][]*schema.Type
}

// scope is what the walk knows about the route to the current type.
type scope struct {
	path []FieldRef
	// firstList indexes the first list field in path, or -1.
	firstList int
	lists     int
	// nearest is the closest resolver field above, or nil.
	nearest *FieldRef
	// listSinceResolver is set when a list field lies between nearest and
	// the current type.
	listSinceResolver bool
}

func (sc scope) amplified() bool { return sc.lists > 0 }

func (sc scope) descend(ref FieldRef, f *schema.Field, resolved bool) scope {
	next := sc
	next.path = append(slices.Clone(sc.path), ref)
	list := f.Type.ListDepth() > 0
	if list {
		next.lists++
		if next.firstList < 0 {
			next.firstList = len(sc.path)
		}
	}
	if resolved {
		next.nearest = &ref
		next.listSinceResolver = list
	} else if list {
		next.listSinceResolver = true
	}
	return next
}

// walk records sc for t and descends. A type already reached is walked
// again only when sc has more list fields above it than any earlier route.
func (b *builder) walk(t *schema.Type, sc scope) {
	r, seen := b.reached[t.Name]
	switch {
	case !seen:
		b.reached[t.Name] = &reach{first: sc, deepest: sc}
	case sc.lists > r.deepest.lists && !b.onPath[t.Name]:
		r.deepest = sc
	default:
		return
	}
	b.onPath[t.Name] = true
	defer delete(b.onPath, t.Name)

	switch t.Kind {
	case schema.TypeKindUnion:
		for _, name := range t.PossibleTypes {
			if member := b.schema.Type(name); member != nil {
				b.walk(member, sc)
			}
		}
	case schema.TypeKindInterface:
		b.walkFields(t, sc)
		for _, impl := range b.implementors[t.Name] {
			b.walk(impl, sc)
		}
	case schema.TypeKindObject:
		b.walkFields(t, sc)
	}
}

func (b *builder) walkFields(t *schema.Type, sc scope) {
	for _, f := range t.Fields {
		next := b.schema.Type(f.Type.GetNamedType())
		if next == nil || !next.IsComposite() {
			continue
		}
		ref := FieldRef{Type: t.Name, Field: f.Name}
		resolved := t.Kind == schema.TypeKindObject && f.ResolverKind() != directive.KindNone
		b.walk(next, sc.descend(ref, f, resolved))
	}
}

// place creates the nodes of every reachable object type in declaration
// order.
func (b *builder) place() {
	for _, t := range b.schema.Types {
		r, ok := b.reached[t.Name]
		if !ok || t.Kind != schema.TypeKindObject {
			continue
		}
		for _, f := range t.Fields {
			if f.ResolverKind() == directive.KindNone {
				continue
			}
			n := b.g.addNode(&Node{
				Type:      t.Name,
				Field:     f.Name,
				Kind:      f.ResolverKind(),
				Directive: f.Resolver,
				List:      f.Type.ListDepth() > 0,
			})
			if r.deepest.amplified() {
				b.amplify(n, r.deepest)
			}
		}
	}
}

func (b *builder) amplify(n *Node, sc scope) {
	n.ListAmplified = true
	n.ListDepth = sc.lists
	n.Path = append(slices.Clone(sc.path[sc.firstList:]), n.Ref())
}

// link adds the incoming edges of every node.
func (b *builder) link() error {
	for _, n := range b.g.Nodes {
		sc := b.reached[n.Type].first
		if sc.nearest != nil {
			if parent, ok := b.g.Lookup(sc.nearest.Type, sc.nearest.Field); ok {
				if _, err := b.g.addEdge(parent.ID, n.ID, EdgeParent, sc.listSinceResolver, n.Batched()); err != nil {
					return err
				}
			}
		}
		for _, name := range directive.ParentFields(n.Directive) {
			sibling, ok := b.g.Lookup(n.Type, name)
			if !ok {
				continue
			}
			if _, err := b.g.addEdge(sibling.ID, n.ID, EdgeSibling, false, n.Batched()); err != nil {
				return err
			}
		}
	}
	return nil
}
