package validate

import (
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/ir"
)

// edge is one field of a cycle: the field named by field on type from.
type edge struct {
	from  *ir.TypeDef
	field *ir.FieldDef
	to    *ir.TypeDef
}

// findCycles runs a depth-first search over nodes in declaration order and
// returns every cycle closed by a back edge. Each cycle is rotated to start
// at its earliest declared field so the result does not depend on where the
// search entered it.
func findCycles(nodes []*ir.TypeDef, next func(*ir.TypeDef) []edge) [][]edge {
	state := make(map[*ir.TypeDef]int) // 0=unvisited,1=visiting,2=done
	var stack []edge
	var cycles [][]edge
	var dfs func(*ir.TypeDef)
	dfs = func(n *ir.TypeDef) {
		state[n] = 1
		for _, e := range next(n) {
			switch state[e.to] {
			case 1:
				start := len(stack)
				for start > 0 && stack[start-1].to != e.to {
					start--
				}
				if e.from == e.to {
					start = len(stack)
				}
				cycle := append(append([]edge{}, stack[start:]...), e)
				cycles = append(cycles, rotate(cycle))
			case 0:
				stack = append(stack, e)
				dfs(e.to)
				stack = stack[:len(stack)-1]
			}
		}
		state[n] = 2
	}
	for _, n := range nodes {
		if state[n] == 0 {
			dfs(n)
		}
	}
	return cycles
}

func rotate(cycle []edge) []edge {
	min := 0
	for i, e := range cycle {
		m := cycle[min]
		if e.from.Index < m.from.Index || (e.from.Index == m.from.Index && e.field.Index < m.field.Index) {
			min = i
		}
	}
	return append(append([]edge{}, cycle[min:]...), cycle[:min]...)
}

func cyclePath(cycle []edge, name func(edge) string) []string {
	path := make([]string, 0, len(cycle)+1)
	for _, e := range cycle {
		path = append(path, name(e))
	}
	return append(path, name(cycle[0]))
}

// checkNonNullCycles rejects type cycles made only of non-null, non-list
// fields: no finite value can satisfy them. A nullable field ends the chain
// with null and a list field with the empty list.
func (v *validator) checkNonNullCycles() {
	var nodes []*ir.TypeDef
	for _, t := range v.doc.Types {
		if v.types[t.Name] != t {
			continue
		}
		switch t.Kind {
		case ir.KindObject, ir.KindInterface, ir.KindInput:
			nodes = append(nodes, t)
		}
	}
	next := func(t *ir.TypeDef) []edge {
		var out []edge
		for _, f := range t.Fields {
			if !f.Type.IsNonNull() || f.Type.OfType.Kind != ir.TypeExprKindNamed {
				continue
			}
			to, ok := v.types[f.Type.Unwrap()]
			if !ok {
				continue
			}
			switch to.Kind {
			case ir.KindObject, ir.KindInterface, ir.KindInput:
				out = append(out, edge{from: t, field: f, to: to})
			}
		}
		return out
	}
	for _, cycle := range findCycles(nodes, next) {
		head := cycle[0]
		v.report(diag.NonNullCycle(ir.FieldLocation(head.from, head.field), cyclePath(cycle, func(e edge) string {
			return e.from.Name + "." + e.field.Name
		})))
	}
}

// checkReferenceCycles rejects resolver fields of one type that read each
// other through {{parent.x}}: neither can run before the other.
func (v *validator) checkReferenceCycles() {
	for _, t := range v.doc.Types {
		if t.Kind != ir.KindObject || v.types[t.Name] != t {
			continue
		}
		// One pseudo node per resolver field; Index doubles as field order.
		nodes := map[string]*ir.TypeDef{}
		fields := map[*ir.TypeDef]*ir.FieldDef{}
		var order []*ir.TypeDef
		for _, f := range t.Fields {
			if v.bound.Directive(f).Kind() == directive.KindNone {
				continue
			}
			if _, dup := nodes[f.Name]; dup {
				continue
			}
			n := &ir.TypeDef{Name: f.Name, Index: f.Index}
			nodes[f.Name] = n
			fields[n] = f
			order = append(order, n)
		}
		next := func(n *ir.TypeDef) []edge {
			var out []edge
			for _, name := range directive.ParentFields(v.bound.Directive(fields[n])) {
				if to, ok := nodes[name]; ok {
					out = append(out, edge{from: n, field: fields[n], to: to})
				}
			}
			return out
		}
		for _, cycle := range findCycles(order, next) {
			head := cycle[0]
			v.report(diag.ReferenceCycle(ir.FieldLocation(t, head.field), cyclePath(cycle, func(e edge) string {
				return t.Name + "." + e.field.Name
			})))
		}
	}
}
