package validate

import (
	"strings"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/ir"
)

// checkReferences resolves the placeholders, batch keys and relative urls of
// every bound resolver.
func (v *validator) checkReferences() {
	for _, t := range v.doc.Types {
		if t.Kind != ir.KindObject {
			continue
		}
		for _, f := range t.Fields {
			d := v.bound.Directive(f)
			if d.Kind() == directive.KindNone {
				continue
			}
			use := resolverUse(f, d.Kind())
			name := string(d.Kind())
			for _, ref := range d.Refs() {
				loc := argLocation(t, f, use, ref.Arg)
				switch ref.Scope {
				case directive.ScopeParent:
					if missing, on := v.resolvePath(t, ref.Path); missing != "" {
						v.report(diag.ParentFieldNotFound(loc, name, missing, on))
					}
				case directive.ScopeArgs:
					if f.Arg(ref.Name()) == nil {
						v.report(diag.ArgumentNotFound(loc, name, ref.Name()))
					}
				}
			}
			v.checkBatchKey(t, f, use, d)
			v.checkBaseURL(t, f, use, d)
		}
	}
}

// resolvePath walks a dotted field path starting at t. It returns the first
// segment that does not resolve and the type it was looked up on.
func (v *validator) resolvePath(t *ir.TypeDef, path []string) (string, string) {
	cur := t
	for i, seg := range path {
		f := cur.Field(seg)
		if f == nil {
			return seg, cur.Name
		}
		if i == len(path)-1 {
			break
		}
		next := v.types[f.Type.Unwrap()]
		if next == nil || (next.Kind != ir.KindObject && next.Kind != ir.KindInterface) {
			// Scalars and enums have no fields.
			return path[i+1], f.Type.Unwrap()
		}
		cur = next
	}
	return "", ""
}

func (v *validator) checkBatchKey(t *ir.TypeDef, f *ir.FieldDef, use *ir.DirectiveUse, d directive.Directive) {
	key := directive.BatchKey(d)
	if key == "" || f.Type.IsList() {
		return
	}
	item := v.types[f.Type.Unwrap()]
	if item == nil || item.Kind != ir.KindObject {
		return
	}
	first := strings.SplitN(key, ".", 2)[0]
	if item.Field(first) == nil {
		v.report(diag.BatchKeyFieldNotFound(argLocation(t, f, use, "batchKey"), string(d.Kind()), first, item.Name))
	}
}

func (v *validator) checkBaseURL(t *ir.TypeDef, f *ir.FieldDef, use *ir.DirectiveUse, d directive.Directive) {
	if v.bound.Settings.BaseURL != "" {
		return
	}
	switch d := d.(type) {
	case *directive.HTTP:
		if d.Relative {
			v.report(diag.RelativeURLWithoutUpstream(argLocation(t, f, use, "url"), d.URL))
		}
	case *directive.GraphQL:
		if d.Relative {
			v.report(diag.RelativeURLWithoutUpstream(argLocation(t, f, use, "endpoint"), d.Endpoint))
		}
	case *directive.Expr, *directive.Literal, directive.None:
	default:
		panic("validate: unhandled directive " + string(d.Kind()))
	}
}

// resolverUse finds the directive application a bound resolver came from.
func resolverUse(f *ir.FieldDef, kind directive.Kind) *ir.DirectiveUse {
	for _, use := range f.Directives {
		if use.Name == string(kind) {
			return use
		}
	}
	return &ir.DirectiveUse{Name: string(kind), Pos: f.Pos}
}

// argLocation locates an argument of the resolver directive on f, using the
// same ordinals the binder does.
func argLocation(t *ir.TypeDef, f *ir.FieldDef, use *ir.DirectiveUse, arg string) diag.Location {
	ordinal := 0
	for _, u := range f.Directives {
		if u == use {
			break
		}
		ordinal += len(u.Arguments) + 1
	}
	for i, a := range use.Arguments {
		if a.Name == arg {
			return ir.DirectiveArgumentLocation(t, f, use, arg, ordinal+i, a.Pos)
		}
	}
	return ir.DirectiveArgumentLocation(t, f, use, arg, ordinal+len(use.Arguments), use.Pos)
}
