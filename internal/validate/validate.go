// Package validate checks a bound document for structural errors and
// produces the validated schema.
//
// Validation is exhaustive: every pass runs regardless of what earlier passes
// found, and the caller receives all diagnostics at once, ordered by
// declaration and deduplicated by kind and location.
package validate

import (
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/ir"
	"github.com/hanpama/graphgate/internal/schema"
)

// Validate checks doc together with its directive bindings. It returns the
// validated schema when there is nothing to report, and a non-empty list of
// diagnostics otherwise; never both.
func Validate(doc *ir.Document, bound *directive.Bound) (*schema.Schema, diag.List) {
	v := newValidator(doc, bound)
	v.checkRoots()
	v.checkTypes()
	v.checkOrphans()
	v.checkReferences()
	v.checkNonNullCycles()
	v.checkReferenceCycles()

	all := make(diag.List, 0, len(bound.Diagnostics)+len(v.diags))
	all = append(all, bound.Diagnostics...)
	all = append(all, v.diags...)
	for _, e := range all {
		if e.Location.File == "" && e.Location.Line > 0 {
			e.Location.File = doc.Source.Path
		}
	}
	if len(all) > 0 {
		return nil, diag.Normalize(all)
	}
	return schema.Build(doc, bound), nil
}

type validator struct {
	doc   *ir.Document
	bound *directive.Bound
	// types maps each name to its first declaration.
	types map[string]*ir.TypeDef
	diags diag.List
}

func newValidator(doc *ir.Document, bound *directive.Bound) *validator {
	v := &validator{doc: doc, bound: bound, types: make(map[string]*ir.TypeDef, len(doc.Types))}
	for _, t := range doc.Types {
		if _, ok := v.types[t.Name]; !ok {
			v.types[t.Name] = t
		}
	}
	return v
}

func (v *validator) report(e *diag.Error) { v.diags = append(v.diags, e) }

// kindOf resolves a type name to its kind. Built-in scalars resolve to
// KindScalar.
func (v *validator) kindOf(name string) (ir.Kind, bool) {
	if ir.BuiltinScalars[name] {
		return ir.KindScalar, true
	}
	t, ok := v.types[name]
	if !ok {
		return "", false
	}
	return t.Kind, true
}

func (v *validator) checkRoots() {
	s := v.doc.Schema
	check := func(index int, kind, name string) {
		if t, ok := v.types[name]; !ok || t.Kind != ir.KindObject {
			loc := s.Location()
			loc.Field, loc.FieldIndex = kind, index
			v.report(diag.RootTypeMissing(loc, kind, name))
		}
	}
	check(0, "query", s.QueryType)
	if s.MutationType != "" {
		check(1, "mutation", s.MutationType)
	}
}

func (v *validator) checkOrphans() {
	for _, t := range v.doc.Orphans {
		v.report(diag.ExtensionTargetMissing(ir.TypeLocation(t), t.Name))
	}
}
