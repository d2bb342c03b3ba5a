package validate

import (
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/ir"
)

func (v *validator) checkTypes() {
	for _, t := range v.doc.Types {
		if first := v.types[t.Name]; first != t || ir.BuiltinScalars[t.Name] {
			v.report(diag.DuplicateType(ir.TypeLocation(t), t.Name))
		}
		switch t.Kind {
		case ir.KindObject, ir.KindInterface:
			v.checkInterfaces(t)
			v.checkOutputFields(t)
		case ir.KindInput:
			v.checkInputFields(t)
		case ir.KindUnion:
			v.checkMembers(t)
		case ir.KindEnum:
			v.checkEnumValues(t)
		}
	}
}

func (v *validator) checkInterfaces(t *ir.TypeDef) {
	for _, name := range t.Interfaces {
		kind, ok := v.kindOf(name)
		switch {
		case !ok:
			v.report(diag.TypeNotFound(ir.TypeLocation(t), name))
		case kind != ir.KindInterface:
			v.report(diag.TypeNotInterface(ir.TypeLocation(t), name))
		}
	}
}

func (v *validator) checkOutputFields(t *ir.TypeDef) {
	seen := map[string]bool{}
	for _, f := range t.Fields {
		loc := ir.FieldLocation(t, f)
		if seen[f.Name] {
			v.report(diag.DuplicateField(loc, "field", f.Name, t.Name))
		}
		seen[f.Name] = true

		name := f.Type.Unwrap()
		if kind, ok := v.kindOf(name); !ok {
			v.report(diag.TypeNotFound(loc, name))
		} else if !kind.IsOutput() {
			v.report(diag.TypeNotOutput(loc, name))
		}
		v.checkArguments(t, f)
	}
}

func (v *validator) checkArguments(t *ir.TypeDef, f *ir.FieldDef) {
	seen := map[string]bool{}
	for _, a := range f.Args {
		loc := ir.ArgumentLocation(t, f, a)
		if seen[a.Name] {
			v.report(diag.DuplicateArgument(loc, a.Name))
		}
		seen[a.Name] = true

		name := a.Type.Unwrap()
		if kind, ok := v.kindOf(name); !ok {
			v.report(diag.TypeNotFound(loc, name))
		} else if !kind.IsInput() {
			v.report(diag.TypeNotInput(loc, name))
		}
	}
}

func (v *validator) checkInputFields(t *ir.TypeDef) {
	seen := map[string]bool{}
	for _, f := range t.Fields {
		loc := ir.FieldLocation(t, f)
		if seen[f.Name] {
			v.report(diag.DuplicateField(loc, "input field", f.Name, t.Name))
		}
		seen[f.Name] = true

		name := f.Type.Unwrap()
		if kind, ok := v.kindOf(name); !ok {
			v.report(diag.TypeNotFound(loc, name))
		} else if !kind.IsInput() {
			v.report(diag.TypeNotInput(loc, name))
		}
	}
}

func (v *validator) checkMembers(t *ir.TypeDef) {
	for _, m := range t.Members {
		kind, ok := v.kindOf(m.Name)
		switch {
		case !ok:
			v.report(diag.TypeNotFound(ir.TypeLocation(t), m.Name))
		case kind != ir.KindObject:
			v.report(diag.UnionMemberNotObject(ir.TypeLocation(t), m.Name))
		}
	}
}

func (v *validator) checkEnumValues(t *ir.TypeDef) {
	seen := map[string]bool{}
	for _, ev := range t.Values {
		if seen[ev.Name] {
			loc := ir.TypeLocation(t)
			loc.Field, loc.FieldIndex = ev.Name, ev.Index
			loc.Line, loc.Column = ev.Pos.Line, ev.Pos.Column
			v.report(diag.DuplicateField(loc, "enum value", ev.Name, t.Name))
		}
		seen[ev.Name] = true
	}
}
