package schema

import (
	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/ir"
	language "github.com/hanpama/graphgate/internal/language"
)

// Build assembles the validated schema from a document and its bindings.
// The caller must have validated doc: names are assumed unique and every
// reference is assumed to resolve.
func Build(doc *ir.Document, bound *directive.Bound) *Schema {
	s := &Schema{
		Source:       doc.Source.Path,
		QueryType:    doc.Schema.QueryType,
		MutationType: doc.Schema.MutationType,
		Settings:     bound.Settings,
		byName:       make(map[string]*Type, len(doc.Types)),
	}
	for _, def := range doc.Types {
		t := buildType(def, bound)
		s.Types = append(s.Types, t)
		s.byName[t.Name] = t
	}
	return s
}

func buildType(def *ir.TypeDef, bound *directive.Bound) *Type {
	t := &Type{
		Name:        def.Name,
		Kind:        TypeKind(def.Kind),
		Description: def.Description,
		Index:       def.Index,
		Interfaces:  append([]string(nil), def.Interfaces...),
	}
	for _, use := range def.Directives {
		if use.Name != "specifiedBy" {
			continue
		}
		for _, a := range use.Arguments {
			if a.Name == "url" && a.Value != nil {
				t.SpecifiedByURL = a.Value.Raw
			}
		}
	}
	for _, m := range def.Members {
		t.PossibleTypes = append(t.PossibleTypes, m.Name)
	}
	for _, v := range def.Values {
		t.EnumValues = append(t.EnumValues, &EnumValue{Name: v.Name})
	}
	for _, f := range def.Fields {
		t.Fields = append(t.Fields, buildField(f, bound))
	}
	return t
}

func buildField(def *ir.FieldDef, bound *directive.Bound) *Field {
	f := &Field{
		Name:        def.Name,
		Description: def.Description,
		Index:       def.Index,
		Type:        buildTypeRef(def.Type),
		Resolver:    bound.Directive(def),
	}
	for _, use := range def.Directives {
		if use.Name != "deprecated" {
			continue
		}
		f.IsDeprecated = true
		for _, a := range use.Arguments {
			if a.Name == "reason" && a.Value != nil {
				f.DeprecationReason = a.Value.Raw
			}
		}
	}
	for _, arg := range def.Args {
		f.Arguments = append(f.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         buildTypeRef(arg.Type),
			DefaultValue: defaultValue(arg.DefaultValue),
		})
	}
	return f
}

func defaultValue(v *language.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func buildTypeRef(t *ir.TypeExpr) *TypeRef {
	switch t.Kind {
	case ir.TypeExprKindNamed:
		return &TypeRef{Kind: TypeRefKindNamed, Named: t.Named}
	case ir.TypeExprKindNonNull:
		return &TypeRef{Kind: TypeRefKindNonNull, OfType: buildTypeRef(t.OfType)}
	case ir.TypeExprKindList:
		return &TypeRef{Kind: TypeRefKindList, OfType: buildTypeRef(t.OfType)}
	}
	panic("unreachable")
}
