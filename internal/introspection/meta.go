package introspection

import (
	"sort"
	"strings"

	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/schema"
)

// metaTypes are the __-prefixed types every introspection result lists,
// taken from the GraphQL prelude.
func metaTypes() []*schema.Type {
	var out []*schema.Type
	for _, def := range language.Prelude().Definitions {
		if strings.HasPrefix(def.Name, "__") {
			out = append(out, typeFromDefinition(def))
		}
	}
	return out
}

// directives lists the prelude's directive definitions. Gateway directives
// are consumed at compile time and are not part of the served schema.
func (r *resolver) directives() []Directive {
	out := []Directive{}
	for _, d := range language.Prelude().Directives {
		dir := Directive{
			Name:         d.Name,
			Description:  optional(d.Description),
			IsRepeatable: d.IsRepeatable,
			Locations:    []string{},
		}
		for _, loc := range d.Locations {
			dir.Locations = append(dir.Locations, string(loc))
		}
		sort.Strings(dir.Locations)
		var args []*schema.InputValue
		for _, a := range d.Arguments {
			args = append(args, inputValueFromDefinition(a))
		}
		dir.Args = r.inputValues(args)
		out = append(out, dir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeFromDefinition(def *language.Definition) *schema.Type {
	t := &schema.Type{
		Name:          def.Name,
		Kind:          schema.TypeKind(def.Kind),
		Description:   def.Description,
		Interfaces:    def.Interfaces,
		PossibleTypes: def.Types,
	}
	for _, f := range def.Fields {
		field := &schema.Field{Name: f.Name, Description: f.Description, Type: typeRefFromAST(f.Type)}
		if d := f.Directives.ForName("deprecated"); d != nil {
			field.IsDeprecated = true
			if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil {
				field.DeprecationReason = reason.Value.Raw
			}
		}
		for _, a := range f.Arguments {
			field.Arguments = append(field.Arguments, inputValueFromDefinition(a))
		}
		t.Fields = append(t.Fields, field)
	}
	for _, v := range def.EnumValues {
		t.EnumValues = append(t.EnumValues, &schema.EnumValue{Name: v.Name, Description: v.Description})
	}
	return t
}

func inputValueFromDefinition(a *language.ArgumentDefinition) *schema.InputValue {
	iv := &schema.InputValue{Name: a.Name, Description: a.Description, Type: typeRefFromAST(a.Type)}
	if a.DefaultValue != nil {
		iv.DefaultValue = a.DefaultValue.String()
	}
	return iv
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}
