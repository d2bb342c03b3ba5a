// Package introspection renders a compiled schema as the standard GraphQL
// introspection result, the JSON shape client tooling reads from __schema.
package introspection

import (
	"sort"

	"github.com/hanpama/graphgate/internal/schema"
)

type Result struct {
	Schema SchemaInfo `json:"__schema"`
}

type SchemaInfo struct {
	Description      *string     `json:"description"`
	QueryType        *TypeName   `json:"queryType"`
	MutationType     *TypeName   `json:"mutationType"`
	SubscriptionType *TypeName   `json:"subscriptionType"`
	Types            []FullType  `json:"types"`
	Directives       []Directive `json:"directives"`
}

type TypeName struct {
	Name string `json:"name"`
}

type FullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   *string      `json:"description"`
	Fields        []Field      `json:"fields"`
	InputFields   []InputValue `json:"inputFields"`
	Interfaces    []TypeRef    `json:"interfaces"`
	EnumValues    []EnumValue  `json:"enumValues"`
	PossibleTypes []TypeRef    `json:"possibleTypes"`

	// SpecifiedByURL is set for custom scalars only.
	SpecifiedByURL *string `json:"specifiedByURL"`
}

type Field struct {
	Name              string       `json:"name"`
	Description       *string      `json:"description"`
	Args              []InputValue `json:"args"`
	Type              TypeRef      `json:"type"`
	IsDeprecated      bool         `json:"isDeprecated"`
	DeprecationReason *string      `json:"deprecationReason"`
}

type InputValue struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	Type              TypeRef `json:"type"`
	DefaultValue      *string `json:"defaultValue"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type EnumValue struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

// TypeRef is a possibly wrapped type reference. Name is set only on the
// innermost named type.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

type Directive struct {
	Name         string       `json:"name"`
	Description  *string      `json:"description"`
	IsRepeatable bool         `json:"isRepeatable"`
	Locations    []string     `json:"locations"`
	Args         []InputValue `json:"args"`
}

// Options mirror the includeDeprecated arguments of the introspection
// fields.
type Options struct {
	IncludeDeprecated bool
}

// Build renders s. Types, fields and arguments are sorted by name; the
// built-in scalars and the __ meta types are always listed.
func Build(s *schema.Schema, opt Options) *Result {
	r := &resolver{schema: s, opt: opt, implementors: map[string][]string{}, meta: map[string]*schema.Type{}}
	for _, t := range metaTypes() {
		r.meta[t.Name] = t
	}
	for _, t := range s.Types {
		for _, iface := range t.Interfaces {
			r.implementors[iface] = append(r.implementors[iface], t.Name)
		}
	}

	info := SchemaInfo{
		QueryType:  &TypeName{Name: s.QueryType},
		Directives: r.directives(),
	}
	if s.MutationType != "" {
		info.MutationType = &TypeName{Name: s.MutationType}
	}
	for _, t := range r.types() {
		info.Types = append(info.Types, r.fullType(t))
	}
	return &Result{Schema: info}
}

type resolver struct {
	schema       *schema.Schema
	opt          Options
	implementors map[string][]string
	meta         map[string]*schema.Type
}

func (r *resolver) lookup(name string) *schema.Type {
	if t := r.schema.Type(name); t != nil {
		return t
	}
	return r.meta[name]
}

var builtinScalars = []string{"Boolean", "Float", "ID", "Int", "String"}

func (r *resolver) types() []*schema.Type {
	seen := map[string]bool{}
	var out []*schema.Type
	add := func(t *schema.Type) {
		if t == nil || seen[t.Name] {
			return
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	for _, t := range r.schema.Types {
		add(t)
	}
	for _, name := range builtinScalars {
		add(r.schema.Type(name))
	}
	for _, t := range r.meta {
		add(t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *resolver) fullType(t *schema.Type) FullType {
	ft := FullType{Kind: string(t.Kind), Name: t.Name, Description: optional(t.Description)}
	switch t.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		ft.Fields = r.fields(t)
		ft.Interfaces = r.namedRefs(t.Interfaces)
		if t.Kind == schema.TypeKindInterface {
			ft.PossibleTypes = r.namedRefs(r.implementors[t.Name])
		}
	case schema.TypeKindUnion:
		ft.PossibleTypes = r.namedRefs(t.PossibleTypes)
	case schema.TypeKindEnum:
		ft.EnumValues = r.enumValues(t)
	case schema.TypeKindInputObject:
		ft.InputFields = r.inputFields(t)
	case schema.TypeKindScalar:
		ft.SpecifiedByURL = optional(t.SpecifiedByURL)
	}
	return ft
}

func (r *resolver) fields(t *schema.Type) []Field {
	out := []Field{}
	for _, f := range t.Fields {
		if !r.opt.IncludeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, Field{
			Name:              f.Name,
			Description:       optional(f.Description),
			Args:              r.inputValues(f.Arguments),
			Type:              r.typeRef(f.Type),
			IsDeprecated:      f.IsDeprecated,
			DeprecationReason: deprecationReason(f.IsDeprecated, f.DeprecationReason),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *resolver) inputFields(t *schema.Type) []InputValue {
	out := []InputValue{}
	for _, f := range t.Fields {
		out = append(out, InputValue{Name: f.Name, Description: optional(f.Description), Type: r.typeRef(f.Type)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *resolver) enumValues(t *schema.Type) []EnumValue {
	out := []EnumValue{}
	for _, ev := range t.EnumValues {
		if !r.opt.IncludeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, EnumValue{
			Name:              ev.Name,
			Description:       optional(ev.Description),
			IsDeprecated:      ev.IsDeprecated,
			DeprecationReason: deprecationReason(ev.IsDeprecated, ev.DeprecationReason),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *resolver) inputValues(args []*schema.InputValue) []InputValue {
	out := []InputValue{}
	for _, a := range args {
		out = append(out, InputValue{
			Name:         a.Name,
			Description:  optional(a.Description),
			Type:         r.typeRef(a.Type),
			DefaultValue: optional(a.DefaultValue),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *resolver) typeRef(t *schema.TypeRef) TypeRef {
	switch t.Kind {
	case schema.TypeRefKindList, schema.TypeRefKindNonNull:
		inner := r.typeRef(t.OfType)
		return TypeRef{Kind: string(t.Kind), OfType: &inner}
	}
	return r.named(t.Named)
}

func (r *resolver) named(name string) TypeRef {
	kind := string(schema.TypeKindScalar)
	if def := r.lookup(name); def != nil {
		kind = string(def.Kind)
	}
	return TypeRef{Kind: kind, Name: &name}
}

func (r *resolver) namedRefs(names []string) []TypeRef {
	out := make([]TypeRef, 0, len(names))
	for _, n := range names {
		out = append(out, r.named(n))
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Name < *out[j].Name })
	return out
}

func deprecationReason(deprecated bool, reason string) *string {
	if !deprecated {
		return nil
	}
	return &reason
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
