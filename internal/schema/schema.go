package schema

import "github.com/hanpama/graphgate/internal/directive"

// Schema is a validated gateway schema. Every type reference resolves and
// every field carries its bound resolver directive.
type Schema struct {
	Source       string             `json:"source"`
	QueryType    string             `json:"queryType"`
	MutationType string             `json:"mutationType,omitempty"`
	Settings     directive.Settings `json:"settings"`
	// Types holds the declared types in declaration order. Built-in scalars
	// are resolvable through Type but not listed.
	Types []*Type `json:"types"`

	byName map[string]*Type
}

// Type returns the named type, including built-in scalars, or nil.
func (s *Schema) Type(name string) *Type {
	if t, ok := s.byName[name]; ok {
		return t
	}
	return builtinTypes[name]
}

// GetQueryType returns the root query type.
func (s *Schema) GetQueryType() *Type { return s.Type(s.QueryType) }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type {
	if s.MutationType == "" {
		return nil
	}
	return s.Type(s.MutationType)
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name          string       `json:"name"`
	Kind          TypeKind     `json:"kind"`
	Description   string       `json:"description,omitempty"`
	Index         int          `json:"-"`
	Fields        []*Field     `json:"fields,omitempty"`        // For OBJECT, INTERFACE and INPUT_OBJECT
	Interfaces    []string     `json:"interfaces,omitempty"`    // For OBJECT and INTERFACE
	PossibleTypes []string     `json:"possibleTypes,omitempty"` // For UNION
	EnumValues    []*EnumValue `json:"enumValues,omitempty"`    // For ENUM

	// SpecifiedByURL comes from @specifiedBy on a custom scalar.
	SpecifiedByURL string `json:"specifiedByURL,omitempty"`
}

// Field returns the field named name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsComposite reports whether values of the type have selectable fields.
func (t *Type) IsComposite() bool {
	return t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// Field represents a field on an object, interface or input object
type Field struct {
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	Index             int                 `json:"-"`
	Type              *TypeRef            `json:"type"`
	Arguments         []*InputValue       `json:"arguments,omitempty"`
	Resolver          directive.Directive `json:"resolver,omitempty"`
	IsDeprecated      bool                `json:"isDeprecated,omitempty"`
	DeprecationReason string              `json:"deprecationReason,omitempty"`
}

// ResolverKind is the kind of the field's resolver directive.
func (f *Field) ResolverKind() directive.Kind {
	if f.Resolver == nil {
		return directive.KindNone
	}
	return f.Resolver.Kind()
}

// Argument returns the argument named name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind `json:"kind"`
	OfType *TypeRef    `json:"ofType,omitempty"` // For List and NonNull
	Named  string      `json:"name,omitempty"`   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

// ListDepth counts the list wrappers around the named type, so [[T!]] is 2.
func (t *TypeRef) ListDepth() int {
	n := 0
	for cur := t; cur != nil; cur = cur.OfType {
		if cur.Kind == TypeRefKindList {
			n++
		}
	}
	return n
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

func (t *TypeRef) String() string { return renderTypeRef(t) }

type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated,omitempty"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

type InputValue struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Type         *TypeRef `json:"type"`
	DefaultValue string   `json:"defaultValue,omitempty"` // GraphQL literal text
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }
