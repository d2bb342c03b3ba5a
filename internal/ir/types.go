package ir

import (
	"strings"

	language "github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/source"
)

// Document is the typed AST of one schema document. Types keep declaration
// order; extensions are merged into the type they extend.
type Document struct {
	Source source.Document
	Schema *SchemaDef
	Types  []*TypeDef
	// Orphans are extensions whose base type is not declared.
	Orphans []*TypeDef
}

// SchemaDef holds the root operation types and schema-level directives.
type SchemaDef struct {
	QueryType    string
	MutationType string
	Directives   []*DirectiveUse
	Declared     bool
	Pos          Pos
}

type Kind string

const (
	KindObject    Kind = "OBJECT"
	KindInterface Kind = "INTERFACE"
	KindUnion     Kind = "UNION"
	KindEnum      Kind = "ENUM"
	KindScalar    Kind = "SCALAR"
	KindInput     Kind = "INPUT_OBJECT"
)

// IsOutput reports whether values of this kind may be returned by a field.
func (k Kind) IsOutput() bool { return k != KindInput }

// IsInput reports whether values of this kind may be passed as arguments.
func (k Kind) IsInput() bool { return k == KindInput || k == KindScalar || k == KindEnum }

type TypeDef struct {
	Name        string
	Description string
	Kind        Kind
	Index       int
	Fields      []*FieldDef
	Interfaces  []string
	Members     []*NamedRef
	Values      []*EnumValueDef
	Directives  []*DirectiveUse
	Pos         Pos
}

// Field returns the first field declared with name, or nil.
func (t *TypeDef) Field(name string) *FieldDef {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type FieldDef struct {
	Name        string
	Description string
	Index       int
	Type        *TypeExpr
	Args        []*ArgumentDef
	Directives  []*DirectiveUse
	Pos         Pos
}

// Arg returns the first argument declared with name, or nil.
func (f *FieldDef) Arg(name string) *ArgumentDef {
	for _, a := range f.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type ArgumentDef struct {
	Name         string
	Description  string
	Index        int
	Type         *TypeExpr
	DefaultValue *language.Value
	Pos          Pos
}

type EnumValueDef struct {
	Name  string
	Index int
	Pos   Pos
}

// NamedRef is a bare type name with the position it was written at.
type NamedRef struct {
	Name string
	Pos  Pos
}

// DirectiveUse is a directive application as written in the document.
type DirectiveUse struct {
	Name      string
	Arguments []*DirectiveArg
	Pos       Pos
}

type DirectiveArg struct {
	Name  string
	Value *language.Value
	Pos   Pos
}

// Pos is a 1-based source position. The zero value means unknown.
type Pos struct {
	Line   int
	Column int
}

// TypeExpr represents a GraphQL type expression (e.g. String, [String!], String!).
type TypeExpr struct {
	Kind   TypeExprKind
	OfType *TypeExpr
	Named  string
	Pos    Pos
}

type TypeExprKind string

const (
	TypeExprKindNamed   TypeExprKind = "NAMED"
	TypeExprKindList    TypeExprKind = "LIST"
	TypeExprKindNonNull TypeExprKind = "NON_NULL"
)

// Unwrap returns the innermost named type.
func (t *TypeExpr) Unwrap() string {
	if t == nil {
		return ""
	}
	if t.Kind == TypeExprKindNamed {
		return t.Named
	}
	return t.OfType.Unwrap()
}

// IsNonNull reports whether the outermost wrapper is Non-Null.
func (t *TypeExpr) IsNonNull() bool {
	return t != nil && t.Kind == TypeExprKindNonNull
}

// IsList reports whether the type is a list, possibly wrapped in Non-Null.
func (t *TypeExpr) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeExprKindList {
		return true
	}
	return t.Kind == TypeExprKindNonNull && t.OfType != nil && t.OfType.Kind == TypeExprKindList
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "Unknown"
	}

	switch t.Kind {
	case TypeExprKindNamed:
		return t.Named
	case TypeExprKindList:
		return "[" + t.OfType.String() + "]"
	case TypeExprKindNonNull:
		inner := t.OfType.String()
		if strings.HasSuffix(inner, "!") {
			return inner
		}
		return inner + "!"
	default:
		return "Unknown"
	}
}

// BuiltinScalars are always in scope.
var BuiltinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}
