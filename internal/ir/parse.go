package ir

import (
	language "github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/source"
)

// DefaultQueryType is the query root used when the document has no schema
// definition.
const DefaultQueryType = "Query"

// Parse parses doc into the typed AST. A malformed document yields a
// *language.ParseError and no Document.
func Parse(doc source.Document) (*Document, error) {
	sd, err := language.ParseSchema(doc.Path, doc.Text)
	if err != nil {
		return nil, err
	}

	out := &Document{
		Source: doc,
		Schema: &SchemaDef{QueryType: DefaultQueryType},
	}
	for _, def := range sd.Schema {
		projectSchemaDefinition(out.Schema, def)
	}
	for _, ext := range sd.SchemaExtension {
		projectSchemaDefinition(out.Schema, ext)
	}

	byName := make(map[string]*TypeDef, len(sd.Definitions))
	for _, node := range sd.Definitions {
		t := projectDefinition(len(out.Types), node)
		out.Types = append(out.Types, t)
		if _, dup := byName[t.Name]; !dup {
			byName[t.Name] = t
		}
	}
	for _, node := range sd.Extensions {
		base, ok := byName[node.Name]
		if !ok {
			out.Orphans = append(out.Orphans, projectDefinition(len(out.Types)+len(out.Orphans), node))
			continue
		}
		extendDefinition(base, node)
	}
	return out, nil
}

func projectSchemaDefinition(s *SchemaDef, def *language.SchemaDefinition) {
	if !s.Declared {
		s.Declared = true
		s.Pos = pos(def.Position)
	}
	for _, op := range def.OperationTypes {
		switch op.Operation {
		case language.Query:
			s.QueryType = op.Type
		case language.Mutation:
			s.MutationType = op.Type
		}
	}
	s.Directives = append(s.Directives, projectDirectives(def.Directives)...)
}

func projectDefinition(index int, node *language.Definition) *TypeDef {
	t := &TypeDef{
		Name:        node.Name,
		Description: node.Description,
		Kind:        projectKind(node.Kind),
		Index:       index,
		Pos:         pos(node.Position),
	}
	extendDefinition(t, node)
	return t
}

func extendDefinition(t *TypeDef, node *language.Definition) {
	t.Interfaces = append(t.Interfaces, node.Interfaces...)
	t.Directives = append(t.Directives, projectDirectives(node.Directives)...)
	for _, member := range node.Types {
		// gqlparser does not record member positions; use the definition's.
		t.Members = append(t.Members, &NamedRef{Name: member, Pos: pos(node.Position)})
	}
	for _, v := range node.EnumValues {
		t.Values = append(t.Values, &EnumValueDef{Name: v.Name, Index: len(t.Values), Pos: pos(v.Position)})
	}
	for _, fieldNode := range node.Fields {
		t.Fields = append(t.Fields, projectField(len(t.Fields), fieldNode))
	}
}

func projectKind(k language.DefinitionKind) Kind {
	switch k {
	case language.Object:
		return KindObject
	case language.Interface:
		return KindInterface
	case language.Union:
		return KindUnion
	case language.Enum:
		return KindEnum
	case language.Scalar:
		return KindScalar
	case language.InputObject:
		return KindInput
	default:
		panic("unreachable")
	}
}

func projectField(index int, node *language.FieldDefinition) *FieldDef {
	f := &FieldDef{
		Name:        node.Name,
		Description: node.Description,
		Index:       index,
		Type:        projectTypeExpr(node.Type),
		Directives:  projectDirectives(node.Directives),
		Pos:         pos(node.Position),
	}
	for _, argNode := range node.Arguments {
		f.Args = append(f.Args, &ArgumentDef{
			Name:         argNode.Name,
			Description:  argNode.Description,
			Index:        len(f.Args),
			Type:         projectTypeExpr(argNode.Type),
			DefaultValue: argNode.DefaultValue,
			Pos:          pos(argNode.Position),
		})
	}
	return f
}

func projectDirectives(list language.DirectiveList) []*DirectiveUse {
	if len(list) == 0 {
		return nil
	}
	out := make([]*DirectiveUse, 0, len(list))
	for _, d := range list {
		use := &DirectiveUse{Name: d.Name, Pos: pos(d.Position)}
		for _, a := range d.Arguments {
			use.Arguments = append(use.Arguments, &DirectiveArg{Name: a.Name, Value: a.Value, Pos: pos(a.Position)})
		}
		out = append(out, use)
	}
	return out
}

func projectTypeExpr(node *language.Type) *TypeExpr {
	if node == nil {
		return nil
	}
	if node.NonNull {
		return &TypeExpr{
			Kind: TypeExprKindNonNull,
			Pos:  pos(node.Position),
			OfType: projectTypeExpr(&language.Type{
				NamedType: node.NamedType,
				Elem:      node.Elem,
				NonNull:   false,
				Position:  node.Position,
			}),
		}
	}
	if node.Elem != nil {
		return &TypeExpr{
			Kind:   TypeExprKindList,
			Pos:    pos(node.Position),
			OfType: projectTypeExpr(node.Elem),
		}
	}
	return &TypeExpr{Kind: TypeExprKindNamed, Named: node.NamedType, Pos: pos(node.Position)}
}

func pos(p *language.Position) Pos {
	if p == nil {
		return Pos{}
	}
	return Pos{Line: p.Line, Column: p.Column}
}
