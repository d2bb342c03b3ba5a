package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hanpama/graphgate/internal/directive"
)

// Render produces SDL from the Schema, resolver directives included.
// Types keep declaration order so the output diffs cleanly against the input.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	renderSchemaDefinition(&b, s)

	for _, typ := range s.Types {
		switch typ.Kind {
		case TypeKindScalar:
			renderScalar(&b, typ)
		case TypeKindEnum:
			renderEnum(&b, typ)
		case TypeKindInputObject:
			renderContainer(&b, "input", typ)
		case TypeKindObject:
			renderContainer(&b, "type", typ)
		case TypeKindInterface:
			renderContainer(&b, "interface", typ)
		case TypeKindUnion:
			renderUnion(&b, typ)
		}
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

// ----- render helpers -----

func renderSchemaDefinition(b *strings.Builder, s *Schema) {
	b.WriteString("schema")
	set := s.Settings
	if set.Hostname != directive.DefaultHostname || set.Port != directive.DefaultPort {
		fmt.Fprintf(b, " @server(hostname: %s, port: %d)", strconv.Quote(set.Hostname), set.Port)
	}
	if set.BaseURL != "" {
		fmt.Fprintf(b, " @upstream(baseURL: %s)", strconv.Quote(set.BaseURL))
	}
	b.WriteString(" {\n  query: ")
	b.WriteString(s.QueryType)
	b.WriteString("\n")
	if s.MutationType != "" {
		b.WriteString("  mutation: ")
		b.WriteString(s.MutationType)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderDescription(b *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
	// Escape quotes in description
	escaped := strings.ReplaceAll(desc, "\"", "\\\"")
	b.WriteString(indent)
	b.WriteString(escaped)
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString("\"\"\"\n")
}

func renderScalar(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	if typ.SpecifiedByURL != "" {
		fmt.Fprintf(b, " @specifiedBy(url: %s)", strconv.Quote(typ.SpecifiedByURL))
	}
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		renderDescription(b, "  ", val.Description)
		b.WriteString("  ")
		b.WriteString(val.Name)
		renderDeprecated(b, val.IsDeprecated, val.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderContainer(b *strings.Builder, keyword string, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString(keyword)
	b.WriteString(" ")
	b.WriteString(typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(typ.Interfaces, " & "))
	}
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		renderField(b, field)
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("union ")
	b.WriteString(typ.Name)
	b.WriteString(" = ")
	b.WriteString(strings.Join(typ.PossibleTypes, " | "))
	b.WriteString("\n\n")
}

func renderField(b *strings.Builder, field *Field) {
	renderDescription(b, "  ", field.Description)
	b.WriteString("  ")
	b.WriteString(field.Name)
	if len(field.Arguments) > 0 {
		b.WriteString("(")
		for i, arg := range field.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.Name)
			b.WriteString(": ")
			b.WriteString(renderTypeRef(arg.Type))
			if arg.DefaultValue != "" {
				b.WriteString(" = ")
				b.WriteString(arg.DefaultValue)
			}
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(renderTypeRef(field.Type))
	renderResolver(b, field.Resolver)
	renderDeprecated(b, field.IsDeprecated, field.DeprecationReason)
	b.WriteString("\n")
}

func renderDeprecated(b *strings.Builder, deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteString(")")
	}
}

type renderArg struct {
	name  string
	value string
}

func renderResolver(b *strings.Builder, d directive.Directive) {
	var name string
	var args []renderArg
	quoted := func(k, v string) {
		if v != "" {
			args = append(args, renderArg{k, strconv.Quote(v)})
		}
	}
	switch d := d.(type) {
	case nil, directive.None:
		return
	case *directive.HTTP:
		name = "http"
		quoted("url", d.URL)
		if d.Method != "GET" {
			quoted("method", d.Method)
		}
		quoted("body", d.Body)
		quoted("batchKey", d.BatchKey)
	case *directive.GraphQL:
		name = "graphQL"
		quoted("endpoint", d.Endpoint)
		quoted("query", d.Query)
		quoted("batchKey", d.BatchKey)
	case *directive.Expr:
		name = "expr"
		quoted("body", d.Source)
	case *directive.Literal:
		name = "const"
		args = append(args, renderArg{"data", renderValue(d.Value)})
	default:
		panic("schema: unhandled directive " + string(d.Kind()))
	}
	b.WriteString(" @")
	b.WriteString(name)
	b.WriteString("(")
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.name)
		b.WriteString(": ")
		b.WriteString(a.value)
	}
	b.WriteString(")")
}

func renderTypeRef(typeRef *TypeRef) string {
	if typeRef == nil {
		return ""
	}

	switch typeRef.Kind {
	case TypeRefKindNamed:
		return typeRef.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(typeRef.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(typeRef.OfType) + "!"
	default:
		return ""
	}
}

// renderValue renders a constant as a GraphQL literal. Object keys are
// sorted for deterministic output.
func renderValue(value any) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		var parts []string
		for _, item := range v {
			parts = append(parts, renderValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			parts = append(parts, k+": "+renderValue(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
