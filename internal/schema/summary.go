package schema

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphgate/internal/directive"
)

// Summary is the compact view of a schema printed by `check --schema`.
type Summary struct {
	QueryType    string        `json:"queryType"`
	MutationType string        `json:"mutationType,omitempty"`
	Types        []TypeSummary `json:"types"`
}

type TypeSummary struct {
	Name   string         `json:"name"`
	Kind   TypeKind       `json:"kind"`
	Fields []FieldSummary `json:"fields,omitempty"`
}

type FieldSummary struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Resolver directive.Kind `json:"resolver,omitempty"`
}

// Summarize lists every declared type with its fields in declaration order.
func Summarize(s *Schema) Summary {
	out := Summary{QueryType: s.QueryType, MutationType: s.MutationType, Types: []TypeSummary{}}
	for _, t := range s.Types {
		ts := TypeSummary{Name: t.Name, Kind: t.Kind}
		for _, f := range t.Fields {
			fs := FieldSummary{Name: f.Name, Type: f.Type.String()}
			if k := f.ResolverKind(); k != directive.KindNone {
				fs.Resolver = k
			}
			ts.Fields = append(ts.Fields, fs)
		}
		out.Types = append(out.Types, ts)
	}
	return out
}

// FieldCount is the number of fields across all types.
func (s Summary) FieldCount() int {
	n := 0
	for _, t := range s.Types {
		n += len(t.Fields)
	}
	return n
}

// String renders one line per type and one indented line per field.
func (s Summary) String() string {
	var b strings.Builder
	for _, t := range s.Types {
		fmt.Fprintf(&b, "%s %s\n", strings.ToLower(string(t.Kind)), t.Name)
		for _, f := range t.Fields {
			fmt.Fprintf(&b, "  %s: %s", f.Name, f.Type)
			if f.Resolver != "" {
				fmt.Fprintf(&b, " @%s", f.Resolver)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
