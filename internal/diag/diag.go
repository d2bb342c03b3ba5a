// Package diag holds the diagnostics produced while binding and validating a
// schema document. Diagnostics render as one stable line each so they can be
// captured by line-oriented logs and compared in snapshot tests.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	// Binder
	UnknownDirective            Kind = "UnknownDirective"
	MissingRequiredArgument     Kind = "MissingRequiredArgument"
	UnknownArgument             Kind = "UnknownArgument"
	ArgumentTypeMismatch        Kind = "ArgumentTypeMismatch"
	IncompatibleWithCardinality Kind = "IncompatibleWithCardinality"
	ConflictingDirectives       Kind = "ConflictingDirectives"
	InvalidArgumentValue        Kind = "InvalidArgumentValue"

	// Validator
	DuplicateTypeName        Kind = "DuplicateTypeName"
	DuplicateFieldName       Kind = "DuplicateFieldName"
	DuplicateArgumentName    Kind = "DuplicateArgumentName"
	UnknownTypeReference     Kind = "UnknownTypeReference"
	InvalidTypeReference     Kind = "InvalidTypeReference"
	MissingRootType          Kind = "MissingRootType"
	UnknownFieldReference    Kind = "UnknownFieldReference"
	UnknownArgumentReference Kind = "UnknownArgumentReference"
	MissingBaseURL           Kind = "MissingBaseURL"
	UnresolvableCycle        Kind = "UnresolvableCycle"
)

// Location pins a diagnostic to a declaration. Index fields carry declaration
// order and are -1 when the diagnostic is not scoped that deep.
type Location struct {
	Type       string `json:"type,omitempty"`
	Field      string `json:"field,omitempty"`
	Argument   string `json:"argument,omitempty"`
	TypeIndex  int    `json:"-"`
	FieldIndex int    `json:"-"`
	ArgIndex   int    `json:"-"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
}

// SchemaLocation is the location of document-level diagnostics. It sorts
// before every type.
func SchemaLocation() Location {
	return Location{TypeIndex: -1, FieldIndex: -1, ArgIndex: -1}
}

func (l Location) String() string {
	s := l.Type
	if s == "" {
		s = "schema"
	}
	if l.Field != "" {
		s += "." + l.Field
	}
	if l.Argument != "" {
		s += "(" + l.Argument + ")"
	}
	return s
}

// Error is a single diagnostic.
type Error struct {
	Kind     Kind     `json:"kind"`
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// String renders the stable single-line form: "<Kind> <Location>: <message>"
// followed by the source position when one is known.
func (e *Error) String() string {
	line := fmt.Sprintf("%s %s: %s", e.Kind, e.Location, e.Message)
	if e.Location.File != "" && e.Location.Line > 0 {
		line += fmt.Sprintf(" (%s:%d:%d)", e.Location.File, e.Location.Line, e.Location.Column)
	}
	return line
}

func (e *Error) Error() string { return e.String() }

// List is an ordered set of diagnostics. It implements error so that the
// compiler can return it directly.
type List []*Error

func (l List) Error() string {
	var b strings.Builder
	b.WriteString("Validation Error\n")
	for _, e := range l {
		b.WriteString("- ")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Lines renders every diagnostic on its own line.
func (l List) Lines() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.String()
	}
	return out
}

// Normalize orders diagnostics by declaration (type, field, argument) keeping
// emission order for ties, and drops repeats of the same kind at the same
// location.
func Normalize(l List) List {
	sorted := make(List, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Location, sorted[j].Location
		if a.TypeIndex != b.TypeIndex {
			return a.TypeIndex < b.TypeIndex
		}
		if a.FieldIndex != b.FieldIndex {
			return a.FieldIndex < b.FieldIndex
		}
		return a.ArgIndex < b.ArgIndex
	})
	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	for _, e := range sorted {
		key := string(e.Kind) + "\x00" + e.Location.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Count returns how many diagnostics of each kind the list carries.
func (l List) Count() map[Kind]int {
	m := make(map[Kind]int)
	for _, e := range l {
		m[e.Kind]++
	}
	return m
}
