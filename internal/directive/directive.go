// Package directive binds the resolver directives written on schema fields
// into typed descriptors.
//
// Directive is a closed union: HTTP, GraphQL, Expr, Literal and None are the
// only implementations. Code that needs to treat variants differently must
// switch over all of them and panic on anything else so that a new variant
// fails loudly wherever it is not handled.
package directive

import (
	"github.com/google/cel-go/cel"
)

type Kind string

const (
	KindHTTP    Kind = "http"
	KindGraphQL Kind = "graphQL"
	KindExpr    Kind = "expr"
	KindLiteral Kind = "const"
	KindNone    Kind = "none"
)

type Directive interface {
	Kind() Kind
	// Refs lists the placeholders the directive reads, in source order.
	Refs() []Ref
	sealed()
}

// HTTP fetches the field from a REST upstream.
type HTTP struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	Body     string `json:"body,omitempty"`
	BatchKey string `json:"batchKey,omitempty"`
	// Relative is set when URL has no scheme and must be joined with the
	// upstream base URL.
	Relative bool  `json:"relative,omitempty"`
	Deps     []Ref `json:"refs,omitempty"`
}

// GraphQL fetches the field from a GraphQL upstream.
type GraphQL struct {
	Endpoint string `json:"endpoint"`
	Query    string `json:"query"`
	// Operation is the name of the single operation in Query, if it has one.
	Operation string `json:"operation,omitempty"`
	BatchKey  string `json:"batchKey,omitempty"`
	Relative  bool   `json:"relative,omitempty"`
	Deps      []Ref  `json:"refs,omitempty"`
}

// Expr computes the field from a CEL expression.
type Expr struct {
	Source string `json:"body"`
	// Output is the checked result type of the expression.
	Output string   `json:"output"`
	AST    *cel.Ast `json:"-"`
	Deps   []Ref    `json:"refs,omitempty"`
}

// Literal resolves the field to a constant.
type Literal struct {
	Value any `json:"data"`
}

// None marks a field resolved by plain traversal of its parent value.
type None struct{}

func (*HTTP) Kind() Kind    { return KindHTTP }
func (*GraphQL) Kind() Kind { return KindGraphQL }
func (*Expr) Kind() Kind    { return KindExpr }
func (*Literal) Kind() Kind { return KindLiteral }
func (None) Kind() Kind     { return KindNone }

func (d *HTTP) Refs() []Ref    { return d.Deps }
func (d *GraphQL) Refs() []Ref { return d.Deps }
func (d *Expr) Refs() []Ref    { return d.Deps }
func (*Literal) Refs() []Ref   { return nil }
func (None) Refs() []Ref       { return nil }

func (*HTTP) sealed()    {}
func (*GraphQL) sealed() {}
func (*Expr) sealed()    {}
func (*Literal) sealed() {}
func (None) sealed()     {}

// BatchKey returns the batch key declared by a remote directive.
func BatchKey(d Directive) string {
	switch d := d.(type) {
	case *HTTP:
		return d.BatchKey
	case *GraphQL:
		return d.BatchKey
	case *Expr, *Literal, None:
		return ""
	default:
		panic("directive: unhandled variant " + string(d.Kind()))
	}
}

// IsRemote reports whether resolving the directive costs an upstream call.
func IsRemote(d Directive) bool {
	switch d.(type) {
	case *HTTP, *GraphQL:
		return true
	case *Expr, *Literal, None:
		return false
	default:
		panic("directive: unhandled variant " + string(d.Kind()))
	}
}

type Scope string

const (
	ScopeParent  Scope = "parent"
	ScopeArgs    Scope = "args"
	ScopeEnv     Scope = "env"
	ScopeHeaders Scope = "headers"
)

// Ref is one placeholder read by a directive, e.g. {{parent.user.id}} is
// Ref{Scope: ScopeParent, Path: ["user", "id"]}.
type Ref struct {
	Scope Scope    `json:"scope"`
	Path  []string `json:"path"`
	// Arg is the directive argument the placeholder was written in.
	Arg string `json:"arg"`
}

// Name is the first path segment: the parent field or argument read.
func (r Ref) Name() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[0]
}

func (r Ref) String() string {
	s := string(r.Scope)
	for _, p := range r.Path {
		s += "." + p
	}
	return s
}

// ParentFields returns the distinct parent fields read by d, in first-use
// order.
func ParentFields(d Directive) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range d.Refs() {
		if r.Scope != ScopeParent || seen[r.Name()] {
			continue
		}
		seen[r.Name()] = true
		out = append(out, r.Name())
	}
	return out
}
