package directive

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"

	"github.com/hanpama/graphgate/internal/ir"
)

// exprEnv declares the variables an @expr body may read. parent is dynamic
// because its shape depends on the enclosing type.
var exprEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("parent", cel.DynType),
		cel.Variable("value", cel.DynType),
		cel.Variable("args", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
	)
})

var exprScopes = map[string]bool{"parent": true, "value": true, "args": true, "env": true, "headers": true}

// compileExpr parses and type-checks body and extracts the placeholders it
// reads.
func compileExpr(body string) (*cel.Ast, []Ref, error) {
	env, err := exprEnv()
	if err != nil {
		return nil, nil, err
	}
	parsed, issues := env.Parse(body)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("%s", flattenIssues(issues.Err()))
	}
	checked, issues := env.Check(parsed)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("%s", flattenIssues(issues.Err()))
	}
	refs, err := exprRefs(checked)
	if err != nil {
		return nil, nil, err
	}
	return checked, refs, nil
}

// exprRefs returns the longest select chains rooted at a declared variable,
// e.g. parent.user.id yields one ref and not also parent.user.
func exprRefs(checked *cel.Ast) ([]Ref, error) {
	type found struct {
		id  int64
		ref Ref
	}
	var (
		all     []found
		inner   = map[int64]bool{}
		walkErr error
	)
	celast.PreOrderVisit(checked.NativeRep().Expr(), celast.NewExprVisitor(func(e celast.Expr) {
		if e.Kind() != celast.SelectKind {
			return
		}
		inner[e.AsSelect().Operand().ID()] = true
		root, path := selectChain(e)
		if !exprScopes[root] {
			// comprehension variables and the like
			return
		}
		ref, err := newRef("body", root, path)
		if err != nil {
			if walkErr == nil {
				walkErr = err
			}
			return
		}
		all = append(all, found{id: e.ID(), ref: ref})
	}))
	if walkErr != nil {
		return nil, walkErr
	}
	var refs []Ref
	for _, f := range all {
		if !inner[f.id] {
			refs = append(refs, f.ref)
		}
	}
	return refs, nil
}

// selectChain unwinds a.b.c into ("a", [b c]). root is empty when the chain
// does not start at an identifier.
func selectChain(e celast.Expr) (string, []string) {
	var path []string
	for e.Kind() == celast.SelectKind {
		sel := e.AsSelect()
		path = append([]string{sel.FieldName()}, path...)
		e = sel.Operand()
	}
	if e.Kind() != celast.IdentKind {
		return "", nil
	}
	return e.AsIdent(), path
}

func flattenIssues(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(l)
		// cel renders a caret line and a source echo under each issue.
		if l == "" || strings.HasPrefix(l, "|") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "; ")
}

// exprOutputFits reports whether an expression of type out may produce a
// value for a field of type t. Dynamic results are accepted and checked at
// runtime.
func exprOutputFits(out *cel.Type, t *ir.TypeExpr, kindOf func(string) (ir.Kind, bool)) bool {
	if out == nil || t == nil {
		return true
	}
	switch out.Kind() {
	case cel.DynKind, cel.AnyKind:
		return true
	case cel.NullTypeKind:
		return !t.IsNonNull()
	}
	if t.IsNonNull() {
		t = t.OfType
	}
	if t.Kind == ir.TypeExprKindList {
		return out.Kind() == cel.ListKind
	}
	switch t.Named {
	case "Int":
		return out.Kind() == cel.IntKind || out.Kind() == cel.UintKind
	case "Float":
		return out.Kind() == cel.DoubleKind || out.Kind() == cel.IntKind || out.Kind() == cel.UintKind
	case "String":
		return out.Kind() == cel.StringKind
	case "ID":
		return out.Kind() == cel.StringKind || out.Kind() == cel.IntKind
	case "Boolean":
		return out.Kind() == cel.BoolKind
	}
	kind, ok := kindOf(t.Named)
	if !ok {
		return true
	}
	switch kind {
	case ir.KindEnum:
		return out.Kind() == cel.StringKind
	case ir.KindObject, ir.KindInterface, ir.KindUnion:
		return out.Kind() == cel.MapKind || out.Kind() == cel.StructKind
	default:
		return true
	}
}
