package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loc(typ string, ti int, field string, fi int) Location {
	return Location{Type: typ, TypeIndex: ti, Field: field, FieldIndex: fi, ArgIndex: -1}
}

func TestNormalizeOrdersByDeclaration(t *testing.T) {
	in := List{
		TypeNotFound(loc("User", 1, "posts", 0), "Post"),
		TypeNotFound(loc("Query", 0, "user", 1), "Usr"),
		RootTypeMissing(SchemaLocation(), "query", "Root"),
		DuplicateType(Location{Type: "Query", TypeIndex: 0, FieldIndex: -1, ArgIndex: -1}, "Query"),
	}
	got := Normalize(in).Lines()
	want := []string{
		`MissingRootType schema: query root type "Root" must be a declared object type`,
		`DuplicateTypeName Query: type "Query" is already declared`,
		`UnknownTypeReference Query.user: type "Usr" is not declared`,
		`UnknownTypeReference User.posts: type "Post" is not declared`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	l := loc("Query", 0, "a", 0)
	in := List{
		TypeNotFound(l, "X"),
		TypeNotFound(l, "X"),
		NonNullCycle(l, []string{"Query.a", "Query.a"}),
	}
	got := Normalize(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %v", len(got), got.Lines())
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := List{
		TypeNotFound(loc("B", 1, "x", 0), "X"),
		TypeNotFound(loc("A", 0, "x", 0), "X"),
	}
	_ = Normalize(in)
	if in[0].Location.Type != "B" {
		t.Fatalf("input reordered")
	}
}

func TestErrorStringWithPosition(t *testing.T) {
	l := loc("Query", 0, "a", 0)
	l.File, l.Line, l.Column = "schema.graphql", 3, 5
	e := TypeNotFound(l, "X")
	want := `UnknownTypeReference Query.a: type "X" is not declared (schema.graphql:3:5)`
	if got := e.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestListError(t *testing.T) {
	l := List{TypeNotFound(loc("Query", 0, "a", 0), "X")}
	want := "Validation Error\n- UnknownTypeReference Query.a: type \"X\" is not declared\n"
	if got := l.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
