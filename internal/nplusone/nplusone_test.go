package nplusone_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/graph"
	"github.com/hanpama/graphgate/internal/ir"
	"github.com/hanpama/graphgate/internal/nplusone"
	"github.com/hanpama/graphgate/internal/source"
	"github.com/hanpama/graphgate/internal/validate"
)

func analyze(t *testing.T, sdl string) []nplusone.Finding {
	t.Helper()
	doc, err := ir.Parse(source.Document{Path: "schema.graphql", Text: `schema @upstream(baseURL: "http://api.local") { query: Query }
` + sdl})
	require.NoError(t, err)
	s, diags := validate.Validate(doc, directive.NewBinder(directive.DefaultCatalog(), doc).Bind())
	require.Empty(t, diags)
	g, err := graph.Build(s)
	require.NoError(t, err)
	return nplusone.Analyze(g)
}

func requireFindings(t *testing.T, want []string, got []nplusone.Finding) {
	t.Helper()
	if diff := cmp.Diff(want, nplusone.Lines(got)); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestUnbatchedChildOfList(t *testing.T) {
	got := analyze(t, `
type Query { posts: [Post] @http(url: "/posts") }
type Post { id: Int! userId: Int! user: User @http(url: "/users/{{parent.userId}}") }
type User { id: Int! }
`)
	requireFindings(t, []string{
		"UnbatchedHTTP Post.user: O(n) upstream calls per query along Query.posts -> Post.user",
	}, got)
	require.Equal(t, graph.NodeID(1), got[0].Node)
	require.Equal(t, graph.FieldRef{Type: "Post", Field: "user"}, got[0].Field())
}

func TestBatchKeySuppressesFinding(t *testing.T) {
	got := analyze(t, `
type Query { users: [User] @http(url: "/users") }
type User {
  id: Int!
  latest: Post @http(url: "/posts", batchKey: "userId")
  todos: [Todo] @graphQL(endpoint: "/graphql", query: "{ todos { id } }")
}
type Post { userId: Int! }
type Todo { id: Int! }
`)
	requireFindings(t, []string{
		"UnbatchedGraphQL User.todos: O(n) upstream calls per query along Query.users -> User.todos",
	}, got)
}

func TestLocalDirectivesNeverFanOut(t *testing.T) {
	got := analyze(t, `
type Query { users: [User] @http(url: "/users") }
type User {
  id: Int!
  handle: String @expr(body: "'@' + string(parent.id)")
  kind: String @const(data: "user")
}
`)
	require.Empty(t, got)
}

func TestRootFieldsAreNotAmplified(t *testing.T) {
	got := analyze(t, `
type Query {
  users: [User] @http(url: "/users")
  user(id: Int!): User @http(url: "/users/{{args.id}}")
}
type User { id: Int! }
`)
	require.Empty(t, got)
}

func TestNestedListsFanOut(t *testing.T) {
	got := analyze(t, `
type Query { users: [User] @http(url: "/users") }
type User { id: Int! posts: [Post] @http(url: "/users/{{parent.id}}/posts") }
type Post { id: Int! userId: Int! comments: [Comment] @http(url: "/posts/{{parent.id}}/comments") }
type Comment { id: Int! }
`)
	requireFindings(t, []string{
		"UnbatchedHTTP User.posts: O(n) upstream calls per query along Query.users -> User.posts",
		"UnbatchedHTTP Post.comments: O(n^2) upstream calls per query along Query.users -> User.posts -> Post.comments",
	}, got)
}

func TestFindingsFollowNodeOrder(t *testing.T) {
	got := analyze(t, `
type Query { users: [User] @http(url: "/users") }
type User {
  id: Int!
  b: Int @http(url: "/b/{{parent.id}}")
  a: Int @http(url: "/a/{{parent.id}}")
}
`)
	requireFindings(t, []string{
		"UnbatchedHTTP User.b: O(n) upstream calls per query along Query.users -> User.b",
		"UnbatchedHTTP User.a: O(n) upstream calls per query along Query.users -> User.a",
	}, got)
}

func TestFindingsFollowDeclarationOrder(t *testing.T) {
	query := `type Query { users: [User] @http(url: "/users") posts: [Post] @http(url: "/posts") }
`
	user := `type User { id: Int! avatar: String @http(url: "/avatars/{{parent.id}}") }
`
	post := `type Post { id: Int! userId: Int! author: User @http(url: "/users/{{parent.userId}}") }
`
	avatar := "UnbatchedHTTP User.avatar: O(n) upstream calls per query along Query.users -> User.avatar"
	author := "UnbatchedHTTP Post.author: O(n) upstream calls per query along Query.posts -> Post.author"

	requireFindings(t, []string{avatar, author}, analyze(t, query+user+post))
	requireFindings(t, []string{author, avatar}, analyze(t, query+post+user))
}

func TestDeeperListRouteRaisesFanOut(t *testing.T) {
	got := analyze(t, `
type Query {
  posts: [Post] @http(url: "/posts")
  users: [User] @http(url: "/users")
}
type User { id: Int! posts: [Post] }
type Post { id: Int! comments: [Comment] @http(url: "/posts/{{parent.id}}/comments") }
type Comment { id: Int! }
`)
	requireFindings(t, []string{
		"UnbatchedHTTP Post.comments: O(n^2) upstream calls per query along Query.users -> User.posts -> Post.comments",
	}, got)
}

func TestBatchKeyOnSingularListItemChild(t *testing.T) {
	sdl := `
type Query { posts: [Post] @http(url: "/posts") }
type Post {
  id: Int!
  userId: Int!
  user: User @http(url: "/users/{{parent.userId}}")
  album: Album @http(url: "/albums/{{parent.id}}")
}
type User { id: Int! }
type Album { id: Int! }
`
	before := analyze(t, sdl)
	requireFindings(t, []string{
		"UnbatchedHTTP Post.user: O(n) upstream calls per query along Query.posts -> Post.user",
		"UnbatchedHTTP Post.album: O(n) upstream calls per query along Query.posts -> Post.album",
	}, before)

	after := analyze(t, strings.Replace(sdl, `/users/{{parent.userId}}")`, `/users/{{parent.userId}}", batchKey: "id")`, 1))
	require.Equal(t, nplusone.Lines(before[1:]), nplusone.Lines(after))
}
