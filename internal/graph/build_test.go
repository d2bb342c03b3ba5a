package graph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/graph"
	"github.com/hanpama/graphgate/internal/ir"
	"github.com/hanpama/graphgate/internal/source"
	"github.com/hanpama/graphgate/internal/validate"
)

const header = `schema @upstream(baseURL: "http://api.local") { query: Query }
`

func build(t *testing.T, sdl string) *graph.Graph {
	t.Helper()
	doc, err := ir.Parse(source.Document{Path: "schema.graphql", Text: header + sdl})
	require.NoError(t, err)
	s, diags := validate.Validate(doc, directive.NewBinder(directive.DefaultCatalog(), doc).Bind())
	require.Empty(t, diags)
	g, err := graph.Build(s)
	require.NoError(t, err)
	return g
}

type edgeLine struct {
	From, To string
	Kind     graph.EdgeKind
	PerItem  bool
	Batched  bool
}

func edges(g *graph.Graph) []edgeLine {
	var out []edgeLine
	for _, e := range g.Edges {
		out = append(out, edgeLine{
			From:    g.Node(e.From).Ref().String(),
			To:      g.Node(e.To).Ref().String(),
			Kind:    e.Kind,
			PerItem: e.PerItem,
			Batched: e.Batched,
		})
	}
	return out
}

func refs(path []graph.FieldRef) []string {
	out := make([]string, len(path))
	for i, r := range path {
		out[i] = r.String()
	}
	return out
}

func TestBuildListChild(t *testing.T) {
	g := build(t, `
type Query { posts: [Post] @http(url: "/posts") }
type Post { id: Int! userId: Int! user: User @http(url: "/users/{{parent.userId}}") }
type User { id: Int! }
`)
	require.Equal(t, "Query", g.Root)
	require.Len(t, g.Nodes, 2)

	posts, ok := g.Lookup("Query", "posts")
	require.True(t, ok)
	require.Equal(t, graph.NodeID(0), posts.ID)
	require.True(t, posts.List)
	require.False(t, posts.ListAmplified)

	user, ok := g.Lookup("Post", "user")
	require.True(t, ok)
	require.Equal(t, graph.NodeID(1), user.ID)
	require.True(t, user.ListAmplified)
	require.Equal(t, 1, user.ListDepth)
	require.Equal(t, []string{"Query.posts", "Post.user"}, refs(user.Path))

	want := []edgeLine{{From: "Query.posts", To: "Post.user", Kind: graph.EdgeParent, PerItem: true}}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, g.Incoming(user.ID), 1)
	require.Len(t, g.Outgoing(posts.ID), 1)
}

func TestBuildBatchedEdge(t *testing.T) {
	g := build(t, `
type Query { users: [User] @http(url: "/users") }
type User { id: Int! latest: Post @http(url: "/posts", batchKey: "userId") }
type Post { userId: Int! }
`)
	want := []edgeLine{{From: "Query.users", To: "User.latest", Kind: graph.EdgeParent, PerItem: true, Batched: true}}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSiblingEdges(t *testing.T) {
	g := build(t, `
type Query { user: User @http(url: "/user") }
type User {
  b: Int @http(url: "/b/{{parent.a}}")
  a: Int @http(url: "/a")
  c: Int @expr(body: "parent.id + 1")
  id: Int!
}
`)
	want := []edgeLine{
		{From: "Query.user", To: "User.b", Kind: graph.EdgeParent},
		{From: "User.a", To: "User.b", Kind: graph.EdgeSibling},
		{From: "Query.user", To: "User.a", Kind: graph.EdgeParent},
		{From: "Query.user", To: "User.c", Kind: graph.EdgeParent},
	}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
	b, _ := g.Lookup("User", "b")
	a, _ := g.Lookup("User", "a")
	require.Less(t, b.ID, a.ID, "ids follow declaration order")
}

func TestBuildLaterListRouteAmplifies(t *testing.T) {
	g := build(t, `
type Query {
  user: User @http(url: "/user")
  users: [User] @http(url: "/users")
}
type User { id: Int! posts: [Post] @http(url: "/users/{{parent.id}}/posts") }
type Post { id: Int! }
`)
	posts, ok := g.Lookup("User", "posts")
	require.True(t, ok)
	require.Equal(t, graph.NodeID(2), posts.ID)
	require.True(t, posts.ListAmplified)
	require.Equal(t, []string{"Query.users", "User.posts"}, refs(posts.Path))

	want := []edgeLine{
		{From: "Query.user", To: "User.posts", Kind: graph.EdgeParent},
	}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildNestedLists(t *testing.T) {
	g := build(t, `
type Query { users: [User] }
type User { posts: [Post] }
type Post { id: Int! comments: [Comment] @http(url: "/posts/{{parent.id}}/comments") }
type Comment { id: Int! }
`)
	require.Len(t, g.Nodes, 1)
	comments := g.Node(0)
	require.Equal(t, 2, comments.ListDepth)
	require.Equal(t, []string{"Query.users", "User.posts", "Post.comments"}, refs(comments.Path))
	require.Empty(t, g.Edges)
}

func TestBuildDeeperListRouteWins(t *testing.T) {
	g := build(t, `
type Query {
  posts: [Post] @http(url: "/posts")
  users: [User] @http(url: "/users")
}
type User { id: Int! posts: [Post] }
type Post { id: Int! comments: [Comment] @http(url: "/posts/{{parent.id}}/comments") }
type Comment { id: Int! }
`)
	comments, ok := g.Lookup("Post", "comments")
	require.True(t, ok)
	require.Equal(t, 2, comments.ListDepth)
	require.Equal(t, []string{"Query.users", "User.posts", "Post.comments"}, refs(comments.Path))

	want := []edgeLine{{From: "Query.posts", To: "Post.comments", Kind: graph.EdgeParent, PerItem: true}}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildNodeIDsFollowDeclarationOrder(t *testing.T) {
	g := build(t, `
type Query { users: [User] @http(url: "/users") posts: [Post] @http(url: "/posts") }
type Post { id: Int! userId: Int! author: User @http(url: "/users/{{parent.userId}}") }
type User { id: Int! avatar: String @http(url: "/avatars/{{parent.id}}") }
`)
	var order []string
	for _, n := range g.Nodes {
		order = append(order, n.Ref().String())
	}
	require.Equal(t, []string{"Query.users", "Query.posts", "Post.author", "User.avatar"}, order)

	avatar, _ := g.Lookup("User", "avatar")
	require.Equal(t, []string{"Query.users", "User.avatar"}, refs(avatar.Path))
}

func TestBuildRecursiveTypesStayAcyclic(t *testing.T) {
	g := build(t, `
type Query { users: [User] @http(url: "/users") }
type User {
  id: Int!
  posts: [Post] @http(url: "/users/{{parent.id}}/posts")
}
type Post {
  userId: Int!
  author: User @http(url: "/users/{{parent.userId}}")
}
`)
	want := []edgeLine{
		{From: "Query.users", To: "User.posts", Kind: graph.EdgeParent, PerItem: true},
		{From: "User.posts", To: "Post.author", Kind: graph.EdgeParent, PerItem: true},
	}
	if diff := cmp.Diff(want, edges(g)); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
	for _, e := range g.Edges {
		require.Less(t, e.From, e.To)
	}
}

func TestBuildUnionsAndInterfaces(t *testing.T) {
	g := build(t, `
type Query {
  feed: [Item]
  node: Node
}
interface Node { id: Int! }
union Item = Photo | Note
type Photo implements Node { id: Int! url: String @http(url: "/photos/{{parent.id}}") }
type Note implements Node { id: Int! text: String @expr(body: "'note'") }
`)
	photo, ok := g.Lookup("Photo", "url")
	require.True(t, ok)
	require.True(t, photo.ListAmplified)
	note, ok := g.Lookup("Note", "text")
	require.True(t, ok)
	require.Equal(t, directive.KindExpr, note.Kind)
	require.Equal(t, []string{"Query.feed", "Note.text"}, refs(note.Path))
}

func TestBuildUnreachableTypesHaveNoNodes(t *testing.T) {
	g := build(t, `
type Query { a: Int }
type Orphan { b: Int @http(url: "/b") }
`)
	require.Empty(t, g.Nodes)
	_, ok := g.Lookup("Orphan", "b")
	require.False(t, ok)
}
