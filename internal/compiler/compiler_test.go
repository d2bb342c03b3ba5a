package compiler_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphgate/internal/compiler"
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/graph"
	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/nplusone"
	"github.com/hanpama/graphgate/internal/source"
)

func fixture(t *testing.T, name string) source.Document {
	t.Helper()
	path := filepath.Join("testdata", name)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return source.Document{Path: path, Text: string(content)}
}

func doc(text string) source.Document {
	return source.Document{Path: "schema.graphql", Text: text}
}

func diagnostics(t *testing.T, err error) diag.List {
	t.Helper()
	var diags diag.List
	require.ErrorAs(t, err, &diags)
	return diags
}

func TestScenarioA_SingleType(t *testing.T) {
	res, err := compiler.Check(context.Background(), fixture(t, "scenario_a.graphql"),
		compiler.CheckOptions{NPlusOne: true, Summary: true})
	require.NoError(t, err)
	require.Empty(t, res.Findings)
	require.NotNil(t, res.Summary)
	require.Len(t, res.Summary.Types, 1)
	require.Equal(t, 1, res.Summary.FieldCount())
	require.Equal(t, "object Query\n  hello: String\n", res.Summary.String())
}

func TestScenarioB_UnbatchedChildOfList(t *testing.T) {
	res, err := compiler.Check(context.Background(), fixture(t, "scenario_b.graphql"),
		compiler.CheckOptions{NPlusOne: true})
	require.NoError(t, err)
	require.Nil(t, res.Summary)
	require.Equal(t, []string{
		"UnbatchedHTTP User.posts: O(n) upstream calls per query along Query.users -> User.posts",
	}, nplusone.Lines(res.Findings))
	require.Equal(t, graph.FieldRef{Type: "User", Field: "posts"}, res.Findings[0].Field())
}

func TestScenarioB_FindingsOmittedUnlessRequested(t *testing.T) {
	res, err := compiler.Check(context.Background(), fixture(t, "scenario_b.graphql"), compiler.CheckOptions{})
	require.NoError(t, err)
	require.Empty(t, res.Findings)
}

func TestScenarioC_UnknownType(t *testing.T) {
	_, err := compiler.Check(context.Background(), fixture(t, "scenario_c.graphql"), compiler.CheckOptions{})
	diags := diagnostics(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, diag.UnknownTypeReference, diags[0].Kind)
	require.Equal(t, "Query", diags[0].Location.Type)
	require.Equal(t, "user", diags[0].Location.Field)
	require.Equal(t, compiler.ExitValidation, compiler.ExitCode(err))
}

func TestScenarioD_ParseErrorStopsPipeline(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	var stages []events.Stage
	eventbus.On(bus, func(_ context.Context, e events.StageFinish) { stages = append(stages, e.Stage) })

	_, err := compiler.Check(context.Background(), fixture(t, "scenario_d.graphql"), compiler.CheckOptions{})
	var parseErr *language.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, filepath.Join("testdata", "scenario_d.graphql"), parseErr.File)
	require.Equal(t, compiler.ExitParse, compiler.ExitCode(err))
	require.Equal(t, []events.Stage{events.StageParse}, stages)
}

func TestStageEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	var stages []events.Stage
	var finish events.CompileFinish
	eventbus.On(bus, func(_ context.Context, e events.StageFinish) { stages = append(stages, e.Stage) })
	eventbus.On(bus, func(_ context.Context, e events.CompileFinish) { finish = e })

	_, err := compiler.Compile(context.Background(), fixture(t, "scenario_b.graphql"))
	require.NoError(t, err)
	require.Equal(t, []events.Stage{
		events.StageParse, events.StageBind, events.StageValidate, events.StageGraph, events.StageAnalyze,
	}, stages)
	require.NoError(t, finish.Err)
	require.Len(t, finish.Findings, 1)

	stages = nil
	_, err = compiler.Compile(context.Background(), fixture(t, "scenario_c.graphql"))
	require.Error(t, err)
	require.Equal(t, []events.Stage{events.StageParse, events.StageBind, events.StageValidate}, stages)
	require.Len(t, finish.Diagnostics, 1)
}

func TestCompileFixture(t *testing.T) {
	c, err := compiler.Compile(context.Background(), fixture(t, "jsonplaceholder.graphql"))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8000", c.Schema.Settings.Addr())
	require.Equal(t, "Query", c.Graph.Root)
	require.Equal(t, []string{
		"UnbatchedHTTP Post.user: O(n) upstream calls per query along Query.posts -> Post.user",
	}, nplusone.Lines(c.Findings))
}

func TestIdempotence(t *testing.T) {
	for _, name := range []string{"scenario_b.graphql", "scenario_c.graphql", "jsonplaceholder.graphql"} {
		t.Run(name, func(t *testing.T) {
			first := outcome(t, fixture(t, name))
			for i := 0; i < 3; i++ {
				if diff := cmp.Diff(first, outcome(t, fixture(t, name))); diff != "" {
					t.Fatalf("compile is not idempotent (-first +again):\n%s", diff)
				}
			}
		})
	}
}

// outcome renders a compile result as the lines a user would see.
func outcome(t *testing.T, d source.Document) []string {
	t.Helper()
	c, err := compiler.Compile(context.Background(), d)
	if err != nil {
		return diagnostics(t, err).Lines()
	}
	return nplusone.Lines(c.Findings)
}

func TestReorderingKeepsTheSameSet(t *testing.T) {
	parts := []string{
		`schema @upstream(baseURL: "http://api.local") { query: Query }`,
		`type Query { users: [User] @http(url: "/users") posts: [Post] @http(url: "/posts") }`,
		`type User { id: Int! posts: [Post] @http(url: "/users/{{parent.id}}/posts") bad: Nope }`,
		`type Post { id: Int! userId: Int! author: User @http(url: "/users/{{parent.userId}}") worse: Nope2 }`,
	}
	forward := strings.Join(parts, "\n")
	reversed := strings.Join([]string{parts[0], parts[1], parts[3], parts[2]}, "\n")

	a, b := withoutPositions(outcome(t, doc(forward))), withoutPositions(outcome(t, doc(reversed)))
	require.NotEqual(t, a, b, "reported order follows declaration order")
	slices.Sort(a)
	slices.Sort(b)
	require.Equal(t, a, b)

	// Same for findings once the errors are gone.
	fixed := func(s string) string { return strings.NewReplacer(" bad: Nope", "", " worse: Nope2", "").Replace(s) }
	fa, fb := outcome(t, doc(fixed(forward))), outcome(t, doc(fixed(reversed)))
	require.Len(t, fa, 2)
	require.Equal(t, []string{fa[1], fa[0]}, fb, "findings follow declaration order")
	slices.Sort(fa)
	slices.Sort(fb)
	require.Equal(t, fa, fb)
}

func withoutPositions(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if at := strings.LastIndex(l, " ("); at >= 0 {
			l = l[:at]
		}
		out[i] = l
	}
	return out
}

func TestCycleSoundness(t *testing.T) {
	_, err := compiler.Compile(context.Background(), doc(`
type Query { a: A }
type A { b: B! }
type B { a: A! }
`))
	diags := diagnostics(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, diag.UnresolvableCycle, diags[0].Kind)

	_, err = compiler.Compile(context.Background(), doc(`
type Query { a: A }
type A { b: B! }
type B { a: A }
`))
	require.NoError(t, err)
}

func TestNPlusOneMonotonicity(t *testing.T) {
	base := `
schema @upstream(baseURL: "http://api.local") { query: Query }
type Query { users: [User] @http(url: "/users") }
type User {
  id: Int!
  profile: Profile @http(url: "/users/{{parent.id}}/profile")
  team: Team @http(url: "/users/{{parent.id}}/team")
}
type Profile { userId: Int! }
type Team { id: Int! }
`
	before := outcome(t, doc(base))
	require.Equal(t, []string{
		"UnbatchedHTTP User.profile: O(n) upstream calls per query along Query.users -> User.profile",
		"UnbatchedHTTP User.team: O(n) upstream calls per query along Query.users -> User.team",
	}, before)

	batched := strings.Replace(base, `/profile")`, `/profile", batchKey: "userId")`, 1)
	after := outcome(t, doc(batched))
	require.Equal(t, before[1:], after)
}

func TestBatchKeyRemovesFixtureFinding(t *testing.T) {
	d := fixture(t, "jsonplaceholder.graphql")
	before := outcome(t, d)
	require.Equal(t, []string{
		"UnbatchedHTTP Post.user: O(n) upstream calls per query along Query.posts -> Post.user",
	}, before)

	d.Text = strings.Replace(d.Text, `/users/{{parent.userId}}")`, `/users/{{parent.userId}}", batchKey: "id")`, 1)
	require.Empty(t, outcome(t, d))
}

func TestBatchKeyOnListField(t *testing.T) {
	_, err := compiler.Compile(context.Background(), doc(`
schema @upstream(baseURL: "http://api.local") { query: Query }
type Query { users: [User] @http(url: "/users", batchKey: "id") }
type User { id: Int! }
`))
	diags := diagnostics(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, diag.IncompatibleWithCardinality, diags[0].Kind)
}

func TestValidatedSchemasNeverProduceGraphCycles(t *testing.T) {
	for name, sdl := range map[string]string{
		"mutual": `
schema @upstream(baseURL: "http://api.local") { query: Query }
type Query { users: [User] @http(url: "/users") }
type User { id: Int! posts: [Post] @http(url: "/users/{{parent.id}}/posts") }
type Post { userId: Int! author: User @http(url: "/users/{{parent.userId}}") }
`,
		"siblings": `
schema @upstream(baseURL: "http://api.local") { query: Query }
type Query { user: User @http(url: "/user") }
type User {
  c: Int @expr(body: "parent.b + 1")
  b: Int @http(url: "/b/{{parent.a}}")
  a: Int @http(url: "/a")
  friend: User @http(url: "/users/{{parent.c}}")
}
`,
	} {
		t.Run(name, func(t *testing.T) {
			c, err := compiler.Compile(context.Background(), doc(sdl))
			require.NoError(t, err)
			var cycle *graph.CycleError
			require.False(t, errors.As(err, &cycle))
			for _, e := range c.Graph.Edges {
				require.NotEqual(t, e.From, e.To)
			}
		})
	}
}

func TestCheckAll(t *testing.T) {
	r := source.NewInMemory(map[string]string{
		"a.graphql": "type Query { hello: String }",
		"c.graphql": "type Query { user: Usr }",
	})
	reports := compiler.CheckAll(context.Background(), r, []string{"a.graphql", "missing.graphql", "c.graphql"},
		compiler.CheckOptions{Summary: true})
	require.Len(t, reports, 3)

	require.Equal(t, "a.graphql", reports[0].Path)
	require.NoError(t, reports[0].Err)
	require.Equal(t, 1, reports[0].Result.Summary.FieldCount())

	var readErr *source.Error
	require.ErrorAs(t, reports[1].Err, &readErr)
	require.Equal(t, source.FileNotFound, readErr.Code)
	require.Equal(t, compiler.ExitUsage, compiler.ExitCode(reports[1].Err))

	require.Equal(t, compiler.ExitValidation, compiler.ExitCode(reports[2].Err))
	require.Equal(t, reports[1].Err, compiler.FirstError(reports))
}

type fakeRuntime struct{ served *compiler.Compiled }

func (f *fakeRuntime) Serve(_ context.Context, c *compiler.Compiled) error {
	f.served = c
	return nil
}

func TestStartOnlyServesValidDocuments(t *testing.T) {
	rt := &fakeRuntime{}
	err := compiler.Start(context.Background(), fixture(t, "scenario_c.graphql"), rt)
	require.Error(t, err)
	require.Nil(t, rt.served)

	require.NoError(t, compiler.Start(context.Background(), fixture(t, "scenario_a.graphql"), rt))
	require.NotNil(t, rt.served)
	require.Equal(t, "Query", rt.served.Schema.QueryType)
}

func TestExitCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{nil, compiler.ExitOK},
		{&language.ParseError{Code: language.UnexpectedToken}, compiler.ExitParse},
		{fmt.Errorf("check: %w", diag.List{{Kind: diag.UnknownTypeReference}}), compiler.ExitValidation},
		{&compiler.FindingsError{Path: "a.graphql"}, compiler.ExitNPlusOne},
		{&compiler.ServerError{Addr: ":8000", Err: errors.New("boom")}, compiler.ExitServer},
		{&source.Error{Code: source.IoError, Path: "x"}, compiler.ExitUsage},
		{errors.New("unknown flag"), compiler.ExitUsage},
	} {
		require.Equal(t, tc.want, compiler.ExitCode(tc.err), "%v", tc.err)
	}
}

func TestServerErrorPortInUse(t *testing.T) {
	err := &compiler.ServerError{Addr: ":8000", Err: fmt.Errorf("listen tcp :8000: %w", syscall.EADDRINUSE)}
	require.True(t, err.PortInUse())
	require.Equal(t, "Server Failed: The port is already in use", err.Error())

	other := &compiler.ServerError{Addr: ":8000", Err: errors.New("boom")}
	require.False(t, other.PortInUse())
	require.Equal(t, "Server Failed: boom", other.Error())
}
