package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphgate/internal/compiler"
)

const fixtures = "../../internal/compiler/testdata"

func fixture(name string) string { return filepath.Join(fixtures, name) }

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeDoc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.graphql")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestNoCommand(t *testing.T) {
	code, _, stderr := execute(t)
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "missing command")
	require.Contains(t, stderr, "Usage:")

	code, _, stderr = execute(t, "")
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "unknown command")
}

func TestCheckRequiresFilePath(t *testing.T) {
	code, _, stderr := execute(t, "check")
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "requires at least 1 arg(s)")
	require.Contains(t, stderr, "check <FILE_PATH>")
}

func TestCheckMissingFile(t *testing.T) {
	code, _, stderr := execute(t, "check", filepath.Join(t.TempDir(), "nope.graphql"))
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "Failed to read file")
}

func TestCheckValid(t *testing.T) {
	code, stdout, stderr := execute(t, "check", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.Contains(t, stdout, "No errors found")
	require.Empty(t, stderr)
}

func TestCheckValidationError(t *testing.T) {
	code, stdout, stderr := execute(t, "check", fixture("scenario_c.graphql"))
	require.Equal(t, compiler.ExitValidation, code)
	require.Contains(t, stderr, `UnknownTypeReference Query.user: type "Usr" is not declared`)
	require.Contains(t, stderr, "Error: Validation Error")
	require.NotContains(t, stdout, "No errors found")
}

func TestCheckParseError(t *testing.T) {
	code, _, stderr := execute(t, "check", fixture("scenario_d.graphql"))
	require.Equal(t, compiler.ExitParse, code)
	require.Contains(t, stderr, "Error: Parse Error")
}

func TestCheckNPlusOneAndSchema(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--n-plus-one-queries", "--schema", fixture("jsonplaceholder.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.Contains(t, stdout, "object Query\n")
	require.Contains(t, stdout, "N+1 queries: 1\n")
	require.Contains(t, stdout, "UnbatchedHTTP Post.user: O(n) upstream calls per query along Query.posts -> Post.user")
	require.Contains(t, stdout, "No errors found")
}

func TestCheckNoFindings(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--n-plus-one-queries", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.Contains(t, stdout, "N+1 queries: 0\n")
}

func TestCheckFailOnNPlusOne(t *testing.T) {
	code, _, stderr := execute(t, "check", "--fail-on-n-plus-one", fixture("scenario_b.graphql"))
	require.Equal(t, compiler.ExitNPlusOne, code)
	require.Contains(t, stderr, "Error: N+1 Queries Found")

	code, _, _ = execute(t, "check", "--fail-on-n-plus-one", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitOK, code)
}

func TestCheckMultipleFiles(t *testing.T) {
	code, stdout, stderr := execute(t, "check", fixture("scenario_a.graphql"), fixture("scenario_c.graphql"))
	require.Equal(t, compiler.ExitValidation, code)
	require.Contains(t, stdout, "==> "+fixture("scenario_a.graphql"))
	require.Contains(t, stdout, "==> "+fixture("scenario_c.graphql"))
	require.Contains(t, stderr, "Error: Validation Error")
}

func TestCheckJSON(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--format", "json", "--n-plus-one-queries",
		fixture("scenario_b.graphql"), fixture("scenario_c.graphql"))
	require.Equal(t, compiler.ExitValidation, code)

	var views []reportView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))
	require.Len(t, views, 2)
	require.True(t, views[0].Valid)
	require.Equal(t, []string{
		"UnbatchedHTTP User.posts: O(n) upstream calls per query along Query.users -> User.posts",
	}, views[0].Findings)
	require.False(t, views[1].Valid)
	require.Len(t, views[1].Errors, 1)
}

func TestCheckYAML(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--format", "yaml", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.Contains(t, stdout, "valid: true")
	require.Contains(t, stdout, "path: "+fixture("scenario_a.graphql"))
}

func TestCheckUnknownFormat(t *testing.T) {
	code, _, stderr := execute(t, "check", "--format", "xml", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, `unknown format "xml"`)
}

func TestCheckFormatFromEnvironment(t *testing.T) {
	t.Setenv("GRAPHGATE_FORMAT", "json")
	code, stdout, _ := execute(t, "check", fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.True(t, json.Valid([]byte(stdout)), stdout)
}

func TestCheckConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "graphgate.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("n-plus-one-queries: true\n"), 0o644))

	code, stdout, _ := execute(t, "check", "--config", cfg, fixture("scenario_b.graphql"))
	require.Equal(t, compiler.ExitOK, code)
	require.Contains(t, stdout, "N+1 queries: 1")

	code, _, stderr := execute(t, "check", "--config", filepath.Join(t.TempDir(), "missing.yaml"), fixture("scenario_a.graphql"))
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "read config")
}

func TestStartMissingFile(t *testing.T) {
	code, _, stderr := execute(t, "start", filepath.Join(t.TempDir(), "nope.graphql"))
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "Error: No such file or directory")
}

func TestStartLogLevel(t *testing.T) {
	code, _, stderr := execute(t, "start", fixture("scenario_a.graphql"), "--log-level")
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, "flag needs an argument: --log-level")

	code, _, stderr = execute(t, "start", fixture("scenario_a.graphql"), "--log-level", "verbose")
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, `invalid log level "verbose"`)

	code, _, stderr = execute(t, "start", fixture("scenario_a.graphql"), "--shutdown-timeout", "soon")
	require.Equal(t, compiler.ExitUsage, code)
	require.Contains(t, stderr, `invalid argument "soon" for "--shutdown-timeout"`)
}

func TestStartInvalidConfiguration(t *testing.T) {
	code, _, stderr := execute(t, "start", fixture("scenario_c.graphql"))
	require.Equal(t, compiler.ExitValidation, code)
	require.Contains(t, stderr, "UnknownTypeReference")
	require.Contains(t, stderr, "Error: Invalid Configuration")

	code, _, stderr = execute(t, "start", fixture("scenario_d.graphql"))
	require.Equal(t, compiler.ExitParse, code)
	require.Contains(t, stderr, "Error: Invalid Configuration")
}

func TestStartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	path := writeDoc(t, fmt.Sprintf(`schema @server(hostname: "127.0.0.1", port: %d) { query: Query }
type Query { hello: String }
`, port))
	code, _, stderr := execute(t, "start", "--log-level", "ERROR", "--shutdown-timeout", "1s", path)
	require.Equal(t, compiler.ExitServer, code)
	require.Contains(t, stderr, "Error: Server Failed")
	require.Contains(t, stderr, "The port is already in use")
}
