package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hanpama/graphgate/internal/source"
	"github.com/stretchr/testify/require"
)

func TestFileSystemRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.graphql")
	require.NoError(t, os.WriteFile(path, []byte("type Query { a: String }"), 0o644))

	doc, err := source.FileSystem{}.Read(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, doc.Path)
	require.Equal(t, "type Query { a: String }", doc.Text)
}

func TestFileSystemReadMissing(t *testing.T) {
	_, err := source.FileSystem{}.Read(context.Background(), filepath.Join(t.TempDir(), "nope.graphql"))
	var serr *source.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, source.FileNotFound, serr.Code)
	require.Contains(t, err.Error(), "Failed to read file")
	require.Contains(t, err.Error(), "No such file or directory")
}

func TestFileSystemReadDirectory(t *testing.T) {
	_, err := source.FileSystem{}.Read(context.Background(), t.TempDir())
	var serr *source.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, source.IoError, serr.Code)
}

func TestInMemoryRead(t *testing.T) {
	r := source.NewInMemory(map[string]string{"a.graphql": "type Query { a: Int }"})

	doc, err := r.Read(context.Background(), "a.graphql")
	require.NoError(t, err)
	require.Equal(t, "type Query { a: Int }", doc.Text)

	_, err = r.Read(context.Background(), "b.graphql")
	var serr *source.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, source.FileNotFound, serr.Code)
}

func TestErrorReason(t *testing.T) {
	err := &source.Error{Code: source.FileNotFound, Path: "a.graphql"}
	require.Equal(t, "No such file or directory", err.Reason())
	require.NotContains(t, err.Reason(), "a.graphql")
}
