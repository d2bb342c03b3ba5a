package source

import (
	"context"
	"io/fs"
)

// InMemory is a Reader backed by a map of path to content. Used in tests
// and by the admin server for posted documents.
type InMemory struct {
	files map[string]string
}

// NewInMemory creates a reader over the given files.
func NewInMemory(files map[string]string) *InMemory {
	m := &InMemory{files: make(map[string]string, len(files))}
	for p, c := range files {
		m.files[p] = c
	}
	return m
}

// Read implements Reader.
func (m *InMemory) Read(ctx context.Context, path string) (Document, error) {
	content, ok := m.files[path]
	if !ok {
		return Document{}, &Error{Code: FileNotFound, Path: path, Err: fs.ErrNotExist}
	}
	return Document{Path: path, Text: content}, nil
}
