package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// FileSystem reads documents from the local file system.
type FileSystem struct{}

// Read implements Reader.
func (FileSystem) Read(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, &Error{Code: IoError, Path: path, Err: err}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, classify(path, err)
	}
	return Document{Path: path, Text: string(content)}, nil
}

func classify(path string, err error) *Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Code: FileNotFound, Path: path, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &Error{Code: PermissionDenied, Path: path, Err: err}
	default:
		return &Error{Code: IoError, Path: path, Err: err}
	}
}
