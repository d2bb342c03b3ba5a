package source

import (
	"context"
	"fmt"
)

// Document is the raw schema text together with the path it was read from.
type Document struct {
	Path string
	Text string
}

// Reader supplies schema documents to the compiler.
type Reader interface {
	Read(ctx context.Context, path string) (Document, error)
}

// Code classifies a read failure.
type Code string

const (
	FileNotFound     Code = "FileNotFound"
	PermissionDenied Code = "PermissionDenied"
	IoError          Code = "IoError"
)

// Error reports a failed read. Callers surface it verbatim.
type Error struct {
	Code Code
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case FileNotFound:
		return fmt.Sprintf("Failed to read file %s: No such file or directory", e.Path)
	case PermissionDenied:
		return fmt.Sprintf("Failed to read file %s: Permission denied", e.Path)
	default:
		return fmt.Sprintf("Failed to read file %s: %v", e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Reason is the error message without the path.
func (e *Error) Reason() string {
	switch e.Code {
	case FileNotFound:
		return "No such file or directory"
	case PermissionDenied:
		return "Permission denied"
	default:
		return e.Err.Error()
	}
}
