package compiler

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/nplusone"
)

// Exit codes returned by the CLI.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitParse      = 2
	ExitValidation = 3
	ExitNPlusOne   = 4
	ExitServer     = 5
)

// FindingsError turns N+1 findings into a failure for callers that opted in.
type FindingsError struct {
	Path     string
	Findings []nplusone.Finding
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("%s: %d N+1 finding(s)", e.Path, len(e.Findings))
}

// ServerError reports that the server runtime could not start or stopped
// unexpectedly.
type ServerError struct {
	Addr string
	Err  error
}

func (e *ServerError) Error() string {
	if e.PortInUse() {
		return "Server Failed: The port is already in use"
	}
	return fmt.Sprintf("Server Failed: %v", e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// PortInUse reports whether the listener address was taken.
func (e *ServerError) PortInUse() bool { return errors.Is(e.Err, syscall.EADDRINUSE) }

// ExitCode maps a pipeline or runtime error to the process exit code. Usage
// and read errors, and anything unrecognised, map to ExitUsage.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		parseErr  *language.ParseError
		diags     diag.List
		findings  *FindingsError
		serverErr *ServerError
	)
	switch {
	case errors.As(err, &parseErr):
		return ExitParse
	case errors.As(err, &diags):
		return ExitValidation
	case errors.As(err, &findings):
		return ExitNPlusOne
	case errors.As(err, &serverErr):
		return ExitServer
	default:
		return ExitUsage
	}
}
