package compiler

import (
	"context"

	"github.com/hanpama/graphgate/internal/source"
)

// Runtime serves a compiled document. It is only ever handed documents that
// compiled without diagnostics.
type Runtime interface {
	Serve(ctx context.Context, c *Compiled) error
}

// Start compiles doc and hands the result to rt. On any compile error rt is
// never called, so no listener is bound.
func Start(ctx context.Context, doc source.Document, rt Runtime) error {
	c, err := Compile(ctx, doc)
	if err != nil {
		return err
	}
	return rt.Serve(ctx, c)
}
