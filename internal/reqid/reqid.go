// Package reqid carries a correlation ID through a context so event
// subscribers can pair start and finish events of one request or compile.
package reqid

import (
	"context"
	"math"
	"math/rand/v2"
)

type key struct{}

// NewContext returns a copy of parent carrying a fresh positive ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int64N(math.MaxInt64) + 1
	return context.WithValue(parent, key{}, id), id
}

// Ensure returns ctx unchanged when it already carries an ID, and a copy
// with a fresh one otherwise.
func Ensure(ctx context.Context) (context.Context, int64) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	return NewContext(ctx)
}

// FromContext extracts the ID from ctx.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
