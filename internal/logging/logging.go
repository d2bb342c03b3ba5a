// Package logging builds the zap logger used by the CLI and writes
// pipeline and admin-server events to it.
package logging

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/reqid"
)

// Levels accepted by --log-level.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel accepts one of Levels in any letter case.
func ParseLevel(s string) (zapcore.Level, error) {
	name := strings.ToLower(s)
	if slices.Contains(Levels, name) {
		return zapcore.ParseLevel(name)
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (want one of debug, info, warn, error)", s)
}

// New returns a console logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewWithSyncer(lvl, zapcore.Lock(os.Stderr)), nil
}

func NewWithSyncer(lvl zapcore.Level, w zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), w, lvl))
}

// Subscribe logs compile stages at debug, compile results at info or warn,
// and admin requests at info.
func Subscribe(b *eventbus.Bus, log *zap.Logger) (unsubscribe func()) {
	offs := []func(){
		eventbus.On(b, func(ctx context.Context, e events.StageFinish) {
			fields := []zap.Field{
				zap.String("path", e.Path),
				zap.String("stage", string(e.Stage)),
				zap.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				fields = append(fields, zap.Bool("failed", true))
			}
			log.Debug("compile stage", withRequestID(ctx, fields)...)
		}),
		eventbus.On(b, func(ctx context.Context, e events.CompileFinish) {
			fields := withRequestID(ctx, []zap.Field{
				zap.String("path", e.Path),
				zap.Duration("duration", e.Duration),
				zap.Int("diagnostics", len(e.Diagnostics)),
				zap.Int("findings", len(e.Findings)),
			})
			if e.Err != nil {
				log.Warn("compile failed", append(fields, zap.Error(e.Err))...)
				return
			}
			log.Info("compiled", fields...)
		}),
		eventbus.On(b, func(_ context.Context, e events.ServeStart) {
			log.Info("listening", zap.String("path", e.Path), zap.String("addr", e.Addr))
		}),
		eventbus.On(b, func(ctx context.Context, e events.HTTPFinish) {
			log.Info("request", withRequestID(ctx, []zap.Field{
				zap.String("method", e.Request.Method),
				zap.String("route", e.Route),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			})...)
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func withRequestID(ctx context.Context, fields []zap.Field) []zap.Field {
	if id, ok := reqid.FromContext(ctx); ok {
		return append(fields, zap.Int64("request_id", id))
	}
	return fields
}
