package logging

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/reqid"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("dpanic")
	require.EqualError(t, err, `invalid log level "dpanic" (want one of debug, info, warn, error)`)

	_, err = New("verbose")
	require.Error(t, err)
}

func TestSubscribeWritesEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := eventbus.New()
	off := Subscribe(b, zap.New(core))
	defer off()

	ctx, id := reqid.NewContext(context.Background())
	eventbus.Emit(ctx, b, events.StageFinish{Path: "a.graphql", Stage: events.StageParse})
	eventbus.Emit(ctx, b, events.CompileFinish{Path: "a.graphql"})
	eventbus.Emit(ctx, b, events.CompileFinish{Path: "b.graphql", Err: errors.New("boom")})
	eventbus.Emit(ctx, b, events.HTTPFinish{Route: "/healthz", Request: httptest.NewRequest("GET", "/healthz", nil), Status: 200})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3, "stage events are debug only")
	require.Equal(t, "compiled", entries[0].Message)
	require.Equal(t, "a.graphql", entries[0].ContextMap()["path"])
	require.Equal(t, id, entries[0].ContextMap()["request_id"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "boom", entries[1].ContextMap()["error"])
	require.Equal(t, "/healthz", entries[2].ContextMap()["route"])
}

func TestSubscribeLogsListening(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := eventbus.New()
	defer Subscribe(b, zap.New(core))()

	eventbus.Emit(context.Background(), b, events.ServeStart{Path: "a.graphql", Addr: "127.0.0.1:8000"})

	entries := logs.FilterMessage("listening").AllUntimed()
	require.Len(t, entries, 1)
	require.Equal(t, "127.0.0.1:8000", entries[0].ContextMap()["addr"])
}
