package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/reqid"
)

// Setup configures an OTLP exporter and attaches span subscribers to b.
// If endpoint is empty, no telemetry is configured.
func Setup(b *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(b, tp.Tracer("graphgate"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Register turns compile and admin-request events on b into spans.
// A compile span parents one span per stage; a compile running inside an
// admin request is parented by the request span.
func Register(b *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register(b)
}

type subscriber struct {
	tracer       trace.Tracer
	httpSpans    sync.Map // rid -> trace.Span
	compileSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register(b *eventbus.Bus) func() {
	offs := []func(){
		eventbus.On(b, func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "http.request")
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				semconv.HTTPRouteKey.String(e.Route),
			)
			s.httpSpans.Store(rid, span)
		}),

		eventbus.On(b, func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.httpSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			span.End()
		}),

		eventbus.On(b, func(ctx context.Context, e events.CompileStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.httpSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "graphgate.compile")
			span.SetAttributes(attribute.String("graphgate.document", e.Path))
			s.compileSpans.Store(rid, span)
		}),

		eventbus.On(b, func(ctx context.Context, e events.StageFinish) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.compileSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			end := time.Now()
			_, span := s.tracer.Start(parent, "graphgate.stage."+string(e.Stage), trace.WithTimestamp(end.Add(-e.Duration)))
			if e.Err != nil {
				span.SetStatus(codes.Error, string(e.Stage)+" failed")
			}
			span.End(trace.WithTimestamp(end))
		}),

		eventbus.On(b, func(ctx context.Context, e events.CompileFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.compileSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("graphgate.diagnostics", len(e.Diagnostics)),
				attribute.Int("graphgate.findings", len(e.Findings)),
			)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, "compile failed")
			}
			span.End()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
