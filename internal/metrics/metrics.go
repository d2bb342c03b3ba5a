// Package metrics exposes compile and admin-server counters to Prometheus.
// It is driven entirely by events, so the pipeline never imports it.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/language"
)

const namespace = "graphgate"

// Compile outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeParseError = "parse_error"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

type Metrics struct {
	compiles      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	diagnostics   *prometheus.CounterVec
	findings      *prometheus.CounterVec
	requests      *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

func New() *Metrics {
	return &Metrics{
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compiles_total",
				Help:      "Documents compiled, by outcome.",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_stage_duration_seconds",
				Help:      "Time spent in each compile stage.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"stage"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Validation diagnostics reported, by kind.",
			},
			[]string{"kind"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nplusone_findings_total",
				Help:      "N+1 findings reported, by reason.",
			},
			[]string{"reason"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_requests_total",
				Help:      "Admin server requests, by route and status code.",
			},
			[]string{"route", "code"},
		),
	}
}

// MustRegister registers every collector with reg and serves reg from
// Handler.
func (m *Metrics) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(m.compiles, m.stageDuration, m.diagnostics, m.findings, m.requests)
	m.gatherer = reg
}

// Subscribe attaches the collectors to b.
func (m *Metrics) Subscribe(b *eventbus.Bus) (unsubscribe func()) {
	offs := []func(){
		eventbus.On(b, func(_ context.Context, e events.StageFinish) {
			m.stageDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
		}),
		eventbus.On(b, func(_ context.Context, e events.CompileFinish) { m.ObserveCompile(e) }),
		eventbus.On(b, func(_ context.Context, e events.HTTPFinish) {
			m.requests.WithLabelValues(e.Route, strconv.Itoa(e.Status)).Inc()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (m *Metrics) ObserveCompile(e events.CompileFinish) {
	m.compiles.WithLabelValues(Outcome(e.Err)).Inc()
	for kind, n := range e.Diagnostics.Count() {
		m.diagnostics.WithLabelValues(string(kind)).Add(float64(n))
	}
	for _, f := range e.Findings {
		m.findings.WithLabelValues(string(f.Reason)).Inc()
	}
}

// Outcome classifies a compile error for the outcome label.
func Outcome(err error) string {
	var (
		parseErr *language.ParseError
		diags    diag.List
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &parseErr):
		return OutcomeParseError
	case errors.As(err, &diags):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// Handler serves the registry given to MustRegister.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
