// Package server is the admin runtime handed a compiled document by
// `graphgate start`. It exposes the compiled artifacts and a check endpoint
// over HTTP; it never executes client queries.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hanpama/graphgate/internal/compiler"
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/introspection"
	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/nplusone"
	"github.com/hanpama/graphgate/internal/reqid"
	"github.com/hanpama/graphgate/internal/schema"
	"github.com/hanpama/graphgate/internal/source"
)

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of a posted document. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// CacheSize bounds the number of /check results kept by document digest.
	CacheSize int

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// ShutdownTimeout bounds graceful shutdown once the serve context ends.
	ShutdownTimeout time.Duration
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCacheSize(n int) Option         { return func(o *Options) { o.CacheSize = n } }
func WithMetrics(h http.Handler) Option  { return func(o *Options) { o.Metrics = h } }
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) { o.ShutdownTimeout = d }
}
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// Runtime implements compiler.Runtime.
type Runtime struct {
	opt Options
}

func NewRuntime(opts ...Option) *Runtime {
	op := Options{Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20, CacheSize: 128, ShutdownTimeout: 5 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Runtime{opt: op}
}

// Serve binds the address from the document's @server settings and serves
// until ctx is done. Bind failures come back as *compiler.ServerError.
func (r *Runtime) Serve(ctx context.Context, c *compiler.Compiled) error {
	addr := c.Schema.Settings.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &compiler.ServerError{Addr: addr, Err: err}
	}
	h, err := New(c, r.opt)
	if err != nil {
		_ = ln.Close()
		return &compiler.ServerError{Addr: addr, Err: err}
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	eventbus.Publish(ctx, events.ServeStart{Path: c.Path, Addr: ln.Addr().String()})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	select {
	case err := <-errc:
		return &compiler.ServerError{Addr: addr, Err: err}
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), r.opt.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return &compiler.ServerError{Addr: addr, Err: err}
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return &compiler.ServerError{Addr: addr, Err: err}
		}
		return nil
	}
}

// Handler serves the admin routes for one compiled document.
type Handler struct {
	compiled *compiler.Compiled
	summary  schema.Summary
	opt      Options
	cache    *lru.Cache[string, checkResponse]
	mux      *http.ServeMux
}

func New(c *compiler.Compiled, opt Options) (*Handler, error) {
	size := opt.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, checkResponse](size)
	if err != nil {
		return nil, err
	}
	h := &Handler{compiled: c, summary: schema.Summarize(c.Schema), opt: opt, cache: cache, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /schema", h.schema)
	h.mux.HandleFunc("GET /graph", h.graph)
	h.mux.HandleFunc("GET /findings", h.findings)
	h.mux.HandleFunc("GET /introspection", h.introspection)
	h.mux.HandleFunc("POST /check", h.check)
	if opt.Metrics != nil {
		h.mux.Handle("GET /metrics", opt.Metrics)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, rid := reqid.NewContext(ctx)
	r = r.WithContext(ctx)

	_, route := h.mux.Handler(r)
	if route == "" {
		route = "unmatched"
	}
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Route: route, Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Route: route, Request: r, Status: rec.status, Duration: time.Since(start)})
	}()

	w.Header().Set("X-Request-Id", strconv.FormatInt(rid, 10))
	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}
	if r.Method == http.MethodOptions {
		rec.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(rec, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.opt.Pretty)
}

// schema serves the summary as JSON, or the rendered SDL with ?format=sdl.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "sdl" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, schema.Render(h.compiled.Schema))
		return
	}
	writeJSON(w, http.StatusOK, h.summary, h.opt.Pretty)
}

func (h *Handler) graph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.compiled.Graph, h.opt.Pretty)
}

// introspection serves the standard introspection result wrapped in a
// GraphQL response envelope.
func (h *Handler) introspection(w http.ResponseWriter, r *http.Request) {
	opt := introspection.Options{IncludeDeprecated: r.URL.Query().Get("includeDeprecated") == "true"}
	writeJSON(w, http.StatusOK, map[string]any{"data": introspection.Build(h.compiled.Schema, opt)}, h.opt.Pretty)
}

func (h *Handler) findings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, checkResponse{Valid: true, Findings: nplusone.Lines(h.compiled.Findings)}, h.opt.Pretty)
}

type checkResponse struct {
	status   int
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors,omitempty"`
	Summary  *schema.Summary `json:"summary,omitempty"`
	Findings []string        `json:"findings,omitempty"`
}

// check compiles a posted document. Results are cached by the SHA-256 of
// the document path and text.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	reader := io.Reader(r.Body)
	if h.opt.MaxBodyBytes > 0 {
		reader = io.LimitReader(r.Body, h.opt.MaxBodyBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, checkResponse{Errors: []string{"failed to read body"}}, h.opt.Pretty)
		return
	}
	defer r.Body.Close()
	if h.opt.MaxBodyBytes > 0 && int64(len(body)) > h.opt.MaxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, checkResponse{Errors: []string{errBodyTooLargeMessage}}, h.opt.Pretty)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "request.graphql"
	}
	sum := sha256.Sum256(append([]byte(path+"\x00"), body...))
	key := hex.EncodeToString(sum[:])
	if res, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, res.status, res, h.opt.Pretty)
		return
	}

	res := runCheck(r.Context(), source.Document{Path: path, Text: string(body)})
	if r.Context().Err() == nil {
		h.cache.Add(key, res)
	}
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, res.status, res, h.opt.Pretty)
}

func runCheck(ctx context.Context, doc source.Document) checkResponse {
	out, err := compiler.Check(ctx, doc, compiler.CheckOptions{NPlusOne: true, Summary: true})
	var (
		parseErr *language.ParseError
		diags    diag.List
	)
	switch {
	case err == nil:
		return checkResponse{status: http.StatusOK, Valid: true, Summary: out.Summary, Findings: nplusone.Lines(out.Findings)}
	case errors.As(err, &parseErr):
		return checkResponse{status: http.StatusBadRequest, Errors: []string{parseErr.Error()}}
	case errors.As(err, &diags):
		return checkResponse{status: http.StatusUnprocessableEntity, Errors: diags.Lines()}
	default:
		return checkResponse{status: http.StatusInternalServerError, Errors: []string{err.Error()}}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{"GET", "POST", "OPTIONS"}, ","))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
