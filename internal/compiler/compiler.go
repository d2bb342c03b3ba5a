// Package compiler runs the gateway compile pipeline:
//
//	parse -> bind -> validate -> graph -> analyze
//
// Each stage consumes the previous stage's immutable output. A parse error
// stops the pipeline before binding; any diagnostic stops it before the
// resolver graph is built.
package compiler

import (
	"context"
	"errors"
	"time"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/directive"
	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/events"
	"github.com/hanpama/graphgate/internal/graph"
	"github.com/hanpama/graphgate/internal/ir"
	"github.com/hanpama/graphgate/internal/nplusone"
	"github.com/hanpama/graphgate/internal/reqid"
	"github.com/hanpama/graphgate/internal/schema"
	"github.com/hanpama/graphgate/internal/source"
	"github.com/hanpama/graphgate/internal/validate"
)

// Compiled is everything the server runtime needs to serve a document.
type Compiled struct {
	Path     string             `json:"path"`
	Schema   *schema.Schema     `json:"schema"`
	Graph    *graph.Graph       `json:"graph"`
	Findings []nplusone.Finding `json:"findings"`
}

type CheckOptions struct {
	// NPlusOne includes analyzer findings in the result.
	NPlusOne bool
	// Summary includes the schema summary in the result.
	Summary bool
}

type CheckResult struct {
	Path     string             `json:"path"`
	Summary  *schema.Summary    `json:"summary,omitempty"`
	Findings []nplusone.Finding `json:"findings,omitempty"`
}

// Compile runs the full pipeline over doc. The error is a
// *language.ParseError, a diag.List, or a *graph.CycleError.
func Compile(ctx context.Context, doc source.Document) (*Compiled, error) {
	return CompileWith(ctx, directive.DefaultCatalog(), doc)
}

// CompileWith is Compile with a caller-supplied directive catalog.
func CompileWith(ctx context.Context, catalog directive.Catalog, doc source.Document) (*Compiled, error) {
	ctx, _ = reqid.Ensure(ctx)
	p := &pipeline{ctx: ctx, path: doc.Path}
	start := time.Now()
	eventbus.Publish(ctx, events.CompileStart{Path: doc.Path})

	out, err := p.run(catalog, doc)

	finish := events.CompileFinish{Path: doc.Path, Err: err, Duration: time.Since(start)}
	var diags diag.List
	if errors.As(err, &diags) {
		finish.Diagnostics = diags
	}
	if out != nil {
		finish.Findings = out.Findings
	}
	eventbus.Publish(ctx, finish)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Check compiles doc and reports what opts ask for.
func Check(ctx context.Context, doc source.Document, opts CheckOptions) (*CheckResult, error) {
	c, err := Compile(ctx, doc)
	if err != nil {
		return nil, err
	}
	res := &CheckResult{Path: doc.Path}
	if opts.Summary {
		s := schema.Summarize(c.Schema)
		res.Summary = &s
	}
	if opts.NPlusOne {
		res.Findings = c.Findings
	}
	return res, nil
}

type pipeline struct {
	ctx  context.Context
	path string
}

func (p *pipeline) stage(s events.Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	eventbus.Publish(p.ctx, events.StageFinish{Path: p.path, Stage: s, Err: err, Duration: time.Since(start)})
	return err
}

func (p *pipeline) run(catalog directive.Catalog, doc source.Document) (*Compiled, error) {
	var (
		parsed *ir.Document
		bound  *directive.Bound
		sch    *schema.Schema
		g      *graph.Graph
		out    []nplusone.Finding
	)
	if err := p.stage(events.StageParse, func() (err error) {
		parsed, err = ir.Parse(doc)
		return err
	}); err != nil {
		return nil, err
	}
	_ = p.stage(events.StageBind, func() error {
		bound = directive.NewBinder(catalog, parsed).Bind()
		return nil
	})
	if err := p.stage(events.StageValidate, func() error {
		var diags diag.List
		sch, diags = validate.Validate(parsed, bound)
		if len(diags) > 0 {
			return diags
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := p.stage(events.StageGraph, func() (err error) {
		g, err = graph.Build(sch)
		return err
	}); err != nil {
		return nil, err
	}
	_ = p.stage(events.StageAnalyze, func() error {
		out = nplusone.Analyze(g)
		return nil
	})
	return &Compiled{Path: doc.Path, Schema: sch, Graph: g, Findings: out}, nil
}
