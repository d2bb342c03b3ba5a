package events

import (
	"time"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/nplusone"
)

// Stage names one step of the compile pipeline.
type Stage string

const (
	StageParse    Stage = "parse"
	StageBind     Stage = "bind"
	StageValidate Stage = "validate"
	StageGraph    Stage = "graph"
	StageAnalyze  Stage = "analyze"
)

// CompileStart is emitted before a document enters the pipeline.
type CompileStart struct {
	Path string
}

// StageFinish is emitted after each pipeline stage, including the one that
// failed. Stages after a failure are not run and emit nothing.
type StageFinish struct {
	Path     string
	Stage    Stage
	Err      error
	Duration time.Duration
}

// CompileFinish is emitted once per document when the pipeline stops.
type CompileFinish struct {
	Path        string
	Diagnostics diag.List
	Findings    []nplusone.Finding
	Err         error
	Duration    time.Duration
}
