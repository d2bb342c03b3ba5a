package compiler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/graphgate/internal/source"
)

// Report is the outcome of checking one document.
type Report struct {
	Path   string
	Result *CheckResult
	Err    error
}

// CheckAll reads and checks each path independently and in parallel. One
// document failing does not stop the others. Reports come back in the
// order of paths.
func CheckAll(ctx context.Context, r source.Reader, paths []string, opts CheckOptions) []Report {
	reports := make([]Report, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			rep := Report{Path: path}
			doc, err := r.Read(ctx, path)
			if err != nil {
				rep.Err = err
			} else {
				rep.Result, rep.Err = Check(ctx, doc, opts)
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// FirstError returns the first failing report's error in path order.
func FirstError(reports []Report) error {
	for _, r := range reports {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
