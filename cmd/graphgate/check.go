package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/hanpama/graphgate/internal/compiler"
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/nplusone"
	"github.com/hanpama/graphgate/internal/schema"
)

type checkOptions struct {
	nPlusOne       bool
	schema         bool
	failOnNPlusOne bool
	format         string
}

func newCheckCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <FILE_PATH>...",
		Short: "Validate gateway documents and optionally report N+1 queries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.check(cmd.Context(), args, checkOptions{
				nPlusOne:       v.GetBool("n-plus-one-queries"),
				schema:         v.GetBool("schema"),
				failOnNPlusOne: v.GetBool("fail-on-n-plus-one"),
				format:         v.GetString("format"),
			})
		},
	}
	f := cmd.Flags()
	f.Bool("n-plus-one-queries", false, "Report fields that issue one upstream call per list item")
	f.Bool("schema", false, "Print a summary of the compiled schema")
	f.Bool("fail-on-n-plus-one", false, "Exit with status 4 when any N+1 query is reported")
	f.String("format", "text", "Output format: text, json or yaml")
	return cmd
}

func (c *cli) check(ctx context.Context, paths []string, opts checkOptions) error {
	switch opts.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", opts.format)
	}
	reports := compiler.CheckAll(ctx, c.reader, paths, compiler.CheckOptions{
		NPlusOne: opts.nPlusOne || opts.failOnNPlusOne,
		Summary:  opts.schema,
	})
	err := compiler.FirstError(reports)
	if err == nil && opts.failOnNPlusOne {
		for _, r := range reports {
			if len(r.Result.Findings) > 0 {
				err = &compiler.FindingsError{Path: r.Path, Findings: r.Result.Findings}
				break
			}
		}
	}

	if opts.format == "text" {
		c.printReports(reports, opts.nPlusOne || opts.failOnNPlusOne, err)
	} else if werr := writeStructured(c.stdout, opts.format, reports); werr != nil {
		return werr
	}
	if err != nil {
		return &reported{err: err}
	}
	return nil
}

func (c *cli) printReports(reports []compiler.Report, showFindings bool, firstErr error) {
	for _, r := range reports {
		if len(reports) > 1 {
			fmt.Fprintf(c.stdout, "==> %s\n", r.Path)
		}
		if r.Err != nil {
			c.printCompileError(r.Err)
			continue
		}
		if r.Result.Summary != nil {
			fmt.Fprint(c.stdout, r.Result.Summary.String())
		}
		if showFindings {
			c.printFindings(r.Result.Findings)
		}
	}

	var findings *compiler.FindingsError
	switch {
	case firstErr == nil:
		successLabel.Fprintln(c.stdout, "No errors found")
	case errors.As(firstErr, &findings):
		c.errorf("N+1 Queries Found")
	}
}

func (c *cli) printCompileError(err error) {
	var (
		parseErr *language.ParseError
		diags    diag.List
	)
	switch {
	case errors.As(err, &parseErr):
		fmt.Fprintln(c.stderr, parseErr.Error())
		c.errorf("Parse Error")
	case errors.As(err, &diags):
		for _, line := range diags.Lines() {
			fmt.Fprintln(c.stderr, line)
		}
		c.errorf("Validation Error")
	default:
		c.errorf("%v", err)
	}
}

func (c *cli) printFindings(findings []nplusone.Finding) {
	label := successLabel
	if len(findings) > 0 {
		label = warnLabel
	}
	label.Fprintf(c.stdout, "N+1 queries: %d\n", len(findings))
	for _, line := range nplusone.Lines(findings) {
		fmt.Fprintf(c.stdout, "  %s\n", line)
	}
}

type reportView struct {
	Path     string          `json:"path"`
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors,omitempty"`
	Summary  *schema.Summary `json:"summary,omitempty"`
	Findings []string        `json:"findings,omitempty"`
}

func viewOf(r compiler.Report) reportView {
	v := reportView{Path: r.Path, Valid: r.Err == nil}
	var diags diag.List
	switch {
	case r.Err == nil:
		v.Summary = r.Result.Summary
		v.Findings = nplusone.Lines(r.Result.Findings)
	case errors.As(r.Err, &diags):
		v.Errors = diags.Lines()
	default:
		v.Errors = []string{r.Err.Error()}
	}
	return v
}

func writeStructured(w io.Writer, format string, reports []compiler.Report) error {
	views := make([]reportView, len(reports))
	for i, r := range reports {
		views[i] = viewOf(r)
	}
	var (
		out []byte
		err error
	)
	if format == "yaml" {
		out, err = yaml.Marshal(views)
	} else {
		out, err = json.MarshalIndent(views, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
