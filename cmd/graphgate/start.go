package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanpama/graphgate/internal/compiler"
	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/eventbus"
	"github.com/hanpama/graphgate/internal/language"
	"github.com/hanpama/graphgate/internal/logging"
	"github.com/hanpama/graphgate/internal/metrics"
	"github.com/hanpama/graphgate/internal/otel"
	"github.com/hanpama/graphgate/internal/server"
	"github.com/hanpama/graphgate/internal/source"
)

func newStartCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <FILE_PATH>",
		Short: "Compile a gateway document and serve its admin endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.start(cmd.Context(), args[0], v)
		},
	}
	f := cmd.Flags()
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("otel-endpoint", "", "OTLP collector endpoint; tracing is off when empty")
	f.String("otel-service", "graphgate", "OpenTelemetry service name")
	f.Bool("pretty", false, "Pretty-print JSON responses")
	f.Duration("timeout", 10*time.Second, "Per-request timeout")
	f.Duration("shutdown-timeout", 5*time.Second, "Grace period for in-flight requests on shutdown")
	f.Int64("max-body-bytes", 1<<20, "Largest document accepted by POST /check")
	f.Int("cache-size", 128, "Number of POST /check results kept in memory")
	f.StringSlice("cors-origin", nil, "Allowed CORS origin. Repeatable")
	f.Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	return cmd
}

func (c *cli) start(ctx context.Context, path string, v *viper.Viper) error {
	log, err := logging.New(v.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	doc, err := c.reader.Read(ctx, path)
	if err != nil {
		var serr *source.Error
		if errors.As(err, &serr) {
			c.errorf("%s", serr.Reason())
		} else {
			c.errorf("%v", err)
		}
		return &reported{err: err}
	}

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	defer logging.Subscribe(bus, log)()

	opts := []server.Option{
		server.WithTimeout(v.GetDuration("timeout")),
		server.WithShutdownTimeout(v.GetDuration("shutdown-timeout")),
		server.WithMaxBodyBytes(v.GetInt64("max-body-bytes")),
		server.WithCacheSize(v.GetInt("cache-size")),
	}
	if v.GetBool("pretty") {
		opts = append(opts, server.WithPretty())
	}
	if origins := v.GetStringSlice("cors-origin"); len(origins) > 0 {
		opts = append(opts, server.WithCORS(origins...))
	}
	if v.GetBool("metrics") {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New()
		m.MustRegister(reg)
		defer m.Subscribe(bus)()
		opts = append(opts, server.WithMetrics(m.Handler()))
	}

	shutdown, err := otel.Setup(bus, v.GetString("otel-endpoint"), v.GetString("otel-service"))
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = compiler.Start(ctx, doc, server.NewRuntime(opts...))
	if err == nil {
		return nil
	}

	var (
		parseErr *language.ParseError
		diags    diag.List
	)
	switch {
	case errors.As(err, &parseErr):
		fmt.Fprintln(c.stderr, parseErr.Error())
		c.errorf("Invalid Configuration")
	case errors.As(err, &diags):
		for _, line := range diags.Lines() {
			fmt.Fprintln(c.stderr, line)
		}
		c.errorf("Invalid Configuration")
	default:
		c.errorf("%v", err)
	}
	return &reported{err: err}
}
