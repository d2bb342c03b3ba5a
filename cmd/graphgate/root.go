package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanpama/graphgate/internal/compiler"
	"github.com/hanpama/graphgate/internal/source"
)

// cli carries the writers and document reader shared by every command.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	reader source.Reader
}

// reported wraps an error whose message has already been written to stderr.
type reported struct{ err error }

func (r *reported) Error() string { return r.err.Error() }
func (r *reported) Unwrap() error { return r.err }

var errMissingCommand = errors.New("missing command")

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr, reader: source.FileSystem{}}
	root := newRootCommand(c)
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return compiler.ExitOK
	}
	var r *reported
	if errors.As(err, &r) {
		return compiler.ExitCode(r.err)
	}
	c.errorf("%v", err)
	fmt.Fprint(stderr, cmd.UsageString())
	return compiler.ExitUsage
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "graphgate",
		Short:         "Compile and check declarative GraphQL gateway configurations",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(*cobra.Command, []string) error {
			return errMissingCommand
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.PersistentFlags().String("config", "",
		"Configuration file (yaml, json or toml) supplying flag defaults")
	root.AddCommand(newCheckCommand(c), newStartCommand(c))
	return root
}

// config binds the command's flags to a fresh viper instance. Flags win over
// GRAPHGATE_* environment variables, which win over the --config file.
func (c *cli) config(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("GRAPHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return v, nil
}

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	successLabel = color.New(color.FgGreen, color.Bold)
	warnLabel    = color.New(color.FgYellow)
)

func (c *cli) errorf(format string, args ...any) {
	errorLabel.Fprint(c.stderr, "Error:")
	fmt.Fprintf(c.stderr, " "+format+"\n", args...)
}
