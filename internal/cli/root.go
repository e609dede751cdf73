// Package cli implements the xqbatch command line.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/xqbatch/internal/batch"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/engine/cueengine"
	"github.com/roach88/xqbatch/internal/engine/hclengine"
	"github.com/roach88/xqbatch/internal/resolve"
)

// RootOptions holds the flags of a batch run.
type RootOptions struct {
	Verbose       bool
	BaseURI       string
	Input         string
	Output        string
	Repeat        int
	Quiet         bool
	Vars          []string
	Engine        string
	PrintCompiled bool
	ConfigFile    string
	Record        string

	// Overridable for testing. Nil values use the defaults.
	Registry   *engine.Registry
	WorkingDir resolve.WorkingDirProvider
	Clock      batch.Clock
	IDs        batch.IDGenerator
}

// DefaultRegistry returns a registry holding the built-in engine profiles.
// The first registered profile is the default.
func DefaultRegistry() *engine.Registry {
	r := engine.NewRegistry()
	r.Register(cueengine.Name, func() engine.Profile { return cueengine.New() })
	r.Register(hclengine.Name, func() engine.Profile { return hclengine.New() })
	return r
}

// NewRootCommand creates the root command for the xqbatch CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xqbatch [flags] <query>...",
		Short: "Compile query documents once and run them in batch",
		Long: `Compile each query document once, then run the whole set in order,
once or several times, against an optional input document and a set of
external variables. Results are serialized as XML to standard output or
a file.

Any diagnostic stops the batch. Output already written is kept.

Example:
  xqbatch -i catalog.xml report.cue
  xqbatch -e hcl -v name=world -n 3 -o out.xml greet.hcl
  xqbatch -q -n 1000 --record history.db bench.cue`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return argError("no query sources supplied")
			}
			return runBatch(cmd, opts, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitFailure, "invalid arguments", err)
	})

	f := cmd.Flags()
	f.StringVarP(&opts.BaseURI, "base-uri", "b", "", "base URI for the context (default: each query's own location)")
	f.StringVarP(&opts.Input, "input", "i", "", "document bound as the context item")
	f.StringVarP(&opts.Output, "output", "o", "", "write results to this file (default: stdout)")
	f.IntVarP(&opts.Repeat, "repeat", "n", 1, "run the queries this many times")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "discard results and print the execution count")
	f.StringArrayVarP(&opts.Vars, "var", "v", nil, "bind an external variable (name=value, repeatable)")
	f.StringVarP(&opts.Engine, "engine", "e", cueengine.Name, "engine profile (cue|hcl)")
	f.BoolVarP(&opts.PrintCompiled, "print-compiled", "t", false, "print each query's compiled form to stderr")
	f.StringVar(&opts.ConfigFile, "config", "", "TOML file with default settings")
	f.StringVar(&opts.Record, "record", "", "record the batch in this SQLite database")
	f.BoolVar(&opts.Verbose, "verbose", false, "debug logging on stderr")

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// Execute runs the command line and returns the process exit code.
// Errors not already reported are written to stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.Name())
	}
	return GetExitCode(err)
}
