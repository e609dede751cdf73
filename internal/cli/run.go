package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/xqbatch/internal/batch"
	"github.com/roach88/xqbatch/internal/config"
	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/resolve"
	"github.com/roach88/xqbatch/internal/sink"
	"github.com/roach88/xqbatch/internal/store"
)

// settings are the effective run settings after merging the config file.
type settings struct {
	Engine        string
	BaseURI       string
	Input         string
	Output        string
	Repeat        int
	Quiet         bool
	PrintCompiled bool
	Record        string
	Vars          map[string]string
}

// resolveSettings merges the config file under the flags the user set
// explicitly. File vars are applied before -v bindings.
func resolveSettings(cmd *cobra.Command, opts *RootOptions) (*settings, error) {
	s := &settings{
		Engine:        opts.Engine,
		BaseURI:       opts.BaseURI,
		Input:         opts.Input,
		Output:        opts.Output,
		Repeat:        opts.Repeat,
		Quiet:         opts.Quiet,
		PrintCompiled: opts.PrintCompiled,
		Record:        opts.Record,
		Vars:          make(map[string]string),
	}

	if opts.ConfigFile != "" {
		cfg, err := config.LoadFrom(opts.ConfigFile)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "unreadable config", err)
		}
		changed := cmd.Flags().Changed
		if !changed("engine") && cfg.Engine != "" {
			s.Engine = cfg.Engine
		}
		if !changed("base-uri") && cfg.BaseURI != "" {
			s.BaseURI = cfg.BaseURI
		}
		if !changed("input") && cfg.Input != "" {
			s.Input = cfg.Input
		}
		if !changed("output") && cfg.Output != "" {
			s.Output = cfg.Output
		}
		if !changed("repeat") && cfg.Repeat > 0 {
			s.Repeat = cfg.Repeat
		}
		if !changed("quiet") {
			s.Quiet = cfg.Quiet
		}
		if !changed("print-compiled") {
			s.PrintCompiled = cfg.PrintCompiled
		}
		if !changed("record") && cfg.Record != "" {
			s.Record = cfg.Record
		}
		for _, name := range cfg.VarNames() {
			s.Vars[name] = cfg.Vars[name]
		}
	}

	for _, raw := range opts.Vars {
		v, err := config.ParseVar(raw)
		if err != nil {
			return nil, argError("%v", err)
		}
		s.Vars[v.Name] = v.Value
	}

	if s.Repeat < 1 {
		return nil, argError("invalid repeat count %d: %v", s.Repeat, batch.ErrRepetitions)
	}
	return s, nil
}

// absolutize anchors a relative base URI in the working directory. The
// input document is left alone: it resolves against each query's base URI.
func (s *settings) absolutize(wd resolve.WorkingDirProvider) {
	if s.BaseURI == "" || resolve.HasScheme(s.BaseURI) {
		return
	}
	dir, err := wd.WorkingDir()
	if err != nil {
		return
	}
	if uri, err := resolve.BaseURI(dir, s.BaseURI); err == nil {
		s.BaseURI = uri
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	// Warn by default so the diagnostic stream only carries diagnostics
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func runBatch(cmd *cobra.Command, opts *RootOptions, sources []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := newLogger(stderr, opts.Verbose)

	s, err := resolveSettings(cmd, opts)
	if err != nil {
		return err
	}

	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	profile, err := registry.Lookup(s.Engine)
	if err != nil {
		return argError("%v", err)
	}

	wd := opts.WorkingDir
	if wd == nil {
		wd = resolve.OSWorkingDir{}
	}
	s.absolutize(wd)

	reporter := diag.NewReporter(stderr)

	var out sink.Sink
	switch {
	case s.Quiet:
		out = sink.NewQuiet()
	case s.Output != "":
		out = sink.NewFile(s.Output, logger)
	default:
		out = sink.NewWriter(stdout, logger)
	}

	// Setup signal handling: an interrupt stops the batch before the next
	// execution. Use command's context if available (for testing).
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Debug("received signal, stopping batch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runOpts := []batch.Option{
		batch.WithWorkingDir(wd),
		batch.WithListener(reporter),
		batch.WithDescribeWriter(stderr),
		batch.WithLogger(logger),
	}
	if opts.Clock != nil {
		runOpts = append(runOpts, batch.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		runOpts = append(runOpts, batch.WithIDGenerator(opts.IDs))
	}

	var recorder *store.Recorder
	if s.Record != "" {
		logger.Debug("opening history database", "path", s.Record)
		st, err := store.Open(s.Record)
		if err != nil {
			d := diag.Wrap(diag.Location{File: s.Record}, err)
			reporter.Report(d)
			return reported(d)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing history database", "error", closeErr)
			}
		}()
		recorder = store.NewRecorder(ctx, st, logger)
		runOpts = append(runOpts, batch.WithObserver(recorder))
	}

	runner := batch.NewRunner(profile, batch.Config{
		BaseURI:       s.BaseURI,
		Input:         s.Input,
		Variables:     s.Vars,
		Repetitions:   s.Repeat,
		PrintCompiled: s.PrintCompiled,
	}, out, runOpts...)

	sum, err := runner.Run(ctx, sources)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = diag.Wrap(diag.Location{File: s.Output}, closeErr)
	}
	if recorder != nil && recorder.Err() != nil {
		reporter.Warning(diag.Location{File: s.Record}, "batch history incomplete: "+recorder.Err().Error())
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			err = diag.Newf(diag.Location{}, "interrupted after %d executions", sum.Executions)
		}
		reporter.Report(err)
		return reported(err)
	}

	if s.Quiet {
		fmt.Fprintf(stdout, "Executions: %d\n", sum.Executions)
	}
	return nil
}
