package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/resolve"
	"github.com/roach88/xqbatch/internal/sink"
)

var (
	// ErrNoSources is returned when a batch has no query sources.
	ErrNoSources = errors.New("no query sources supplied")
	// ErrRepetitions is returned when the repetition count is below one.
	ErrRepetitions = errors.New("repetitions must be at least 1")
)

// Config is the per-batch configuration.
type Config struct {
	BaseURI       string
	Input         string
	Variables     map[string]string
	Repetitions   int
	PrintCompiled bool
}

// Runner executes batches.
type Runner struct {
	profile engine.Profile
	cfg     Config
	sink    sink.Sink

	read       SourceReader
	resolver   resolve.Resolver
	workingDir resolve.WorkingDirProvider
	listener   diag.Listener
	describe   io.Writer
	clock      Clock
	ids        IDGenerator
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSourceReader overrides how query documents are read.
func WithSourceReader(read SourceReader) Option {
	return func(r *Runner) { r.read = read }
}

// WithResolver sets the document resolver.
func WithResolver(res resolve.Resolver) Option {
	return func(r *Runner) { r.resolver = res }
}

// WithWorkingDir sets the working directory provider used for base URIs.
func WithWorkingDir(wd resolve.WorkingDirProvider) Option {
	return func(r *Runner) { r.workingDir = wd }
}

// WithListener sets the receiver of warnings and traces.
func WithListener(l diag.Listener) Option {
	return func(r *Runner) { r.listener = l }
}

// WithDescribeWriter sets where compiled forms are printed.
func WithDescribeWriter(w io.Writer) Option {
	return func(r *Runner) { r.describe = w }
}

// WithClock sets the clock used for context timestamps and timings.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithIDGenerator sets the batch ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithObserver sets the batch observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner that evaluates with profile and writes
// results to out.
func NewRunner(profile engine.Profile, cfg Config, out sink.Sink, opts ...Option) *Runner {
	r := &Runner{
		profile:    profile,
		cfg:        cfg,
		sink:       out,
		read:       ReadSource,
		resolver:   resolve.NewFileResolver(),
		workingDir: resolve.OSWorkingDir{},
		listener:   diag.Discard,
		describe:   io.Discard,
		clock:      SystemClock{},
		ids:        UUIDv7Generator{},
		observer:   NopObserver{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run compiles sources and executes them cfg.Repetitions times. The
// returned summary is valid on failure too: it counts the executions that
// completed before the error.
func (r *Runner) Run(ctx context.Context, sources []string) (sum Summary, err error) {
	if len(sources) == 0 {
		return Summary{}, ErrNoSources
	}
	if r.cfg.Repetitions < 1 {
		return Summary{}, fmt.Errorf("%w, got %d", ErrRepetitions, r.cfg.Repetitions)
	}

	sum.BatchID = r.ids.Generate()
	started := r.clock.Now()
	r.observer.BatchStarted(BatchInfo{
		ID:          sum.BatchID,
		Engine:      r.profile.Name(),
		Sources:     append([]string(nil), sources...),
		Repetitions: r.cfg.Repetitions,
		Started:     started,
	})
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		sum.Duration = r.clock.Now().Sub(started)
		r.observer.BatchFinished(sum, err)
		r.logger.Debug("batch finished", "batch", sum.BatchID, "executions", sum.Executions, "error", err)
	}()

	set, err := Compile(r.profile, r.read, sources, CompileOptions{
		PrintCompiled: r.cfg.PrintCompiled,
		Describe:      r.describe,
		Listener:      r.listener,
		Logger:        r.logger,
	})
	if err != nil {
		return sum, err
	}
	defer set.Close()

	builder := &ContextBuilder{
		Profile:    r.profile,
		BaseURI:    r.cfg.BaseURI,
		Input:      r.cfg.Input,
		Variables:  r.cfg.Variables,
		WorkingDir: r.workingDir,
		Resolver:   r.resolver,
		Clock:      r.clock,
		Listener:   r.listener,
		Logger:     r.logger,
	}

	queries := set.Queries()
	for rep := 1; rep <= r.cfg.Repetitions; rep++ {
		for i, q := range queries {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			begin := r.clock.Now()
			items, err := r.execute(builder, q)
			if err != nil {
				return sum, err
			}
			sum.Executions++

			e := Execution{
				BatchID:    sum.BatchID,
				Repetition: rep,
				Query:      i,
				Source:     q.Source(),
				Items:      items,
				Duration:   r.clock.Now().Sub(begin),
			}
			r.logger.Debug("execution finished",
				"source", e.Source, "repetition", rep, "items", items, "duration", e.Duration)
			r.observer.ExecutionFinished(e)
		}
	}
	return sum, nil
}

func (r *Runner) execute(b *ContextBuilder, q engine.CompiledQuery) (int, error) {
	ec, err := b.Build(q)
	if err != nil {
		return 0, err
	}
	seq, err := q.Evaluate(ec)
	if err != nil {
		return 0, err
	}
	return r.sink.Emit(seq)
}
