package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/xqbatch/internal/batch"
	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
	"github.com/roach88/xqbatch/internal/resolve"
	"github.com/roach88/xqbatch/internal/sink"
	"github.com/roach88/xqbatch/internal/testutil"
)

// WorkingDir is the working directory every scenario runs in.
const WorkingDir = "/scenario"

// Epoch is the stopped clock reading of every run.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const defaultEngine = "cue"

// Harness runs scenarios against registered engine profiles.
type Harness struct {
	registry *engine.Registry
	logger   *slog.Logger
}

// New creates a harness. A nil logger discards all logs.
func New(registry *engine.Registry, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{registry: registry, logger: logger}
}

// Run executes a scenario. Batch failures are part of the Result; the
// returned error is reserved for scenarios that cannot run at all.
func (h *Harness) Run(s *Scenario) (*Result, error) {
	name := s.Engine
	if name == "" {
		name = defaultEngine
	}
	profile, err := h.registry.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	repeat := s.Repeat
	if repeat == 0 {
		repeat = 1
	}

	var out, diagnostics bytes.Buffer
	var results sink.Sink = sink.NewWriter(&out, h.logger)
	if s.Quiet {
		results = sink.NewQuiet()
	}
	reporter := diag.NewReporter(&diagnostics)
	rec := &traceRecorder{}

	runner := batch.NewRunner(profile, batch.Config{
		BaseURI:     s.BaseURI,
		Input:       s.Input,
		Variables:   s.Vars,
		Repetitions: repeat,
	}, results,
		batch.WithSourceReader(s.readSource),
		batch.WithResolver(resolve.ResolverFunc(s.resolve)),
		batch.WithWorkingDir(resolve.StaticWorkingDir(WorkingDir)),
		batch.WithListener(reporter),
		batch.WithClock(testutil.NewFixedClock(Epoch)),
		batch.WithIDGenerator(testutil.NewFixedIDGenerator("scenario-"+s.Name)),
		batch.WithObserver(rec),
		batch.WithLogger(h.logger),
	)

	sources := make([]string, len(s.Queries))
	for i, q := range s.Queries {
		sources[i] = q.Name
	}

	sum, err := runner.Run(context.Background(), sources)
	if closeErr := results.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		reporter.Report(err)
	}

	return &Result{
		Output:      out.String(),
		Diagnostics: diagnostics.String(),
		Executions:  sum.Executions,
		Trace:       rec.events,
		Err:         err,
	}, nil
}

func (s *Scenario) readSource(ref string) (engine.Source, error) {
	for _, q := range s.Queries {
		if q.Name == ref {
			return engine.Source{Ref: ref, Filename: ref, Data: []byte(q.Source)}, nil
		}
	}
	return engine.Source{}, diag.New(diag.Location{File: ref}, "no such query in scenario")
}

// resolve looks documents up by name. The base URI plays no part.
func (s *Scenario) resolve(ref, _ string) (item.Sequence, error) {
	name := strings.TrimPrefix(ref, "file://"+WorkingDir+"/")
	for _, d := range s.Documents {
		if d.Name != name {
			continue
		}
		items, err := resolve.Decode(strings.NewReader(d.Content), resolve.FormatFor(d.Name))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ref, err)
		}
		return item.Slice(items...), nil
	}
	return nil, fmt.Errorf("resolve %s: no such document in scenario", ref)
}

// traceRecorder collects executions as they complete.
type traceRecorder struct {
	batch.NopObserver
	events []ExecutionEvent
}

func (r *traceRecorder) ExecutionFinished(e batch.Execution) {
	r.events = append(r.events, ExecutionEvent{
		Repetition: e.Repetition,
		Query:      e.Query,
		Source:     e.Source,
		Items:      e.Items,
	})
}
