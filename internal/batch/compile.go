package batch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/resolve"
)

// SourceReader loads a query document by reference.
type SourceReader func(ref string) (engine.Source, error)

// ReadSource reads a query document from a path or file URI. Read failures
// are diagnostics on the source's file.
func ReadSource(ref string) (engine.Source, error) {
	filename, data, err := resolve.ReadSource(ref)
	if err != nil {
		return engine.Source{}, diag.Wrap(diag.Location{File: filename}, err)
	}
	return engine.Source{Ref: ref, Filename: filename, Data: data}, nil
}

// CompileOptions controls Compile.
type CompileOptions struct {
	// PrintCompiled writes each query's compiled form to Describe right
	// after it compiles.
	PrintCompiled bool
	Describe      io.Writer
	// Listener receives warnings raised while compiling.
	Listener diag.Listener
	Logger   *slog.Logger
}

// CompiledQuerySet owns the compiled queries of a batch, in source order.
type CompiledQuerySet struct {
	queries []engine.CompiledQuery
	closed  bool
}

// Compile reads and compiles every source in order. The first failure
// releases the queries compiled so far and is returned as is.
func Compile(profile engine.Profile, read SourceReader, sources []string, opts CompileOptions) (*CompiledQuerySet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if read == nil {
		read = ReadSource
	}

	set := &CompiledQuerySet{queries: make([]engine.CompiledQuery, 0, len(sources))}
	for _, ref := range sources {
		src, err := read(ref)
		if err != nil {
			set.Close()
			return nil, err
		}
		if src.Listener == nil {
			src.Listener = opts.Listener
		}
		q, err := profile.Compile(src)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.queries = append(set.queries, q)
		logger.Debug("query compiled", "source", ref, "engine", profile.Name())

		if opts.PrintCompiled && opts.Describe != nil {
			if _, err := fmt.Fprintf(opts.Describe, "%s", q.Describe()); err != nil {
				set.Close()
				return nil, fmt.Errorf("print compiled query %s: %w", ref, err)
			}
		}
	}
	return set, nil
}

// Queries returns the compiled queries in source order. The slice is a copy.
func (s *CompiledQuerySet) Queries() []engine.CompiledQuery {
	return append([]engine.CompiledQuery(nil), s.queries...)
}

// Len returns the number of compiled queries.
func (s *CompiledQuerySet) Len() int {
	return len(s.queries)
}

// Close releases every query once, in compile order. Later calls do nothing.
func (s *CompiledQuerySet) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, q := range s.queries {
		q.Release()
	}
}
