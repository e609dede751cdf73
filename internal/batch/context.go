package batch

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
	"github.com/roach88/xqbatch/internal/resolve"
)

// ContextBuilder creates the execution context for one (query, repetition)
// pair.
type ContextBuilder struct {
	Profile engine.Profile

	// BaseURI, when set, is used verbatim instead of resolving the query's
	// source against the working directory.
	BaseURI   string
	Input     string
	Variables map[string]string

	WorkingDir resolve.WorkingDirProvider
	Resolver   resolve.Resolver
	Clock      Clock
	Listener   diag.Listener
	Logger     *slog.Logger
}

// Build returns a new context for q, or an error and no context. Steps run
// in order: base URI, context item, external variables, current time.
func (b *ContextBuilder) Build(q engine.CompiledQuery) (*engine.ExecutionContext, error) {
	ec := &engine.ExecutionContext{
		Resolver: b.Resolver,
		Listener: b.Listener,
	}

	ec.BaseURI = b.baseURI(q)

	if b.Input != "" {
		if b.Resolver == nil {
			return nil, diag.New(diag.Location{File: b.Input}, "no document resolver configured")
		}
		seq, err := b.Resolver.Resolve(b.Input, ec.BaseURI)
		if err != nil {
			return nil, diag.Wrap(diag.Location{File: b.Input}, err)
		}
		first, err := item.First(seq)
		if err != nil {
			return nil, diag.Wrap(diag.Location{File: b.Input}, err)
		}
		if first != nil && first.IsNode() {
			ec.SetContextItem(first)
		}
	}

	names := make([]string, 0, len(b.Variables))
	for name := range b.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	ec.Variables = make(map[string]engine.Value, len(names))
	for _, name := range names {
		v, err := b.Profile.NewString(b.Variables[name])
		if err != nil {
			return nil, fmt.Errorf("bind variable %s: %w", name, err)
		}
		ec.Variables[name] = v
	}

	ec.CurrentTime = b.clock().Now()

	b.logger().Debug("context built",
		"source", q.Source(),
		"base_uri", ec.BaseURI,
		"context_item", ec.HasContextItem(),
		"variables", len(ec.Variables))
	return ec, nil
}

// baseURI resolves q's source against the working directory. Failures keep
// the query's own default.
func (b *ContextBuilder) baseURI(q engine.CompiledQuery) string {
	if b.BaseURI != "" {
		return b.BaseURI
	}
	if b.WorkingDir == nil {
		return q.DefaultBaseURI()
	}
	wd, err := b.WorkingDir.WorkingDir()
	if err != nil {
		b.logger().Debug("working directory unavailable, using default base URI", "source", q.Source(), "error", err)
		return q.DefaultBaseURI()
	}
	uri, err := resolve.BaseURI(wd, q.Source())
	if err != nil {
		b.logger().Debug("base URI resolution failed, using default", "source", q.Source(), "error", err)
		return q.DefaultBaseURI()
	}
	return uri
}

func (b *ContextBuilder) clock() Clock {
	if b.Clock == nil {
		return SystemClock{}
	}
	return b.Clock
}

func (b *ContextBuilder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
