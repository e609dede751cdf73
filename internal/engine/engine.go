package engine

import (
	"time"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/item"
	"github.com/roach88/xqbatch/internal/resolve"
)

// Reserved names visible to query documents.
const (
	VarName     = "var"
	InputName   = "input"
	NowName     = "now"
	BaseURIName = "base_uri"
)

// Value is an engine-native value. Only the profile that created it can
// interpret it.
type Value any

// Source is a query document read by the harness.
type Source struct {
	Ref      string // reference as supplied by the caller
	Filename string // name used in diagnostics
	Data     []byte
	// Listener receives compile-time warnings. It may be nil.
	Listener diag.Listener
}

// Profile compiles query documents for one engine.
type Profile interface {
	// Name identifies the profile, e.g. "cue".
	Name() string
	// Compile turns a source into a reusable compiled query. Failures are
	// returned as *diag.Diagnostic where a position is known.
	Compile(src Source) (CompiledQuery, error)
	// NewString converts raw text into the engine's string value.
	NewString(raw string) (Value, error)
}

// CompiledQuery is the immutable result of compiling one source.
type CompiledQuery interface {
	// Source returns the reference the query was compiled from.
	Source() string
	// DefaultBaseURI is the base URI used when none can be resolved.
	DefaultBaseURI() string
	// Describe renders the compiled form for debugging.
	Describe() string
	// Evaluate runs the query. The returned sequence may be lazy; errors
	// raised while it is consumed surface through its Err method.
	Evaluate(ec *ExecutionContext) (item.Sequence, error)
	// Release frees engine resources. The query must not be used afterwards.
	Release()
}

// ExecutionContext is the dynamic state of one evaluation. A context is
// built for exactly one (query, repetition) pair and discarded afterwards.
type ExecutionContext struct {
	BaseURI     string
	ContextItem item.Item // nil when no context item is bound
	Position    int
	Size        int
	Variables   map[string]Value
	CurrentTime time.Time
	Resolver    resolve.Resolver
	Listener    diag.Listener
}

// SetContextItem binds it as the context item at position 1 of 1.
func (ec *ExecutionContext) SetContextItem(it item.Item) {
	ec.ContextItem = it
	ec.Position = 1
	ec.Size = 1
}

// HasContextItem reports whether a context item is bound.
func (ec *ExecutionContext) HasContextItem() bool {
	return ec.ContextItem != nil
}

// Events returns the listener, never nil.
func (ec *ExecutionContext) Events() diag.Listener {
	if ec.Listener == nil {
		return diag.Discard
	}
	return ec.Listener
}

// Timestamp formats the context's current time the way every profile
// exposes it under NowName.
func (ec *ExecutionContext) Timestamp() string {
	return ec.CurrentTime.Format(time.RFC3339Nano)
}
