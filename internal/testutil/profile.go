package testutil

import (
	"fmt"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
)

// FakeScript scripts how one source behaves in a FakeProfile.
type FakeScript struct {
	CompileErr error
	EvalErr    error
	// CompileWarning, when set, is sent to the source's listener.
	CompileWarning string
	// Panic, when non-nil, is raised by Evaluate.
	Panic any
	// Result builds the evaluation result. When nil the query returns its
	// source reference as a single string item.
	Result func(ec *engine.ExecutionContext) item.Sequence
}

// FakeProfile is a scripted engine profile. It records every call in
// Events and every evaluated context in Contexts.
type FakeProfile struct {
	Scripts   map[string]FakeScript
	StringErr error

	Events   []string
	Contexts []*engine.ExecutionContext
}

// NewFakeProfile creates a profile with no scripts.
func NewFakeProfile() *FakeProfile {
	return &FakeProfile{Scripts: make(map[string]FakeScript)}
}

func (p *FakeProfile) Name() string { return "fake" }

// NewString returns raw wrapped in a FakeString.
func (p *FakeProfile) NewString(raw string) (engine.Value, error) {
	if p.StringErr != nil {
		return nil, p.StringErr
	}
	return FakeString(raw), nil
}

func (p *FakeProfile) Compile(src engine.Source) (engine.CompiledQuery, error) {
	p.Events = append(p.Events, "compile "+src.Ref)
	script := p.Scripts[src.Ref]
	if script.CompileWarning != "" && src.Listener != nil {
		src.Listener.Warning(diag.Location{File: src.Ref}, script.CompileWarning)
	}
	if script.CompileErr != nil {
		return nil, script.CompileErr
	}
	return &FakeQuery{profile: p, ref: src.Ref, script: script}, nil
}

// FakeString is the Value type FakeProfile creates.
type FakeString string

// FakeQuery is a query compiled by FakeProfile.
type FakeQuery struct {
	profile  *FakeProfile
	ref      string
	script   FakeScript
	released bool
}

func (q *FakeQuery) Source() string         { return q.ref }
func (q *FakeQuery) DefaultBaseURI() string { return "file:///default/" + q.ref }
func (q *FakeQuery) Describe() string       { return "fake " + q.ref + "\n" }

func (q *FakeQuery) Evaluate(ec *engine.ExecutionContext) (item.Sequence, error) {
	if q.released {
		return nil, fmt.Errorf("%s evaluated after release", q.ref)
	}
	q.profile.Events = append(q.profile.Events, "eval "+q.ref)
	q.profile.Contexts = append(q.profile.Contexts, ec)
	if q.script.Panic != nil {
		panic(q.script.Panic)
	}
	if q.script.EvalErr != nil {
		return nil, q.script.EvalErr
	}
	if q.script.Result != nil {
		return q.script.Result(ec), nil
	}
	return item.Slice(item.String(q.ref)), nil
}

func (q *FakeQuery) Release() {
	q.profile.Events = append(q.profile.Events, "release "+q.ref)
	q.released = true
}

// ReadFakeSource is a batch source reader that never touches the
// filesystem.
func ReadFakeSource(ref string) (engine.Source, error) {
	return engine.Source{Ref: ref, Filename: ref, Data: []byte(ref)}, nil
}
