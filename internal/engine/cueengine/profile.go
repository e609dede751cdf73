// Package cueengine evaluates query documents written in CUE.
//
// A query document is a CUE file with a concrete top-level result field:
//
//	result: {
//		greeting: {"@lang": "en", "#text": "hello \(var.name)"}
//	}
//
// The reserved fields var, input, now and base_uri are declared for every
// document and filled from the execution context before result is read.
// A list result is a sequence of items; structs become documents following
// the item value mapping.
//
// Optional fields report through the context's listener:
//
//	trace:   [{label: "name", value: var.name}]
//	warning: ["deprecated input layout"]
package cueengine

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/resolve"
)

// Name is the profile name.
const Name = "cue"

const (
	resultField  = "result"
	traceField   = "trace"
	warningField = "warning"
)

// reserved is appended to every document so queries can reference the
// context fields without declaring them.
var reserved = []byte(`
var: {...}
input: _
now: string
base_uri: string
`)

// Profile compiles CUE query documents. All values it creates share one
// cue.Context, so compiled queries and variable values can be unified.
type Profile struct {
	ctx *cue.Context
}

// New creates a CUE profile.
func New() *Profile {
	return &Profile{ctx: cuecontext.New()}
}

func (p *Profile) Name() string { return Name }

// NewString encodes raw as a CUE string.
func (p *Profile) NewString(raw string) (engine.Value, error) {
	v := p.ctx.Encode(raw)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("encode variable value: %w", err)
	}
	return v, nil
}

// Compile builds src into a CUE value and checks that it defines result.
func (p *Profile) Compile(src engine.Source) (engine.CompiledQuery, error) {
	data := make([]byte, 0, len(src.Data)+len(reserved))
	data = append(data, src.Data...)
	data = append(data, reserved...)

	v := p.ctx.CompileBytes(data, cue.Filename(src.Filename))
	if err := v.Err(); err != nil {
		return nil, toDiagnostic(err, src.Filename)
	}
	if !v.LookupPath(cue.MakePath(cue.Str(resultField))).Exists() {
		return nil, diag.New(diag.Location{File: src.Filename, Line: 1, Column: 1},
			"query document defines no result field")
	}

	return &Query{
		profile:  p,
		ref:      src.Ref,
		filename: src.Filename,
		baseURI:  resolve.FileURI(src.Filename),
		value:    v,
	}, nil
}

// Query is a compiled CUE document.
type Query struct {
	profile  *Profile
	ref      string
	filename string
	baseURI  string
	value    cue.Value
	released bool
}

func (q *Query) Source() string         { return q.ref }
func (q *Query) DefaultBaseURI() string { return q.baseURI }

// Describe formats the compiled value as CUE.
func (q *Query) Describe() string {
	b, err := format.Node(q.value.Syntax(cue.Docs(true)))
	if err != nil {
		return fmt.Sprintf("// %s: %v\n", q.filename, err)
	}
	return string(b)
}

// Release drops the compiled value.
func (q *Query) Release() {
	q.value = cue.Value{}
	q.released = true
}
