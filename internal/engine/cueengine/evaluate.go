package cueengine

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
)

// Evaluate fills the reserved fields from ec and returns the items of result.
// List results are converted element by element as the sequence is read.
func (q *Query) Evaluate(ec *engine.ExecutionContext) (item.Sequence, error) {
	if q.released {
		return nil, fmt.Errorf("query %s used after release", q.ref)
	}

	v := q.value
	for name, val := range ec.Variables {
		v = v.FillPath(cue.MakePath(cue.Str(engine.VarName), cue.Str(name)), val)
	}
	if ec.HasContextItem() {
		in, err := q.encodeItem(ec.ContextItem)
		if err != nil {
			return nil, diag.Wrap(diag.Location{File: q.filename}, err)
		}
		v = v.FillPath(cue.MakePath(cue.Str(engine.InputName)), in)
	}
	v = v.FillPath(cue.MakePath(cue.Str(engine.NowName)), ec.Timestamp())
	v = v.FillPath(cue.MakePath(cue.Str(engine.BaseURIName)), ec.BaseURI)

	if err := q.report(v, ec.Events()); err != nil {
		return nil, err
	}

	result := v.LookupPath(cue.MakePath(cue.Str(resultField)))
	if err := result.Validate(cue.Concrete(true)); err != nil {
		return nil, toDiagnostic(err, q.filename)
	}

	switch result.Kind() {
	case cue.NullKind:
		return item.Empty(), nil
	case cue.ListKind:
		iter, err := result.List()
		if err != nil {
			return nil, toDiagnostic(err, q.filename)
		}
		var pending []item.Item
		return item.FromFunc(func() (item.Item, bool, error) {
			for len(pending) == 0 {
				if !iter.Next() {
					return nil, false, nil
				}
				items, err := q.items(iter.Value())
				if err != nil {
					return nil, false, err
				}
				pending = items
			}
			it := pending[0]
			pending = pending[1:]
			return it, true, nil
		}), nil
	default:
		items, err := q.items(result)
		if err != nil {
			return nil, err
		}
		return item.Slice(items...), nil
	}
}

func (q *Query) items(v cue.Value) ([]item.Item, error) {
	g, err := goValue(v)
	if err != nil {
		return nil, toDiagnostic(err, q.filename)
	}
	items, err := item.FromValue(g)
	if err != nil {
		return nil, diag.Wrap(location(v.Pos(), q.filename), err)
	}
	return items, nil
}

// encodeItem converts the context item through its JSON form so struct
// field order survives.
func (q *Query) encodeItem(it item.Item) (cue.Value, error) {
	b, err := json.Marshal(item.ToValue(it))
	if err != nil {
		return cue.Value{}, fmt.Errorf("encode context item: %w", err)
	}
	v := q.profile.ctx.CompileBytes(b, cue.Filename(engine.InputName))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("encode context item: %w", err)
	}
	return v, nil
}

// report sends the document's trace and warning entries to l.
func (q *Query) report(v cue.Value, l diag.Listener) error {
	if w := v.LookupPath(cue.MakePath(cue.Str(warningField))); w.Exists() {
		if err := w.Validate(cue.Concrete(true)); err != nil {
			return toDiagnostic(err, q.filename)
		}
		for _, e := range elements(w) {
			s, err := e.String()
			if err != nil {
				return toDiagnostic(err, q.filename)
			}
			l.Warning(location(e.Pos(), q.filename), s)
		}
	}

	if t := v.LookupPath(cue.MakePath(cue.Str(traceField))); t.Exists() {
		if err := t.Validate(cue.Concrete(true)); err != nil {
			return toDiagnostic(err, q.filename)
		}
		for _, e := range elements(t) {
			label, err := e.LookupPath(cue.ParsePath("label")).String()
			if err != nil {
				return toDiagnostic(err, q.filename)
			}
			var values []string
			if val := e.LookupPath(cue.ParsePath("value")); val.Exists() {
				for _, x := range elements(val) {
					values = append(values, display(x))
				}
			}
			l.Trace(location(e.Pos(), q.filename), label, values)
		}
	}
	return nil
}

// elements returns the members of a list, or v itself.
func elements(v cue.Value) []cue.Value {
	if v.Kind() != cue.ListKind {
		return []cue.Value{v}
	}
	var out []cue.Value
	iter, err := v.List()
	if err != nil {
		return nil
	}
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out
}

func display(v cue.Value) string {
	if s, err := v.String(); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// goValue converts a concrete CUE value to the generic form item.FromValue
// accepts. Struct fields keep declaration order.
func goValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.BytesKind:
		b, err := v.Bytes()
		return string(b), err
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		list := []any{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, e)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		obj := item.Object{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj = append(obj, item.Field{Key: iter.Selector().Unquoted(), Value: e})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported CUE kind %v", v.Kind())
	}
}

// toDiagnostic converts a CUE error into a diagnostic at the first position
// inside the query document.
func toDiagnostic(err error, filename string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return diag.Wrap(diag.Location{File: filename}, err)
	}
	first := errs[0]
	loc := diag.Location{File: filename}
	for _, pos := range errors.Positions(first) {
		if pos.IsValid() && pos.Filename() == filename {
			loc = location(pos, filename)
			break
		}
	}
	return &diag.Diagnostic{Kind: diag.KindError, Location: loc, Message: first.Error(), Err: err}
}

func location(pos token.Pos, filename string) diag.Location {
	if !pos.IsValid() {
		return diag.Location{File: filename}
	}
	file := pos.Filename()
	if file == "" {
		file = filename
	}
	return diag.Location{File: file, Line: pos.Line(), Column: pos.Column()}
}
