package hclengine

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
)

// Evaluate evaluates the result attribute against ec.
func (q *Query) Evaluate(ec *engine.ExecutionContext) (item.Sequence, error) {
	if q.released {
		return nil, fmt.Errorf("query %s used after release", q.ref)
	}
	l := ec.Events()

	evalCtx, err := q.evalContext(ec)
	if err != nil {
		return nil, err
	}

	if q.trace != nil {
		if err := q.report(evalCtx, l); err != nil {
			return nil, err
		}
	}

	val, diags := q.result.Expr.Value(evalCtx)
	reportWarnings(diags, q.filename, l)
	if diags.HasErrors() {
		return nil, toDiagnostic(diags, q.filename)
	}
	if !val.IsWhollyKnown() {
		return nil, diag.New(location(q.result.Expr.Range()), "result is not known")
	}

	g, err := goValue(val)
	if err != nil {
		return nil, diag.Wrap(location(q.result.Expr.Range()), err)
	}
	items, err := item.FromValue(g)
	if err != nil {
		return nil, diag.Wrap(location(q.result.Expr.Range()), err)
	}
	return item.Slice(items...), nil
}

func (q *Query) evalContext(ec *engine.ExecutionContext) (*hcl.EvalContext, error) {
	vars := make(map[string]cty.Value, len(ec.Variables))
	for name, v := range ec.Variables {
		cv, ok := v.(cty.Value)
		if !ok {
			return nil, fmt.Errorf("variable %q: expected a cty value, got %T", name, v)
		}
		vars[name] = cv
	}
	varObj := cty.EmptyObjectVal
	if len(vars) > 0 {
		varObj = cty.ObjectVal(vars)
	}

	input := cty.NullVal(cty.DynamicPseudoType)
	if ec.HasContextItem() {
		v, err := ctyValue(item.ToValue(ec.ContextItem))
		if err != nil {
			return nil, diag.Wrap(diag.Location{File: q.filename}, fmt.Errorf("convert context item: %w", err))
		}
		input = v
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			engine.VarName:     varObj,
			engine.InputName:   input,
			engine.NowName:     cty.StringVal(ec.Timestamp()),
			engine.BaseURIName: cty.StringVal(ec.BaseURI),
		},
		Functions: functions(ec),
	}, nil
}

// report evaluates the trace object and sends one trace per attribute.
func (q *Query) report(evalCtx *hcl.EvalContext, l diag.Listener) error {
	val, diags := q.trace.Expr.Value(evalCtx)
	reportWarnings(diags, q.filename, l)
	if diags.HasErrors() {
		return toDiagnostic(diags, q.filename)
	}
	val, _ = val.UnmarkDeep()
	ty := val.Type()
	if val.IsNull() || !(ty.IsObjectType() || ty.IsMapType()) {
		return diag.New(location(q.trace.Expr.Range()), "trace must be an object of label = value pairs")
	}

	loc := location(q.trace.Expr.Range())
	it := val.ElementIterator()
	for it.Next() {
		key, v := it.Element()
		var values []string
		if t := v.Type(); !v.IsNull() && (t.IsTupleType() || t.IsListType() || t.IsSetType()) {
			ei := v.ElementIterator()
			for ei.Next() {
				_, e := ei.Element()
				values = append(values, display(e))
			}
		} else {
			values = []string{display(v)}
		}
		l.Trace(loc, key.AsString(), values)
	}
	return nil
}
