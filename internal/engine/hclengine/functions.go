package hclengine

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
)

var standardFunctions = map[string]function.Function{
	"abs":        stdlib.AbsoluteFunc,
	"coalesce":   stdlib.CoalesceFunc,
	"concat":     stdlib.ConcatFunc,
	"contains":   stdlib.ContainsFunc,
	"distinct":   stdlib.DistinctFunc,
	"flatten":    stdlib.FlattenFunc,
	"format":     stdlib.FormatFunc,
	"formatdate": stdlib.FormatDateFunc,
	"join":       stdlib.JoinFunc,
	"jsondecode": stdlib.JSONDecodeFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"keys":       stdlib.KeysFunc,
	"length":     stdlib.LengthFunc,
	"lookup":     stdlib.LookupFunc,
	"lower":      stdlib.LowerFunc,
	"max":        stdlib.MaxFunc,
	"merge":      stdlib.MergeFunc,
	"min":        stdlib.MinFunc,
	"range":      stdlib.RangeFunc,
	"replace":    stdlib.ReplaceFunc,
	"sort":       stdlib.SortFunc,
	"split":      stdlib.SplitFunc,
	"strlen":     stdlib.StrlenFunc,
	"substr":     stdlib.SubstrFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"upper":      stdlib.UpperFunc,
	"values":     stdlib.ValuesFunc,
}

// functions returns the function table for one evaluation. timestamp and
// doc are bound to ec.
func functions(ec *engine.ExecutionContext) map[string]function.Function {
	funcs := make(map[string]function.Function, len(standardFunctions)+2)
	for name, f := range standardFunctions {
		funcs[name] = f
	}
	funcs["timestamp"] = timestampFunc(ec)
	funcs["doc"] = docFunc(ec)
	return funcs
}

func timestampFunc(ec *engine.ExecutionContext) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(ec.Timestamp()), nil
		},
	})
}

// docFunc loads a document through the context's resolver, relative to
// the context's base URI.
func docFunc(ec *engine.ExecutionContext) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "uri", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if ec.Resolver == nil {
				return cty.NilVal, fmt.Errorf("no document resolver configured")
			}
			seq, err := ec.Resolver.Resolve(args[0].AsString(), ec.BaseURI)
			if err != nil {
				return cty.NilVal, err
			}
			items, err := item.Collect(seq)
			if err != nil {
				return cty.NilVal, err
			}
			return ctyItems(items)
		},
	})
}
