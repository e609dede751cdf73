package hclengine

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/roach88/xqbatch/internal/item"
)

// goValue converts a known cty value to the generic form item.FromValue
// accepts. Object attributes come out in cty's sorted order.
func goValue(v cty.Value) (any, error) {
	v, _ = v.UnmarkDeep()
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		return number(v.AsBigFloat()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, e := it.Element()
			g, err := goValue(e)
			if err != nil {
				return nil, err
			}
			list = append(list, g)
		}
		return list, nil
	case ty.IsObjectType() || ty.IsMapType():
		obj := item.Object{}
		it := v.ElementIterator()
		for it.Next() {
			k, e := it.Element()
			g, err := goValue(e)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			obj = append(obj, item.Field{Key: k.AsString(), Value: g})
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported cty type %s", ty.FriendlyName())
	}
}

func number(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	x, _ := f.Float64()
	return x
}

// ctyValue converts a generic value from item.ToValue into cty.
func ctyValue(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			c, err := ctyValue(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = c
		}
		return cty.TupleVal(elems), nil
	case item.Object:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for _, f := range x {
			c, err := ctyValue(f.Value)
			if err != nil {
				return cty.NilVal, fmt.Errorf("field %q: %w", f.Key, err)
			}
			attrs[f.Key] = c
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}

// ctyItems converts a sequence of items into a single value, or a tuple
// when there is more than one.
func ctyItems(items []item.Item) (cty.Value, error) {
	if len(items) == 1 {
		return ctyValue(item.ToValue(items[0]))
	}
	if len(items) == 0 {
		return cty.EmptyTupleVal, nil
	}
	elems := make([]cty.Value, len(items))
	for i, it := range items {
		c, err := ctyValue(item.ToValue(it))
		if err != nil {
			return cty.NilVal, err
		}
		elems[i] = c
	}
	return cty.TupleVal(elems), nil
}

func display(v cty.Value) string {
	v, _ = v.UnmarkDeep()
	switch {
	case v.IsNull():
		return "null"
	case !v.IsKnown():
		return "(unknown)"
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case v.Type() == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
