package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/xqbatch/internal/item"
)

// JSON, YAML and TOML documents are decoded into ordered values so that
// object keys keep their document order when they become elements.

func decodeJSON(r io.Reader) ([]item.Item, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := readJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return item.FromValue(v)
}

func readJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := item.Object{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, item.Field{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				v, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func decodeYAML(r io.Reader) ([]item.Item, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	v, err := yamlValue(&doc)
	if err != nil {
		return nil, err
	}
	return item.FromValue(v)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.MappingNode:
		obj := make(item.Object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, item.Field{Key: n.Content[i].Value, Value: v})
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		var x any
		if err := n.Decode(&x); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch v := x.(type) {
		case nil, string, bool, float64, int64:
			return v, nil
		case int:
			return int64(v), nil
		case uint64:
			return float64(v), nil
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

func decodeTOML(r io.Reader) ([]item.Item, error) {
	var m map[string]any
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, err
	}

	// MetaData.Keys lists keys in definition order; use it to order each table.
	order := make(map[string][]string)
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		for i := range key {
			full := strings.Join(key[:i+1], "\x00")
			if seen[full] {
				continue
			}
			seen[full] = true
			parent := strings.Join(key[:i], "\x00")
			order[parent] = append(order[parent], key[i])
		}
	}
	return item.FromValue(tomlValue(m, nil, order))
}

func tomlValue(v any, path []string, order map[string][]string) any {
	switch x := v.(type) {
	case map[string]any:
		keys := orderedKeys(x, order[strings.Join(path, "\x00")])
		obj := make(item.Object, 0, len(keys))
		for _, k := range keys {
			obj = append(obj, item.Field{Key: k, Value: tomlValue(x[k], append(path[:len(path):len(path)], k), order)})
		}
		return obj
	case []map[string]any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = tomlValue(e, path, order)
		}
		return list
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = tomlValue(e, path, order)
		}
		return list
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string, bool, int64, float64:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func orderedKeys(m map[string]any, preferred []string) []string {
	keys := make([]string, 0, len(m))
	used := make(map[string]bool, len(m))
	for _, k := range preferred {
		if _, ok := m[k]; ok && !used[k] {
			keys = append(keys, k)
			used[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
