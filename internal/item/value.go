package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Reserved object keys.
const (
	AttrPrefix = "@"
	TextKey    = "#text"
	xmlnsKey   = "@xmlns"
)

// Field is one key/value pair of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is an ordered map. Engines and resolvers use it wherever key order
// must survive the round trip to and from nodes.
type Object []Field

// Get returns the value of the first field named key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON writes the fields in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromValue converts a generic value into a sequence of items.
func FromValue(v any) ([]Item, error) {
	var out []Item
	if err := appendItems(&out, v); err != nil {
		return nil, err
	}
	return out, nil
}

func appendItems(out *[]Item, v any) error {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		for _, e := range x {
			if err := appendItems(out, e); err != nil {
				return err
			}
		}
		return nil
	case Object:
		doc, err := documentFromObject(x)
		if err != nil {
			return err
		}
		*out = append(*out, doc)
		return nil
	case Item:
		*out = append(*out, x)
		return nil
	default:
		a, err := AtomicOf(x)
		if err != nil {
			return err
		}
		*out = append(*out, a)
		return nil
	}
}

// AtomicOf converts a Go scalar into an Atomic.
func AtomicOf(v any) (Atomic, error) {
	switch x := v.(type) {
	case Atomic:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case int:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint32:
		return Integer(int64(x)), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	default:
		return Atomic{}, fmt.Errorf("item: unsupported value type %T", v)
	}
}

// scope is a chain of namespace declarations used to resolve prefixed keys.
type scope struct {
	parent *scope
	decls  []Namespace
}

func (s *scope) lookup(prefix string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		for i := len(sc.decls) - 1; i >= 0; i-- {
			if sc.decls[i].Prefix == prefix {
				return sc.decls[i].URI, true
			}
		}
	}
	switch prefix {
	case "xml":
		return XMLNamespace, true
	case "":
		return "", true
	}
	return "", false
}

func isDeclKey(key string) bool {
	return key == xmlnsKey || strings.HasPrefix(key, xmlnsKey+":")
}

func declsOf(obj Object, parent *scope) (*scope, error) {
	s := &scope{parent: parent}
	for _, f := range obj {
		if !isDeclKey(f.Key) {
			continue
		}
		uri, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("item: namespace declaration %q must be a string, got %T", f.Key, f.Value)
		}
		prefix := strings.TrimPrefix(strings.TrimPrefix(f.Key, xmlnsKey), ":")
		s.decls = append(s.decls, Namespace{Prefix: prefix, URI: uri})
	}
	return s, nil
}

func documentFromObject(obj Object) (*Node, error) {
	sc, err := declsOf(obj, nil)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	for _, f := range obj {
		switch {
		case isDeclKey(f.Key):
		case strings.HasPrefix(f.Key, AttrPrefix):
			return nil, fmt.Errorf("item: attribute %q outside an element", f.Key)
		case f.Key == TextKey:
			texts, err := textNodes(f.Value)
			if err != nil {
				return nil, err
			}
			doc.Children = append(doc.Children, texts...)
		default:
			els, err := elementsFor(f.Key, f.Value, sc)
			if err != nil {
				return nil, err
			}
			doc.Children = append(doc.Children, els...)
		}
	}
	return doc, nil
}

func elementsFor(key string, v any, sc *scope) ([]*Node, error) {
	if list, ok := v.([]any); ok {
		var out []*Node
		for _, e := range list {
			els, err := elementsFor(key, e, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, els...)
		}
		return out, nil
	}

	el := &Node{Kind: ElementNode}
	inner := sc
	obj, isObject := v.(Object)
	if isObject {
		var err error
		if inner, err = declsOf(obj, sc); err != nil {
			return nil, err
		}
		el.Namespaces = inner.decls
	}

	name, err := resolveName(key, inner, false)
	if err != nil {
		return nil, err
	}
	el.Name = name

	switch x := v.(type) {
	case nil:
	case Object:
		if err := fillElement(el, x, inner); err != nil {
			return nil, err
		}
	case *Node:
		el.Children = append(el.Children, contentOf(x)...)
	default:
		a, err := AtomicOf(x)
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", key, err)
		}
		el.Children = append(el.Children, NewText(a.StringValue()))
	}
	return []*Node{el}, nil
}

func fillElement(el *Node, obj Object, sc *scope) error {
	for _, f := range obj {
		switch {
		case isDeclKey(f.Key):
		case strings.HasPrefix(f.Key, AttrPrefix):
			name, err := resolveName(strings.TrimPrefix(f.Key, AttrPrefix), sc, true)
			if err != nil {
				return err
			}
			a, err := AtomicOf(f.Value)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", f.Key, err)
			}
			el.Attrs = append(el.Attrs, Attr{Name: name, Value: a.StringValue()})
		case f.Key == TextKey:
			texts, err := textNodes(f.Value)
			if err != nil {
				return err
			}
			el.Children = append(el.Children, texts...)
		default:
			els, err := elementsFor(f.Key, f.Value, sc)
			if err != nil {
				return err
			}
			el.Children = append(el.Children, els...)
		}
	}
	return nil
}

// contentOf returns the nodes a node contributes as element content.
func contentOf(n *Node) []*Node {
	if n.Kind == DocumentNode {
		return n.Children
	}
	return []*Node{n}
}

func textNodes(v any) ([]*Node, error) {
	if list, ok := v.([]any); ok {
		var out []*Node
		for _, e := range list {
			texts, err := textNodes(e)
			if err != nil {
				return nil, err
			}
			out = append(out, texts...)
		}
		return out, nil
	}
	if v == nil {
		return nil, nil
	}
	a, err := AtomicOf(v)
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	return []*Node{NewText(a.StringValue())}, nil
}

// ParseName splits a key into a Name without resolving prefixes. Clark
// notation yields the URI; a plain "p:local" leaves Space empty.
func ParseName(key string) (Name, error) {
	if strings.HasPrefix(key, "{") {
		end := strings.IndexByte(key, '}')
		if end < 0 {
			return Name{}, fmt.Errorf("item: unterminated namespace in %q", key)
		}
		prefix, local := splitQName(key[end+1:])
		if err := checkQName(key, prefix, local); err != nil {
			return Name{}, err
		}
		return Name{Space: key[1:end], Prefix: prefix, Local: local}, nil
	}
	prefix, local := splitQName(key)
	if err := checkQName(key, prefix, local); err != nil {
		return Name{}, err
	}
	return Name{Prefix: prefix, Local: local}, nil
}

func checkQName(key, prefix, local string) error {
	if local == "" {
		return fmt.Errorf("item: empty local name in %q", key)
	}
	if !IsNCName(local) || (prefix != "" && !IsNCName(prefix)) {
		return fmt.Errorf("item: invalid XML name %q", key)
	}
	return nil
}

// IsNCName reports whether s is a valid XML name without colons.
func IsNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStart(r) {
				return false
			}
			continue
		}
		if !isNameStart(r) && !isNameChar(r) {
			return false
		}
	}
	return true
}

func isNameStart(r rune) bool {
	switch {
	case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r < 0xC0:
		return false
	}
	return unicode.In(r, unicode.Letter, unicode.Nl)
}

func isNameChar(r rune) bool {
	switch {
	case r == '-', r == '.', r >= '0' && r <= '9', r == 0xB7:
		return true
	case r < 0x300:
		return false
	}
	return unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Lm, unicode.Pc)
}

func resolveName(key string, sc *scope, attr bool) (Name, error) {
	if strings.HasPrefix(key, "{") {
		return ParseName(key)
	}
	n, err := ParseName(key)
	if err != nil {
		return Name{}, err
	}
	if n.Prefix == "" {
		if attr {
			return n, nil
		}
		n.Space, _ = sc.lookup("")
		return n, nil
	}
	uri, ok := sc.lookup(n.Prefix)
	if !ok {
		return Name{}, fmt.Errorf("item: undeclared namespace prefix %q in %q", n.Prefix, key)
	}
	n.Space = uri
	return n, nil
}

func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// ToValue converts an item into a generic value: atomics become their Go
// value, text nodes strings, and documents and elements Objects keyed by
// Clark names. Repeated child elements are grouped into a list and
// text-only elements collapse to their string value.
func ToValue(it Item) any {
	switch x := it.(type) {
	case nil:
		return nil
	case Atomic:
		return x.Value
	case *Node:
		switch x.Kind {
		case TextNode:
			return x.Text
		case DocumentNode:
			return childObject(nil, x.Children)
		default:
			return elementValue(x)
		}
	default:
		return it.StringValue()
	}
}

func elementValue(n *Node) any {
	if len(n.Attrs) == 0 && len(n.Elements()) == 0 {
		return n.StringValue()
	}
	obj := make(Object, 0, len(n.Attrs)+len(n.Children))
	for _, a := range n.Attrs {
		obj = append(obj, Field{Key: AttrPrefix + a.Name.Clark(), Value: a.Value})
	}
	return childObject(obj, n.Children)
}

func childObject(obj Object, children []*Node) Object {
	if obj == nil {
		obj = Object{}
	}
	index := make(map[string]int)
	var text strings.Builder
	for _, c := range children {
		if c.Kind == TextNode {
			text.WriteString(c.Text)
			continue
		}
		key := c.Name.Clark()
		v := elementValue(c)
		i, seen := index[key]
		if !seen {
			index[key] = len(obj)
			obj = append(obj, Field{Key: key, Value: v})
			continue
		}
		if list, ok := obj[i].Value.([]any); ok {
			obj[i].Value = append(list, v)
		} else {
			obj[i].Value = []any{obj[i].Value, v}
		}
	}
	if s := text.String(); strings.TrimSpace(s) != "" {
		obj = append(obj, Field{Key: TextKey, Value: s})
	}
	return obj
}
