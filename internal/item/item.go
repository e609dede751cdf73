package item

import (
	"fmt"
	"strconv"
	"strings"
)

// XMLNamespace is the namespace permanently bound to the "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// XMLNSNamespace is the namespace of xmlns attributes. It is never declared.
const XMLNSNamespace = "http://www.w3.org/2000/xmlns/"

// Item is a single member of a result sequence.
type Item interface {
	// IsNode reports whether the item is a structured (node) value.
	IsNode() bool
	// StringValue returns the item's string value.
	StringValue() string
}

// AtomicType names the type of an atomic value.
type AtomicType string

const (
	TypeString  AtomicType = "string"
	TypeInteger AtomicType = "integer"
	TypeDouble  AtomicType = "double"
	TypeBoolean AtomicType = "boolean"
)

// Atomic is a non-node item. Value holds a string, int64, float64 or bool
// matching Type.
type Atomic struct {
	Type  AtomicType
	Value any
}

// String creates a string atomic.
func String(s string) Atomic { return Atomic{Type: TypeString, Value: s} }

// Integer creates an integer atomic.
func Integer(n int64) Atomic { return Atomic{Type: TypeInteger, Value: n} }

// Double creates a double atomic.
func Double(f float64) Atomic { return Atomic{Type: TypeDouble, Value: f} }

// Boolean creates a boolean atomic.
func Boolean(b bool) Atomic { return Atomic{Type: TypeBoolean, Value: b} }

func (Atomic) IsNode() bool { return false }

// StringValue returns the lexical form of the value.
func (a Atomic) StringValue() string {
	switch v := a.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Name is a namespaced node name. Prefix is a preference only; the
// serialization chain may rename it to keep declarations consistent.
type Name struct {
	Space  string
	Prefix string
	Local  string
}

// Local returns a no-namespace name.
func Local(local string) Name { return Name{Local: local} }

// Qualified returns the prefixed lexical name.
func (n Name) Qualified() string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Local
	}
	return n.Local
}

// Clark returns the name in Clark notation, keeping the prefix hint.
// No-namespace names are returned as their local part.
func (n Name) Clark() string {
	if n.Space == "" {
		return n.Local
	}
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(n.Space)
	b.WriteByte('}')
	if n.Prefix != "" {
		b.WriteString(n.Prefix)
		b.WriteByte(':')
	}
	b.WriteString(n.Local)
	return b.String()
}

func (n Name) String() string { return n.Clark() }

// Namespace is a prefix to URI binding. An empty Prefix is the default
// namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// Attr is an element attribute.
type Attr struct {
	Name  Name
	Value string
}

// NodeKind distinguishes node types.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a document, element or text node.
type Node struct {
	Kind       NodeKind
	Name       Name        // elements only
	Namespaces []Namespace // declarations made on this element
	Attrs      []Attr
	Children   []*Node
	Text       string // text nodes only
}

// NewDocument creates a document node.
func NewDocument(children ...*Node) *Node {
	return &Node{Kind: DocumentNode, Children: children}
}

// NewElement creates an element node.
func NewElement(name Name, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Name: name, Children: children}
}

// NewText creates a text node.
func NewText(s string) *Node {
	return &Node{Kind: TextNode, Text: s}
}

func (*Node) IsNode() bool { return true }

// StringValue returns the concatenated descendant text.
func (n *Node) StringValue() string {
	if n.Kind == TextNode {
		return n.Text
	}
	var b strings.Builder
	n.appendText(&b)
	return b.String()
}

func (n *Node) appendText(b *strings.Builder) {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			b.WriteString(c.Text)
			continue
		}
		c.appendText(b)
	}
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}
