package item

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromValueScalarsAndLists(t *testing.T) {
	items, err := FromValue([]any{"a", int64(2), []any{true, 1.5}, nil})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, String("a"), items[0])
	assert.Equal(t, Integer(2), items[1])
	assert.Equal(t, Boolean(true), items[2])
	assert.Equal(t, Double(1.5), items[3])
}

func TestFromValueNilIsEmpty(t *testing.T) {
	items, err := FromValue(nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFromValueObjectBuildsDocument(t *testing.T) {
	v := Object{
		{Key: "book", Value: Object{
			{Key: "@id", Value: "b1"},
			{Key: "title", Value: "Go"},
			{Key: "tag", Value: []any{"x", "y"}},
		}},
	}

	items, err := FromValue(v)
	require.NoError(t, err)
	require.Len(t, items, 1)

	doc, ok := items[0].(*Node)
	require.True(t, ok)
	assert.Equal(t, DocumentNode, doc.Kind)
	require.Len(t, doc.Children, 1)

	book := doc.Children[0]
	assert.Equal(t, Local("book"), book.Name)
	assert.Equal(t, []Attr{{Name: Local("id"), Value: "b1"}}, book.Attrs)

	els := book.Elements()
	require.Len(t, els, 3)
	assert.Equal(t, "title", els[0].Name.Local)
	assert.Equal(t, "Go", els[0].StringValue())
	assert.Equal(t, "tag", els[1].Name.Local)
	assert.Equal(t, "tag", els[2].Name.Local)
	assert.Equal(t, "y", els[2].StringValue())
}

func TestFromValueNamespaces(t *testing.T) {
	v := Object{
		{Key: "p:root", Value: Object{
			{Key: "@xmlns:p", Value: "urn:p"},
			{Key: "p:child", Value: "x"},
			{Key: "{urn:q}q:other", Value: nil},
			{Key: "@p:attr", Value: 1},
		}},
	}

	items, err := FromValue(v)
	require.NoError(t, err)
	root := items[0].(*Node).Children[0]

	assert.Equal(t, Name{Space: "urn:p", Prefix: "p", Local: "root"}, root.Name)
	assert.Equal(t, []Namespace{{Prefix: "p", URI: "urn:p"}}, root.Namespaces)
	assert.Equal(t, Name{Space: "urn:p", Prefix: "p", Local: "attr"}, root.Attrs[0].Name)
	assert.Equal(t, "1", root.Attrs[0].Value)

	els := root.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, Name{Space: "urn:p", Prefix: "p", Local: "child"}, els[0].Name)
	assert.Equal(t, Name{Space: "urn:q", Prefix: "q", Local: "other"}, els[1].Name)
	assert.Empty(t, els[1].Children)
}

func TestFromValueDefaultNamespace(t *testing.T) {
	v := Object{{Key: "root", Value: Object{
		{Key: "@xmlns", Value: "urn:d"},
		{Key: "child", Value: "x"},
		{Key: "@plain", Value: "y"},
	}}}

	items, err := FromValue(v)
	require.NoError(t, err)
	root := items[0].(*Node).Children[0]
	assert.Equal(t, "urn:d", root.Name.Space)
	assert.Equal(t, "urn:d", root.Elements()[0].Name.Space)
	assert.Equal(t, "", root.Attrs[0].Name.Space, "unprefixed attributes are never in the default namespace")
}

func TestFromValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		msg   string
	}{
		{"undeclared prefix", Object{{Key: "x:a", Value: "v"}}, "undeclared namespace prefix"},
		{"document attribute", Object{{Key: "@id", Value: "v"}}, "outside an element"},
		{"bad declaration", Object{{Key: "a", Value: Object{{Key: "@xmlns:p", Value: 3}}}}, "must be a string"},
		{"unsupported scalar", []any{struct{}{}}, "unsupported value type"},
		{"unterminated clark", Object{{Key: "{urn:a", Value: "v"}}, "unterminated namespace"},
		{"space in element name", Object{{Key: "hello world", Value: "x"}}, "invalid XML name"},
		{"digit starts element name", Object{{Key: "1bad", Value: "x"}}, "invalid XML name"},
		{"invalid attribute name", Object{{Key: "a", Value: Object{{Key: "@b=c", Value: "1"}}}}, "invalid XML name"},
		{"invalid prefix", Object{{Key: "{urn:a}-p:a", Value: "v"}}, "invalid XML name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromValue(tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestIsNCName(t *testing.T) {
	for _, s := range []string{"a", "_x", "a-b.c", "ns1", "élan", "a\u0301"} {
		assert.True(t, IsNCName(s), s)
	}
	for _, s := range []string{"", "1a", "-a", ".a", "a b", "a:b", "a=b", "a\x01"} {
		assert.False(t, IsNCName(s), s)
	}
}

func TestToValueGroupsAndCollapses(t *testing.T) {
	doc := NewDocument(
		NewElement(Local("catalog"),
			&Node{Kind: ElementNode, Name: Local("book"), Attrs: []Attr{{Name: Local("id"), Value: "1"}},
				Children: []*Node{NewElement(Local("title"), NewText("A"))}},
			NewElement(Local("book"), NewElement(Local("title"), NewText("B"))),
			NewElement(Name{Space: "urn:x", Prefix: "x", Local: "note"}, NewText("n")),
		),
	)

	v := ToValue(doc)
	expected := Object{
		{Key: "catalog", Value: Object{
			{Key: "book", Value: []any{
				Object{{Key: "@id", Value: "1"}, {Key: "title", Value: "A"}},
				Object{{Key: "title", Value: "B"}},
			}},
			{Key: "{urn:x}x:note", Value: "n"},
		}},
	}
	assert.Equal(t, expected, v)
}

func TestToValueRoundTripsThroughFromValue(t *testing.T) {
	original := NewDocument(NewElement(Name{Space: "urn:x", Prefix: "x", Local: "a"},
		NewElement(Local("b"), NewText("1")),
		NewElement(Local("c"), NewText("2")),
	))

	items, err := FromValue(ToValue(original))
	require.NoError(t, err)
	require.Len(t, items, 1)

	a := items[0].(*Node).Children[0]
	assert.Equal(t, original.Children[0].Name, a.Name)
	assert.Equal(t, "12", a.StringValue())
}

func TestObjectMarshalJSONKeepsOrder(t *testing.T) {
	obj := Object{{Key: "z", Value: 1}, {Key: "a", Value: Object{{Key: "@id", Value: "x"}}}, {Key: "m", Value: []any{"q"}}}
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"@id":"x"},"m":["q"]}`, string(b))
}

func TestAtomicStringValue(t *testing.T) {
	assert.Equal(t, "abc", String("abc").StringValue())
	assert.Equal(t, "-4", Integer(-4).StringValue())
	assert.Equal(t, "0.25", Double(0.25).StringValue())
	assert.Equal(t, "false", Boolean(false).StringValue())
}

func TestSequences(t *testing.T) {
	items, err := Collect(Slice(String("a"), String("b")))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	first, err := First(Empty())
	require.NoError(t, err)
	assert.Nil(t, first)

	n := 0
	seq := FromFunc(func() (Item, bool, error) {
		n++
		if n > 2 {
			return nil, false, assert.AnError
		}
		return Integer(int64(n)), true, nil
	})
	got, err := Collect(seq)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []Item{Integer(1), Integer(2)}, got)
	assert.False(t, seq.Next(), "exhausted sequences stay exhausted")
}
