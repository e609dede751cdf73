package hclengine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
	"github.com/roach88/xqbatch/internal/resolve"
)

var fixedNow = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

type recordingListener struct {
	warnings []string
	traces   []string
}

func (l *recordingListener) Warning(_ diag.Location, msg string) {
	l.warnings = append(l.warnings, msg)
}

func (l *recordingListener) Trace(_ diag.Location, label string, values []string) {
	l.traces = append(l.traces, label+"="+strings.Join(values, ","))
}

func compile(t *testing.T, src string) engine.CompiledQuery {
	t.Helper()
	q, err := New().Compile(engine.Source{Ref: "q.hcl", Filename: "q.hcl", Data: []byte(src)})
	require.NoError(t, err)
	t.Cleanup(q.Release)
	return q
}

func evaluate(t *testing.T, q engine.CompiledQuery, ec *engine.ExecutionContext) []item.Item {
	t.Helper()
	seq, err := q.Evaluate(ec)
	require.NoError(t, err)
	items, err := item.Collect(seq)
	require.NoError(t, err)
	return items
}

func TestEvaluateObjectWithVariable(t *testing.T) {
	q := compile(t, `result = {
  greeting = { "@lang" = "en", "#text" = "hello ${upper(var.name)}" }
}
`)
	name, err := New().NewString("world")
	require.NoError(t, err)

	items := evaluate(t, q, &engine.ExecutionContext{
		Variables:   map[string]engine.Value{"name": name},
		CurrentTime: fixedNow,
	})

	require.Len(t, items, 1)
	doc := items[0].(*item.Node)
	greeting := doc.Children[0]
	assert.Equal(t, "greeting", greeting.Name.Local)
	assert.Equal(t, []item.Attr{{Name: item.Local("lang"), Value: "en"}}, greeting.Attrs)
	assert.Equal(t, "hello WORLD", greeting.StringValue())
}

func TestEvaluateTupleIsSequence(t *testing.T) {
	q := compile(t, `result = [1, "two", 1.5, true, null]`)

	items := evaluate(t, q, &engine.ExecutionContext{CurrentTime: fixedNow})
	assert.Equal(t, []item.Item{item.Integer(1), item.String("two"), item.Double(1.5), item.Boolean(true)}, items)
}

func TestEvaluateInput(t *testing.T) {
	q := compile(t, `result = { id = input.book["@id"], title = input.book.title }`)

	book := &item.Node{
		Kind:     item.ElementNode,
		Name:     item.Local("book"),
		Attrs:    []item.Attr{{Name: item.Local("id"), Value: "b7"}},
		Children: []*item.Node{item.NewElement(item.Local("title"), item.NewText("Go"))},
	}
	ec := &engine.ExecutionContext{CurrentTime: fixedNow}
	ec.SetContextItem(item.NewDocument(book))

	items := evaluate(t, q, ec)
	els := items[0].(*item.Node).Children
	require.Len(t, els, 2)
	assert.Equal(t, "b7", els[0].StringValue())
	assert.Equal(t, "Go", els[1].StringValue())
}

func TestEvaluateUnboundInputIsNull(t *testing.T) {
	q := compile(t, `result = input == null ? "none" : "some"`)

	items := evaluate(t, q, &engine.ExecutionContext{CurrentTime: fixedNow})
	assert.Equal(t, []item.Item{item.String("none")}, items)
}

func TestEvaluateContextFields(t *testing.T) {
	q := compile(t, `result = [now, timestamp(), base_uri]`)

	items := evaluate(t, q, &engine.ExecutionContext{BaseURI: "file:///srv/q.hcl", CurrentTime: fixedNow})
	assert.Equal(t, []item.Item{
		item.String("2024-03-09T10:30:00Z"),
		item.String("2024-03-09T10:30:00Z"),
		item.String("file:///srv/q.hcl"),
	}, items)
}

func TestEvaluateDocUsesResolver(t *testing.T) {
	q := compile(t, `result = doc("data.json").name`)

	var gotRef, gotBase string
	ec := &engine.ExecutionContext{
		BaseURI:     "file:///srv/q.hcl",
		CurrentTime: fixedNow,
		Resolver: resolve.ResolverFunc(func(ref, baseURI string) (item.Sequence, error) {
			gotRef, gotBase = ref, baseURI
			items, err := item.FromValue(item.Object{{Key: "name", Value: "ada"}})
			if err != nil {
				return nil, err
			}
			return item.Slice(items...), nil
		}),
	}

	items := evaluate(t, q, ec)
	assert.Equal(t, []item.Item{item.String("ada")}, items)
	assert.Equal(t, "data.json", gotRef)
	assert.Equal(t, "file:///srv/q.hcl", gotBase)
}

func TestEvaluateTrace(t *testing.T) {
	q := compile(t, `
result = 1
trace  = { n = [1, 2], m = "x" }
`)
	l := &recordingListener{}
	items := evaluate(t, q, &engine.ExecutionContext{CurrentTime: fixedNow, Listener: l})

	assert.Equal(t, []item.Item{item.Integer(1)}, items)
	assert.Equal(t, []string{"m=x", "n=1,2"}, l.traces)
}

func TestEvaluateUnknownFunction(t *testing.T) {
	q := compile(t, "result = nosuch(1)\n")

	_, err := q.Evaluate(&engine.ExecutionContext{CurrentTime: fixedNow})
	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.Location{File: "q.hcl", Line: 1, Column: 10}, d.Location)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing result", "other = 1\n", 1, "unsupported attribute"},
		{"no attributes", "\n", 1, "no result attribute"},
		{"extra attribute", "result = 1\nextra = 2\n", 2, `"extra"`},
		{"syntax", "result = [1,\n", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Compile(engine.Source{Ref: "q.hcl", Filename: "q.hcl", Data: []byte(tt.src)})
			require.Error(t, err)
			d, ok := diag.As(err)
			require.True(t, ok)
			assert.Equal(t, "q.hcl", d.File)
			assert.GreaterOrEqual(t, d.Line, tt.line)
			assert.Contains(t, d.Message, tt.msg)
		})
	}
}

func TestCompileReportsFirstUnsupportedAttribute(t *testing.T) {
	src := []byte("result = 1\nzeta = 2\nalpha = 3\nmid = 4\n")
	for i := 0; i < 20; i++ {
		_, err := New().Compile(engine.Source{Ref: "q.hcl", Filename: "q.hcl", Data: src})
		d, ok := diag.As(err)
		require.True(t, ok)
		require.Equal(t, 2, d.Line)
		require.Contains(t, d.Message, `"zeta"`)
	}
}

func TestDescribe(t *testing.T) {
	q, err := New().Compile(engine.Source{
		Ref:      "q.hcl",
		Filename: "/srv/q.hcl",
		Data:     []byte(`result = upper(join(",", [var.a, input.x]))`),
	})
	require.NoError(t, err)

	out := q.Describe()
	assert.Contains(t, out, `result = upper(join(",", [var.a, input.x]))`)
	assert.Contains(t, out, "# variables: input.x, var.a")
	assert.Contains(t, out, "# functions: join, upper")
	assert.Equal(t, "file:///srv/q.hcl", q.DefaultBaseURI())
}

func TestValueConversions(t *testing.T) {
	v, err := ctyValue(item.Object{
		{Key: "a", Value: []any{int64(1), 2.5, "x", true, nil}},
		{Key: "empty", Value: item.Object{}},
	})
	require.NoError(t, err)
	assert.True(t, v.Type().IsObjectType())

	g, err := goValue(v)
	require.NoError(t, err)
	assert.Equal(t, item.Object{
		{Key: "a", Value: []any{int64(1), 2.5, "x", true, nil}},
		{Key: "empty", Value: item.Object{}},
	}, g)

	assert.Equal(t, "3", display(cty.NumberIntVal(3)))
	assert.Equal(t, `{"k":"v"}`, display(cty.ObjectVal(map[string]cty.Value{"k": cty.StringVal("v")})))
}
