package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/item"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Millisecond)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Millisecond), c.Now())
}

func TestFixedIDGenerator(t *testing.T) {
	g := NewFixedIDGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Equal(t, "b", g.Generate())

	assert.Equal(t, "batch-default", NewFixedIDGenerator().Generate())
}

func TestFakeProfileRecordsCalls(t *testing.T) {
	p := NewFakeProfile()
	src, err := ReadFakeSource("q1")
	require.NoError(t, err)

	q, err := p.Compile(src)
	require.NoError(t, err)
	seq, err := q.Evaluate(&engine.ExecutionContext{})
	require.NoError(t, err)
	items, err := item.Collect(seq)
	require.NoError(t, err)
	q.Release()

	assert.Equal(t, []item.Item{item.String("q1")}, items)
	assert.Equal(t, []string{"compile q1", "eval q1", "release q1"}, p.Events)
	assert.Len(t, p.Contexts, 1)

	_, err = q.Evaluate(&engine.ExecutionContext{})
	assert.Error(t, err)
}

func TestFakeProfileScripts(t *testing.T) {
	p := NewFakeProfile()
	p.Scripts["bad"] = FakeScript{CompileErr: assert.AnError}

	_, err := p.Compile(engine.Source{Ref: "bad"})
	assert.ErrorIs(t, err, assert.AnError)

	v, err := p.NewString("x")
	require.NoError(t, err)
	assert.Equal(t, FakeString("x"), v)
}
