package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/item"
)

type stubProfile struct{ name string }

func (p stubProfile) Name() string                          { return p.name }
func (p stubProfile) Compile(Source) (CompiledQuery, error) { return nil, nil }
func (p stubProfile) NewString(raw string) (Value, error)   { return raw, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() Profile { return stubProfile{"b"} })
	r.Register("a", func() Profile { return stubProfile{"a"} })
	r.Register("b", func() Profile { return stubProfile{"b2"} })

	assert.Equal(t, []string{"b", "a"}, r.Names())

	p, err := r.Lookup("b")
	require.NoError(t, err)
	assert.Equal(t, "b2", p.Name())

	_, err = r.Lookup("zzz")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Contains(t, err.Error(), `"zzz"`)
}

func TestExecutionContext(t *testing.T) {
	ec := &ExecutionContext{CurrentTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	assert.False(t, ec.HasContextItem())
	assert.Equal(t, diag.Discard, ec.Events())
	assert.Equal(t, "2024-05-01T12:00:00Z", ec.Timestamp())

	ec.SetContextItem(item.NewDocument())
	assert.True(t, ec.HasContextItem())
	assert.Equal(t, 1, ec.Position)
	assert.Equal(t, 1, ec.Size)
}
