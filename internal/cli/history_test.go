package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xqbatch/internal/store"
)

func TestHistoryRequiresDB(t *testing.T) {
	code, _, stderr := execute(t, "history")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, `required flag(s) "db" not set`)
}

func TestHistoryMissingDatabase(t *testing.T) {
	code, _, stderr := execute(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "history database not found")
}

func TestHistoryEmptyAndUnknownBatch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	code, stdout, _ := execute(t, "history", "--db", db)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No batches recorded.\n", stdout)

	code, _, stderr := execute(t, "history", "--db", db, "nope")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "batch not found")
}
