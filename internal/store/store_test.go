package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xqbatch/internal/batch"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	pragmas := []struct{ name, want string }{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, p := range pragmas {
		if err := s.verifyPragma(p.name, p.want); err != nil {
			t.Errorf("pragma check failed: %v", err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteBatch(ctx, batch.BatchInfo{ID: "b1", Engine: "cue", Sources: []string{"q.cue"}, Repetitions: 1, Started: t0}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	b, err := s.ReadBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "cue", b.Engine)
}

func TestOpen_CreatesStatsIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_executions_query'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_executions_query", name)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 7")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 7 is newer than supported version 1")
}

func TestClose_Nil(t *testing.T) {
	var s Store
	if err := s.Close(); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestBatchLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	info := batch.BatchInfo{ID: "b1", Engine: "hcl", Sources: []string{"a.hcl", "b.hcl"}, Repetitions: 2, Started: t0}
	require.NoError(t, s.WriteBatch(ctx, info))
	require.NoError(t, s.WriteBatch(ctx, info), "duplicate batch IDs are ignored")

	running, err := s.ReadBatch(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, running.FinishedAt.IsZero())
	assert.Equal(t, []string{"a.hcl", "b.hcl"}, running.Sources)
	assert.Equal(t, 2, running.Repetitions)
	assert.True(t, t0.Equal(running.StartedAt))

	sum := batch.Summary{BatchID: "b1", Executions: 3, Duration: 2 * time.Second}
	require.NoError(t, s.FinishBatch(ctx, sum, t0.Add(sum.Duration), errors.New("boom")))

	done, err := s.ReadBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, done.Executions)
	assert.Equal(t, "boom", done.Error)
	assert.True(t, t0.Add(2*time.Second).Equal(done.FinishedAt))
}

func TestFinishBatch_Unknown(t *testing.T) {
	s := createTestStore(t)
	err := s.FinishBatch(context.Background(), batch.Summary{BatchID: "nope"}, t0, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadBatch_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadBatch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBatches(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListBatches(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.WriteBatch(ctx, batch.BatchInfo{ID: "late", Engine: "cue", Sources: []string{"x"}, Repetitions: 1, Started: t0.Add(time.Minute)}))
	require.NoError(t, s.WriteBatch(ctx, batch.BatchInfo{ID: "early", Engine: "cue", Sources: []string{"y"}, Repetitions: 1, Started: t0}))

	list, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].ID)
	assert.Equal(t, "late", list[1].ID)
}

func TestExecutions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteBatch(ctx, batch.BatchInfo{ID: "b1", Engine: "cue", Sources: []string{"a", "b"}, Repetitions: 2, Started: t0}))

	execs := []batch.Execution{
		{BatchID: "b1", Repetition: 1, Query: 0, Source: "a", Items: 1, Duration: 10 * time.Millisecond},
		{BatchID: "b1", Repetition: 1, Query: 1, Source: "b", Items: 2, Duration: 30 * time.Millisecond},
		{BatchID: "b1", Repetition: 2, Query: 0, Source: "a", Items: 1, Duration: 20 * time.Millisecond},
	}
	for i, e := range execs {
		require.NoError(t, s.WriteExecution(ctx, i+1, e))
	}

	got, err := s.ReadExecutions(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ExecutionRecord{Seq: 3, Repetition: 2, Query: 0, Source: "a", Items: 1, Duration: 20 * time.Millisecond}, got[2])

	stats, err := s.ReadQueryStats(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []QueryStats{
		{Query: 0, Source: "a", Runs: 2, Items: 2, Mean: 15 * time.Millisecond},
		{Query: 1, Source: "b", Runs: 1, Items: 2, Mean: 30 * time.Millisecond},
	}, stats)
}

func TestWriteExecution_RequiresBatch(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteExecution(context.Background(), 1, batch.Execution{BatchID: "ghost", Source: "a"})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}
