package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/xqbatch/internal/batch"
)

const timeLayout = time.RFC3339Nano

// WriteBatch inserts a started batch. Writing the same ID twice is a no-op.
func (s *Store) WriteBatch(ctx context.Context, info batch.BatchInfo) error {
	sources, err := json.Marshal(info.Sources)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO batches (id, engine, sources, repetitions, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		info.ID,
		info.Engine,
		string(sources),
		info.Repetitions,
		info.Started.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

// WriteExecution inserts one completed execution. seq orders executions
// within the batch.
func (s *Store) WriteExecution(ctx context.Context, seq int, e batch.Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (batch_id, seq, repetition, query_index, source, items, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.BatchID,
		seq,
		e.Repetition,
		e.Query,
		e.Source,
		e.Items,
		e.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("write execution: %w", err)
	}
	return nil
}

// FinishBatch stores a batch's outcome. batchErr is the error that ended
// the batch, or nil.
func (s *Store) FinishBatch(ctx context.Context, sum batch.Summary, finished time.Time, batchErr error) error {
	var errText any
	if batchErr != nil {
		errText = batchErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE batches SET finished_at = ?, executions = ?, error = ?
		WHERE id = ?
	`,
		finished.UTC().Format(timeLayout),
		sum.Executions,
		errText,
		sum.BatchID,
	)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish batch %s: %w", sum.BatchID, ErrNotFound)
	}
	return nil
}
