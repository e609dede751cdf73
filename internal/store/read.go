package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for unknown batch IDs.
var ErrNotFound = errors.New("batch not found")

// BatchRecord is a recorded batch.
type BatchRecord struct {
	ID          string
	Engine      string
	Sources     []string
	Repetitions int
	StartedAt   time.Time
	FinishedAt  time.Time // zero while the batch is running
	Executions  int
	Error       string
}

// ExecutionRecord is one recorded execution.
type ExecutionRecord struct {
	Seq        int
	Repetition int
	Query      int
	Source     string
	Items      int
	Duration   time.Duration
}

// QueryStats aggregates one query's executions within a batch.
type QueryStats struct {
	Query  int
	Source string
	Runs   int
	Items  int
	Mean   time.Duration
}

const batchColumns = `id, engine, sources, repetitions, started_at, finished_at, executions, error`

// ListBatches returns all batches, oldest first.
func (s *Store) ListBatches(ctx context.Context) ([]BatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+batchColumns+` FROM batches ORDER BY started_at ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchRecord{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// ReadBatch returns one batch.
func (s *Store) ReadBatch(ctx context.Context, id string) (BatchRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, err
}

// ReadExecutions returns a batch's executions in completion order.
func (s *Store) ReadExecutions(ctx context.Context, batchID string) ([]ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, repetition, query_index, source, items, duration_ns
		FROM executions
		WHERE batch_id = ?
		ORDER BY seq ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	execs := []ExecutionRecord{}
	for rows.Next() {
		var e ExecutionRecord
		var ns int64
		if err := rows.Scan(&e.Seq, &e.Repetition, &e.Query, &e.Source, &e.Items, &ns); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		e.Duration = time.Duration(ns)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return execs, nil
}

// ReadQueryStats returns per-query run counts and mean durations for a
// batch, in source order.
func (s *Store) ReadQueryStats(ctx context.Context, batchID string) ([]QueryStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query_index, source, COUNT(*), SUM(items), CAST(AVG(duration_ns) AS INTEGER)
		FROM executions
		WHERE batch_id = ?
		GROUP BY query_index, source
		ORDER BY query_index ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := []QueryStats{}
	for rows.Next() {
		var q QueryStats
		var mean int64
		if err := rows.Scan(&q.Query, &q.Source, &q.Runs, &q.Items, &mean); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		q.Mean = time.Duration(mean)
		stats = append(stats, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (BatchRecord, error) {
	var (
		b        BatchRecord
		sources  string
		started  string
		finished sql.NullString
		errText  sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Engine, &sources, &b.Repetitions, &started, &finished, &b.Executions, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BatchRecord{}, err
		}
		return BatchRecord{}, fmt.Errorf("scan batch: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &b.Sources); err != nil {
		return BatchRecord{}, fmt.Errorf("batch %s: decode sources: %w", b.ID, err)
	}
	var err error
	if b.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return BatchRecord{}, fmt.Errorf("batch %s: parse started_at: %w", b.ID, err)
	}
	if finished.Valid {
		if b.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return BatchRecord{}, fmt.Errorf("batch %s: parse finished_at: %w", b.ID, err)
		}
	}
	b.Error = errText.String
	return b, nil
}
