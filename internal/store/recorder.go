package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/xqbatch/internal/batch"
)

// Recorder writes batch progress to a Store. It implements batch.Observer.
//
// Write failures never interrupt the batch. The first one is kept and
// returned by Err, and later writes for the batch are skipped.
type Recorder struct {
	ctx     context.Context
	store   *Store
	logger  *slog.Logger
	started time.Time
	seq     int
	err     error
}

// NewRecorder creates a recorder writing to s.
func NewRecorder(ctx context.Context, s *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{ctx: ctx, store: s, logger: logger}
}

func (r *Recorder) BatchStarted(info batch.BatchInfo) {
	r.started = info.Started
	r.seq = 0
	r.record(r.store.WriteBatch(r.ctx, info))
}

func (r *Recorder) ExecutionFinished(e batch.Execution) {
	if r.err != nil {
		return
	}
	r.seq++
	r.record(r.store.WriteExecution(r.ctx, r.seq, e))
}

func (r *Recorder) BatchFinished(sum batch.Summary, err error) {
	if r.err != nil {
		return
	}
	r.record(r.store.FinishBatch(r.ctx, sum, r.started.Add(sum.Duration), err))
}

// Err returns the first write failure.
func (r *Recorder) Err() error {
	return r.err
}

func (r *Recorder) record(err error) {
	if err == nil || r.err != nil {
		return
	}
	r.err = err
	r.logger.Warn("recording batch history failed", "error", err)
}
