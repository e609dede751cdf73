package batch

import "time"

// BatchInfo describes a batch when it starts.
type BatchInfo struct {
	ID          string
	Engine      string
	Sources     []string
	Repetitions int
	Started     time.Time
}

// Execution describes one completed (query, repetition) pair.
type Execution struct {
	BatchID    string
	Repetition int // 1-based
	Query      int // 0-based index into the batch's sources
	Source     string
	Items      int
	Duration   time.Duration
}

// Summary is the outcome of a batch.
type Summary struct {
	BatchID    string
	Executions int
	Duration   time.Duration
}

// Observer is notified as a batch progresses. Calls happen on the batch
// goroutine and must not block for long.
type Observer interface {
	BatchStarted(info BatchInfo)
	ExecutionFinished(e Execution)
	// BatchFinished is called once for every started batch, with the error
	// that ended it or nil.
	BatchFinished(s Summary, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) BatchStarted(BatchInfo)       {}
func (NopObserver) ExecutionFinished(Execution)  {}
func (NopObserver) BatchFinished(Summary, error) {}

// Observers fans notifications out in order.
type Observers []Observer

func (obs Observers) BatchStarted(info BatchInfo) {
	for _, o := range obs {
		o.BatchStarted(info)
	}
}

func (obs Observers) ExecutionFinished(e Execution) {
	for _, o := range obs {
		o.ExecutionFinished(e)
	}
}

func (obs Observers) BatchFinished(s Summary, err error) {
	for _, o := range obs {
		o.BatchFinished(s, err)
	}
}
