package harness

// ExecutionEvent is one completed execution of a run.
type ExecutionEvent struct {
	Repetition int
	Query      int
	Source     string
	Items      int
}

// Result is the outcome of a scenario run.
type Result struct {
	// Output is everything the serializing sink wrote.
	Output string

	// Diagnostics is the diagnostic stream: warnings, traces and the
	// batch error, if any.
	Diagnostics string

	// Executions counts completed executions.
	Executions int

	// Trace lists completed executions in order.
	Trace []ExecutionEvent

	// Err is the error that ended the batch, or nil.
	Err error
}

// Sources returns the source of every traced execution, in order.
func (r *Result) Sources() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.Source
	}
	return out
}
