package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		Output:      "A\nB\n",
		Diagnostics: "q.cue:1:1: warning: careful\n",
		Executions:  2,
		Trace: []ExecutionEvent{
			{Repetition: 1, Query: 0, Source: "a.cue", Items: 1},
			{Repetition: 1, Query: 1, Source: "b.cue", Items: 1},
		},
	}
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	failures := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertSucceeds},
		{Type: AssertOutputEquals, Value: "A\nB\n"},
		{Type: AssertOutputContains, Value: "B"},
		{Type: AssertDiagnosticContains, Value: "warning: careful"},
		{Type: AssertExecutionCount, Count: 2},
		{Type: AssertExecutionOrder, Sources: []string{"a.cue", "b.cue"}},
	})
	assert.Empty(t, failures)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	failures := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertFails},
		{Type: AssertOutputEquals, Value: "A\n"},
		{Type: AssertExecutionCount, Count: 3},
		{Type: AssertExecutionOrder, Sources: []string{"b.cue", "a.cue"}},
		{Type: AssertSucceeds},
	})
	require.Len(t, failures, 4)
	assert.Contains(t, failures[0], "Assertion failed: fails")
	assert.Contains(t, failures[1], `Expected: "A\n"`)
	assert.Contains(t, failures[2], "Actual: 2 executions")
	assert.Contains(t, failures[3], "a.cue → b.cue")
}

func TestEvaluateAssertions_FailedBatch(t *testing.T) {
	r := sampleResult()
	r.Err = errors.New("boom")
	failures := EvaluateAssertions(r, []Assertion{{Type: AssertSucceeds}, {Type: AssertFails}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "batch failed: boom")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	failures := EvaluateAssertions(sampleResult(), []Assertion{{Type: "final_state"}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], `unknown assertion type "final_state"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{Type: AssertOutputEquals, Expected: `"x"`, Actual: `"y"`, Diagnostics: "q.cue:1:1: error: bad\n"}
	assert.Equal(t, "Assertion failed: output_equals\n  Expected: \"x\"\n  Actual: \"y\"\n\nDiagnostics:\nq.cue:1:1: error: bad\n", err.Error())
}
