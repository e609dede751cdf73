package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the run's diagnostics to help debug the failure.
type AssertionError struct {
	Type        string // Assertion type for categorization
	Expected    string // Human-readable expected outcome
	Actual      string // Human-readable actual outcome
	Diagnostics string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diagnostics != "" {
		fmt.Fprintf(&buf, "\nDiagnostics:\n%s", e.Diagnostics)
	}
	return buf.String()
}

func fail(r *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Diagnostics: r.Diagnostics}
}

func assertOutcome(r *Result, a Assertion) error {
	switch {
	case a.Type == AssertSucceeds && r.Err != nil:
		return fail(r, a.Type, "batch succeeds", "batch failed: "+r.Err.Error())
	case a.Type == AssertFails && r.Err == nil:
		return fail(r, a.Type, "batch fails", "batch succeeded")
	}
	return nil
}

func assertOutput(r *Result, a Assertion) error {
	switch a.Type {
	case AssertOutputEquals:
		if r.Output != a.Value {
			return fail(r, a.Type, fmt.Sprintf("%q", a.Value), fmt.Sprintf("%q", r.Output))
		}
	case AssertOutputContains:
		if !strings.Contains(r.Output, a.Value) {
			return fail(r, a.Type, fmt.Sprintf("output containing %q", a.Value), fmt.Sprintf("%q", r.Output))
		}
	case AssertDiagnosticContains:
		if !strings.Contains(r.Diagnostics, a.Value) {
			return fail(r, a.Type, fmt.Sprintf("diagnostics containing %q", a.Value), fmt.Sprintf("%q", r.Diagnostics))
		}
	}
	return nil
}

func assertExecutionCount(r *Result, a Assertion) error {
	if r.Executions != a.Count {
		return fail(r, a.Type, fmt.Sprintf("%d executions", a.Count), fmt.Sprintf("%d executions", r.Executions))
	}
	return nil
}

func assertExecutionOrder(r *Result, a Assertion) error {
	got := r.Sources()
	if strings.Join(got, ",") != strings.Join(a.Sources, ",") {
		return fail(r, a.Type, strings.Join(a.Sources, " → "), strings.Join(got, " → "))
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSucceeds, AssertFails:
			err = assertOutcome(result, assertion)
		case AssertOutputEquals, AssertOutputContains, AssertDiagnosticContains:
			err = assertOutput(result, assertion)
		case AssertExecutionCount:
			err = assertExecutionCount(result, assertion)
		case AssertExecutionOrder:
			err = assertExecutionOrder(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
