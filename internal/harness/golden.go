package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as the text stored in golden files.
func Snapshot(s *Scenario, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", s.Name)
	fmt.Fprintf(&b, "executions: %d\n", r.Executions)
	for _, e := range r.Trace {
		fmt.Fprintf(&b, "  rep %d query %d %s items=%d\n", e.Repetition, e.Query, e.Source, e.Items)
	}
	b.WriteString("--- output\n")
	b.WriteString(r.Output)
	b.WriteString("--- diagnostics\n")
	b.WriteString(r.Diagnostics)
	return b.String()
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, s *Scenario) *Result {
	t.Helper()

	result, err := h.Run(s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, []byte(Snapshot(s, result)))
	return result
}
