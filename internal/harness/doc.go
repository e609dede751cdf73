// Package harness runs batch conformance scenarios.
//
// A scenario holds its query documents and input documents inline, so a
// run touches no files and its output and diagnostics are reproducible.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	engine: cue                # or hcl, default cue
//	repeat: 2                  # default 1
//	quiet: false
//	input: catalog.xml         # names one of documents
//	vars: { name: world }
//	queries:
//	  - name: a.cue
//	    source: |
//	      result: "A"
//	documents:
//	  - name: catalog.xml
//	    content: <catalog/>
//	assertions:
//	  - type: output_equals
//	    value: "A\nA\n"
//
// # Assertion Types
//
//   - succeeds / fails: the batch outcome
//   - output_equals / output_contains: serialized results
//   - diagnostic_contains: the diagnostic stream (errors, warnings, traces)
//   - execution_count: completed executions
//   - execution_order: query names in completion order
//
// # Deterministic Testing
//
// Every run uses a stopped clock, a fixed batch ID and the working
// directory /scenario, so base URIs, timestamps and durations do not vary
// between runs. RunWithGolden compares a snapshot of the run against
// testdata/golden/<name>.golden.
package harness
