package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a batch conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Engine is the engine profile name. Empty means cue.
	Engine string `yaml:"engine,omitempty"`

	// Queries are the batch sources, in batch order.
	Queries []QuerySource `yaml:"queries"`

	// Documents are resolvable by name, as the input or through doc().
	Documents []Document `yaml:"documents,omitempty"`

	// Input names the document bound as the context item.
	Input string `yaml:"input,omitempty"`

	BaseURI string            `yaml:"base_uri,omitempty"`
	Vars    map[string]string `yaml:"vars,omitempty"`

	// Repeat is the repetition count. Zero means 1.
	Repeat int  `yaml:"repeat,omitempty"`
	Quiet  bool `yaml:"quiet,omitempty"`

	// Assertions validate the run.
	Assertions []Assertion `yaml:"assertions"`
}

// QuerySource is one inline query document.
type QuerySource struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// Document is one inline input document. Its format follows the name's
// extension.
type Document struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type selects the check; see the Assert constants.
	Type string `yaml:"type"`

	// Value is the expected text (output_equals, output_contains,
	// diagnostic_contains).
	Value string `yaml:"value,omitempty"`

	// Count is the expected execution count (execution_count).
	Count int `yaml:"count,omitempty"`

	// Sources is the expected completion order (execution_order).
	Sources []string `yaml:"sources,omitempty"`
}

// Assertion type constants.
const (
	AssertSucceeds           = "succeeds"
	AssertFails              = "fails"
	AssertOutputEquals       = "output_equals"
	AssertOutputContains     = "output_contains"
	AssertDiagnosticContains = "diagnostic_contains"
	AssertExecutionCount     = "execution_count"
	AssertExecutionOrder     = "execution_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Query failures are not validated here: scenarios may expect them.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Repeat < 0 {
		return fmt.Errorf("repeat must not be negative")
	}

	seen := make(map[string]bool)
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true
	}

	docs := make(map[string]bool)
	for i, d := range s.Documents {
		if d.Name == "" {
			return fmt.Errorf("documents[%d]: name is required", i)
		}
		docs[d.Name] = true
	}
	if s.Input != "" && !docs[s.Input] {
		return fmt.Errorf("input %q is not one of the documents", s.Input)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSucceeds, AssertFails, AssertOutputEquals, AssertExecutionCount:
	case AssertOutputContains, AssertDiagnosticContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: %s requires value", index, a.Type)
		}
	case AssertExecutionOrder:
		if len(a.Sources) == 0 {
			return fmt.Errorf("assertions[%d]: execution_order requires sources", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
