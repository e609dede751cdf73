package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "variables_hcl.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "variables_hcl", s.Name)
	assert.Equal(t, "hcl", s.Engine)
	assert.Equal(t, map[string]string{"name": "world", "greeting": "hello"}, s.Vars)
	require.Len(t, s.Queries, 1)
	assert.Equal(t, "greet.hcl", s.Queries[0].Name)
	assert.Contains(t, s.Queries[0].Source, "upper(var.name)")
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenario_Errors(t *testing.T) {
	const valid = `
name: x
description: d
queries:
  - name: q.cue
    source: "result: 1"
assertions:
  - type: succeeds
`
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"unknown field", valid + "assertion: []\n", "failed to parse YAML"},
		{"missing name", "description: d\nqueries: [{name: q}]\nassertions: [{type: succeeds}]\n", "name is required"},
		{"missing description", "name: x\nqueries: [{name: q}]\nassertions: [{type: succeeds}]\n", "description is required"},
		{"no queries", "name: x\ndescription: d\nassertions: [{type: succeeds}]\n", "queries list is required"},
		{"no assertions", "name: x\ndescription: d\nqueries: [{name: q}]\n", "assertions list is required"},
		{"duplicate query", "name: x\ndescription: d\nqueries: [{name: q}, {name: q}]\nassertions: [{type: succeeds}]\n", "duplicate name"},
		{"unknown input", valid + "input: in.xml\n", "not one of the documents"},
		{"unknown assertion", "name: x\ndescription: d\nqueries: [{name: q}]\nassertions: [{type: trace_count}]\n", "unknown assertion type"},
		{"contains without value", "name: x\ndescription: d\nqueries: [{name: q}]\nassertions: [{type: output_contains}]\n", "requires value"},
		{"negative repeat", valid + "repeat: -1\n", "repeat must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
