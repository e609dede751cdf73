package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xqbatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
engine = "hcl"
base_uri = "file:///data/"
input = "in.xml"
output = "/tmp/out.xml"
repeat = 3
quiet = true
print_compiled = true
record = "history.db"

[vars]
greeting = "hello"
alpha = "x"
`)
	dir := filepath.Dir(path)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "hcl", cfg.Engine)
	assert.Equal(t, "file:///data/", cfg.BaseURI)
	assert.Equal(t, filepath.Join(dir, "in.xml"), cfg.Input)
	assert.Equal(t, "/tmp/out.xml", cfg.Output)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.Record)
	assert.Equal(t, 3, cfg.Repeat)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.PrintCompiled)
	assert.Equal(t, []string{"alpha", "greeting"}, cfg.VarNames())
	assert.Equal(t, "hello", cfg.Vars["greeting"])
}

func TestLoadFromEmpty(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
	assert.Empty(t, cfg.VarNames())
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"syntax", "engine = ", "failed to parse config"},
		{"unknown key", "engines = \"cue\"\n", "unknown keys: engines"},
		{"wrong type", "repeat = \"two\"\n", "failed to parse config"},
		{"negative repeat", "repeat = -1\n", "repeat must be at least 1"},
		{"empty var name", "[vars]\n\"\" = \"x\"\n", "empty variable name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseVar(t *testing.T) {
	tests := []struct {
		in      string
		want    Var
		wantErr string
	}{
		{in: "x=1", want: Var{Name: "x", Value: "1"}},
		{in: "x=", want: Var{Name: "x", Value: ""}},
		{in: "x=a=b", want: Var{Name: "x", Value: "a=b"}},
		{in: "x", wantErr: "expected name=value"},
		{in: "=1", wantErr: "empty variable name"},
		{in: "a b=1", wantErr: "whitespace"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVar(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
