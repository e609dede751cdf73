// Package config loads xqbatch defaults from a TOML file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds defaults for a batch run. Command-line flags override them.
type Config struct {
	// Engine names the engine profile ("cue" or "hcl").
	Engine string `toml:"engine"`

	// BaseURI is resolved against the working directory when relative.
	BaseURI string `toml:"base_uri"`

	// Input is the context item document.
	Input string `toml:"input"`

	// Output is the result file. Empty means stdout.
	Output string `toml:"output"`

	// Repeat is the number of repetitions. Zero means unset.
	Repeat int `toml:"repeat"`

	Quiet         bool `toml:"quiet"`
	PrintCompiled bool `toml:"print_compiled"`

	// Record is the SQLite history database.
	Record string `toml:"record"`

	// Vars are external variables, applied before -v flags.
	Vars map[string]string `toml:"vars"`
}

// LoadFrom loads the configuration from path. Unknown keys are an error.
// Relative input, output and record paths are resolved against the
// directory holding the file.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Repeat < 0 {
		return nil, fmt.Errorf("config %s: repeat must be at least 1", path)
	}
	for name := range cfg.Vars {
		if err := validName(name); err != nil {
			return nil, fmt.Errorf("config %s: vars: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	cfg.Input = relativeTo(dir, cfg.Input)
	cfg.Output = relativeTo(dir, cfg.Output)
	cfg.Record = relativeTo(dir, cfg.Record)
	return &cfg, nil
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// VarNames returns the names in Vars, sorted.
func (c *Config) VarNames() []string {
	names := make([]string, 0, len(c.Vars))
	for name := range c.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Var is one external variable binding.
type Var struct {
	Name  string
	Value string
}

// ParseVar parses a "name=value" binding. The value may be empty and may
// itself contain '='.
func ParseVar(s string) (Var, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return Var{}, fmt.Errorf("invalid variable %q: expected name=value", s)
	}
	if err := validName(name); err != nil {
		return Var{}, fmt.Errorf("invalid variable %q: %w", s, err)
	}
	return Var{Name: name, Value: value}, nil
}

var errEmptyName = errors.New("empty variable name")

func validName(name string) error {
	if name == "" {
		return errEmptyName
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("variable name %q contains whitespace", name)
	}
	return nil
}
