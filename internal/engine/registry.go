package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownProfile is returned by Lookup for unregistered names.
var ErrUnknownProfile = errors.New("unknown engine profile")

// Factory creates a profile.
type Factory func() Profile

// Registry maps profile names to factories.
type Registry struct {
	factories map[string]Factory
	names     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a profile. Registering a name twice replaces the factory.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; !ok {
		r.names = append(r.names, name)
	}
	r.factories[name] = f
}

// Lookup creates the named profile.
func (r *Registry) Lookup(name string) (Profile, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProfile, name, r.names)
	}
	return f(), nil
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
