package submit

import (
	"fmt"
	"sort"
	"strings"
)

// Factory creates a submitter instance.
type Factory func() (Submitter, error)

// Registry maps submitter names to factory functions.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named submitter factory. Overwrites if name already exists.
// Panics if name is empty or f is nil (programmer error).
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("submit: Register called with empty name")
	}
	if f == nil {
		panic("submit: Register called with nil factory")
	}
	r.factories[name] = f
}

// New instantiates a submitter by name.
// Returns an error if the name is not registered or the factory fails.
func (r *Registry) New(name string) (Submitter, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &UnknownSubmitterError{
			Name:      name,
			Available: r.Available(),
		}
	}
	s, err := f()
	if err != nil {
		return nil, fmt.Errorf("submitter factory %q: %w", name, err)
	}
	return s, nil
}

// Available returns registered submitter names in sorted order.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownSubmitterError indicates a submitter name is not registered.
type UnknownSubmitterError struct {
	Name      string
	Available []string
}

func (e *UnknownSubmitterError) Error() string {
	return fmt.Sprintf("unknown submitter %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
