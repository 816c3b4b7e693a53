// Package registry tracks the query targets configured at runtime.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/txn2/mcp-dal/pkg/executor"
)

// Registry is a thread-safe collection of named query targets. It is the
// only shared mutable view of the configured backends; callers hold a
// *executor.Target only for the duration of one logical operation.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*executor.Target
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{targets: make(map[string]*executor.Target)}
}

// Add registers a target under its name. Names are unique.
func (r *Registry) Add(t *executor.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[t.Name]; exists {
		return fmt.Errorf("target %s already registered", t.Name)
	}
	r.targets[t.Name] = t
	return nil
}

// Get retrieves a target by name.
func (r *Registry) Get(name string) (*executor.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}

// Remove drops a target from the registry and closes it.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	t, ok := r.targets[name]
	delete(r.targets, name)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("target %s not registered", name)
	}
	return t.Close()
}

// Names returns the registered target names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered targets in name order.
func (r *Registry) All() []*executor.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*executor.Target, 0, len(names))
	for _, name := range names {
		result = append(result, r.targets[name])
	}
	return result
}

// Close closes all registered targets.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, t := range r.targets {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.targets = make(map[string]*executor.Target)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing targets: %v", errs)
	}
	return nil
}
