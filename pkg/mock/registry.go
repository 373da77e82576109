package mock

import (
	"sort"
	"sync"
)

// Registry maps module names to stand-ins. Code under test resolves its
// dependencies through Require and gets the stand-in when one is
// registered, the real value otherwise. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]any)}
}

// Mock registers v under name, replacing any earlier stand-in.
func (r *Registry) Mock(name string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = v
}

// Unmock removes the stand-in registered under name.
func (r *Registry) Unmock(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, name)
}

// Lookup returns the stand-in registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.modules[name]
	return v, ok
}

// Names lists the registered module names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for n := range r.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset drops every stand-in.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.modules)
}

// Require returns the stand-in registered under name when it is a T, and
// actual otherwise.
func Require[T any](r *Registry, name string, actual T) T {
	if v, ok := r.Lookup(name); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	return actual
}
