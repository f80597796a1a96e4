package executor

import (
	"sort"
	"sync"

	"actionkit/pkg/action"
)

// Registry maps action names to handlers. It is filled during setup and read
// on every call; the lock only matters for late registration.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]action.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]action.HandlerFunc)}
}

// set stores handler under name, replacing any earlier registration. It
// reports whether a handler was replaced.
func (r *Registry) set(name string, handler action.HandlerFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.handlers[name]
	r.handlers[name] = handler
	return replaced
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (action.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}
