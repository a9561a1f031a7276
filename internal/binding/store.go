// Package binding holds the single source of truth for current form values,
// keyed by component name. The store is created empty when a page session
// mounts, mutated by field edits and dispatcher-driven flows, and discarded
// on unmount. Components never read each other's values directly; all
// cross-component data flow goes through the action dispatcher.
package binding

import "sync"

// Store maps component names to their current values.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Get returns the current value for name and whether one is set.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set writes a single value.
func (s *Store) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// SetAll applies every entry under one lock so that all mutations from a
// single logical action (e.g. the field mappings of one lookup response)
// are observed atomically: no reader sees a partially-applied set.
func (s *Store) SetAll(values map[string]any) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

// Clear removes the given names. Unknown names are ignored.
func (s *Store) Clear(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.values, n)
	}
}

// Reset removes every binding.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
}

// Snapshot returns a copy of the current bindings.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of set bindings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
