// Package session provides the mutable per-instance state store threaded
// through dispatch calls.
//
// One Store belongs to exactly one agent instance and is never shared
// across instances. Extraction stages accumulate counters and aggregates
// in it across calls; it survives until the instance goes away or the
// caller resets it. The Store's mutex is the serialization point for
// multi-threaded hosts: dispatch holds it for the duration of one call, so
// stage functions always see the map unshared.
package session

import (
	"sync"

	"github.com/empi-systems/agentruntime/agentcore/typeutil"
)

// Store is a mutable mapping from string keys to arbitrary values, owned
// exclusively by one agent instance.
type Store struct {
	mu    sync.Mutex
	state map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: make(map[string]any)}
}

// Get returns a deep-copy snapshot of the current state. Mutating the
// snapshot never affects the store.
func (s *Store) Get() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.state)
}

// Set installs a new state mapping. No validation is performed; the map is
// deep-copied so the caller keeps no alias into the store. A nil map
// installs an empty one.
func (s *Store) Set(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		s.state = make(map[string]any)
		return
	}
	s.state = copyMap(state)
}

// Reset clears the state back to an empty mapping.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = make(map[string]any)
}

// Len returns the number of top-level keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state)
}

// IsEmpty reports whether the state holds no keys.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// WithLock lends the live state map to fn for the duration of the call.
// The lock is held until fn returns, so concurrent dispatch calls on the
// same instance serialize here. fn must not retain the map.
func (s *Store) WithLock(fn func(state map[string]any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// IncrInt increments an integer counter inside a lent state map and
// returns the new value. Missing or foreign-typed values restart from
// zero. Intended for use inside extraction stages, which already hold the
// store lock.
func IncrInt(state map[string]any, key string, delta int) int {
	n := typeutil.SafeIntDefault(state[key], 0)
	n += delta
	state[key] = n
	return n
}

func copyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = copyValue(v)
	}
	return result
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = copyValue(item)
		}
		return result
	case []string:
		result := make([]string, len(val))
		copy(result, val)
		return result
	default:
		return v
	}
}
