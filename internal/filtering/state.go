package filtering

import (
	"sort"
)

// State is the per-run aggregate state shared by filters. Keys are registered
// once during setup; a second registration of the same key fails the run
// before any atom is processed.
type State struct {
	values map[string]any
	order  []string
}

// NewState creates an empty aggregate state.
func NewState() *State {
	return &State{
		values: make(map[string]any),
		order:  make([]string, 0),
	}
}

// Register claims key with an initial value.
func (s *State) Register(key string, initial any) error {
	if _, exists := s.values[key]; exists {
		return NewStateError(key, ErrDuplicateState)
	}
	s.values[key] = initial
	s.order = append(s.order, key)
	return nil
}

// Set replaces the value of a registered key.
func (s *State) Set(key string, value any) error {
	if _, exists := s.values[key]; !exists {
		return NewStateError(key, ErrUnknownState)
	}
	s.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is registered.
func (s *State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Keys returns the registered keys in registration order.
func (s *State) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// SortedKeys returns the registered keys sorted.
func (s *State) SortedKeys() []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of every entry.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// StateValue returns the value under key asserted to T.
func StateValue[T any](s *State, key string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.values[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
