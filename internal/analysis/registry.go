package analysis

import (
	"fmt"
	"sync"
)

// Registry manages registered analyses
type Registry struct {
	mu       sync.RWMutex
	analyses map[string]Analysis
	order    []string // Maintains registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		analyses: make(map[string]Analysis),
		order:    make([]string, 0),
	}
}

// Register adds an analysis to the registry
func (r *Registry) Register(a Analysis) error {
	if a == nil {
		return fmt.Errorf("cannot register nil analysis")
	}

	id := a.ID()
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyses[id]; exists {
		return fmt.Errorf("analysis with ID %s already registered", id)
	}

	r.analyses[id] = a
	r.order = append(r.order, id)
	return nil
}

// Get retrieves an analysis by ID
func (r *Registry) Get(id string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.analyses[id]
	if !exists {
		return nil, fmt.Errorf("analysis with ID %s not found", id)
	}
	return a, nil
}

// Has checks if an analysis is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.analyses[id]
	return exists
}

// List returns all registered analyses in registration order
func (r *Registry) List() []Analysis {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Analysis, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.analyses[id])
	}
	return out
}

// ListIDs returns all registered IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered analyses
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.analyses)
}

// Select returns the analyses named by ids in the given order, or every
// analysis when ids is empty.
func (r *Registry) Select(ids ...string) ([]Analysis, error) {
	if len(ids) == 0 {
		return r.List(), nil
	}
	out := make([]Analysis, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
