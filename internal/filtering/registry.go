package filtering

import (
	"fmt"
	"sort"

	"tsflow/pkg/contracts/domain"
)

// QueueRegistry maps stream names to streams for one run.
type QueueRegistry struct {
	streams map[string]*Stream
	order   []string // Maintains registration order
	created map[string]bool
}

// NewQueueRegistry creates a registry holding the seed streams.
func NewQueueRegistry(seed map[string]*Stream) (*QueueRegistry, error) {
	r := &QueueRegistry{
		streams: make(map[string]*Stream, len(seed)),
		order:   make([]string, 0, len(seed)),
		created: make(map[string]bool),
	}
	for _, name := range sortedNames(seed) {
		if err := r.Register(name, seed[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a named stream.
func (r *QueueRegistry) Register(name string, s *Stream) error {
	if s == nil {
		return fmt.Errorf("cannot register nil stream %q", name)
	}
	if name == "" {
		return fmt.Errorf("stream name cannot be empty")
	}
	if _, exists := r.streams[name]; exists {
		return fmt.Errorf("stream %s already registered", name)
	}
	r.streams[name] = s
	r.order = append(r.order, name)
	return nil
}

// Resolve returns the stream for name, creating an open empty one on first use.
func (r *QueueRegistry) Resolve(name string) *Stream {
	if s, ok := r.streams[name]; ok {
		return s
	}
	s := NewStream()
	r.streams[name] = s
	r.order = append(r.order, name)
	r.created[name] = true
	return s
}

// ResolveAll resolves names in order.
func (r *QueueRegistry) ResolveAll(names []string) []*Stream {
	out := make([]*Stream, len(names))
	for i, name := range names {
		out[i] = r.Resolve(name)
	}
	return out
}

// Get retrieves a stream by name
func (r *QueueRegistry) Get(name string) (*Stream, error) {
	s, ok := r.streams[name]
	if !ok {
		return nil, fmt.Errorf("stream %s not found", name)
	}
	return s, nil
}

// Has checks if a stream is registered
func (r *QueueRegistry) Has(name string) bool {
	_, ok := r.streams[name]
	return ok
}

// AutoCreated reports whether the stream was created during wiring.
func (r *QueueRegistry) AutoCreated(name string) bool {
	return r.created[name]
}

// Names returns every stream name in registration order
func (r *QueueRegistry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered streams
func (r *QueueRegistry) Count() int {
	return len(r.streams)
}

// Atoms returns the pending atoms of a stream without consuming them.
// Unknown names yield nil.
func (r *QueueRegistry) Atoms(name string) []*domain.Atom {
	s, ok := r.streams[name]
	if !ok {
		return nil
	}
	return s.Snapshot()
}

func sortedNames(m map[string]*Stream) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
