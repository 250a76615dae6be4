package filtering

import (
	"iter"

	"tsflow/pkg/contracts/domain"
)

// Stream is an ordered, closeable, single-consumer queue of atoms.
// Once closed it never reopens. Consumption pops from the front.
type Stream struct {
	items  []*domain.Atom
	head   int
	closed bool
}

// NewStream creates an open stream holding atoms.
func NewStream(atoms ...*domain.Atom) *Stream {
	s := &Stream{}
	s.items = append(s.items, atoms...)
	return s
}

// NewClosedStream creates a closed stream holding atoms.
func NewClosedStream(atoms ...*domain.Atom) *Stream {
	s := NewStream(atoms...)
	s.closed = true
	return s
}

// Append adds an atom at the back.
func (s *Stream) Append(a *domain.Atom) error {
	if s.closed {
		return ErrStreamClosed
	}
	s.items = append(s.items, a)
	return nil
}

// AppendAll adds atoms at the back.
func (s *Stream) AppendAll(atoms ...*domain.Atom) error {
	if s.closed {
		return ErrStreamClosed
	}
	s.items = append(s.items, atoms...)
	return nil
}

// Close marks the stream closed. Closing twice is an error.
func (s *Stream) Close() error {
	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true
	return nil
}

// IsClosed reports whether the stream was closed.
func (s *Stream) IsClosed() bool {
	return s.closed
}

// HasNext reports whether an atom is available, regardless of the closed flag.
func (s *Stream) HasNext() bool {
	return s.head < len(s.items)
}

// Next pops the front atom.
func (s *Stream) Next() (*domain.Atom, error) {
	if !s.HasNext() {
		return nil, ErrStreamEmpty
	}
	a := s.items[s.head]
	s.items[s.head] = nil
	s.head++
	if s.head == len(s.items) {
		s.items = s.items[:0]
		s.head = 0
	} else if s.head > 1024 && s.head*2 > len(s.items) {
		s.compact()
	}
	return a, nil
}

// Peek returns the front atom without popping it.
func (s *Stream) Peek() (*domain.Atom, bool) {
	if !s.HasNext() {
		return nil, false
	}
	return s.items[s.head], true
}

// Len returns the number of pending atoms.
func (s *Stream) Len() int {
	return len(s.items) - s.head
}

// Drained reports whether the stream is closed and empty.
func (s *Stream) Drained() bool {
	return s.closed && !s.HasNext()
}

// Drain pops every pending atom.
func (s *Stream) Drain() []*domain.Atom {
	out := s.Snapshot()
	s.items = s.items[:0]
	s.head = 0
	return out
}

// Snapshot copies the pending atoms without popping them.
func (s *Stream) Snapshot() []*domain.Atom {
	out := make([]*domain.Atom, s.Len())
	copy(out, s.items[s.head:])
	return out
}

// All iterates the pending atoms without popping them.
func (s *Stream) All() iter.Seq[*domain.Atom] {
	return func(yield func(*domain.Atom) bool) {
		for _, a := range s.items[s.head:] {
			if !yield(a) {
				return
			}
		}
	}
}

func (s *Stream) compact() {
	n := copy(s.items, s.items[s.head:])
	clear(s.items[n:])
	s.items = s.items[:n]
	s.head = 0
}
