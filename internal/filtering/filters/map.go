package filters

import (
	"errors"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// MapFunc transforms an atom. Returning nil drops it.
type MapFunc func(*domain.Atom) *domain.Atom

// Map applies a function to every atom.
type Map struct {
	*filtering.Base
	fn MapFunc
}

// NewMap creates a Map from in to out.
func NewMap(in, out string, fn MapFunc) (*Map, error) {
	if fn == nil {
		return nil, filtering.NewInvalidOptionsError("map", errors.New("nil map function"))
	}
	f := &Map{fn: fn}
	base, err := filtering.NewBase("map", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *Map) OnData(a *domain.Atom, _ int) error {
	if r := f.fn(a); r != nil {
		return f.Push(r, 0)
	}
	return nil
}

// Predicate selects atoms.
type Predicate func(*domain.Atom) bool

// Sieve forwards the atoms a predicate accepts.
type Sieve struct {
	*filtering.Base
	keep Predicate
}

// NewSieve creates a Sieve from in to out.
func NewSieve(in, out string, keep Predicate) (*Sieve, error) {
	if keep == nil {
		return nil, filtering.NewInvalidOptionsError("sieve", errors.New("nil predicate"))
	}
	f := &Sieve{keep: keep}
	base, err := filtering.NewBase("sieve", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *Sieve) OnData(a *domain.Atom, _ int) error {
	if f.keep(a) {
		return f.Push(a, 0)
	}
	return nil
}
