package validation

import (
	"errors"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// CheckFunc inspects one atom. A non-nil result is labeled on the atom,
// except engine failures, which abort the run.
type CheckFunc func(a *domain.Atom) error

func isFatal(err error) bool {
	var engineErr *filtering.EngineError
	return errors.As(err, &engineErr) || errors.Is(err, filtering.ErrStreamClosed)
}

// Validator checks atoms from N inputs and forwards each atom, labeled or
// not, to the output with the same index. It never drops atoms.
type Validator struct {
	*filtering.Base
	check   CheckFunc
	forward func(a *domain.Atom, index int) error
	setup   func(state *filtering.State) error
	closing func() error
}

// NewValidator creates a validator from a check function.
func NewValidator(name string, ins, outs []string, check CheckFunc) (*Validator, error) {
	if check == nil {
		return nil, filtering.NewInvalidOptionsError(name, errors.New("nil check"))
	}
	v := &Validator{check: check}
	base, err := filtering.NewBase(name, ins, outs, filtering.AtLeast(1), filtering.Exactly(len(ins)), v)
	if err != nil {
		return nil, err
	}
	v.Base = base
	v.forward = v.Push
	return v, nil
}

// NewCheckValidator creates a single-stream validator.
func NewCheckValidator(in, out string, check CheckFunc) (*Validator, error) {
	return NewValidator("check", []string{in}, []string{out}, check)
}

func (v *Validator) OnSetup(state *filtering.State) error {
	if v.setup != nil {
		return v.setup(state)
	}
	return nil
}

func (v *Validator) OnData(a *domain.Atom, index int) error {
	if err := v.check(a); err != nil {
		if isFatal(err) {
			return err
		}
		Label(a, err)
	}
	return v.forward(a, index)
}

func (v *Validator) OnInputsClosed() error {
	if v.closing != nil {
		if err := v.closing(); err != nil {
			return err
		}
	}
	return v.CloseOutputs()
}

// BufferedValidator is a Validator that can hold atoms back per input.
// While holding, forwarded atoms are queued instead of pushed; Release flushes
// the queue in arrival order. Everything is released when the inputs close.
type BufferedValidator struct {
	*Validator
	holding []bool
	buffers [][]*domain.Atom
	// flush runs when the inputs close, before the buffers are released.
	flush func() error
}

// NewBufferedValidator creates a buffered validator.
func NewBufferedValidator(name string, ins, outs []string, check CheckFunc) (*BufferedValidator, error) {
	v, err := NewValidator(name, ins, outs, check)
	if err != nil {
		return nil, err
	}
	b := &BufferedValidator{Validator: v}
	v.forward = b.hold
	v.setup = func(*filtering.State) error {
		b.buffers = make([][]*domain.Atom, len(ins))
		return nil
	}
	v.closing = func() error {
		if b.flush != nil {
			if err := b.flush(); err != nil {
				return err
			}
		}
		return b.ReleaseAll()
	}
	b.holding = make([]bool, len(ins))
	return b, nil
}

func (b *BufferedValidator) hold(a *domain.Atom, index int) error {
	if b.holding[index] {
		b.buffers[index] = append(b.buffers[index], a)
		return nil
	}
	return b.Push(a, index)
}

// Hold starts queueing atoms of input i.
func (b *BufferedValidator) Hold(i int) { b.holding[i] = true }

// IsHolding reports whether input i is being held.
func (b *BufferedValidator) IsHolding(i int) bool { return b.holding[i] }

// Release pushes every queued atom of input i and stops holding it.
func (b *BufferedValidator) Release(i int) error {
	b.holding[i] = false
	queued := b.buffers[i]
	b.buffers[i] = nil
	for _, a := range queued {
		if err := b.Push(a, i); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll releases every input.
func (b *BufferedValidator) ReleaseAll() error {
	for i := range b.buffers {
		if err := b.Release(i); err != nil {
			return err
		}
	}
	return nil
}

// Buffer returns the atoms queued for input i.
func (b *BufferedValidator) Buffer(i int) []*domain.Atom { return b.buffers[i] }

// BufferTop returns the oldest queued atom of input i, or nil.
func (b *BufferedValidator) BufferTop(i int) *domain.Atom {
	if len(b.buffers[i]) == 0 {
		return nil
	}
	return b.buffers[i][0]
}

// LabelAll labels every queued atom of input i.
func (b *BufferedValidator) LabelAll(i int, err error) {
	for _, a := range b.buffers[i] {
		Label(a, err)
	}
}

// Finding is one label produced by a parallel check: Pos indexes the atoms
// slice the check received.
type Finding struct {
	Pos int
	Err error
}

// ParallelCheckFunc inspects one atom per ready input. indexes[k] is the
// input atoms[k] came from. A returned error aborts the run.
type ParallelCheckFunc func(atoms []*domain.Atom, indexes []int) ([]Finding, error)

// ParallelValidator is the synchronized validator: every step it receives one
// atom from each ready input, may label any of them, and forwards atom k to
// output indexes[k].
type ParallelValidator struct {
	*filtering.Base
	check   ParallelCheckFunc
	forward func(atoms []*domain.Atom, indexes []int) error
	setup   func(state *filtering.State) error
	closing func() error
}

// NewParallelValidator creates a synchronized validator.
func NewParallelValidator(name string, ins, outs []string, check ParallelCheckFunc) (*ParallelValidator, error) {
	if check == nil {
		return nil, filtering.NewInvalidOptionsError(name, errors.New("nil check"))
	}
	v := &ParallelValidator{check: check}
	base, err := filtering.NewSyncBase(name, ins, outs, filtering.AtLeast(1), filtering.Exactly(len(ins)), v)
	if err != nil {
		return nil, err
	}
	v.Base = base
	v.forward = v.PushAll
	return v, nil
}

func (v *ParallelValidator) OnSetup(state *filtering.State) error {
	if v.setup != nil {
		return v.setup(state)
	}
	return nil
}

func (v *ParallelValidator) OnSyncData(atoms []*domain.Atom, indexes []int) error {
	findings, err := v.check(atoms, indexes)
	if err != nil {
		return err
	}
	for _, f := range findings {
		Label(atoms[f.Pos], f.Err)
	}
	return v.forward(atoms, indexes)
}

func (v *ParallelValidator) OnInputsClosed() error {
	if v.closing != nil {
		if err := v.closing(); err != nil {
			return err
		}
	}
	return v.CloseOutputs()
}

// Batch is one synchronized group of atoms with the inputs they came from.
type Batch struct {
	Atoms   []*domain.Atom
	Indexes []int
}

// ParallelBufferValidator is a ParallelValidator holding whole batches back.
type ParallelBufferValidator struct {
	*ParallelValidator
	holding bool
	batches []Batch
	flush   func() error
}

// NewParallelBufferValidator creates a buffered synchronized validator.
func NewParallelBufferValidator(name string, ins, outs []string, check ParallelCheckFunc) (*ParallelBufferValidator, error) {
	v, err := NewParallelValidator(name, ins, outs, check)
	if err != nil {
		return nil, err
	}
	b := &ParallelBufferValidator{ParallelValidator: v}
	v.forward = b.hold
	v.setup = func(*filtering.State) error {
		b.batches = nil
		return nil
	}
	v.closing = func() error {
		if b.flush != nil {
			if err := b.flush(); err != nil {
				return err
			}
		}
		return b.Release()
	}
	return b, nil
}

func (b *ParallelBufferValidator) hold(atoms []*domain.Atom, indexes []int) error {
	if b.holding {
		b.batches = append(b.batches, Batch{Atoms: atoms, Indexes: indexes})
		return nil
	}
	return b.PushAll(atoms, indexes)
}

// Hold starts queueing batches.
func (b *ParallelBufferValidator) Hold() { b.holding = true }

// IsHolding reports whether batches are being held.
func (b *ParallelBufferValidator) IsHolding() bool { return b.holding }

// Len returns the number of queued batches.
func (b *ParallelBufferValidator) Len() int { return len(b.batches) }

// Batches returns the queued batches, oldest first.
func (b *ParallelBufferValidator) Batches() []Batch { return b.batches }

// PopBatch pushes the oldest queued batch.
func (b *ParallelBufferValidator) PopBatch() error {
	if len(b.batches) == 0 {
		return nil
	}
	top := b.batches[0]
	b.batches = b.batches[1:]
	return b.PushAll(top.Atoms, top.Indexes)
}

// Release pushes every queued batch and stops holding.
func (b *ParallelBufferValidator) Release() error {
	b.holding = false
	for len(b.batches) > 0 {
		if err := b.PopBatch(); err != nil {
			return err
		}
	}
	return nil
}
