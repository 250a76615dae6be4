package filtering

import (
	"fmt"

	"tsflow/pkg/contracts/domain"
)

// Filter is a unit of computation with fixed, named input and output streams.
type Filter interface {
	Name() string
	Inputs() []string
	Outputs() []string
	Setup(inputs, outputs []*Stream, state *State) error
	Step() error
	HasOutput() bool
	InputsClosed() bool
	OutputsClosed() bool
}

// DataHandler receives one atom popped from input index.
type DataHandler interface {
	OnData(atom *domain.Atom, index int) error
}

// SyncDataHandler receives one atom from every ready input at once.
type SyncDataHandler interface {
	OnSyncData(atoms []*domain.Atom, indexes []int) error
}

// EmptyHandler is called when no input has data but some input is still open.
type EmptyHandler interface {
	OnInputsEmpty() error
}

// ClosedHandler is called when every input is closed and drained.
// Without it the filter closes its outputs.
type ClosedHandler interface {
	OnInputsClosed() error
}

// OrderChecker overrides the order in which inputs are scanned.
type OrderChecker interface {
	CheckOrder() []int
}

// SetupHandler resets per-run state and registers aggregate state keys.
type SetupHandler interface {
	OnSetup(state *State) error
}

// Arity bounds the number of streams on one side of a filter. Max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
}

// Exactly returns an arity of exactly n streams.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast returns an arity of n or more streams.
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// Allows reports whether n streams satisfy the arity.
func (a Arity) Allows(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	}
	return fmt.Sprintf("%d to %d", a.Min, a.Max)
}

// Base implements Filter and drives the hooks of the concrete filter that embeds it.
type Base struct {
	name        string
	inputNames  []string
	outputNames []string

	inputs  []*Stream
	outputs []*Stream
	state   *State

	outputted bool

	data  DataHandler
	sync  SyncDataHandler
	hooks any
}

// NewBase creates the stepping core of a filter reading one atom at a time.
// Name lists are checked against the arities before anything else happens.
func NewBase(name string, inputs, outputs []string, in, out Arity, hooks DataHandler) (*Base, error) {
	b, err := newBase(name, inputs, outputs, in, out, hooks)
	if err != nil {
		return nil, err
	}
	b.data = hooks
	return b, nil
}

// NewSyncBase creates the stepping core of a synchronized filter: a step waits
// until every open input is ready, then pops one atom from each ready input.
func NewSyncBase(name string, inputs, outputs []string, in, out Arity, hooks SyncDataHandler) (*Base, error) {
	b, err := newBase(name, inputs, outputs, in, out, hooks)
	if err != nil {
		return nil, err
	}
	b.sync = hooks
	return b, nil
}

func newBase(name string, inputs, outputs []string, in, out Arity, hooks any) (*Base, error) {
	if hooks == nil {
		return nil, fmt.Errorf("filter %s: nil hooks", name)
	}
	if !in.Allows(len(inputs)) {
		return nil, NewArityError(name, "input", in, len(inputs))
	}
	if !out.Allows(len(outputs)) {
		return nil, NewArityError(name, "output", out, len(outputs))
	}
	b := &Base{
		name:        name,
		inputNames:  append([]string(nil), inputs...),
		outputNames: append([]string(nil), outputs...),
		hooks:       hooks,
	}
	return b, nil
}

// Name returns the filter name used in logs and errors.
func (b *Base) Name() string { return b.name }

// Inputs returns the input stream names.
func (b *Base) Inputs() []string { return append([]string(nil), b.inputNames...) }

// Outputs returns the output stream names.
func (b *Base) Outputs() []string { return append([]string(nil), b.outputNames...) }

// Setup stores the resolved streams and resets per-run state.
func (b *Base) Setup(inputs, outputs []*Stream, state *State) error {
	if len(inputs) != len(b.inputNames) {
		return NewArityError(b.name, "input", Exactly(len(b.inputNames)), len(inputs))
	}
	if len(outputs) != len(b.outputNames) {
		return NewArityError(b.name, "output", Exactly(len(b.outputNames)), len(outputs))
	}
	b.inputs = inputs
	b.outputs = outputs
	b.state = state
	b.outputted = false
	if h, ok := b.hooks.(SetupHandler); ok {
		return h.OnSetup(state)
	}
	return nil
}

// Step performs one unit of work. It never blocks.
func (b *Base) Step() error {
	b.outputted = false
	if b.inputs == nil && len(b.inputNames) > 0 {
		return NewWiringError(b.name, "step before setup", nil)
	}
	if b.OutputsClosed() {
		return nil
	}
	if b.sync != nil {
		return b.stepSync()
	}
	for _, i := range b.checkOrder() {
		if i < 0 || i >= len(b.inputs) {
			return NewWiringError(b.name, fmt.Sprintf("check order index %d out of range", i), nil)
		}
		if b.inputs[i].HasNext() {
			atom, err := b.inputs[i].Next()
			if err != nil {
				return err
			}
			return b.data.OnData(atom, i)
		}
	}
	if b.InputsDrained() {
		return b.onInputsClosed()
	}
	return b.onInputsEmpty()
}

func (b *Base) stepSync() error {
	ready := make([]int, 0, len(b.inputs))
	waiting := false
	for i, in := range b.inputs {
		switch {
		case in.HasNext():
			ready = append(ready, i)
		case !in.IsClosed():
			waiting = true
		}
	}
	if waiting {
		return b.onInputsEmpty()
	}
	if len(ready) == 0 {
		return b.onInputsClosed()
	}
	atoms := make([]*domain.Atom, len(ready))
	for k, i := range ready {
		atom, err := b.inputs[i].Next()
		if err != nil {
			return err
		}
		atoms[k] = atom
	}
	return b.sync.OnSyncData(atoms, ready)
}

func (b *Base) checkOrder() []int {
	if h, ok := b.hooks.(OrderChecker); ok {
		return h.CheckOrder()
	}
	order := make([]int, len(b.inputs))
	for i := range order {
		order[i] = i
	}
	return order
}

func (b *Base) onInputsEmpty() error {
	if h, ok := b.hooks.(EmptyHandler); ok {
		return h.OnInputsEmpty()
	}
	return nil
}

func (b *Base) onInputsClosed() error {
	if h, ok := b.hooks.(ClosedHandler); ok {
		return h.OnInputsClosed()
	}
	return b.CloseOutputs()
}

// Push appends an atom to output index and marks the tick as productive.
func (b *Base) Push(atom *domain.Atom, index int) error {
	if index < 0 || index >= len(b.outputs) {
		return NewWiringError(b.name, fmt.Sprintf("output index %d out of range", index), nil)
	}
	if err := b.outputs[index].Append(atom); err != nil {
		return fmt.Errorf("filter %s output %s: %w", b.name, b.outputNames[index], err)
	}
	b.outputted = true
	return nil
}

// PushAll pushes atoms[i] to output indexes[i].
func (b *Base) PushAll(atoms []*domain.Atom, indexes []int) error {
	for k, atom := range atoms {
		if err := b.Push(atom, indexes[k]); err != nil {
			return err
		}
	}
	return nil
}

// CloseOutputs closes every output that is still open.
func (b *Base) CloseOutputs() error {
	for _, out := range b.outputs {
		if out.IsClosed() {
			continue
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

// HasOutput reports whether the last step pushed anything.
func (b *Base) HasOutput() bool { return b.outputted }

// InputsClosed reports whether every input stream is closed.
func (b *Base) InputsClosed() bool {
	for _, in := range b.inputs {
		if !in.IsClosed() {
			return false
		}
	}
	return true
}

// InputsDrained reports whether every input stream is closed and empty.
func (b *Base) InputsDrained() bool {
	for _, in := range b.inputs {
		if !in.Drained() {
			return false
		}
	}
	return true
}

// OutputsClosed reports whether every output stream is closed.
// A sink without outputs counts as closed once its inputs are drained.
func (b *Base) OutputsClosed() bool {
	if len(b.outputNames) == 0 {
		return b.inputs != nil && b.InputsDrained()
	}
	if b.outputs == nil {
		return false
	}
	for _, out := range b.outputs {
		if !out.IsClosed() {
			return false
		}
	}
	return true
}

// Input returns input stream i after setup.
func (b *Base) Input(i int) *Stream { return b.inputs[i] }

// Output returns output stream i after setup.
func (b *Base) Output(i int) *Stream { return b.outputs[i] }

// InputCount returns the number of inputs.
func (b *Base) InputCount() int { return len(b.inputNames) }

// OutputCount returns the number of outputs.
func (b *Base) OutputCount() int { return len(b.outputNames) }

// State returns the aggregate state of the current run.
func (b *Base) State() *State { return b.state }
