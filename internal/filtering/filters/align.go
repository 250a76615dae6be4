package filters

import (
	"fmt"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// AlignOptions configures an Align filter.
type AlignOptions struct {
	// TimeKey names the timestamp field. Defaults to "datetime".
	TimeKey string
}

// Align joins N time-sorted inputs on their timestamp. It buffers one atom per
// input and keeps advancing the input whose buffered atom is earliest until
// all N buffered atoms share one timestamp, then emits atom i to output i.
// Atoms without a partner on every input are discarded.
type Align struct {
	*filtering.Base
	timeKey string
	pending []*domain.Atom
	times   []time.Time
}

// NewAlign creates an Align filter. ins and outs must have the same length.
func NewAlign(ins, outs []string, opts AlignOptions) (*Align, error) {
	f := &Align{timeKey: orDefault(opts.TimeKey, domain.FieldDatetime)}
	base, err := filtering.NewBase("align", ins, outs, filtering.AtLeast(1), filtering.Exactly(len(ins)), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *Align) OnSetup(_ *filtering.State) error {
	f.pending = make([]*domain.Atom, f.InputCount())
	f.times = make([]time.Time, f.InputCount())
	return nil
}

// CheckOrder probes only the first input without a buffered atom.
func (f *Align) CheckOrder() []int {
	return []int{f.probe()}
}

func (f *Align) probe() int {
	for i, a := range f.pending {
		if a == nil {
			return i
		}
	}
	return 0
}

func (f *Align) OnData(a *domain.Atom, index int) error {
	t, err := a.Time(f.timeKey)
	if err != nil {
		return fmt.Errorf("align input %d: %w", index, err)
	}
	f.pending[index] = a
	f.times[index] = t

	for _, p := range f.pending {
		if p == nil {
			return nil
		}
	}
	earliest := 0
	aligned := true
	for i := 1; i < len(f.times); i++ {
		if !f.times[i].Equal(f.times[0]) {
			aligned = false
		}
		if f.times[i].Before(f.times[earliest]) {
			earliest = i
		}
	}
	if !aligned {
		f.pending[earliest] = nil
		return nil
	}
	for i, p := range f.pending {
		if err := f.Push(p, i); err != nil {
			return err
		}
		f.pending[i] = nil
	}
	return nil
}

// OnInputsEmpty closes the outputs once the input to probe is exhausted,
// since no further alignment is possible.
func (f *Align) OnInputsEmpty() error {
	if f.Input(f.probe()).Drained() {
		return f.CloseOutputs()
	}
	return nil
}
