package filters

import (
	"fmt"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// CopyMode selects what each fan-out output receives.
type CopyMode int

const (
	// CopyReference pushes the same atom to every output.
	CopyReference CopyMode = iota
	// CopyShallow pushes a copy of the fields; labels added before the fan-out are shared.
	CopyShallow
	// CopyDeep pushes fully independent copies.
	CopyDeep
)

// FanOut copies every atom to each of its outputs.
type FanOut struct {
	*filtering.Base
	mode CopyMode
}

// NewFanOut creates a FanOut from in to every name in outs.
func NewFanOut(in string, outs []string, mode CopyMode) (*FanOut, error) {
	if mode < CopyReference || mode > CopyDeep {
		return nil, filtering.NewInvalidOptionsError("fanout", fmt.Errorf("unknown copy mode %d", mode))
	}
	f := &FanOut{mode: mode}
	base, err := filtering.NewBase("fanout", []string{in}, outs, filtering.Exactly(1), filtering.AtLeast(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *FanOut) OnData(a *domain.Atom, _ int) error {
	for i := 0; i < f.OutputCount(); i++ {
		c := a
		switch f.mode {
		case CopyShallow:
			c = a.Copy()
		case CopyDeep:
			c = a.Clone()
		}
		if err := f.Push(c, i); err != nil {
			return err
		}
	}
	return nil
}

// SequentialMerge drains its inputs strictly left to right: an input is only
// read once every input before it is closed and drained.
type SequentialMerge struct {
	*filtering.Base
}

// NewSequentialMerge creates a SequentialMerge from ins to out.
func NewSequentialMerge(ins []string, out string) (*SequentialMerge, error) {
	f := &SequentialMerge{}
	base, err := filtering.NewBase("merge", ins, []string{out}, filtering.AtLeast(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *SequentialMerge) OnData(a *domain.Atom, _ int) error {
	return f.Push(a, 0)
}

func (f *SequentialMerge) CheckOrder() []int {
	for i := 0; i < f.InputCount(); i++ {
		if !f.Input(i).Drained() {
			return []int{i}
		}
	}
	return nil
}
