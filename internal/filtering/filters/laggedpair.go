package filters

import (
	"fmt"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// LagOp combines the older and the newer value of a lagged pair.
type LagOp int

const (
	// OpMultiply yields older * newer.
	OpMultiply LagOp = iota
	// OpDelta yields older - newer.
	OpDelta
)

func (op LagOp) apply(older, newer float64) float64 {
	if op == OpDelta {
		return older - newer
	}
	return older * newer
}

// LaggedPairOptions configures a LaggedPair.
type LaggedPairOptions struct {
	Distance int      `validate:"gt=0"`
	Keys     []string `validate:"required,min=1,dive,required"`
	Op       LagOp    `validate:"gte=0,lte=1"`
}

// LaggedPair pairs every atom with the one Distance positions earlier and
// emits one combined atom per pair: a copy of the newer atom with each key
// replaced by Op(older, newer). The first Distance atoms have no partner, so
// an input of n atoms yields max(n-Distance, 0) atoms.
type LaggedPair struct {
	*filtering.Base
	opts    LaggedPairOptions
	ring    []*domain.Atom
	counter int
}

// NewLaggedPair creates a LaggedPair.
func NewLaggedPair(in, out string, opts LaggedPairOptions) (*LaggedPair, error) {
	if err := checkOptions("lagged_pair", opts); err != nil {
		return nil, err
	}
	f := &LaggedPair{opts: opts}
	base, err := filtering.NewBase("lagged_pair", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *LaggedPair) OnSetup(_ *filtering.State) error {
	f.ring = make([]*domain.Atom, f.opts.Distance)
	f.counter = 0
	return nil
}

func (f *LaggedPair) OnData(a *domain.Atom, _ int) error {
	older := f.ring[f.counter]
	f.ring[f.counter] = a
	f.counter = (f.counter + 1) % f.opts.Distance
	if older == nil {
		return nil
	}
	combined := a.Copy()
	for _, k := range f.opts.Keys {
		o, ok1 := older.Float(k)
		n, ok2 := a.Float(k)
		if !ok1 || !ok2 {
			combined.Set(k, nil)
			continue
		}
		combined.Set(k, f.opts.Op.apply(o, n))
	}
	if err := f.Push(combined, 0); err != nil {
		return fmt.Errorf("lagged pair: %w", err)
	}
	return nil
}
