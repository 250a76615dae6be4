package filters

import (
	"errors"
	"sort"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// RangeRouterOptions configures a RangeRouter.
type RangeRouterOptions struct {
	Key         string    `validate:"required"`
	Breakpoints []float64 `validate:"required,min=1"`
	Missing     MissingPolicy
}

// RangeRouter routes atoms by the interval their field falls in. Breakpoints
// b0 < b1 < ... split the line into (-inf, b0), [b0, b1), ..., [bn, +inf),
// one output each. With MissingToOutput an extra last output receives atoms
// whose field is absent or not numeric.
type RangeRouter struct {
	*filtering.Base
	opts RangeRouterOptions
}

// NewRangeRouter creates a RangeRouter. outs must hold len(Breakpoints)+1
// names, plus one when Missing is MissingToOutput.
func NewRangeRouter(in string, outs []string, opts RangeRouterOptions) (*RangeRouter, error) {
	if err := checkOptions("range_router", opts); err != nil {
		return nil, err
	}
	if !sort.Float64sAreSorted(opts.Breakpoints) {
		return nil, filtering.NewInvalidOptionsError("range_router", errors.New("breakpoints must be sorted"))
	}
	f := &RangeRouter{opts: opts}
	f.opts.Breakpoints = append([]float64(nil), opts.Breakpoints...)
	want := len(opts.Breakpoints) + 1
	if opts.Missing == MissingToOutput {
		want++
	}
	base, err := filtering.NewBase("range_router", []string{in}, outs, filtering.Exactly(1), filtering.Exactly(want), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

// Route returns the output index for v.
func (f *RangeRouter) Route(v float64) int {
	bp := f.opts.Breakpoints
	return sort.Search(len(bp), func(i int) bool { return bp[i] > v })
}

func (f *RangeRouter) OnData(a *domain.Atom, _ int) error {
	v, ok := a.Float(f.opts.Key)
	if !ok {
		return f.missing(a)
	}
	return f.Push(a, f.Route(v))
}

func (f *RangeRouter) missing(a *domain.Atom) error {
	if f.opts.Missing == MissingToOutput {
		return f.Push(a, f.OutputCount()-1)
	}
	return nil
}

// CaseRouterOptions configures a CaseRouter.
type CaseRouterOptions struct {
	Key     string `validate:"required"`
	Cases   []any  `validate:"required,min=1"`
	Missing MissingPolicy
}

// CaseRouter routes atoms whose field equals Cases[i] to output i and every
// other present value to the default output that follows the cases. With
// MissingToOutput an extra last output receives atoms lacking the field.
type CaseRouter struct {
	*filtering.Base
	opts CaseRouterOptions
}

// NewCaseRouter creates a CaseRouter. outs must hold len(Cases)+1 names,
// plus one when Missing is MissingToOutput.
func NewCaseRouter(in string, outs []string, opts CaseRouterOptions) (*CaseRouter, error) {
	if err := checkOptions("case_router", opts); err != nil {
		return nil, err
	}
	f := &CaseRouter{opts: opts}
	want := len(opts.Cases) + 1
	if opts.Missing == MissingToOutput {
		want++
	}
	base, err := filtering.NewBase("case_router", []string{in}, outs, filtering.Exactly(1), filtering.Exactly(want), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *CaseRouter) OnData(a *domain.Atom, _ int) error {
	v, ok := a.Get(f.opts.Key)
	if !ok || v == nil {
		if f.opts.Missing == MissingToOutput {
			return f.Push(a, f.OutputCount()-1)
		}
		return nil
	}
	for i, c := range f.opts.Cases {
		if domain.EqualValues(v, c) {
			return f.Push(a, i)
		}
	}
	return f.Push(a, len(f.opts.Cases))
}
