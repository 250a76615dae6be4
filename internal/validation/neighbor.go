package validation

import (
	"math"
	"sort"

	"tsflow/internal/filtering"
	"tsflow/internal/spatial"
	"tsflow/pkg/contracts/domain"
)

// NeighborOptions configures a neighbor validator.
type NeighborOptions struct {
	// Limits maps fields to relative tolerances. The search box uses the largest.
	Limits map[string]float64 `validate:"required,min=1,dive,gte=0"`
	// TimeRange is the number of batches looked at on each side.
	TimeRange int `validate:"gte=0"`
}

// NeighborValidator checks that every atom of N aligned sources has a near
// point among the atoms of a sliding window of 2*TimeRange+1 batches. The
// middle batch of each full window is checked, so the first and last
// TimeRange batches are never checked. Atoms without a neighbor get a
// NeighborWarning.
type NeighborValidator struct {
	*ParallelBufferValidator
	keys   []string
	limit  float64
	window int
	table  *spatial.Table[*domain.Atom]
}

// NewNeighborValidator creates a neighbor validator.
func NewNeighborValidator(ins, outs []string, opts NeighborOptions) (*NeighborValidator, error) {
	if err := checkOptions("neighbor", opts); err != nil {
		return nil, err
	}
	n := &NeighborValidator{window: 2*opts.TimeRange + 1}
	for k, l := range opts.Limits {
		n.keys = append(n.keys, k)
		n.limit = math.Max(n.limit, math.Abs(l))
	}
	sort.Strings(n.keys)
	b, err := NewParallelBufferValidator("neighbor", ins, outs, n.checkBatch)
	if err != nil {
		return nil, err
	}
	n.ParallelBufferValidator = b
	reset := b.setup
	b.setup = func(state *filtering.State) error {
		n.table = spatial.New(n.coords)
		b.Hold()
		return reset(state)
	}
	b.flush = func() error {
		if b.Len() == n.window {
			n.checkMiddle()
		}
		return nil
	}
	return n, nil
}

func (n *NeighborValidator) coords(a *domain.Atom) []float64 {
	c := make([]float64, len(n.keys))
	for i, k := range n.keys {
		v, ok := a.Float(k)
		if !ok {
			v = math.NaN()
		}
		c[i] = v
	}
	return c
}

func (n *NeighborValidator) checkBatch(atoms []*domain.Atom, _ []int) ([]Finding, error) {
	if n.Len() == n.window {
		n.checkMiddle()
		for _, a := range n.Batches()[0].Atoms {
			_ = n.table.Remove(a)
		}
		if err := n.PopBatch(); err != nil {
			return nil, err
		}
	}
	for _, a := range atoms {
		// Atoms without finite coordinates are never indexed.
		_ = n.table.Add(a)
	}
	return nil, nil
}

func (n *NeighborValidator) checkMiddle() {
	middle := n.Batches()[n.Len()/2]
	for _, a := range middle.Atoms {
		indexed := n.table.Remove(a) == nil
		if !n.table.Near(a, n.limit) {
			fields := make(map[string]any, len(n.keys))
			for _, k := range n.keys {
				fields[k], _ = a.Get(k)
			}
			Label(a, NewNeighborWarning(fields))
		}
		if indexed {
			_ = n.table.Add(a)
		}
	}
}
