package filters

import (
	"errors"
	"math"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

type statKind int

const (
	statSum statKind = iota
	statCount
	statMax
	statMin
	statAvg
)

// StatOp is one running statistic. Its name is the aggregate state key it
// writes to; the state value is a map[string]float64 from field to statistic.
type StatOp struct {
	name  string
	keys  []string
	kind  statKind
	sums  map[string]float64
	count map[string]float64
}

// Sum accumulates the sum of keys under name.
func Sum(name string, keys ...string) StatOp { return StatOp{name: name, keys: keys, kind: statSum} }

// Count counts the numeric values of keys under name.
func Count(name string, keys ...string) StatOp { return StatOp{name: name, keys: keys, kind: statCount} }

// Max tracks the maximum of keys under name.
func Max(name string, keys ...string) StatOp { return StatOp{name: name, keys: keys, kind: statMax} }

// Min tracks the minimum of keys under name.
func Min(name string, keys ...string) StatOp { return StatOp{name: name, keys: keys, kind: statMin} }

// Avg tracks the running mean of keys under name.
func Avg(name string, keys ...string) StatOp { return StatOp{name: name, keys: keys, kind: statAvg} }

// Name returns the state key of the statistic.
func (op StatOp) Name() string { return op.name }

func (op *StatOp) observe(values map[string]float64, key string, v float64) {
	prev, seen := values[key]
	switch op.kind {
	case statSum:
		values[key] = prev + v
	case statCount:
		values[key] = prev + 1
	case statMax:
		if !seen || v > prev {
			values[key] = v
		}
	case statMin:
		if !seen || v < prev {
			values[key] = v
		}
	case statAvg:
		op.sums[key] += v
		op.count[key]++
		values[key] = op.sums[key] / op.count[key]
	}
}

// RunningStats observes every atom and forwards it unchanged, updating one
// aggregate state entry per statistic. Non-numeric values are skipped.
type RunningStats struct {
	*filtering.Base
	ops    []StatOp
	values []map[string]float64
}

// NewRunningStats creates a RunningStats filter. Two statistics sharing a name
// fail at setup with filtering.ErrDuplicateState.
func NewRunningStats(in, out string, ops ...StatOp) (*RunningStats, error) {
	if len(ops) == 0 {
		return nil, filtering.NewInvalidOptionsError("running_stats", errors.New("no statistics"))
	}
	for _, op := range ops {
		if op.name == "" || len(op.keys) == 0 {
			return nil, filtering.NewInvalidOptionsError("running_stats", errors.New("statistic needs a name and at least one key"))
		}
	}
	f := &RunningStats{ops: append([]StatOp(nil), ops...)}
	base, err := filtering.NewBase("running_stats", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *RunningStats) OnSetup(state *filtering.State) error {
	f.values = make([]map[string]float64, len(f.ops))
	for i := range f.ops {
		f.ops[i].sums = make(map[string]float64)
		f.ops[i].count = make(map[string]float64)
		f.values[i] = make(map[string]float64)
		if err := state.Register(f.ops[i].name, f.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *RunningStats) OnData(a *domain.Atom, _ int) error {
	for i := range f.ops {
		op := &f.ops[i]
		for _, k := range op.keys {
			v, ok := a.Float(k)
			if !ok || math.IsNaN(v) {
				continue
			}
			op.observe(f.values[i], k, v)
		}
	}
	return f.Push(a, 0)
}
