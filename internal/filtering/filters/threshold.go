package filters

import (
	"math"
	"strconv"
	"strings"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// LevelFunc returns the i-th level of a threshold ladder. Levels must increase.
type LevelFunc func(i int) float64

// LinearLevels returns the ladder 0, step, 2*step, ...
func LinearLevels(step float64) LevelFunc {
	return func(i int) float64 { return float64(i) * step }
}

// ThresholdOptions configures a ThresholdCount.
type ThresholdOptions struct {
	StateKey string    `validate:"required"`
	Keys     []string  `validate:"required,min=1,dive,required"`
	Level    LevelFunc `validate:"required"`
	// MaxLevels caps the ladder. Defaults to 1000.
	MaxLevels int `validate:"gte=0"`
}

// ThresholdCount counts threshold crossings per field. For each value, every
// level with |value| >= level that is not locked is counted once and locked.
// A sign change of the value unlocks every level of that field. Counts are
// kept under StateKey as map[field]map[levelKey]int, where levelKey is the
// level formatted with at least one decimal and a "-" prefix for negative
// values ("0.5", "-0.0"). Zero counts as positive.
type ThresholdCount struct {
	*filtering.Base
	opts     ThresholdOptions
	counts   map[string]map[string]int
	locked   map[string]map[int]bool
	negative map[string]bool
}

// NewThresholdCount creates a ThresholdCount.
func NewThresholdCount(in, out string, opts ThresholdOptions) (*ThresholdCount, error) {
	if err := checkOptions("threshold_count", opts); err != nil {
		return nil, err
	}
	if opts.MaxLevels == 0 {
		opts.MaxLevels = 1000
	}
	f := &ThresholdCount{opts: opts}
	base, err := filtering.NewBase("threshold_count", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *ThresholdCount) OnSetup(state *filtering.State) error {
	f.counts = make(map[string]map[string]int, len(f.opts.Keys))
	f.locked = make(map[string]map[int]bool, len(f.opts.Keys))
	f.negative = make(map[string]bool, len(f.opts.Keys))
	for _, k := range f.opts.Keys {
		f.counts[k] = make(map[string]int)
	}
	return state.Register(f.opts.StateKey, f.counts)
}

func (f *ThresholdCount) OnData(a *domain.Atom, _ int) error {
	for _, k := range f.opts.Keys {
		v, ok := a.Float(k)
		if !ok || math.IsNaN(v) {
			continue
		}
		f.observe(k, v)
	}
	return f.Push(a, 0)
}

func (f *ThresholdCount) observe(key string, v float64) {
	negative := math.Signbit(v)
	locked, seen := f.locked[key]
	if !seen || f.negative[key] != negative {
		locked = make(map[int]bool)
		f.locked[key] = locked
		f.negative[key] = negative
	}
	abs := math.Abs(v)
	for i := 0; i < f.opts.MaxLevels; i++ {
		level := f.opts.Level(i)
		if abs < level {
			break
		}
		if locked[i] {
			continue
		}
		locked[i] = true
		f.counts[key][LevelKey(level, negative)]++
	}
}

// LevelKey formats a level for the count table.
func LevelKey(level float64, negative bool) string {
	s := strconv.FormatFloat(math.Abs(level), 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	if negative {
		return "-" + s
	}
	return s
}
