package filters

import (
	"errors"
	"sort"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// FieldSummary describes every value seen for one field.
type FieldSummary struct {
	Count   int
	Nulls   int
	Numbers int
	Min     float64
	Max     float64
	Times   int
	First   time.Time
	Last    time.Time
	// Distinct counts the other string values.
	Distinct map[string]int
}

func (s *FieldSummary) observe(v any) {
	s.Count++
	switch x := v.(type) {
	case nil:
		s.Nulls++
	case float64, int64:
		n, _ := domain.ToFloat(x)
		if s.Numbers == 0 || n < s.Min {
			s.Min = n
		}
		if s.Numbers == 0 || n > s.Max {
			s.Max = n
		}
		s.Numbers++
	case string:
		if t, err := domain.ParseTime(x); err == nil {
			if s.Times == 0 || t.Before(s.First) {
				s.First = t
			}
			if s.Times == 0 || t.After(s.Last) {
				s.Last = t
			}
			s.Times++
			return
		}
		if s.Distinct == nil {
			s.Distinct = make(map[string]int)
		}
		s.Distinct[x]++
	}
}

// DistinctValues returns the distinct string values in sorted order.
func (s *FieldSummary) DistinctValues() []string {
	out := make([]string, 0, len(s.Distinct))
	for v := range s.Distinct {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Summary observes every atom and forwards it unchanged, keeping a
// map[string]*FieldSummary under its state key.
type Summary struct {
	*filtering.Base
	key    string
	fields map[string]*FieldSummary
}

// NewSummary creates a Summary writing to stateKey.
func NewSummary(in, out, stateKey string) (*Summary, error) {
	if stateKey == "" {
		return nil, filtering.NewInvalidOptionsError("summary", errors.New("empty state key"))
	}
	f := &Summary{key: stateKey}
	base, err := filtering.NewBase("summary", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *Summary) OnSetup(state *filtering.State) error {
	f.fields = make(map[string]*FieldSummary)
	return state.Register(f.key, f.fields)
}

func (f *Summary) OnData(a *domain.Atom, _ int) error {
	for _, k := range a.Keys() {
		s, ok := f.fields[k]
		if !ok {
			s = &FieldSummary{}
			f.fields[k] = s
		}
		v, _ := a.Get(k)
		s.observe(v)
	}
	return f.Push(a, 0)
}
