package filters

import (
	"fmt"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// Session restricts synthesized instants to a time-of-day window, given as
// offsets from midnight UTC. Both ends are inclusive.
type Session struct {
	Start time.Duration `validate:"gte=0,ltefield=End"`
	End   time.Duration `validate:"lte=24h"`
}

// Contains reports whether the time of day of t lies in the session.
func (s Session) Contains(t time.Time) bool {
	t = t.UTC()
	offset := t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return offset >= s.Start && offset <= s.End
}

// InterpolateOptions configures an Interpolate filter.
type InterpolateOptions struct {
	Interval time.Duration `validate:"gte=1ms"`
	TimeKey  string
	// Keys are interpolated linearly.
	Keys []string `validate:"required,min=1,dive,required"`
	// ConstantKeys are copied from the earlier atom of the gap.
	ConstantKeys []string
	Session      *Session
}

// Interpolate fills gaps of more than one interval in a time-sorted input.
// Between two atoms it synthesizes one atom at every exact multiple of the
// interval strictly between them. Original atoms are always emitted unchanged.
type Interpolate struct {
	*filtering.Base
	opts     InterpolateOptions
	prev     *domain.Atom
	prevTime time.Time
}

// NewInterpolate creates an Interpolate filter.
func NewInterpolate(in, out string, opts InterpolateOptions) (*Interpolate, error) {
	if err := checkOptions("interpolate", opts); err != nil {
		return nil, err
	}
	opts.TimeKey = orDefault(opts.TimeKey, domain.FieldDatetime)
	f := &Interpolate{opts: opts}
	base, err := filtering.NewBase("interpolate", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *Interpolate) OnSetup(_ *filtering.State) error {
	f.prev = nil
	return nil
}

func (f *Interpolate) OnData(a *domain.Atom, _ int) error {
	t, err := a.Time(f.opts.TimeKey)
	if err != nil {
		return fmt.Errorf("interpolate: %w", err)
	}
	if f.prev != nil && t.Sub(f.prevTime) > f.opts.Interval {
		for _, s := range f.synthesize(f.prev, f.prevTime, a, t) {
			if err := f.Push(s, 0); err != nil {
				return err
			}
		}
	}
	f.prev, f.prevTime = a, t
	return f.Push(a, 0)
}

func (f *Interpolate) synthesize(from *domain.Atom, t0 time.Time, to *domain.Atom, t1 time.Time) []*domain.Atom {
	iv := f.opts.Interval.Milliseconds()
	span := float64(t1.Sub(t0).Milliseconds())
	var out []*domain.Atom
	for ms := (floorDiv(t0.UnixMilli(), iv) + 1) * iv; ms < t1.UnixMilli(); ms += iv {
		at := time.UnixMilli(ms).UTC()
		if f.opts.Session != nil && !f.opts.Session.Contains(at) {
			continue
		}
		frac := float64(ms-t0.UnixMilli()) / span
		s := domain.NewAtom(f.opts.TimeKey, domain.FormatTime(at))
		for _, k := range f.opts.Keys {
			v0, ok0 := from.Float(k)
			v1, ok1 := to.Float(k)
			if !ok0 || !ok1 {
				s.Set(k, nil)
				continue
			}
			s.Set(k, v0+(v1-v0)*frac)
		}
		for _, k := range f.opts.ConstantKeys {
			if v, ok := from.Get(k); ok {
				s.Set(k, v)
			}
		}
		out = append(out, s)
	}
	return out
}
