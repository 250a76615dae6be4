package validation

import (
	"iter"
	"sort"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// GapFunc builds atoms standing in for missing values. It receives the
// missing values per key and the atom that followed the gap. Returned atoms
// are labeled with the coverage error and emitted before that atom. For the
// tail of a finite interval next is nil and the atoms are emitted last.
type GapFunc func(missing map[string][]any, next *domain.Atom) []*domain.Atom

// CoverageOptions configures a coverage validator.
type CoverageOptions struct {
	// Intervals maps each monotonic key to the sequence of values it must cover.
	// A sequence that ends stops the check for its key.
	Intervals map[string]iter.Seq[any] `validate:"required,min=1"`
	// Gap synthesizes atoms for gaps. Nil means gaps are only labeled.
	Gap GapFunc
	// Finite reports values still pending when the inputs close. Every
	// interval must then end. Without Gap the tail is labeled on the last atom.
	Finite bool
}

type cursor struct {
	next    func() (any, bool)
	stop    func()
	pending any
	ok      bool
}

// CoverageValidator checks that every key takes exactly the values of its
// interval, in order. Values skipped by the stream are reported as a
// CoverageError on the atom that follows the gap; values not in the interval
// are reported as unexpected and do not advance it.
type CoverageValidator struct {
	*Validator
	opts    CoverageOptions
	keys    []string
	cursors map[string]*cursor
	last    *domain.Atom
}

// NewCoverageValidator creates a coverage validator.
func NewCoverageValidator(in, out string, opts CoverageOptions) (*CoverageValidator, error) {
	if err := checkOptions("coverage", opts); err != nil {
		return nil, err
	}
	c := &CoverageValidator{opts: opts}
	for k := range opts.Intervals {
		c.keys = append(c.keys, k)
	}
	sort.Strings(c.keys)
	v, err := NewValidator("coverage", []string{in}, []string{out}, c.checkAtom)
	if err != nil {
		return nil, err
	}
	c.Validator = v
	v.setup = func(*filtering.State) error {
		c.stop()
		c.last = nil
		c.cursors = make(map[string]*cursor, len(c.keys))
		for _, k := range c.keys {
			next, stop := iter.Pull(opts.Intervals[k])
			cur := &cursor{next: next, stop: stop}
			cur.pending, cur.ok = next()
			c.cursors[k] = cur
		}
		return nil
	}
	v.closing = func() error {
		defer c.stop()
		if opts.Finite {
			return c.reportTail()
		}
		return nil
	}
	return c, nil
}

// reportTail drains every cursor and reports what the stream never reached.
func (c *CoverageValidator) reportTail() error {
	missing := make(map[string][]any)
	for _, k := range c.keys {
		cur := c.cursors[k]
		for cur != nil && cur.ok {
			missing[k] = append(missing[k], cur.pending)
			cur.pending, cur.ok = cur.next()
		}
	}
	if len(missing) == 0 {
		return nil
	}
	gap := NewCoverageError(missing)
	if c.opts.Gap == nil {
		if c.last != nil {
			Label(c.last, gap)
		}
		return nil
	}
	return c.pushGap(missing, nil, gap)
}

func (c *CoverageValidator) pushGap(missing map[string][]any, next *domain.Atom, gap error) error {
	for _, s := range c.opts.Gap(missing, next) {
		Label(s, gap)
		if err := c.Push(s, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *CoverageValidator) stop() {
	for _, cur := range c.cursors {
		cur.stop()
	}
	c.cursors = nil
}

func (c *CoverageValidator) checkAtom(a *domain.Atom) error {
	c.last = a
	missing := make(map[string][]any)
	var unexpected []error
	for _, k := range c.keys {
		cur := c.cursors[k]
		if cur == nil || !cur.ok {
			continue
		}
		actual, _ := a.Get(k)
		for cur.ok {
			cmp, err := domain.CompareValues(cur.pending, actual)
			if err != nil {
				unexpected = append(unexpected, NewUnexpectedValue(k, actual))
				break
			}
			if cmp > 0 {
				unexpected = append(unexpected, NewUnexpectedValue(k, actual))
				break
			}
			if cmp < 0 {
				missing[k] = append(missing[k], cur.pending)
			}
			cur.pending, cur.ok = cur.next()
			if cmp == 0 {
				break
			}
		}
	}

	var errs []error
	if len(missing) > 0 {
		gap := NewCoverageError(missing)
		if c.opts.Gap != nil {
			if err := c.pushGap(missing, a, gap); err != nil {
				return err
			}
		}
		errs = append(errs, gap)
	}
	errs = append(errs, unexpected...)
	return joinDefects(errs)
}

// Sequence yields values in order.
func Sequence(values ...any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}

// Steps yields start, start+step, ... without end.
func Steps(start, step int64) iter.Seq[any] {
	return func(yield func(any) bool) {
		for v := start; ; v += step {
			if !yield(v) {
				return
			}
		}
	}
}

// TimeSteps yields formatted timestamps from start, step apart, without end.
func TimeSteps(start time.Time, step time.Duration) iter.Seq[any] {
	return func(yield func(any) bool) {
		for t := start; ; t = t.Add(step) {
			if !yield(domain.FormatTime(t)) {
				return
			}
		}
	}
}
