package validation

import (
	"errors"
	"fmt"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// ContinuityFunc compares two successive atoms. A non-nil result labels both.
type ContinuityFunc func(prev, next *domain.Atom) error

// ContinuityValidator compares each atom with the one before it. It holds
// one atom back so that a failed comparison labels both atoms before either
// is forwarded.
type ContinuityValidator struct {
	*BufferedValidator
	continuous ContinuityFunc
}

// NewContinuityValidator creates a continuity validator.
func NewContinuityValidator(in, out string, continuous ContinuityFunc) (*ContinuityValidator, error) {
	if continuous == nil {
		return nil, filtering.NewInvalidOptionsError("continuity", errors.New("nil continuity function"))
	}
	c := &ContinuityValidator{continuous: continuous}
	b, err := NewBufferedValidator("continuity", []string{in}, []string{out}, c.checkAtom)
	if err != nil {
		return nil, err
	}
	c.BufferedValidator = b
	reset := b.setup
	b.setup = func(state *filtering.State) error {
		b.Hold(0)
		return reset(state)
	}
	return c, nil
}

func (c *ContinuityValidator) checkAtom(a *domain.Atom) error {
	prev := c.BufferTop(0)
	if prev == nil {
		return nil
	}
	err := c.continuous(prev, a)
	if err != nil {
		Label(prev, err)
	}
	if rerr := c.Release(0); rerr != nil {
		return rerr
	}
	c.Hold(0)
	return err
}

// StrictlyIncreasing requires key to increase from one atom to the next.
func StrictlyIncreasing(key string) ContinuityFunc {
	return func(prev, next *domain.Atom) error {
		p, _ := prev.Get(key)
		n, _ := next.Get(key)
		cmp, err := domain.CompareValues(p, n)
		if err != nil {
			return fmt.Errorf("continuity of %s: %w", key, err)
		}
		if cmp >= 0 {
			return NewContinuityError(key, p, n)
		}
		return nil
	}
}

// MaxGap warns when two successive timestamps are more than gap apart.
// Out of order timestamps are errors.
func MaxGap(timeKey string, gap time.Duration) ContinuityFunc {
	return func(prev, next *domain.Atom) error {
		t0, err := prev.Time(timeKey)
		if err != nil {
			return err
		}
		t1, err := next.Time(timeKey)
		if err != nil {
			return err
		}
		p, _ := prev.Get(timeKey)
		n, _ := next.Get(timeKey)
		switch d := t1.Sub(t0); {
		case d < 0:
			return NewContinuityError(timeKey, p, n)
		case d > gap:
			return NewContinuityWarning(timeKey, p, n)
		}
		return nil
	}
}
