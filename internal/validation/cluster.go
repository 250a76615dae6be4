package validation

import (
	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// ClusterOptions configures a cluster validator.
type ClusterOptions struct {
	Key string `validate:"required"`
	// Limit is the longest accepted run of equal values.
	Limit int `validate:"gte=1"`
}

// ClusterValidator holds runs of atoms sharing a value on Key. When the value
// changes or the stream ends, a run longer than Limit is labeled with a
// ClusterWarning on every atom, then released.
type ClusterValidator struct {
	*BufferedValidator
	opts ClusterOptions
	size int
}

// NewClusterValidator creates a cluster validator.
func NewClusterValidator(in, out string, opts ClusterOptions) (*ClusterValidator, error) {
	if err := checkOptions("cluster", opts); err != nil {
		return nil, err
	}
	c := &ClusterValidator{opts: opts}
	b, err := NewBufferedValidator("cluster", []string{in}, []string{out}, c.checkAtom)
	if err != nil {
		return nil, err
	}
	c.BufferedValidator = b
	reset := b.setup
	b.setup = func(state *filtering.State) error {
		c.size = 0
		b.Hold(0)
		return reset(state)
	}
	b.flush = c.closeRun
	return c, nil
}

func (c *ClusterValidator) checkAtom(a *domain.Atom) error {
	top := c.BufferTop(0)
	if top == nil {
		c.size = 1
		return nil
	}
	prev, _ := top.Get(c.opts.Key)
	cur, _ := a.Get(c.opts.Key)
	if domain.EqualValues(prev, cur) {
		c.size++
		return nil
	}
	if err := c.closeRun(); err != nil {
		return err
	}
	c.Hold(0)
	c.size = 1
	return nil
}

func (c *ClusterValidator) closeRun() error {
	if top := c.BufferTop(0); top != nil && c.size > c.opts.Limit {
		value, _ := top.Get(c.opts.Key)
		c.LabelAll(0, NewClusterWarning(c.opts.Key, value, c.size))
	}
	return c.Release(0)
}
