package filtering

// Layer is a set of filters ticked together under one policy.
// Filters of a layer must not depend on each other's order within a tick.
type Layer struct {
	filters []Filter
	policy  Policy
}

// NewLayer creates a layer.
func NewLayer(policy Policy, filters ...Filter) *Layer {
	return &Layer{
		filters: append([]Filter(nil), filters...),
		policy:  policy,
	}
}

// Filters returns the filters of the layer.
func (l *Layer) Filters() []Filter {
	return append([]Filter(nil), l.filters...)
}

// Policy returns the scheduling policy of the layer.
func (l *Layer) Policy() Policy { return l.policy }

// tick steps every filter once.
func (l *Layer) tick(index int) error {
	for _, f := range l.filters {
		if err := f.Step(); err != nil {
			return NewStepError(f.Name(), index, err)
		}
	}
	return nil
}

// HasOutput reports whether any filter pushed output during the last tick.
func (l *Layer) HasOutput() bool {
	for _, f := range l.filters {
		if f.HasOutput() {
			return true
		}
	}
	return false
}

// Finished reports whether every filter's inputs are closed.
func (l *Layer) Finished() bool {
	for _, f := range l.filters {
		if !f.InputsClosed() {
			return false
		}
	}
	return true
}

// OutputsClosed reports whether every filter's outputs are closed.
func (l *Layer) OutputsClosed() bool {
	for _, f := range l.filters {
		if !f.OutputsClosed() {
			return false
		}
	}
	return true
}

// OutputNames returns every output stream name of the layer.
func (l *Layer) OutputNames() []string {
	names := make([]string, 0)
	for _, f := range l.filters {
		names = append(names, f.Outputs()...)
	}
	return names
}
