package analysis

import (
	"context"
	"fmt"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// Source names used as seed stream names.
const (
	SourcePrimary = "primary"
	SourceCompare = "compare"
)

// OutputStream is the stream every analysis leaves its result on.
const OutputStream = "output"

// Analysis is one named validation run over a set of sources.
type Analysis interface {
	// ID returns the unique identifier for this analysis
	ID() string

	// Name returns the human-readable name for this analysis
	Name() string

	// Inputs returns the source names the analysis reads
	Inputs() []string

	// Execute builds a fresh net and runs it over seed. seed holds one
	// closed stream per name in Inputs.
	Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error)
}

// Result is what an analysis leaves behind.
type Result struct {
	AnalysisID string
	RunID      string
	Ticks      int
	// Flagged counts output atoms carrying at least one label.
	Flagged int
	Total   int
	Elapsed time.Duration
	State   map[string]any
	Output  []*domain.Atom
}

// FlaggedAtoms returns the labeled atoms of the output.
func (r *Result) FlaggedAtoms() []*domain.Atom {
	var out []*domain.Atom
	for _, a := range r.Output {
		if a.HasLabels() {
			out = append(out, a)
		}
	}
	return out
}

// chain runs filters as a pipeline: the head layer advances, every later
// layer goes back to its upstream while it has nothing to emit.
func chain(filters ...filtering.Filter) []*filtering.Layer {
	layers := make([]*filtering.Layer, len(filters))
	for i, f := range filters {
		policy := filtering.PolicyRetreatIfIdle
		if i == 0 {
			policy = filtering.PolicyAdvance
		}
		layers[i] = filtering.NewLayer(policy, f)
	}
	return layers
}

// execute runs layers over seed and collects OutputStream.
func execute(ctx context.Context, id string, layers []*filtering.Layer, seed map[string]*filtering.Stream, opts []filtering.Option) (*Result, error) {
	res, err := filtering.NewNet(layers, opts...).Execute(ctx, seed, nil)
	if err != nil {
		return nil, fmt.Errorf("analysis %s: %w", id, err)
	}

	out := res.Atoms(OutputStream)
	r := &Result{
		AnalysisID: id,
		RunID:      res.RunID,
		Ticks:      res.Ticks,
		Total:      len(out),
		Elapsed:    res.Duration,
		State:      res.State.Snapshot(),
		Output:     out,
	}
	for _, a := range out {
		if a.HasLabels() {
			r.Flagged++
		}
	}
	return r, nil
}
