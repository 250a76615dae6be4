package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tsflow/internal/filtering"
	"tsflow/internal/infrastructure"
	"tsflow/pkg/contracts/domain"
)

// Runner executes analyses of a registry concurrently.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.AnalysisMetrics
	netOpts  []filtering.Option
	limit    int
	// aliases is non-nil when source keys are normalized before a run.
	aliases map[string]string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for run events. Nets inherit it.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = infrastructure.WithComponent(logger, "analysis")
		}
	}
}

// WithMetrics records every finished analysis on m.
func WithMetrics(m *infrastructure.AnalysisMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithNetOptions passes opts to every net the runner builds.
func WithNetOptions(opts ...filtering.Option) RunnerOption {
	return func(r *Runner) { r.netOpts = append(r.netOpts, opts...) }
}

// WithConcurrency bounds the number of analyses running at once. Zero or
// less means no bound.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.limit = n }
}

// WithKeyNormalization lower-cases every source field name and then renames
// it through aliases before the analyses see it.
func WithKeyNormalization(aliases map[string]string) RunnerOption {
	return func(r *Runner) {
		r.aliases = aliases
		if r.aliases == nil {
			r.aliases = map[string]string{}
		}
	}
}

// NewRunner creates a runner over registry.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{registry: registry, logger: infrastructure.WithComponent(slog.Default(), "analysis")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the runner selects from.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes the analyses named by ids, or all of them when ids is empty.
// Every analysis gets its own deep copy of the sources it reads. Results come
// back in the order the analyses were selected. The first failure cancels the
// remaining runs.
func (r *Runner) Run(ctx context.Context, sources map[string][]*domain.Atom, ids ...string) ([]*Result, error) {
	selected, err := r.registry.Select(ids...)
	if err != nil {
		return nil, err
	}
	for _, a := range selected {
		for _, in := range a.Inputs() {
			if _, ok := sources[in]; !ok {
				return nil, fmt.Errorf("analysis %s needs source %q", a.ID(), in)
			}
		}
	}

	results := make([]*Result, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, a := range selected {
		g.Go(func() error {
			res, err := r.runOne(ctx, a, sources)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, a Analysis, sources map[string][]*domain.Atom) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	seed := make(map[string]*filtering.Stream, len(a.Inputs()))
	atoms := 0
	for _, in := range a.Inputs() {
		copies := make([]*domain.Atom, len(sources[in]))
		for i, atom := range sources[in] {
			copies[i] = r.copySource(atom)
		}
		atoms += len(copies)
		seed[in] = filtering.NewClosedStream(copies...)
	}

	r.logAnalysisStart(ctx, a, atoms)
	start := time.Now()

	opts := append([]filtering.Option{filtering.WithLogger(r.logger)}, r.netOpts...)
	res, err := a.Execute(ctx, seed, opts...)
	elapsed := time.Since(start)
	if err != nil {
		r.logAnalysisError(ctx, a, err)
		r.metrics.RecordAnalysis(ctx, a.ID(), 0, 0, elapsed, err)
		return nil, err
	}

	res.Elapsed = elapsed
	r.logAnalysisComplete(ctx, res)
	r.metrics.RecordAnalysis(ctx, a.ID(), res.Flagged, res.Total, elapsed, nil)
	return res, nil
}

func (r *Runner) copySource(a *domain.Atom) *domain.Atom {
	c := a.Clone()
	if r.aliases == nil {
		return c
	}
	return domain.RenameKeys(domain.LowerKeys(c), r.aliases)
}
