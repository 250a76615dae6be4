package analysis

import (
	"context"
	"fmt"
	"time"

	"tsflow/internal/config"
	"tsflow/internal/filtering"
	"tsflow/internal/filtering/filters"
	"tsflow/internal/validation"
	"tsflow/pkg/contracts/domain"
)

var primaryOnly = []string{SourcePrimary}

// NullAnalysis labels atoms where any of Keys is missing or nil.
type NullAnalysis struct {
	Keys []string
}

func (NullAnalysis) ID() string       { return "nulls" }
func (NullAnalysis) Name() string     { return "Null values" }
func (NullAnalysis) Inputs() []string { return primaryOnly }

func (n NullAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	v, err := validation.NewCheckValidator(SourcePrimary, OutputStream, validation.RequireNonNull(n.Keys...))
	if err != nil {
		return nil, err
	}
	return execute(ctx, n.ID(), chain(v), seed, opts)
}

// NegativesAnalysis labels atoms where any of Keys is zero or negative.
type NegativesAnalysis struct {
	Keys []string
}

func (NegativesAnalysis) ID() string       { return "negatives" }
func (NegativesAnalysis) Name() string     { return "Non-positive values" }
func (NegativesAnalysis) Inputs() []string { return primaryOnly }

func (n NegativesAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	v, err := validation.NewCheckValidator(SourcePrimary, OutputStream, validation.RequirePositive(n.Keys...))
	if err != nil {
		return nil, err
	}
	return execute(ctx, n.ID(), chain(v), seed, opts)
}

// ClusterAnalysis labels runs of more than Limit equal values, one cluster
// validator per key chained one after the other.
type ClusterAnalysis struct {
	Keys  []string
	Limit int
}

func (ClusterAnalysis) ID() string       { return "clusters" }
func (ClusterAnalysis) Name() string     { return "Repeated values" }
func (ClusterAnalysis) Inputs() []string { return primaryOnly }

func (c ClusterAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	if len(c.Keys) == 0 {
		return nil, filtering.NewInvalidOptionsError(c.ID(), fmt.Errorf("no keys"))
	}
	stages := make([]filtering.Filter, len(c.Keys))
	in := SourcePrimary
	for i, key := range c.Keys {
		out := fmt.Sprintf("cluster_%d", i)
		if i == len(c.Keys)-1 {
			out = OutputStream
		}
		v, err := validation.NewClusterValidator(in, out, validation.ClusterOptions{Key: key, Limit: c.Limit})
		if err != nil {
			return nil, err
		}
		stages[i] = v
		in = out
	}
	return execute(ctx, c.ID(), chain(stages...), seed, opts)
}

// ContinuityAnalysis requires strictly increasing timestamps and, with a
// positive MaxGap, warns about holes wider than MaxGap.
type ContinuityAnalysis struct {
	TimeKey string
	MaxGap  time.Duration
}

func (ContinuityAnalysis) ID() string       { return "continuity" }
func (ContinuityAnalysis) Name() string     { return "Timestamp continuity" }
func (ContinuityAnalysis) Inputs() []string { return primaryOnly }

func (c ContinuityAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	key := c.TimeKey
	if key == "" {
		key = domain.FieldDatetime
	}
	increasing := validation.StrictlyIncreasing(key)
	gap := validation.MaxGap(key, c.MaxGap)
	v, err := validation.NewContinuityValidator(SourcePrimary, OutputStream, func(prev, next *domain.Atom) error {
		if err := increasing(prev, next); err != nil || c.MaxGap <= 0 {
			return err
		}
		return gap(prev, next)
	})
	if err != nil {
		return nil, err
	}
	return execute(ctx, c.ID(), chain(v), seed, opts)
}

// DiscrepancyAnalysis aligns the primary and compare sources on datetime and
// labels field pairs that disagree by more than their tolerance. Only the
// primary side is reported.
type DiscrepancyAnalysis struct {
	Limits map[string]float64
}

func (DiscrepancyAnalysis) ID() string       { return "discrepancy" }
func (DiscrepancyAnalysis) Name() string     { return "Source discrepancy" }
func (DiscrepancyAnalysis) Inputs() []string { return []string{SourcePrimary, SourceCompare} }

func (d DiscrepancyAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	align, aligned, err := alignSources()
	if err != nil {
		return nil, err
	}
	v, err := validation.NewDiscrepancyValidator(aligned, []string{OutputStream, "output_compare"}, validation.DiscrepancyOptions{Limits: d.Limits})
	if err != nil {
		return nil, err
	}
	return execute(ctx, d.ID(), chain(align, v), seed, opts)
}

// NeighborAnalysis aligns both sources and warns about atoms with no near
// point among the atoms TimeRange rows around them.
type NeighborAnalysis struct {
	Limits    map[string]float64
	TimeRange int
}

func (NeighborAnalysis) ID() string       { return "neighbors" }
func (NeighborAnalysis) Name() string     { return "Nearest neighbor" }
func (NeighborAnalysis) Inputs() []string { return []string{SourcePrimary, SourceCompare} }

func (n NeighborAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	align, aligned, err := alignSources()
	if err != nil {
		return nil, err
	}
	v, err := validation.NewNeighborValidator(aligned, []string{OutputStream, "output_compare"},
		validation.NeighborOptions{Limits: n.Limits, TimeRange: n.TimeRange})
	if err != nil {
		return nil, err
	}
	return execute(ctx, n.ID(), chain(align, v), seed, opts)
}

func alignSources() (*filters.Align, []string, error) {
	aligned := []string{"aligned_primary", "aligned_compare"}
	align, err := filters.NewAlign([]string{SourcePrimary, SourceCompare}, aligned, filters.AlignOptions{})
	return align, aligned, err
}

// SummaryAnalysis describes every field and keeps running statistics for
// Keys. It labels nothing; the figures are in Result.State under "summary",
// "count", "avg", "min" and "max".
type SummaryAnalysis struct {
	Keys []string
}

func (SummaryAnalysis) ID() string       { return "summary" }
func (SummaryAnalysis) Name() string     { return "Field summary" }
func (SummaryAnalysis) Inputs() []string { return primaryOnly }

func (s SummaryAnalysis) Execute(ctx context.Context, seed map[string]*filtering.Stream, opts ...filtering.Option) (*Result, error) {
	summary, err := filters.NewSummary(SourcePrimary, "summarized", "summary")
	if err != nil {
		return nil, err
	}
	stats, err := filters.NewRunningStats("summarized", OutputStream,
		filters.Count("count", s.Keys...),
		filters.Avg("avg", s.Keys...),
		filters.Min("min", s.Keys...),
		filters.Max("max", s.Keys...),
	)
	if err != nil {
		return nil, err
	}
	return execute(ctx, s.ID(), chain(summary, stats), seed, opts)
}

// NewDefaultRegistry registers every built-in analysis configured from cfg.
func NewDefaultRegistry(cfg config.ValidationConfig) (*Registry, error) {
	discrepancy := make(map[string]float64, len(cfg.Keys))
	neighbor := make(map[string]float64, len(cfg.Keys))
	for _, k := range cfg.Keys {
		discrepancy[k] = cfg.DiscrepancyTolerance
		neighbor[k] = cfg.NeighborTolerance
	}

	reg := NewRegistry()
	for _, a := range []Analysis{
		NullAnalysis{Keys: cfg.Keys},
		NegativesAnalysis{Keys: cfg.Keys},
		ClusterAnalysis{Keys: cfg.Keys, Limit: cfg.ClusterLimit},
		ContinuityAnalysis{TimeKey: domain.FieldDatetime},
		DiscrepancyAnalysis{Limits: discrepancy},
		NeighborAnalysis{Limits: neighbor, TimeRange: cfg.NeighborTimeRange},
		SummaryAnalysis{Keys: cfg.Keys},
	} {
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
