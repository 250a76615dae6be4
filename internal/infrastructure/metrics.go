package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnalysisMetrics holds the counters recorded around each analysis run.
type AnalysisMetrics struct {
	runsTotal    metric.Int64Counter
	errorsTotal  metric.Int64Counter
	flaggedTotal metric.Int64Counter
	atomsTotal   metric.Int64Counter
	duration     metric.Float64Histogram
}

// CreateAnalysisMetrics creates the analysis instruments on meter.
func CreateAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"analysis_runs_total",
		metric.WithDescription("Total number of analysis runs"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"analysis_errors_total",
		metric.WithDescription("Total number of failed analysis runs"),
	)
	if err != nil {
		return nil, err
	}

	flaggedTotal, err := meter.Int64Counter(
		"analysis_flagged_atoms_total",
		metric.WithDescription("Atoms carrying at least one label after an analysis"),
	)
	if err != nil {
		return nil, err
	}

	atomsTotal, err := meter.Int64Counter(
		"analysis_atoms_total",
		metric.WithDescription("Atoms written by analyses"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"analysis_duration_seconds",
		metric.WithDescription("Analysis execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		runsTotal:    runsTotal,
		errorsTotal:  errorsTotal,
		flaggedTotal: flaggedTotal,
		atomsTotal:   atomsTotal,
		duration:     duration,
	}, nil
}

// RecordAnalysis records one finished analysis. A nil receiver is a no-op.
func (m *AnalysisMetrics) RecordAnalysis(ctx context.Context, analysisID string, flagged, total int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("analysis.id", analysisID))

	m.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis.id", analysisID),
		attribute.String("status", status)))
	m.duration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		m.errorsTotal.Add(ctx, 1, attrs)
		return
	}
	m.flaggedTotal.Add(ctx, int64(flagged), attrs)
	m.atomsTotal.Add(ctx, int64(total), attrs)
}

// RegisterRuntimeMetrics exposes goroutine and heap gauges observed at
// collection time.
func RegisterRuntimeMetrics(meter metric.Meter) error {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	heap, err := meter.Int64ObservableGauge(
		"system_memory_usage_bytes",
		metric.WithDescription("Heap bytes allocated and still in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(mem.Alloc))
		return nil
	}, goroutines, heap)
	return err
}
