package filtering

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	TracerName = "tsflow.filtering"
)

// NetTracer provides OpenTelemetry instrumentation for net runs.
// A nil *NetTracer is valid and records nothing.
type NetTracer struct {
	tracer   trace.Tracer
	runs     metric.Int64Counter
	ticks    metric.Int64Counter
	emitted  metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewNetTracer creates a net tracer. A nil provider falls back to the global one.
func NewNetTracer(tp trace.TracerProvider, meter metric.Meter) (*NetTracer, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(TracerName)
	}

	runs, err := meter.Int64Counter(
		"net_runs_total",
		metric.WithDescription("Total number of net executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	ticks, err := meter.Int64Counter(
		"net_ticks_total",
		metric.WithDescription("Total number of scheduler ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticks counter: %w", err)
	}

	emitted, err := meter.Int64Counter(
		"net_atoms_emitted_total",
		metric.WithDescription("Total number of atoms left on terminal streams"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create emitted counter: %w", err)
	}

	errs, err := meter.Int64Counter(
		"net_errors_total",
		metric.WithDescription("Total number of failed net executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"net_execute_duration_seconds",
		metric.WithDescription("Net execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &NetTracer{
		tracer:   tp.Tracer(TracerName),
		runs:     runs,
		ticks:    ticks,
		emitted:  emitted,
		errors:   errs,
		duration: duration,
	}, nil
}

// TraceExecute creates a span for one net execution
func (nt *NetTracer) TraceExecute(ctx context.Context, runID string, layers int) (context.Context, trace.Span) {
	if nt == nil {
		return noop.NewTracerProvider().Tracer(TracerName).Start(ctx, "net.execute")
	}
	ctx, span := nt.tracer.Start(ctx, "net.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("net.run_id", runID),
			attribute.Int("net.layers", layers),
		),
	)
	nt.runs.Add(ctx, 1)
	return ctx, span
}

// RecordCompletion records a successful run on the span and metrics
func (nt *NetTracer) RecordCompletion(ctx context.Context, span trace.Span, ticks, emitted int, duration time.Duration) {
	if nt == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("net.ticks", ticks),
		attribute.Int("net.atoms_emitted", emitted),
		attribute.Float64("net.duration_seconds", duration.Seconds()),
	)
	span.SetStatus(codes.Ok, "")

	nt.ticks.Add(ctx, int64(ticks))
	nt.emitted.Add(ctx, int64(emitted))
	nt.duration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("status", "completed")),
	)
}

// RecordError records a failed run on the span and metrics
func (nt *NetTracer) RecordError(ctx context.Context, span trace.Span, err error) {
	if nt == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	nt.errors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("error_type", string(GetErrorType(err)))),
	)
}
