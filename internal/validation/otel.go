package validation

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for defect metrics.
const MeterName = "tsflow.validation"

// DefectMetrics counts labeled defects by kind and label key.
type DefectMetrics struct {
	defects metric.Int64Counter
}

// NewDefectMetrics creates the defect counter on meter.
func NewDefectMetrics(meter metric.Meter) (*DefectMetrics, error) {
	defects, err := meter.Int64Counter(
		"validation_defects_total",
		metric.WithDescription("Total number of defect labels added to atoms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create defects counter: %w", err)
	}
	return &DefectMetrics{defects: defects}, nil
}

// Record counts one label.
func (m *DefectMetrics) Record(ctx context.Context, kind, label string) {
	if m == nil {
		return
	}
	m.defects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("label", label),
	))
}

var activeMetrics atomic.Pointer[DefectMetrics]

// UseMetrics makes Label count defects on m. Passing nil stops counting.
func UseMetrics(m *DefectMetrics) {
	activeMetrics.Store(m)
}

func recordDefect(err error, label string) {
	m := activeMetrics.Load()
	if m == nil {
		return
	}
	kind := "unknown"
	if k, ok := KindOf(err); ok {
		kind = k.String()
	}
	m.Record(context.Background(), kind, label)
}
