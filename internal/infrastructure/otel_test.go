package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	var spans bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceWriter = &spans

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.PrometheusHTTP)

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	span.End()
	assert.Contains(t, spans.String(), "test-operation")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OTelConfig)
		wantErr bool
		check   func(*testing.T, *OTelProviders)
	}{
		{
			name: "everything disabled uses no-op providers",
			mutate: func(c *OTelConfig) {
				c.EnableMetrics = false
				c.EnableTracing = false
			},
			check: func(t *testing.T, p *OTelProviders) {
				assert.Nil(t, p.PrometheusHTTP)
				_, span := p.Tracer.Start(context.Background(), "noop")
				assert.False(t, span.IsRecording())
			},
		},
		{
			name: "tracing with exporter none",
			mutate: func(c *OTelConfig) {
				c.EnableTracing = true
				c.TraceExporter = "none"
			},
			check: func(t *testing.T, p *OTelProviders) {
				_, span := p.Tracer.Start(context.Background(), "noop")
				assert.False(t, span.IsRecording())
			},
		},
		{
			name: "unknown trace exporter",
			mutate: func(c *OTelConfig) {
				c.EnableTracing = true
				c.TraceExporter = "jaeger"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultOTelConfig()
			tt.mutate(cfg)
			p, err := InitializeOTel(cfg, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer p.Shutdown(context.Background())
			tt.check(t, p)
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NoError(t, RegisterRuntimeMetrics(providers.Meter))
	metrics, err := CreateAnalysisMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordAnalysis(context.Background(), "nulls", 2, 10, time.Second, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "analysis_runs_total")
	assert.Contains(t, body, "system_goroutines")
}

func TestAnalysisMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := CreateAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	metrics.RecordAnalysis(ctx, "nulls", 3, 10, time.Second, nil)
	metrics.RecordAnalysis(ctx, "nulls", 0, 0, time.Second, errors.New("boom"))

	var nilMetrics *AnalysisMetrics
	nilMetrics.RecordAnalysis(ctx, "nulls", 1, 1, time.Second, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["analysis_runs_total"])
	assert.Equal(t, int64(1), sums["analysis_errors_total"])
	assert.Equal(t, int64(3), sums["analysis_flagged_atoms_total"])
	assert.Equal(t, int64(10), sums["analysis_atoms_total"])
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, span := tp.Tracer("test").Start(context.Background(), "failing")
	RecordError(ctx, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)

	RecordError(context.Background(), errors.New("no span"))
}
