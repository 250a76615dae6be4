package filtering

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"tsflow/internal/shared/testutil"
	"tsflow/pkg/contracts/domain"
)

// counterFilter registers a state key and counts atoms into it.
type counterFilter struct {
	*Base
	key string
}

func newCounter(t *testing.T, in, out, key string) *counterFilter {
	t.Helper()
	f := &counterFilter{key: key}
	base, err := NewBase("counter", []string{in}, []string{out}, Exactly(1), Exactly(1), f)
	require.NoError(t, err)
	f.Base = base
	return f
}

func (f *counterFilter) OnSetup(state *State) error {
	return state.Register(f.key, 0)
}

func (f *counterFilter) OnData(a *domain.Atom, _ int) error {
	n, _ := StateValue[int](f.State(), f.key)
	if err := f.State().Set(f.key, n+1); err != nil {
		return err
	}
	return f.Push(a, 0)
}

func seedOf(n int) map[string]*Stream {
	atoms := make([]*domain.Atom, n)
	for i := range atoms {
		atoms[i] = domain.NewAtom("n", i)
	}
	return map[string]*Stream{"in": NewClosedStream(atoms...)}
}

func TestNetExecuteSingleLayer(t *testing.T) {
	net := NewNet([]*Layer{NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"out"}))})

	calls := 0
	res, err := net.Execute(context.Background(), seedOf(3), func() { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 3, calls, "one call per productive terminal tick")
	assert.Equal(t, 4, res.Ticks)
	assert.Len(t, res.Atoms("out"), 3)

	out, err := res.Stream("out")
	require.NoError(t, err)
	assert.True(t, out.IsClosed())
	assert.NotEmpty(t, res.RunID)
}

func TestNetExecuteTerminatesForEveryPolicy(t *testing.T) {
	policies := []Policy{PolicyAdvance, PolicyRepeatUntilDrained, PolicyRepeatUntilOutput, PolicyRetreatIfIdle, PolicyRetreatIfOutput}

	for _, first := range policies {
		for _, second := range policies {
			// Draining a layer only terminates when its upstream was drained first.
			if second == PolicyRepeatUntilDrained && first != PolicyRepeatUntilDrained {
				continue
			}
			t.Run(first.String()+"/"+second.String(), func(t *testing.T) {
				net := NewNet([]*Layer{
					NewLayer(first, newPass(t, []string{"in"}, []string{"mid"})),
					NewLayer(second, newCounter(t, "mid", "out", "count")),
				}, WithMaxTicks(1000))

				res, err := net.Execute(context.Background(), seedOf(5), nil)
				require.NoError(t, err)
				assert.Len(t, res.Atoms("out"), 5)

				count, ok := StateValue[int](res.State, "count")
				require.True(t, ok)
				assert.Equal(t, 5, count)
			})
		}
	}
}

func TestNetExecuteAutoCreatesStreams(t *testing.T) {
	net := NewNet([]*Layer{
		NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"a"})),
		NewLayer(PolicyRetreatIfIdle, newPass(t, []string{"a"}, []string{"b"})),
	})

	res, err := net.Execute(context.Background(), seedOf(2), nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"in", "a", "b"}, res.Queues.Names())
	assert.False(t, res.Queues.AutoCreated("in"))
	assert.True(t, res.Queues.AutoCreated("a"))
	assert.Empty(t, res.Atoms("a"), "intermediate streams are consumed")
	assert.Len(t, res.Atoms("b"), 2)
}

func TestNetExecuteRejectsDuplicateStateBeforeProcessing(t *testing.T) {
	net := NewNet([]*Layer{
		NewLayer(PolicyAdvance, newCounter(t, "in", "mid", "count")),
		NewLayer(PolicyRetreatIfIdle, newCounter(t, "mid", "out", "count")),
	})

	seed := seedOf(3)
	_, err := net.Execute(context.Background(), seed, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateState)
	assert.Equal(t, 3, seed["in"].Len(), "no atom was consumed")
}

func TestNetExecuteErrors(t *testing.T) {
	t.Run("no layers", func(t *testing.T) {
		_, err := NewNet(nil).Execute(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrNoLayers)
	})

	t.Run("tick budget on a never closing seed", func(t *testing.T) {
		net := NewNet([]*Layer{NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"out"}))}, WithMaxTicks(10))
		_, err := net.Execute(context.Background(), map[string]*Stream{"in": NewStream()}, nil)
		assert.ErrorIs(t, err, ErrTickBudget)
		assert.Equal(t, ErrorTypeBudget, GetErrorType(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		net := NewNet([]*Layer{NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"out"}))})
		_, err := net.Execute(ctx, seedOf(1), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid policy", func(t *testing.T) {
		net := NewNet([]*Layer{NewLayer(Policy(99), newPass(t, []string{"in"}, []string{"out"}))})
		_, err := net.Execute(context.Background(), seedOf(1), nil)
		assert.Equal(t, ErrorTypeWiring, GetErrorType(err))
	})
}

func TestNetExecuteLogsRunEvents(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	net := NewNet([]*Layer{NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"out"}))},
		WithLogger(logger), WithRunID("run-1"))

	_, err := net.Execute(context.Background(), seedOf(1), nil)
	require.NoError(t, err)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "net_execute_start")
	complete := logs.FindRecords("net_execute_complete")
	require.Len(t, complete, 1)
	assert.Equal(t, "run-1", complete[0].Attrs["run_id"])
	assert.Equal(t, int64(2), complete[0].Attrs["ticks"])
	testutil.AssertNoErrors(t, logs)

	logs.Clear()
	dup := NewNet([]*Layer{
		NewLayer(PolicyAdvance, newCounter(t, "in", "mid", "k")),
		NewLayer(PolicyAdvance, newCounter(t, "mid", "out", "k")),
	}, WithLogger(logger))
	_, err = dup.Execute(context.Background(), seedOf(1), nil)
	require.Error(t, err)
	testutil.AssertLogContains(t, logs, slog.LevelError, "net_setup_error")
}

func TestNetTracerRecordsSpanAndMetrics(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tracer, err := NewNetTracer(tp, mp.Meter("test"))
	require.NoError(t, err)

	net := NewNet([]*Layer{NewLayer(PolicyAdvance, newPass(t, []string{"in"}, []string{"out"}))}, WithTracer(tracer))
	res, err := net.Execute(ctx, seedOf(2), nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "net.execute", spans[0].Name())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(res.Ticks), sumCounter(t, rm, "net_ticks_total"))
	assert.Equal(t, int64(2), sumCounter(t, rm, "net_atoms_emitted_total"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "net_runs_total"))
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
