package filtering

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tsflow/pkg/contracts/domain"
)

// Net owns an ordered list of layers and drives a layer cursor until every
// output stream of the last layer is closed.
//
// Execution is single-threaded and cooperative: one tick steps every filter of
// the current layer once. The context is checked once per tick; a cancelled
// run stops with the context's error.
type Net struct {
	layers   []*Layer
	logger   *slog.Logger
	tracer   *NetTracer
	maxTicks int
	runID    string
}

// Option configures a Net.
type Option func(*Net)

// WithLogger sets the logger used for run events.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Net) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithTracer attaches span and metric instrumentation.
func WithTracer(t *NetTracer) Option {
	return func(n *Net) { n.tracer = t }
}

// WithMaxTicks stops a run with ErrTickBudget after n ticks. Zero means unbounded.
func WithMaxTicks(ticks int) Option {
	return func(n *Net) { n.maxTicks = ticks }
}

// WithRunID fixes the run identifier instead of generating one per run.
func WithRunID(id string) Option {
	return func(n *Net) { n.runID = id }
}

// NewNet creates a net over layers.
func NewNet(layers []*Layer, opts ...Option) *Net {
	n := &Net{
		layers: append([]*Layer(nil), layers...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddLayer appends a layer.
func (n *Net) AddLayer(l *Layer) *Net {
	n.layers = append(n.layers, l)
	return n
}

// Layers returns the layers in execution order.
func (n *Net) Layers() []*Layer {
	return append([]*Layer(nil), n.layers...)
}

// Result is what a run leaves behind: every stream referenced by the graph and
// the aggregate state.
type Result struct {
	RunID    string
	Ticks    int
	Duration time.Duration
	Queues   *QueueRegistry
	State    *State
}

// Stream returns a named stream of the run.
func (r *Result) Stream(name string) (*Stream, error) {
	return r.Queues.Get(name)
}

// Atoms returns the pending atoms of a named stream without consuming them.
func (r *Result) Atoms(name string) []*domain.Atom {
	return r.Queues.Atoms(name)
}

// Execute wires every filter against the seed streams and runs the net to
// completion. onTick, if set, is called once per tick in which the last layer
// produced output.
func (n *Net) Execute(ctx context.Context, seed map[string]*Stream, onTick func()) (*Result, error) {
	runID := n.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	if len(n.layers) == 0 {
		return nil, &EngineError{Type: ErrorTypeWiring, Message: "cannot execute", Cause: ErrNoLayers}
	}

	start := time.Now()
	ctx, span := n.tracer.TraceExecute(ctx, runID, len(n.layers))
	defer span.End()
	n.logExecuteStart(ctx, runID, seed)

	registry, err := NewQueueRegistry(seed)
	if err != nil {
		werr := NewWiringError("", "invalid seed", err)
		n.logSetupError(ctx, runID, werr)
		n.tracer.RecordError(ctx, span, werr)
		return nil, werr
	}

	state := NewState()
	if err := n.wire(registry, state); err != nil {
		n.logSetupError(ctx, runID, err)
		n.tracer.RecordError(ctx, span, err)
		return nil, err
	}

	ticks, err := n.run(ctx, registry, onTick)
	duration := time.Since(start)
	if err != nil {
		n.logExecuteError(ctx, runID, ticks, err)
		n.tracer.RecordError(ctx, span, err)
		return nil, err
	}

	emitted := 0
	for _, name := range n.layers[len(n.layers)-1].OutputNames() {
		if s, err := registry.Get(name); err == nil {
			emitted += s.Len()
		}
	}
	n.tracer.RecordCompletion(ctx, span, ticks, emitted, duration)
	n.logExecuteComplete(ctx, runID, ticks, registry.Count(), duration)

	return &Result{
		RunID:    runID,
		Ticks:    ticks,
		Duration: duration,
		Queues:   registry,
		State:    state,
	}, nil
}

// wire resolves every stream name once and calls Setup on every filter.
func (n *Net) wire(registry *QueueRegistry, state *State) error {
	for li, layer := range n.layers {
		if layer == nil {
			return NewWiringError("", "nil layer", nil)
		}
		if !layer.policy.Valid() {
			return NewWiringError("", "invalid policy "+layer.policy.String(), nil)
		}
		for _, f := range layer.filters {
			inputs := registry.ResolveAll(f.Inputs())
			outputs := registry.ResolveAll(f.Outputs())
			if err := f.Setup(inputs, outputs, state); err != nil {
				return NewWiringError(f.Name(), fmt.Sprintf("setup failed in layer %d", li), err)
			}
		}
	}
	return nil
}

func (n *Net) run(ctx context.Context, registry *QueueRegistry, onTick func()) (int, error) {
	last := len(n.layers) - 1
	terminal := registry.ResolveAll(n.layers[last].OutputNames())

	cursor, ticks := 0, 0
	for {
		if n.maxTicks > 0 && ticks >= n.maxTicks {
			return ticks, NewTickBudgetError(ticks)
		}
		if err := ctx.Err(); err != nil {
			return ticks, err
		}
		layer := n.layers[cursor]
		if err := layer.tick(cursor); err != nil {
			return ticks, err
		}
		ticks++

		if cursor == last {
			if onTick != nil && layer.HasOutput() {
				onTick()
			}
			if allClosed(terminal) {
				return ticks, nil
			}
		}

		cursor += layer.policy.Jump(layer)
		if cursor < 0 || cursor > last {
			cursor = 0
		}
	}
}

func allClosed(streams []*Stream) bool {
	for _, s := range streams {
		if !s.IsClosed() {
			return false
		}
	}
	return true
}
