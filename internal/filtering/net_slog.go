package filtering

import (
	"context"
	"log/slog"
	"time"
)

// logExecuteStart logs the start of a run
func (n *Net) logExecuteStart(ctx context.Context, runID string, seed map[string]*Stream) {
	n.logger.InfoContext(ctx, "net_execute_start",
		slog.String("run_id", runID),
		slog.Int("layers", len(n.layers)),
		slog.Int("seed_streams", len(seed)),
		slog.Int("max_ticks", n.maxTicks))
}

// logExecuteComplete logs the completion of a run
func (n *Net) logExecuteComplete(ctx context.Context, runID string, ticks, streams int, duration time.Duration) {
	n.logger.InfoContext(ctx, "net_execute_complete",
		slog.String("run_id", runID),
		slog.Int("ticks", ticks),
		slog.Int("streams", streams),
		slog.Duration("duration", duration))
}

// logSetupError logs a wiring failure
func (n *Net) logSetupError(ctx context.Context, runID string, err error) {
	n.logger.ErrorContext(ctx, "net_setup_error",
		slog.String("run_id", runID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", errorString(err)))
}

// logExecuteError logs a failure while ticking
func (n *Net) logExecuteError(ctx context.Context, runID string, ticks int, err error) {
	n.logger.ErrorContext(ctx, "net_execute_error",
		slog.String("run_id", runID),
		slog.Int("ticks", ticks),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", errorString(err)))
}

func errorString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
