package analysis

import (
	"context"
	"log/slog"

	"tsflow/internal/infrastructure"
)

func (r *Runner) logAnalysisStart(ctx context.Context, a Analysis, atoms int) {
	r.logger.InfoContext(ctx, "analysis_start",
		slog.String("analysis_id", a.ID()),
		slog.String("name", a.Name()),
		slog.Any("inputs", a.Inputs()),
		slog.Int("atoms", atoms))
}

func (r *Runner) logAnalysisComplete(ctx context.Context, res *Result) {
	r.logger.InfoContext(ctx, "analysis_complete",
		slog.String("analysis_id", res.AnalysisID),
		slog.String("run_id", res.RunID),
		slog.Int("ticks", res.Ticks),
		slog.Int("flagged", res.Flagged),
		slog.Int("total", res.Total),
		slog.Duration("duration", res.Elapsed))
}

func (r *Runner) logAnalysisError(ctx context.Context, a Analysis, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	r.logger.ErrorContext(ctx, "analysis_error",
		slog.String("analysis_id", a.ID()),
		slog.String("error", errorMsg))
	infrastructure.RecordError(ctx, err)
}
