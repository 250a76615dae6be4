// Package shared holds helpers used across tsflow packages.
//
// The testutil subpackage provides a slog handler that captures records for
// assertions, and fixture builders for atom series.
//
//	logger, logs := testutil.NewTestLogger(t)
//	atoms := testutil.CloseSeries(start, time.Minute, 1.0, 1.1, 1.2)
package shared
