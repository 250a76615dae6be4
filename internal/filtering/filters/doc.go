// Package filters provides the leaf filters composed into a filtering.Net.
//
// Every filter embeds *filtering.Base and implements the hooks it needs.
// Option structs are checked with struct tags at construction, so a bad
// composition fails before any atom is processed.
//
// Stateless filters: Map, Sieve, FanOut, SequentialMerge, RangeRouter and
// CaseRouter. Time series filters: Align, TimeBucket, Interpolate and
// LaggedPair. Observe-and-pass filters that write aggregate state:
// RunningStats, Summary and ThresholdCount.
package filters
