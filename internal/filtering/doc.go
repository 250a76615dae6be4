// Package filtering implements the record-flow engine: streams of atoms, the
// filter stepping contract, layers with scheduling policies, and the net that
// drives them.
//
// # Model
//
// A Filter reads from named input streams and writes to named output streams.
// Concrete filters embed *Base (or a synchronized Base from NewSyncBase) and
// implement OnData; optional hooks override what happens when inputs are empty
// or closed, the order inputs are scanned, and per-run setup.
//
// A Layer groups filters that are stepped together in one tick and carries a
// Policy deciding the next layer. A Net resolves every stream name once,
// sets every filter up against a fresh aggregate State, then ticks layers until
// every output stream of the last layer is closed.
//
// # Usage
//
//	net := filtering.NewNet([]*filtering.Layer{
//	    filtering.NewLayer(filtering.PolicyAdvance, sieve),
//	    filtering.NewLayer(filtering.PolicyRetreatIfIdle, stats),
//	})
//	res, err := net.Execute(ctx, map[string]*filtering.Stream{"in": src}, nil)
//	out := res.Atoms("out")
//
// Leaf filters live in the filters subpackage; validators in internal/validation.
package filtering
