// Package analysis runs named validation analyses over loaded time series.
//
// An Analysis builds a fresh filtering.Net for every execution, seeded with
// the sources it names in Inputs. The Registry keeps analyses in registration
// order and the Runner executes a selection of them concurrently, each on its
// own deep copy of the sources, so labels written by one analysis never show
// up in another.
//
//	reg, _ := analysis.NewDefaultRegistry(cfg.Validation)
//	runner := analysis.NewRunner(reg, analysis.WithLogger(logger))
//	results, err := runner.Run(ctx, map[string][]*domain.Atom{
//	    analysis.SourcePrimary: atoms,
//	}, "nulls", "clusters")
package analysis
