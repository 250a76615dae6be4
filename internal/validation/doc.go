// Package validation provides filters that find defects in atom data and
// label the affected atoms without dropping or altering them.
//
// # Defects
//
// Defects form a closed taxonomy (DefectKind). Each kind has a severity that
// decides the label key: errors go under "ERROR", warnings under "WARNING".
// Any other error returned by a check is labeled under "UNKNOWN".
//
// # Validators
//
// Validator checks one atom at a time. BufferedValidator can hold atoms back
// to compare them with later ones. ParallelValidator and
// ParallelBufferValidator read one atom from every input at once, for
// comparing aligned sources.
//
// Concrete validators: ClusterValidator, ContinuityValidator,
// CoverageValidator, DiscrepancyValidator and NeighborValidator. Field checks
// for NewCheckValidator are built with RequireNonNull, RequirePositive,
// RequireRange, RequireOneOf and RequireDateBetween, combined with All.
package validation
