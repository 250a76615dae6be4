package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tsflow/pkg/contracts/domain"
)

// Label keys under which defect texts are stored on atoms.
const (
	LabelError   = "ERROR"
	LabelWarning = "WARNING"
	LabelUnknown = "UNKNOWN"
)

// Severity separates defects that make an atom unusable from inconclusive ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// LabelKey returns the label key for the severity.
func (s Severity) LabelKey() string {
	if s == SeverityWarning {
		return LabelWarning
	}
	return LabelError
}

// DefectKind is the closed set of data defects validators report.
type DefectKind int

const (
	KindNull DefectKind = iota
	KindRange
	KindValue
	KindContinuity
	KindContinuityWarning
	KindCluster
	KindDiscrepancy
	KindCoverage
	KindNeighbor
)

var kindNames = map[DefectKind]string{
	KindNull:              "NullError",
	KindRange:             "RangeError",
	KindValue:             "AtomValueError",
	KindContinuity:        "ContinuityError",
	KindContinuityWarning: "ContinuityWarning",
	KindCluster:           "ClusterWarning",
	KindDiscrepancy:       "DiscrepancyError",
	KindCoverage:          "CoverageError",
	KindNeighbor:          "NeighborWarning",
}

func (k DefectKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DefectKind(%d)", int(k))
}

// Severity returns the severity of the kind.
func (k DefectKind) Severity() Severity {
	switch k {
	case KindContinuityWarning, KindCluster, KindNeighbor:
		return SeverityWarning
	}
	return SeverityError
}

// Defect is a problem found in atom data. It never aborts a run.
type Defect struct {
	Kind    DefectKind
	Message string
	Details map[string]any
}

func (d *Defect) Error() string {
	return fmt.Sprintf("%s(%s)", d.Kind, d.Message)
}

func newDefect(kind DefectKind, details map[string]any, format string, args ...any) *Defect {
	return &Defect{Kind: kind, Message: fmt.Sprintf(format, args...), Details: details}
}

// NewNullError reports required fields that are absent or null.
func NewNullError(keys ...string) *Defect {
	return newDefect(KindNull, map[string]any{"keys": keys}, "missing %s", strings.Join(keys, ", "))
}

// NewRangeError reports a value outside its expected interval.
func NewRangeError(key string, value any, interval string) *Defect {
	return newDefect(KindRange, map[string]any{key: value}, "%s=%v outside %s", key, value, interval)
}

// NewValueError reports a value that is not allowed.
func NewValueError(key string, value any, allowed ...any) *Defect {
	if len(allowed) == 0 {
		return newDefect(KindValue, map[string]any{key: value}, "%s=%v not allowed", key, value)
	}
	return newDefect(KindValue, map[string]any{key: value, "allowed": allowed}, "%s=%v not in %v", key, value, allowed)
}

// NewContinuityError reports two successive values that break continuity.
func NewContinuityError(key string, prev, next any) *Defect {
	return newDefect(KindContinuity, map[string]any{key: []any{prev, next}}, "%s: %v -> %v", key, prev, next)
}

// NewContinuityWarning reports two successive values that may break continuity.
func NewContinuityWarning(key string, prev, next any) *Defect {
	return newDefect(KindContinuityWarning, map[string]any{key: []any{prev, next}}, "%s: %v -> %v", key, prev, next)
}

// NewClusterWarning reports a run of size equal values.
func NewClusterWarning(key string, value any, size int) *Defect {
	return newDefect(KindCluster, map[string]any{key: value, "size": size}, "%s=%v repeated %d times", key, value, size)
}

// NewDiscrepancyError reports two sources disagreeing beyond tolerance.
func NewDiscrepancyError(key string, first, second any, tolerance float64) *Defect {
	return newDefect(KindDiscrepancy, map[string]any{key: []any{first, second}, "tolerance": tolerance},
		"%s: %v vs %v beyond %g", key, first, second, tolerance)
}

// NewCoverageError reports expected values that never appeared, per key.
func NewCoverageError(missing map[string][]any) *Defect {
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	details := make(map[string]any, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, missing[k])
		details[k] = missing[k]
	}
	return newDefect(KindCoverage, details, "missing %s", strings.Join(parts, " "))
}

// NewUnexpectedValue reports a value not present in the covered sequence.
func NewUnexpectedValue(key string, value any) *Defect {
	return newDefect(KindCoverage, map[string]any{key: value}, "unexpected %s=%v", key, value)
}

// NewNeighborWarning reports an atom with no near point among the other sources.
func NewNeighborWarning(fields map[string]any) *Defect {
	return newDefect(KindNeighbor, fields, "no neighbor for %v", fields)
}

// KindOf returns the kind of the first defect in err's tree.
func KindOf(err error) (DefectKind, bool) {
	var d *Defect
	if errors.As(err, &d) {
		return d.Kind, true
	}
	return 0, false
}

// LabelKey returns the label key err is stored under.
func LabelKey(err error) string {
	if kind, ok := KindOf(err); ok {
		return kind.Severity().LabelKey()
	}
	return LabelUnknown
}

// Label appends err to the atom's labels. Joined errors are labeled one by one.
// Fields are never touched.
func Label(a *domain.Atom, err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Label(a, e)
		}
		return
	}
	key := LabelKey(err)
	a.AddLabel(key, err.Error())
	recordDefect(err, key)
}
