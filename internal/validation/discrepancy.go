package validation

import (
	"math"
	"sort"

	"tsflow/pkg/contracts/domain"
)

// DiscrepancyOptions configures a discrepancy validator.
type DiscrepancyOptions struct {
	// Limits maps field names to relative tolerances.
	Limits map[string]float64 `validate:"required,min=1,dive,gte=0"`
}

// DiscrepancyValidator compares N aligned sources atom for atom. For every
// pair of atoms and every limited field, a second value outside
// first*(1-tolerance) .. first*(1+tolerance) labels both atoms with a
// DiscrepancyError.
type DiscrepancyValidator struct {
	*ParallelValidator
	keys   []string
	limits map[string]float64
}

// NewDiscrepancyValidator creates a discrepancy validator.
func NewDiscrepancyValidator(ins, outs []string, opts DiscrepancyOptions) (*DiscrepancyValidator, error) {
	if err := checkOptions("discrepancy", opts); err != nil {
		return nil, err
	}
	d := &DiscrepancyValidator{limits: make(map[string]float64, len(opts.Limits))}
	for k, l := range opts.Limits {
		d.keys = append(d.keys, k)
		d.limits[k] = l
	}
	sort.Strings(d.keys)
	v, err := NewParallelValidator("discrepancy", ins, outs, d.checkBatch)
	if err != nil {
		return nil, err
	}
	d.ParallelValidator = v
	return d, nil
}

func (d *DiscrepancyValidator) checkBatch(atoms []*domain.Atom, _ []int) ([]Finding, error) {
	var findings []Finding
	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			for _, key := range d.keys {
				first, ok1 := atoms[i].Float(key)
				second, ok2 := atoms[j].Float(key)
				if !ok1 || !ok2 {
					continue
				}
				if Within(first, second, d.limits[key]) {
					continue
				}
				defect := NewDiscrepancyError(key, first, second, d.limits[key])
				findings = append(findings, Finding{Pos: i, Err: defect}, Finding{Pos: j, Err: defect})
			}
		}
	}
	return findings, nil
}

// Within reports whether second lies between first*(1-tolerance) and
// first*(1+tolerance), in either order for negative values.
func Within(first, second, tolerance float64) bool {
	lo, hi := first*(1-tolerance), first*(1+tolerance)
	return second >= math.Min(lo, hi) && second <= math.Max(lo, hi)
}
