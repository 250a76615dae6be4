package exporter

import (
	"strings"

	"tsflow/internal/validation"
	"tsflow/pkg/contracts/domain"
)

// LabelColumns are appended after the field columns, in this order.
var LabelColumns = []string{validation.LabelError, validation.LabelWarning, validation.LabelUnknown}

// labelSeparator joins several labels stored under one key.
const labelSeparator = "; "

// Table is a rectangular rendering of an atom queue.
type Table struct {
	Headers []string
	// Values holds the raw field values, nil for missing fields.
	Values [][]any
	// Labels holds one joined cell per LabelColumns entry.
	Labels [][]string
}

// NewTable lays atoms out as rows. Field columns are the union of all keys
// in first-seen order.
func NewTable(atoms []*domain.Atom) *Table {
	var fields []string
	seen := make(map[string]bool)
	for _, a := range atoms {
		for _, k := range a.Keys() {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}

	t := &Table{
		Headers: append(append([]string{}, fields...), LabelColumns...),
		Values:  make([][]any, len(atoms)),
		Labels:  make([][]string, len(atoms)),
	}
	for i, a := range atoms {
		row := make([]any, len(fields))
		for j, k := range fields {
			row[j], _ = a.Get(k)
		}
		t.Values[i] = row

		labels := make([]string, len(LabelColumns))
		for j, key := range LabelColumns {
			labels[j] = strings.Join(a.Labels(key), labelSeparator)
		}
		t.Labels[i] = labels
	}
	return t
}

// Records returns every row as formatted cells.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Values))
	for i, row := range t.Values {
		rec := make([]string, 0, len(row)+len(LabelColumns))
		for _, v := range row {
			rec = append(rec, FormatValue(v))
		}
		out[i] = append(rec, t.Labels[i]...)
	}
	return out
}
