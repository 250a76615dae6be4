package testutil

import (
	"time"

	"tsflow/pkg/contracts/domain"
)

// Epoch is a fixed, minute-aligned start time for fixtures.
var Epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// Values builds one atom per value, each holding value under key.
func Values(key string, values ...any) []*domain.Atom {
	atoms := make([]*domain.Atom, len(values))
	for i, v := range values {
		atoms[i] = domain.NewAtom(key, v)
	}
	return atoms
}

// CloseSeries builds atoms with a datetime and a close field, step apart from start.
func CloseSeries(start time.Time, step time.Duration, closes ...float64) []*domain.Atom {
	atoms := make([]*domain.Atom, len(closes))
	for i, c := range closes {
		atoms[i] = domain.NewAtom(
			domain.FieldDatetime, domain.FormatTime(start.Add(time.Duration(i)*step)),
			domain.FieldClose, c,
		)
	}
	return atoms
}

// Bar is one OHLCV row for fixtures.
type Bar struct {
	At     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Bars builds OHLCV atoms.
func Bars(bars ...Bar) []*domain.Atom {
	atoms := make([]*domain.Atom, len(bars))
	for i, b := range bars {
		atoms[i] = domain.NewAtom(
			domain.FieldDatetime, domain.FormatTime(b.At),
			domain.FieldOpen, b.Open,
			domain.FieldHigh, b.High,
			domain.FieldLow, b.Low,
			domain.FieldClose, b.Close,
			domain.FieldVolume, b.Volume,
		)
	}
	return atoms
}

// Floats extracts key from every atom. Missing or non-numeric fields yield zero.
func Floats(atoms []*domain.Atom, key string) []float64 {
	out := make([]float64, len(atoms))
	for i, a := range atoms {
		out[i], _ = a.Float(key)
	}
	return out
}

// Labeled returns the atoms carrying any label.
func Labeled(atoms []*domain.Atom) []*domain.Atom {
	var out []*domain.Atom
	for _, a := range atoms {
		if a.HasLabels() {
			out = append(out, a)
		}
	}
	return out
}
