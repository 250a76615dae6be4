// Package spatial provides a grid-bucketed multidimensional set used for
// neighbor lookups between time series.
package spatial

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

var (
	ErrNotFound   = errors.New("value not found")
	ErrDimensions = errors.New("coordinate dimension mismatch")
	ErrNotFinite  = errors.New("coordinate is not finite")
)

const (
	cellsPerAxis = 10
	minExtent    = 10.0
	// MaxDims keeps flattened bucket keys within int64.
	MaxDims = 18
)

type entry[T comparable] struct {
	value  T
	coords []float64
}

// Table stores values on a regular grid of ten cells per axis. The grid grows
// to cover every inserted point; growing rebuilds every bucket.
//
// A Table is not safe for concurrent use.
type Table[T comparable] struct {
	coords  func(T) []float64
	dims    int
	lo, hi  []float64
	cell    []float64
	buckets map[int64][]entry[T]
	size    int
}

// New creates an empty table. coords maps a value to its point; every value
// must map to the same number of dimensions.
func New[T comparable](coords func(T) []float64) *Table[T] {
	return &Table[T]{coords: coords, buckets: make(map[int64][]entry[T])}
}

func (t *Table[T]) point(v T) ([]float64, error) {
	c := t.coords(v)
	if len(c) == 0 || len(c) > MaxDims {
		return nil, fmt.Errorf("%w: %d dimensions", ErrDimensions, len(c))
	}
	if t.dims != 0 && len(c) != t.dims {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDimensions, t.dims, len(c))
	}
	for i, x := range c {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: axis %d is %v", ErrNotFinite, i, x)
		}
	}
	return append([]float64(nil), c...), nil
}

func (t *Table[T]) init(c []float64) {
	t.dims = len(c)
	t.lo = make([]float64, t.dims)
	t.hi = make([]float64, t.dims)
	t.cell = make([]float64, t.dims)
	for i, x := range c {
		t.lo[i] = math.Min(0, 2*x)
		t.hi[i] = math.Max(0, 2*x)
		if t.hi[i]-t.lo[i] < minExtent {
			t.hi[i] = t.lo[i] + minExtent
		}
	}
	t.resize()
}

func (t *Table[T]) resize() {
	for i := range t.cell {
		t.cell[i] = (t.hi[i] - t.lo[i]) / cellsPerAxis
	}
}

// index returns the cell of x on axis i, or false when x is outside the grid.
func (t *Table[T]) index(i int, x float64) (int, bool) {
	if x < t.lo[i] || x >= t.hi[i] {
		return 0, false
	}
	idx := int(math.Floor((x - t.lo[i]) / t.cell[i]))
	return min(max(idx, 0), cellsPerAxis-1), true
}

func (t *Table[T]) key(c []float64) (int64, bool) {
	var key, scale int64 = 0, 1
	for i, x := range c {
		idx, ok := t.index(i, x)
		if !ok {
			return 0, false
		}
		key += int64(idx) * scale
		scale *= cellsPerAxis
	}
	return key, true
}

// grow extends every axis c lies outside of, then reinserts all entries.
func (t *Table[T]) grow(c []float64) {
	for i, x := range c {
		for x >= t.hi[i] {
			t.hi[i] = t.lo[i] + 2*(x-t.lo[i])
			if t.hi[i] <= x {
				t.hi[i] = math.Nextafter(x, math.Inf(1))
			}
		}
		for x < t.lo[i] {
			t.lo[i] = t.hi[i] - 2*(t.hi[i]-x)
		}
	}
	t.resize()
	old := t.buckets
	t.buckets = make(map[int64][]entry[T], len(old))
	for _, bucket := range old {
		for _, e := range bucket {
			key, _ := t.key(e.coords)
			t.buckets[key] = append(t.buckets[key], e)
		}
	}
}

// Add stores v.
func (t *Table[T]) Add(v T) error {
	c, err := t.point(v)
	if err != nil {
		return err
	}
	if t.dims == 0 {
		t.init(c)
	}
	key, ok := t.key(c)
	if !ok {
		t.grow(c)
		key, _ = t.key(c)
	}
	t.buckets[key] = append(t.buckets[key], entry[T]{value: v, coords: c})
	t.size++
	return nil
}

// Remove deletes one stored occurrence of v.
func (t *Table[T]) Remove(v T) error {
	if t.dims == 0 {
		return ErrNotFound
	}
	c, err := t.point(v)
	if err != nil {
		return err
	}
	key, ok := t.key(c)
	if !ok {
		return ErrNotFound
	}
	bucket := t.buckets[key]
	for i, e := range bucket {
		if e.value == v {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(t.buckets, key)
			} else {
				t.buckets[key] = bucket
			}
			t.size--
			return nil
		}
	}
	return ErrNotFound
}

// Contains reports whether v is stored.
func (t *Table[T]) Contains(v T) bool {
	if t.dims == 0 {
		return false
	}
	c, err := t.point(v)
	if err != nil {
		return false
	}
	key, ok := t.key(c)
	if !ok {
		return false
	}
	for _, e := range t.buckets[key] {
		if e.value == v {
			return true
		}
	}
	return false
}

// Near reports whether some stored point lies in the box spanning
// (1-tol)*c to (1+tol)*c on every axis, where c is the point of v.
// Only buckets intersecting the box are visited.
func (t *Table[T]) Near(v T, tol float64) bool {
	if t.size == 0 {
		return false
	}
	c, err := t.point(v)
	if err != nil {
		return false
	}
	boxLo := make([]float64, t.dims)
	boxHi := make([]float64, t.dims)
	first := make([]int, t.dims)
	last := make([]int, t.dims)
	for i, x := range c {
		boxLo[i] = math.Min((1-tol)*x, (1+tol)*x)
		boxHi[i] = math.Max((1-tol)*x, (1+tol)*x)
		if boxHi[i] < t.lo[i] || boxLo[i] >= t.hi[i] {
			return false
		}
		first[i] = t.clampIndex(i, boxLo[i])
		last[i] = t.clampIndex(i, boxHi[i])
	}

	cell := append([]int(nil), first...)
	for {
		var key, scale int64 = 0, 1
		for _, idx := range cell {
			key += int64(idx) * scale
			scale *= cellsPerAxis
		}
		for _, e := range t.buckets[key] {
			if inBox(e.coords, boxLo, boxHi) {
				return true
			}
		}
		// Odometer over the cell ranges.
		i := 0
		for ; i < t.dims; i++ {
			if cell[i] < last[i] {
				cell[i]++
				break
			}
			cell[i] = first[i]
		}
		if i == t.dims {
			return false
		}
	}
}

func (t *Table[T]) clampIndex(i int, x float64) int {
	idx := int(math.Floor((x - t.lo[i]) / t.cell[i]))
	return min(max(idx, 0), cellsPerAxis-1)
}

func inBox(c, lo, hi []float64) bool {
	for i, x := range c {
		if x < lo[i] || x > hi[i] {
			return false
		}
	}
	return true
}

// Size returns the number of stored values.
func (t *Table[T]) Size() int { return t.size }

// Dims returns the number of dimensions, zero before the first Add.
func (t *Table[T]) Dims() int { return t.dims }

// Bounds returns the lower and upper grid extent per axis.
func (t *Table[T]) Bounds() (lo, hi []float64) {
	return append([]float64(nil), t.lo...), append([]float64(nil), t.hi...)
}

// All yields every stored value in unspecified order.
func (t *Table[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, bucket := range t.buckets {
			for _, e := range bucket {
				if !yield(e.value) {
					return
				}
			}
		}
	}
}

// Values returns every stored value in unspecified order.
func (t *Table[T]) Values() []T {
	out := make([]T, 0, t.size)
	for v := range t.All() {
		out = append(out, v)
	}
	return out
}

// Scatter returns the stored points as one coordinate list per axis.
func (t *Table[T]) Scatter() [][]float64 {
	out := make([][]float64, t.dims)
	for i := range out {
		out[i] = make([]float64, 0, t.size)
	}
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			for i, x := range e.coords {
				out[i] = append(out[i], x)
			}
		}
	}
	return out
}
