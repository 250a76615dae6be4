package exporter

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/arloliu/mebo"
	"github.com/cespare/xxhash/v2"

	"tsflow/pkg/contracts/domain"
)

// ErrEmptyArchive is returned when no atom carries a numeric field.
var ErrEmptyArchive = errors.New("no numeric fields to archive")

// metricID names a field inside an archive. Names themselves are not stored,
// so readers must know the fields they look for.
func metricID(field string) uint64 {
	return xxhash.Sum64String(field)
}

type series struct {
	timestamps []int64
	values     []float64
}

// EncodeArchive packs the numeric fields of atoms into a mebo numeric blob.
// Each field becomes one metric keyed by the xxHash64 of its name, with
// timestamps taken from timeKey in microseconds. Nil and non-numeric values are left out.
func EncodeArchive(atoms []*domain.Atom, timeKey string) ([]byte, error) {
	if timeKey == "" {
		timeKey = domain.FieldDatetime
	}

	var fields []string
	byField := make(map[string]*series)
	start := int64(math.MaxInt64)
	for i, a := range atoms {
		t, err := a.Time(timeKey)
		if err != nil {
			return nil, fmt.Errorf("atom %d: %w", i, err)
		}
		ts := t.UnixMicro()
		for _, k := range a.Keys() {
			if k == timeKey {
				continue
			}
			v, ok := a.Float(k)
			if !ok {
				continue
			}
			s, ok := byField[k]
			if !ok {
				s = &series{}
				byField[k] = s
				fields = append(fields, k)
			}
			s.timestamps = append(s.timestamps, ts)
			s.values = append(s.values, v)
			start = min(start, ts)
		}
	}
	if len(fields) == 0 {
		return nil, ErrEmptyArchive
	}

	enc, err := mebo.NewDefaultNumericEncoder(time.UnixMicro(start))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	for _, field := range fields {
		s := byField[field]
		if len(s.values) > math.MaxUint16 {
			return nil, fmt.Errorf("field %s has %d points, archive limit is %d", field, len(s.values), math.MaxUint16)
		}
		if err := enc.StartMetricID(metricID(field), len(s.values)); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if err := enc.AddDataPoints(s.timestamps, s.values, nil); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if err := enc.EndMetric(); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
	}
	return enc.Finish()
}

// DecodeArchive rebuilds atoms from a blob written by EncodeArchive, reading
// the given fields. Fields absent from the blob are skipped. Points sharing a
// timestamp merge into one atom; atoms come back in time order.
func DecodeArchive(data []byte, timeKey string, fields ...string) ([]*domain.Atom, error) {
	if timeKey == "" {
		timeKey = domain.FieldDatetime
	}
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	blob, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}

	byTime := make(map[int64]*domain.Atom)
	for _, field := range fields {
		id := metricID(field)
		if !blob.HasMetricID(id) {
			continue
		}
		for _, dp := range blob.All(id) {
			a, ok := byTime[dp.Ts]
			if !ok {
				a = domain.NewAtom(timeKey, domain.FormatTime(time.UnixMicro(dp.Ts)))
				byTime[dp.Ts] = a
			}
			a.Set(field, dp.Val)
		}
	}

	stamps := make([]int64, 0, len(byTime))
	for ts := range byTime {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	out := make([]*domain.Atom, len(stamps))
	for i, ts := range stamps {
		out[i] = byTime[ts]
	}
	return out, nil
}

// WriteArchive encodes atoms and writes the blob to path.
func WriteArchive(path string, atoms []*domain.Atom) error {
	data, err := EncodeArchive(atoms, domain.FieldDatetime)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// ReadArchive loads fields from a blob written by WriteArchive.
func ReadArchive(path string, fields ...string) ([]*domain.Atom, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return DecodeArchive(data, domain.FieldDatetime, fields...)
}
