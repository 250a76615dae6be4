package filters

import (
	"fmt"
	"math"
	"time"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// TimeBucketOptions configures a TimeBucket. Empty field names default to
// the standard OHLCV names.
type TimeBucketOptions struct {
	Resolution time.Duration `validate:"gte=1ms"`
	TimeKey    string
	Open       string
	High       string
	Low        string
	Close      string
	Volume     string
}

func (o TimeBucketOptions) withDefaults() TimeBucketOptions {
	o.TimeKey = orDefault(o.TimeKey, domain.FieldDatetime)
	o.Open = orDefault(o.Open, domain.FieldOpen)
	o.High = orDefault(o.High, domain.FieldHigh)
	o.Low = orDefault(o.Low, domain.FieldLow)
	o.Close = orDefault(o.Close, domain.FieldClose)
	o.Volume = orDefault(o.Volume, domain.FieldVolume)
	return o
}

type bucket struct {
	start                  int64
	open, high, low, close float64
	volume                 float64
}

// TimeBucket groups a time-sorted input into fixed buckets aligned to the Unix
// epoch and emits one OHLCV atom per bucket, stamped with the bucket start.
// Atoms without open, high or low contribute their close instead.
type TimeBucket struct {
	*filtering.Base
	opts    TimeBucketOptions
	res     int64
	current *bucket
}

// NewTimeBucket creates a TimeBucket. Resolution must be at least one millisecond.
func NewTimeBucket(in, out string, opts TimeBucketOptions) (*TimeBucket, error) {
	if err := checkOptions("time_bucket", opts); err != nil {
		return nil, err
	}
	f := &TimeBucket{opts: opts.withDefaults(), res: opts.Resolution.Milliseconds()}
	base, err := filtering.NewBase("time_bucket", []string{in}, []string{out}, filtering.Exactly(1), filtering.Exactly(1), f)
	if err != nil {
		return nil, err
	}
	f.Base = base
	return f, nil
}

func (f *TimeBucket) OnSetup(_ *filtering.State) error {
	f.current = nil
	return nil
}

// BucketStart returns the start of the bucket holding t.
func (f *TimeBucket) BucketStart(t time.Time) time.Time {
	return time.UnixMilli(floorDiv(t.UnixMilli(), f.res) * f.res).UTC()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (f *TimeBucket) OnData(a *domain.Atom, _ int) error {
	t, err := a.Time(f.opts.TimeKey)
	if err != nil {
		return fmt.Errorf("time bucket: %w", err)
	}
	c, ok := a.Float(f.opts.Close)
	if !ok {
		return fmt.Errorf("time bucket: atom at %s has no numeric %q", domain.FormatTime(t), f.opts.Close)
	}
	open := f.valueOr(a, f.opts.Open, c)
	high := f.valueOr(a, f.opts.High, c)
	low := f.valueOr(a, f.opts.Low, c)
	volume := f.valueOr(a, f.opts.Volume, 0)

	start := floorDiv(t.UnixMilli(), f.res) * f.res
	if f.current != nil && f.current.start != start {
		if err := f.flush(); err != nil {
			return err
		}
	}
	if f.current == nil {
		f.current = &bucket{start: start, open: open, high: high, low: low, close: c, volume: volume}
		return nil
	}
	f.current.high = math.Max(f.current.high, high)
	f.current.low = math.Min(f.current.low, low)
	f.current.close = c
	f.current.volume += volume
	return nil
}

func (f *TimeBucket) valueOr(a *domain.Atom, key string, def float64) float64 {
	if v, ok := a.Float(key); ok {
		return v
	}
	return def
}

func (f *TimeBucket) flush() error {
	b := f.current
	f.current = nil
	return f.Push(domain.NewAtom(
		f.opts.TimeKey, domain.FormatTime(time.UnixMilli(b.start)),
		f.opts.Open, b.open,
		f.opts.High, b.high,
		f.opts.Low, b.low,
		f.opts.Close, b.close,
		f.opts.Volume, b.volume,
	), 0)
}

// OnInputsClosed flushes a partial bucket and closes the output.
func (f *TimeBucket) OnInputsClosed() error {
	if f.current != nil {
		if err := f.flush(); err != nil {
			return err
		}
	}
	return f.CloseOutputs()
}
