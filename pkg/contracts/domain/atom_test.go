package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtomKeepsOrder(t *testing.T) {
	a := NewAtom("datetime", "2024-01-15 10:00:00.000", "close", 1.5, "volume", 10)

	assert.Equal(t, []string{"datetime", "close", "volume"}, a.Keys())
	assert.Equal(t, 3, a.Len())

	v, ok := a.Get("volume")
	require.True(t, ok)
	assert.Equal(t, int64(10), v)

	a.Set("close", 2.0)
	assert.Equal(t, []string{"datetime", "close", "volume"}, a.Keys())

	a.Delete("close")
	assert.Equal(t, []string{"datetime", "volume"}, a.Keys())
	assert.False(t, a.Has("close"))
}

func TestAtomFloat(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{name: "float", value: 1.25, want: 1.25, wantOK: true},
		{name: "int", value: 7, want: 7, wantOK: true},
		{name: "large uint64", value: uint64(math.MaxUint64), want: math.MaxUint64, wantOK: true},
		{name: "numeric string", value: " 3.5 ", want: 3.5, wantOK: true},
		{name: "text", value: "abc", wantOK: false},
		{name: "nil", value: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAtom("x", tt.value)
			got, ok := a.Float("x")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}

	_, ok := NewAtom().Float("missing")
	assert.False(t, ok)
}

func TestUnsignedValues(t *testing.T) {
	a := NewAtom("small", uint64(42), "large", uint64(math.MaxInt64)+1, "word", uint(7))

	v, _ := a.Get("small")
	assert.Equal(t, int64(42), v)
	v, _ = a.Get("large")
	assert.Equal(t, float64(uint64(math.MaxInt64)+1), v, "no wrap to a negative int64")
	v, _ = a.Get("word")
	assert.Equal(t, int64(7), v)
}

func TestAtomTime(t *testing.T) {
	a := NewAtom("datetime", "2024-01-15 10:30:00.250", "close", 1.0)

	ts, err := a.Time("datetime")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 250_000_000, time.UTC), ts)
	assert.Equal(t, "2024-01-15 10:30:00.250", FormatTime(ts))

	_, err = a.Time("close")
	assert.Error(t, err)
	_, err = a.Time("missing")
	assert.Error(t, err)
}

func TestAtomLabelsAreSeparateFromFields(t *testing.T) {
	a := NewAtom("close", 1.0)
	a.AddLabel("ERROR", "NullError(volume)")
	a.AddLabel("ERROR", "RangeError(close)")
	a.AddLabel("WARNING", "ClusterWarning(close)")

	assert.Equal(t, map[string]any{"close": 1.0}, a.Fields())
	assert.Equal(t, []string{"ERROR", "WARNING"}, a.LabelKeys())
	assert.Equal(t, []string{"NullError(volume)", "RangeError(close)"}, a.Labels("ERROR"))
	assert.True(t, a.HasLabels())

	m := a.ToMap()
	assert.Equal(t, 1.0, m["close"])
	assert.Equal(t, []string{"ClusterWarning(close)"}, m["WARNING"])
}

func TestAtomCopyAndClone(t *testing.T) {
	a := NewAtom("close", 1.0)
	a.AddLabel("ERROR", "first")

	shallow := a.Copy()
	deep := a.Clone()

	shallow.Set("close", 2.0)
	assert.Equal(t, 1.0, a.Fields()["close"])

	deep.AddLabel("ERROR", "second")
	assert.Equal(t, []string{"first"}, a.Labels("ERROR"))
	assert.Equal(t, []string{"first", "second"}, deep.Labels("ERROR"))
}

func TestAtomEqual(t *testing.T) {
	a := NewAtom("a", 1, "b", "x")
	b := NewAtom("b", "x", "a", 1.0)
	c := NewAtom("a", 1, "b", "y")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewAtom("a", 1)))

	b.AddLabel("ERROR", "ignored")
	assert.True(t, a.Equal(b))
}

func TestFromMap(t *testing.T) {
	a := FromMap([]string{"datetime", "close"}, map[string]any{
		"volume":   5,
		"close":    1.0,
		"datetime": "2024-01-15 10:00:00.000",
		"amount":   2,
	})
	assert.Equal(t, []string{"datetime", "close", "amount", "volume"}, a.Keys())
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name    string
		a, b    any
		want    int
		wantErr bool
	}{
		{name: "int vs float", a: 1, b: 1.5, want: -1},
		{name: "equal numbers", a: int64(2), b: 2.0, want: 0},
		{name: "timestamps", a: "2024-01-15 10:00:00.000", b: "2024-01-14 10:00:00.000", want: 1},
		{name: "bools", a: false, b: true, want: -1},
		{name: "mixed", a: 1, b: "1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareValues(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyHandlers(t *testing.T) {
	a := NewAtom("Close", 1.0, "VOLUME", 3)
	a.AddLabel("WARNING", "kept")

	lower := LowerKeys(a)
	assert.Equal(t, []string{"close", "volume"}, lower.Keys())
	assert.Equal(t, []string{"kept"}, lower.Labels("WARNING"))
	assert.Equal(t, []string{"Close", "VOLUME"}, a.Keys())

	renamed := RenameKeys(lower, map[string]string{"close": "price"})
	assert.Equal(t, []string{"price", "volume"}, renamed.Keys())
}
