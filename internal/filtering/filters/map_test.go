package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsflow/internal/filtering"
	"tsflow/internal/shared/testutil"
	"tsflow/pkg/contracts/domain"
)

func TestMapAndSieve(t *testing.T) {
	double, err := NewMap("in", "doubled", func(a *domain.Atom) *domain.Atom {
		v, _ := a.Float("n")
		if v == 3 {
			return nil
		}
		c := a.Copy()
		c.Set("n", v*2)
		return c
	})
	require.NoError(t, err)
	even, err := NewSieve("doubled", "out", func(a *domain.Atom) bool {
		v, _ := a.Float("n")
		return v > 2
	})
	require.NoError(t, err)

	res := runFilters(t, map[string][]*domain.Atom{"in": testutil.Values("n", 1, 2, 3, 4)}, double, even)
	assert.Equal(t, []float64{4, 8}, testutil.Floats(res.Atoms("out"), "n"))
}

func TestMapRejectsNilFunction(t *testing.T) {
	_, err := NewMap("in", "out", nil)
	assert.Equal(t, filtering.ErrorTypeInvalid, filtering.GetErrorType(err))
	_, err = NewSieve("in", "out", nil)
	assert.Equal(t, filtering.ErrorTypeInvalid, filtering.GetErrorType(err))
}

func TestFanOut(t *testing.T) {
	tests := []struct {
		name     string
		mode     CopyMode
		sameAtom bool
		shared   bool
	}{
		{name: "reference", mode: CopyReference, sameAtom: true, shared: true},
		{name: "shallow", mode: CopyShallow},
		{name: "deep", mode: CopyDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := domain.NewAtom("n", 1)
			f, err := NewFanOut("in", []string{"a", "b"}, tt.mode)
			require.NoError(t, err)

			res := runFilters(t, map[string][]*domain.Atom{"in": {src}}, f)
			a, b := res.Atoms("a"), res.Atoms("b")
			require.Len(t, a, 1)
			require.Len(t, b, 1)
			assert.Equal(t, tt.sameAtom, a[0] == src)
			assert.True(t, a[0].Equal(src))

			a[0].Set("n", 2)
			v, _ := b[0].Float("n")
			assert.Equal(t, tt.shared, v == 2)
		})
	}

	_, err := NewFanOut("in", []string{"a"}, CopyMode(7))
	assert.Error(t, err)
	_, err = NewFanOut("in", nil, CopyDeep)
	assert.ErrorIs(t, err, filtering.ErrArity)
}

func TestSequentialMergeDrainsLeftToRight(t *testing.T) {
	left := filtering.NewStream(testutil.Values("n", 1, 2)...)
	right := filtering.NewClosedStream(testutil.Values("n", 10, 20)...)
	out := filtering.NewStream()

	f, err := NewSequentialMerge([]string{"left", "right"}, "out")
	require.NoError(t, err)
	require.NoError(t, f.Setup([]*filtering.Stream{left, right}, []*filtering.Stream{out}, filtering.NewState()))

	for range 4 {
		require.NoError(t, f.Step())
	}
	assert.Equal(t, []float64{1, 2}, testutil.Floats(out.Snapshot(), "n"), "right waits while left is open")

	require.NoError(t, left.Close())
	for range 3 {
		require.NoError(t, f.Step())
	}
	assert.Equal(t, []float64{1, 2, 10, 20}, testutil.Floats(out.Snapshot(), "n"))
	assert.True(t, out.IsClosed())
}
