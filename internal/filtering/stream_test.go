package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsflow/pkg/contracts/domain"
)

func TestStreamFIFO(t *testing.T) {
	a, b, c := domain.NewAtom("n", 1), domain.NewAtom("n", 2), domain.NewAtom("n", 3)
	s := NewStream(a)
	require.NoError(t, s.AppendAll(b, c))
	assert.Equal(t, 3, s.Len())

	peeked, ok := s.Peek()
	require.True(t, ok)
	assert.Same(t, a, peeked)

	for _, want := range []*domain.Atom{a, b, c} {
		require.True(t, s.HasNext())
		got, err := s.Next()
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
	assert.False(t, s.HasNext())
	assert.Equal(t, 0, s.Len())
}

func TestStreamInvariants(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, s *Stream)
	}{
		{
			name: "append after close fails",
			run: func(t *testing.T, s *Stream) {
				require.NoError(t, s.Close())
				assert.ErrorIs(t, s.Append(domain.NewAtom()), ErrStreamClosed)
				assert.ErrorIs(t, s.AppendAll(domain.NewAtom()), ErrStreamClosed)
			},
		},
		{
			name: "close twice fails",
			run: func(t *testing.T, s *Stream) {
				require.NoError(t, s.Close())
				assert.ErrorIs(t, s.Close(), ErrStreamClosed)
				assert.True(t, s.IsClosed())
			},
		},
		{
			name: "next on empty fails",
			run: func(t *testing.T, s *Stream) {
				_, err := s.Next()
				assert.ErrorIs(t, err, ErrStreamEmpty)
			},
		},
		{
			name: "has next ignores closed flag",
			run: func(t *testing.T, s *Stream) {
				require.NoError(t, s.Append(domain.NewAtom()))
				require.NoError(t, s.Close())
				assert.True(t, s.HasNext())
				assert.False(t, s.Drained())
				_, err := s.Next()
				require.NoError(t, err)
				assert.False(t, s.HasNext())
				assert.True(t, s.Drained())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, NewStream())
		})
	}
}

func TestStreamSnapshotAndDrain(t *testing.T) {
	s := NewClosedStream(domain.NewAtom("n", 1), domain.NewAtom("n", 2))
	assert.True(t, s.IsClosed())

	snap := s.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 2, s.Len())

	count := 0
	for range s.All() {
		count++
	}
	assert.Equal(t, 2, count)

	drained := s.Drain()
	assert.Len(t, drained, 2)
	assert.False(t, s.HasNext())
}

func TestStreamCompactsLongQueues(t *testing.T) {
	s := NewStream()
	for i := 0; i < 5000; i++ {
		require.NoError(t, s.Append(domain.NewAtom("n", i)))
	}
	for i := 0; i < 4000; i++ {
		a, err := s.Next()
		require.NoError(t, err)
		v, _ := a.Float("n")
		require.Equal(t, float64(i), v)
	}
	assert.Equal(t, 1000, s.Len())
	a, ok := s.Peek()
	require.True(t, ok)
	v, _ := a.Float("n")
	assert.Equal(t, 4000.0, v)
}
