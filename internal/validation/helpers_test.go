package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

func run(t *testing.T, seed map[string][]*domain.Atom, f filtering.Filter) *filtering.Result {
	t.Helper()
	streams := make(map[string]*filtering.Stream, len(seed))
	for name, atoms := range seed {
		streams[name] = filtering.NewClosedStream(atoms...)
	}
	net := filtering.NewNet([]*filtering.Layer{filtering.NewLayer(filtering.PolicyAdvance, f)}, filtering.WithMaxTicks(100000))
	res, err := net.Execute(context.Background(), streams, nil)
	require.NoError(t, err)
	return res
}

func labeledIndexes(atoms []*domain.Atom, key string) []int {
	var out []int
	for i, a := range atoms {
		if len(a.Labels(key)) > 0 {
			out = append(out, i)
		}
	}
	return out
}
