package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tsflow/internal/filtering"
	"tsflow/pkg/contracts/domain"
)

// runFilters executes filters as a chain of layers over closed seed streams.
func runFilters(t *testing.T, seed map[string][]*domain.Atom, filters ...filtering.Filter) *filtering.Result {
	t.Helper()
	streams := make(map[string]*filtering.Stream, len(seed))
	for name, atoms := range seed {
		streams[name] = filtering.NewClosedStream(atoms...)
	}
	layers := make([]*filtering.Layer, len(filters))
	for i, f := range filters {
		policy := filtering.PolicyRetreatIfIdle
		if i == 0 {
			policy = filtering.PolicyAdvance
		}
		layers[i] = filtering.NewLayer(policy, f)
	}
	res, err := filtering.NewNet(layers, filtering.WithMaxTicks(100000)).Execute(context.Background(), streams, nil)
	require.NoError(t, err)
	return res
}
