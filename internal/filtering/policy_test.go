package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFilter reports fixed flags to the layer queries.
type stubFilter struct {
	output, inputsClosed, outputsClosed bool
}

func (s *stubFilter) Name() string { return "stub" }
func (s *stubFilter) Inputs() []string { return nil }
func (s *stubFilter) Outputs() []string { return nil }
func (s *stubFilter) Setup(_, _ []*Stream, _ *State) error { return nil }
func (s *stubFilter) Step() error { return nil }
func (s *stubFilter) HasOutput() bool { return s.output }
func (s *stubFilter) InputsClosed() bool { return s.inputsClosed }
func (s *stubFilter) OutputsClosed() bool { return s.outputsClosed }

func TestPolicyJump(t *testing.T) {
	idle := &stubFilter{}
	productive := &stubFilter{output: true}
	finished := &stubFilter{inputsClosed: true}
	drained := &stubFilter{inputsClosed: true, outputsClosed: true}

	tests := []struct {
		name   string
		policy Policy
		filter Filter
		want   int
	}{
		{name: "advance idle", policy: PolicyAdvance, filter: idle, want: 1},
		{name: "advance productive", policy: PolicyAdvance, filter: productive, want: 1},
		{name: "repeat until drained with open outputs", policy: PolicyRepeatUntilDrained, filter: productive, want: 0},
		{name: "repeat until drained when drained", policy: PolicyRepeatUntilDrained, filter: drained, want: 1},
		{name: "repeat until output idle", policy: PolicyRepeatUntilOutput, filter: idle, want: 0},
		{name: "repeat until output productive", policy: PolicyRepeatUntilOutput, filter: productive, want: 1},
		{name: "repeat until output once drained", policy: PolicyRepeatUntilOutput, filter: drained, want: 1},
		{name: "retreat if idle idle", policy: PolicyRetreatIfIdle, filter: idle, want: -1},
		{name: "retreat if idle productive", policy: PolicyRetreatIfIdle, filter: productive, want: 1},
		{name: "retreat if idle finished", policy: PolicyRetreatIfIdle, filter: finished, want: 1},
		{name: "retreat if output productive", policy: PolicyRetreatIfOutput, filter: productive, want: -1},
		{name: "retreat if output idle", policy: PolicyRetreatIfOutput, filter: idle, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := NewLayer(tt.policy, tt.filter)
			assert.Equal(t, tt.want, tt.policy.Jump(layer))
		})
	}
}

func TestLayerQueriesCombineFilters(t *testing.T) {
	layer := NewLayer(PolicyAdvance, &stubFilter{output: true}, &stubFilter{inputsClosed: true})
	assert.True(t, layer.HasOutput())
	assert.False(t, layer.Finished())
	assert.False(t, layer.OutputsClosed())

	layer = NewLayer(PolicyAdvance, &stubFilter{inputsClosed: true, outputsClosed: true})
	assert.True(t, layer.Finished())
	assert.True(t, layer.OutputsClosed())
}

func TestPolicyNames(t *testing.T) {
	for _, p := range []Policy{PolicyAdvance, PolicyRepeatUntilDrained, PolicyRepeatUntilOutput, PolicyRetreatIfIdle, PolicyRetreatIfOutput} {
		parsed, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
		assert.True(t, p.Valid())
	}

	_, err := ParsePolicy("sideways")
	assert.Error(t, err)
	assert.False(t, Policy(42).Valid())
	assert.Equal(t, "Policy(42)", Policy(42).String())
}
