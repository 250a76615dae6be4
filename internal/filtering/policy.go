package filtering

import (
	"fmt"
	"strings"
)

// Policy decides where the scheduler goes after a layer was ticked.
// It is a closed set; every value maps to a pure function of the layer.
type Policy int

const (
	// PolicyAdvance always moves to the next layer.
	PolicyAdvance Policy = iota
	// PolicyRepeatUntilDrained stays while any output of the layer is open.
	PolicyRepeatUntilDrained
	// PolicyRepeatUntilOutput stays until the layer produced output, or until
	// its outputs are closed and no output can follow.
	PolicyRepeatUntilOutput
	// PolicyRetreatIfIdle moves forward after output or once finished,
	// otherwise goes back to re-drive the upstream layer.
	PolicyRetreatIfIdle
	// PolicyRetreatIfOutput goes back after output, otherwise moves forward.
	PolicyRetreatIfOutput
)

var policyNames = map[Policy]string{
	PolicyAdvance:            "advance",
	PolicyRepeatUntilDrained: "repeatUntilDrained",
	PolicyRepeatUntilOutput:  "repeatUntilOutput",
	PolicyRetreatIfIdle:      "retreatIfIdle",
	PolicyRetreatIfOutput:    "retreatIfOutput",
}

// Jump returns the signed layer offset after a tick of l.
func (p Policy) Jump(l *Layer) int {
	switch p {
	case PolicyAdvance:
		return 1
	case PolicyRepeatUntilDrained:
		if l.OutputsClosed() {
			return 1
		}
		return 0
	case PolicyRepeatUntilOutput:
		if l.HasOutput() || l.OutputsClosed() {
			return 1
		}
		return 0
	case PolicyRetreatIfIdle:
		if l.HasOutput() || l.Finished() {
			return 1
		}
		return -1
	case PolicyRetreatIfOutput:
		if l.HasOutput() {
			return -1
		}
		return 1
	}
	return 1
}

// Valid reports whether p is one of the defined policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q", s)
}
