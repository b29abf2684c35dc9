package deploy

import (
	"fmt"
	"strings"
)

// State is the state of the deployment machine.
type State int

// States.
const (
	// Idle waits for the next attempt.
	Idle State = iota
	// Checking queries the actuator.
	Checking
	// Deploying runs the actuator.
	Deploying
	// Released is the terminal success state.
	Released
	// Failed means all attempts are exhausted.
	Failed
	// Error means the attempt counter could not be trusted. It is kept
	// until Reset.
	Error
)

var stateNames = []string{"idle", "checking", "deploying", "released", "failed", "error"}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal indicates no further actuation happens from this state in the
// current boot cycle.
func (s State) Terminal() bool {
	return s == Released || s == Failed || s == Error
}

// IntegrityPolicy decides what to do when the attempt counter is corrupted.
type IntegrityPolicy int

// Policies.
const (
	// Halt stops deployment activity for the boot cycle (Error state).
	Halt IntegrityPolicy = iota
	// AssumeExhausted treats the counter as exhausted (Failed state).
	AssumeExhausted
	// AssumeNone treats the counter as zero and continues; the next
	// increment rewrites the field.
	AssumeNone
)

var policyNames = []string{"halt", "assume-exhausted", "assume-none"}

// String implements fmt.Stringer.
func (p IntegrityPolicy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (IntegrityPolicy, error) {
	for n, name := range policyNames {
		if strings.EqualFold(s, name) {
			return IntegrityPolicy(n), nil
		}
	}
	return Halt, fmt.Errorf("unknown integrity policy %q, expect one of %s", s, strings.Join(policyNames, ", "))
}
