// Package antenna provides the antenna release mechanism drivers.
package antenna

import (
	"context"
	"fmt"
)

// Actuator is the physical release mechanism.
type Actuator interface {
	// Release fires the release mechanism once. It is bounded in time.
	Release(ctx context.Context) error
	// IsReleased queries whether the antenna is deployed.
	IsReleased(ctx context.Context) (bool, error)
}

// Status is the deployment status reported in telemetry.
type Status int

// Status values.
const (
	StatusNotDeployed Status = iota
	StatusDeployed
	StatusUnknown
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusNotDeployed:
		return "not-deployed"
	case StatusDeployed:
		return "deployed"
	default:
		return "unknown"
	}
}

// ActuationError indicates the mechanism failed to execute an operation.
type ActuationError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *ActuationError) Error() string {
	return fmt.Sprintf("antenna %s: %v", e.Op, e.Err)
}

// Cause returns the underlying driver error.
func (e *ActuationError) Cause() error {
	return e.Err
}
