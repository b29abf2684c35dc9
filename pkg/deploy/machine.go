// Package deploy implements the antenna deployment state machine.
//
// The attempt counter is persisted before every release so a reset in the
// middle of an actuation is still accounted for. Counting one attempt too
// many is acceptable, counting one too few is not.
package deploy

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/antenna"
	"github.com/robotalks/beacon.go/pkg/params"
)

// DefaultMaxAttempts is the flight ceiling of release attempts.
const DefaultMaxAttempts = 10

// Store is the persisted counter storage.
type Store interface {
	Get(params.FieldID) (uint32, error)
	Set(params.FieldID, uint32) error
}

// Machine decides and executes antenna deployment.
// It must be driven from a single goroutine.
type Machine struct {
	MaxAttempts int
	Policy      IntegrityPolicy

	store    Store
	actuator antenna.Actuator
	state    State
	lastErr  error
}

// New creates a Machine in Idle.
func New(store Store, actuator antenna.Actuator) *Machine {
	return &Machine{
		MaxAttempts: DefaultMaxAttempts,
		Policy:      Halt,
		store:       store,
		actuator:    actuator,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// LastError returns the error of the last Tick, if any.
func (m *Machine) LastError() error {
	return m.lastErr
}

// Attempts reads the persisted attempt counter.
func (m *Machine) Attempts() (uint32, error) {
	return m.store.Get(params.DeploymentAttempts)
}

// Reset returns the machine to Idle, starting a new cycle.
func (m *Machine) Reset() {
	m.state, m.lastErr = Idle, nil
}

// Tick runs one duty cycle. It returns the resulting state and the
// error which caused it, if any. The returned state is never Checking
// or Deploying.
func (m *Machine) Tick(ctx context.Context) (State, error) {
	if m.state == Error {
		return m.state, m.lastErr
	}
	m.state, m.lastErr = m.tick(ctx)
	if m.lastErr != nil {
		glog.Errorf("deployment %s: %v", m.state, m.lastErr)
	}
	return m.state, m.lastErr
}

func (m *Machine) tick(ctx context.Context) (State, error) {
	m.state = Checking
	released, err := m.actuator.IsReleased(ctx)
	if err != nil {
		return Idle, actuationError("status", err)
	}
	if released {
		return Released, nil
	}

	attempts, err := m.store.Get(params.DeploymentAttempts)
	if err != nil {
		if !params.IsIntegrity(err) {
			return Idle, err
		}
		switch m.Policy {
		case AssumeExhausted:
			glog.Warningf("deployment attempts corrupted, assuming exhausted")
			return Failed, nil
		case AssumeNone:
			glog.Warningf("deployment attempts corrupted, assuming none")
			attempts = 0
		default:
			return Error, err
		}
	}
	if int(attempts) >= m.MaxAttempts {
		return Failed, nil
	}

	m.state = Deploying
	if err = m.store.Set(params.DeploymentAttempts, attempts+1); err != nil {
		return Idle, err
	}
	glog.Infof("antenna release attempt %d/%d", attempts+1, m.MaxAttempts)
	if err = m.actuator.Release(ctx); err != nil {
		return Idle, actuationError("release", err)
	}
	if released, err = m.actuator.IsReleased(ctx); err != nil {
		return Idle, actuationError("status", err)
	}
	if released {
		glog.Infof("antenna released after %d attempts", attempts+1)
		return Released, nil
	}
	return Idle, nil
}

func actuationError(op string, err error) error {
	if _, ok := err.(*antenna.ActuationError); ok {
		return err
	}
	return &antenna.ActuationError{Op: op, Err: err}
}
