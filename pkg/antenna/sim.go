package antenna

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBurnFailed is returned by Sim when configured to fail releases.
var ErrBurnFailed = errors.New("burn wire failed")

// Sim simulates a burn-wire release mechanism.
type Sim struct {
	// ReleaseAfter is the number of Release calls needed before the
	// antenna deploys, 0 for never.
	ReleaseAfter int
	// BurnTime is how long a Release call takes.
	BurnTime time.Duration
	// FailRelease makes Release return ErrBurnFailed.
	FailRelease bool

	calls    int
	released bool
	lock     sync.Mutex
}

// NewSim creates a Sim which deploys on the n-th release.
func NewSim(n int) *Sim {
	return &Sim{ReleaseAfter: n}
}

// Release implements Actuator.
func (s *Sim) Release(ctx context.Context) error {
	if s.BurnTime > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.BurnTime):
		}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls++
	if s.FailRelease {
		return ErrBurnFailed
	}
	if s.ReleaseAfter > 0 && s.calls >= s.ReleaseAfter {
		s.released = true
	}
	return nil
}

// IsReleased implements Actuator.
func (s *Sim) IsReleased(ctx context.Context) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.released, nil
}

// Calls returns the number of Release calls.
func (s *Sim) Calls() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}
