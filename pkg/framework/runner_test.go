package framework

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func waitCancel(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerStopOn(t *testing.T) {
	stopCh := make(chan os.Signal, 2)
	r := NewRunner().StopOn(stopCh).Go(runFunc(waitCancel), NamedRun("named", runFunc(waitCancel)))
	stopCh <- syscall.SIGTERM
	require.NoError(t, r.Wait())
}

func TestRunnerForcedExit(t *testing.T) {
	stopCh := make(chan os.Signal, 2)
	block := make(chan struct{})
	defer close(block)
	r := NewRunner().StopOn(stopCh).Go(runFunc(func(context.Context) error {
		<-block
		return nil
	}))
	stopCh <- os.Interrupt
	stopCh <- os.Interrupt
	require.Equal(t, ErrForcedExit, r.Wait())
}

func TestRunnerCollectsErrors(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner().Go(
		runFunc(func(context.Context) error { return failure }),
		runFunc(func(context.Context) error { return nil }),
	)
	require.EqualError(t, r.Wait(), failure.Error())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	var closes int
	counter := closerFunc(func() error {
		closes++
		return nil
	})
	require.NoError(t, RunWithContextCloser(context.Background(), counter, func() error { return nil }))
	require.Equal(t, 1, closes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan struct{})
	err := RunWithContextCloser(ctx, closerFunc(func() error {
		close(ch)
		return nil
	}), func() error {
		<-ch
		return nil
	})
	require.Equal(t, context.Canceled, err)
}
