package antenna

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSim(t *testing.T) {
	ctx := context.Background()
	s := NewSim(2)
	released, err := s.IsReleased(ctx)
	require.NoError(t, err)
	require.False(t, released)

	require.NoError(t, s.Release(ctx))
	released, _ = s.IsReleased(ctx)
	require.False(t, released)

	require.NoError(t, s.Release(ctx))
	released, _ = s.IsReleased(ctx)
	require.True(t, released)
	require.Equal(t, 2, s.Calls())

	never := NewSim(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, never.Release(ctx))
	}
	released, _ = never.IsReleased(ctx)
	require.False(t, released)

	broken := &Sim{ReleaseAfter: 1, FailRelease: true}
	require.Equal(t, ErrBurnFailed, broken.Release(ctx))
}

type fakeIO struct {
	coils   []uint16
	input   byte
	failure error
}

func (f *fakeIO) WriteSingleCoil(address, value uint16) ([]byte, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	f.coils = append(f.coils, value)
	return nil, nil
}

func (f *fakeIO) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	return []byte{f.input}, nil
}

func TestModbusRelease(t *testing.T) {
	io := &fakeIO{}
	a := NewModbus(io, ModbusConfig{ReleaseCoil: 3, DeployedInput: 4, BurnTime: time.Millisecond})
	require.NoError(t, a.Release(context.Background()))
	require.Equal(t, []uint16{CoilOn, CoilOff}, io.coils)

	released, err := a.IsReleased(context.Background())
	require.NoError(t, err)
	require.False(t, released)
	io.input = 1
	released, err = a.IsReleased(context.Background())
	require.NoError(t, err)
	require.True(t, released)
}

func TestModbusReleaseCanceled(t *testing.T) {
	io := &fakeIO{}
	a := NewModbus(io, ModbusConfig{BurnTime: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Release(ctx)
	require.Error(t, err)
	_, ok := err.(*ActuationError)
	require.True(t, ok)
	require.Equal(t, []uint16{CoilOn, CoilOff}, io.coils, "coil must be switched off")
}

func TestModbusErrors(t *testing.T) {
	io := &fakeIO{failure: errors.New("gateway timeout")}
	a := NewModbus(io, ModbusConfig{})
	err := a.Release(context.Background())
	ae, ok := err.(*ActuationError)
	require.True(t, ok)
	require.Equal(t, "release", ae.Op)
	_, err = a.IsReleased(context.Background())
	ae, ok = err.(*ActuationError)
	require.True(t, ok)
	require.Equal(t, "status", ae.Op)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "not-deployed", StatusNotDeployed.String())
	require.Equal(t, "deployed", StatusDeployed.String())
	require.Equal(t, "unknown", StatusUnknown.String())
}
