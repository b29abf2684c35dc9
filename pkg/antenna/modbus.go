package antenna

import (
	"context"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
)

// ModbusClient is the subset of modbus.Client used by Modbus.
type ModbusClient interface {
	WriteSingleCoil(address, value uint16) ([]byte, error)
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
}

// Coil values defined by the Modbus protocol.
const (
	CoilOn  uint16 = 0xff00
	CoilOff uint16 = 0x0000
)

// ModbusConfig locates the release coil and the deployed input.
type ModbusConfig struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	// ReleaseCoil energizes the burn wire while on.
	ReleaseCoil uint16
	// DeployedInput reads 1 once the deployment switch is open.
	DeployedInput uint16
	// BurnTime is how long the coil is kept on.
	BurnTime time.Duration
}

// Modbus drives a release mechanism wired to a Modbus I/O module.
type Modbus struct {
	Config ModbusConfig

	client  ModbusClient
	handler *modbus.TCPClientHandler
	lock    sync.Mutex
}

// NewModbus creates the actuator over an existing client.
func NewModbus(client ModbusClient, cfg ModbusConfig) *Modbus {
	return &Modbus{Config: cfg, client: client}
}

// DialModbus connects to the I/O module.
func DialModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("antenna modbus: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	if err := h.Connect(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", cfg.Endpoint)
	}
	a := NewModbus(modbus.NewClient(h), cfg)
	a.handler = h
	return a, nil
}

// Release implements Actuator. The coil is always switched off again,
// also when the context is canceled during the burn.
func (a *Modbus) Release(ctx context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if _, err := a.client.WriteSingleCoil(a.Config.ReleaseCoil, CoilOn); err != nil {
		return &ActuationError{Op: "release", Err: err}
	}
	var burnErr error
	select {
	case <-ctx.Done():
		burnErr = ctx.Err()
	case <-time.After(a.Config.BurnTime):
	}
	if _, err := a.client.WriteSingleCoil(a.Config.ReleaseCoil, CoilOff); err != nil {
		return &ActuationError{Op: "release", Err: errors.Wrap(err, "switch off")}
	}
	if burnErr != nil {
		return &ActuationError{Op: "release", Err: burnErr}
	}
	return nil
}

// IsReleased implements Actuator.
func (a *Modbus) IsReleased(ctx context.Context) (bool, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	bits, err := a.client.ReadDiscreteInputs(a.Config.DeployedInput, 1)
	if err != nil {
		return false, &ActuationError{Op: "status", Err: err}
	}
	if len(bits) == 0 {
		return false, &ActuationError{Op: "status", Err: errors.New("empty response")}
	}
	return bits[0]&1 != 0, nil
}

// Close releases the connection if created by DialModbus.
func (a *Modbus) Close() error {
	if a.handler == nil {
		return nil
	}
	return a.handler.Close()
}
