// Package modbus exposes a bank of Modbus holding registers as a
// non-volatile Medium, e.g. an FRAM board on a hardware-in-the-loop rig.
//
// Each register stores one byte in its low half, so byte offsets map
// directly to register addresses.
package modbus

import (
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"

	"github.com/robotalks/beacon.go/pkg/nvm"
)

// Protocol limits on quantities per request.
const (
	MaxReadQuantity  = 125
	MaxWriteQuantity = 123
)

// Client is the subset of modbus.Client used by Medium.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config defines the connection and the register map.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	// Bases is the first register address of each region.
	Bases []uint16
}

// Medium implements nvm.Medium over holding registers.
type Medium struct {
	Geometry nvm.Geometry
	Bases    []uint16

	client  Client
	handler *modbus.TCPClientHandler
	lock    sync.Mutex
}

// New creates a Medium using an existing client.
func New(client Client, geometry nvm.Geometry, bases []uint16) (*Medium, error) {
	if len(bases) < len(geometry) {
		return nil, errors.Errorf("register base required for %d regions, got %d", len(geometry), len(bases))
	}
	for n, size := range geometry {
		if int(bases[n])+size > 0x10000 {
			return nil, errors.Errorf("region %d exceeds register address space", n)
		}
	}
	return &Medium{Geometry: geometry, Bases: bases, client: client}, nil
}

// Dial connects to a Modbus TCP endpoint.
func Dial(cfg Config, geometry nvm.Geometry) (*Medium, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus medium: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	if err := h.Connect(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", cfg.Endpoint)
	}
	m, err := New(modbus.NewClient(h), geometry, cfg.Bases)
	if err != nil {
		h.Close()
		return nil, err
	}
	m.handler = h
	return m, nil
}

// DefaultBases places region n at register n*256.
func DefaultBases(geometry nvm.Geometry) []uint16 {
	bases := make([]uint16, len(geometry))
	for n := range bases {
		bases[n] = uint16(n * 256)
	}
	return bases
}

// Read implements nvm.Medium.
func (m *Medium) Read(region nvm.Region, offset, n int) ([]byte, error) {
	if err := m.Geometry.Check(region, offset, n); err != nil {
		return nil, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	data := make([]byte, 0, n)
	addr := m.Bases[region] + uint16(offset)
	for n > 0 {
		qty := n
		if qty > MaxReadQuantity {
			qty = MaxReadQuantity
		}
		regs, err := m.client.ReadHoldingRegisters(addr, uint16(qty))
		if err != nil {
			return nil, errors.Wrapf(err, "read registers %d+%d", addr, qty)
		}
		if len(regs) != qty*2 {
			return nil, errors.Errorf("read registers %d+%d: short response (%d bytes)", addr, qty, len(regs))
		}
		for i := 0; i < qty; i++ {
			data = append(data, regs[2*i+1])
		}
		addr += uint16(qty)
		n -= qty
	}
	return data, nil
}

// Write implements nvm.Medium.
func (m *Medium) Write(region nvm.Region, offset int, data []byte) error {
	if err := m.Geometry.Check(region, offset, len(data)); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	addr := m.Bases[region] + uint16(offset)
	for len(data) > 0 {
		qty := len(data)
		if qty > MaxWriteQuantity {
			qty = MaxWriteQuantity
		}
		if _, err := m.client.WriteMultipleRegisters(addr, uint16(qty), packBytes(data[:qty])); err != nil {
			return errors.Wrapf(err, "write registers %d+%d", addr, qty)
		}
		addr += uint16(qty)
		data = data[qty:]
	}
	return nil
}

// Close releases the TCP connection if Medium was created by Dial.
func (m *Medium) Close() error {
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func packBytes(data []byte) []byte {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[2*i+1] = b
	}
	return out
}
