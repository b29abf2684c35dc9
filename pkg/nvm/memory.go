package nvm

import "sync"

// Memory is a RAM backed Medium. New regions read as erased flash.
type Memory struct {
	Geometry Geometry

	// FailWrites makes every Write fail with the error when set.
	FailWrites error

	cells [][]byte
	lock  sync.Mutex
}

// NewMemory creates a Memory with the given region sizes.
func NewMemory(geometry Geometry) *Memory {
	m := &Memory{Geometry: geometry, cells: make([][]byte, len(geometry))}
	for n, size := range geometry {
		m.cells[n] = make([]byte, size)
		for i := range m.cells[n] {
			m.cells[n][i] = ErasedByte
		}
	}
	return m
}

// Read implements Medium.
func (m *Memory) Read(region Region, offset, n int) ([]byte, error) {
	if err := m.Geometry.Check(region, offset, n); err != nil {
		return nil, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	data := make([]byte, n)
	copy(data, m.cells[region][offset:])
	return data, nil
}

// Write implements Medium.
func (m *Memory) Write(region Region, offset int, data []byte) error {
	if err := m.Geometry.Check(region, offset, len(data)); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	copy(m.cells[region][offset:], data)
	return nil
}

// Flip implements Injector.
func (m *Memory) Flip(region Region, offset int, mask byte) error {
	if err := m.Geometry.Check(region, offset, 1); err != nil {
		return err
	}
	m.lock.Lock()
	m.cells[region][offset] ^= mask
	m.lock.Unlock()
	return nil
}

// erase resets a region to the erased state.
func (m *Memory) erase(region Region) error {
	if err := m.Geometry.Check(region, 0, 0); err != nil {
		return err
	}
	m.lock.Lock()
	for i := range m.cells[region] {
		m.cells[region][i] = ErasedByte
	}
	m.lock.Unlock()
	return nil
}
