package nvm

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// File is a Medium backed by a flash image file. Regions are stored
// back to back in the order of the geometry.
type File struct {
	Geometry Geometry

	f    *os.File
	lock sync.Mutex
}

// OpenFile opens the image at path, creating an erased image if it
// doesn't exist. An existing image shorter than the geometry is extended
// with erased bytes.
func OpenFile(path string, geometry Geometry) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %q", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat image %q", path)
	}
	if total := int64(geometry.Total()); info.Size() < total {
		fill := make([]byte, total-info.Size())
		for i := range fill {
			fill[i] = ErasedByte
		}
		if _, err = f.WriteAt(fill, info.Size()); err == nil {
			err = f.Sync()
		}
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "format image %q", path)
		}
	}
	return &File{Geometry: geometry, f: f}, nil
}

// Read implements Medium.
func (m *File) Read(region Region, offset, n int) ([]byte, error) {
	if err := m.Geometry.Check(region, offset, n); err != nil {
		return nil, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.f == nil {
		return nil, ErrClosed
	}
	data := make([]byte, n)
	if _, err := m.f.ReadAt(data, int64(m.Geometry.Base(region)+offset)); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read %s+%d", region, offset)
	}
	return data, nil
}

// Write implements Medium. Every write is synced before returning.
func (m *File) Write(region Region, offset int, data []byte) error {
	if err := m.Geometry.Check(region, offset, len(data)); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.f == nil {
		return ErrClosed
	}
	if _, err := m.f.WriteAt(data, int64(m.Geometry.Base(region)+offset)); err != nil {
		return errors.Wrapf(err, "write %s+%d", region, offset)
	}
	return errors.Wrap(m.f.Sync(), "sync")
}

// Flip implements Injector.
func (m *File) Flip(region Region, offset int, mask byte) error {
	data, err := m.Read(region, offset, 1)
	if err != nil {
		return err
	}
	data[0] ^= mask
	return m.Write(region, offset, data)
}

// Close implements io.Closer.
func (m *File) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return err
}
