// Package params persists the beacon parameters in non-volatile memory.
//
// Every copy of a field is followed by a CRC-8 of its value. Redundant
// fields keep a backup copy at a disjoint address. A copy is written
// value first and checksum last, primary before backup, so a reset in the
// middle of a write leaves a stale checksum which is detected on the next
// read and the other copy is used instead.
package params

import (
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/beacon.go/pkg/checksum"
	"github.com/robotalks/beacon.go/pkg/nvm"
)

// Store provides validated access to the persisted fields.
// It is not safe for concurrent use.
type Store struct {
	medium    nvm.Medium
	layout    *Layout
	firstBoot bool
}

// NewStore creates a Store over medium.
func NewStore(medium nvm.Medium, layout *Layout) (*Store, error) {
	if layout.byID == nil {
		if err := layout.Resolve(); err != nil {
			return nil, err
		}
	}
	if layout.Field(ParamsSaved) == nil {
		return nil, errors.Errorf("layout must include %s", ParamsSaved)
	}
	return &Store{medium: medium, layout: layout}, nil
}

// Layout returns the field table.
func (s *Store) Layout() *Layout {
	return s.layout
}

// FirstBoot reports whether the last Init wrote the defaults.
func (s *Store) FirstBoot() bool {
	return s.firstBoot
}

// Init prepares the store at boot. When the saved marker is missing
// or invalid, every field is written with its default and the marker is
// written last. Otherwise each field is validated and the corrupted ones
// are reported together in an IntegrityError. Init never writes to repair.
func (s *Store) Init() error {
	marker, err := s.Get(ParamsSaved)
	if err != nil && !IsIntegrity(err) {
		return err
	}
	if err != nil || marker != ParamsSavedMarker {
		glog.Info("no saved parameters, writing defaults")
		s.firstBoot = true
		return s.Reset()
	}
	s.firstBoot = false
	var corrupted []FieldID
	for n := range s.layout.Fields {
		f := &s.layout.Fields[n]
		if _, err := s.Get(f.ID); err != nil {
			if !IsIntegrity(err) {
				return err
			}
			glog.Warningf("parameter %s corrupted", f.Name)
			corrupted = append(corrupted, f.ID)
		}
	}
	if len(corrupted) > 0 {
		return &IntegrityError{Fields: corrupted}
	}
	return nil
}

// Reset writes the default value of every field, the saved marker last.
func (s *Store) Reset() error {
	for n := range s.layout.Fields {
		f := &s.layout.Fields[n]
		if f.ID == ParamsSaved {
			continue
		}
		if err := s.Set(f.ID, f.Default); err != nil {
			return err
		}
	}
	return s.Set(ParamsSaved, ParamsSavedMarker)
}

// Get returns the value of the first copy with a valid checksum.
func (s *Store) Get(id FieldID) (uint32, error) {
	f := s.layout.Field(id)
	if f == nil {
		return 0, ErrUnknownField
	}
	for _, c := range f.Copies() {
		value, valid, err := s.readCopy(f, c)
		if err != nil {
			return 0, err
		}
		if valid {
			return value, nil
		}
	}
	return 0, &IntegrityError{Fields: []FieldID{id}}
}

// Set writes value and checksum to every copy. The first failure is
// returned as a WriteError without retrying.
func (s *Store) Set(id FieldID, value uint32) error {
	f := s.layout.Field(id)
	if f == nil {
		return ErrUnknownField
	}
	if value > f.Max() {
		return errors.Wrapf(ErrOutOfRange, "%s=%d", f.Name, value)
	}
	data := encode(value, f.Width)
	crc := []byte{checksum.CRC8(data)}
	for n, c := range f.Copies() {
		if err := s.medium.Write(f.Region, c.Offset, data); err != nil {
			return &WriteError{Field: id, Backup: n > 0, Offset: c.Offset, Err: err}
		}
		if err := s.medium.Write(f.Region, c.Checksum, crc); err != nil {
			return &WriteError{Field: id, Backup: n > 0, Offset: c.Checksum, Err: err}
		}
	}
	return nil
}

// GetBool reads a flag field. Any non-zero value is true.
func (s *Store) GetBool(id FieldID) (bool, error) {
	v, err := s.Get(id)
	return v != 0, err
}

// SetBool writes a flag field.
func (s *Store) SetBool(id FieldID, on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return s.Set(id, v)
}

func (s *Store) readCopy(f *Field, c Copy) (uint32, bool, error) {
	data, err := s.medium.Read(f.Region, c.Offset, f.Width)
	if err != nil {
		return 0, false, errors.Wrapf(err, "read %s", f.Name)
	}
	crc, err := s.medium.Read(f.Region, c.Checksum, 1)
	if err != nil {
		return 0, false, errors.Wrapf(err, "read %s checksum", f.Name)
	}
	if checksum.CRC8(data) != crc[0] {
		return 0, false, nil
	}
	return decode(data), true, nil
}

func encode(value uint32, width int) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	return buf[4-width:]
}

func decode(data []byte) uint32 {
	var v uint32
	for _, b := range data {
		v = v<<8 | uint32(b)
	}
	return v
}
