package params

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrUnknownField indicates the field is not part of the layout.
	ErrUnknownField = errors.New("unknown field")
	// ErrOutOfRange indicates the value doesn't fit the field width.
	ErrOutOfRange = errors.New("value out of range")
)

// IntegrityError indicates no copy of a field passed checksum validation.
type IntegrityError struct {
	Fields []FieldID
}

// Error implements error.
func (e *IntegrityError) Error() string {
	names := make([]string, len(e.Fields))
	for n, id := range e.Fields {
		names[n] = id.String()
	}
	return "integrity check failed: " + strings.Join(names, ", ")
}

// Has indicates whether id is among the corrupted fields.
func (e *IntegrityError) Has(id FieldID) bool {
	for _, f := range e.Fields {
		if f == id {
			return true
		}
	}
	return false
}

// WriteError indicates the medium rejected a write.
type WriteError struct {
	Field  FieldID
	Backup bool
	Offset int
	Err    error
}

// Error implements error.
func (e *WriteError) Error() string {
	copyName := "primary"
	if e.Backup {
		copyName = "backup"
	}
	return fmt.Sprintf("write %s %s at %d: %v", e.Field, copyName, e.Offset, e.Err)
}

// Cause returns the medium error.
func (e *WriteError) Cause() error {
	return e.Err
}

// IsIntegrity indicates err is caused by an IntegrityError.
func IsIntegrity(err error) bool {
	_, ok := pkgerrors.Cause(err).(*IntegrityError)
	return ok
}

// IsWrite indicates err is a WriteError.
func IsWrite(err error) bool {
	_, ok := err.(*WriteError)
	return ok
}
