package nvm

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the medium has been closed.
var ErrClosed = errors.New("medium closed")

// RangeError indicates an access outside of a region.
type RangeError struct {
	Region Region
	Offset int
	Len    int
	Size   int
}

// Error implements error.
func (e *RangeError) Error() string {
	if e.Size == 0 {
		return fmt.Sprintf("%s: no such region", e.Region)
	}
	return fmt.Sprintf("%s: span [%d, %d) out of range [0, %d)", e.Region, e.Offset, e.Offset+e.Len, e.Size)
}
