// Package nvm models byte-addressable non-volatile memory split into
// fixed-size regions.
//
// A Medium does not guarantee atomicity of multi-byte writes. Callers
// that need to detect torn writes must add their own redundancy.
package nvm

import "fmt"

// Region identifies a contiguous memory segment.
type Region uint8

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("region%d", uint8(r))
}

// DefaultRegionSize is the size of one MSP430 information segment.
const DefaultRegionSize = 128

// ErasedByte is the value of a flash cell that was never programmed.
const ErasedByte byte = 0xff

// Medium provides byte-level access to regions.
type Medium interface {
	// Read returns n bytes at offset in region.
	Read(region Region, offset, n int) ([]byte, error)
	// Write programs data at offset in region.
	Write(region Region, offset int, data []byte) error
}

// Injector is implemented by media which support fault injection,
// e.g. to emulate radiation-induced bit flips.
type Injector interface {
	// Flip XORs the byte at offset with mask.
	Flip(region Region, offset int, mask byte) error
}

// Geometry describes the size of each region of a medium.
type Geometry []int

// Size returns the size of region, 0 if the region doesn't exist.
func (g Geometry) Size(region Region) int {
	if int(region) >= len(g) {
		return 0
	}
	return g[region]
}

// Check validates a span against the geometry.
func (g Geometry) Check(region Region, offset, n int) error {
	size := g.Size(region)
	if size == 0 {
		return &RangeError{Region: region, Offset: offset, Len: n}
	}
	if offset < 0 || n < 0 || offset+n > size {
		return &RangeError{Region: region, Offset: offset, Len: n, Size: size}
	}
	return nil
}

// Total returns the sum of all region sizes.
func (g Geometry) Total() int {
	var total int
	for _, size := range g {
		total += size
	}
	return total
}

// Base returns the position of region when all regions are laid out
// back to back.
func (g Geometry) Base(region Region) int {
	var base int
	for r := 0; r < int(region) && r < len(g); r++ {
		base += g[r]
	}
	return base
}
