// Package checksum provides the 8-bit integrity code used to protect
// values persisted in non-volatile memory.
package checksum

// Polynomial is the CRC-8/CCITT generator polynomial (x^8 + x^2 + x + 1).
const Polynomial uint8 = 0x07

// Initial is the CRC register value before any byte is consumed.
const Initial uint8 = 0x00

var table [256]uint8

func init() {
	for n := range table {
		crc := uint8(n)
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
		table[n] = crc
	}
}

// Update continues a CRC computation over data.
func Update(crc uint8, data []byte) uint8 {
	for _, b := range data {
		crc = table[crc^b]
	}
	return crc
}

// CRC8 computes the checksum of data.
func CRC8(data []byte) uint8 {
	return Update(Initial, data)
}

// Bitwise computes the same checksum without the lookup table.
// It is kept as the reference the table is verified against.
func Bitwise(data []byte) uint8 {
	crc := Initial
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
