package common

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrAmountOverflow is returned when adding amounts would overflow an uint64
var ErrAmountOverflow = errors.New("amount overflows uint64")

// Uint64ToLittleEndianBytes converts a uint64 to a byte slice in little-endian order
func Uint64ToLittleEndianBytes(num uint64) []byte {
	const uint64ByteSize = 8

	bytes := make([]byte, uint64ByteSize)
	binary.LittleEndian.PutUint64(bytes, num)

	return bytes
}

// LittleEndianBytesToUint64 converts a little-endian byte slice to a uint64
func LittleEndianBytesToUint64(bytes []byte) uint64 {
	return binary.LittleEndian.Uint64(bytes)
}

// SafeAddUint64 adds a and b returning ErrAmountOverflow instead of wrapping around
func SafeAddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}
