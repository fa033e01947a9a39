package util

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Sum64 hashes a byte slice with 64-bit xxHash.
// Used for shape fingerprints derived from normalized query bytes.
func Sum64(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Sum64Pair hashes two 64-bit words as a single 16-byte little-endian buffer.
// Used to fold a shape fingerprint together with a catalog epoch so the
// combined value distributes well across partitions.
func Sum64Pair(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], a)
	binary.LittleEndian.PutUint64(buf[8:16], b)
	return xxhash.Sum64(buf[:])
}
