package util

import "runtime"

// ReasonablePartitionCount picks a practical default partition count based on
// CPU parallelism. Heuristic: nextPow2(2*GOMAXPROCS), clamped to [1..256].
// This sharply reduces lock contention without bloating memory overhead.
func ReasonablePartitionCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	// 2×CPU, round up to power of two, then clamp to 256.
	n := int(NextPow2(uint64(p * 2)))
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	return n
}

// PartitionIndex maps a 64-bit key hash to a partition index.
// Assumes the partition count is a power of two for the fast mask path,
// but remains correct for arbitrary counts (uses modulo).
func PartitionIndex(hash uint64, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	// Fast path if partition count is a power of two.
	if IsPowerOfTwo(uint64(partitions)) {
		return int(hash & uint64(partitions-1))
	}
	return int(hash % uint64(partitions))
}
