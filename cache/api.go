package cache

// Key is the contract cache keys must satisfy: comparable for map lookups,
// pre-hashed for partition assignment, and tagged with the catalog epoch the
// cached value was compiled against.
type Key interface {
	comparable
	// Hash returns a well-distributed 64-bit hash of the key.
	Hash() uint64
	// Epoch returns the catalog generation the key was derived under.
	Epoch() uint64
}

// Value is the contract cached values must satisfy. Clone must return a deep,
// independently mutable copy; SizeBytes must report a stable approximate
// heap footprint.
type Value[V any] interface {
	Clone() V
	SizeBytes() uint64
}

// Cache is a partitioned, byte-budgeted cache of immutable cloneable values.
// All methods are safe for concurrent use by multiple goroutines; operations
// on keys that hash to different partitions never contend.
//
// Typical complexity is amortized O(1): a map lookup plus constant-time list
// adjustments under a single partition lock.
type Cache[K Key, V Value[V]] interface {
	// Get returns a private clone of the value stored for k, or a miss when
	// the key is absent or its entry is stale against the current epoch.
	// Two calls never return the same instance.
	Get(k K) (V, bool)

	// Insert stores or replaces the value for k and synchronously evicts
	// cold entries until the owning partition fits its byte budget again.
	// It returns the number of entries evicted, and EntryTooLarge (with
	// nothing stored) when the sized value alone exceeds the partition
	// budget.
	Insert(k K, v V) (evicted int, err error)

	// RecordWork feeds one execution's observed work for k into the entry's
	// activation state machine. Unknown or stale keys are ignored.
	RecordWork(k K, workUnits uint64)

	// InvalidateEpoch marks every entry compiled before epoch as stale.
	// O(1) per partition: no entries are scanned; staleness is discovered
	// lazily on the next Get. Lower or equal epochs are ignored.
	InvalidateEpoch(epoch uint64)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Clear drops every resident entry. Hit/miss counters are retained.
	Clear()

	// Len returns the total number of resident entries across partitions.
	Len() int

	// BytesUsed returns the total bytes charged across partitions.
	BytesUsed() int64

	// Stats returns a point-in-time diagnostic snapshot. Partitions are
	// locked one at a time, never all at once, and no cache state is
	// mutated during enumeration.
	Stats() Snapshot

	// Close marks the cache closed. Future operations are ignored.
	Close() error
}
