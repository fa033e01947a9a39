package cache

// EntryStats describes one resident entry at snapshot time.
type EntryStats struct {
	// KeyHash is the key's 64-bit fingerprint; raw keys are not exposed.
	KeyHash uint64
	// Epoch is the catalog generation the entry was compiled under.
	Epoch uint64
	// SizeBytes is the budget charge fixed at insert.
	SizeBytes int64
	State     ActivationState
	// Reads counts hits served from this entry.
	Reads uint64
	// LastWork is the most recent work sample fed via RecordWork.
	LastWork uint64
}

// PartitionStats describes one partition at snapshot time.
// Entries are ordered most recently used first.
type PartitionStats struct {
	Index       int
	BytesUsed   int64
	BudgetBytes int64
	Epoch       uint64
	Hits        int64
	Misses      int64
	Evictions   uint64
	Entries     []EntryStats
}

// Snapshot is a point-in-time diagnostic view of the whole cache.
// It is assembled partition by partition, so totals may straddle concurrent
// operations, but each partition's figures are internally consistent.
type Snapshot struct {
	BytesUsed   int64
	BudgetBytes int64
	Entries     int
	Hits        int64
	Misses      int64
	Evictions   uint64
	Partitions  []PartitionStats
}
