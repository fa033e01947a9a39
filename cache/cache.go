package cache

import (
	"math"
	"sync/atomic"

	"github.com/atlassian-forks/mongo/internal/util"
	"github.com/atlassian-forks/mongo/policy/lru"
)

// planCache is the partitioned implementation behind the Cache interface.
// All methods are safe for concurrent use by multiple goroutines.
type planCache[K Key, V Value[V]] struct {
	parts  []*partition[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]
}

// New constructs a cache with the provided Options.
// The partition count is fixed for the cache's lifetime; each partition gets
// an equal floor share of the byte budget, so the aggregate never exceeds
// BudgetBytes (remainder bytes from a non-divisible budget go unused).
// Panics if BudgetBytes <= 0 or if the budget is smaller than the partition
// count.
func New[K Key, V Value[V]](opt Options[K, V]) Cache[K, V] {
	if opt.BudgetBytes <= 0 {
		panic("BudgetBytes must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.NewInactiveFirst[K, V](lru.DefaultLookback)
	}
	if opt.Estimator == nil {
		opt.Estimator = func(_ K, v V) uint64 { return v.SizeBytes() + entryOverhead }
	}
	if opt.WorkThreshold == 0 {
		opt.WorkThreshold = DefaultWorkThreshold
	}
	if opt.WorkMargin <= 0 {
		opt.WorkMargin = DefaultWorkMargin
	}
	if opt.Hasher == nil {
		opt.Hasher = func(k K) uint64 { return k.Hash() }
	}

	// Partition count: explicit counts are honored as given (assignment is
	// hash mod n), only the automatic default is rounded to a power of two
	// for the fast mask path.
	n := opt.Partitions
	if n <= 0 {
		n = util.ReasonablePartitionCount()
	}
	opt.Partitions = n

	c := &planCache[K, V]{
		hash: opt.Hasher,
		opt:  opt,
	}
	perBudget := opt.BudgetBytes / int64(n)
	if perBudget == 0 {
		panic("BudgetBytes must be at least the partition count")
	}
	c.parts = make([]*partition[K, V], n)
	for i := 0; i < n; i++ {
		c.parts[i] = newPartition[K, V](perBudget, &c.opt)
	}
	return c
}

// ---- Cache[K,V] implementation ----

// Get hashes k to its partition and returns a private clone on a hit.
func (c *planCache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.partitionOf(k).get(k)
}

// Insert sizes the value via the estimator and stores it in the owning
// partition, evicting synchronously until the partition budget holds again.
// Construction of v happened entirely outside any cache lock; if two callers
// raced on the same miss, the last insert wins.
func (c *planCache[K, V]) Insert(k K, v V) (int, error) {
	if c.closed.Load() {
		return 0, nil
	}
	p := c.partitionOf(k)
	size := clampSize(c.opt.Estimator(k, v))
	if size > p.budget {
		return 0, &EntryTooLargeError{SizeBytes: size, PartitionBudget: p.budget}
	}
	return p.insert(k, v, size), nil
}

// RecordWork feeds one execution's work sample into k's activation state.
func (c *planCache[K, V]) RecordWork(k K, workUnits uint64) {
	if c.closed.Load() {
		return
	}
	c.partitionOf(k).recordWork(k, workUnits)
}

// InvalidateEpoch broadcasts the new epoch floor to all partitions.
// Each partition takes its own lock briefly; entries are never scanned.
func (c *planCache[K, V]) InvalidateEpoch(epoch uint64) {
	if c.closed.Load() {
		return
	}
	for _, p := range c.parts {
		p.invalidateEpoch(epoch)
	}
}

// Remove deletes k if present and returns true on success.
func (c *planCache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.partitionOf(k).remove(k)
}

// Clear drops all entries, one partition at a time.
func (c *planCache[K, V]) Clear() {
	if c.closed.Load() {
		return
	}
	for _, p := range c.parts {
		p.clear()
	}
}

// Len returns the total number of resident entries across all partitions.
func (c *planCache[K, V]) Len() int {
	total := 0
	for _, p := range c.parts {
		total += p.lenResident()
	}
	return total
}

// BytesUsed returns the total bytes charged across all partitions.
func (c *planCache[K, V]) BytesUsed() int64 {
	var total int64
	for _, p := range c.parts {
		total += p.bytesUsed()
	}
	return total
}

// Stats assembles a snapshot, locking one partition at a time so unrelated
// traffic is never stalled behind the enumeration.
func (c *planCache[K, V]) Stats() Snapshot {
	s := Snapshot{
		BudgetBytes: c.opt.BudgetBytes,
		Partitions:  make([]PartitionStats, len(c.parts)),
	}
	for i, p := range c.parts {
		ps := p.stats(i)
		s.Partitions[i] = ps
		s.BytesUsed += ps.BytesUsed
		s.Entries += len(ps.Entries)
		s.Hits += ps.Hits
		s.Misses += ps.Misses
		s.Evictions += ps.Evictions
	}
	return s
}

// Close marks the cache as closed. Future operations are ignored.
func (c *planCache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// ---- helpers ----

// partitionOf maps a key to its owning partition. The mapping depends only
// on the key hash and the fixed partition count.
func (c *planCache[K, V]) partitionOf(k K) *partition[K, V] {
	return c.parts[util.PartitionIndex(c.hash(k), len(c.parts))]
}

// clampSize converts an unsigned estimate into the signed byte accounting
// domain without overflow.
func clampSize(size uint64) int64 {
	if size > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(size)
}
