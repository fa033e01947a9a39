package cache

import (
	"github.com/atlassian-forks/mongo/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictBudget — removed to bring a partition back under its byte budget.
	EvictBudget EvictReason = iota
	// EvictStale — entry's epoch predates the current catalog epoch
	// (lazy removal on access).
	EvictStale
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes int64)
	// Activate/Deactivate fire on activation state transitions.
	Activate()
	Deactivate()
}

// Defaults applied by New when the corresponding Options field is zero.
const (
	// DefaultWorkThreshold is the work-units bound below which an execution
	// counts toward activating its entry.
	DefaultWorkThreshold = 10_000
	// DefaultWorkMargin is the multiplicative margin over the threshold past
	// which a single observation deactivates an entry.
	DefaultWorkMargin = 10.0
)

// entryOverhead approximates the per-entry bookkeeping cost (map slot, node,
// links) charged on top of the value's own size by the default estimator.
const entryOverhead = 128

// Options configures the cache. Zero values are safe where noted; sane
// defaults are applied in New():
//   - nil Policy     => lru.NewInactiveFirst(lru.DefaultLookback)
//   - nil Estimator  => v.SizeBytes() + entryOverhead
//   - nil Hasher     => K.Hash()
//   - nil Metrics    => NoopMetrics
//   - Partitions <= 0 => auto (power of two derived from GOMAXPROCS)
type Options[K Key, V Value[V]] struct {
	// BudgetBytes is the total byte budget. Each partition gets an equal
	// floor share, so resident bytes never exceed this total. Required,
	// must be > 0 and at least the partition count.
	BudgetBytes int64

	// Partitions fixes the partition count at construction; entries are
	// never rebalanced. Non-power-of-two counts are honored (modulo
	// assignment instead of masking).
	Partitions int

	// Policy selects eviction victims under byte pressure.
	Policy policy.Policy[K, V]

	// Estimator computes the bytes charged for an entry. The estimate is
	// taken once at insert and never recomputed.
	Estimator func(k K, v V) uint64

	// WorkThreshold and WorkMargin parameterize the activation state
	// machine: two consecutive samples at or below WorkThreshold activate
	// an entry; one sample above WorkThreshold*WorkMargin deactivates it.
	WorkThreshold uint64
	WorkMargin    float64

	// Hasher overrides partition assignment (tests force co-residency with
	// it). Nil uses the key's own Hash.
	Hasher func(K) uint64

	// OnEvict is called for every eviction under the partition lock;
	// keep callbacks lightweight.
	OnEvict func(k K, v V, reason EvictReason)

	Metrics Metrics
}
