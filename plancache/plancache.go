// Package plancache binds the generic partitioned cache to compiled query
// plans: ShapeKey keys and plan.Template values. The query engine consults it
// before optimizing — a hit returns a private clone ready to execute, a miss
// means the caller optimizes the query itself and offers the result back via
// Insert.
package plancache

import (
	"github.com/atlassian-forks/mongo/cache"
	"github.com/atlassian-forks/mongo/plan"
	"github.com/atlassian-forks/mongo/policy"
)

// Config configures a PlanCache. BudgetBytes is required; every other field
// defaults like the underlying cache.Options.
type Config struct {
	// BudgetBytes bounds the aggregate memory charged to cached templates.
	BudgetBytes int64
	// Partitions fixes the partition count (0 = auto).
	Partitions int
	// Policy selects eviction victims (nil = recency with inactive
	// preference).
	Policy policy.Policy[ShapeKey, *plan.Template]
	// WorkThreshold and WorkMargin parameterize plan activation; see
	// cache.Options.
	WorkThreshold uint64
	WorkMargin    float64
	// OnEvict observes evictions (called under the partition lock).
	OnEvict func(k ShapeKey, t *plan.Template, reason cache.EvictReason)
	Metrics cache.Metrics
}

// PlanCache caches compiled plan templates by query shape.
// All methods are safe for concurrent use.
type PlanCache struct {
	c cache.Cache[ShapeKey, *plan.Template]
}

// New constructs a PlanCache. Panics if cfg.BudgetBytes <= 0.
func New(cfg Config) *PlanCache {
	return &PlanCache{c: cache.New[ShapeKey, *plan.Template](cache.Options[ShapeKey, *plan.Template]{
		BudgetBytes:   cfg.BudgetBytes,
		Partitions:    cfg.Partitions,
		Policy:        cfg.Policy,
		WorkThreshold: cfg.WorkThreshold,
		WorkMargin:    cfg.WorkMargin,
		OnEvict:       cfg.OnEvict,
		Metrics:       cfg.Metrics,
	})}
}

// Get returns a private clone of the template cached for key. A returned
// clone is the caller's to mutate and execute; cache state is unaffected by
// anything that happens to it, including cancellation mid-execution.
func (pc *PlanCache) Get(key ShapeKey) (*plan.Template, bool) {
	return pc.c.Get(key)
}

// Insert stores or replaces the template for key, evicting synchronously to
// respect the budget. Returns the number of entries evicted. The only
// possible error is EntryTooLarge; callers proceed uncached on it.
func (pc *PlanCache) Insert(key ShapeKey, t *plan.Template) (int, error) {
	return pc.c.Insert(key, t)
}

// RecordWork reports one execution's observed work for key. Call it after
// each execution regardless of success, unless failed runs should not count.
func (pc *PlanCache) RecordWork(key ShapeKey, workUnits uint64) {
	pc.c.RecordWork(key, workUnits)
}

// InvalidateEpoch marks all templates compiled before epoch as stale.
// The catalog layer calls this on schema or index changes.
func (pc *PlanCache) InvalidateEpoch(epoch uint64) {
	pc.c.InvalidateEpoch(epoch)
}

// Remove drops the template for key if present.
func (pc *PlanCache) Remove(key ShapeKey) bool { return pc.c.Remove(key) }

// Clear drops every cached template.
func (pc *PlanCache) Clear() { pc.c.Clear() }

// Len returns the number of resident templates.
func (pc *PlanCache) Len() int { return pc.c.Len() }

// BytesUsed returns the bytes currently charged against the budget.
func (pc *PlanCache) BytesUsed() int64 { return pc.c.BytesUsed() }

// Stats returns the read-only diagnostic snapshot.
func (pc *PlanCache) Stats() cache.Snapshot { return pc.c.Stats() }

// Close marks the cache closed; subsequent operations are ignored.
func (pc *PlanCache) Close() error { return pc.c.Close() }
