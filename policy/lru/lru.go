// Package lru implements recency-based victim selection.
//
// Two variants are provided: New is strict least-recently-used, and
// NewInactiveFirst additionally prefers to evict an entry that never
// proved itself (not Active) over a comparably old proven one.
package lru

import "github.com/atlassian-forks/mongo/policy"

// DefaultLookback bounds how far NewInactiveFirst scans from the cold end
// of the recency list when searching for a non-active victim.
const DefaultLookback = 8

// New returns a strict LRU policy: the victim is always the coldest entry.
func New[K comparable, V any]() policy.Policy[K, V] {
	return factory[K, V]{lookback: 0}
}

// NewInactiveFirst returns an LRU policy that scans up to lookback entries
// from the cold end and evicts the oldest non-active entry in that window.
// If every entry in the window is active, the coldest entry is evicted.
// lookback < 1 falls back to DefaultLookback.
func NewInactiveFirst[K comparable, V any](lookback int) policy.Policy[K, V] {
	if lookback < 1 {
		lookback = DefaultLookback
	}
	return factory[K, V]{lookback: lookback}
}

type factory[K comparable, V any] struct {
	lookback int
}

// New implements policy.Policy by binding partition hooks and returning
// a partition-local policy instance.
func (f factory[K, V]) New(h policy.Hooks[K, V]) policy.PartitionPolicy[K, V] {
	return &lru[K, V]{h: h, lookback: f.lookback}
}

// lru is a classic "move-to-front" recency policy. It delegates list
// manipulation to policy.Hooks provided by the partition.
type lru[K comparable, V any] struct {
	h        policy.Hooks[K, V]
	lookback int // 0 = strict LRU
}

// OnAdd places the new entry at the most-recent end. The policy itself does
// not trigger evictions; the partition drives them through Victim when the
// byte budget is exceeded.
func (p *lru[K, V]) OnAdd(n policy.Node[K, V]) { p.h.PushFront(n) }

// OnGet promotes the entry to most recent.
func (p *lru[K, V]) OnGet(n policy.Node[K, V]) { p.h.MoveToFront(n) }

// OnRemove is a no-op; pure recency keeps no private state.
func (p *lru[K, V]) OnRemove(policy.Node[K, V]) {}

// Victim returns the coldest entry, or — with a lookback window — the
// oldest non-active entry within that window from the cold end.
func (p *lru[K, V]) Victim() policy.Node[K, V] {
	back := p.h.Back()
	if back == nil || p.lookback == 0 {
		return back
	}
	n := back
	for i := 0; n != nil && i < p.lookback; i++ {
		if !n.Active() {
			return n
		}
		n = p.h.Newer(n)
	}
	return back
}
