package cache

import (
	"sync"

	"github.com/atlassian-forks/mongo/internal/util"
	"github.com/atlassian-forks/mongo/policy"
)

// partition is an independent shard of the cache with its own lock, map, and
// intrusive recency list (head = most recent, tail = least recent). Keys are
// assigned by hash at construction and never rebalanced, so no operation ever
// needs more than this one lock.
type partition[K Key, V Value[V]] struct {
	// ---- guarded by mu ----
	mu     sync.Mutex
	m      map[K]*node[K, V]
	head   *node[K, V] // most recent
	tail   *node[K, V] // least recent
	len    int         // number of resident entries
	bytes  int64       // sum of resident entry sizes
	budget int64       // per-partition byte budget
	epoch  uint64      // highest epoch seen via invalidate

	// Policy and options (policy uses hooks to manipulate the list).
	pol policy.PartitionPolicy[K, V]
	opt *Options[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newPartition initializes a partition with its byte budget and shared
// (defaulted) options.
func newPartition[K Key, V Value[V]](budget int64, opt *Options[K, V]) *partition[K, V] {
	p := &partition[K, V]{
		m:      make(map[K]*node[K, V]),
		budget: budget,
		opt:    opt,
	}
	p.pol = opt.Policy.New(partitionHooks[K, V]{p: p})
	return p
}

// get returns a private clone of the value stored for k.
// The entry reference is taken under the lock; the clone itself is produced
// after release, so no lock is held across the copy.
func (p *partition[K, V]) get(k K) (V, bool) {
	p.mu.Lock()
	n, ok := p.m[k]
	if !ok {
		p.mu.Unlock()
		p.misses.Add(1)
		p.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	if n.key.Epoch() < p.epoch {
		// Compiled against an older catalog: drop lazily and report a miss.
		// A single comparison per lookup replaces any invalidation sweep.
		p.evictLocked(n, EvictStale)
		p.opt.Metrics.Size(p.len, p.bytes)
		p.mu.Unlock()
		p.misses.Add(1)
		p.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	p.pol.OnGet(n)
	n.reads++
	src := n.val
	p.mu.Unlock()

	p.hits.Add(1)
	p.opt.Metrics.Hit()
	// src is immutable; cloning outside the lock is safe even if the entry
	// is evicted concurrently.
	return src.Clone(), true
}

// insert stores or replaces the entry for k, evicting victims first until the
// new entry fits. Returns the eviction count. The caller has already sized
// the entry and verified it fits an empty partition.
func (p *partition[K, V]) insert(k K, v V, size int64) int {
	p.mu.Lock()
	if k.Epoch() < p.epoch {
		// The entry could never be returned; storing it would only waste
		// budget until eviction found it.
		p.mu.Unlock()
		return 0
	}
	if old, ok := p.m[k]; ok {
		// Same shape recompiled: subtract the prior bytes before sizing the
		// eviction deficit. A replaced entry is not counted as an eviction.
		p.pol.OnRemove(old)
		p.unlink(old)
		delete(p.m, k)
	}
	evicted := 0
	for p.bytes+size > p.budget {
		victim := p.pol.Victim()
		if victim == nil {
			break
		}
		p.evictLocked(victim.(*node[K, V]), EvictBudget)
		evicted++
	}
	n := &node[K, V]{key: k, val: v, bytes: size}
	p.m[k] = n
	p.pol.OnAdd(n)
	p.opt.Metrics.Size(p.len, p.bytes)
	p.mu.Unlock()
	return evicted
}

// recordWork advances the activation state machine for k.
// Transitions happen under the lock so concurrent hits cannot lose updates.
func (p *partition[K, V]) recordWork(k K, w uint64) {
	p.mu.Lock()
	n, ok := p.m[k]
	if !ok || n.key.Epoch() < p.epoch {
		p.mu.Unlock()
		return
	}
	activated, deactivated := n.observeWork(w, p.opt.WorkThreshold, p.opt.WorkMargin)
	p.mu.Unlock()

	if activated {
		p.opt.Metrics.Activate()
	}
	if deactivated {
		p.opt.Metrics.Deactivate()
	}
}

// invalidateEpoch bumps the partition's epoch floor. O(1): nothing is scanned.
func (p *partition[K, V]) invalidateEpoch(epoch uint64) {
	p.mu.Lock()
	if epoch > p.epoch {
		p.epoch = epoch
	}
	p.mu.Unlock()
}

// remove deletes an entry by key. Returns true if the entry existed.
// Explicit removal is not counted as an eviction in metrics.
func (p *partition[K, V]) remove(k K) bool {
	p.mu.Lock()
	n, ok := p.m[k]
	if !ok {
		p.mu.Unlock()
		return false
	}
	p.pol.OnRemove(n)
	p.unlink(n)
	delete(p.m, k)
	p.opt.Metrics.Size(p.len, p.bytes)
	p.mu.Unlock()
	return true
}

// clear drops every resident entry. Counters are retained.
func (p *partition[K, V]) clear() {
	p.mu.Lock()
	for n := p.head; n != nil; n = n.next {
		p.pol.OnRemove(n)
	}
	p.m = make(map[K]*node[K, V])
	p.head, p.tail = nil, nil
	p.len = 0
	p.bytes = 0
	p.opt.Metrics.Size(0, 0)
	p.mu.Unlock()
}

func (p *partition[K, V]) lenResident() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.len
}

func (p *partition[K, V]) bytesUsed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytes
}

// -------------------- internals (mu held) --------------------

// insertFront inserts n at the most-recent end in O(1).
func (p *partition[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = p.head
	if p.head != nil {
		p.head.prev = n
	}
	p.head = n
	if p.tail == nil {
		p.tail = n
	}
	p.len++
	p.bytes += n.bytes
}

// moveToFront promotes n to most recent in O(1).
func (p *partition[K, V]) moveToFront(n *node[K, V]) {
	if n == p.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if p.tail == n {
		p.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = p.head
	if p.head != nil {
		p.head.prev = n
	}
	p.head = n
	if p.tail == nil {
		p.tail = n
	}
}

// unlink removes n from the list and updates counters in O(1).
func (p *partition[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if p.head == n {
		p.head = n.next
	}
	if p.tail == n {
		p.tail = n.prev
	}
	n.prev, n.next = nil, nil
	p.len--
	p.bytes -= n.bytes
	if p.bytes < 0 || p.len < 0 {
		panic("cache: negative partition accounting")
	}
}

// evictLocked removes the node, updates metrics/counters, and fires OnEvict.
func (p *partition[K, V]) evictLocked(n *node[K, V], reason EvictReason) {
	p.pol.OnRemove(n)
	p.unlink(n)
	delete(p.m, n.key)
	p.evicts.Add(1)
	p.opt.Metrics.Evict(reason)
	if cb := p.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

// stats snapshots this partition under its own lock only.
// Entries are listed most recent first. Enumeration never mutates state.
func (p *partition[K, V]) stats(index int) PartitionStats {
	p.mu.Lock()
	s := PartitionStats{
		Index:       index,
		BytesUsed:   p.bytes,
		BudgetBytes: p.budget,
		Epoch:       p.epoch,
		Entries:     make([]EntryStats, 0, p.len),
	}
	for n := p.head; n != nil; n = n.next {
		s.Entries = append(s.Entries, EntryStats{
			KeyHash:   n.key.Hash(),
			Epoch:     n.key.Epoch(),
			SizeBytes: n.bytes,
			State:     n.state,
			Reads:     n.reads,
			LastWork:  n.lastWork,
		})
	}
	p.mu.Unlock()

	s.Hits = p.hits.Load()
	s.Misses = p.misses.Load()
	s.Evictions = p.evicts.Load()
	return s
}

// -------------------- policy hooks --------------------

// partitionHooks adapts the partition's list operations to policy.Hooks.
// All calls happen under the partition lock.
type partitionHooks[K Key, V Value[V]] struct{ p *partition[K, V] }

func (h partitionHooks[K, V]) MoveToFront(x policy.Node[K, V]) { h.p.moveToFront(x.(*node[K, V])) }
func (h partitionHooks[K, V]) PushFront(x policy.Node[K, V])   { h.p.insertFront(x.(*node[K, V])) }
func (h partitionHooks[K, V]) Back() policy.Node[K, V] {
	if h.p.tail == nil {
		return nil
	}
	return h.p.tail
}
func (h partitionHooks[K, V]) Newer(x policy.Node[K, V]) policy.Node[K, V] {
	n := x.(*node[K, V]).prev
	if n == nil {
		return nil
	}
	return n
}
func (h partitionHooks[K, V]) Len() int { return h.p.len }
