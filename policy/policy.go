// Package policy defines the pluggable victim-selection interface used by
// cache partitions. A policy maintains recency ordering through hooks provided
// by the partition and, under byte pressure, nominates which entry to evict.
package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// Active reports the entry's activation state: entries whose observed
// execution cost has proven stable are Active, everything else is not.
// Policies may prefer non-active victims but must never flip the state.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
	Active() bool
}

// Hooks expose O(1) operations on the partition's intrusive recency list
// (front = most recent, back = least recent). Implementations are provided
// by the partition.
//
// Concurrency: all hook calls happen under the partition lock.
// The partition owns the key->node map; hooks manage only the list.
type Hooks[K comparable, V any] interface {
	// MoveToFront marks the node most recently used.
	MoveToFront(Node[K, V])
	// PushFront inserts a newly admitted node at the most-recent end.
	PushFront(Node[K, V])
	// Back returns the least recently used node (nil if empty).
	Back() Node[K, V]
	// Newer returns the node one step toward the most-recent end
	// (nil when n is already at the front).
	Newer(n Node[K, V]) Node[K, V]
	// Len returns the number of resident nodes in the partition.
	Len() int
}

// PartitionPolicy is a per-partition policy instance bound to that
// partition's hooks. All methods are invoked under the partition lock.
//
// Semantics:
//   - OnAdd/OnGet maintain ordering (and any policy-private state). Replacing
//     an entry for an existing key is OnRemove of the old node followed by
//     OnAdd of the new one: the value is immutable and the byte size changes,
//     so there is no in-place update.
//   - OnRemove is a notification; the partition performs the actual deletion.
//   - Victim nominates the next entry to evict when the partition is over
//     its byte budget. Returning nil means nothing can be evicted.
type PartitionPolicy[K comparable, V any] interface {
	OnAdd(Node[K, V])
	OnGet(Node[K, V])
	OnRemove(Node[K, V])
	Victim() Node[K, V]
}

// Policy is a factory that creates partition-local policy instances
// bound to a particular partition's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) PartitionPolicy[K, V]
}
