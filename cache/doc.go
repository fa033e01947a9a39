// Package cache provides a partitioned, byte-budgeted cache of immutable
// cloneable values, built for compiled query plans but generic over any key
// carrying a hash and a catalog epoch and any value that can size and clone
// itself.
//
// # Design
//
//   - Concurrency: the cache is split into partitions, each protected by its
//     own mutex. Keys are assigned by hash at construction and never
//     rebalanced, so no operation acquires more than one partition lock and
//     deadlock is impossible by construction. There is no global lock.
//
//   - Clone-on-fetch: Get never returns the stored instance. The entry
//     reference is taken under the lock and the clone is produced after
//     release, so concurrent executions of the same cached plan share no
//     mutable state and no lock is held across the copy.
//
//   - Budget: each partition gets an equal floor share of BudgetBytes, so
//     resident bytes can never exceed the total even with every partition
//     full. Insert sizes the entry once through the injected estimator and
//     evicts synchronously until the partition fits, so the budget holds at
//     every point visible to another operation. An entry larger than a whole
//     partition budget is rejected with EntryTooLarge and the caller proceeds
//     uncached.
//
//   - Eviction: each partition keeps a map plus an intrusive recency list.
//     Victims are chosen by a pluggable policy (package policy). The default
//     prefers an entry that never proved itself over a comparably old proven
//     one; strict LRU and 2Q are also provided.
//
//   - Activation: RecordWork drives a per-entry state machine. Two
//     consecutive samples at or below WorkThreshold promote Inactive to
//     Active; a single sample above WorkThreshold*WorkMargin demotes.
//     Transitions happen under the partition lock, so concurrent hits cannot
//     lose updates.
//
//   - Invalidation: InvalidateEpoch bumps an epoch floor per partition in
//     O(1). Entries compiled before the floor are discovered and dropped
//     lazily on their next lookup; nothing is scanned.
//
//   - No single-flight: two callers racing on the same miss both build and
//     both insert; the last writer wins and the loser is overwritten or
//     evicted. This duplicate work is bounded and accepted — a coalescing
//     loader would serialize plan construction behind the cache.
//
// # Basic usage
//
//	c := cache.New[myKey, *myPlan](cache.Options[myKey, *myPlan]{
//	    BudgetBytes: 64 << 20,
//	})
//	if p, ok := c.Get(key); ok {
//	    // execute the private clone p
//	    c.RecordWork(key, unitsOfWork)
//	} else {
//	    p := compile(query)                // outside any cache lock
//	    if _, err := c.Insert(key, p); err != nil {
//	        // EntryTooLarge: run uncached
//	    }
//	}
//
// On catalog changes:
//
//	c.InvalidateEpoch(newCatalogEpoch)
//
// See package plancache for the query-plan facade with concrete key and
// template types, and metrics/prom for a Prometheus metrics adapter.
package cache
