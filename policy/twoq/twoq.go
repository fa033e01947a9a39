// Package twoq implements 2Q victim selection.
//
// One-off ad-hoc query shapes would otherwise flush a recency-only cache;
// 2Q admits first-time shapes into a probation queue and only shapes seen
// again graduate into the mature part of the recency list.
package twoq

import (
	"container/list"

	"github.com/atlassian-forks/mongo/policy"
)

// twoQ tracks two resident sets plus one ghost set:
//   - A1in (probation): first-time entries, own list + index by node
//   - Am (mature): every resident node not in the probation index; ordering
//     is the partition's recency list itself
//   - A1out (ghosts): keys of recently evicted probation entries; a ghost hit
//     on re-admission bypasses probation
//
// Concurrency: all methods are called under the partition lock.
type twoQ[K comparable, V any] struct {
	h policy.Hooks[K, V]

	capIn    int // probation capacity (per partition)
	capGhost int // ghost capacity (per partition)

	// A1in: most recent at Front() -> oldest at Back()
	inList *list.List
	inIdx  map[policy.Node[K, V]]*list.Element

	// A1out: keys only, most recent at Front()
	ghostList *list.List
	ghostIdx  map[K]*list.Element
}

// New constructs a 2Q policy factory.
// Common choices: capIn ≈ 25% of expected per-partition entries;
// capGhost ≈ 50–100%. Sizes are per partition, not per cache.
func New[K comparable, V any](capIn, capGhost int) policy.Policy[K, V] {
	if capIn < 1 {
		capIn = 1
	}
	if capGhost < 1 {
		capGhost = 1
	}
	return factory[K, V]{capIn: capIn, capGhost: capGhost}
}

type factory[K comparable, V any] struct {
	capIn    int
	capGhost int
}

func (f factory[K, V]) New(h policy.Hooks[K, V]) policy.PartitionPolicy[K, V] {
	return &twoQ[K, V]{
		h:         h,
		capIn:     f.capIn,
		capGhost:  f.capGhost,
		inList:    list.New(),
		inIdx:     make(map[policy.Node[K, V]]*list.Element),
		ghostList: list.New(),
		ghostIdx:  make(map[K]*list.Element),
	}
}

// OnAdd admission rules:
//   - key present in ghosts: second chance, admit directly to Am and drop
//     the ghost entry
//   - otherwise: probation (A1in) plus the most-recent end of the list
func (q *twoQ[K, V]) OnAdd(n policy.Node[K, V]) {
	k := n.Key()
	if ge, ok := q.ghostIdx[k]; ok {
		q.ghostList.Remove(ge)
		delete(q.ghostIdx, k)
		q.h.PushFront(n)
		return
	}
	q.h.PushFront(n)
	q.inIdx[n] = q.inList.PushFront(n)
}

// OnGet: a hit on a probation node graduates it into Am, then the node is
// promoted to the most-recent end either way.
func (q *twoQ[K, V]) OnGet(n policy.Node[K, V]) {
	if el, ok := q.inIdx[n]; ok {
		q.inList.Remove(el)
		delete(q.inIdx, n)
	}
	q.h.MoveToFront(n)
}

// OnRemove: a node leaving probation records its key as a ghost so a quick
// re-insert skips probation. Removals from Am do not populate ghosts.
func (q *twoQ[K, V]) OnRemove(n policy.Node[K, V]) {
	el, ok := q.inIdx[n]
	if !ok {
		return
	}
	q.inList.Remove(el)
	delete(q.inIdx, n)

	k := n.Key()
	if old := q.ghostIdx[k]; old != nil {
		q.ghostList.Remove(old)
	}
	q.ghostIdx[k] = q.ghostList.PushFront(k)

	for q.ghostList.Len() > q.capGhost {
		tail := q.ghostList.Back()
		if tail == nil {
			break
		}
		delete(q.ghostIdx, tail.Value.(K))
		q.ghostList.Remove(tail)
	}
}

// Victim prefers the oldest probation entry while probation is over its
// capacity, otherwise falls back to the coldest resident entry.
func (q *twoQ[K, V]) Victim() policy.Node[K, V] {
	if q.inList.Len() > q.capIn {
		if el := q.inList.Back(); el != nil {
			return el.Value.(policy.Node[K, V])
		}
	}
	return q.h.Back()
}
