package cache

import "math"

// ActivationState classifies a cached entry by the stability of its observed
// execution cost. New entries start Inactive and must earn Active by
// performing well twice in a row; a badly degraded observation demotes them.
type ActivationState uint8

const (
	// Inactive — not yet proven, or demoted after a degraded execution.
	Inactive ActivationState = iota
	// Active — observed work stayed at or below the threshold twice in a row.
	Active
)

func (s ActivationState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// activationStreak is how many consecutive at-or-below-threshold samples
// promote an entry. Two guards against a plan that performed well once by
// chance.
const activationStreak = 2

// node is an intrusive doubly linked list element owned by one partition.
// It carries the cached value alongside recency links, byte accounting, and
// activation bookkeeping. All fields are guarded by the partition lock.
type node[K Key, V Value[V]] struct {
	key K
	val V

	// Intrusive list links: head is most recent, tail is least recent.
	prev *node[K, V]
	next *node[K, V]

	// Bytes charged against the partition budget, fixed at insert.
	bytes int64

	// Activation bookkeeping.
	state     ActivationState
	lowStreak uint8
	lastWork  uint64

	// reads counts hits served from this entry (diagnostics only).
	reads uint64
}

// Key returns the node key (part of the policy.Node interface).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored value (part of the policy.Node
// interface). Only read through it while holding the partition lock.
func (n *node[K, V]) Value() *V { return &n.val }

// Active reports the activation state (part of the policy.Node interface).
func (n *node[K, V]) Active() bool { return n.state == Active }

// observeWork runs one step of the activation state machine.
// Called under the partition lock. Samples between the threshold and
// threshold*margin reset the streak without demoting.
func (n *node[K, V]) observeWork(w, threshold uint64, margin float64) (activated, deactivated bool) {
	if w <= threshold {
		if n.lowStreak < math.MaxUint8 {
			n.lowStreak++
		}
		if n.state == Inactive && n.lowStreak >= activationStreak {
			n.state = Active
			activated = true
		}
	} else {
		n.lowStreak = 0
		if n.state == Active && float64(w) > float64(threshold)*margin {
			n.state = Inactive
			deactivated = true
		}
	}
	n.lastWork = w
	return activated, deactivated
}
