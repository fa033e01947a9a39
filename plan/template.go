// Package plan models compiled execution plans as immutable templates.
//
// A Template stores its node tree in an arena addressed by index: cloning a
// template for a new execution is a flat copy of the arena plus a fresh set of
// per-node runtime slots, with no pointer graph to chase. Templates expose
// their approximate heap footprint so a cache can budget them by bytes.
package plan

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Rough per-object heap overheads used for byte sizing. These only need to be
// stable and in the right ballpark; the cache budgets on the estimate.
const (
	templateOverhead = 96
	nodeOverhead     = 64
	stringOverhead   = 16
)

// Metadata is the auxiliary information needed to instantiate a template.
type Metadata struct {
	// Namespace is the collection the plan was compiled for.
	Namespace string
	// Collation names the collation the plan's comparisons assume.
	Collation string
	// ParamSlots is the number of literal-parameter slots to bind at run time.
	ParamSlots int
}

// Template is an immutable compiled plan: a node arena, a root, and metadata.
// The template itself is never executed; every execution works on a Clone,
// which owns a private arena and private runtime slots.
type Template struct {
	nodes []Node
	state []NodeState
	root  NodeID
	meta  Metadata
	size  uint64
	fp    uint64
}

// Root returns the arena index of the root node.
func (t *Template) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena.
func (t *Template) Len() int { return len(t.nodes) }

// Node returns a copy of the node at id, or a zero Node for out-of-range ids.
func (t *Template) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}
	}
	return t.nodes[id]
}

// Meta returns the template metadata.
func (t *Template) Meta() Metadata { return t.meta }

// SizeBytes returns the approximate heap footprint, fixed at build time.
func (t *Template) SizeBytes() uint64 { return t.size }

// Fingerprint returns a structural hash of the plan: two templates with the
// same stages, wiring, names, and fields share a fingerprint. Intended for
// diagnostics and structural-equality checks, not for cache keying.
func (t *Template) Fingerprint() uint64 { return t.fp }

// State returns the mutable runtime slot for the node at id. Slots belong to
// this template instance only; call State on a Clone, never on a shared
// stored template.
func (t *Template) State(id NodeID) *NodeState {
	if id < 0 || int(id) >= len(t.state) {
		return nil
	}
	return &t.state[id]
}

// Clone returns a deep, independent copy: the arena is copied flat, slice
// fields are duplicated, and runtime slots start zeroed. Mutating a clone
// never affects the original or any other clone.
func (t *Template) Clone() *Template {
	nodes := make([]Node, len(t.nodes))
	copy(nodes, t.nodes)
	for i := range nodes {
		if len(nodes[i].Children) > 0 {
			c := make([]NodeID, len(nodes[i].Children))
			copy(c, nodes[i].Children)
			nodes[i].Children = c
		}
		if len(nodes[i].Fields) > 0 {
			f := make([]string, len(nodes[i].Fields))
			copy(f, nodes[i].Fields)
			nodes[i].Fields = f
		}
	}
	return &Template{
		nodes: nodes,
		state: make([]NodeState, len(t.nodes)),
		root:  t.root,
		meta:  t.meta,
		size:  t.size,
		fp:    t.fp,
	}
}

// sizeOf estimates the heap bytes a built template will occupy.
func sizeOf(nodes []Node, meta Metadata) uint64 {
	size := uint64(templateOverhead)
	size += uint64(len(meta.Namespace) + len(meta.Collation))
	for i := range nodes {
		n := &nodes[i]
		size += nodeOverhead
		size += uint64(4 * len(n.Children))
		size += uint64(stringOverhead + len(n.Name))
		for _, f := range n.Fields {
			size += uint64(stringOverhead + len(f))
		}
	}
	// Runtime slots are part of every resident instance.
	size += uint64(len(nodes)) * uint64(binary.Size(NodeState{}))
	return size
}

// fingerprintOf hashes the structural content of the arena in index order.
func fingerprintOf(nodes []Node, root NodeID, meta Metadata) uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	writeStr := func(s string) {
		writeU64(uint64(len(s)))
		_, _ = d.WriteString(s)
	}

	writeStr(meta.Namespace)
	writeStr(meta.Collation)
	writeU64(uint64(meta.ParamSlots))
	writeU64(uint64(root))

	for i := range nodes {
		n := &nodes[i]
		writeU64(uint64(n.Kind))
		writeU64(uint64(len(n.Children)))
		for _, c := range n.Children {
			writeU64(uint64(c))
		}
		writeStr(n.Name)
		writeU64(uint64(len(n.Fields)))
		for _, f := range n.Fields {
			writeStr(f)
		}
		writeU64(uint64(n.Count))
	}
	return d.Sum64()
}
