package plan

import (
	"errors"
	"fmt"
)

// ErrEmptyPlan is returned by Build when no nodes were added.
var ErrEmptyPlan = errors.New("plan: template has no nodes")

// Builder assembles a Template bottom-up. Children must be added before
// their parent, which makes cycles impossible by construction, and every
// node may feed at most one parent so the arena always forms a tree.
//
// A Builder is single-use: Build seals it.
type Builder struct {
	nodes  []Node
	parent []bool // nodes[i] already referenced as a child
	meta   Metadata
	sealed bool
}

// NewBuilder returns a Builder for a template with the given metadata.
func NewBuilder(meta Metadata) *Builder {
	return &Builder{meta: meta}
}

// Add appends a node to the arena and returns its id.
// Children must reference previously added, not-yet-consumed nodes.
func (b *Builder) Add(n Node) (NodeID, error) {
	if b.sealed {
		return InvalidNodeID, errors.New("plan: builder already sealed")
	}
	for _, c := range n.Children {
		if c < 0 || int(c) >= len(b.nodes) {
			return InvalidNodeID, fmt.Errorf("plan: child %d out of range (have %d nodes)", c, len(b.nodes))
		}
		if b.parent[c] {
			return InvalidNodeID, fmt.Errorf("plan: node %d already has a parent", c)
		}
	}
	for _, c := range n.Children {
		b.parent[c] = true
	}
	b.nodes = append(b.nodes, n)
	b.parent = append(b.parent, false)
	return NodeID(len(b.nodes) - 1), nil
}

// Build seals the builder and returns the immutable template rooted at root.
// Every node except the root must have been consumed as a child.
func (b *Builder) Build(root NodeID) (*Template, error) {
	if b.sealed {
		return nil, errors.New("plan: builder already sealed")
	}
	if len(b.nodes) == 0 {
		return nil, ErrEmptyPlan
	}
	if root < 0 || int(root) >= len(b.nodes) {
		return nil, fmt.Errorf("plan: root %d out of range (have %d nodes)", root, len(b.nodes))
	}
	if b.parent[root] {
		return nil, fmt.Errorf("plan: root %d is a child of another node", root)
	}
	for id := range b.nodes {
		if NodeID(id) != root && !b.parent[id] {
			return nil, fmt.Errorf("plan: node %d is unreachable from root %d", id, root)
		}
	}
	b.sealed = true

	return &Template{
		nodes: b.nodes,
		state: make([]NodeState, len(b.nodes)),
		root:  root,
		meta:  b.meta,
		size:  sizeOf(b.nodes, b.meta),
		fp:    fingerprintOf(b.nodes, root, b.meta),
	}, nil
}
