package plan

// NodeKind identifies the stage a plan node executes.
type NodeKind uint8

const (
	// CollScan reads a full collection.
	CollScan NodeKind = iota
	// IndexScan reads an index identified by Node.Name.
	IndexScan
	// Fetch resolves row locations produced by a child into full rows.
	Fetch
	// Filter drops rows not matching the compiled predicate slot.
	Filter
	// Projection narrows rows to Node.Fields.
	Projection
	// Sort orders rows by Node.Fields.
	Sort
	// Limit passes through at most Node.Count rows.
	Limit
	// Skip discards the first Node.Count rows.
	Skip
	// HashJoin joins two children on Node.Fields with a hash table.
	HashJoin
	// MergeJoin joins two sorted children on Node.Fields.
	MergeJoin
	// Group aggregates rows by Node.Fields.
	Group
)

var kindNames = [...]string{
	CollScan:   "collscan",
	IndexScan:  "ixscan",
	Fetch:      "fetch",
	Filter:     "filter",
	Projection: "proj",
	Sort:       "sort",
	Limit:      "limit",
	Skip:       "skip",
	HashJoin:   "hashjoin",
	MergeJoin:  "mergejoin",
	Group:      "group",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// NodeID addresses a node within a template's arena.
type NodeID int32

// InvalidNodeID is returned for out-of-range references.
const InvalidNodeID NodeID = -1

// Node is one stage of an execution plan. Which fields carry meaning depends
// on Kind; unused fields stay zero. Nodes reference their inputs by arena
// index rather than by pointer, so copying the arena copies the whole tree.
type Node struct {
	Kind     NodeKind
	Children []NodeID

	// Name is the collection or index the stage reads, when it reads storage.
	Name string
	// Fields are the projection/sort/join/group columns for the stage.
	Fields []string
	// Count is the limit or skip amount.
	Count int64
}

// NodeState is the per-execution mutable slot attached to each node.
// The stored template never runs; only clones do, each with its own slots.
type NodeState struct {
	Opened      bool
	CursorPos   int64
	RowsEmitted uint64
}
