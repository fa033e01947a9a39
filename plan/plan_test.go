package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFetchPlan assembles IXSCAN -> FETCH -> FILTER -> PROJ, the bread and
// butter shape of an indexed query.
func buildFetchPlan(t *testing.T) *Template {
	t.Helper()

	b := NewBuilder(Metadata{Namespace: "app.users", Collation: "simple", ParamSlots: 2})
	scan, err := b.Add(Node{Kind: IndexScan, Name: "age_1"})
	require.NoError(t, err)
	fetch, err := b.Add(Node{Kind: Fetch, Children: []NodeID{scan}})
	require.NoError(t, err)
	filter, err := b.Add(Node{Kind: Filter, Children: []NodeID{fetch}})
	require.NoError(t, err)
	proj, err := b.Add(Node{Kind: Projection, Children: []NodeID{filter}, Fields: []string{"name", "age"}})
	require.NoError(t, err)

	tmpl, err := b.Build(proj)
	require.NoError(t, err)
	return tmpl
}

func TestBuilder_BuildsTree(t *testing.T) {
	t.Parallel()

	tmpl := buildFetchPlan(t)
	assert.Equal(t, 4, tmpl.Len())
	assert.Equal(t, Projection, tmpl.Node(tmpl.Root()).Kind)
	assert.Equal(t, "app.users", tmpl.Meta().Namespace)
	assert.Positive(t, tmpl.SizeBytes())
}

func TestBuilder_RejectsForwardAndDoubleReferences(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Metadata{Namespace: "app.users"})
	_, err := b.Add(Node{Kind: Fetch, Children: []NodeID{0}})
	assert.Error(t, err, "child must exist before its parent")

	scan, err := b.Add(Node{Kind: CollScan, Name: "app.users"})
	require.NoError(t, err)
	_, err = b.Add(Node{Kind: Filter, Children: []NodeID{scan}})
	require.NoError(t, err)
	_, err = b.Add(Node{Kind: Limit, Children: []NodeID{scan}, Count: 10})
	assert.Error(t, err, "a node may feed only one parent")
}

func TestBuilder_RejectsBadRoots(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Metadata{})
	_, err := b.Build(0)
	assert.ErrorIs(t, err, ErrEmptyPlan)

	b = NewBuilder(Metadata{})
	scan, err := b.Add(Node{Kind: CollScan})
	require.NoError(t, err)
	filter, err := b.Add(Node{Kind: Filter, Children: []NodeID{scan}})
	require.NoError(t, err)

	_, err = b.Build(scan)
	assert.Error(t, err, "a consumed child cannot be the root")

	_, err = b.Build(99)
	assert.Error(t, err)

	tmpl, err := b.Build(filter)
	require.NoError(t, err)
	assert.Equal(t, 2, tmpl.Len())

	_, err = b.Build(filter)
	assert.Error(t, err, "builder is single-use")
	_, err = b.Add(Node{Kind: Limit})
	assert.Error(t, err, "sealed builder rejects Add")
}

func TestBuilder_RejectsDisconnectedNodes(t *testing.T) {
	t.Parallel()

	b := NewBuilder(Metadata{})
	_, err := b.Add(Node{Kind: CollScan})
	require.NoError(t, err)
	orphanRoot, err := b.Add(Node{Kind: CollScan})
	require.NoError(t, err)

	_, err = b.Build(orphanRoot)
	assert.Error(t, err, "node 0 is unreachable from the chosen root")
}

func TestTemplate_CloneIsDeep(t *testing.T) {
	t.Parallel()

	tmpl := buildFetchPlan(t)
	a := tmpl.Clone()
	b := tmpl.Clone()
	require.NotSame(t, a, b)

	// Mutate a's arena through the one mutable surface and through slice
	// aliasing; neither may reach b or the original.
	a.State(a.Root()).RowsEmitted = 42
	a.State(a.Root()).Opened = true
	na := a.Node(a.Root())
	na.Fields[0] = "clobbered"

	assert.Zero(t, b.State(b.Root()).RowsEmitted)
	assert.False(t, b.State(b.Root()).Opened)
	assert.Equal(t, "name", b.Node(b.Root()).Fields[0])
	assert.Equal(t, "name", tmpl.Node(tmpl.Root()).Fields[0])
}

func TestTemplate_CloneStartsWithFreshState(t *testing.T) {
	t.Parallel()

	tmpl := buildFetchPlan(t)
	run := tmpl.Clone()
	run.State(0).CursorPos = 1000
	run.State(0).Opened = true

	next := tmpl.Clone()
	assert.Zero(t, next.State(0).CursorPos)
	assert.False(t, next.State(0).Opened)
}

func TestTemplate_CloneKeepsSizeAndFingerprint(t *testing.T) {
	t.Parallel()

	tmpl := buildFetchPlan(t)
	clone := tmpl.Clone()
	assert.Equal(t, tmpl.SizeBytes(), clone.SizeBytes())
	assert.Equal(t, tmpl.Fingerprint(), clone.Fingerprint())
	assert.Equal(t, tmpl.Root(), clone.Root())
	assert.Equal(t, tmpl.Meta(), clone.Meta())
}

func TestTemplate_FingerprintIsStructural(t *testing.T) {
	t.Parallel()

	build := func(index string) *Template {
		b := NewBuilder(Metadata{Namespace: "app.users"})
		scan, err := b.Add(Node{Kind: IndexScan, Name: index})
		require.NoError(t, err)
		fetch, err := b.Add(Node{Kind: Fetch, Children: []NodeID{scan}})
		require.NoError(t, err)
		tmpl, err := b.Build(fetch)
		require.NoError(t, err)
		return tmpl
	}

	assert.Equal(t, build("age_1").Fingerprint(), build("age_1").Fingerprint(),
		"independently built identical plans must share a fingerprint")
	assert.NotEqual(t, build("age_1").Fingerprint(), build("name_1").Fingerprint(),
		"a different index choice must change the fingerprint")
}

func TestTemplate_SizeGrowsWithPlan(t *testing.T) {
	t.Parallel()

	tb := NewBuilder(Metadata{Namespace: "app.users"})
	scanOnly, err := tb.Add(Node{Kind: CollScan, Name: "app.users"})
	require.NoError(t, err)
	tiny, err := tb.Build(scanOnly)
	require.NoError(t, err)

	small := buildFetchPlan(t)
	assert.Greater(t, small.SizeBytes(), tiny.SizeBytes())

	b := NewBuilder(Metadata{Namespace: "app.users", Collation: "simple", ParamSlots: 2})
	left, err := b.Add(Node{Kind: IndexScan, Name: "age_1"})
	require.NoError(t, err)
	right, err := b.Add(Node{Kind: IndexScan, Name: "name_1"})
	require.NoError(t, err)
	join, err := b.Add(Node{Kind: HashJoin, Children: []NodeID{left, right}, Fields: []string{"user_id"}})
	require.NoError(t, err)
	sort, err := b.Add(Node{Kind: Sort, Children: []NodeID{join}, Fields: []string{"age", "name"}})
	require.NoError(t, err)
	big, err := b.Build(sort)
	require.NoError(t, err)

	assert.Greater(t, big.SizeBytes(), uint64(0))
	assert.NotEqual(t, small.Fingerprint(), big.Fingerprint())
}

func TestTemplate_OutOfRangeAccess(t *testing.T) {
	t.Parallel()

	tmpl := buildFetchPlan(t)
	assert.Equal(t, Node{}, tmpl.Node(-1))
	assert.Equal(t, Node{}, tmpl.Node(NodeID(tmpl.Len())))
	assert.Nil(t, tmpl.State(-1))
	assert.Nil(t, tmpl.State(NodeID(tmpl.Len())))
}

func TestNodeKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ixscan", IndexScan.String())
	assert.Equal(t, "collscan", CollScan.String())
	assert.Equal(t, "unknown", NodeKind(250).String())
}
