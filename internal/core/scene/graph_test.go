package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/pkg/sequence"
)

func TestAddAndFind(t *testing.T) {
	g := NewGraph(bus.New())
	n := NewNodeWithID("a", "A")
	require.NoError(t, g.Add(n, ""))

	assert.Same(t, n, g.Find("a"))
	assert.Equal(t, RootID, n.ParentID)
	assert.Equal(t, 2, g.Len())
}

func TestAddDuplicateID(t *testing.T) {
	g := NewGraph(bus.New())
	require.NoError(t, g.Add(NewNodeWithID("a", "A"), ""))

	err := g.Add(NewNodeWithID("a", "A2"), "")
	var dup DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.ID)
}

func TestAddUnknownParent(t *testing.T) {
	g := NewGraph(bus.New())
	err := g.Add(NewNodeWithID("a", "A"), "ghost")
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ID)
}

func TestRemoveDetachesButKeepsChildSubtrees(t *testing.T) {
	g := NewGraph(bus.New())
	parent := NewNodeWithID("p", "P")
	child := NewNodeWithID("c", "C")
	grandchild := NewNodeWithID("gc", "GC")
	require.NoError(t, g.Add(parent, ""))
	require.NoError(t, g.Add(child, "p"))
	require.NoError(t, g.Add(grandchild, "c"))

	require.True(t, g.Remove("p"))

	// p and everything under it is no longer attached
	assert.Nil(t, g.Find("p"))
	assert.Nil(t, g.Find("c"))
	assert.Nil(t, g.Find("gc"))

	// the direct child is unparented but its own subtree stays intact
	assert.Empty(t, child.ParentID)
	require.Len(t, child.Children(), 1)
	assert.Same(t, grandchild, child.Children()[0])

	// the orphan subtree can be re-attached wholesale
	require.NoError(t, g.Add(child, ""))
	assert.Same(t, grandchild, g.Find("gc"))
}

func TestRemoveAbsentAndRoot(t *testing.T) {
	g := NewGraph(bus.New())
	assert.False(t, g.Remove("nope"))
	assert.False(t, g.Remove(RootID))
}

func TestFindReturnsNodeIffAttached(t *testing.T) {
	g := NewGraph(bus.New())
	n := NewNodeWithID("a", "A")
	assert.Nil(t, g.Find("a"))
	require.NoError(t, g.Add(n, ""))
	assert.Same(t, n, g.Find("a"))
	require.True(t, g.Remove("a"))
	assert.Nil(t, g.Find("a"))
}

func TestTraversePreOrderInsertionOrder(t *testing.T) {
	g := NewGraph(bus.New())
	a := NewNodeWithID("a", "A")
	b := NewNodeWithID("b", "B")
	a1 := NewNodeWithID("a1", "A1")
	a2 := NewNodeWithID("a2", "A2")
	require.NoError(t, g.Add(a, ""))
	require.NoError(t, g.Add(b, ""))
	require.NoError(t, g.Add(a1, "a"))
	require.NoError(t, g.Add(a2, "a"))

	ids := sequence.ToArray(g.Traverse(), func(n *Node) string { return n.ID })
	assert.Equal(t, []string{RootID, "a", "a1", "a2", "b"}, ids)

	// traversal is restartable: a second pass yields the same sequence
	again := sequence.ToArray(g.Traverse(), func(n *Node) string { return n.ID })
	assert.Equal(t, ids, again)
}

func TestTraverseIsLazy(t *testing.T) {
	g := NewGraph(bus.New())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.Add(NewNodeWithID(id, id), ""))
	}
	visited := 0
	for range g.Traverse().Seq() {
		visited++
		if visited == 2 {
			break
		}
	}
	assert.Equal(t, 2, visited)
}

func TestStructuralEvents(t *testing.T) {
	b := bus.New()
	var added []ObjectAdded
	var removed []ObjectRemoved
	_, err := b.Subscribe(EventObjectAdded, func(e bus.Event) error {
		added = append(added, e.Data().(ObjectAdded))
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe(EventObjectRemoved, func(e bus.Event) error {
		removed = append(removed, e.Data().(ObjectRemoved))
		return nil
	})
	require.NoError(t, err)

	g := NewGraph(b)
	n := NewNodeWithID("a", "A")
	require.NoError(t, g.Add(n, ""))
	require.Len(t, added, 1)
	assert.Same(t, n, added[0].Object)
	assert.Equal(t, RootID, added[0].Parent.ID)

	require.True(t, g.Remove("a"))
	require.Len(t, removed, 1)
	assert.Same(t, n, removed[0].Object)
}

func TestRemoveSubtreeEmitsOneEvent(t *testing.T) {
	b := bus.New()
	var removed []ObjectRemoved
	_, err := b.Subscribe(EventObjectRemoved, func(e bus.Event) error {
		removed = append(removed, e.Data().(ObjectRemoved))
		return nil
	})
	require.NoError(t, err)

	g := NewGraph(b)
	parent := NewNodeWithID("p", "P")
	require.NoError(t, g.Add(parent, ""))
	require.NoError(t, g.Add(NewNodeWithID("c", "C"), "p"))
	require.NoError(t, g.Add(NewNodeWithID("gc", "GC"), "c"))

	// descendants leave the index silently: consumers releasing per-node
	// resources traverse the subtree before removing
	require.True(t, g.Remove("p"))
	require.Len(t, removed, 1)
	assert.Same(t, parent, removed[0].Object)
	assert.Nil(t, g.Find("c"))
	assert.Nil(t, g.Find("gc"))
}

func TestReparent(t *testing.T) {
	g := NewGraph(bus.New())
	a := NewNodeWithID("a", "A")
	b := NewNodeWithID("b", "B")
	c := NewNodeWithID("c", "C")
	require.NoError(t, g.Add(a, ""))
	require.NoError(t, g.Add(b, ""))
	require.NoError(t, g.Add(c, "a"))

	require.NoError(t, g.Reparent("c", "b"))
	assert.Equal(t, "b", c.ParentID)
	assert.Equal(t, 0, a.ChildCount())
	require.Len(t, b.Children(), 1)

	// moving a node under its own descendant must fail
	require.NoError(t, g.Reparent("a", "b"))
	err := g.Reparent("b", "c")
	assert.True(t, errors.Is(err, ErrReparentCycle))

	assert.True(t, errors.Is(g.Reparent(RootID, "b"), ErrRootImmutable))
}

func TestDigestChangesWithStructure(t *testing.T) {
	g := NewGraph(bus.New())
	before := g.Digest()
	require.NoError(t, g.Add(NewNodeWithID("a", "A"), ""))
	afterAdd := g.Digest()
	assert.NotEqual(t, before, afterAdd)
	require.True(t, g.Remove("a"))
	assert.Equal(t, before, g.Digest())
}
