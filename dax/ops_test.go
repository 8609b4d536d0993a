package dax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
)

func TestCopyNodeDeepCopiesSubtree(t *testing.T) {
	tree := newTestTree(t)
	src, err := tree.VisitorFromPath("src")
	require.NoError(t, err)
	require.NoError(t, src.EnsureArray())
	for i := int32(0); i < 2; i++ {
		child, err := src.ArrayAppend()
		require.NoError(t, err)
		_, err = child.TrySetInt32(i)
		require.NoError(t, err)
	}

	dst, err := tree.VisitorFromPath("dst")
	require.NoError(t, err)
	require.NoError(t, tree.CopyNode(dst, src))

	srcLen, err := src.ArrayLen()
	require.NoError(t, err)
	dstLen, err := dst.ArrayLen()
	require.NoError(t, err)
	assert.Equal(t, srcLen, dstLen)

	srcId, err := src.At(0).NodeId()
	require.NoError(t, err)
	dstId, err := dst.At(0).NodeId()
	require.NoError(t, err)
	assert.NotEqual(t, srcId, dstId, "copy must allocate new nodes, not alias the source")

	v, ok, err := dst.At(0).TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(0), v)
}

func TestMoveNodeDetachesSourceAndPreservesChildIds(t *testing.T) {
	tree := newTestTree(t)
	src, err := tree.VisitorFromPath("src")
	require.NoError(t, err)
	require.NoError(t, src.EnsureArray())
	child, err := src.ArrayAppend()
	require.NoError(t, err)
	childId, err := child.NodeId()
	require.NoError(t, err)

	dst, err := tree.VisitorFromPath("dst")
	require.NoError(t, err)
	require.NoError(t, tree.MoveNode(dst, src))

	srcKind, err := src.Kind()
	require.NoError(t, err)
	assert.Equal(t, node.KindEmpty, srcKind)

	dstLen, err := dst.ArrayLen()
	require.NoError(t, err)
	assert.Equal(t, 1, dstLen)

	movedId, err := dst.At(0).NodeId()
	require.NoError(t, err)
	assert.Equal(t, childId, movedId, "move preserves child NodeIds, unlike copy")
}

func TestRedirectRebindsMapEntryWithoutMovingTarget(t *testing.T) {
	tree := newTestTree(t)
	parent, err := tree.VisitorFromPath("slots")
	require.NoError(t, err)
	require.NoError(t, parent.EnsureMap())
	_, err = parent.Child("a").TrySetString("sword")
	require.NoError(t, err)

	other, err := tree.VisitorFromPath("items/shield")
	require.NoError(t, err)
	_, err = other.TrySetString("shield")
	require.NoError(t, err)

	require.NoError(t, tree.Redirect(parent, dax.NameSegment("a"), other))

	v, ok, err := parent.Child("a").TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shield", v)

	// other's own identity is unaffected.
	ov, ok, err := other.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shield", ov)
}

func TestArrayRemoveAtReindexesParentEdges(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)
	require.NoError(t, arr.EnsureArray())
	for i := int32(0); i < 3; i++ {
		child, err := arr.ArrayAppend()
		require.NoError(t, err)
		_, err = child.TrySetInt32(i)
		require.NoError(t, err)
	}

	require.NoError(t, arr.ArrayRemoveAt(0))

	length, err := arr.ArrayLen()
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	v, ok, err := arr.At(0).TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(1), v)

	for i := int32(0); i < 2; i++ {
		id, err := arr.At(i).NodeId()
		require.NoError(t, err)
		assert.Equal(t, uint16(i), tree.ReplicaParentEdge(id).Index)
	}
}

func TestReleaseChildrenEmptiesContainerButKeepsIt(t *testing.T) {
	tree := newTestTree(t)
	m, err := tree.VisitorFromPath("bag")
	require.NoError(t, err)
	require.NoError(t, m.EnsureMap())
	_, err = m.Child("gold").TrySetInt32(10)
	require.NoError(t, err)

	require.NoError(t, m.ReleaseChildren())

	keys, err := m.MapKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	kind, err := m.Kind()
	require.NoError(t, err)
	assert.Equal(t, "Map", kind.String())
}
