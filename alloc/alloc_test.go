package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/alloc"
	"github.com/daxsystems/dax/nodeid"
)

func TestAllocateProducesDistinctGenerations(t *testing.T) {
	a := alloc.New()
	id1, err := a.Allocate()
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(id1))

	id2, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, id1.Index, id2.Index)
	assert.NotEqual(t, id1.Generation, id2.Generation)
}

func TestNodeResolutionDetectsStaleGeneration(t *testing.T) {
	a := alloc.New()
	id, err := a.Allocate()
	require.NoError(t, err)
	require.NotNil(t, a.Node(id))

	require.NoError(t, a.Deallocate(id))
	assert.Nil(t, a.Node(id))
}

func TestDeallocateRejectsGenerationMismatchAndBadIndex(t *testing.T) {
	a := alloc.New()
	id, err := a.Allocate()
	require.NoError(t, err)

	stale := nodeid.New(id.Index, id.Generation+1)
	assert.ErrorIs(t, a.Deallocate(stale), alloc.ErrStaleNode)

	assert.ErrorIs(t, a.Deallocate(nodeid.New(9999, 1)), alloc.ErrBadNode)
}

func TestAllocateAtIdempotence(t *testing.T) {
	a := alloc.New()
	id := nodeid.New(5, 3)

	outcome, err := a.AllocateAt(id)
	require.NoError(t, err)
	assert.Equal(t, alloc.AllocNewOne, outcome)

	outcome, err = a.AllocateAt(id)
	require.NoError(t, err)
	assert.Equal(t, alloc.AllocExist, outcome)
}

func TestAllocateAtReplacesDifferentGeneration(t *testing.T) {
	a := alloc.New()
	id := nodeid.New(5, 3)
	_, err := a.AllocateAt(id)
	require.NoError(t, err)

	newer := nodeid.New(5, 4)
	outcome, err := a.AllocateAt(newer)
	require.NoError(t, err)
	assert.Equal(t, alloc.AllocReplaced, outcome)
	assert.Nil(t, a.Node(id))
	assert.NotNil(t, a.Node(newer))
}

func TestParentEdgeAccessors(t *testing.T) {
	a := alloc.New()
	parent, err := a.Allocate()
	require.NoError(t, err)
	child, err := a.Allocate()
	require.NoError(t, err)

	require.NoError(t, a.SetParent(child, parent))
	require.NoError(t, a.SetParentEdgeArray(child, 3))
	edge := a.ParentEdge(child)
	assert.Equal(t, alloc.EdgeArrayIndex, edge.Kind)
	assert.Equal(t, uint16(3), edge.Index)
	assert.Equal(t, parent, a.Parent(child))
}

func TestMarkDirtyBumpsVersion(t *testing.T) {
	a := alloc.New()
	id, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, uint32(0), a.Version(id))
	require.NoError(t, a.MarkDirty(id))
	assert.Equal(t, uint32(1), a.Version(id))
}

func TestAncestorWalksParentChain(t *testing.T) {
	a := alloc.New()
	root, _ := a.Allocate()
	child, _ := a.Allocate()
	grandchild, _ := a.Allocate()
	require.NoError(t, a.SetParent(child, root))
	require.NoError(t, a.SetParent(grandchild, child))

	assert.True(t, a.Ancestor(root, grandchild))
	assert.False(t, a.Ancestor(grandchild, root))
}

func TestForEachNodeVisitsOnlyUsedSlots(t *testing.T) {
	a := alloc.New()
	var ids []nodeid.NodeId
	for i := 0; i < 5; i++ {
		id, err := a.Allocate()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, a.Deallocate(ids[2]))

	seen := map[nodeid.NodeId]bool{}
	a.ForEachNode(func(id nodeid.NodeId) { seen[id] = true })
	assert.Len(t, seen, 4)
	assert.False(t, seen[ids[2]])
}

func TestStatsTrackActivePeakAndFreeRemaining(t *testing.T) {
	a := alloc.New()
	id1, _ := a.Allocate()
	_, _ = a.Allocate()
	require.NoError(t, a.Deallocate(id1))

	stats := a.Stats()
	assert.Equal(t, 1, stats.CurrentActive)
	assert.Equal(t, 2, stats.PeakActive)
	assert.Equal(t, 2, stats.TotalAllocated)
	assert.Equal(t, 1, stats.TotalFreed)
	assert.Equal(t, alloc.Capacity-1, stats.FreeRemaining)
}

func TestAllocateExhaustionLeavesAllocatorUntouched(t *testing.T) {
	a := alloc.New()
	// Fill every chunk deterministically via AllocateAt up to capacity,
	// then confirm one more Allocate reports exhaustion without growing
	// past MaxChunks.
	for chunkIdx := 0; chunkIdx < alloc.MaxChunks; chunkIdx++ {
		limit := alloc.ChunkSize
		if chunkIdx == alloc.MaxChunks-1 {
			limit = alloc.ChunkSize - 1 // reserved sentinel slot
		}
		for local := 0; local < limit; local++ {
			id := nodeid.New(nodeid.FromChunk(chunkIdx, local), 1)
			_, err := a.AllocateAt(id)
			require.NoError(t, err)
		}
	}
	statsBefore := a.Stats()
	_, err := a.Allocate()
	assert.ErrorIs(t, err, alloc.ErrExhausted)
	assert.Equal(t, statsBefore, a.Stats())
}
