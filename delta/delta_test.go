package delta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/typeregistry"
)

func newTestTree(t *testing.T) *dax.Tree {
	t.Helper()
	return dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: true})
}

func TestFirstDeltaIsEquivalentToFullAdd(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("player/health")
	require.NoError(t, err)
	_, err = v.TrySetInt32(100)
	require.NoError(t, err)

	eng := delta.NewEngine()
	d := eng.ComputeDelta(tree)

	assert.False(t, d.Empty())
	assert.Empty(t, d.Removes)
	assert.Empty(t, d.Updates)
	assert.NotEmpty(t, d.Adds)
}

func TestSecondDeltaAfterNoChangesIsEmpty(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("score")
	require.NoError(t, err)
	_, err = v.TrySetInt32(1)
	require.NoError(t, err)

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	d := eng.ComputeDelta(tree)
	assert.True(t, d.Empty())
}

func TestValueChangeProducesUpdateValueRecord(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("score")
	require.NoError(t, err)
	_, err = v.TrySetInt32(1)
	require.NoError(t, err)

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	_, err = v.TrySetInt32(2)
	require.NoError(t, err)

	d := eng.ComputeDelta(tree)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, delta.UpdateValue, d.Updates[0].Kind)
}

func TestRemovingNodeProducesRemoveRecord(t *testing.T) {
	tree := newTestTree(t)
	root, err := tree.VisitorFromPath("")
	require.NoError(t, err)

	v := root.Child("temp")
	_, err = v.TrySetInt32(7)
	require.NoError(t, err)

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	require.NoError(t, root.MapRemove("temp"))

	d := eng.ComputeDelta(tree)
	assert.NotEmpty(t, d.Removes)
}

func TestSmallArrayChangeProducesIncrementalUpdate(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		el, err := arr.ArrayAppend()
		require.NoError(t, err)
		_, err = el.TrySetInt32(int32(i))
		require.NoError(t, err)
	}

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	// Remove one middle element: a membership change small enough to stay
	// under the full-replace threshold.
	require.NoError(t, arr.ArrayRemoveAt(3))

	d := eng.ComputeDelta(tree)
	require.Len(t, d.Updates, 1)
	require.Equal(t, delta.UpdateArrayIncremental, d.Updates[0].Kind)
	assert.Equal(t, 3, d.Updates[0].ArraySlot.Start)
	assert.Equal(t, 1, d.Updates[0].ArraySlot.OldCount)
	assert.Empty(t, d.Updates[0].ArraySlot.NewIds)
}

// TestArrayMiddleRemovalRoundTripsToClient guards against the incremental
// array delta overlaying slots instead of splicing: removing a middle
// element must shrink the client's array to match the server's, not leave
// a stale trailing id.
func TestArrayMiddleRemovalRoundTripsToClient(t *testing.T) {
	server := newTestTree(t)
	arr, err := server.VisitorFromPath("items")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		el, err := arr.ArrayAppend()
		require.NoError(t, err)
		_, err = el.TrySetInt32(int32(i))
		require.NoError(t, err)
	}

	eng := delta.NewEngine()
	firstSync := eng.ComputeDelta(server)

	client := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	require.NoError(t, delta.Apply(client, firstSync))

	// [0,1,2,3,4] -> [0,1,3,4]: removing index 2 shrinks the array by one.
	require.NoError(t, arr.ArrayRemoveAt(2))

	d := eng.ComputeDelta(server)
	require.Len(t, d.Updates, 1)
	require.NoError(t, delta.Apply(client, d))

	carr, err := client.VisitorFromPath("items")
	require.NoError(t, err)
	n, err := carr.ArrayLen()
	require.NoError(t, err)
	require.Equal(t, 4, n)

	for i, want := range []int32{0, 1, 3, 4} {
		got, ok, err := carr.At(int32(i)).TryGetInt32()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestWholesaleArrayReplacementProducesFullUpdate(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		el, err := arr.ArrayAppend()
		require.NoError(t, err)
		_, err = el.TrySetInt32(int32(i))
		require.NoError(t, err)
	}

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	// Shrinking from 4 to 1 elements is a >50% change, so the heuristic
	// should prefer a full replace over per-slot edits.
	require.NoError(t, arr.ArrayRemoveAt(3))
	require.NoError(t, arr.ArrayRemoveAt(2))
	require.NoError(t, arr.ArrayRemoveAt(1))

	d := eng.ComputeDelta(tree)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, delta.UpdateArrayFull, d.Updates[0].Kind)
}

func TestMapEntryRebindProducesIncrementalUpdate(t *testing.T) {
	tree := newTestTree(t)
	m, err := tree.VisitorFromPath("config")
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		child := m.Child(name)
		_, err = child.TrySetInt32(1)
		require.NoError(t, err)
	}

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	// Rebind "a" to a freshly allocated node: the map keeps six entries
	// but one key now refers to a different NodeId.
	require.NoError(t, m.MapRemove("a"))
	_, err = m.Child("a").TrySetInt32(42)
	require.NoError(t, err)

	d := eng.ComputeDelta(tree)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, delta.UpdateMapIncremental, d.Updates[0].Kind)
}

func TestApplyReplaysAddsAndUpdatesOnClient(t *testing.T) {
	server := newTestTree(t)
	v, err := server.VisitorFromPath("player/health")
	require.NoError(t, err)
	_, err = v.TrySetInt32(100)
	require.NoError(t, err)

	eng := delta.NewEngine()
	firstSync := eng.ComputeDelta(server)

	client := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	require.NoError(t, delta.Apply(client, firstSync))

	cv, err := client.VisitorFromPath("player/health")
	require.NoError(t, err)
	got, ok, err := cv.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(100), got)

	_, err = v.TrySetInt32(55)
	require.NoError(t, err)
	secondSync := eng.ComputeDelta(server)
	require.NoError(t, delta.Apply(client, secondSync))

	got, ok, err = cv.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(55), got)
}

func TestContainerFullHeuristicBoundary(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		el, err := arr.ArrayAppend()
		require.NoError(t, err)
		_, err = el.TrySetInt32(int32(i))
		require.NoError(t, err)
	}

	eng := delta.NewEngine()
	_ = eng.ComputeDelta(tree)

	// old=4, new=3: a one-element membership shrink is below the 50%
	// threshold, so it must stay incremental rather than going full.
	require.NoError(t, arr.ArrayRemoveAt(0))

	d := eng.ComputeDelta(tree)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, delta.UpdateArrayIncremental, d.Updates[0].Kind)
}
