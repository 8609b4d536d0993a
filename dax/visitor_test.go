package dax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/typeregistry"
)

func newTestTree(t *testing.T) *dax.Tree {
	t.Helper()
	return dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: true})
}

func TestCreateAndReadInt(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("player/health")
	require.NoError(t, err)

	outcome, err := v.TrySetInt32(100)
	require.NoError(t, err)
	assert.Equal(t, true, outcome.Changed())

	got, ok, err := v.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(100), got)
}

func TestSameValueNoChangeIsCompareAndSkip(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("x")
	require.NoError(t, err)

	_, err = v.TrySetInt32(5)
	require.NoError(t, err)
	before := tree.DataVersion()

	outcome, err := v.TrySetInt32(5)
	require.NoError(t, err)
	assert.False(t, outcome.Changed())
	assert.Equal(t, before, tree.DataVersion())
}

func TestReadOnlyClientCannotCreate(t *testing.T) {
	tree := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	v, err := tree.VisitorFromPath("missing/path")
	require.NoError(t, err)

	_, err = v.TryGetInt32()
	assert.Error(t, err)
}

func TestArrayAppendAndMiddleReplace(t *testing.T) {
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

	length, err := arr.ArrayLen()
	require.NoError(t, err)
	assert.Equal(t, 3, length)

	mid := arr.At(1)
	outcome, err := mid.TrySetInt32(99)
	require.NoError(t, err)
	assert.True(t, outcome.Changed())

	v, ok, err := mid.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(99), v)
}

func TestMapRebind(t *testing.T) {
	tree := newTestTree(t)
	m, err := tree.VisitorFromPath("config")
	require.NoError(t, err)
	require.NoError(t, m.EnsureMap())

	_, err = m.Child("volume").TrySetFloat32(0.5)
	require.NoError(t, err)

	keys, err := m.MapKeys()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	_, err = m.Child("volume").TrySetFloat32(0.75)
	require.NoError(t, err)
	got, ok, err := m.Child("volume").TryGetFloat32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.75, got, 1e-6)
}

func TestSwapSubtrees(t *testing.T) {
	tree := newTestTree(t)
	a, err := tree.VisitorFromPath("a")
	require.NoError(t, err)
	b, err := tree.VisitorFromPath("b")
	require.NoError(t, err)

	_, err = a.TrySetString("alpha")
	require.NoError(t, err)
	_, err = b.TrySetString("beta")
	require.NoError(t, err)

	require.NoError(t, tree.SwapNode(a, b))

	av, ok, err := a.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "beta", av)

	bv, ok, err := b.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", bv)
}

func TestClientPrediction(t *testing.T) {
	// A client Tree demotes EnsureCreate to ReadOnly, so prediction is
	// exercised against the root node (which always resolves, even on a
	// fresh client tree with no replicated state yet).
	client := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	cv := client.GetVisitor()

	id, err := cv.NodeId()
	require.NoError(t, err)

	require.NoError(t, cv.PredictSetValueBytes(typeregistry.TypeInt32, encodeInt32(42)))
	assert.True(t, client.HasPrediction(id))

	got, ok, err := cv.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(42), got)

	client.ConfirmPrediction(id)
	assert.False(t, client.HasPrediction(id))
}

func TestPathTooDeepRejected(t *testing.T) {
	path := ""
	for i := 0; i < dax.MaxPathDepth+1; i++ {
		if i > 0 {
			path += "/"
		}
		path += "a"
	}
	_, err := dax.ParsePath(path)
	assert.Error(t, err)
}

func TestEmptyPathIsRoot(t *testing.T) {
	tree := newTestTree(t)
	v, err := tree.VisitorFromPath("")
	require.NoError(t, err)
	id, err := v.NodeId()
	require.NoError(t, err)
	assert.Equal(t, tree.RootId(), id)
}

func TestArrayNegativeIndexRejected(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)
	require.NoError(t, arr.EnsureArray())
	_, err = arr.ArrayAppend()
	require.NoError(t, err)

	_, err = arr.At(-1).NodeId()
	assert.Error(t, err)
}

func TestArrayOutOfRangeRejected(t *testing.T) {
	tree := newTestTree(t)
	arr, err := tree.VisitorFromPath("items")
	require.NoError(t, err)
	require.NoError(t, arr.EnsureArray())

	_, err = arr.At(0).NodeId()
	assert.Error(t, err)
}

func encodeInt32(v int32) []byte {
	b := make([]byte, 4)
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return b
}
