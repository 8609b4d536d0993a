package node_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
	"github.com/daxsystems/dax/typeregistry"
)

func int32Bytes(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func TestResetEmptyTransitions(t *testing.T) {
	n := node.Empty()
	assert.Equal(t, core.SameValueNoChange, n.ResetEmpty())

	assert.Equal(t, core.SuccessOverrideEmpty, n.ResetEmptyArray())
	assert.True(t, n.IsArray())

	assert.Equal(t, core.SuccessChangeValueAndType, n.ResetEmptyMap())
	assert.True(t, n.IsMap())

	assert.Equal(t, core.SuccessChangeValueAndType, n.ResetEmpty())
	assert.True(t, n.IsEmpty())
}

func TestTrySetValueInlineAndCompareSkip(t *testing.T) {
	reg := typeregistry.NewBuiltin()
	n := node.Empty()

	outcome, err := n.TrySetValue(reg, typeregistry.TypeInt32, int32Bytes(100))
	require.NoError(t, err)
	assert.Equal(t, core.SuccessOverrideEmpty, outcome)

	v, ok := n.TryGetValue(typeregistry.TypeInt32)
	require.True(t, ok)
	assert.Equal(t, int32(100), int32(binary.LittleEndian.Uint32(v)))

	outcome, err = n.TrySetValue(reg, typeregistry.TypeInt32, int32Bytes(100))
	require.NoError(t, err)
	assert.Equal(t, core.SameValueNoChange, outcome)

	outcome, err = n.TrySetValue(reg, typeregistry.TypeInt32, int32Bytes(200))
	require.NoError(t, err)
	assert.Equal(t, core.SuccessChangeValue, outcome)
}

func TestTrySetValueTypeMismatch(t *testing.T) {
	reg := typeregistry.NewBuiltin()
	n := node.Empty()
	_, err := n.TrySetValue(reg, typeregistry.TypeInt32, int32Bytes(1))
	require.NoError(t, err)

	_, err = n.TrySetValue(reg, typeregistry.TypeInt64, make([]byte, 8))
	require.Error(t, err)
	var derr *core.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, core.ErrKindValueTypeMismatch, derr.Kind)
}

func TestVariableLengthStringResize(t *testing.T) {
	reg := typeregistry.NewBuiltin()
	n := node.Empty()

	_, err := n.TrySetValue(reg, typeregistry.TypeString, []byte("hi"))
	require.NoError(t, err)
	v, ok := n.TryGetValue(typeregistry.TypeString)
	require.True(t, ok)
	assert.Equal(t, "hi", string(v))

	_, err = n.TrySetValue(reg, typeregistry.TypeString, []byte("a much longer string than before"))
	require.NoError(t, err)
	v, ok = n.TryGetValue(typeregistry.TypeString)
	require.True(t, ok)
	assert.Equal(t, "a much longer string than before", string(v))
}

func TestArrayMutators(t *testing.T) {
	n := node.Empty()
	n.ResetEmptyArray()

	a := nodeid.New(1, 1)
	b := nodeid.New(2, 1)
	c := nodeid.New(3, 1)
	n.ArrayAppend(a)
	n.ArrayAppend(b)
	n.ArrayInsert(1, c)
	require.Equal(t, []nodeid.NodeId{a, c, b}, n.Array())

	removed := n.ArrayRemoveAt(0)
	assert.Equal(t, a, removed)
	assert.Equal(t, []nodeid.NodeId{c, b}, n.Array())
}

func TestMapMutators(t *testing.T) {
	n := node.Empty()
	n.ResetEmptyMap()

	isNew := n.MapSet(core.Intern("a"), nodeid.New(1, 1))
	assert.True(t, isNew)
	isNew = n.MapSet(core.Intern("a"), nodeid.New(2, 1))
	assert.False(t, isNew)

	id, ok := n.MapGet(core.Intern("a"))
	require.True(t, ok)
	assert.Equal(t, nodeid.New(2, 1), id)

	removedID, ok := n.MapRemove(core.Intern("a"))
	require.True(t, ok)
	assert.Equal(t, nodeid.New(2, 1), removedID)
	assert.Equal(t, 0, n.MapLen())
}

func TestIdenticalArrays(t *testing.T) {
	reg := typeregistry.NewBuiltin()
	a := node.Empty()
	a.ResetEmptyArray()
	a.ArrayAppend(nodeid.New(1, 1))

	b := node.Empty()
	b.ResetEmptyArray()
	b.ArrayAppend(nodeid.New(1, 1))

	assert.True(t, a.Identical(&b, reg))

	b.ArrayAppend(nodeid.New(2, 1))
	assert.False(t, a.Identical(&b, reg))
}
