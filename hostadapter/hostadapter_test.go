package hostadapter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/hostadapter"
	"github.com/daxsystems/dax/typeregistry"
)

func newServerTree(t *testing.T) *dax.Tree {
	t.Helper()
	return dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: true})
}

func TestImmediateDispatchFlushesOnEveryMutation(t *testing.T) {
	tree := newServerTree(t)
	var received []delta.Delta
	adapter := hostadapter.New(hostadapter.Config{
		Tree: tree,
		Mode: hostadapter.DispatchImmediate,
		OnFlush: func(client string, d delta.Delta) {
			received = append(received, d)
		},
	})
	tree.SetHost(adapter)
	adapter.RegisterClient("client-a")

	v, err := tree.VisitorFromPath("score")
	require.NoError(t, err)
	_, err = v.TrySetInt32(10)
	require.NoError(t, err)

	require.NotEmpty(t, received)
	assert.NotEmpty(t, received[0].Adds)
}

func TestBatchedDispatchCoalescesMultipleWritesIntoOneFlush(t *testing.T) {
	tree := newServerTree(t)
	var flushes int
	adapter := hostadapter.New(hostadapter.Config{
		Tree:     tree,
		Mode:     hostadapter.DispatchBatched,
		Interval: 10 * time.Millisecond,
		OnFlush: func(client string, d delta.Delta) {
			flushes++
		},
	})
	defer adapter.Stop()
	tree.SetHost(adapter)
	adapter.RegisterClient("client-a")

	for i := 0; i < 5; i++ {
		v, err := tree.VisitorFromPath("score")
		require.NoError(t, err)
		_, err = v.TrySetInt32(int32(i))
		require.NoError(t, err)
	}

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, flushes)
}

func TestFlushIsNoOpWhenNothingIsDirty(t *testing.T) {
	tree := newServerTree(t)
	var flushes int
	adapter := hostadapter.New(hostadapter.Config{
		Tree: tree,
		Mode: hostadapter.DispatchImmediate,
		OnFlush: func(client string, d delta.Delta) {
			flushes++
		},
	})
	tree.SetHost(adapter)
	adapter.RegisterClient("client-a")
	adapter.Flush()
	assert.Equal(t, 0, flushes)
}
