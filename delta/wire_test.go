package delta_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/delta"
	"github.com/daxsystems/dax/typeregistry"
)

func buildSampleTree(t *testing.T) *dax.Tree {
	t.Helper()
	tree := newTestTree(t)

	hp, err := tree.VisitorFromPath("player/health")
	require.NoError(t, err)
	_, err = hp.TrySetInt32(100)
	require.NoError(t, err)

	name, err := tree.VisitorFromPath("player/name")
	require.NoError(t, err)
	_, err = name.TrySetString("ilya")
	require.NoError(t, err)

	items, err := tree.VisitorFromPath("items")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		el, err := items.ArrayAppend()
		require.NoError(t, err)
		_, err = el.TrySetInt32(int32(i * 10))
		require.NoError(t, err)
	}

	return tree
}

func TestWriteFullThenReadFullReproducesTree(t *testing.T) {
	server := buildSampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, delta.WriteFull(&buf, server))

	client := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	require.NoError(t, delta.ReadFull(bufio.NewReader(&buf), client))

	hp, err := client.VisitorFromPath("player/health")
	require.NoError(t, err)
	gotHP, ok, err := hp.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(100), gotHP)

	name, err := client.VisitorFromPath("player/name")
	require.NoError(t, err)
	gotName, ok, err := name.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ilya", gotName)

	items, err := client.VisitorFromPath("items")
	require.NoError(t, err)
	n, err := items.ArrayLen()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	el := items.At(1)
	gotEl, ok, err := el.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(10), gotEl)
}

func TestWriteDeltaThenReadDeltaRoundTripsRecords(t *testing.T) {
	server := buildSampleTree(t)
	eng := delta.NewEngine()
	d := eng.ComputeDelta(server)

	var buf bytes.Buffer
	require.NoError(t, delta.WriteDelta(&buf, server.Registry(), d))

	decoded, err := delta.ReadDelta(bufio.NewReader(&buf), server.Registry())
	require.NoError(t, err)

	assert.Equal(t, len(d.Adds), len(decoded.Adds))
	assert.Equal(t, len(d.Removes), len(decoded.Removes))
	assert.Equal(t, len(d.Updates), len(decoded.Updates))

	client := dax.New(dax.Config{Registry: typeregistry.NewBuiltin(), RunningOnServer: false})
	require.NoError(t, delta.Apply(client, decoded))

	name, err := client.VisitorFromPath("player/name")
	require.NoError(t, err)
	gotName, ok, err := name.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ilya", gotName)
}

func TestWriteDeltaStringValueUpdateRoundTrips(t *testing.T) {
	server := buildSampleTree(t)
	eng := delta.NewEngine()
	_ = eng.ComputeDelta(server)

	name, err := server.VisitorFromPath("player/name")
	require.NoError(t, err)
	_, err = name.TrySetString("changed")
	require.NoError(t, err)

	d := eng.ComputeDelta(server)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, delta.UpdateValue, d.Updates[0].Kind)

	var buf bytes.Buffer
	require.NoError(t, delta.WriteDelta(&buf, server.Registry(), d))
	decoded, err := delta.ReadDelta(bufio.NewReader(&buf), server.Registry())
	require.NoError(t, err)
	require.Len(t, decoded.Updates, 1)
	assert.Equal(t, "changed", string(decoded.Updates[0].Bytes))
}

func TestWriteDeltaCountingReportsMatchingStatsAndByteCount(t *testing.T) {
	server := buildSampleTree(t)
	eng := delta.NewEngine()
	d := eng.ComputeDelta(server)

	var buf bytes.Buffer
	stats, err := delta.WriteDeltaCounting(&buf, server.Registry(), d)
	require.NoError(t, err)

	assert.Equal(t, len(d.Adds), stats.Adds)
	assert.Equal(t, len(d.Removes), stats.Removes)
	assert.Equal(t, len(d.Updates), stats.Updates)
	assert.Equal(t, buf.Len(), stats.Bytes)
	assert.Greater(t, stats.Bytes, 0)
}

func TestDumpRendersAddsRemovesAndUpdates(t *testing.T) {
	server := buildSampleTree(t)
	eng := delta.NewEngine()
	d := eng.ComputeDelta(server)

	var wire bytes.Buffer
	require.NoError(t, delta.WriteDelta(&wire, server.Registry(), d))

	var out bytes.Buffer
	require.NoError(t, delta.Dump(&out, server.Registry(), wire.Bytes()))

	rendered := out.String()
	assert.Contains(t, rendered, "adds:")
	assert.Contains(t, rendered, "removes:")
	assert.Contains(t, rendered, "updates:")
}
