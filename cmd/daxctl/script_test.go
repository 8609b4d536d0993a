package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScriptBuildsExpectedTree(t *testing.T) {
	tree := newTree(true)
	err := runScript(tree, []string{
		"# a comment",
		"",
		"set player/health int32 100",
		"set player/name string Ilya",
		"mkarray items",
		"append items",
		"set items/$0 string sword",
	})
	require.NoError(t, err)

	hp, err := tree.VisitorFromPath("player/health")
	require.NoError(t, err)
	n, ok, err := hp.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(100), n)

	name, err := tree.VisitorFromPath("player/name")
	require.NoError(t, err)
	s, ok, err := name.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ilya", s)

	el, err := tree.VisitorFromPath("items/$0")
	require.NoError(t, err)
	itemName, ok, err := el.TryGetString()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sword", itemName)
}

func TestRunScriptRejectsUnknownCommand(t *testing.T) {
	tree := newTree(true)
	err := runScript(tree, []string{"frobnicate something"})
	assert.Error(t, err)
}

func TestSnapshotRoundTripsThroughFile(t *testing.T) {
	tree := newTree(true)
	require.NoError(t, runScript(tree, []string{"set score int32 42"}))

	path := t.TempDir() + "/snap.dax"
	require.NoError(t, writeSnapshot(path, tree))

	loaded, err := loadSnapshot(path)
	require.NoError(t, err)

	v, err := loaded.VisitorFromPath("score")
	require.NoError(t, err)
	n, ok, err := v.TryGetInt32()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(42), n)
}
