package nodeid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daxsystems/dax/nodeid"
)

func TestInvalidSentinel(t *testing.T) {
	assert.False(t, nodeid.Invalid.IsValid())
	assert.Equal(t, nodeid.InvalidIndex, nodeid.Invalid.Index)
	assert.Equal(t, nodeid.InvalidIndex, nodeid.Invalid.Generation)
}

func TestEqualityIsBitwise(t *testing.T) {
	a := nodeid.New(3, 7)
	b := nodeid.New(3, 7)
	c := nodeid.New(3, 8)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSplitAndFromChunk(t *testing.T) {
	id := nodeid.New(35, 1)
	chunk, local := id.Split()
	assert.Equal(t, 1, chunk)
	assert.Equal(t, 3, local)
	assert.Equal(t, uint16(35), nodeid.FromChunk(chunk, local))
}

func TestHashDistinguishesGeneration(t *testing.T) {
	a := nodeid.New(10, 1)
	b := nodeid.New(10, 2)
	assert.NotEqual(t, a.Hash(), b.Hash())
}
