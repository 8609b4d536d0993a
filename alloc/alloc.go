// Package alloc implements the Tree's generational slab allocator: fixed
// 32-slot chunks holding Nodes plus parallel per-slot metadata
// (generation, version, parent, value type, reverse parent edge). A
// NodeId resolves through here and nowhere else; stale generations are
// detected rather than causing undefined behavior, and pool exhaustion
// is reported rather than panicking.
package alloc

import (
	"math/bits"

	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// ChunkSize and MaxChunks are re-exported from package nodeid (the
// single source of truth for the index/chunk split) so call sites don't
// need to import both packages for these constants.
const (
	ChunkSize = nodeid.ChunkSize
	MaxChunks = nodeid.MaxChunks

	// Capacity is the maximum number of live nodes: every slot across
	// MaxChunks chunks, minus the one sentinel slot reserved in the
	// final chunk so NodeId{0xFFFF,0xFFFF} stays a unique invalid value.
	Capacity = MaxChunks*ChunkSize - 1
)

// chunk holds ChunkSize nodes plus their parallel metadata arrays and a
// used-slot bitmask. Nodes are not default-constructed until allocated:
// a bit clear in usedMask means the corresponding slot's Node, parent,
// value type and parent edge are all meaningless.
type chunk struct {
	index int

	nodes      [ChunkSize]node.Node
	generation [ChunkSize]uint16
	version    [ChunkSize]uint32
	parent     [ChunkSize]nodeid.NodeId
	valueType  [ChunkSize]core.TypeRef
	parentEdge [ChunkSize]ParentEdge

	usedMask uint32
	used     int
}

func newChunk(index int) *chunk {
	return &chunk{index: index}
}

// freeLocalIndex returns the lowest free local slot in the chunk, or -1.
// The final possible chunk (index == MaxChunks-1) excludes local index
// 31, which is permanently reserved.
func (c *chunk) freeLocalIndex() int {
	mask := ^c.usedMask
	if c.index == MaxChunks-1 {
		mask &^= 1 << 31
	}
	if mask == 0 {
		return -1
	}
	return bits.TrailingZeros32(mask)
}

func (c *chunk) full() bool {
	return c.freeLocalIndex() == -1
}

// Stats is a point-in-time snapshot of allocator activity, in the
// teacher's tradition of exposing counters for CLI/test introspection
// rather than requiring callers to derive them by walking chunks.
type Stats struct {
	TotalAllocated int
	TotalFreed     int
	CurrentActive  int
	PeakActive     int
	ChunkCount     int
	FreeRemaining  int
}

// Allocator is the generational slab allocator described in DATA MODEL §3
// and COMPONENT DESIGN §4.D. It owns every Node in a Tree; Nodes are
// never aliased or referenced except through NodeId resolution.
type Allocator struct {
	chunks []*chunk
	hint   int // index of the first chunk we believe is non-full
	active int
	total  int
	freed  int
	peak   int
}

// New returns an empty Allocator with no chunks yet (the first Allocate
// call creates one).
func New() *Allocator {
	return &Allocator{}
}

func (a *Allocator) Stats() Stats {
	return Stats{
		TotalAllocated: a.total,
		TotalFreed:     a.freed,
		CurrentActive:  a.active,
		PeakActive:     a.peak,
		ChunkCount:     len(a.chunks),
		FreeRemaining:  Capacity - a.active,
	}
}

// findFreeChunk returns a chunk with a free slot, growing the allocator
// by one chunk if every existing chunk is full. Returns nil if growth is
// not possible (MAX_CHUNKS reached).
func (a *Allocator) findFreeChunk() *chunk {
	if a.hint < len(a.chunks) && !a.chunks[a.hint].full() {
		return a.chunks[a.hint]
	}
	for i, c := range a.chunks {
		if !c.full() {
			a.hint = i
			return c
		}
	}
	if len(a.chunks) >= MaxChunks {
		return nil
	}
	c := newChunk(len(a.chunks))
	a.chunks = append(a.chunks, c)
	a.hint = c.index
	return c
}

// Allocate reserves a fresh slot, bumps its generation, constructs an
// Empty Node in place, and returns the new handle. It returns
// (nodeid.Invalid, alloc.ErrExhausted) when the pool is full; the
// Allocator is left unchanged on failure.
func (a *Allocator) Allocate() (nodeid.NodeId, error) {
	c := a.findFreeChunk()
	if c == nil {
		return nodeid.Invalid, ErrExhausted
	}
	local := c.freeLocalIndex()
	c.usedMask |= 1 << uint(local)
	c.used++
	c.generation[local]++
	c.version[local] = 0
	c.parent[local] = nodeid.Invalid
	c.valueType[local] = core.TypeEmpty
	c.parentEdge[local] = None
	c.nodes[local] = node.Empty()

	a.active++
	a.total++
	if a.active > a.peak {
		a.peak = a.active
	}
	return nodeid.New(nodeid.FromChunk(c.index, local), c.generation[local]), nil
}

// AllocateOutcome grades the result of AllocateAt, the deterministic
// allocation form used by a client replaying server-assigned NodeIds.
type AllocateOutcome int

const (
	// AllocNewOne: the slot was free; it is now allocated at the
	// requested generation.
	AllocNewOne AllocateOutcome = iota
	// AllocReplaced: the slot was in use at a different generation; the
	// old Node was destroyed and a new Empty Node constructed at the
	// requested generation.
	AllocReplaced
	// AllocExist: the slot was already allocated at exactly the
	// requested generation; this call was a no-op.
	AllocExist
)

// AllocateAt deterministically (re)allocates the slot named by id's
// index, setting its generation to id.Generation. It is how a client
// replays Add records: exactly-once, order-tolerant across network
// retries, because generations come from the wire rather than from
// client-local allocation.
func (a *Allocator) AllocateAt(id nodeid.NodeId) (AllocateOutcome, error) {
	chunkIdx, local := id.Split()
	if chunkIdx >= MaxChunks || (chunkIdx == MaxChunks-1 && local == ChunkSize-1) {
		return 0, ErrBadNode
	}
	for len(a.chunks) <= chunkIdx {
		a.chunks = append(a.chunks, newChunk(len(a.chunks)))
	}
	c := a.chunks[chunkIdx]
	bit := uint32(1) << uint(local)

	if c.usedMask&bit == 0 {
		c.usedMask |= bit
		c.used++
		c.generation[local] = id.Generation
		c.version[local] = 0
		c.parent[local] = nodeid.Invalid
		c.valueType[local] = core.TypeEmpty
		c.parentEdge[local] = None
		c.nodes[local] = node.Empty()
		a.active++
		a.total++
		if a.active > a.peak {
			a.peak = a.active
		}
		return AllocNewOne, nil
	}
	if c.generation[local] == id.Generation {
		return AllocExist, nil
	}
	// Replaced: different generation, slot currently in use.
	c.nodes[local] = node.Empty()
	c.generation[local] = id.Generation
	c.version[local] = 0
	c.parent[local] = nodeid.Invalid
	c.valueType[local] = core.TypeEmpty
	c.parentEdge[local] = None
	return AllocReplaced, nil
}

// Deallocate frees id's slot: destroys the Node in place, clears parent
// metadata, and decrements the active count. It fails with ErrBadNode
// for an out-of-range index and ErrStaleNode for a stale generation; in
// both cases the allocator is left unchanged.
func (a *Allocator) Deallocate(id nodeid.NodeId) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	bit := uint32(1) << uint(local)
	c.nodes[local] = node.Empty()
	c.parent[local] = nodeid.Invalid
	c.valueType[local] = core.TypeEmpty
	c.parentEdge[local] = None
	c.usedMask &^= bit
	c.used--
	a.active--
	a.freed++
	if c.index < a.hint {
		a.hint = c.index
	}
	return nil
}

func (a *Allocator) resolveChunk(id nodeid.NodeId) (*chunk, int, error) {
	if !id.IsValid() {
		return nil, 0, ErrBadNode
	}
	chunkIdx, local := id.Split()
	if chunkIdx >= len(a.chunks) {
		return nil, 0, ErrBadNode
	}
	if chunkIdx == MaxChunks-1 && local == ChunkSize-1 {
		return nil, 0, ErrBadNode
	}
	c := a.chunks[chunkIdx]
	bit := uint32(1) << uint(local)
	if c.usedMask&bit == 0 {
		return nil, 0, ErrStaleNode
	}
	if c.generation[local] != id.Generation {
		return nil, 0, ErrStaleNode
	}
	return c, local, nil
}

// Node returns a pointer to the live Node for id, or nil if id is stale
// or refers to a free slot. The returned pointer aliases allocator
// storage and is valid until the next structural operation on this slot.
func (a *Allocator) Node(id nodeid.NodeId) *node.Node {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return nil
	}
	return &c.nodes[local]
}

// Parent returns the parent NodeId recorded for id (Invalid for the
// root, or if id is stale).
func (a *Allocator) Parent(id nodeid.NodeId) nodeid.NodeId {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return nodeid.Invalid
	}
	return c.parent[local]
}

// SetParent updates the parent pointer recorded for id.
func (a *Allocator) SetParent(id, parent nodeid.NodeId) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.parent[local] = parent
	return nil
}

// ValueType returns the TypeRef recorded for id (TypeEmpty if stale).
func (a *Allocator) ValueType(id nodeid.NodeId) core.TypeRef {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return core.TypeEmpty
	}
	return c.valueType[local]
}

// SetValueType updates the TypeRef recorded for id.
func (a *Allocator) SetValueType(id nodeid.NodeId, t core.TypeRef) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.valueType[local] = t
	return nil
}

// ParentEdge returns the reverse edge recorded for id.
func (a *Allocator) ParentEdge(id nodeid.NodeId) ParentEdge {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return None
	}
	return c.parentEdge[local]
}

func (a *Allocator) SetParentEdgeArray(id nodeid.NodeId, index int) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.parentEdge[local] = ArrayIndex(index)
	return nil
}

func (a *Allocator) SetParentEdgeMap(id nodeid.NodeId, label core.Name) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.parentEdge[local] = MapLabel(label)
	return nil
}

func (a *Allocator) ClearParentEdge(id nodeid.NodeId) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.parentEdge[local] = None
	return nil
}

// Version returns the per-slot version counter for id.
func (a *Allocator) Version(id nodeid.NodeId) uint32 {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return 0
	}
	return c.version[local]
}

// MarkDirty bumps id's per-slot version (used whenever a node's value or
// container contents change).
func (a *Allocator) MarkDirty(id nodeid.NodeId) error {
	c, local, err := a.resolveChunk(id)
	if err != nil {
		return err
	}
	c.version[local]++
	return nil
}

// Generation returns the slot's current generation (0 if never
// allocated), used by components that need to build a NodeId for a
// given index without going through Allocate/AllocateAt (e.g. the delta
// engine scanning for Adds/Removes).
func (a *Allocator) Generation(globalIndex uint16) (generation uint16, used bool) {
	chunkIdx, local := nodeid.NodeId{Index: globalIndex}.Split()
	if chunkIdx >= len(a.chunks) {
		return 0, false
	}
	c := a.chunks[chunkIdx]
	bit := uint32(1) << uint(local)
	return c.generation[local], c.usedMask&bit != 0
}

// ForEachNode visits every currently-used slot's NodeId in chunk order,
// using the trailing-zero-bit trick to skip free slots in O(popcount)
// rather than O(ChunkSize) per chunk.
func (a *Allocator) ForEachNode(fn func(nodeid.NodeId)) {
	for _, c := range a.chunks {
		mask := c.usedMask
		for mask != 0 {
			local := bits.TrailingZeros32(mask)
			mask &^= 1 << uint(local)
			fn(nodeid.New(nodeid.FromChunk(c.index, local), c.generation[local]))
		}
	}
}

// ChunkCount exposes the number of allocated chunks, primarily for the
// delta engine, which scans "every chunk position that exists in either
// baseline or current allocator".
func (a *Allocator) ChunkCount() int { return len(a.chunks) }

// SlotAt returns the NodeId and used flag for a given (chunk, local)
// position, used by the delta engine's baseline scan.
func (a *Allocator) SlotAt(chunkIdx, local int) (id nodeid.NodeId, used bool) {
	if chunkIdx >= len(a.chunks) {
		return nodeid.Invalid, false
	}
	c := a.chunks[chunkIdx]
	bit := uint32(1) << uint(local)
	used = c.usedMask&bit != 0
	return nodeid.New(nodeid.FromChunk(chunkIdx, local), c.generation[local]), used
}

// Ancestor walks parents from c until reaching a (returns true) or
// Invalid (returns false).
func (a *Allocator) Ancestor(ancestor, c nodeid.NodeId) bool {
	cur := c
	for cur.IsValid() {
		if cur == ancestor {
			return true
		}
		cur = a.Parent(cur)
	}
	return false
}

// Reset discards all chunks, returning the allocator to its initial
// empty state. Used by Tree.Clear and by the delta reader on a full
// snapshot.
func (a *Allocator) Reset() {
	a.chunks = nil
	a.hint = 0
	a.active = 0
	a.total = 0
	a.freed = 0
	a.peak = 0
}
