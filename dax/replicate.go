package dax

import (
	"github.com/daxsystems/dax/alloc"
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// The methods in this file are the low-level surface package delta uses
// to read and rebuild a Tree's state directly by NodeId, bypassing path
// resolution entirely: a delta record addresses nodes the way the
// allocator does, not the way a Visitor does. Ordinary application code
// should prefer Visitor; these exist for replication machinery only.

// ReplicaNode exposes the live Node for id (nil if stale), for the delta
// engine's current-state scan.
func (t *Tree) ReplicaNode(id nodeid.NodeId) *node.Node { return t.alloc.Node(id) }

// ReplicaForEachNode visits every currently-allocated NodeId.
func (t *Tree) ReplicaForEachNode(fn func(nodeid.NodeId)) { t.alloc.ForEachNode(fn) }

// ReplicaParent and ReplicaParentEdge expose a node's recorded reverse
// edge, for the delta engine's Add/Update records.
func (t *Tree) ReplicaParent(id nodeid.NodeId) nodeid.NodeId        { return t.alloc.Parent(id) }
func (t *Tree) ReplicaParentEdge(id nodeid.NodeId) alloc.ParentEdge { return t.alloc.ParentEdge(id) }

// ReplicaAllocateAt deterministically (re)allocates id, exactly as a
// server-assigned NodeId replays on a client (alloc.Allocator.AllocateAt).
func (t *Tree) ReplicaAllocateAt(id nodeid.NodeId) (alloc.AllocateOutcome, error) {
	outcome, err := t.alloc.AllocateAt(id)
	if err != nil {
		return outcome, err
	}
	if outcome != alloc.AllocExist {
		t.bumpStruct()
		t.markChanged(id)
	}
	return outcome, nil
}

// ReplicaDeallocate frees id after recording its old value (if it held
// one) for OldValue lookups during this tick's listener dispatch.
func (t *Tree) ReplicaDeallocate(id nodeid.NodeId) error {
	if n := t.alloc.Node(id); n != nil {
		t.recordOldValue(id, n)
	}
	if err := t.alloc.Deallocate(id); err != nil {
		return err
	}
	t.bumpStruct()
	t.markChanged(id)
	return nil
}

// ReplicaSetParent rewrites id's recorded parent/edge without touching
// its Node contents, used after ReplicaSetArray/ReplicaSetMap to fix up
// children's reverse edges.
func (t *Tree) ReplicaSetParent(id, parent nodeid.NodeId, edge alloc.ParentEdge) {
	_ = t.alloc.SetParent(id, parent)
	switch edge.Kind {
	case alloc.EdgeArrayIndex:
		_ = t.alloc.SetParentEdgeArray(id, int(edge.Index))
	case alloc.EdgeMapLabel:
		_ = t.alloc.SetParentEdgeMap(id, edge.Label)
	default:
		_ = t.alloc.ClearParentEdge(id)
	}
}

// ReplicaSetValue overwrites id's Value payload (allocating the node's
// heap box as needed), recording the prior value first.
func (t *Tree) ReplicaSetValue(id nodeid.NodeId, valueType core.TypeRef, bytes []byte) error {
	n := t.alloc.Node(id)
	if n == nil {
		return core.Kind(core.ErrKindInvalidNode)
	}
	t.recordOldValue(id, n)
	if err := n.SetRawValueBytes(t.reg, valueType, bytes); err != nil {
		return err
	}
	_ = t.alloc.SetValueType(id, valueType)
	t.bumpData()
	t.markChanged(id)
	return nil
}

// ReplicaSetArray overwrites id's entire Array contents and fixes up
// every child's parent/edge metadata to match its new position.
func (t *Tree) ReplicaSetArray(id nodeid.NodeId, children []nodeid.NodeId) error {
	n := t.alloc.Node(id)
	if n == nil {
		return core.Kind(core.ErrKindInvalidNode)
	}
	n.ArraySet(children)
	for i, child := range children {
		t.ReplicaSetParent(child, id, alloc.ArrayIndex(i))
	}
	t.bumpStruct()
	t.markChanged(id)
	return nil
}

// ReplicaSetMap overwrites id's entire Map contents and fixes up every
// child's parent/edge metadata.
func (t *Tree) ReplicaSetMap(id nodeid.NodeId, keys []core.Name, vals map[core.Name]nodeid.NodeId) error {
	n := t.alloc.Node(id)
	if n == nil {
		return core.Kind(core.ErrKindInvalidNode)
	}
	n.MapSetAll(keys, vals)
	for _, key := range keys {
		t.ReplicaSetParent(vals[key], id, alloc.MapLabel(key))
	}
	t.bumpStruct()
	t.markChanged(id)
	return nil
}

// ReplicaReset discards all state and reallocates a fresh root, used
// when applying a full (non-delta) snapshot.
func (t *Tree) ReplicaReset() {
	t.Clear()
}
