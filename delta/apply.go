package delta

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// Apply replays d against a client Tree directly (no wire encoding
// involved): Adds first (so parents exist before children get
// reattached), then Removes, then Updates. This is what a same-process
// loopback client uses; a networked client instead decodes a record read
// off the wire into a Delta via ReadDelta and calls this with the result.
func Apply(t *dax.Tree, d Delta) error {
	for _, add := range d.Adds {
		if _, err := t.ReplicaAllocateAt(add.Id); err != nil {
			return err
		}
		if err := applyContents(t, add.Id, add.Kind, add.ValueType, add.Bytes, add.Array, add.MapKeys, add.MapVals); err != nil {
			return err
		}
		t.ReplicaSetParent(add.Id, add.Parent, add.ParentEdge)
	}

	for _, id := range d.Removes {
		if err := t.ReplicaDeallocate(id); err != nil {
			return err
		}
	}

	for _, upd := range d.Updates {
		if err := applyUpdate(t, upd); err != nil {
			return err
		}
	}

	return nil
}

func applyContents(t *dax.Tree, id nodeid.NodeId, kind node.Kind, vt core.TypeRef, bytes []byte, arr []nodeid.NodeId, mapKeys []core.Name, mapVals map[core.Name]nodeid.NodeId) error {
	switch kind {
	case node.KindSmallValue, node.KindHeapValue:
		return t.ReplicaSetValue(id, vt, bytes)
	case node.KindArray:
		return t.ReplicaSetArray(id, arr)
	case node.KindMap:
		return t.ReplicaSetMap(id, mapKeys, mapVals)
	default:
		return nil // KindEmpty: AllocateAt already left it Empty
	}
}

func applyUpdate(t *dax.Tree, upd UpdateRecord) error {
	switch upd.Kind {
	case UpdateValue:
		return t.ReplicaSetValue(upd.Id, upd.ValueType, upd.Bytes)
	case UpdateArrayFull:
		return t.ReplicaSetArray(upd.Id, upd.ArrayFull)
	case UpdateArrayIncremental:
		return applyArraySplice(t, upd.Id, upd.ArraySlot)
	case UpdateMapFull:
		return t.ReplicaSetMap(upd.Id, upd.MapKeys, upd.MapFull)
	case UpdateMapIncremental:
		return applyMapEdits(t, upd.Id, upd.MapEdits)
	default:
		return nil
	}
}

// applyArraySplice rebuilds the full array by splicing the incremental
// delta's middle section into the node's current contents (replacing
// OldCount elements at Start with NewIds, which may be a different
// length), then writes it back in one shot through ReplicaSetArray
// (which also fixes up every child's parent edge, not just the spliced
// slots).
func applyArraySplice(t *dax.Tree, id nodeid.NodeId, d ArrayDelta) error {
	n := t.ReplicaNode(id)
	if n == nil {
		return core.Kind(core.ErrKindInvalidNode)
	}
	if d.Clear {
		return t.ReplicaSetArray(id, nil)
	}
	cur := n.Array()
	next := make([]nodeid.NodeId, 0, len(cur)-d.OldCount+len(d.NewIds))
	next = append(next, cur[:d.Start]...)
	next = append(next, d.NewIds...)
	next = append(next, cur[d.Start+d.OldCount:]...)
	return t.ReplicaSetArray(id, next)
}

func applyMapEdits(t *dax.Tree, id nodeid.NodeId, edits []MapEntryChange) error {
	n := t.ReplicaNode(id)
	if n == nil {
		return core.Kind(core.ErrKindInvalidNode)
	}
	keys := append([]core.Name(nil), n.MapKeys()...)
	vals := make(map[core.Name]nodeid.NodeId, len(keys))
	for _, k := range keys {
		v, _ := n.MapGet(k)
		vals[k] = v
	}
	for _, e := range edits {
		if e.Removed {
			delete(vals, e.Key)
			for i, k := range keys {
				if k == e.Key {
					keys = append(keys[:i], keys[i+1:]...)
					break
				}
			}
			continue
		}
		if _, exists := vals[e.Key]; !exists {
			keys = append(keys, e.Key)
		}
		vals[e.Key] = e.Id
	}
	return t.ReplicaSetMap(id, keys, vals)
}
