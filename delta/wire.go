package delta

import (
	"fmt"
	"io"

	"github.com/daxsystems/dax/alloc"
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/internal/wire"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// envelopeFull/envelopeDelta are the leading envelope byte that tags a
// wire payload as a full snapshot or an incremental delta, so a receiver
// that only has the bytes (no out-of-band knowledge of which call
// produced them) can still tell the two apart.
const (
	envelopeDelta byte = 0
	envelopeFull  byte = 1
)

// WriteFull encodes every node currently in t: an envelope byte, count,
// then per node its NodeId, kind, parent/edge and contents. A client
// applies this by calling ReadFull against a freshly cleared Tree.
func WriteFull(w io.Writer, t *dax.Tree) error {
	if _, err := w.Write([]byte{envelopeFull}); err != nil {
		return err
	}

	var ids []nodeid.NodeId
	t.ReplicaForEachNode(func(id nodeid.NodeId) { ids = append(ids, id) })

	if err := wire.WriteUvarint(w, uint64(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeFullNode(w, t, id); err != nil {
			return err
		}
	}
	return nil
}

func writeFullNode(w io.Writer, t *dax.Tree, id nodeid.NodeId) error {
	n := t.ReplicaNode(id)
	if err := wire.WriteNodeId(w, id); err != nil {
		return err
	}
	if err := writeKindAndParent(w, n.Kind(), t.ReplicaParent(id), t.ReplicaParentEdge(id)); err != nil {
		return err
	}
	return writeContents(w, t.Registry(), n.Kind(), n.ValueType(), n)
}

func writeKindAndParent(w io.Writer, kind node.Kind, parent nodeid.NodeId, edge alloc.ParentEdge) error {
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	if err := wire.WriteNodeId(w, parent); err != nil {
		return err
	}
	return writeParentEdge(w, edge)
}

func writeParentEdge(w io.Writer, edge alloc.ParentEdge) error {
	if _, err := w.Write([]byte{byte(edge.Kind)}); err != nil {
		return err
	}
	switch edge.Kind {
	case alloc.EdgeArrayIndex:
		return wire.WriteUvarint(w, uint64(edge.Index))
	case alloc.EdgeMapLabel:
		return wire.WriteName(w, edge.Label)
	default:
		return nil
	}
}

func readParentEdge(r wire.ByteReader) (alloc.ParentEdge, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return alloc.ParentEdge{}, err
	}
	switch alloc.ParentEdgeKind(kindByte) {
	case alloc.EdgeArrayIndex:
		idx, err := wire.ReadUvarint(r)
		if err != nil {
			return alloc.ParentEdge{}, err
		}
		return alloc.ArrayIndex(int(idx)), nil
	case alloc.EdgeMapLabel:
		name, err := wire.ReadName(r)
		if err != nil {
			return alloc.ParentEdge{}, err
		}
		return alloc.MapLabel(name), nil
	default:
		return alloc.None, nil
	}
}

// writeValuePayload writes a Value node's payload. Fixed-size types
// delegate to the registry's own wire encoding; variable-length types
// (Size(t)==0, e.g. strings) have no registry codec to delegate to, so
// the length-prefixed raw bytes go straight on the wire.
func writeValuePayload(w io.Writer, reg core.TypeRegistry, t core.TypeRef, bytes []byte) error {
	if reg.Size(t) == 0 {
		if err := wire.WriteUvarint(w, uint64(len(bytes))); err != nil {
			return err
		}
		_, err := w.Write(bytes)
		return err
	}
	return reg.Serialize(t, bytes, w, true)
}

// readValuePayload is writeValuePayload's counterpart.
func readValuePayload(r wire.ByteReader, reg core.TypeRegistry, t core.TypeRef) ([]byte, error) {
	if reg.Size(t) == 0 {
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	buf := make([]byte, reg.Size(t))
	if err := reg.Deserialize(t, buf, r, true); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeContents(w io.Writer, reg core.TypeRegistry, kind node.Kind, vt core.TypeRef, n *node.Node) error {
	switch kind {
	case node.KindSmallValue, node.KindHeapValue:
		if err := wire.WriteUvarint(w, uint64(vt)); err != nil {
			return err
		}
		bs, _ := n.RawValueBytes()
		return writeValuePayload(w, reg, vt, bs)
	case node.KindArray:
		ids := n.Array()
		if err := wire.WriteUvarint(w, uint64(len(ids))); err != nil {
			return err
		}
		for _, id := range ids {
			if err := wire.WriteNodeId(w, id); err != nil {
				return err
			}
		}
		return nil
	case node.KindMap:
		keys := n.MapKeys()
		if err := wire.WriteUvarint(w, uint64(len(keys))); err != nil {
			return err
		}
		for _, k := range keys {
			v, _ := n.MapGet(k)
			if err := wire.WriteName(w, k); err != nil {
				return err
			}
			if err := wire.WriteNodeId(w, v); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// ReadFull clears t and rebuilds it from a record written by WriteFull.
func ReadFull(r wire.ByteReader, t *dax.Tree) error {
	envelope, err := r.ReadByte()
	if err != nil {
		return err
	}
	if envelope != envelopeFull {
		return fmt.Errorf("delta: ReadFull: envelope byte %d is not a full snapshot", envelope)
	}

	t.ReplicaReset()

	count, err := wire.ReadUvarint(r)
	if err != nil {
		return err
	}

	type pending struct {
		id     nodeid.NodeId
		parent nodeid.NodeId
		edge   alloc.ParentEdge
	}
	parents := make([]pending, 0, count)

	for i := uint64(0); i < count; i++ {
		id, err := wire.ReadNodeId(r)
		if err != nil {
			return err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return err
		}
		parent, err := wire.ReadNodeId(r)
		if err != nil {
			return err
		}
		edge, err := readParentEdge(r)
		if err != nil {
			return err
		}

		if id != t.RootId() {
			if _, err := t.ReplicaAllocateAt(id); err != nil {
				return err
			}
		}
		if err := readContents(r, t, id, node.Kind(kindByte)); err != nil {
			return err
		}
		parents = append(parents, pending{id: id, parent: parent, edge: edge})
	}

	for _, p := range parents {
		t.ReplicaSetParent(p.id, p.parent, p.edge)
	}
	return nil
}

func readContents(r wire.ByteReader, t *dax.Tree, id nodeid.NodeId, kind node.Kind) error {
	switch kind {
	case node.KindSmallValue, node.KindHeapValue:
		vtRaw, err := wire.ReadUvarint(r)
		if err != nil {
			return err
		}
		vt := core.TypeRef(vtRaw)
		buf, err := readValuePayload(r, t.Registry(), vt)
		if err != nil {
			return err
		}
		return t.ReplicaSetValue(id, vt, buf)
	case node.KindArray:
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return err
		}
		ids := make([]nodeid.NodeId, n)
		for i := range ids {
			ids[i], err = wire.ReadNodeId(r)
			if err != nil {
				return err
			}
		}
		return t.ReplicaSetArray(id, ids)
	case node.KindMap:
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return err
		}
		keys := make([]core.Name, n)
		vals := make(map[core.Name]nodeid.NodeId, n)
		for i := range keys {
			k, err := wire.ReadName(r)
			if err != nil {
				return err
			}
			v, err := wire.ReadNodeId(r)
			if err != nil {
				return err
			}
			keys[i] = k
			vals[k] = v
		}
		return t.ReplicaSetMap(id, keys, vals)
	default:
		return nil
	}
}

// WriteDelta encodes an incremental Delta: an envelope byte, then counts
// and records for Adds, Removes and Updates in that order.
func WriteDelta(w io.Writer, reg core.TypeRegistry, d Delta) error {
	if _, err := w.Write([]byte{envelopeDelta}); err != nil {
		return err
	}

	if err := wire.WriteUvarint(w, uint64(len(d.Adds))); err != nil {
		return err
	}
	for _, a := range d.Adds {
		if err := writeAdd(w, reg, a); err != nil {
			return err
		}
	}
	if err := wire.WriteUvarint(w, uint64(len(d.Removes))); err != nil {
		return err
	}
	for _, id := range d.Removes {
		if err := wire.WriteNodeId(w, id); err != nil {
			return err
		}
	}
	if err := wire.WriteUvarint(w, uint64(len(d.Updates))); err != nil {
		return err
	}
	for _, u := range d.Updates {
		if err := writeUpdate(w, reg, u); err != nil {
			return err
		}
	}
	return nil
}

// writeAdd writes NodeId, flags, parent/edge (always present: "parent and
// type always present for adds"), the type tag, and the kind-driven
// payload. The type tag reuses the TypeRef reserved sentinels
// (TypeEmpty/TypeArray/TypeMap) to double as the node's kind, so the
// record needs no separate kind byte.
func writeAdd(w io.Writer, reg core.TypeRegistry, a AddRecord) error {
	if err := wire.WriteNodeId(w, a.Id); err != nil {
		return err
	}

	flags := recordFlags{op: recordOpAdd, hasParent: true, hasType: true}
	typeTag := core.TypeEmpty
	switch a.Kind {
	case node.KindSmallValue, node.KindHeapValue:
		typeTag = a.ValueType
		flags.hasValue = true
	case node.KindArray:
		typeTag = core.TypeArray
		flags.isCFull = true
	case node.KindMap:
		typeTag = core.TypeMap
		flags.isCFull = true
	}

	if _, err := w.Write([]byte{flags.encode()}); err != nil {
		return err
	}
	if err := wire.WriteNodeId(w, a.Parent); err != nil {
		return err
	}
	if err := writeParentEdge(w, a.ParentEdge); err != nil {
		return err
	}
	if err := wire.WriteUvarint(w, uint64(typeTag)); err != nil {
		return err
	}

	switch a.Kind {
	case node.KindSmallValue, node.KindHeapValue:
		return writeValuePayload(w, reg, a.ValueType, a.Bytes)
	case node.KindArray:
		if err := wire.WriteUvarint(w, uint64(len(a.Array))); err != nil {
			return err
		}
		for _, id := range a.Array {
			if err := wire.WriteNodeId(w, id); err != nil {
				return err
			}
		}
		return nil
	case node.KindMap:
		if err := wire.WriteUvarint(w, uint64(len(a.MapKeys))); err != nil {
			return err
		}
		for _, k := range a.MapKeys {
			if err := wire.WriteName(w, k); err != nil {
				return err
			}
			if err := wire.WriteNodeId(w, a.MapVals[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// writeUpdate writes NodeId, flags, the type tag (when the update's kind
// carries one) and the flag-driven payload: has_value for a scalar
// change, is_cfull for a wholesale container replace, has_cdelta for an
// incremental splice/edit list.
func writeUpdate(w io.Writer, reg core.TypeRegistry, u UpdateRecord) error {
	if err := wire.WriteNodeId(w, u.Id); err != nil {
		return err
	}

	flags := recordFlags{op: recordOpUpdate}
	var typeTag core.TypeRef
	switch u.Kind {
	case UpdateValue:
		typeTag = u.ValueType
		flags.hasType = true
		flags.hasValue = true
	case UpdateArrayFull:
		typeTag = core.TypeArray
		flags.hasType = true
		flags.isCFull = true
	case UpdateArrayIncremental:
		typeTag = core.TypeArray
		flags.hasType = true
		flags.hasCDelta = true
	case UpdateMapFull:
		typeTag = core.TypeMap
		flags.hasType = true
		flags.isCFull = true
	case UpdateMapIncremental:
		typeTag = core.TypeMap
		flags.hasType = true
		flags.hasCDelta = true
	default:
		return fmt.Errorf("delta: writeUpdate: unknown update kind %d", u.Kind)
	}

	if _, err := w.Write([]byte{flags.encode()}); err != nil {
		return err
	}
	if flags.hasType {
		if err := wire.WriteUvarint(w, uint64(typeTag)); err != nil {
			return err
		}
	}

	switch u.Kind {
	case UpdateValue:
		return writeValuePayload(w, reg, u.ValueType, u.Bytes)
	case UpdateArrayFull:
		if err := wire.WriteUvarint(w, uint64(len(u.ArrayFull))); err != nil {
			return err
		}
		for _, id := range u.ArrayFull {
			if err := wire.WriteNodeId(w, id); err != nil {
				return err
			}
		}
		return nil
	case UpdateArrayIncremental:
		return writeArrayDelta(w, u.ArraySlot)
	case UpdateMapFull:
		if err := wire.WriteUvarint(w, uint64(len(u.MapKeys))); err != nil {
			return err
		}
		for _, k := range u.MapKeys {
			if err := wire.WriteName(w, k); err != nil {
				return err
			}
			if err := wire.WriteNodeId(w, u.MapFull[k]); err != nil {
				return err
			}
		}
		return nil
	case UpdateMapIncremental:
		if err := wire.WriteUvarint(w, uint64(len(u.MapEdits))); err != nil {
			return err
		}
		for _, e := range u.MapEdits {
			removed := byte(0)
			if e.Removed {
				removed = 1
			}
			if err := wire.WriteName(w, e.Key); err != nil {
				return err
			}
			if _, err := w.Write([]byte{removed}); err != nil {
				return err
			}
			if !e.Removed {
				if err := wire.WriteNodeId(w, e.Id); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return nil
	}
}

// writeArrayDelta writes the array-delta body: a kind byte (1=clear,
// 0=replace) followed, for a replace, by start/old_count/new_count and
// the replacement ids — the common-prefix/common-suffix splice that lets
// the array shrink or grow, not just overlay same-length slots.
func writeArrayDelta(w io.Writer, d ArrayDelta) error {
	if d.Clear {
		_, err := w.Write([]byte{1})
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	if err := wire.WriteUvarint(w, uint64(d.Start)); err != nil {
		return err
	}
	if err := wire.WriteUvarint(w, uint64(d.OldCount)); err != nil {
		return err
	}
	if err := wire.WriteUvarint(w, uint64(len(d.NewIds))); err != nil {
		return err
	}
	for _, id := range d.NewIds {
		if err := wire.WriteNodeId(w, id); err != nil {
			return err
		}
	}
	return nil
}

func readArrayDelta(r wire.ByteReader) (ArrayDelta, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return ArrayDelta{}, err
	}
	if kindByte == 1 {
		return ArrayDelta{Clear: true}, nil
	}
	start, err := wire.ReadUvarint(r)
	if err != nil {
		return ArrayDelta{}, err
	}
	oldCount, err := wire.ReadUvarint(r)
	if err != nil {
		return ArrayDelta{}, err
	}
	newCount, err := wire.ReadUvarint(r)
	if err != nil {
		return ArrayDelta{}, err
	}
	ids := make([]nodeid.NodeId, newCount)
	for i := range ids {
		ids[i], err = wire.ReadNodeId(r)
		if err != nil {
			return ArrayDelta{}, err
		}
	}
	return ArrayDelta{Start: int(start), OldCount: int(oldCount), NewIds: ids}, nil
}

// ReadDelta decodes a Delta written by WriteDelta. reg is needed to size
// and deserialize Value payloads.
func ReadDelta(r wire.ByteReader, reg core.TypeRegistry) (Delta, error) {
	var d Delta

	envelope, err := r.ReadByte()
	if err != nil {
		return d, err
	}
	if envelope != envelopeDelta {
		return d, fmt.Errorf("delta: ReadDelta: envelope byte %d is not a delta", envelope)
	}

	addCount, err := wire.ReadUvarint(r)
	if err != nil {
		return d, err
	}
	for i := uint64(0); i < addCount; i++ {
		a, err := readAdd(r, reg)
		if err != nil {
			return d, err
		}
		d.Adds = append(d.Adds, a)
	}

	removeCount, err := wire.ReadUvarint(r)
	if err != nil {
		return d, err
	}
	for i := uint64(0); i < removeCount; i++ {
		id, err := wire.ReadNodeId(r)
		if err != nil {
			return d, err
		}
		d.Removes = append(d.Removes, id)
	}

	updateCount, err := wire.ReadUvarint(r)
	if err != nil {
		return d, err
	}
	for i := uint64(0); i < updateCount; i++ {
		u, err := readUpdate(r, reg)
		if err != nil {
			return d, err
		}
		d.Updates = append(d.Updates, u)
	}

	return d, nil
}

func readAdd(r wire.ByteReader, reg core.TypeRegistry) (AddRecord, error) {
	var a AddRecord
	id, err := wire.ReadNodeId(r)
	if err != nil {
		return a, err
	}
	a.Id = id

	flagsByte, err := r.ReadByte()
	if err != nil {
		return a, err
	}
	flags := decodeFlags(flagsByte)

	if flags.hasParent {
		parent, err := wire.ReadNodeId(r)
		if err != nil {
			return a, err
		}
		edge, err := readParentEdge(r)
		if err != nil {
			return a, err
		}
		a.Parent, a.ParentEdge = parent, edge
	}

	var typeTag core.TypeRef
	if flags.hasType {
		raw, err := wire.ReadUvarint(r)
		if err != nil {
			return a, err
		}
		typeTag = core.TypeRef(raw)
	}

	switch typeTag {
	case core.TypeEmpty:
		a.Kind = node.KindEmpty
	case core.TypeArray:
		a.Kind = node.KindArray
	case core.TypeMap:
		a.Kind = node.KindMap
	default:
		a.Kind = node.KindSmallValue
		a.ValueType = typeTag
	}

	if flags.hasValue {
		buf, err := readValuePayload(r, reg, typeTag)
		if err != nil {
			return a, err
		}
		a.Bytes = buf
	}

	if flags.isCFull {
		switch a.Kind {
		case node.KindArray:
			n, err := wire.ReadUvarint(r)
			if err != nil {
				return a, err
			}
			a.Array = make([]nodeid.NodeId, n)
			for i := range a.Array {
				a.Array[i], err = wire.ReadNodeId(r)
				if err != nil {
					return a, err
				}
			}
		case node.KindMap:
			n, err := wire.ReadUvarint(r)
			if err != nil {
				return a, err
			}
			a.MapKeys = make([]core.Name, n)
			a.MapVals = make(map[core.Name]nodeid.NodeId, n)
			for i := range a.MapKeys {
				k, err := wire.ReadName(r)
				if err != nil {
					return a, err
				}
				v, err := wire.ReadNodeId(r)
				if err != nil {
					return a, err
				}
				a.MapKeys[i] = k
				a.MapVals[k] = v
			}
		}
	}
	return a, nil
}

func readUpdate(r wire.ByteReader, reg core.TypeRegistry) (UpdateRecord, error) {
	var u UpdateRecord
	id, err := wire.ReadNodeId(r)
	if err != nil {
		return u, err
	}
	u.Id = id

	flagsByte, err := r.ReadByte()
	if err != nil {
		return u, err
	}
	flags := decodeFlags(flagsByte)

	var typeTag core.TypeRef
	if flags.hasType {
		raw, err := wire.ReadUvarint(r)
		if err != nil {
			return u, err
		}
		typeTag = core.TypeRef(raw)
	}

	switch {
	case flags.hasValue:
		u.Kind = UpdateValue
		u.ValueType = typeTag
		buf, err := readValuePayload(r, reg, typeTag)
		if err != nil {
			return u, err
		}
		u.Bytes = buf

	case flags.isCFull && typeTag == core.TypeArray:
		u.Kind = UpdateArrayFull
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return u, err
		}
		u.ArrayFull = make([]nodeid.NodeId, n)
		for i := range u.ArrayFull {
			u.ArrayFull[i], err = wire.ReadNodeId(r)
			if err != nil {
				return u, err
			}
		}

	case flags.isCFull && typeTag == core.TypeMap:
		u.Kind = UpdateMapFull
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return u, err
		}
		u.MapKeys = make([]core.Name, n)
		u.MapFull = make(map[core.Name]nodeid.NodeId, n)
		for i := range u.MapKeys {
			k, err := wire.ReadName(r)
			if err != nil {
				return u, err
			}
			v, err := wire.ReadNodeId(r)
			if err != nil {
				return u, err
			}
			u.MapKeys[i] = k
			u.MapFull[k] = v
		}

	case flags.hasCDelta && typeTag == core.TypeArray:
		u.Kind = UpdateArrayIncremental
		d, err := readArrayDelta(r)
		if err != nil {
			return u, err
		}
		u.ArraySlot = d

	case flags.hasCDelta && typeTag == core.TypeMap:
		u.Kind = UpdateMapIncremental
		n, err := wire.ReadUvarint(r)
		if err != nil {
			return u, err
		}
		u.MapEdits = make([]MapEntryChange, n)
		for i := range u.MapEdits {
			k, err := wire.ReadName(r)
			if err != nil {
				return u, err
			}
			removedByte, err := r.ReadByte()
			if err != nil {
				return u, err
			}
			e := MapEntryChange{Key: k, Removed: removedByte != 0}
			if !e.Removed {
				e.Id, err = wire.ReadNodeId(r)
				if err != nil {
					return u, err
				}
			}
			u.MapEdits[i] = e
		}

	default:
		return u, fmt.Errorf("delta: readUpdate: unrecognized flags %08b for type %s", flagsByte, typeTag)
	}
	return u, nil
}
