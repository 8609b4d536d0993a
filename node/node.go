// Package node implements the Tree's value algebra: a closed, tagged
// variant that is exactly one of Empty, a small inline value, a boxed
// heap value, an ordered array of child handles, or a name-keyed map of
// child handles. It has no notion of parents, versions or trees — that
// bookkeeping lives one layer up, in the allocator's per-slot metadata
// and in package dax.
package node

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/nodeid"
)

// SmallValueSize is the inline byte capacity of a SmallValue payload.
const SmallValueSize = 32

// SmallValueAlign is the maximum alignment a type may require to still be
// eligible for inline (SmallValue) storage.
const SmallValueAlign = 16

// Kind enumerates the closed set of variants a Node can be.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindSmallValue
	KindHeapValue
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindSmallValue:
		return "SmallValue"
	case KindHeapValue:
		return "HeapValue"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	default:
		return "Kind(?)"
	}
}

// Node is the tagged variant. Only the fields matching Kind are
// meaningful; every method below switches exhaustively over Kind rather
// than relying on interface dispatch, matching a closed sum type.
type Node struct {
	kind Kind

	// valid when kind == KindSmallValue or KindHeapValue
	valueType core.TypeRef
	small     [SmallValueSize]byte // used only for KindSmallValue
	heap      []byte               // used only for KindHeapValue

	// valid when kind == KindArray
	array []nodeid.NodeId

	// valid when kind == KindMap. Iteration order is insertion order for
	// stability within a process; semantics never depend on map order.
	mapKeys []core.Name
	mapVals map[core.Name]nodeid.NodeId
}

// Empty returns a freshly constructed Empty node.
func Empty() Node { return Node{kind: KindEmpty} }

// Kind reports the node's current variant.
func (n *Node) Kind() Kind { return n.kind }

// IsEmpty, IsArray, IsMap, IsValue are the non-empty/kind-test helpers the
// spec's Visitor relies on (is_empty_node, is_empty_array, ...).
func (n *Node) IsEmpty() bool { return n.kind == KindEmpty }
func (n *Node) IsArray() bool { return n.kind == KindArray }
func (n *Node) IsMap() bool   { return n.kind == KindMap }
func (n *Node) IsValue() bool {
	return n.kind == KindSmallValue || n.kind == KindHeapValue
}

// ValueType returns the concrete TypeRef of a Value node, or TypeEmpty /
// TypeArray / TypeMap for the corresponding structural kinds.
func (n *Node) ValueType() core.TypeRef {
	switch n.kind {
	case KindSmallValue, KindHeapValue:
		return n.valueType
	case KindArray:
		return core.TypeArray
	case KindMap:
		return core.TypeMap
	default:
		return core.TypeEmpty
	}
}

// fits reports whether a value of the given size/align is eligible for
// inline (SmallValue) storage.
func fits(size, align int) bool {
	return size <= SmallValueSize && align <= SmallValueAlign
}

// ResetEmpty transitions n to Empty, releasing any previously held
// payload (the caller is responsible for calling TypeRegistry.Destroy on
// a HeapValue's bytes before this if the type owns external resources).
func (n *Node) ResetEmpty() core.Outcome {
	if n.kind == KindEmpty {
		return core.SameValueNoChange
	}
	*n = Node{kind: KindEmpty}
	return core.SuccessChangeValueAndType
}

// ResetEmptyArray transitions n to an empty Array.
func (n *Node) ResetEmptyArray() core.Outcome {
	switch n.kind {
	case KindArray:
		if len(n.array) == 0 {
			return core.SameValueNoChange
		}
		n.array = nil
		return core.SuccessChangeValue
	case KindEmpty:
		*n = Node{kind: KindArray}
		return core.SuccessOverrideEmpty
	default:
		*n = Node{kind: KindArray}
		return core.SuccessChangeValueAndType
	}
}

// ResetEmptyMap transitions n to an empty Map.
func (n *Node) ResetEmptyMap() core.Outcome {
	switch n.kind {
	case KindMap:
		if len(n.mapKeys) == 0 {
			return core.SameValueNoChange
		}
		n.mapKeys = nil
		n.mapVals = make(map[core.Name]nodeid.NodeId)
		return core.SuccessChangeValue
	case KindEmpty:
		*n = Node{kind: KindMap, mapVals: make(map[core.Name]nodeid.NodeId)}
		return core.SuccessOverrideEmpty
	default:
		*n = Node{kind: KindMap, mapVals: make(map[core.Name]nodeid.NodeId)}
		return core.SuccessChangeValueAndType
	}
}

// TrySetValue embeds bytes of type t into n. If n is currently Empty, it
// becomes a Value (SmallValue or HeapValue depending on reg's reported
// size/align). If n already holds a Value, t must match the existing
// type or ErrValueTypeMismatch is returned. Byte-identical writes to an
// existing value are compare-and-skipped via reg.Compare.
func (n *Node) TrySetValue(reg core.TypeRegistry, t core.TypeRef, value []byte) (core.Outcome, error) {
	size, align := reg.Size(t), reg.Align(t)
	variable := size == 0 // package convention: Size==0 means variable-length
	switch n.kind {
	case KindEmpty:
		if !variable && fits(size, align) {
			var small [SmallValueSize]byte
			copy(small[:], value)
			n.kind = KindSmallValue
			n.valueType = t
			n.small = small
		} else {
			boxSize := size
			if variable {
				boxSize = len(value)
			}
			heap := make([]byte, boxSize)
			reg.Copy(t, heap, value)
			n.kind = KindHeapValue
			n.valueType = t
			n.heap = heap
		}
		return core.SuccessOverrideEmpty, nil
	case KindSmallValue, KindHeapValue:
		if n.valueType != t {
			return 0, core.New("Node.TrySetValue", core.ErrKindValueTypeMismatch,
				"node holds type %v, cannot set %v", n.valueType, t)
		}
		cur := n.valueBytes()
		if len(cur) == len(value) && reg.Compare(t, cur, value) {
			return core.SameValueNoChange, nil
		}
		if variable && len(value) != len(cur) {
			// Variable-length value changed size: reallocate the box
			// rather than trying to copy into a mismatched buffer.
			heap := make([]byte, len(value))
			reg.Copy(t, heap, value)
			n.heap = heap
			return core.SuccessChangeValue, nil
		}
		reg.Copy(t, cur, value)
		return core.SuccessChangeValue, nil
	default:
		return 0, core.New("Node.TrySetValue", core.ErrKindValueTypeMismatch,
			"node is a %v, not a value", n.kind)
	}
}

// valueBytes returns the live backing slice for a Value node, valid for
// in-place mutation by TrySetValue/Copy.
func (n *Node) valueBytes() []byte {
	if n.kind == KindSmallValue {
		return n.small[:]
	}
	return n.heap
}

// TryGetValue returns the payload only if the node is a Value of exactly
// the expected type; ok is false otherwise (including for Empty/Array/Map
// nodes, which is not an error — callers treat it as "no data here").
func (n *Node) TryGetValue(expected core.TypeRef) (value []byte, ok bool) {
	if !n.IsValue() || n.valueType != expected {
		return nil, false
	}
	return n.valueBytes(), true
}

// TryGetValueGeneric returns the payload and its type regardless of what
// the caller expects, or ok=false if the node is not a Value.
func (n *Node) TryGetValueGeneric() (t core.TypeRef, value []byte, ok bool) {
	if !n.IsValue() {
		return core.TypeEmpty, nil, false
	}
	return n.valueType, n.valueBytes(), true
}

// RawValueBytes returns the raw payload of a Value node regardless of
// type, for structural operations (copy/move/swap) that relocate a
// value without caring what it means.
func (n *Node) RawValueBytes() ([]byte, bool) {
	if !n.IsValue() {
		return nil, false
	}
	return n.valueBytes(), true
}

// SetRawValueBytes resets n to Empty and writes value as a fresh Value
// of type t, used by structural operations that clone a Value node
// without going through TrySetValue's existing-value compare-and-skip
// path (there is no existing value: n was just allocated or reset).
func (n *Node) SetRawValueBytes(reg core.TypeRegistry, t core.TypeRef, value []byte) error {
	n.ResetEmpty()
	_, err := n.TrySetValue(reg, t, value)
	return err
}

// Array returns the ordered child list of an Array node (nil otherwise).
// The returned slice aliases internal storage and must be treated as
// read-only by callers outside this package's mutators below.
func (n *Node) Array() []nodeid.NodeId {
	if n.kind != KindArray {
		return nil
	}
	return n.array
}

// ArrayLen returns len(Array()), 0 for non-Array nodes.
func (n *Node) ArrayLen() int { return len(n.array) }

// ArrayAppend appends a child id to an Array node. The caller must have
// already checked n.IsArray().
func (n *Node) ArrayAppend(id nodeid.NodeId) (index int) {
	n.array = append(n.array, id)
	return len(n.array) - 1
}

// ArrayInsert inserts id at position idx, shifting later elements right.
func (n *Node) ArrayInsert(idx int, id nodeid.NodeId) {
	n.array = append(n.array, nodeid.Invalid)
	copy(n.array[idx+1:], n.array[idx:])
	n.array[idx] = id
}

// ArrayRemoveAt removes the element at idx, shifting later elements left.
func (n *Node) ArrayRemoveAt(idx int) nodeid.NodeId {
	removed := n.array[idx]
	copy(n.array[idx:], n.array[idx+1:])
	n.array = n.array[:len(n.array)-1]
	return removed
}

// ArraySet overwrites the slice directly; used by full/delta replica
// decoding to rebuild an Array node's children in one shot.
func (n *Node) ArraySet(ids []nodeid.NodeId) {
	n.kind = KindArray
	n.array = ids
}

// ArraySetAt rebinds the single element at idx, e.g. for redirect().
func (n *Node) ArraySetAt(idx int, id nodeid.NodeId) {
	n.array[idx] = id
}

// MapSetAll overwrites a Map node's entire key/value contents in one
// shot, preserving keys' given order; used by full/delta replica
// decoding to rebuild a Map node's children without replaying individual
// MapSet calls.
func (n *Node) MapSetAll(keys []core.Name, vals map[core.Name]nodeid.NodeId) {
	n.kind = KindMap
	n.mapKeys = keys
	n.mapVals = vals
}

// MapKeys returns the Map's keys in (stable, insertion) iteration order.
func (n *Node) MapKeys() []core.Name {
	if n.kind != KindMap {
		return nil
	}
	return n.mapKeys
}

// MapLen returns the number of entries in a Map node.
func (n *Node) MapLen() int { return len(n.mapKeys) }

// MapGet looks up a key, returning ok=false if the node is not a Map or
// the key is absent.
func (n *Node) MapGet(key core.Name) (nodeid.NodeId, bool) {
	if n.kind != KindMap {
		return nodeid.Invalid, false
	}
	id, ok := n.mapVals[key]
	return id, ok
}

// MapSet inserts or rebinds key->id, returning true if this was a new key
// (so the caller can bump struct_version appropriately).
func (n *Node) MapSet(key core.Name, id nodeid.NodeId) (isNew bool) {
	if n.kind != KindMap {
		n.kind = KindMap
		n.mapVals = make(map[core.Name]nodeid.NodeId)
	}
	if _, exists := n.mapVals[key]; !exists {
		n.mapKeys = append(n.mapKeys, key)
		isNew = true
	}
	n.mapVals[key] = id
	return isNew
}

// MapRemove deletes key, returning the removed id and whether it existed.
func (n *Node) MapRemove(key core.Name) (nodeid.NodeId, bool) {
	if n.kind != KindMap {
		return nodeid.Invalid, false
	}
	id, ok := n.mapVals[key]
	if !ok {
		return nodeid.Invalid, false
	}
	delete(n.mapVals, key)
	for i, k := range n.mapKeys {
		if k == key {
			n.mapKeys = append(n.mapKeys[:i], n.mapKeys[i+1:]...)
			break
		}
	}
	return id, true
}

// Identical reports structural equality: for Array/Map it compares child
// NodeIds elementwise/by-key; for a Value it compares bytes through the
// registry's Compare operation. Array/Map equality is about the NodeIds
// referenced, not a deep recursive comparison of the referenced subtrees
// — callers that want deep equality walk the tree themselves.
func (n *Node) Identical(o *Node, reg core.TypeRegistry) bool {
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindEmpty:
		return true
	case KindSmallValue, KindHeapValue:
		if n.valueType != o.valueType {
			return false
		}
		return reg.Compare(n.valueType, n.valueBytes(), o.valueBytes())
	case KindArray:
		if len(n.array) != len(o.array) {
			return false
		}
		for i := range n.array {
			if n.array[i] != o.array[i] {
				return false
			}
		}
		return true
	case KindMap:
		if len(n.mapVals) != len(o.mapVals) {
			return false
		}
		for k, v := range n.mapVals {
			ov, ok := o.mapVals[k]
			if !ok || ov != v {
				return false
			}
		}
		return true
	default:
		return false
	}
}
