package dax

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// releaseChildren releases every child of n (whose id is id) without
// releasing n itself, then leaves n's container empty. Used by
// coerceToContainer before resetting a node to the opposite container
// kind, and by the public ReleaseChildren operation.
func (t *Tree) releaseChildren(id nodeid.NodeId, n *node.Node) {
	switch n.Kind() {
	case node.KindArray:
		for _, child := range n.Array() {
			t.releaseRecursive(child)
		}
		n.ResetEmptyArray()
	case node.KindMap:
		for _, key := range n.MapKeys() {
			if child, ok := n.MapGet(key); ok {
				t.releaseRecursive(child)
			}
		}
		n.ResetEmptyMap()
	}
}

// releaseRecursive frees id and, if it is a container, every descendant,
// returning every freed slot to the allocator (spec.md's release_recursive).
func (t *Tree) releaseRecursive(id nodeid.NodeId) {
	if !id.IsValid() || id == t.rootId {
		return
	}
	n := t.alloc.Node(id)
	if n == nil {
		return
	}
	t.releaseChildren(id, n)
	_ = t.alloc.Deallocate(id)
}

// ReleaseChildren frees every child of the node v resolves to (but not
// the node itself), leaving it an empty Array/Map.
func (v *Visitor) ReleaseChildren() error {
	id, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	v.tree.releaseChildren(id, n)
	v.tree.bumpStruct()
	return nil
}

// reindexArrayParentEdges rewrites the ParentEdge.Index of every element
// of an array after a removal shifts later elements down.
func (t *Tree) reindexArrayParentEdges(arrayId nodeid.NodeId, n *node.Node) {
	for i, child := range n.Array() {
		_ = t.alloc.SetParentEdgeArray(child, i)
		_ = t.alloc.SetParent(child, arrayId)
	}
}

// deepCopyInto recursively clones src's subtree into a freshly allocated
// node attached to parent/edge, returning the new node's id. Used by
// CopyNode (deep_copy_node in spec.md §4.D).
func (t *Tree) deepCopyInto(src nodeid.NodeId, parent nodeid.NodeId, edge ParentEdgeArg) (nodeid.NodeId, error) {
	srcNode := t.alloc.Node(src)
	if srcNode == nil {
		return nodeid.Invalid, core.Kind(core.ErrKindInvalidNode)
	}

	dstId, err := t.alloc.Allocate()
	if err != nil {
		return nodeid.Invalid, core.Wrap("Tree.deepCopyInto", core.ErrKindResolveAllocateFailed, err)
	}
	dstNode := t.alloc.Node(dstId)

	switch srcNode.Kind() {
	case node.KindEmpty:
		// already Empty
	case node.KindSmallValue, node.KindHeapValue:
		vt := srcNode.ValueType()
		_ = t.alloc.SetValueType(dstId, vt)
		if bs, ok := srcNode.RawValueBytes(); ok {
			_ = dstNode.SetRawValueBytes(t.reg, vt, bs)
		}
	case node.KindArray:
		dstNode.ResetEmptyArray()
		for i, child := range srcNode.Array() {
			newChild, err := t.deepCopyInto(child, dstId, arrayEdge(i))
			if err != nil {
				return nodeid.Invalid, err
			}
			dstNode.ArrayAppend(newChild)
		}
	case node.KindMap:
		dstNode.ResetEmptyMap()
		for _, key := range srcNode.MapKeys() {
			child, _ := srcNode.MapGet(key)
			newChild, err := t.deepCopyInto(child, dstId, mapEdge(key))
			if err != nil {
				return nodeid.Invalid, err
			}
			dstNode.MapSet(key, newChild)
		}
	}

	t.attach(dstId, parent, edge)
	return dstId, nil
}

// ParentEdgeArg describes how a freshly created node attaches to its
// parent container; see arrayEdge/mapEdge/noEdge.
type ParentEdgeArg struct {
	isArray bool
	isMap   bool
	index   int
	name    core.Name
}

func arrayEdge(index int) ParentEdgeArg    { return ParentEdgeArg{isArray: true, index: index} }
func mapEdge(name core.Name) ParentEdgeArg { return ParentEdgeArg{isMap: true, name: name} }
func noEdge() ParentEdgeArg                { return ParentEdgeArg{} }

func (t *Tree) attach(id nodeid.NodeId, parent nodeid.NodeId, edge ParentEdgeArg) {
	if !parent.IsValid() {
		return
	}
	_ = t.alloc.SetParent(id, parent)
	switch {
	case edge.isArray:
		_ = t.alloc.SetParentEdgeArray(id, edge.index)
	case edge.isMap:
		_ = t.alloc.SetParentEdgeMap(id, edge.name)
	}
}

// CopyNode deep-copies src's subtree and overwrites dst with the copy's
// root contents in place, preserving dst's own NodeId/identity (so
// Visitors already pointed at dst keep working). This is spec.md's
// copy_node: a structural, non-identity-preserving-of-children copy.
func (t *Tree) CopyNode(dst, src *Visitor) error {
	srcId, srcNode, err := src.resolve(ReadOnly)
	if err != nil {
		return err
	}
	dstId, dstNode, err := dst.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if srcId == dstId {
		return nil
	}

	t.releaseChildren(dstId, dstNode)

	switch srcNode.Kind() {
	case node.KindEmpty:
		dstNode.ResetEmpty()
	case node.KindSmallValue, node.KindHeapValue:
		vt := srcNode.ValueType()
		_ = t.alloc.SetValueType(dstId, vt)
		if bs, ok := srcNode.RawValueBytes(); ok {
			_ = dstNode.SetRawValueBytes(t.reg, vt, bs)
		}
	case node.KindArray:
		dstNode.ResetEmptyArray()
		for i, child := range srcNode.Array() {
			newChild, err := t.deepCopyInto(child, dstId, arrayEdge(i))
			if err != nil {
				return err
			}
			dstNode.ArrayAppend(newChild)
		}
	case node.KindMap:
		dstNode.ResetEmptyMap()
		for _, key := range srcNode.MapKeys() {
			child, _ := srcNode.MapGet(key)
			newChild, err := t.deepCopyInto(child, dstId, mapEdge(key))
			if err != nil {
				return err
			}
			dstNode.MapSet(key, newChild)
		}
	}

	t.bumpStruct()
	t.markChanged(dstId)
	return nil
}

// SwapNode exchanges the contents (and subtrees) of a and b in place,
// without invalidating either Visitor's NodeId. Both are resolved with
// EnsureCreate, so on a server a missing path is created first
// (spec.md's swap_node).
func (t *Tree) SwapNode(a, b *Visitor) error {
	aId, aNode, err := a.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	bId, bNode, err := b.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if aId == bId {
		return nil
	}

	*aNode, *bNode = *bNode, *aNode

	t.reparentChildren(aId, aNode)
	t.reparentChildren(bId, bNode)

	t.bumpStruct()
	t.markChanged(aId)
	t.markChanged(bId)
	return nil
}

// reparentChildren fixes up a node's children's Parent/ParentEdge after
// its contents moved to a different NodeId (SwapNode, MoveNode).
func (t *Tree) reparentChildren(id nodeid.NodeId, n *node.Node) {
	switch n.Kind() {
	case node.KindArray:
		for i, child := range n.Array() {
			_ = t.alloc.SetParent(child, id)
			_ = t.alloc.SetParentEdgeArray(child, i)
		}
	case node.KindMap:
		for _, key := range n.MapKeys() {
			if child, ok := n.MapGet(key); ok {
				_ = t.alloc.SetParent(child, id)
				_ = t.alloc.SetParentEdgeMap(child, key)
			}
		}
	}
}

// MoveNode detaches src's subtree from its current parent and reattaches
// it under dst, releasing whatever previously lived at dst. Unlike
// CopyNode, the moved subtree's NodeIds are preserved (spec.md's
// move_node): only dst's NodeId keeps its identity, now pointing at
// src's former contents.
func (t *Tree) MoveNode(dst, src *Visitor) error {
	srcId, srcNode, err := src.resolve(ReadOnly)
	if err != nil {
		return err
	}
	dstId, dstNode, err := dst.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if srcId == dstId {
		return nil
	}

	t.releaseChildren(dstId, dstNode)
	*dstNode = *srcNode
	t.reparentChildren(dstId, dstNode)

	srcNode.ResetEmpty()

	t.bumpStruct()
	t.markChanged(dstId)
	t.markChanged(srcId)
	return nil
}

// Redirect rebinds parent's existing child entry at edge (an array index
// or map key) so it points at newTarget's node, without moving or
// copying any subtree. newTarget may live anywhere in the Tree; its
// recorded parent and edge become parent/edge (spec.md's redirect, used
// for e.g. "this inventory slot now refers to that item entity
// instead").
func (t *Tree) Redirect(parent *Visitor, edge Segment, newTarget *Visitor) error {
	parentId, parentNode, err := parent.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	newId, _, err := newTarget.resolve(ReadOnly)
	if err != nil {
		return err
	}

	if edge.IsIndex {
		if !parentNode.IsArray() {
			return core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
		}
		if int(edge.Index) < 0 || int(edge.Index) >= parentNode.ArrayLen() {
			return core.Kind(core.ErrKindResolveArrayIndexOutOfRange)
		}
		parentNode.ArraySetAt(int(edge.Index), newId)
		_ = t.alloc.SetParentEdgeArray(newId, int(edge.Index))
	} else {
		if !parentNode.IsMap() {
			return core.Kind(core.ErrKindSegmentNameButNodeNotMap)
		}
		if _, ok := parentNode.MapGet(edge.Name); !ok {
			return core.Kind(core.ErrKindResolveMapKeyNotFound)
		}
		parentNode.MapSet(edge.Name, newId)
		_ = t.alloc.SetParentEdgeMap(newId, edge.Name)
	}
	_ = t.alloc.SetParent(newId, parentId)

	t.bumpStruct()
	t.markChanged(parentId)
	return nil
}
