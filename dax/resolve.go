package dax

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// ResolveMode controls how a Visitor's path is walked against the Tree.
// EnsureCreate and ForceOverride are only valid on the server; a client
// Tree silently demotes both to ReadOnly (spec.md §4.E).
type ResolveMode int

const (
	// ReadOnly fails if any segment is missing; never mutates.
	ReadOnly ResolveMode = iota
	// EnsureCreate creates missing map entries and resets Empty nodes
	// into Array/Map as needed, but fails outright on a kind mismatch
	// against an existing non-Empty node.
	EnsureCreate
	// ForceOverride behaves like EnsureCreate but additionally coerces an
	// existing non-Empty, wrong-kind node to the required kind,
	// releasing its subtree first.
	ForceOverride
)

func (t *Tree) effectiveMode(mode ResolveMode) ResolveMode {
	if mode != ReadOnly && !t.runningOnServer {
		return ReadOnly
	}
	return mode
}

// resolveStep advances one path segment from curId, creating or coercing
// containers as mode allows, and returns the child NodeId.
func (t *Tree) resolveStep(curId nodeid.NodeId, seg Segment, mode ResolveMode) (nodeid.NodeId, error) {
	n := t.alloc.Node(curId)
	if n == nil {
		return nodeid.Invalid, core.Kind(core.ErrKindInvalidNode)
	}

	if seg.IsIndex {
		return t.resolveIndexStep(curId, n, seg.Index, mode)
	}
	return t.resolveNameStep(curId, n, seg.Name, mode)
}

func (t *Tree) resolveNameStep(curId nodeid.NodeId, n *node.Node, name core.Name, mode ResolveMode) (nodeid.NodeId, error) {
	switch {
	case n.IsMap():
		// fast path, no coercion needed
	case n.IsEmpty():
		if mode == ReadOnly {
			return nodeid.Invalid, core.Kind(core.ErrKindResolveMapKeyNotFound)
		}
		n.ResetEmptyMap()
		t.bumpStruct()
	default:
		if mode != ForceOverride {
			return nodeid.Invalid, core.Kind(core.ErrKindSegmentNameButNodeNotMap)
		}
		t.coerceToContainer(curId, n, false)
	}

	if id, ok := n.MapGet(name); ok {
		return id, nil
	}
	if mode == ReadOnly {
		return nodeid.Invalid, core.Kind(core.ErrKindResolveMapKeyNotFound)
	}
	return t.createMapChild(curId, n, name)
}

func (t *Tree) resolveIndexStep(curId nodeid.NodeId, n *node.Node, idx int32, mode ResolveMode) (nodeid.NodeId, error) {
	if idx < 0 {
		return nodeid.Invalid, core.Kind(core.ErrKindResolveArrayIndexNegative)
	}

	switch {
	case n.IsArray():
		// fast path
	case n.IsEmpty():
		if mode == ReadOnly {
			return nodeid.Invalid, core.Kind(core.ErrKindResolveArrayIndexOutOfRange)
		}
		n.ResetEmptyArray()
		t.bumpStruct()
	default:
		if mode != ForceOverride {
			return nodeid.Invalid, core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
		}
		t.coerceToContainer(curId, n, true)
	}

	if int(idx) >= n.ArrayLen() {
		// Arrays never support sparse creation, regardless of mode.
		return nodeid.Invalid, core.Kind(core.ErrKindResolveArrayIndexOutOfRange)
	}
	return n.Array()[idx], nil
}

// coerceToContainer implements ForceOverride's "coerce non-Empty
// mismatching nodes to the required kind, releasing their subtree"
// behavior.
func (t *Tree) coerceToContainer(id nodeid.NodeId, n *node.Node, wantArray bool) {
	t.releaseChildren(id, n)
	if wantArray {
		n.ResetEmptyArray()
	} else {
		n.ResetEmptyMap()
	}
	t.bumpStruct()
}

// createMapChild allocates a fresh Empty node, attaches it to parent n
// under name, and returns its id.
func (t *Tree) createMapChild(parentId nodeid.NodeId, parent *node.Node, name core.Name) (nodeid.NodeId, error) {
	id, err := t.alloc.Allocate()
	if err != nil {
		return nodeid.Invalid, core.Wrap("Tree.createMapChild", core.ErrKindResolveAllocateFailed, err)
	}
	parent.MapSet(name, id)
	_ = t.alloc.SetParent(id, parentId)
	_ = t.alloc.SetParentEdgeMap(id, name)
	t.bumpStruct()
	return id, nil
}

// createArrayChild allocates a fresh Empty node and appends it to the
// array n, returning its id and index. Used by Visitor array mutators
// (ArrayAppend et al.), not by path resolution (which forbids sparse
// creation).
func (t *Tree) createArrayChild(parentId nodeid.NodeId, n *node.Node) (nodeid.NodeId, int, error) {
	id, err := t.alloc.Allocate()
	if err != nil {
		return nodeid.Invalid, 0, core.Wrap("Tree.createArrayChild", core.ErrKindResolveAllocateFailed, err)
	}
	idx := n.ArrayAppend(id)
	_ = t.alloc.SetParent(id, parentId)
	_ = t.alloc.SetParentEdgeArray(id, idx)
	t.bumpStruct()
	return id, idx, nil
}
