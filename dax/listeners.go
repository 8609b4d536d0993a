package dax

import "github.com/daxsystems/dax/nodeid"

// ChangeCallback is invoked once per tick for every bound node that
// appears in the Tree's changed-node set, with the node's current
// NodeId. Bindings fire in the order they were registered.
type ChangeCallback func(id nodeid.NodeId)

// binding pairs a watched NodeId with the callback to invoke when it
// (or its subtree, if Recursive) changes. Bindings track a NodeId
// directly rather than a Visitor because listener dispatch runs after a
// delta apply, a point where re-resolving every bound path would be
// wasteful; callers that want path stability across structural changes
// should re-bind from a Visitor's OnChange helper (see BindOnChanged).
type binding struct {
	id        nodeid.NodeId
	recursive bool
	fn        ChangeCallback
}

// BindingHandle identifies a registered binding so it can later be
// unbound with UnbindOnChanged.
type BindingHandle struct {
	tree *Tree
	b    *binding
}

// bindOnChanged registers fn to be called whenever id (or, if recursive,
// any of its descendants) appears in the Tree's per-frame changed-node
// set.
func (t *Tree) bindOnChanged(id nodeid.NodeId, recursive bool, fn ChangeCallback) BindingHandle {
	b := &binding{id: id, recursive: recursive, fn: fn}
	t.listeners = append(t.listeners, b)
	return BindingHandle{tree: t, b: b}
}

// BindOnChanged registers fn against the Visitor's currently resolved
// node. The binding is by NodeId, so it keeps firing for that node even
// if a later struct_version bump moves what this Visitor's path resolves
// to.
func (v *Visitor) BindOnChanged(recursive bool, fn ChangeCallback) (BindingHandle, error) {
	id, _, err := v.resolve(ReadOnly)
	if err != nil {
		return BindingHandle{}, err
	}
	return v.tree.bindOnChanged(id, recursive, fn), nil
}

// UnbindOnChanged removes a single binding previously returned by
// BindOnChanged.
func (h BindingHandle) UnbindOnChanged() {
	if h.tree == nil {
		return
	}
	for i, b := range h.tree.listeners {
		if b == h.b {
			h.tree.listeners = append(h.tree.listeners[:i], h.tree.listeners[i+1:]...)
			return
		}
	}
}

// UnbindAllFor removes every binding registered against id, regardless
// of which handle created it. Releasing a node does not call it, so
// bindings on a released NodeId stay registered until removed here.
func (t *Tree) UnbindAllFor(id nodeid.NodeId) {
	out := t.listeners[:0]
	for _, b := range t.listeners {
		if b.id != id {
			out = append(out, b)
		}
	}
	t.listeners = out
}

// DispatchChanged invokes every binding whose node (or, for recursive
// bindings, ancestor) is in the Tree's current changed-node set. Called
// by the host adapter on each flush, before ClearFrameChangedNodes.
func (t *Tree) DispatchChanged() {
	if len(t.listeners) == 0 || len(t.changedNodes) == 0 {
		return
	}
	for _, b := range t.listeners {
		if _, changed := t.changedNodes[b.id]; changed {
			b.fn(b.id)
			continue
		}
		if b.recursive && t.anyDescendantChanged(b.id) {
			b.fn(b.id)
		}
	}
}

func (t *Tree) anyDescendantChanged(ancestor nodeid.NodeId) bool {
	for id := range t.changedNodes {
		if t.alloc.Ancestor(ancestor, id) {
			return true
		}
	}
	return false
}
