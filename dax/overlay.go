package dax

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// Client-only prediction support (spec.md's Overlay/OldValueMap). A
// server Tree never populates either map, so the Tree-level lookups and
// clears below are cheap no-ops there; PredictSetValueBytes is the
// exception and returns PermissionDenied on a server.

// PredictSetValueBytes speculatively writes value over id's authoritative
// contents without touching the allocator: reads through this Visitor
// (and any other Visitor resolving to the same NodeId) see the
// prediction until ConfirmPrediction or RollbackPrediction is called for
// id, typically once the server's next delta arrives. Server Trees
// reject this call outright: structural/value prediction is a client-
// only concept.
func (v *Visitor) PredictSetValueBytes(t core.TypeRef, value []byte) error {
	if v.tree.runningOnServer {
		return core.Kind(core.ErrKindPermissionDenied)
	}
	id, authoritative, err := v.resolve(ReadOnly)
	if err != nil {
		return err
	}
	shadow := node.Empty()
	if _, err := shadow.TrySetValue(v.tree.reg, t, value); err != nil {
		return err
	}
	_ = authoritative
	v.tree.overlay[id] = &shadow
	v.tree.markChanged(id)
	return nil
}

// ConfirmPrediction discards id's Overlay entry because the authoritative
// value now matches (or the caller otherwise considers the prediction
// settled), leaving subsequent reads to see the allocator's own Node.
func (t *Tree) ConfirmPrediction(id nodeid.NodeId) {
	if _, ok := t.overlay[id]; !ok {
		return
	}
	delete(t.overlay, id)
	t.markChanged(id)
}

// RollbackPrediction discards id's Overlay entry because the server's
// authoritative value disagreed with the prediction; this is
// ConfirmPrediction's counterpart, kept distinct so callers' intent
// shows up in logs/metrics even though the mechanics are identical.
func (t *Tree) RollbackPrediction(id nodeid.NodeId) {
	t.ConfirmPrediction(id)
}

// HasPrediction reports whether id currently has an unconfirmed Overlay
// entry shadowing its authoritative value.
func (t *Tree) HasPrediction(id nodeid.NodeId) bool {
	_, ok := t.overlay[id]
	return ok
}

// recordOldValue snapshots a node's pre-apply Value payload into the
// OldValueMap, called by the delta engine immediately before overwriting
// or removing an authoritative Value node, so OldValue keeps answering
// for the remainder of the current tick's listener dispatch.
func (t *Tree) recordOldValue(id nodeid.NodeId, n *node.Node) {
	vt, bytes, ok := n.TryGetValueGeneric()
	if !ok {
		return
	}
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	t.oldValues[id] = oldValueEntry{valueType: vt, bytes: cp}
}

// OldValue returns the value id held immediately before the most recent
// delta apply that changed or removed it, or ok=false if no such
// snapshot is available (e.g. nothing has changed yet this tick).
func (t *Tree) OldValue(id nodeid.NodeId) (valueType core.TypeRef, bytes []byte, ok bool) {
	e, ok := t.oldValues[id]
	if !ok {
		return core.TypeEmpty, nil, false
	}
	return e.valueType, e.bytes, true
}

// ClearOldValues empties the OldValueMap; called once per tick by the
// host adapter after listener dispatch completes, mirroring
// ClearFrameChangedNodes.
func (t *Tree) ClearOldValues() {
	for id := range t.oldValues {
		delete(t.oldValues, id)
	}
}
