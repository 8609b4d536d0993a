package dax

import (
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// Visitor is a lightweight, copyable path handle into a Tree. It does not
// pin a NodeId: the path is re-resolved from the root whenever the
// Tree's struct_version has moved on since the last resolve, per
// spec.md §4.F. A Visitor derived from a destroyed Tree reports
// IsValid() == false and every other method becomes a no-op error.
type Visitor struct {
	tree  *Tree
	token *liveToken
	path  []Segment

	cachedId            nodeid.NodeId
	cachedStructVersion uint32
	cachedHasResolved   bool

	// oldNodeId remembers the last successfully resolved id across a
	// cache invalidation, so callers that need "what did this used to
	// point at" (e.g. listener unbind-by-path bookkeeping) can still ask.
	oldNodeId nodeid.NodeId
}

// GetVisitor returns a Visitor referring to the Tree's root.
func (t *Tree) GetVisitor() *Visitor {
	return &Visitor{tree: t, token: t.live, cachedId: nodeid.Invalid}
}

// VisitorFromPath parses path and returns a Visitor for it, without
// resolving it yet (resolution is lazy, happening on first read/write).
func (t *Tree) VisitorFromPath(path string) (*Visitor, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return &Visitor{tree: t, token: t.live, path: segs, cachedId: nodeid.Invalid}, nil
}

// IsValid reports whether the Visitor's Tree is still alive.
func (v *Visitor) IsValid() bool {
	return v != nil && v.token != nil && v.token.alive
}

// Path returns the segments this Visitor navigates from the root.
func (v *Visitor) Path() []Segment {
	out := make([]Segment, len(v.path))
	copy(out, v.path)
	return out
}

func (v *Visitor) PathString() string { return PathString(v.path) }

// Child returns a new Visitor one Map-key segment deeper.
func (v *Visitor) Child(name string) *Visitor {
	return v.extend(NameSegment(name))
}

// At returns a new Visitor one Array-index segment deeper.
func (v *Visitor) At(index int32) *Visitor {
	return v.extend(IndexSegment(index))
}

func (v *Visitor) extend(seg Segment) *Visitor {
	path := make([]Segment, len(v.path)+1)
	copy(path, v.path)
	path[len(v.path)] = seg
	return &Visitor{tree: v.tree, token: v.token, path: path, cachedId: nodeid.Invalid}
}

// Parent returns a new Visitor with the last segment dropped. Calling
// Parent on the root Visitor returns another root Visitor.
func (v *Visitor) Parent() *Visitor {
	if len(v.path) == 0 {
		return v
	}
	path := make([]Segment, len(v.path)-1)
	copy(path, v.path[:len(v.path)-1])
	return &Visitor{tree: v.tree, token: v.token, path: path, cachedId: nodeid.Invalid}
}

// resolve walks (or reuses the cached result of walking) the Visitor's
// path against its Tree, per the cache-validation rule in spec.md §4.F:
// the cached NodeId is trusted only while the Tree's struct_version
// matches what it was at the last successful resolve.
func (v *Visitor) resolve(mode ResolveMode) (nodeid.NodeId, *node.Node, error) {
	if !v.IsValid() {
		return nodeid.Invalid, nil, core.Kind(core.ErrKindInvalidVisitor)
	}
	mode = v.tree.effectiveMode(mode)

	if len(v.path) > MaxPathDepth {
		return nodeid.Invalid, nil, core.Kind(core.ErrKindResolvePathTooDeep)
	}

	if v.cachedHasResolved && v.cachedStructVersion == v.tree.structVersion {
		if n := v.tree.alloc.Node(v.cachedId); n != nil {
			return v.cachedId, n, nil
		}
	}

	if v.cachedHasResolved {
		v.oldNodeId = v.cachedId
	}

	id := v.tree.rootId
	for _, seg := range v.path {
		next, err := v.tree.resolveStep(id, seg, mode)
		if err != nil {
			v.cachedHasResolved = false
			return nodeid.Invalid, nil, err
		}
		id = next
	}

	n := v.tree.alloc.Node(id)
	if n == nil {
		v.cachedHasResolved = false
		return nodeid.Invalid, nil, core.Kind(core.ErrKindInvalidNode)
	}

	v.cachedId = id
	v.cachedStructVersion = v.tree.structVersion
	v.cachedHasResolved = true
	return id, n, nil
}

// NodeId resolves the Visitor read-only and returns the NodeId it
// currently refers to.
func (v *Visitor) NodeId() (nodeid.NodeId, error) {
	id, _, err := v.resolve(ReadOnly)
	return id, err
}

// Exists reports whether the Visitor resolves without error.
func (v *Visitor) Exists() bool {
	_, _, err := v.resolve(ReadOnly)
	return err == nil
}

// Kind resolves read-only and reports the target node's Kind, or
// node.KindEmpty plus an error if the path does not resolve.
func (v *Visitor) Kind() (node.Kind, error) {
	_, n, err := v.resolve(ReadOnly)
	if err != nil {
		return node.KindEmpty, err
	}
	return n.Kind(), nil
}

func (v *Visitor) overlayOf(id nodeid.NodeId, authoritative *node.Node) *node.Node {
	if v.tree.overlay == nil {
		return authoritative
	}
	if on, ok := v.tree.overlay[id]; ok {
		return on
	}
	return authoritative
}

// TryGetValueBytes reads the raw payload of the resolved node, preferring
// a client prediction Overlay entry over the authoritative value when one
// exists for this node (spec.md's client prediction rules). ok is false
// if the node is not a Value of exactly type expected.
func (v *Visitor) TryGetValueBytes(expected core.TypeRef) (value []byte, ok bool, err error) {
	id, n, err := v.resolve(ReadOnly)
	if err != nil {
		return nil, false, err
	}
	n = v.overlayOf(id, n)
	value, ok = n.TryGetValue(expected)
	return value, ok, nil
}

// TrySetValueBytes writes a raw payload of type t, ensuring intermediate
// containers are created along the path (mode EnsureCreate). On the
// server this may create map entries; array index segments are never
// auto-created (spec.md "arrays do not support sparse creation").
func (v *Visitor) TrySetValueBytes(t core.TypeRef, value []byte) (core.Outcome, error) {
	id, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return core.Outcome(0), err
	}
	outcome, err := n.TrySetValue(v.tree.reg, t, value)
	if err != nil {
		return outcome, err
	}
	if outcome.Changed() {
		v.tree.bumpData()
		v.tree.markChanged(id)
	}
	return outcome, nil
}

// EnsureArray resolves the Visitor, creating missing Map entries and
// resetting the target Empty node into an Array if needed, without
// requiring any element to already exist.
func (v *Visitor) EnsureArray() error {
	_, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if n.IsArray() {
		return nil
	}
	if !n.IsEmpty() {
		return core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
	}
	n.ResetEmptyArray()
	v.tree.bumpStruct()
	return nil
}

// EnsureMap is EnsureArray's Map counterpart.
func (v *Visitor) EnsureMap() error {
	_, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if n.IsMap() {
		return nil
	}
	if !n.IsEmpty() {
		return core.Kind(core.ErrKindSegmentNameButNodeNotMap)
	}
	n.ResetEmptyMap()
	v.tree.bumpStruct()
	return nil
}

// ArrayLen resolves read-only and returns the array length, or an error
// if the target is not an Array.
func (v *Visitor) ArrayLen() (int, error) {
	_, n, err := v.resolve(ReadOnly)
	if err != nil {
		return 0, err
	}
	if !n.IsArray() {
		return 0, core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
	}
	return n.ArrayLen(), nil
}

// ArrayAppend ensures the Visitor's target is an Array (creating it if
// Empty) and appends a new Empty child node, returning a Visitor for it.
func (v *Visitor) ArrayAppend() (*Visitor, error) {
	id, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return nil, err
	}
	if n.IsEmpty() {
		n.ResetEmptyArray()
		v.tree.bumpStruct()
	} else if !n.IsArray() {
		return nil, core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
	}
	_, idx, err := v.tree.createArrayChild(id, n)
	if err != nil {
		return nil, err
	}
	return v.At(int32(idx)), nil
}

// ArrayRemoveAt releases and removes the element at index, shifting
// later elements down.
func (v *Visitor) ArrayRemoveAt(index int) error {
	id, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if !n.IsArray() {
		return core.Kind(core.ErrKindSegmentIndexButNodeNotArray)
	}
	if index < 0 || index >= n.ArrayLen() {
		return core.Kind(core.ErrKindResolveArrayIndexOutOfRange)
	}
	childId := n.Array()[index]
	v.tree.releaseRecursive(childId)
	n.ArrayRemoveAt(index)
	v.tree.reindexArrayParentEdges(id, n)
	v.tree.bumpStruct()
	return nil
}

// MapKeys resolves read-only and returns the Map's keys in insertion
// order.
func (v *Visitor) MapKeys() ([]core.Name, error) {
	_, n, err := v.resolve(ReadOnly)
	if err != nil {
		return nil, err
	}
	if !n.IsMap() {
		return nil, core.Kind(core.ErrKindSegmentNameButNodeNotMap)
	}
	return n.MapKeys(), nil
}

// MapRemove removes and releases the child stored under name.
func (v *Visitor) MapRemove(name string) error {
	_, n, err := v.resolve(EnsureCreate)
	if err != nil {
		return err
	}
	if !n.IsMap() {
		return core.Kind(core.ErrKindSegmentNameButNodeNotMap)
	}
	key := core.Intern(name)
	childId, ok := n.MapGet(key)
	if !ok {
		return core.Kind(core.ErrKindResolveMapKeyNotFound)
	}
	v.tree.releaseRecursive(childId)
	n.MapRemove(key)
	v.tree.bumpStruct()
	return nil
}

// OldNodeId returns the last NodeId this Visitor resolved to before its
// cache was invalidated by a structural change elsewhere in the Tree.
// Returns nodeid.Invalid if the Visitor has never resolved.
func (v *Visitor) OldNodeId() nodeid.NodeId { return v.oldNodeId }
