// Package delta implements the replication protocol: comparing a Tree's
// current state against the last state a given client acknowledged, and
// producing either a full snapshot or an incremental Adds/Removes/
// Updates delta, grounded on the teacher's cell-tree diffing and dirty-
// tracking machinery.
package delta

import (
	"sort"

	"github.com/daxsystems/dax/alloc"
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// ContainerFullThresholdNum/Denom implement the "container is more than
// half different" heuristic that decides whether an Array/Map Update
// record carries a full replacement of its children or an incremental
// form (a prefix/suffix splice for arrays, a list of entry edits for
// maps): full when |old_n-new_n| > max(1, new_n*num/denom).
const (
	ContainerFullThresholdNum   = 1
	ContainerFullThresholdDenom = 2
)

// snapshot is one node's state as of the last baseline capture.
type snapshot struct {
	kind      node.Kind
	valueType core.TypeRef
	bytes     []byte
	array     []nodeid.NodeId
	mapKeys   []core.Name
	mapVals   map[core.Name]nodeid.NodeId
	parent    nodeid.NodeId
	edge      alloc.ParentEdge
}

func captureSnapshot(t *dax.Tree, id nodeid.NodeId, n *node.Node) snapshot {
	s := snapshot{
		kind:      n.Kind(),
		valueType: n.ValueType(),
		parent:    t.ReplicaParent(id),
		edge:      t.ReplicaParentEdge(id),
	}
	switch s.kind {
	case node.KindSmallValue, node.KindHeapValue:
		if bs, ok := n.RawValueBytes(); ok {
			s.bytes = append([]byte(nil), bs...)
		}
	case node.KindArray:
		s.array = append([]nodeid.NodeId(nil), n.Array()...)
	case node.KindMap:
		s.mapKeys = append([]core.Name(nil), n.MapKeys()...)
		s.mapVals = make(map[core.Name]nodeid.NodeId, len(s.mapKeys))
		for _, k := range s.mapKeys {
			v, _ := n.MapGet(k)
			s.mapVals[k] = v
		}
	}
	return s
}

// Engine tracks one replication target's (one client's) last-acknowledged
// Tree state and computes deltas against the authoritative Tree as it
// changes. One Engine per connected client, per spec.md's per-client
// replication model.
type Engine struct {
	baseline map[nodeid.NodeId]snapshot
}

// NewEngine returns an Engine with an empty baseline: the first
// ComputeDelta call (or an explicit Snapshot) against it is equivalent to
// a full sync.
func NewEngine() *Engine {
	return &Engine{baseline: make(map[nodeid.NodeId]snapshot)}
}

// Snapshot captures tree's entire current state as the new baseline,
// without producing a Delta. Used right after sending a Full record.
func (e *Engine) Snapshot(t *dax.Tree) {
	baseline := make(map[nodeid.NodeId]snapshot)
	t.ReplicaForEachNode(func(id nodeid.NodeId) {
		baseline[id] = captureSnapshot(t, id, t.ReplicaNode(id))
	})
	e.baseline = baseline
}

// AddRecord describes a node the client does not yet have.
type AddRecord struct {
	Id         nodeid.NodeId
	Kind       node.Kind
	ValueType  core.TypeRef
	Parent     nodeid.NodeId
	ParentEdge alloc.ParentEdge
	Bytes      []byte          // for Value nodes
	Array      []nodeid.NodeId // for Array nodes
	MapKeys    []core.Name     // for Map nodes
	MapVals    map[core.Name]nodeid.NodeId
}

// UpdateKind distinguishes a value payload change from a structural
// container replacement, and within containers, a full replace from an
// incremental one (ContainerFullThresholdNum/Denom).
type UpdateKind int

const (
	UpdateValue UpdateKind = iota
	UpdateArrayFull
	UpdateArrayIncremental
	UpdateMapFull
	UpdateMapIncremental
)

// ArrayDelta is an incremental array splice: the common prefix of length
// Start and the common suffix (everything after Start+OldCount in the old
// array) are left untouched; the OldCount elements in between are
// replaced by NewIds. Clear is the degenerate case where the new array is
// empty, carrying no other fields (wire kind=1; replace is kind=0).
type ArrayDelta struct {
	Clear    bool
	Start    int
	OldCount int
	NewIds   []nodeid.NodeId
}

// MapEntryChange is one element of an incremental Map update; Removed
// distinguishes a rebind/add from a deletion.
type MapEntryChange struct {
	Key     core.Name
	Id      nodeid.NodeId
	Removed bool
}

// UpdateRecord describes a change to a node the client already has.
type UpdateRecord struct {
	Id        nodeid.NodeId
	Kind      UpdateKind
	ValueType core.TypeRef
	Bytes     []byte

	ArrayFull []nodeid.NodeId
	ArraySlot ArrayDelta

	MapFull  map[core.Name]nodeid.NodeId
	MapKeys  []core.Name // only meaningful with MapFull, for wire ordering
	MapEdits []MapEntryChange
}

// Delta is the set of changes between an Engine's baseline and the
// authoritative Tree's current state.
type Delta struct {
	Adds    []AddRecord
	Removes []nodeid.NodeId
	Updates []UpdateRecord
}

func (d *Delta) Empty() bool {
	return len(d.Adds) == 0 && len(d.Removes) == 0 && len(d.Updates) == 0
}

// ComputeDelta diffs t's current state against e's baseline, returns the
// resulting Delta, and advances the baseline to match t (so the next
// call only reports what changes after this point).
func (e *Engine) ComputeDelta(t *dax.Tree) Delta {
	var d Delta
	seen := make(map[nodeid.NodeId]struct{}, len(e.baseline))

	t.ReplicaForEachNode(func(id nodeid.NodeId) {
		seen[id] = struct{}{}
		n := t.ReplicaNode(id)
		cur := captureSnapshot(t, id, n)

		old, existed := e.baseline[id]
		if !existed {
			d.Adds = append(d.Adds, AddRecord{
				Id: id, Kind: cur.kind, ValueType: cur.valueType,
				Parent: cur.parent, ParentEdge: cur.edge,
				Bytes: cur.bytes, Array: cur.array,
				MapKeys: cur.mapKeys, MapVals: cur.mapVals,
			})
			return
		}
		if upd, changed := diffNode(id, old, cur); changed {
			d.Updates = append(d.Updates, upd)
		}
	})

	for id := range e.baseline {
		if _, ok := seen[id]; !ok {
			d.Removes = append(d.Removes, id)
		}
	}

	sortAdds(d.Adds)
	sortIds(d.Removes)
	sortUpdates(d.Updates)

	e.Snapshot(t)
	return d
}

func diffNode(id nodeid.NodeId, old, cur snapshot) (UpdateRecord, bool) {
	if old.kind != cur.kind {
		return containerOrValueUpdate(id, cur), true
	}
	switch cur.kind {
	case node.KindSmallValue, node.KindHeapValue:
		if old.valueType == cur.valueType && bytesEqual(old.bytes, cur.bytes) {
			return UpdateRecord{}, false
		}
		return UpdateRecord{Id: id, Kind: UpdateValue, ValueType: cur.valueType, Bytes: cur.bytes}, true
	case node.KindArray:
		if arraysEqual(old.array, cur.array) {
			return UpdateRecord{}, false
		}
		return arrayUpdate(id, old.array, cur.array), true
	case node.KindMap:
		if mapsEqual(old.mapVals, cur.mapVals) {
			return UpdateRecord{}, false
		}
		return mapUpdate(id, old.mapVals, cur.mapKeys, cur.mapVals), true
	default:
		return UpdateRecord{}, false
	}
}

func containerOrValueUpdate(id nodeid.NodeId, cur snapshot) UpdateRecord {
	switch cur.kind {
	case node.KindArray:
		return UpdateRecord{Id: id, Kind: UpdateArrayFull, ArrayFull: cur.array}
	case node.KindMap:
		return UpdateRecord{Id: id, Kind: UpdateMapFull, MapFull: cur.mapVals, MapKeys: cur.mapKeys}
	default:
		return UpdateRecord{Id: id, Kind: UpdateValue, ValueType: cur.valueType, Bytes: cur.bytes}
	}
}

// arrayUpdate picks between a full replacement and an incremental splice
// per the container-full heuristic. The splice form carries only the
// common-prefix/common-suffix-trimmed middle, so it can shrink or grow
// the array, not just overlay same-length slots.
func arrayUpdate(id nodeid.NodeId, old, cur []nodeid.NodeId) UpdateRecord {
	if containerIsFull(len(old), len(cur)) {
		return UpdateRecord{Id: id, Kind: UpdateArrayFull, ArrayFull: cur}
	}
	if len(cur) == 0 {
		return UpdateRecord{Id: id, Kind: UpdateArrayIncremental, ArraySlot: ArrayDelta{Clear: true}}
	}

	prefix := commonPrefixLen(old, cur)
	suffix := commonSuffixLen(old[prefix:], cur[prefix:])

	return UpdateRecord{
		Id:   id,
		Kind: UpdateArrayIncremental,
		ArraySlot: ArrayDelta{
			Start:    prefix,
			OldCount: len(old) - prefix - suffix,
			NewIds:   append([]nodeid.NodeId(nil), cur[prefix:len(cur)-suffix]...),
		},
	}
}

func commonPrefixLen(a, b []nodeid.NodeId) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// commonSuffixLen returns the length of the longest common suffix of a
// and b, capped so it never overlaps a common prefix already consumed by
// the caller (i.e. never exceeds min(len(a), len(b))).
func commonSuffixLen(a, b []nodeid.NodeId) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func mapUpdate(id nodeid.NodeId, old map[core.Name]nodeid.NodeId, curKeys []core.Name, cur map[core.Name]nodeid.NodeId) UpdateRecord {
	if containerIsFull(len(old), len(cur)) {
		return UpdateRecord{Id: id, Kind: UpdateMapFull, MapFull: cur, MapKeys: curKeys}
	}
	var edits []MapEntryChange
	for k, v := range cur {
		if ov, ok := old[k]; !ok || ov != v {
			edits = append(edits, MapEntryChange{Key: k, Id: v})
		}
	}
	for k := range old {
		if _, ok := cur[k]; !ok {
			edits = append(edits, MapEntryChange{Key: k, Removed: true})
		}
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Key < edits[j].Key })
	return UpdateRecord{Id: id, Kind: UpdateMapIncremental, MapEdits: edits}
}

// containerIsFull implements |old_n-new_n| > max(1, new_n*num/denom) in
// integer arithmetic, matching spec.md's full-vs-delta container heuristic.
func containerIsFull(oldN, newN int) bool {
	diff := oldN - newN
	if diff < 0 {
		diff = -diff
	}
	limit := newN * ContainerFullThresholdNum / ContainerFullThresholdDenom
	if limit < 1 {
		limit = 1
	}
	return diff > limit
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func arraysEqual(a, b []nodeid.NodeId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[core.Name]nodeid.NodeId) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func sortAdds(adds []AddRecord) {
	sort.Slice(adds, func(i, j int) bool { return adds[i].Id.Index < adds[j].Id.Index })
}

func sortIds(ids []nodeid.NodeId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Index < ids[j].Index })
}

func sortUpdates(updates []UpdateRecord) {
	sort.Slice(updates, func(i, j int) bool { return updates[i].Id.Index < updates[j].Id.Index })
}
