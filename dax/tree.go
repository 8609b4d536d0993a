// Package dax implements the Tree (the spec's "FDaxSet"): the replicated
// hierarchical container itself, its structural operations, and the
// path-based Visitor handle used to navigate and mutate it. The package
// intentionally keeps Node storage (package node), slot metadata
// (package alloc) and the Tree's own bookkeeping together in one
// package, the way the teacher keeps its whole key/value/container
// object model in a single cohesive package rather than splitting every
// concern into its own import.
package dax

import (
	"log/slog"

	"github.com/daxsystems/dax/alloc"
	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// Host is the external collaborator a Tree notifies on mutation; the
// host decides when to flush and dispatch listener callbacks. In
// production this is implemented by package hostadapter; scripting/editor
// integrations are out of scope here, same as in spec.md.
type Host interface {
	// MarkDirty is called on every struct-version bump and every node
	// recorded as changed, so it may fire many times per frame; the host
	// uses it to schedule a replication flush.
	MarkDirty()
}

// liveToken is the Tree's "is it still alive" flag, weakly referenced by
// every Visitor derived from it. Go has no built-in arena-safe weak
// pointer for this prior to the experimental weak package, so the Tree
// owns one token and flips it dead on Close(); Visitors check it before
// touching the Tree.
type liveToken struct {
	alive bool
}

// oldValueEntry captures a pre-apply authoritative value for a node that
// a delta Removed or Updated, so OldValue lookups keep working for the
// duration of listener dispatch.
type oldValueEntry struct {
	valueType core.TypeRef
	bytes     []byte
}

// Tree is the replicated hierarchical container described in spec.md
// §3-4.E. A Tree must only be used from the single thread that owns its
// Host; there is no internal locking.
type Tree struct {
	alloc *alloc.Allocator
	reg   core.TypeRegistry

	rootId nodeid.NodeId

	dataVersion   uint32
	structVersion uint32

	runningOnServer bool
	host            Host
	logger          *slog.Logger

	// Client-only state (harmless, always-empty on a server Tree).
	overlay      map[nodeid.NodeId]*node.Node
	oldValues    map[nodeid.NodeId]oldValueEntry
	changedNodes map[nodeid.NodeId]struct{}

	listeners []*binding

	live *liveToken
}

// Config are the construction-time options for a Tree, in the teacher's
// functional-option-via-struct idiom rather than a long positional
// constructor.
type Config struct {
	// Registry describes the concrete value types this Tree can store.
	// Required.
	Registry core.TypeRegistry

	// RunningOnServer gates the EnsureCreate/ForceOverride resolve modes:
	// on a client they are force-demoted to ReadOnly (spec.md §4.E
	// "Resolve modes"), so a client cannot create missing path segments.
	// The structural and value helpers (EnsureArray/EnsureMap, array and
	// map mutators, Copy/Move/Swap/Redirect, ReleaseChildren,
	// TrySetValueBytes) do not check it: on a client they still modify
	// nodes that already resolve.
	RunningOnServer bool

	// Host receives MarkDirty notifications. May be nil (tests commonly
	// leave it unset).
	Host Host

	// Logger is stored on the Tree; the Tree's own operations do not
	// write records to it. Defaults to a disabled logger.
	Logger *slog.Logger
}

// New constructs a Tree with a freshly allocated root, per spec.md's
// "Root: created on Tree creation" lifecycle rule.
func New(cfg Config) *Tree {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	t := &Tree{
		alloc:           alloc.New(),
		reg:             cfg.Registry,
		runningOnServer: cfg.RunningOnServer,
		host:            cfg.Host,
		logger:          logger,
		overlay:         make(map[nodeid.NodeId]*node.Node),
		oldValues:       make(map[nodeid.NodeId]oldValueEntry),
		changedNodes:    make(map[nodeid.NodeId]struct{}),
		live:            &liveToken{alive: true},
	}
	t.initRoot()
	return t
}

func (t *Tree) initRoot() {
	id, err := t.alloc.Allocate()
	if err != nil {
		// Allocating the very first node of an empty allocator cannot
		// fail; this would indicate corrupted constants.
		panic("dax: failed to allocate root: " + err.Error())
	}
	if serr := t.alloc.SetValueType(id, core.TypeEmpty); serr != nil {
		panic("dax: failed to initialize root: " + serr.Error())
	}
	t.rootId = id
}

// discardWriter is an io.Writer that throws everything away; used as the
// default slog handler's destination so a Tree built without an explicit
// Logger has zero logging overhead beyond the disabled-level check.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// RootId returns the Tree's current root handle. It changes identity
// only across a Clear(), which allocates a fresh root.
func (t *Tree) RootId() nodeid.NodeId { return t.rootId }

// DataVersion and StructVersion expose the two monotonic counters from
// spec.md §3 "Versions".
func (t *Tree) DataVersion() uint32   { return t.dataVersion }
func (t *Tree) StructVersion() uint32 { return t.structVersion }

// RunningOnServer reports whether this Tree may use EnsureCreate/
// ForceOverride resolve modes.
func (t *Tree) RunningOnServer() bool { return t.runningOnServer }

// Registry exposes the Tree's TypeRegistry, mainly for components that
// need to serialize/compare values outside of a Visitor (e.g. the delta
// engine).
func (t *Tree) Registry() core.TypeRegistry { return t.reg }

// SetHost rebinds the Tree's dirty-notification target, for embedders
// whose Host (e.g. package hostadapter's Adapter) must itself be
// constructed with a reference to this Tree, after the Tree already
// exists.
func (t *Tree) SetHost(host Host) { t.host = host }

// Allocator exposes the underlying slab allocator read-only surface for
// the delta engine and CLI stats reporting; structural mutation must
// still go through Tree/Visitor so versions stay consistent.
func (t *Tree) Allocator() *alloc.Allocator { return t.alloc }

func (t *Tree) bumpData() {
	t.dataVersion++
}

func (t *Tree) bumpStruct() {
	t.structVersion++
	t.dataVersion++
	if t.host != nil {
		t.host.MarkDirty()
	}
}

// markChanged records id in the per-frame changed-node set, consulted by
// HostAdapter's listener dispatch after a delta apply.
func (t *Tree) markChanged(id nodeid.NodeId) {
	t.changedNodes[id] = struct{}{}
	if t.host != nil {
		t.host.MarkDirty()
	}
}

// ChangedNodes returns the accumulated set of nodes touched since the
// last ClearFrameChangedNodes call.
func (t *Tree) ChangedNodes() []nodeid.NodeId {
	out := make([]nodeid.NodeId, 0, len(t.changedNodes))
	for id := range t.changedNodes {
		out = append(out, id)
	}
	return out
}

// ClearFrameChangedNodes empties the per-frame changed-node set; called
// once per tick by the HostAdapter after dispatching listeners.
func (t *Tree) ClearFrameChangedNodes() {
	for id := range t.changedNodes {
		delete(t.changedNodes, id)
	}
}

// Stats is a snapshot of the Tree's own counters, layered on top of
// alloc.Stats for the CLI `stats` command and tests.
type Stats struct {
	alloc.Stats
	DataVersion   uint32
	StructVersion uint32
}

func (t *Tree) Stats() Stats {
	return Stats{Stats: t.alloc.Stats(), DataVersion: t.dataVersion, StructVersion: t.structVersion}
}

// Clear releases the entire tree and reallocates a fresh Empty root,
// exactly as at construction time. Per spec.md §3 "Root: ... destroyed
// on Clear or Tree destruction".
func (t *Tree) Clear() {
	t.alloc.Reset()
	for id := range t.overlay {
		delete(t.overlay, id)
	}
	for id := range t.oldValues {
		delete(t.oldValues, id)
	}
	t.initRoot()
	t.bumpStruct()
}

// Close invalidates every Visitor derived from this Tree. After Close,
// Visitor.IsValid() reports false for all of them.
func (t *Tree) Close() {
	t.live.alive = false
}
