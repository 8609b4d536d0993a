package alloc

import "github.com/daxsystems/dax/core"

// ParentEdgeKind enumerates how a slot's parent_edge field should be
// interpreted.
type ParentEdgeKind uint8

const (
	EdgeNone ParentEdgeKind = iota
	EdgeArrayIndex
	EdgeMapLabel
)

// ParentEdge is the reverse pointer from a child Node back to its
// location inside its parent's container: "which slot in my parent am
// I?". It is metadata, not part of the Node variant, and gives O(1)
// redirect/sibling-navigation/index-lookup without scanning the parent's
// container. A linear-scan fallback exists at the Tree layer for when
// this falls out of sync across network replay; that fallback restores
// the reverse edge once it finds the true position.
type ParentEdge struct {
	Kind  ParentEdgeKind
	Index uint16    // valid when Kind == EdgeArrayIndex
	Label core.Name // valid when Kind == EdgeMapLabel
}

// None is the reverse edge of the root (or of a node not yet attached).
var None = ParentEdge{Kind: EdgeNone}

func ArrayIndex(i int) ParentEdge {
	return ParentEdge{Kind: EdgeArrayIndex, Index: uint16(i)}
}

func MapLabel(name core.Name) ParentEdge {
	return ParentEdge{Kind: EdgeMapLabel, Label: name}
}
