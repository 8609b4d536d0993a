// Package keytree flattens a dax.Tree into a navigable list of paths, the
// left-hand pane of daxview's key/value split explorer.
package keytree

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
)

// Item is one row of the flattened tree: a path plus the NodeId it
// resolves to, so the valuetable pane can look the node back up without
// re-walking the path.
type Item struct {
	Path  string
	Depth int
	Id    nodeid.NodeId
	Kind  node.Kind
}

func (i Item) FilterValue() string { return i.Path }
func (i Item) Title() string {
	indent := ""
	for n := 0; n < i.Depth; n++ {
		indent += "  "
	}
	return fmt.Sprintf("%s%s", indent, i.Path)
}
func (i Item) Description() string { return i.Kind.String() }

// Flatten walks t from its root and returns one Item per node, in
// depth-first order, labeled by its full path from the root.
func Flatten(t *dax.Tree) []list.Item {
	var items []list.Item
	walk(t, t.RootId(), "$root", 0, &items)
	return items
}

func walk(t *dax.Tree, id nodeid.NodeId, path string, depth int, out *[]list.Item) {
	n := t.ReplicaNode(id)
	if n == nil {
		return
	}
	*out = append(*out, Item{Path: path, Depth: depth, Id: id, Kind: n.Kind()})

	switch n.Kind() {
	case node.KindArray:
		for i, child := range n.Array() {
			walk(t, child, fmt.Sprintf("%s/$%d", path, i), depth+1, out)
		}
	case node.KindMap:
		for _, key := range n.MapKeys() {
			child, _ := n.MapGet(key)
			walk(t, child, fmt.Sprintf("%s/%s", path, key), depth+1, out)
		}
	}
}

// New builds a ready-to-use list.Model over t's flattened paths.
func New(t *dax.Tree, width, height int) list.Model {
	items := Flatten(t)
	delegate := list.NewDefaultDelegate()
	m := list.New(items, delegate, width, height)
	m.Title = "Tree"
	return m
}
