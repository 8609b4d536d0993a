// Package valuetable renders the details of a single selected node: its
// kind, its decoded value for a Value node, or its child count for a
// container. The right-hand pane of daxview's explorer.
package valuetable

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
	"github.com/daxsystems/dax/typeregistry"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// Render produces the detail pane text for id within t.
func Render(t *dax.Tree, id nodeid.NodeId, path string) string {
	n := t.ReplicaNode(id)
	if n == nil {
		return "node has been freed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("path:"), valueStyle.Render(path))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("id:"), valueStyle.Render(id.String()))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("kind:"), valueStyle.Render(n.Kind().String()))

	switch n.Kind() {
	case node.KindSmallValue, node.KindHeapValue:
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("value:"), valueStyle.Render(formatValue(n)))
	case node.KindArray:
		fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("length:"), n.ArrayLen())
	case node.KindMap:
		fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("entries:"), n.MapLen())
	}

	if parent := t.ReplicaParent(id); parent.IsValid() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("parent:"), valueStyle.Render(parent.String()))
	}

	return b.String()
}

func formatValue(n *node.Node) string {
	t := n.ValueType()
	bs, ok := n.RawValueBytes()
	if !ok {
		return "<no value>"
	}
	switch t {
	case typeregistry.TypeBool:
		return fmt.Sprintf("%v", bs[0] != 0)
	case typeregistry.TypeInt32:
		return fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(bs)))
	case typeregistry.TypeInt64:
		return fmt.Sprintf("%d", int64(binary.LittleEndian.Uint64(bs)))
	case typeregistry.TypeFloat32:
		return fmt.Sprintf("%g", math.Float32frombits(binary.LittleEndian.Uint32(bs)))
	case typeregistry.TypeFloat64:
		return fmt.Sprintf("%g", math.Float64frombits(binary.LittleEndian.Uint64(bs)))
	case typeregistry.TypeString:
		return string(bs)
	default:
		return fmt.Sprintf("% x", bs)
	}
}
