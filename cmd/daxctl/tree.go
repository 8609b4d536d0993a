package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/daxsystems/dax/dax"
	"github.com/daxsystems/dax/node"
	"github.com/daxsystems/dax/nodeid"
	"github.com/daxsystems/dax/typeregistry"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <snapshot>",
	Short: "Print a snapshot as an indented key/value tree",
	Args:  checkArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadSnapshot(args[0])
		if err != nil {
			return err
		}
		printSubtree(cmd.OutOrStdout(), t, t.RootId(), "$root", "")
		return nil
	},
}

func printSubtree(w io.Writer, t *dax.Tree, id nodeid.NodeId, label, indent string) {
	n := t.ReplicaNode(id)
	if n == nil {
		fmt.Fprintf(w, "%s%s: <freed>\n", indent, label)
		return
	}

	switch n.Kind() {
	case node.KindEmpty:
		fmt.Fprintf(w, "%s%s: empty\n", indent, label)
	case node.KindSmallValue, node.KindHeapValue:
		fmt.Fprintf(w, "%s%s: %s\n", indent, label, formatValue(n))
	case node.KindArray:
		children := n.Array()
		fmt.Fprintf(w, "%s%s: array[%d]\n", indent, label, len(children))
		for i, child := range children {
			printSubtree(w, t, child, fmt.Sprintf("[%d]", i), indent+"  ")
		}
	case node.KindMap:
		keys := n.MapKeys()
		fmt.Fprintf(w, "%s%s: map{%d}\n", indent, label, len(keys))
		for _, key := range keys {
			child, _ := n.MapGet(key)
			printSubtree(w, t, child, string(key), indent+"  ")
		}
	}
}

// formatValue renders a Value node's payload using the builtin type's own
// decoding where it is recognized, falling back to raw hex for anything
// else (a custom TypeRegistry's types, for instance).
func formatValue(n *node.Node) string {
	t := n.ValueType()
	bs, ok := n.RawValueBytes()
	if !ok {
		return "<no value>"
	}
	switch t {
	case typeregistry.TypeBool:
		return fmt.Sprintf("bool(%v)", bs[0] != 0)
	case typeregistry.TypeInt32:
		return fmt.Sprintf("int32(%d)", int32(binary.LittleEndian.Uint32(bs)))
	case typeregistry.TypeInt64:
		return fmt.Sprintf("int64(%d)", int64(binary.LittleEndian.Uint64(bs)))
	case typeregistry.TypeFloat32:
		return fmt.Sprintf("float32(%g)", math.Float32frombits(binary.LittleEndian.Uint32(bs)))
	case typeregistry.TypeFloat64:
		return fmt.Sprintf("float64(%g)", math.Float64frombits(binary.LittleEndian.Uint64(bs)))
	case typeregistry.TypeString:
		return fmt.Sprintf("string(%q)", string(bs))
	case typeregistry.TypeVector3:
		return fmt.Sprintf("Vector3(%g, %g, %g)", decodeF32(bs, 0), decodeF32(bs, 4), decodeF32(bs, 8))
	case typeregistry.TypeRotator:
		return fmt.Sprintf("Rotator(%g, %g, %g)", decodeF32(bs, 0), decodeF32(bs, 4), decodeF32(bs, 8))
	default:
		return fmt.Sprintf("Type#%d(% x)", t, bs)
	}
}

func decodeF32(bs []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(bs[offset : offset+4]))
}
