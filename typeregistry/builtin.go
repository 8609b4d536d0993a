// Package typeregistry provides a minimal, concrete implementation of
// core.TypeRegistry. The scripting-language bindings and editor asset
// factories that would normally populate a production registry are out
// of scope for this repository; Builtin exists so the Tree, the CLI and
// the TUI have real types to exercise.
package typeregistry

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/daxsystems/dax/core"
)

// Vector3 and Rotator mirror the two small geometric structs the spec
// calls out as typed accessors on Visitor (try_get_vector/try_get_rotator).
type Vector3 struct{ X, Y, Z float32 }

type Rotator struct{ Pitch, Yaw, Roll float32 }

const (
	TypeBool core.TypeRef = core.FirstConcreteTypeRef + iota
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeVector3
	TypeRotator
)

type typeDesc struct {
	name        string
	size, align int
}

// Builtin registers bool, int32, int64, float32, float64, string,
// Vector3 and Rotator. String values are HeapValue-only (variable size);
// every other built-in type fits inline as a SmallValue.
type Builtin struct {
	descs map[core.TypeRef]typeDesc
	names map[string]core.TypeRef
}

// NewBuiltin constructs a Builtin registry with all built-in types
// pre-registered.
func NewBuiltin() *Builtin {
	b := &Builtin{
		descs: map[core.TypeRef]typeDesc{
			TypeBool:    {"bool", 1, 1},
			TypeInt32:   {"int32", 4, 4},
			TypeInt64:   {"int64", 8, 8},
			TypeFloat32: {"float32", 4, 4},
			TypeFloat64: {"float64", 8, 8},
			// size=0 is the sentinel package node treats as "variable
			// length": the boxed buffer is sized to the value being
			// stored rather than to a fixed struct size.
			TypeString:  {"string", 0, 1},
			TypeVector3: {"Vector3", 12, 4},
			TypeRotator: {"Rotator", 12, 4},
		},
		names: map[string]core.TypeRef{},
	}
	for t, d := range b.descs {
		b.names[d.name] = t
	}
	return b
}

func (b *Builtin) desc(t core.TypeRef) typeDesc {
	d, ok := b.descs[t]
	if !ok {
		panic(fmt.Sprintf("typeregistry: unknown TypeRef %v", t))
	}
	return d
}

func (b *Builtin) Size(t core.TypeRef) int  { return b.desc(t).size }
func (b *Builtin) Align(t core.TypeRef) int { return b.desc(t).align }

func (b *Builtin) Init(t core.TypeRef, dst []byte) {
	for i := range dst {
		dst[i] = 0
	}
}

func (b *Builtin) Destroy(t core.TypeRef, src []byte) {
	// All built-in types are plain bytes; nothing external to release.
}

func (b *Builtin) Copy(t core.TypeRef, dst, src []byte) {
	copy(dst, src)
}

func (b *Builtin) Compare(t core.TypeRef, a, bb []byte) bool {
	if len(a) != len(bb) {
		return false
	}
	for i := range a {
		if a[i] != bb[i] {
			return false
		}
	}
	return true
}

func (b *Builtin) NameOf(t core.TypeRef) string {
	if d, ok := b.descs[t]; ok {
		return d.name
	}
	return ""
}

func (b *Builtin) Lookup(name string) (core.TypeRef, bool) {
	t, ok := b.names[name]
	return t, ok
}

// Serialize writes the network-aware form when net is true (varint for
// integers), else the fixed-width binary form. Builtin's types have no
// meaningful distinction beyond integers, where varint packing pays off
// for the small magnitudes typical of replicated game/app state.
func (b *Builtin) Serialize(t core.TypeRef, src []byte, w io.Writer, net bool) error {
	switch t {
	case TypeBool:
		_, err := w.Write(src[:1])
		return err
	case TypeInt32:
		v := int64(int32(binary.LittleEndian.Uint32(src)))
		return writeInt(w, v, net, 4)
	case TypeInt64:
		v := int64(binary.LittleEndian.Uint64(src))
		return writeInt(w, v, net, 8)
	case TypeFloat32, TypeFloat64, TypeVector3, TypeRotator:
		_, err := w.Write(src)
		return err
	default:
		return fmt.Errorf("typeregistry: Serialize: unsupported type %v", t)
	}
}

func (b *Builtin) Deserialize(t core.TypeRef, dst []byte, r io.Reader, net bool) error {
	switch t {
	case TypeBool:
		_, err := io.ReadFull(r, dst[:1])
		return err
	case TypeInt32:
		v, err := readInt(r, net, 4)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
		return nil
	case TypeInt64:
		v, err := readInt(r, net, 8)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(dst, uint64(v))
		return nil
	case TypeFloat32, TypeFloat64, TypeVector3, TypeRotator:
		_, err := io.ReadFull(r, dst)
		return err
	default:
		return fmt.Errorf("typeregistry: Deserialize: unsupported type %v", t)
	}
}

func writeInt(w io.Writer, v int64, net bool, width int) error {
	if !net {
		buf := make([]byte, width)
		switch width {
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
		case 8:
			binary.LittleEndian.PutUint64(buf, uint64(v))
		}
		_, err := w.Write(buf)
		return err
	}
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func readInt(r io.Reader, net bool, width int) (int64, error) {
	if !net {
		buf := make([]byte, width)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		switch width {
		case 4:
			return int64(int32(binary.LittleEndian.Uint32(buf))), nil
		case 8:
			return int64(binary.LittleEndian.Uint64(buf)), nil
		}
	}
	br, ok := r.(io.ByteReader)
	if !ok {
		return 0, fmt.Errorf("typeregistry: Deserialize net form requires io.ByteReader")
	}
	return binary.ReadVarint(br)
}

// EncodeFloat32/DecodeFloat32 are tiny helpers the CLI uses when building
// test values from script files.
func EncodeFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func DecodeFloat32(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}
