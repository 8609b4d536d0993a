package core

import "strconv"

// TypeRef identifies either a reserved kind (Empty, Array, Map) or a
// concrete value type registered with a TypeRegistry. Using one field for
// both lets the delta protocol encode "kind" and "concrete type" together,
// and lets a TypeRef travel unchanged from server to client through the
// object mapper.
type TypeRef uint32

const (
	// TypeEmpty marks a Node holding no payload.
	TypeEmpty TypeRef = 0
	// TypeArray marks a Node that is an ordered sequence of NodeIds.
	TypeArray TypeRef = 1
	// TypeMap marks a Node that is a name->NodeId mapping.
	TypeMap TypeRef = 2

	// FirstConcreteTypeRef is the lowest TypeRef a TypeRegistry may assign
	// to a concrete value type. Reserving a small range below it keeps room
	// for future built-in kinds without forcing a registry round-trip.
	FirstConcreteTypeRef TypeRef = 16
)

// IsReserved reports whether t is one of the three structural sentinels.
func (t TypeRef) IsReserved() bool {
	return t == TypeEmpty || t == TypeArray || t == TypeMap
}

// IsConcrete reports whether t denotes a value type in some TypeRegistry.
func (t TypeRef) IsConcrete() bool {
	return !t.IsReserved()
}

func (t TypeRef) String() string {
	switch t {
	case TypeEmpty:
		return "Empty"
	case TypeArray:
		return "Array"
	case TypeMap:
		return "Map"
	default:
		return "Type#" + strconv.FormatUint(uint64(t), 10)
	}
}
