package core

import "io"

// TypeRegistry is the abstract description of concrete value types that
// the Tree stores. It is modelled as an external collaborator: the
// scripting-language bindings and editor asset factories that would
// normally populate one are out of scope here, but any object satisfying
// this interface can be plugged into a Tree.
//
// Implementations must be safe for concurrent read-only use (Size, Align,
// Compare, Serialize, ...) since a server and all of its clients' Trees
// may share a single TypeRegistry instance.
type TypeRegistry interface {
	// Size returns the in-memory size, in bytes, of a value of type t.
	Size(t TypeRef) int

	// Align returns the required alignment, in bytes, of a value of type t.
	Align(t TypeRef) int

	// Init writes a zero/default value of type t into dst, which is
	// guaranteed to be at least Size(t) bytes.
	Init(t TypeRef, dst []byte)

	// Destroy releases any resources owned by the value stored in src
	// (no-op for plain-old-data types; matters for types that own handles
	// external to the byte buffer).
	Destroy(t TypeRef, src []byte)

	// Copy duplicates the value in src into dst. Both slices are at least
	// Size(t) bytes.
	Copy(t TypeRef, dst, src []byte)

	// Compare reports whether a and b hold the same value of type t.
	Compare(t TypeRef, a, b []byte) bool

	// Serialize writes the binary form of the value in src to w. When the
	// type supports a network-aware encoding distinct from its on-disk
	// binary form (e.g. varint-packed integers), net selects it.
	Serialize(t TypeRef, src []byte, w io.Writer, net bool) error

	// Deserialize reads the binary form of a value of type t from r into
	// dst (which is at least Size(t) bytes), using the same net switch as
	// Serialize.
	Deserialize(t TypeRef, dst []byte, r io.Reader, net bool) error

	// NameOf returns a human-readable name for t, used by debug printers;
	// implementations may return "" if they have no better name.
	NameOf(t TypeRef) string

	// Lookup resolves a type by its registry-assigned name, returning
	// (TypeEmpty, false) if unknown. Used by readers that must map an
	// incoming TypeRef through a name-keyed table (the network path can
	// carry either the TypeRef or, on first use, a name that still needs
	// binding); returns ok=false rather than erroring so callers can
	// implement the protocol's "defer and retry" behavior for unmapped
	// types.
	Lookup(name string) (TypeRef, bool)
}
