package core

import "sync"

// Name is an interned Map key. Interning keeps repeated keys ("hp", "x",
// "items") from allocating a fresh string header on every lookup; the
// Tree is single-threaded per the concurrency model, but the intern table
// itself uses sync.Map so embedders that build Names from multiple
// loader goroutines before handing a Tree to its owning thread don't need
// to coordinate.
type Name string

var internTable sync.Map // string -> Name

// Intern returns the canonical Name for s. Two calls with equal s always
// compare equal and, in practice, share the same backing string data.
func Intern(s string) Name {
	if v, ok := internTable.Load(s); ok {
		return v.(Name)
	}
	n := Name(s)
	actual, _ := internTable.LoadOrStore(s, n)
	return actual.(Name)
}

func (n Name) String() string { return string(n) }
