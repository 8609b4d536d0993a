package alloc

import "errors"

// These are the allocator's own sentinel failures, distinct from the
// core.Error taxonomy used by higher layers (package dax wraps these
// into core.ErrKindResolveAllocateFailed / core.ErrKindInvalidNode as
// appropriate). Keeping them as plain errors here mirrors how a
// low-level slab allocator reports failure without pulling in the rest
// of the protocol's vocabulary.
var (
	// ErrExhausted indicates every chunk is full and MAX_CHUNKS has
	// already been reached, or reserving one more chunk would exceed
	// total capacity.
	ErrExhausted = errors.New("alloc: pool exhausted")

	// ErrStaleNode indicates a NodeId's generation no longer matches the
	// slot's current generation (use-after-free/after-reallocation).
	ErrStaleNode = errors.New("alloc: stale node id")

	// ErrBadNode indicates a NodeId's index is out of range or refers to
	// the reserved sentinel slot in the last chunk.
	ErrBadNode = errors.New("alloc: bad node id")

	// ErrGenerationMismatch is declared for callers' use; the Allocator's
	// own methods report a stale generation as ErrStaleNode instead.
	ErrGenerationMismatch = errors.New("alloc: generation mismatch")
)
