package dax

import (
	"io"

	"github.com/daxsystems/dax/core"
	"github.com/daxsystems/dax/internal/wire"
)

// WritePathRef encodes a Visitor's path in the network form the
// replication protocol uses to address a node: a has-path flag (so the
// common "refers to root" case costs one byte), a segment count, and
// then each segment as a kind byte plus either a varint array index or
// a length-prefixed map key.
func WritePathRef(w io.Writer, segs []Segment) error {
	hasPath := byte(0)
	if len(segs) > 0 {
		hasPath = 1
	}
	if _, err := w.Write([]byte{hasPath}); err != nil {
		return err
	}
	if hasPath == 0 {
		return nil
	}
	if err := wire.WriteUvarint(w, uint64(len(segs))); err != nil {
		return err
	}
	for _, seg := range segs {
		if err := writeSegment(w, seg); err != nil {
			return err
		}
	}
	return nil
}

func writeSegment(w io.Writer, seg Segment) error {
	if seg.IsIndex {
		if _, err := w.Write([]byte{1}); err != nil {
			return err
		}
		return wire.WriteUvarint(w, uint64(uint32(seg.Index)))
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	return wire.WriteName(w, seg.Name)
}

// ReadPathRef decodes a path encoded by WritePathRef.
func ReadPathRef(r wire.ByteReader) ([]Segment, error) {
	hasPath, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if hasPath == 0 {
		return nil, nil
	}
	count, err := wire.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if count > MaxPathDepth {
		return nil, core.Kind(core.ErrKindResolvePathTooDeep)
	}
	segs := make([]Segment, count)
	for i := range segs {
		seg, err := readSegment(r)
		if err != nil {
			return nil, err
		}
		segs[i] = seg
	}
	return segs, nil
}

func readSegment(r wire.ByteReader) (Segment, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Segment{}, err
	}
	if kind == 1 {
		v, err := wire.ReadUvarint(r)
		if err != nil {
			return Segment{}, err
		}
		return IndexSegment(int32(uint32(v))), nil
	}
	name, err := wire.ReadName(r)
	if err != nil {
		return Segment{}, err
	}
	return Segment{IsIndex: false, Name: name}, nil
}
