package wire

import (
	"io"

	"github.com/daxsystems/dax/nodeid"
)

// WriteNodeId writes a NodeId as two varints: index then generation.
func WriteNodeId(w io.Writer, id nodeid.NodeId) error {
	if err := WriteUvarint(w, uint64(id.Index)); err != nil {
		return err
	}
	return WriteUvarint(w, uint64(id.Generation))
}

// ReadNodeId reads a NodeId written by WriteNodeId.
func ReadNodeId(r ByteReader) (nodeid.NodeId, error) {
	index, err := ReadUvarint(r)
	if err != nil {
		return nodeid.Invalid, err
	}
	gen, err := ReadUvarint(r)
	if err != nil {
		return nodeid.Invalid, err
	}
	return nodeid.New(uint16(index), uint16(gen)), nil
}
