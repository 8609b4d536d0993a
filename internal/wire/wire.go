// Package wire provides the shared byte-level codec used by NodeId,
// Visitor paths and the delta protocol: variable-length unsigned
// integers and length-prefixed names. Keeping this in one place means
// the allocator, the tree and the delta engine can't drift on encoding
// details like they would if each rolled its own.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/daxsystems/dax/core"
)

// MaxNameLen bounds a single Name's encoded byte length, guarding readers
// against a corrupt or hostile length prefix driving an oversized
// allocation.
const MaxNameLen = 1 << 16

// WriteUvarint writes v to w using the standard LEB128-style encoding
// from encoding/binary. There is no reason to hand-roll this: the
// standard library's varint codec is exactly what every Go wire format
// in the ecosystem reaches for.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

// ReadUvarint reads a value written by WriteUvarint.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}

// WriteName writes a length-prefixed, interned Name.
func WriteName(w io.Writer, n core.Name) error {
	b := []byte(n)
	if len(b) > MaxNameLen {
		return fmt.Errorf("wire: name too long: %d bytes", len(b))
	}
	if err := WriteUvarint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadName reads a Name written by WriteName. r must implement
// io.ByteReader for the varint length prefix (bufio.Reader satisfies
// this, as does bytes.Reader).
func ReadName(r interface {
	io.Reader
	io.ByteReader
},
) (core.Name, error) {
	l, err := ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if l > MaxNameLen {
		return "", fmt.Errorf("wire: name length %d exceeds max %d", l, MaxNameLen)
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return core.Intern(string(buf)), nil
}

// ByteReader is the minimal reader interface the wire package needs:
// enough for varints (ByteReader) and fixed-length reads (Reader).
type ByteReader interface {
	io.Reader
	io.ByteReader
}
